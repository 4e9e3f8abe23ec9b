// Package config provides configuration management for the info server.
//
// Configuration is read from a YAML file, completed with defaults and then
// overridden from the environment. Environment variables follow the naming
// convention INFOSERVER_SECTION_FIELD, for example:
//
//   - INFOSERVER_SERVER_LISTEN_ADDRESS overrides server.listen_address
//   - INFOSERVER_STORAGE_DRIVER overrides storage.driver
//   - INFOSERVER_SECURITY_API_ENABLED overrides security.api_enabled
//
// # Configuration Precedence
//
// Values are applied in the following order (later overrides earlier):
//
//  1. Default values (defined in defaults.go)
//  2. Values from YAML file
//  3. Environment variable overrides
//  4. Validation (fails fast if invalid)
//
// # Live Configuration
//
// A running server reads its configuration through a Holder rather than a
// package global. The security toggle is consulted on every request, so a
// Watcher attached to the holder makes edits to the file take effect
// without a restart:
//
//	holder, err := config.LoadHolder("config.yaml")
//	if err != nil {
//	    return err
//	}
//	w, err := config.NewWatcher(holder, 0, nil)
//	if err != nil {
//	    return err
//	}
//	go w.Watch(ctx)
//
// # Validation
//
// Validate collects every problem into a ValidationError made of FieldErrors,
// each naming the dotted path of the offending key.
package config
