// Package security groups the access control of the info server.
//
//   - auth: API key and JWT authentication, capability checks and the
//     HTTP middleware that enforces them when security.api_enabled is on
//   - tls: HTTPS key pair loading and hot reload
package security
