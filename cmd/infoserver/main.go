// Infoserver serves the element-info, variable and commons APIs used by
// SeleniumRobot test runs.
//
// Usage:
//
//	# Start the server with defaults and INFOSERVER_* environment overrides
//	infoserver serve
//
//	# Start with a configuration file
//	infoserver serve --config /etc/infoserver/config.yaml
//
//	# Delete stale element-info records once
//	infoserver sweep --config config.yaml
//
//	# Check a configuration file
//	infoserver validate --config config.yaml
//
//	# Issue a bearer token for a robot account
//	infoserver token --subject robot --capability variable.see_protected
package main

import "os"

func main() {
	os.Exit(Execute())
}
