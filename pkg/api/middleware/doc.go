// Package middleware holds the HTTP middleware shared by every API area:
// request ids, access logging, panic recovery, request metrics and body
// limits. CaptureRoute wraps the router so the outer layers can label a
// request by its matched pattern instead of its raw path.
package middleware
