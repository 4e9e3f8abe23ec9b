// Package tls terminates HTTPS for the info server. The key pair named in
// security.tls is loaded at startup and re-read when the files change.
package tls
