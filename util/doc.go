// Package util holds small helpers shared by the service and its tools:
// byte-size parsing for body limits, token masking for logs, .env value
// cleanup and upload file name sanitization.
package util
