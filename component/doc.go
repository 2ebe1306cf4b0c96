// Package component defines the lifecycle contract shared by the long-lived
// parts of the service (model manager, HTTP server, telemetry).
//
// Components are registered with a Registry, started in registration order,
// stopped in reverse order and polled for health by the bootstrap package
// and the /health endpoint.
package component
