// Package server runs the gin router over HTTP/1.1 and h2c and registers
// it as a lifecycle component.
//
// Every request passes through the net/http chain in server/middleware
// before gin sees it: panic recovery, request IDs, CORS, the body size cap
// and the access log, in that order. Telemetry is a gin middleware so it
// can label spans and metrics with the matched route.
//
// RegisterDefaultEndpoints adds the probes /alive, /ready and /version.
package server
