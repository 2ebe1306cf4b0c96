// Package sidecar is the HTTP client shared by the inference backends.
//
// Every model runs in a local sidecar process exposing the same small
// protocol:
//
//	GET  /health          200 when the process is up
//	POST /models/load     load the model described by the JSON body
//	POST /models/unload   drop the loaded model
//	POST /memory/release  free transient accelerator buffers
//	POST /<stage>         multipart request with an "audio" WAV part
//
// Failures are reported as EXTERNAL_SERVICE_ERROR AppErrors naming the
// sidecar.
package sidecar
