// Package version reports the build identity of the service binaries.
//
// Release builds stamp the variables with -ldflags:
//
//	go build -ldflags "-X github.com/jbousquie/whisperx-api/version.Version=1.4.0 \
//	    -X github.com/jbousquie/whisperx-api/version.BuildTime=2026-01-02T15:04:05Z" ./cmd/whisperx-api
//
// Unstamped builds fall back to the VCS settings the Go toolchain embeds.
package version
