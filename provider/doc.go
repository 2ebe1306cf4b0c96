// Package provider is the small generic framework the inference backends
// plug into: a Provider is anything with a name and an availability check,
// and a Registry maps backend names to factories so the model manager can
// build the configured backend without importing it directly.
//
// Opt-in lifecycle:
//   - Initializable: providers that need setup (load a model in a sidecar)
//   - Closeable: providers that hold resources (unload a model)
//
// # Usage
//
//	reg := provider.NewRegistry[transcription.Provider]()
//	reg.RegisterFactory("whisper", whisper.Factory())
//	p, err := reg.Create("whisper", map[string]any{"model": "large-v2"})
//	if err == nil {
//	    err = provider.Init(ctx, p)
//	}
package provider
