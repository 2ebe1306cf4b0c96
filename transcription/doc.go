// Package transcription is the speech-to-text stage. It owns the Word and
// Segment types that alignment, fusion and the HTTP response share.
//
// The only backend is transcription/whisper, which talks to a
// faster-whisper sidecar:
//
//	reg := transcription.NewRegistry()
//	reg.RegisterFactory(whisper.ProviderName, whisper.Factory())
//	p, err := reg.Create("whisper", map[string]any{"model": "large-v2"})
//	resp, err := p.Transcribe(ctx, transcription.Request{Audio: sample, Language: "en"})
package transcription
