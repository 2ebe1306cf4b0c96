// Package audio holds the decoded waveform a transcription request works on
// and the loader that produces it.
//
// A Sample is mono float32 PCM at a fixed rate (16 kHz, the rate every
// inference sidecar expects). It is immutable once built: the loader creates
// it, the pipeline reads it, and each stage receives it re-encoded as a
// PCM16 WAV body.
//
// FFmpegLoader decodes any container ffmpeg understands by piping raw s16le
// from the ffmpeg binary through the process package.
package audio
