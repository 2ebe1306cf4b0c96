package audio

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"testing"
	"time"

	"github.com/jbousquie/whisperx-api/errors"
	"github.com/jbousquie/whisperx-api/process"
)

func pcm16(values ...int16) []byte {
	b := make([]byte, 2*len(values))
	for i, v := range values {
		binary.LittleEndian.PutUint16(b[2*i:], uint16(v))
	}
	return b
}

func TestDecodePCM16(t *testing.T) {
	s, err := DecodePCM16(pcm16(0, 16384, -32768, 32767), SampleRate)
	if err != nil {
		t.Fatalf("DecodePCM16 failed: %v", err)
	}
	if s.Len() != 4 {
		t.Fatalf("expected 4 samples, got %d", s.Len())
	}
	want := []float32{0, 0.5, -1, 32767.0 / 32768.0}
	for i, w := range want {
		if s.At(i) != w {
			t.Errorf("sample %d: expected %v, got %v", i, w, s.At(i))
		}
	}
}

func TestDecodePCM16OddLength(t *testing.T) {
	if _, err := DecodePCM16([]byte{1, 2, 3}, SampleRate); err == nil {
		t.Error("expected error for odd byte length")
	}
	if _, err := DecodePCM16(nil, 0); err == nil {
		t.Error("expected error for zero sample rate")
	}
}

func TestSampleDuration(t *testing.T) {
	s, _ := NewSample(make([]float32, SampleRate*3/2), SampleRate)
	if s.Seconds() != 1.5 {
		t.Errorf("expected 1.5s, got %v", s.Seconds())
	}
	if s.Duration() != 1500*time.Millisecond {
		t.Errorf("expected 1.5s duration, got %v", s.Duration())
	}
	var nilSample *Sample
	if !nilSample.Empty() {
		t.Error("nil sample should be empty")
	}
}

func TestNewSampleCopiesInput(t *testing.T) {
	in := []float32{0.1, 0.2}
	s, err := NewSample(in, SampleRate)
	if err != nil {
		t.Fatal(err)
	}
	in[0] = 0.9
	if s.At(0) != 0.1 {
		t.Error("expected sample to be isolated from caller's slice")
	}
}

func TestWAVRoundTripHeader(t *testing.T) {
	s, _ := DecodePCM16(pcm16(100, -100, 2000), SampleRate)
	var buf bytes.Buffer
	if err := s.WriteWAV(&buf); err != nil {
		t.Fatal(err)
	}
	wav := buf.Bytes()

	if len(wav) != wavHeaderSize+6 {
		t.Fatalf("expected %d bytes, got %d", wavHeaderSize+6, len(wav))
	}
	if string(wav[0:4]) != "RIFF" || string(wav[8:12]) != "WAVE" || string(wav[36:40]) != "data" {
		t.Fatal("malformed RIFF header")
	}
	if got := binary.LittleEndian.Uint32(wav[24:28]); got != SampleRate {
		t.Errorf("expected sample rate %d, got %d", SampleRate, got)
	}
	if got := binary.LittleEndian.Uint16(wav[22:24]); got != 1 {
		t.Errorf("expected mono, got %d channels", got)
	}

	back, err := DecodePCM16(wav[wavHeaderSize:], SampleRate)
	if err != nil {
		t.Fatal(err)
	}
	for i := range back.Len() {
		if back.At(i) != s.At(i) {
			t.Errorf("sample %d changed through WAV encoding: %v != %v", i, back.At(i), s.At(i))
		}
	}
}

func TestToInt16Clamps(t *testing.T) {
	if toInt16(2) != 32767 {
		t.Error("expected clamp to max")
	}
	if toInt16(-2) != -32768 {
		t.Error("expected clamp to min")
	}
}

func writeTempFile(t *testing.T) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "input.mp3")
	if err := os.WriteFile(p, []byte("not really mp3"), 0o600); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestFFmpegLoaderLoad(t *testing.T) {
	path := writeTempFile(t)
	var got process.Command
	loader := NewFFmpegLoader(Config{}, func(ctx context.Context, cmd process.Command) (*process.Result, error) {
		got = cmd
		return &process.Result{Stdout: pcm16(0, 16384)}, nil
	})

	s, err := loader.Load(context.Background(), path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if s.Len() != 2 || s.Rate() != SampleRate {
		t.Errorf("unexpected sample: len=%d rate=%d", s.Len(), s.Rate())
	}
	if got.Binary != "ffmpeg" {
		t.Errorf("expected ffmpeg binary, got %q", got.Binary)
	}
	if !slices.Equal(got.Args, Args(path)) {
		t.Errorf("unexpected args %v", got.Args)
	}
	if !slices.Contains(got.Args, "-nostdin") || got.Args[len(got.Args)-1] != "-" {
		t.Errorf("expected stdout streaming args, got %v", got.Args)
	}
}

func TestFFmpegLoaderFailures(t *testing.T) {
	path := writeTempFile(t)
	tests := []struct {
		name string
		path string
		run  process.Runner
	}{
		{"missing file", filepath.Join(t.TempDir(), "nope.wav"), nil},
		{"ffmpeg error", path, func(ctx context.Context, cmd process.Command) (*process.Result, error) {
			return &process.Result{ExitCode: 1}, fmt.Errorf("Invalid data found when processing input")
		}},
		{"empty output", path, func(ctx context.Context, cmd process.Command) (*process.Result, error) {
			return &process.Result{}, nil
		}},
		{"odd output", path, func(ctx context.Context, cmd process.Command) (*process.Result, error) {
			return &process.Result{Stdout: []byte{1}}, nil
		}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			run := tc.run
			if run == nil {
				run = func(ctx context.Context, cmd process.Command) (*process.Result, error) {
					t.Fatal("runner should not be called")
					return nil, nil
				}
			}
			_, err := NewFFmpegLoader(Config{}, run).Load(context.Background(), tc.path)
			if !errors.IsCode(err, errors.ErrCodeAudioDecode) {
				t.Errorf("expected AUDIO_DECODE_FAILED, got %v", err)
			}
		})
	}
}
