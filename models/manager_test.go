package models

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/jbousquie/whisperx-api/accelerator"
	"github.com/jbousquie/whisperx-api/alignment"
	"github.com/jbousquie/whisperx-api/component"
	"github.com/jbousquie/whisperx-api/diarization"
	"github.com/jbousquie/whisperx-api/errors"
	"github.com/jbousquie/whisperx-api/transcription"
)

type fakeBackend struct {
	name     string
	initErr  error
	closed   atomic.Bool
	released atomic.Int32
	cfg      map[string]any
}

func (f *fakeBackend) Name() string                         { return f.name }
func (f *fakeBackend) IsAvailable(ctx context.Context) bool { return true }
func (f *fakeBackend) Init(ctx context.Context) error       { return f.initErr }
func (f *fakeBackend) Close(ctx context.Context) error {
	f.closed.Store(true)
	return nil
}
func (f *fakeBackend) ReleaseMemory(ctx context.Context) error {
	f.released.Add(1)
	return fmt.Errorf("release not supported")
}

type fakeTranscriber struct{ fakeBackend }

func (f *fakeTranscriber) Transcribe(ctx context.Context, req transcription.Request) (*transcription.Response, error) {
	return &transcription.Response{}, nil
}
func (f *fakeTranscriber) Model() string { return fmt.Sprint(f.cfg["model"]) }

type fakeAligner struct{ fakeBackend }

func (f *fakeAligner) Align(ctx context.Context, req alignment.Request) ([]transcription.Segment, error) {
	return req.Segments, nil
}
func (f *fakeAligner) Language() string { return fmt.Sprint(f.cfg["language"]) }

type fakeDiarizer struct{ fakeBackend }

func (f *fakeDiarizer) Diarize(ctx context.Context, req diarization.Request) (*diarization.Response, error) {
	return &diarization.Response{}, nil
}

type fixture struct {
	regs        Registries
	transcriber *fakeTranscriber
	aligner     *fakeAligner
	diarizer    *fakeDiarizer
	created     atomic.Int32
}

func newFixture(transcribeErr, alignErr, diarizeErr error) *fixture {
	f := &fixture{
		regs: Registries{
			Transcription: transcription.NewRegistry(),
			Alignment:     alignment.NewRegistry(),
			Diarization:   diarization.NewRegistry(),
		},
	}
	f.regs.Transcription.RegisterFactory("whisper", func(cfg map[string]any) (transcription.Provider, error) {
		f.created.Add(1)
		f.transcriber = &fakeTranscriber{fakeBackend{name: "whisper", initErr: transcribeErr, cfg: cfg}}
		return f.transcriber, nil
	})
	f.regs.Alignment.RegisterFactory("wav2vec", func(cfg map[string]any) (alignment.Provider, error) {
		f.aligner = &fakeAligner{fakeBackend{name: "wav2vec", initErr: alignErr, cfg: cfg}}
		return f.aligner, nil
	})
	f.regs.Diarization.RegisterFactory("pyannote", func(cfg map[string]any) (diarization.Provider, error) {
		f.diarizer = &fakeDiarizer{fakeBackend{name: "pyannote", initErr: diarizeErr, cfg: cfg}}
		return f.diarizer, nil
	})
	return f
}

type gpuProber struct{}

func (gpuProber) GPUs(ctx context.Context) ([]accelerator.GPU, error) {
	return []accelerator.GPU{{Name: "A100", MemoryTotalMB: 40960}}, nil
}

// assertHandles checks that readiness flags agree with handle presence.
func assertHandles(t *testing.T, m *Manager) {
	t.Helper()
	s := m.Status()
	_, tOK := m.Transcriber()
	_, aOK := m.Aligner()
	_, dOK := m.Diarizer()
	if s.TranscriptionReady != tOK || s.AlignmentReady != aOK || s.DiarizationReady != dOK {
		t.Errorf("readiness %+v disagrees with handles t=%v a=%v d=%v", s, tOK, aOK, dOK)
	}
}

func TestInitializeAllReady(t *testing.T) {
	f := newFixture(nil, nil, nil)
	m := NewManager(Config{Diarization: DiarizationConfig{Token: "hf_abcdefgh"}}, f.regs, gpuProber{})

	r, err := m.Initialize(context.Background())
	if err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}
	if !r.TranscriptionReady || !r.AlignmentReady || !r.DiarizationReady {
		t.Errorf("expected all ready, got %+v", r)
	}
	if r.Device.Kind != accelerator.KindCUDA || r.Device.ComputeType != accelerator.ComputeFloat16 {
		t.Errorf("expected cuda/float16, got %+v", r.Device)
	}
	if r.TranscriptionModel != DefaultTranscriptionModel {
		t.Errorf("expected model %s, got %s", DefaultTranscriptionModel, r.TranscriptionModel)
	}
	if r.AlignmentLanguage != "en" {
		t.Errorf("expected alignment language en, got %s", r.AlignmentLanguage)
	}
	if f.diarizer.cfg["token"] != "hf_abcdefgh" || f.diarizer.cfg["device"] != "cuda" {
		t.Errorf("unexpected diarization options %v", f.diarizer.cfg)
	}
	if h := m.Health(context.Background()); h.Status != component.StatusHealthy {
		t.Errorf("expected healthy, got %+v", h)
	}
	assertHandles(t, m)
}

func TestInitializeRunsOnce(t *testing.T) {
	f := newFixture(nil, nil, nil)
	m := NewManager(Config{}, f.regs, nil)

	for i := 0; i < 3; i++ {
		if _, err := m.Initialize(context.Background()); err != nil {
			t.Fatalf("Initialize failed: %v", err)
		}
	}
	if got := f.created.Load(); got != 1 {
		t.Errorf("expected one transcription load, got %d", got)
	}
}

func TestInitializeTranscriptionFailureIsFatal(t *testing.T) {
	f := newFixture(fmt.Errorf("sidecar down"), nil, nil)
	m := NewManager(Config{}, f.regs, nil)

	r, err := m.Initialize(context.Background())
	if !errors.IsCode(err, errors.ErrCodeInitialization) {
		t.Fatalf("expected INITIALIZATION_FAILED, got %v", err)
	}
	if r.TranscriptionReady || r.AlignmentReady || r.DiarizationReady {
		t.Errorf("expected nothing ready, got %+v", r)
	}
	if err := m.Start(context.Background()); err == nil {
		t.Error("expected Start to return the initialization error")
	}
	if h := m.Health(context.Background()); h.Status != component.StatusUnhealthy {
		t.Errorf("expected unhealthy, got %+v", h)
	}
	assertHandles(t, m)
}

func TestInitializeAlignmentFailureDegrades(t *testing.T) {
	f := newFixture(nil, fmt.Errorf("no model for language"), nil)
	m := NewManager(Config{Diarization: DiarizationConfig{Token: "hf_abcdefgh"}}, f.regs, nil)

	r, err := m.Initialize(context.Background())
	if err != nil {
		t.Fatalf("expected alignment failure to be non-fatal, got %v", err)
	}
	if r.AlignmentReady {
		t.Error("expected alignment not ready")
	}
	if r.Reasons[CapabilityAlignment] == "" {
		t.Error("expected an alignment reason")
	}
	if !r.TranscriptionReady || !r.DiarizationReady {
		t.Errorf("expected transcription and diarization ready, got %+v", r)
	}
	if _, ok := m.Aligner(); ok {
		t.Error("expected no aligner handle")
	}
	if h := m.Health(context.Background()); h.Status != component.StatusDegraded {
		t.Errorf("expected degraded, got %+v", h)
	}
	assertHandles(t, m)
}

func TestInitializeWithoutTokenDisablesDiarization(t *testing.T) {
	t.Setenv("HF_TOKEN", "")
	t.Setenv("HUGGINGFACE_TOKEN", "")
	f := newFixture(nil, nil, nil)
	m := NewManager(Config{}, f.regs, nil)

	r, err := m.Initialize(context.Background())
	if err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}
	if r.DiarizationReady {
		t.Error("expected diarization disabled")
	}
	if r.Reasons[CapabilityDiarization] != ReasonNoToken {
		t.Errorf("expected reason %q, got %q", ReasonNoToken, r.Reasons[CapabilityDiarization])
	}
	if f.diarizer != nil {
		t.Error("expected the diarization backend never to be created")
	}
	if r.Device.Kind != accelerator.KindCPU || r.Device.ComputeType != accelerator.ComputeInt8 {
		t.Errorf("expected cpu/int8 without a prober, got %+v", r.Device)
	}
	assertHandles(t, m)
}

func TestInitializeTokenFromEnv(t *testing.T) {
	t.Setenv("HF_TOKEN", "")
	t.Setenv("HUGGINGFACE_TOKEN", "hf_fromenv")
	f := newFixture(nil, nil, nil)
	m := NewManager(Config{}, f.regs, nil)

	if _, err := m.Initialize(context.Background()); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}
	if f.diarizer == nil || f.diarizer.cfg["token"] != "hf_fromenv" {
		t.Fatalf("expected the env token to reach the backend")
	}
}

func TestInitializeDiarizationFailureDegrades(t *testing.T) {
	f := newFixture(nil, nil, fmt.Errorf("gated model"))
	m := NewManager(Config{Diarization: DiarizationConfig{Token: "hf_abcdefgh"}}, f.regs, nil)

	r, err := m.Initialize(context.Background())
	if err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}
	if r.DiarizationReady {
		t.Error("expected diarization not ready")
	}
	if _, ok := m.Diarizer(); ok {
		t.Error("expected no diarizer handle")
	}
	assertHandles(t, m)
}

func TestStageOptionsPreferConfigured(t *testing.T) {
	f := newFixture(nil, nil, nil)
	cfg := Config{
		Device:        "cpu",
		Language:      "fr",
		Transcription: StageConfig{Options: map[string]any{"model": "medium", "batch_size": 8}},
	}
	m := NewManager(cfg, f.regs, gpuProber{})
	r, err := m.Initialize(context.Background())
	if err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}
	if r.TranscriptionModel != "medium" {
		t.Errorf("expected configured model, got %s", r.TranscriptionModel)
	}
	if f.transcriber.cfg["device"] != "cpu" || f.transcriber.cfg["language"] != "fr" || f.transcriber.cfg["batch_size"] != 8 {
		t.Errorf("unexpected transcription options %v", f.transcriber.cfg)
	}
	if r.AlignmentLanguage != "fr" {
		t.Errorf("expected alignment for fr, got %s", r.AlignmentLanguage)
	}
}

func TestStatusBeforeInitialize(t *testing.T) {
	m := NewManager(Config{}, newFixture(nil, nil, nil).regs, nil)
	if s := m.Status(); s.Initialized || s.TranscriptionReady {
		t.Errorf("expected empty status, got %+v", s)
	}
	if h := m.Health(context.Background()); h.Status != component.StatusUnhealthy {
		t.Errorf("expected unhealthy before init, got %+v", h)
	}
	assertHandles(t, m)
}

func TestReclaimLogsFailures(t *testing.T) {
	f := newFixture(nil, nil, nil)
	m := NewManager(Config{Diarization: DiarizationConfig{Token: "hf_abcdefgh"}}, f.regs, nil)
	if _, err := m.Initialize(context.Background()); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}

	m.Reclaim(context.Background())
	if f.transcriber.released.Load() != 1 || f.aligner.released.Load() != 1 || f.diarizer.released.Load() != 1 {
		t.Error("expected every backend to be asked to release memory once")
	}
}

func TestStopDropsHandles(t *testing.T) {
	f := newFixture(nil, nil, nil)
	m := NewManager(Config{Diarization: DiarizationConfig{Token: "hf_abcdefgh"}}, f.regs, nil)
	if err := m.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if err := m.Stop(context.Background()); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}
	if !f.transcriber.closed.Load() || !f.aligner.closed.Load() || !f.diarizer.closed.Load() {
		t.Error("expected every backend closed")
	}
	s := m.Status()
	if s.TranscriptionReady || s.AlignmentReady || s.DiarizationReady {
		t.Errorf("expected nothing ready after stop, got %+v", s)
	}
	assertHandles(t, m)
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"defaults", Config{}, false},
		{"cuda", Config{Device: "CUDA"}, false},
		{"bad device", Config{Device: "tpu"}, true},
		{"bad compute type", Config{ComputeType: "float64"}, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tc.cfg.ApplyDefaults()
			if err := tc.cfg.Validate(); (err != nil) != tc.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tc.wantErr)
			}
		})
	}
}
