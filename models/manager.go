// Package models owns the inference backends: it detects the device, loads
// every model once at startup and exposes a read-only readiness snapshot.
//
// Transcription is mandatory; a failure to load it fails startup. Alignment
// and diarization are optional and their absence degrades the service
// without stopping it.
package models

import (
	"context"
	stderrors "errors"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"github.com/jbousquie/whisperx-api/accelerator"
	"github.com/jbousquie/whisperx-api/alignment"
	"github.com/jbousquie/whisperx-api/component"
	"github.com/jbousquie/whisperx-api/diarization"
	"github.com/jbousquie/whisperx-api/diarization/huggingface"
	"github.com/jbousquie/whisperx-api/errors"
	"github.com/jbousquie/whisperx-api/logger"
	"github.com/jbousquie/whisperx-api/provider"
	"github.com/jbousquie/whisperx-api/transcription"
	"github.com/jbousquie/whisperx-api/util"
)

// ComponentName is the name the manager registers under.
const ComponentName = "models"

// Manager loads and holds the stage backends.
type Manager struct {
	cfg    Config
	regs   Registries
	prober accelerator.Prober
	log    *logger.Logger

	once    sync.Once
	initErr error

	mu          sync.RWMutex
	state       Readiness
	transcriber transcription.Provider
	aligner     alignment.Provider
	diarizer    diarization.Provider
}

var (
	_ component.Component   = (*Manager)(nil)
	_ component.Describable = (*Manager)(nil)
)

// NewManager creates a Manager. prober may be nil, in which case the device
// resolves to cpu unless cuda is forced.
func NewManager(cfg Config, regs Registries, prober accelerator.Prober) *Manager {
	cfg.ApplyDefaults()
	return &Manager{
		cfg:    cfg,
		regs:   regs,
		prober: prober,
		log:    logger.Get("models"),
	}
}

// Initialize detects the device and loads every model. It runs once;
// later calls return the first outcome.
func (m *Manager) Initialize(ctx context.Context) (Readiness, error) {
	m.once.Do(func() {
		m.initErr = m.initialize(ctx)
	})
	return m.Status(), m.initErr
}

func (m *Manager) initialize(ctx context.Context) error {
	start := time.Now()
	dev := accelerator.Detect(ctx, m.cfg.Device, m.cfg.ComputeType, m.prober)
	deviceOpts := map[string]any{
		"device":       string(dev.Kind),
		"compute_type": dev.ComputeType,
	}
	state := Readiness{Device: dev, Reasons: map[string]string{}}

	backend := m.cfg.Transcription.Backend
	opts := stageOptions(m.cfg.Transcription.Options, deviceOpts)
	opts = stageOptions(opts, map[string]any{"model": DefaultTranscriptionModel, "language": m.cfg.Language})
	t, err := load(ctx, m.regs.Transcription, backend, opts)
	if err != nil {
		m.log.Error("transcription model failed to load", logger.Fields(
			logger.FieldModel, backend,
			logger.FieldError, err.Error(),
		))
		state.Reasons[CapabilityTranscription] = ReasonLoadFailed + err.Error()
		state.Initialized = true
		m.publish(state, nil, nil, nil)
		return errors.InitializationFailed(backend, err)
	}
	state.TranscriptionModel = provider.String(opts, "model", DefaultTranscriptionModel)
	if named, ok := any(t).(interface{ Model() string }); ok {
		state.TranscriptionModel = named.Model()
	}
	m.log.Info("transcription model loaded", logger.Fields(
		logger.FieldModel, state.TranscriptionModel,
		logger.FieldDevice, string(dev.Kind),
	))

	a, err := load(ctx, m.regs.Alignment, m.cfg.Alignment.Backend,
		stageOptions(m.cfg.Alignment.Options, stageOptions(deviceOpts, map[string]any{"language": m.cfg.Language})))
	if err != nil {
		m.log.Warn("alignment model unavailable, word timestamps disabled", logger.Fields(
			logger.FieldModel, m.cfg.Alignment.Backend,
			logger.FieldLanguage, m.cfg.Language,
			logger.FieldError, err.Error(),
		))
		state.Reasons[CapabilityAlignment] = ReasonLoadFailed + err.Error()
	} else {
		state.AlignmentLanguage = a.Language()
		m.log.Info("alignment model loaded", logger.Fields(logger.FieldLanguage, a.Language()))
	}

	var d diarization.Provider
	token := huggingface.Token(m.cfg.Diarization.Token)
	if token == "" {
		m.log.Info("diarization disabled: no Hugging Face token")
		state.Reasons[CapabilityDiarization] = ReasonNoToken
	} else {
		d, err = load(ctx, m.regs.Diarization, m.cfg.Diarization.Backend,
			stageOptions(m.cfg.Diarization.Options, stageOptions(deviceOpts, map[string]any{"token": token})))
		if err != nil {
			m.log.Warn("diarization model unavailable", logger.Fields(
				logger.FieldModel, m.cfg.Diarization.Backend,
				"token", util.MaskSecret(token, 6),
				logger.FieldError, err.Error(),
			))
			state.Reasons[CapabilityDiarization] = ReasonLoadFailed + err.Error()
		} else {
			m.log.Info("diarization model loaded", logger.Fields(logger.FieldModel, m.cfg.Diarization.Backend))
		}
	}

	state.Initialized = true
	m.publish(state, t, a, d)
	m.log.Info("models initialized", logger.Fields(
		logger.FieldDevice, string(dev.Kind),
		"alignment", a != nil,
		"diarization", d != nil,
		logger.FieldDuration, time.Since(start).Milliseconds(),
	))
	return nil
}

// load creates the named backend and runs its model load.
func load[T provider.Provider](ctx context.Context, reg *provider.Registry[T], backend string, opts map[string]any) (T, error) {
	var zero T
	if reg == nil {
		return zero, fmt.Errorf("no registry for backend %q", backend)
	}
	p, err := reg.Create(backend, opts)
	if err != nil {
		return zero, err
	}
	if err := provider.Init(ctx, p); err != nil {
		return zero, fmt.Errorf("%s: %w", backend, err)
	}
	return p, nil
}

func (m *Manager) publish(state Readiness, t transcription.Provider, a alignment.Provider, d diarization.Provider) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = state
	m.transcriber = t
	m.aligner = a
	m.diarizer = d
}

// Status returns a snapshot. A capability is reported ready only while its
// handle is held.
func (m *Manager) Status() Readiness {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s := m.state.clone()
	s.TranscriptionReady = m.transcriber != nil
	s.AlignmentReady = m.aligner != nil
	s.DiarizationReady = m.diarizer != nil
	return s
}

// Transcriber returns the transcription backend.
func (m *Manager) Transcriber() (transcription.Provider, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.transcriber, m.transcriber != nil
}

// Aligner returns the alignment backend.
func (m *Manager) Aligner() (alignment.Provider, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.aligner, m.aligner != nil
}

// Diarizer returns the diarization backend.
func (m *Manager) Diarizer() (diarization.Provider, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.diarizer, m.diarizer != nil
}

func (m *Manager) loaded() []provider.Provider {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []provider.Provider
	if m.transcriber != nil {
		out = append(out, m.transcriber)
	}
	if m.aligner != nil {
		out = append(out, m.aligner)
	}
	if m.diarizer != nil {
		out = append(out, m.diarizer)
	}
	return out
}

// Reclaim asks every loaded backend to drop transient accelerator buffers
// and returns freed Go heap to the OS. Failures are logged only.
func (m *Manager) Reclaim(ctx context.Context) {
	for _, p := range m.loaded() {
		r, ok := p.(accelerator.Reclaimer)
		if !ok {
			continue
		}
		if err := r.ReleaseMemory(ctx); err != nil {
			m.log.WithContext(ctx).Warn("memory release failed", logger.Fields(
				logger.FieldModel, p.Name(),
				logger.FieldError, err.Error(),
			))
		}
	}
	debug.FreeOSMemory()
}

// Name implements component.Component.
func (m *Manager) Name() string { return ComponentName }

// Start implements component.Component by running Initialize.
func (m *Manager) Start(ctx context.Context) error {
	_, err := m.Initialize(ctx)
	return err
}

// Stop unloads every backend. The handles are dropped first so no new run
// can pick them up.
func (m *Manager) Stop(ctx context.Context) error {
	m.mu.Lock()
	held := []provider.Provider{}
	for _, p := range []provider.Provider{m.diarizer, m.aligner, m.transcriber} {
		if p != nil {
			held = append(held, p)
		}
	}
	if m.state.Reasons == nil {
		m.state.Reasons = map[string]string{}
	}
	for _, c := range []string{CapabilityTranscription, CapabilityAlignment, CapabilityDiarization} {
		if _, ok := m.state.Reasons[c]; !ok {
			m.state.Reasons[c] = ReasonShutDown
		}
	}
	m.transcriber, m.aligner, m.diarizer = nil, nil, nil
	m.mu.Unlock()

	var errs []error
	for _, p := range held {
		if err := provider.Close(ctx, p); err != nil {
			errs = append(errs, fmt.Errorf("close %s: %w", p.Name(), err))
		}
	}
	return stderrors.Join(errs...)
}

// Health implements component.Component.
func (m *Manager) Health(ctx context.Context) component.Health {
	s := m.Status()
	h := component.Health{Name: ComponentName, Status: component.StatusHealthy}
	switch {
	case !s.Initialized:
		h.Status = component.StatusUnhealthy
		h.Message = ReasonNotLoaded
	case !s.TranscriptionReady:
		h.Status = component.StatusUnhealthy
		h.Message = s.Reasons[CapabilityTranscription]
	case !s.AlignmentReady || !s.DiarizationReady:
		h.Status = component.StatusDegraded
		h.Message = degradedMessage(s)
	}
	return h
}

func degradedMessage(s Readiness) string {
	msg := ""
	for _, c := range []string{CapabilityAlignment, CapabilityDiarization} {
		reason, ok := s.Reasons[c]
		if !ok {
			continue
		}
		if msg != "" {
			msg += "; "
		}
		msg += c + ": " + reason
	}
	return msg
}

// Describe implements component.Describable.
func (m *Manager) Describe() component.Description {
	s := m.Status()
	return component.Description{
		Name: "Models",
		Type: "models",
		Details: fmt.Sprintf("device=%s %s=%s align=%t diarize=%t",
			s.Device.Kind, m.cfg.Transcription.Backend, s.TranscriptionModel, s.AlignmentReady, s.DiarizationReady),
	}
}
