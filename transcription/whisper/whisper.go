package whisper

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/jbousquie/whisperx-api/errors"
	"github.com/jbousquie/whisperx-api/logger"
	"github.com/jbousquie/whisperx-api/provider"
	"github.com/jbousquie/whisperx-api/sidecar"
	"github.com/jbousquie/whisperx-api/transcription"
)

const (
	// ProviderName is the registered name for the Whisper provider.
	ProviderName = "whisper"

	defaultWhisperURL   = "http://localhost:8387"
	defaultWhisperModel = "large-v2"
	defaultBatchSize    = 16
)

// Config holds configuration for the Whisper transcription provider.
type Config struct {
	Sidecar     sidecar.Config `mapstructure:",squash"`
	Model       string         `mapstructure:"model"`
	Language    string         `mapstructure:"language"`
	Device      string         `mapstructure:"device"`
	ComputeType string         `mapstructure:"compute_type"`
	BatchSize   int            `mapstructure:"batch_size"`
}

// Provider implements transcription.Provider using a faster-whisper HTTP sidecar.
type Provider struct {
	cfg    Config
	client *sidecar.Client
	log    *logger.Logger
}

// NewProvider creates a new Whisper transcription provider.
func NewProvider(cfg Config) *Provider {
	cfg.Sidecar.ApplyDefaults(defaultWhisperURL)
	if cfg.Model == "" {
		cfg.Model = defaultWhisperModel
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = defaultBatchSize
	}
	return &Provider{
		cfg:    cfg,
		client: sidecar.New(ProviderName, cfg.Sidecar),
		log:    logger.Get("whisper"),
	}
}

// Factory returns a provider.Factory that creates Whisper Provider
// instances from a generic config map.
func Factory() provider.Factory[transcription.Provider] {
	return func(cfg map[string]any) (transcription.Provider, error) {
		return NewProvider(Config{
			Sidecar: sidecar.Config{
				URL:          provider.String(cfg, "url", ""),
				Timeout:      provider.Duration(cfg, "timeout", 0),
				LoadTimeout:  provider.Duration(cfg, "load_timeout", 0),
				ReadyTimeout: provider.Duration(cfg, "ready_timeout", 0),
			},
			Model:       provider.String(cfg, "model", ""),
			Language:    provider.String(cfg, "language", ""),
			Device:      provider.String(cfg, "device", ""),
			ComputeType: provider.String(cfg, "compute_type", ""),
			BatchSize:   provider.Int(cfg, "batch_size", 0),
		}), nil
	}
}

// Name returns the provider name.
func (p *Provider) Name() string { return ProviderName }

// Model returns the configured model name.
func (p *Provider) Model() string { return p.cfg.Model }

// IsAvailable checks if the Whisper sidecar is reachable.
func (p *Provider) IsAvailable(ctx context.Context) bool {
	return p.client.Healthy(ctx)
}

// Init waits for the sidecar and loads the model onto the configured device.
func (p *Provider) Init(ctx context.Context) error {
	if err := p.client.WaitReady(ctx); err != nil {
		return err
	}
	start := time.Now()
	err := p.client.LoadModel(ctx, loadRequest{
		Model:       p.cfg.Model,
		Device:      p.cfg.Device,
		ComputeType: p.cfg.ComputeType,
		Language:    p.cfg.Language,
	}, nil)
	if err != nil {
		return fmt.Errorf("load whisper model %s: %w", p.cfg.Model, err)
	}
	p.log.Info("whisper model loaded", logger.Fields(
		logger.FieldModel, p.cfg.Model,
		logger.FieldDevice, p.cfg.Device,
		"compute_type", p.cfg.ComputeType,
		logger.FieldDuration, time.Since(start).Milliseconds(),
	))
	return nil
}

// Close unloads the model.
func (p *Provider) Close(ctx context.Context) error {
	return p.client.UnloadModel(ctx)
}

// ReleaseMemory asks the sidecar to free transient accelerator buffers.
func (p *Provider) ReleaseMemory(ctx context.Context) error {
	return p.client.ReleaseMemory(ctx)
}

// Transcribe sends the audio to the Whisper sidecar and returns segment-level text.
func (p *Provider) Transcribe(ctx context.Context, req transcription.Request) (*transcription.Response, error) {
	lang := p.cfg.Language
	if req.Language != "" {
		lang = req.Language
	}
	batch := p.cfg.BatchSize
	if req.BatchSize > 0 {
		batch = req.BatchSize
	}

	fields := map[string]string{"batch_size": strconv.Itoa(batch)}
	if lang != "" {
		fields["language"] = lang
	}

	var result whisperResponse
	if err := p.client.PostAudio(ctx, "/transcribe", req.Audio, fields, &result); err != nil {
		return nil, err
	}
	if result.Error != "" {
		return nil, errors.ExternalServiceError(ProviderName, fmt.Errorf("whisper error: %s", result.Error))
	}
	if result.Language == "" {
		result.Language = lang
	}
	return toTranscriptionResponse(&result), nil
}

// --- internal Whisper API types ---

type loadRequest struct {
	Model       string `json:"model"`
	Device      string `json:"device,omitempty"`
	ComputeType string `json:"compute_type,omitempty"`
	Language    string `json:"language,omitempty"`
}

type whisperResponse struct {
	Segments []whisperSegment `json:"segments"`
	Language string           `json:"language"`
	Error    string           `json:"error,omitempty"`
}

type whisperSegment struct {
	Text  string  `json:"text"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

func toTranscriptionResponse(resp *whisperResponse) *transcription.Response {
	segments := make([]transcription.Segment, len(resp.Segments))
	for i, seg := range resp.Segments {
		segments[i] = transcription.Segment{
			Start: seg.Start,
			End:   seg.End,
			Text:  seg.Text,
		}
		segments[i].Normalize()
	}
	return &transcription.Response{
		Segments: segments,
		Language: resp.Language,
	}
}
