package pyannote

import (
	"context"
	"fmt"
	"strconv"

	"github.com/jbousquie/whisperx-api/diarization"
	"github.com/jbousquie/whisperx-api/errors"
	"github.com/jbousquie/whisperx-api/logger"
	"github.com/jbousquie/whisperx-api/provider"
	"github.com/jbousquie/whisperx-api/sidecar"
	"github.com/jbousquie/whisperx-api/util"
)

const (
	// ProviderName is the registered name for the Pyannote provider.
	ProviderName = "pyannote"

	// DefaultModel is the gated pipeline loaded by default.
	DefaultModel = "pyannote/speaker-diarization-3.1"

	defaultPyannoteURL = "http://localhost:8388"
)

// Config holds configuration for the Pyannote diarization provider.
type Config struct {
	Sidecar sidecar.Config `mapstructure:",squash"`
	Model   string         `mapstructure:"model"`
	Device  string         `mapstructure:"device"`
	// Token is the Hugging Face access token for the gated model.
	Token string `mapstructure:"token"`
}

// Provider implements diarization.Provider using the Pyannote HTTP sidecar.
type Provider struct {
	cfg    Config
	client *sidecar.Client
	log    *logger.Logger
}

// NewProvider creates a new Pyannote diarization provider.
func NewProvider(cfg Config) *Provider {
	cfg.Sidecar.ApplyDefaults(defaultPyannoteURL)
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	return &Provider{
		cfg:    cfg,
		client: sidecar.New(ProviderName, cfg.Sidecar),
		log:    logger.Get("pyannote"),
	}
}

// Factory returns a provider.Factory that creates Pyannote Provider
// instances from a generic config map.
func Factory() provider.Factory[diarization.Provider] {
	return func(cfg map[string]any) (diarization.Provider, error) {
		return NewProvider(Config{
			Sidecar: sidecar.Config{
				URL:          provider.String(cfg, "url", ""),
				Timeout:      provider.Duration(cfg, "timeout", 0),
				LoadTimeout:  provider.Duration(cfg, "load_timeout", 0),
				ReadyTimeout: provider.Duration(cfg, "ready_timeout", 0),
			},
			Model:  provider.String(cfg, "model", ""),
			Device: provider.String(cfg, "device", ""),
			Token:  provider.String(cfg, "token", ""),
		}), nil
	}
}

// Name returns the provider name.
func (p *Provider) Name() string { return ProviderName }

// IsAvailable checks if the Pyannote sidecar is reachable.
func (p *Provider) IsAvailable(ctx context.Context) bool { return p.client.Healthy(ctx) }

// Init loads the gated pipeline with the configured token.
func (p *Provider) Init(ctx context.Context) error {
	if p.cfg.Token == "" {
		return errors.MissingField("token")
	}
	if err := p.client.WaitReady(ctx); err != nil {
		return err
	}
	err := p.client.LoadModel(ctx, loadRequest{
		Model:        p.cfg.Model,
		Device:       p.cfg.Device,
		UseAuthToken: p.cfg.Token,
	}, nil)
	if err != nil {
		return fmt.Errorf("load diarization model %s: %w", p.cfg.Model, err)
	}
	p.log.Info("diarization model loaded", logger.Fields(
		logger.FieldModel, p.cfg.Model,
		"token", util.MaskSecret(p.cfg.Token, 6),
	))
	return nil
}

// Close unloads the pipeline.
func (p *Provider) Close(ctx context.Context) error { return p.client.UnloadModel(ctx) }

// ReleaseMemory asks the sidecar to free transient accelerator buffers.
func (p *Provider) ReleaseMemory(ctx context.Context) error { return p.client.ReleaseMemory(ctx) }

// Diarize sends the audio to the Pyannote sidecar and returns speaker intervals.
func (p *Provider) Diarize(ctx context.Context, req diarization.Request) (*diarization.Response, error) {
	fields := map[string]string{}
	if req.NumSpeakers > 0 {
		fields["num_speakers"] = strconv.Itoa(req.NumSpeakers)
	}
	if req.MinSpeakers > 0 {
		fields["min_speakers"] = strconv.Itoa(req.MinSpeakers)
	}
	if req.MaxSpeakers > 0 {
		fields["max_speakers"] = strconv.Itoa(req.MaxSpeakers)
	}

	var result pyannoteResponse
	if err := p.client.PostAudio(ctx, "/diarize", req.Audio, fields, &result); err != nil {
		return nil, err
	}
	if result.Error != "" {
		return nil, errors.ExternalServiceError(ProviderName, fmt.Errorf("diarization error: %s", result.Error))
	}
	return toDiarizationResponse(&result), nil
}

// --- internal Pyannote API types ---

type loadRequest struct {
	Model        string `json:"model"`
	Device       string `json:"device,omitempty"`
	UseAuthToken string `json:"use_auth_token"`
}

type pyannoteResponse struct {
	Segments    []pyannoteSegment `json:"segments"`
	NumSpeakers int               `json:"num_speakers"`
	Error       string            `json:"error,omitempty"`
}

type pyannoteSegment struct {
	SpeakerID string  `json:"speaker_id"`
	StartTime float64 `json:"start_time"`
	EndTime   float64 `json:"end_time"`
}

func toDiarizationResponse(resp *pyannoteResponse) *diarization.Response {
	intervals := make([]diarization.Interval, 0, len(resp.Segments))
	for _, seg := range resp.Segments {
		if seg.EndTime < seg.StartTime {
			continue
		}
		intervals = append(intervals, diarization.Interval{
			Speaker: seg.SpeakerID,
			Start:   seg.StartTime,
			End:     seg.EndTime,
		})
	}
	n := resp.NumSpeakers
	if n == 0 {
		n = len(diarization.Speakers(intervals))
	}
	return &diarization.Response{
		Intervals:   intervals,
		NumSpeakers: n,
	}
}
