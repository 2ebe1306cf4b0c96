// Package wav2vec implements alignment.Provider against a sidecar running a
// wav2vec2 CTC alignment model.
package wav2vec

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jbousquie/whisperx-api/alignment"
	"github.com/jbousquie/whisperx-api/errors"
	"github.com/jbousquie/whisperx-api/logger"
	"github.com/jbousquie/whisperx-api/provider"
	"github.com/jbousquie/whisperx-api/sidecar"
	"github.com/jbousquie/whisperx-api/transcription"
)

const (
	// ProviderName is the registered name for the wav2vec provider.
	ProviderName = "wav2vec"

	defaultURL = "http://localhost:8389"
)

// Config holds configuration for the wav2vec alignment provider.
type Config struct {
	Sidecar  sidecar.Config `mapstructure:",squash"`
	Language string         `mapstructure:"language"`
	// Model overrides the default alignment model for Language.
	Model  string `mapstructure:"model"`
	Device string `mapstructure:"device"`
}

// Provider implements alignment.Provider.
type Provider struct {
	cfg    Config
	client *sidecar.Client
	log    *logger.Logger
}

// NewProvider creates a wav2vec alignment provider.
func NewProvider(cfg Config) *Provider {
	cfg.Sidecar.ApplyDefaults(defaultURL)
	if cfg.Language == "" {
		cfg.Language = alignment.DefaultLanguage
	}
	return &Provider{
		cfg:    cfg,
		client: sidecar.New(ProviderName, cfg.Sidecar),
		log:    logger.Get("wav2vec"),
	}
}

// Factory returns a provider.Factory for the wav2vec backend.
func Factory() provider.Factory[alignment.Provider] {
	return func(cfg map[string]any) (alignment.Provider, error) {
		return NewProvider(Config{
			Sidecar: sidecar.Config{
				URL:          provider.String(cfg, "url", ""),
				Timeout:      provider.Duration(cfg, "timeout", 0),
				LoadTimeout:  provider.Duration(cfg, "load_timeout", 0),
				ReadyTimeout: provider.Duration(cfg, "ready_timeout", 0),
			},
			Language: provider.String(cfg, "language", ""),
			Model:    provider.String(cfg, "model", ""),
			Device:   provider.String(cfg, "device", ""),
		}), nil
	}
}

// Name returns the provider name.
func (p *Provider) Name() string { return ProviderName }

// Language returns the language the model aligns.
func (p *Provider) Language() string { return p.cfg.Language }

// IsAvailable checks if the sidecar is reachable.
func (p *Provider) IsAvailable(ctx context.Context) bool { return p.client.Healthy(ctx) }

// Init waits for the sidecar and loads the alignment model for the language.
func (p *Provider) Init(ctx context.Context) error {
	if err := p.client.WaitReady(ctx); err != nil {
		return err
	}
	var reply loadResponse
	err := p.client.LoadModel(ctx, loadRequest{
		LanguageCode: p.cfg.Language,
		ModelName:    p.cfg.Model,
		Device:       p.cfg.Device,
	}, &reply)
	if err != nil {
		return fmt.Errorf("load alignment model for %s: %w", p.cfg.Language, err)
	}
	p.log.Info("alignment model loaded", logger.Fields(logger.FieldLanguage, p.cfg.Language, logger.FieldModel, reply.Model))
	return nil
}

// Close unloads the model.
func (p *Provider) Close(ctx context.Context) error { return p.client.UnloadModel(ctx) }

// ReleaseMemory asks the sidecar to free transient accelerator buffers.
func (p *Provider) ReleaseMemory(ctx context.Context) error { return p.client.ReleaseMemory(ctx) }

// Align sends the segments and audio to the sidecar.
func (p *Provider) Align(ctx context.Context, req alignment.Request) ([]transcription.Segment, error) {
	if len(req.Segments) == 0 {
		return []transcription.Segment{}, nil
	}
	// The sidecar holds one model; it aligns whatever language was asked.
	if req.Language != "" && req.Language != p.cfg.Language {
		p.log.Debug("aligning with a model for another language", logger.Fields(
			logger.FieldLanguage, req.Language, logger.FieldModel, p.cfg.Language))
	}

	payload := make([]segmentIn, len(req.Segments))
	for i, s := range req.Segments {
		payload[i] = segmentIn{Start: s.Start, End: s.End, Text: s.Text}
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode segments: %w", err)
	}

	start := time.Now()
	var reply alignResponse
	err = p.client.PostAudio(ctx, "/align", req.Audio, map[string]string{
		"segments": string(raw),
		"language": p.cfg.Language,
	}, &reply)
	if err != nil {
		return nil, err
	}
	if reply.Error != "" {
		return nil, errors.ExternalServiceError(ProviderName, fmt.Errorf("alignment error: %s", reply.Error))
	}

	out := toSegments(reply.Segments)
	p.log.Debug("alignment done", logger.Fields("segments", len(out), logger.FieldDuration, time.Since(start).Milliseconds()))
	return out, nil
}

// --- internal sidecar API types ---

type loadRequest struct {
	LanguageCode string `json:"language_code"`
	ModelName    string `json:"model_name,omitempty"`
	Device       string `json:"device,omitempty"`
}

type loadResponse struct {
	Model string `json:"model"`
}

type segmentIn struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

type alignResponse struct {
	Segments []alignedSegment `json:"segments"`
	Error    string           `json:"error,omitempty"`
}

type alignedSegment struct {
	Start float64       `json:"start"`
	End   float64       `json:"end"`
	Text  string        `json:"text"`
	Words []alignedWord `json:"words"`
}

// Start and End are absent for tokens the model cannot align (digits,
// symbols).
type alignedWord struct {
	Word  string   `json:"word"`
	Start *float64 `json:"start"`
	End   *float64 `json:"end"`
	Score *float64 `json:"score"`
}

func toSegments(in []alignedSegment) []transcription.Segment {
	out := make([]transcription.Segment, len(in))
	for i, s := range in {
		seg := transcription.Segment{Start: s.Start, End: s.End, Text: s.Text}
		seg.Words = fillWordTimes(s.Start, s.End, s.Words)
		seg.Normalize()
		out[i] = seg
	}
	return out
}

// fillWordTimes gives untimed words the end of the previous timed word (or
// the segment start) as start, and the start of the next timed word (or
// the segment end) as end.
func fillWordTimes(segStart, segEnd float64, words []alignedWord) []transcription.Word {
	if len(words) == 0 {
		return nil
	}
	out := make([]transcription.Word, len(words))
	prevEnd := segStart
	for i, w := range words {
		tw := transcription.Word{Text: w.Word}
		if w.Score != nil {
			tw.Score = *w.Score
		}
		if w.Start != nil && w.End != nil {
			tw.Start, tw.End = *w.Start, *w.End
			prevEnd = tw.End
		} else {
			tw.Start = prevEnd
			tw.End = nextStart(words[i+1:], segEnd)
			if tw.End < tw.Start {
				tw.End = tw.Start
			}
		}
		out[i] = tw
	}
	return out
}

func nextStart(rest []alignedWord, fallback float64) float64 {
	for _, w := range rest {
		if w.Start != nil && w.End != nil {
			return *w.Start
		}
	}
	return fallback
}
