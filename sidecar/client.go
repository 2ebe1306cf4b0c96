package sidecar

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	"github.com/jbousquie/whisperx-api/audio"
	"github.com/jbousquie/whisperx-api/errors"
	"github.com/jbousquie/whisperx-api/logger"
	"github.com/jbousquie/whisperx-api/resilience"
	"github.com/jbousquie/whisperx-api/version"
)

var userAgent = version.UserAgent("whisperx-api")

const (
	defaultTimeout      = 300 * time.Second
	defaultLoadTimeout  = 10 * time.Minute
	defaultReadyTimeout = 2 * time.Minute

	maxErrorBody = 4 << 10
)

// Config configures a sidecar connection.
type Config struct {
	// URL is the sidecar base URL, e.g. http://localhost:8387.
	URL string `mapstructure:"url"`
	// Timeout bounds a single stage call.
	Timeout time.Duration `mapstructure:"timeout"`
	// LoadTimeout bounds the model load call.
	LoadTimeout time.Duration `mapstructure:"load_timeout"`
	// ReadyTimeout bounds how long startup waits for /health.
	ReadyTimeout time.Duration `mapstructure:"ready_timeout"`
}

// ApplyDefaults fills unset fields, using fallbackURL when URL is empty.
func (c *Config) ApplyDefaults(fallbackURL string) {
	if c.URL == "" {
		c.URL = fallbackURL
	}
	c.URL = strings.TrimRight(c.URL, "/")
	if c.Timeout <= 0 {
		c.Timeout = defaultTimeout
	}
	if c.LoadTimeout <= 0 {
		c.LoadTimeout = defaultLoadTimeout
	}
	if c.ReadyTimeout <= 0 {
		c.ReadyTimeout = defaultReadyTimeout
	}
}

// Client talks to one sidecar.
type Client struct {
	name string
	cfg  Config
	http *http.Client
	log  *logger.Logger
}

// New creates a client for the named sidecar. cfg must already carry defaults.
func New(name string, cfg Config) *Client {
	return &Client{
		name: name,
		cfg:  cfg,
		http: &http.Client{},
		log:  logger.Get("sidecar").WithFields(logger.Fields("sidecar", name)),
	}
}

// Name returns the sidecar name used in errors and logs.
func (c *Client) Name() string { return c.name }

// URL returns the sidecar base URL.
func (c *Client) URL() string { return c.cfg.URL }

// Healthy reports whether GET /health answers 200.
func (c *Client) Healthy(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.URL+"/health", nil)
	if err != nil {
		return false
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	return resp.StatusCode == http.StatusOK
}

// WaitReady polls /health with backoff until the sidecar answers or
// ReadyTimeout elapses.
func (c *Client) WaitReady(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.ReadyTimeout)
	defer cancel()

	err := resilience.Do(ctx, resilience.Policy{
		Attempts: 1 << 16,
		Backoff:  resilience.Backoff{Initial: 250 * time.Millisecond, Max: 5 * time.Second, Factor: 2, Jitter: 0.1},
		OnRetry: func(attempt int, err error, wait time.Duration) {
			c.log.Debug("waiting for sidecar", logger.Fields("attempt", attempt, "backoff", wait.String()))
		},
	}, func(ctx context.Context) error {
		if c.Healthy(ctx) {
			return nil
		}
		return fmt.Errorf("%s not healthy at %s", c.name, c.cfg.URL)
	})
	if err != nil {
		return errors.ServiceUnavailable(c.name).WithCause(err)
	}
	return nil
}

// LoadModel posts params to /models/load and decodes the reply into out
// (which may be nil).
func (c *Client) LoadModel(ctx context.Context, params any, out any) error {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.LoadTimeout)
	defer cancel()
	return c.postJSON(ctx, "/models/load", params, out)
}

// UnloadModel posts to /models/unload.
func (c *Client) UnloadModel(ctx context.Context) error {
	return c.postJSON(ctx, "/models/unload", nil, nil)
}

// ReleaseMemory posts to /memory/release.
func (c *Client) ReleaseMemory(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	return c.postJSON(ctx, "/memory/release", nil, nil)
}

// PostAudio sends sample as a WAV "audio" part plus form fields to path and
// decodes the JSON reply into out. The call is bounded by Timeout.
func (c *Client) PostAudio(ctx context.Context, path string, sample *audio.Sample, fields map[string]string, out any) error {
	if sample.Empty() {
		return errors.InvalidInput("audio", "empty audio sample")
	}

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	part, err := writer.CreateFormFile("audio", "audio.wav")
	if err != nil {
		return fmt.Errorf("create form file: %w", err)
	}
	if err := sample.WriteWAV(part); err != nil {
		return fmt.Errorf("write audio data: %w", err)
	}
	for k, v := range fields {
		if err := writer.WriteField(k, v); err != nil {
			return fmt.Errorf("write field %s: %w", k, err)
		}
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("close multipart: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()
	return c.do(ctx, path, writer.FormDataContentType(), &buf, out)
}

func (c *Client) postJSON(ctx context.Context, path string, body any, out any) error {
	var r io.Reader = http.NoBody
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		r = bytes.NewReader(b)
	}
	return c.do(ctx, path, "application/json", r, out)
}

func (c *Client) do(ctx context.Context, path, contentType string, body io.Reader, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.URL+path, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)
	if id := logger.RequestIDFromContext(ctx); id != "" {
		req.Header.Set("X-Request-ID", id)
	}
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return errors.ExternalServiceError(c.name, fmt.Errorf("%s %s: %w", c.name, path, err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return errors.ExternalServiceError(c.name, &StatusError{Path: path, Code: resp.StatusCode, Body: strings.TrimSpace(string(msg))})
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return errors.ExternalServiceError(c.name, fmt.Errorf("decode %s response: %w", path, err))
		}
	}
	c.log.Debug("sidecar call ok", logger.Fields("path", path, logger.FieldDuration, time.Since(start).Milliseconds()))
	return nil
}

// StatusError is a non-200 sidecar reply.
type StatusError struct {
	Path string
	Code int
	Body string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s: status %d", e.Path, e.Code)
	}
	return fmt.Sprintf("%s: status %d: %s", e.Path, e.Code, e.Body)
}
