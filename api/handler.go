// Package api implements the HTTP endpoints of the transcription service:
// health, model information and the transcription upload.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jbousquie/whisperx-api/audio"
	"github.com/jbousquie/whisperx-api/component"
	"github.com/jbousquie/whisperx-api/gate"
	"github.com/jbousquie/whisperx-api/logger"
	"github.com/jbousquie/whisperx-api/models"
	"github.com/jbousquie/whisperx-api/pipeline"
	"github.com/jbousquie/whisperx-api/util"
	"github.com/jbousquie/whisperx-api/version"
)

// Runner executes a pipeline run. *pipeline.Orchestrator implements it.
type Runner interface {
	Run(ctx context.Context, sample *audio.Sample, opts pipeline.Options) (*pipeline.Result, error)
}

// ModelStatus reports model readiness. *models.Manager implements it.
type ModelStatus interface {
	Status() models.Readiness
	Health(ctx context.Context) component.Health
}

// Handler serves the API routes.
type Handler struct {
	cfg          Config
	maxBodyBytes int64
	loader       audio.Loader
	runner       Runner
	models       ModelStatus
	gate         *gate.Gate
	log          *logger.Logger
}

// NewHandler creates a Handler. maxBodyBytes is reported by /models/info
// and must match the server body limit.
func NewHandler(cfg Config, maxBodyBytes int64, loader audio.Loader, runner Runner, ms ModelStatus, g *gate.Gate) *Handler {
	cfg.ApplyDefaults()
	return &Handler{
		cfg:          cfg,
		maxBodyBytes: maxBodyBytes,
		loader:       loader,
		runner:       runner,
		models:       ms,
		gate:         g,
		log:          logger.Get("api"),
	}
}

// Register mounts the routes on r.
func (h *Handler) Register(r gin.IRouter) {
	r.GET("/health", h.Health)
	r.POST("/transcribe", h.Transcribe)
	r.GET("/models/info", h.ModelsInfo)
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status      component.HealthStatus `json:"status"`
	Message     string                 `json:"message,omitempty"`
	Models      models.Readiness       `json:"models"`
	Device      string                 `json:"device"`
	GPUMemoryGB *float64               `json:"gpu_memory_gb"`
	Gate        gate.Stats             `json:"gate"`
	Timestamp   string                 `json:"timestamp"`
}

// Health reports model readiness, the device and the gate counters.
// It answers 503 only when transcription itself is unavailable.
func (h *Handler) Health(c *gin.Context) {
	health := h.models.Health(c.Request.Context())
	status := h.models.Status()

	resp := HealthResponse{
		Status:    health.Status,
		Message:   health.Message,
		Models:    status,
		Device:    string(status.Device.Kind),
		Gate:      h.gate.Stats(),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
	if gb := status.Device.MemoryGB(); gb > 0 {
		resp.GPUMemoryGB = util.Ptr(gb)
	}

	code := http.StatusOK
	if health.Status == component.StatusUnhealthy {
		code = http.StatusServiceUnavailable
	}
	c.JSON(code, resp)
}

// ModelsInfoResponse is the body of GET /models/info.
type ModelsInfoResponse struct {
	TranscriptionModel   *string  `json:"transcription_model"`
	AlignModelLoaded     bool     `json:"align_model_loaded"`
	AlignmentLanguage    string   `json:"alignment_language,omitempty"`
	DiarizationAvailable bool     `json:"diarization_available"`
	SupportedFormats     []string `json:"supported_formats"`
	MaxFileSizeMB        float64  `json:"max_file_size_mb"`
	Version              string   `json:"version"`
}

// ModelsInfo describes the loaded models and upload constraints.
func (h *Handler) ModelsInfo(c *gin.Context) {
	status := h.models.Status()
	resp := ModelsInfoResponse{
		AlignModelLoaded:     status.AlignmentReady,
		AlignmentLanguage:    status.AlignmentLanguage,
		DiarizationAvailable: status.DiarizationReady,
		SupportedFormats:     h.cfg.Extensions,
		MaxFileSizeMB:        float64(h.maxBodyBytes) / (1024 * 1024),
		Version:              version.Get().Version,
	}
	if status.TranscriptionReady {
		resp.TranscriptionModel = util.Ptr(status.TranscriptionModel)
	}
	c.JSON(http.StatusOK, resp)
}
