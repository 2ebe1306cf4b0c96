package api

import (
	stderrors "errors"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"

	"github.com/jbousquie/whisperx-api/errors"
	"github.com/jbousquie/whisperx-api/logger"
	"github.com/jbousquie/whisperx-api/pipeline"
	"github.com/jbousquie/whisperx-api/server"
	"github.com/jbousquie/whisperx-api/transcription"
	"github.com/jbousquie/whisperx-api/util"
	"github.com/jbousquie/whisperx-api/validation"
)

// transcribeForm holds the non-file fields of POST /transcribe.
type transcribeForm struct {
	Diarization string `form:"diarization"`
	Language    string `form:"language"`
	MinSpeakers int    `form:"min_speakers,default=1"`
	MaxSpeakers int    `form:"max_speakers,default=10"`
}

// Transcript is the transcription part of the response.
type Transcript struct {
	Segments           []transcription.Segment `json:"segments"`
	Language           string                  `json:"language"`
	DiarizationApplied bool                    `json:"diarization_applied"`
}

// TranscribeResponse is the body of a successful POST /transcribe.
type TranscribeResponse struct {
	Success            bool             `json:"success"`
	Transcription      Transcript       `json:"transcription"`
	Filename           string           `json:"filename"`
	DiarizationEnabled bool             `json:"diarization_enabled"`
	Diarization        pipeline.Outcome `json:"diarization"`
	Alignment          pipeline.Outcome `json:"alignment"`
	Speakers           []string         `json:"speakers,omitempty"`
	QueuedMs           int64            `json:"queued_ms"`
	ProcessingMs       int64            `json:"processing_ms"`
}

// Transcribe accepts a multipart upload in the "audio" field, decodes it
// and runs the pipeline. The upload is stored in a temporary file that is
// removed before the handler returns.
func (h *Handler) Transcribe(c *gin.Context) {
	ctx := c.Request.Context()
	log := h.log.WithContext(ctx)

	if !strings.HasPrefix(c.ContentType(), binding.MIMEMultipartPOSTForm) {
		server.RespondWithError(c, errors.InvalidInput("audio", "expected a multipart/form-data upload"))
		return
	}

	fh, err := c.FormFile("audio")
	if err != nil {
		server.RespondWithError(c, uploadError(err))
		return
	}

	filename := util.SecureFilename(fh.Filename)
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
	if err := validation.New().
		Required("filename", filename).
		Custom(ext != "", "extension", "file name has no extension").
		OneOf("extension", ext, h.cfg.Extensions).
		Err(); err != nil {
		server.RespondWithError(c, err)
		return
	}

	var form transcribeForm
	if err := c.ShouldBindWith(&form, binding.FormMultipart); err != nil {
		server.RespondWithError(c, errors.InvalidInput("form", err.Error()).WithCause(err))
		return
	}
	opts := pipeline.Options{
		Diarization: strings.EqualFold(strings.TrimSpace(form.Diarization), "true"),
		Language:    util.Coalesce(strings.TrimSpace(form.Language), h.cfg.DefaultLanguage),
		MinSpeakers: form.MinSpeakers,
		MaxSpeakers: form.MaxSpeakers,
	}
	if err := opts.Validate(); err != nil {
		server.RespondWithError(c, err)
		return
	}

	path, err := h.saveUpload(fh, ext)
	if err != nil {
		server.RespondWithError(c, err)
		return
	}
	defer func() {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			log.Warn("failed to remove upload", logger.Fields("path", path, logger.FieldError, err.Error()))
		}
	}()

	log.Info("Processing audio file", logger.Fields(
		"filename", filename,
		"bytes", fh.Size,
		"diarization", opts.Diarization,
		logger.FieldLanguage, opts.Language,
	))

	start := time.Now()
	sample, err := h.loader.Load(ctx, path)
	if err != nil {
		server.RespondWithError(c, err)
		return
	}

	res, err := h.runner.Run(ctx, sample, opts)
	if err != nil {
		server.RespondWithError(c, err)
		return
	}

	segments := res.Segments
	if segments == nil {
		segments = []transcription.Segment{}
	}
	c.JSON(http.StatusOK, TranscribeResponse{
		Success: true,
		Transcription: Transcript{
			Segments:           segments,
			Language:           res.Language,
			DiarizationApplied: res.DiarizationApplied,
		},
		Filename:           filename,
		DiarizationEnabled: opts.Diarization && res.DiarizationApplied,
		Diarization:        res.Diarization,
		Alignment:          res.Alignment,
		Speakers:           res.Speakers,
		QueuedMs:           res.Waited.Milliseconds(),
		ProcessingMs:       time.Since(start).Milliseconds(),
	})
}

// uploadError maps a FormFile failure to an API error.
func uploadError(err error) error {
	var maxErr *http.MaxBytesError
	switch {
	case stderrors.Is(err, http.ErrMissingFile):
		return errors.MissingField("audio")
	case stderrors.As(err, &maxErr):
		return errors.PayloadTooLarge(maxErr.Limit)
	default:
		return errors.InvalidInput("audio", "malformed multipart upload").WithCause(err)
	}
}

func (h *Handler) saveUpload(fh *multipart.FileHeader, ext string) (string, error) {
	src, err := fh.Open()
	if err != nil {
		return "", errors.Internal(err)
	}
	defer src.Close()

	dst, err := os.CreateTemp(h.cfg.TempDir, "whisperx-*."+ext)
	if err != nil {
		return "", errors.Internal(err)
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		os.Remove(dst.Name())
		return "", errors.Internal(err)
	}
	if err := dst.Close(); err != nil {
		os.Remove(dst.Name())
		return "", errors.Internal(err)
	}
	return dst.Name(), nil
}
