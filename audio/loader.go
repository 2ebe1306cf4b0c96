package audio

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/jbousquie/whisperx-api/errors"
	"github.com/jbousquie/whisperx-api/logger"
	"github.com/jbousquie/whisperx-api/process"
)

// Loader turns a media file into a Sample.
type Loader interface {
	Load(ctx context.Context, path string) (*Sample, error)
}

// Config configures the ffmpeg loader.
type Config struct {
	// FFmpegPath is the ffmpeg binary. Defaults to "ffmpeg" on PATH.
	FFmpegPath string `mapstructure:"ffmpeg_path"`
	// Timeout bounds a single decode. Defaults to 3 minutes.
	Timeout time.Duration `mapstructure:"timeout"`
}

// ApplyDefaults fills unset fields.
func (c *Config) ApplyDefaults() {
	if c.FFmpegPath == "" {
		c.FFmpegPath = "ffmpeg"
	}
	if c.Timeout <= 0 {
		c.Timeout = 3 * time.Minute
	}
}

// FFmpegLoader decodes media by streaming raw PCM16 out of ffmpeg.
type FFmpegLoader struct {
	cfg Config
	run process.Runner
	log *logger.Logger
}

// NewFFmpegLoader creates a loader. A nil runner uses process.Run.
func NewFFmpegLoader(cfg Config, run process.Runner) *FFmpegLoader {
	cfg.ApplyDefaults()
	if run == nil {
		run = process.Run
	}
	return &FFmpegLoader{cfg: cfg, run: run, log: logger.Get("audio")}
}

// Args returns the ffmpeg arguments used to decode path to mono 16 kHz s16le on stdout.
func Args(path string) []string {
	return []string{
		"-nostdin",
		"-threads", "0",
		"-i", path,
		"-f", "s16le",
		"-ac", "1",
		"-acodec", "pcm_s16le",
		"-ar", strconv.Itoa(SampleRate),
		"-",
	}
}

// Load decodes the file at path. Every failure is an AUDIO_DECODE_FAILED error.
func (l *FFmpegLoader) Load(ctx context.Context, path string) (*Sample, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, errors.AudioDecode(err)
	}

	ctx, cancel := context.WithTimeout(ctx, l.cfg.Timeout)
	defer cancel()

	res, err := l.run(ctx, process.Command{Binary: l.cfg.FFmpegPath, Args: Args(path)})
	if err != nil {
		l.log.Warn("ffmpeg decode failed", logger.ErrorFields("decode", err))
		return nil, errors.AudioDecode(err)
	}
	if len(res.Stdout) == 0 {
		return nil, errors.AudioDecode(fmt.Errorf("ffmpeg produced no audio for %s", path))
	}

	sample, err := DecodePCM16(res.Stdout, SampleRate)
	if err != nil {
		return nil, errors.AudioDecode(err)
	}
	l.log.Debug("audio decoded", logger.Fields(
		"samples", sample.Len(),
		"seconds", sample.Seconds(),
		logger.FieldDuration, res.Duration.Milliseconds(),
	))
	return sample, nil
}
