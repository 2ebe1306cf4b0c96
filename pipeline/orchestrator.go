// Package pipeline runs one transcription request end to end: it takes the
// accelerator through the admission gate, transcribes, aligns, diarizes,
// fuses speakers onto words and reclaims accelerator memory before handing
// the accelerator to the next request.
//
// Only transcription is mandatory. Alignment and diarization report tagged
// outcomes instead of errors, and the transcript degrades to segment-level
// timestamps or to no speakers when they cannot run.
package pipeline

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/jbousquie/whisperx-api/alignment"
	"github.com/jbousquie/whisperx-api/audio"
	"github.com/jbousquie/whisperx-api/diarization"
	"github.com/jbousquie/whisperx-api/errors"
	"github.com/jbousquie/whisperx-api/fusion"
	"github.com/jbousquie/whisperx-api/gate"
	"github.com/jbousquie/whisperx-api/logger"
	"github.com/jbousquie/whisperx-api/observability"
	"github.com/jbousquie/whisperx-api/transcription"
)

// Models is the view of the loaded backends the orchestrator needs.
// models.Manager implements it.
type Models interface {
	Transcriber() (transcription.Provider, bool)
	Aligner() (alignment.Provider, bool)
	Diarizer() (diarization.Provider, bool)
	Reclaim(ctx context.Context)
}

// Orchestrator sequences the stages of a run.
type Orchestrator struct {
	cfg     Config
	models  Models
	gate    *gate.Gate
	metrics *observability.Metrics
	log     *logger.Logger
}

// New creates an Orchestrator. metrics may be nil.
func New(cfg Config, models Models, g *gate.Gate, metrics *observability.Metrics) *Orchestrator {
	cfg.ApplyDefaults()
	return &Orchestrator{
		cfg:     cfg,
		models:  models,
		gate:    g,
		metrics: metrics,
		log:     logger.Get("pipeline"),
	}
}

// Timeout returns the per-run bound.
func (o *Orchestrator) Timeout() time.Duration { return o.cfg.Timeout }

// Run executes the pipeline on sample.
//
// The run holds the gate for its whole duration. Stages are not interrupted
// once started: they receive a context that keeps the request values but not
// its deadline, and the deadline is checked between stages. Memory reclaim
// and gate release happen on every exit path, in that order.
func (o *Orchestrator) Run(ctx context.Context, sample *audio.Sample, opts Options) (res *Result, err error) {
	start := time.Now()
	ctx, span := observability.StartSpan(ctx, observability.SpanPipelineRun, trace.WithAttributes(
		attribute.Bool(observability.AttrDiarization, opts.Diarization),
		attribute.String(observability.AttrLanguage, opts.Language),
		attribute.Float64(observability.AttrAudioSeconds, sample.Seconds()),
	))
	log := o.log.WithContext(ctx)
	defer func() {
		result := "ok"
		if err != nil {
			result = string(errors.ErrCodeInternal)
			if appErr, ok := errors.AsAppError(err); ok {
				result = string(appErr.Code)
			}
			observability.SetSpanError(ctx, err)
			o.metrics.RecordError(ctx, result, "pipeline")
			log.Error("pipeline failed", logger.Fields(
				logger.FieldError, err.Error(),
				logger.FieldDuration, time.Since(start).Milliseconds(),
			))
		}
		span.SetAttributes(attribute.String(observability.AttrStatus, result))
		span.End()
		o.metrics.RecordRun(ctx, result, time.Since(start))
	}()

	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if sample.Empty() {
		return nil, errors.InvalidInput("audio", "decoded audio is empty")
	}
	if opts.Language == "" {
		opts.Language = alignment.DefaultLanguage
	}

	ctx, cancel := context.WithTimeout(ctx, o.cfg.Timeout)
	defer cancel()

	tok, err := o.acquire(ctx)
	if err != nil {
		return nil, err
	}
	o.metrics.GateHeld(ctx, 1)
	stageCtx := context.WithoutCancel(ctx)
	defer func() {
		tok.Release()
		o.metrics.GateHeld(stageCtx, -1)
	}()
	defer o.models.Reclaim(stageCtx)

	res, err = o.run(ctx, stageCtx, sample, opts)
	if err != nil {
		return nil, err
	}
	res.Waited = tok.Waited()
	res.Duration = time.Since(start)
	log.Info("pipeline completed", logger.Fields(
		"segments", len(res.Segments),
		logger.FieldLanguage, res.Language,
		"alignment", string(res.Alignment.Status),
		"diarization", string(res.Diarization.Status),
		"waited_ms", res.Waited.Milliseconds(),
		logger.FieldDuration, res.Duration.Milliseconds(),
	))
	return res, nil
}

func (o *Orchestrator) acquire(ctx context.Context) (*gate.Token, error) {
	ctx, span := observability.StartSpan(ctx, observability.SpanGateAcquire)
	defer span.End()

	start := time.Now()
	tok, err := o.gate.Acquire(ctx)
	o.metrics.RecordGateWait(ctx, time.Since(start), err == nil)
	if err != nil {
		observability.SetSpanError(ctx, err)
		return nil, err
	}
	return tok, nil
}

// run executes the stages. deadline carries the request deadline; stages
// run on stageCtx.
func (o *Orchestrator) run(deadline, stageCtx context.Context, sample *audio.Sample, opts Options) (*Result, error) {
	resp, err := o.transcribe(stageCtx, sample, opts)
	if err != nil {
		return nil, err
	}
	lang := resp.Language
	if lang == "" {
		lang = opts.Language
	}
	if err := checkDeadline(deadline, StageAlign); err != nil {
		return nil, err
	}

	segments, alignOutcome := o.align(stageCtx, sample, resp.Segments, lang)
	if err := checkDeadline(deadline, StageDiarize); err != nil {
		return nil, err
	}

	intervals, diarOutcome := o.diarize(stageCtx, sample, opts)
	if err := checkDeadline(deadline, StageFuse); err != nil {
		return nil, err
	}

	res := &Result{
		Segments:    segments,
		Language:    lang,
		Alignment:   alignOutcome,
		Diarization: diarOutcome,
	}
	if diarOutcome.IsApplied() {
		res.Segments = o.fuse(stageCtx, segments, intervals)
		res.DiarizationApplied = true
		res.Speakers = diarization.Speakers(intervals)
	}
	return res, nil
}

// checkDeadline fails the run when the request deadline passed before next.
func checkDeadline(ctx context.Context, next Stage) error {
	if err := ctx.Err(); err != nil {
		return errors.Timeout("pipeline").WithCause(err).WithDetail("next_stage", string(next))
	}
	return nil
}

func (o *Orchestrator) transcribe(ctx context.Context, sample *audio.Sample, opts Options) (*transcription.Response, error) {
	ctx, done := o.startStage(ctx, StageTranscribe)

	t, ok := o.models.Transcriber()
	if !ok {
		err := errors.Pipeline(string(StageTranscribe), errors.ServiceUnavailable("transcription model"))
		done(Failed(err))
		return nil, err
	}
	resp, err := t.Transcribe(ctx, transcription.Request{
		Audio:     sample,
		Language:  opts.Language,
		BatchSize: o.cfg.BatchSize,
	})
	if err == nil && resp == nil {
		err = errors.Internal(nil).WithDetail("reason", "empty transcription response")
	}
	if err != nil {
		err = errors.Pipeline(string(StageTranscribe), err)
		done(Failed(err))
		return nil, err
	}
	resp.Segments = transcription.NormalizeSegments(resp.Segments)
	done(Applied())
	return resp, nil
}

// align returns aligned segments, or the transcription segments unchanged
// when alignment is unavailable or fails.
func (o *Orchestrator) align(ctx context.Context, sample *audio.Sample, segments []transcription.Segment, lang string) ([]transcription.Segment, Outcome) {
	ctx, done := o.startStage(ctx, StageAlign)

	a, ok := o.models.Aligner()
	if !ok {
		return segments, done(Skipped(ReasonUnavailable))
	}
	if len(segments) == 0 {
		return segments, done(Applied())
	}

	aligned, err := a.Align(ctx, alignment.Request{
		Audio:    sample,
		Segments: transcription.CloneSegments(segments),
		Language: lang,
	})
	if err != nil {
		return segments, done(Failed(err))
	}
	return transcription.NormalizeSegments(aligned), done(Applied())
}

// diarize returns speaker intervals when diarization is requested and
// succeeds. An empty interval set is still an applied outcome.
func (o *Orchestrator) diarize(ctx context.Context, sample *audio.Sample, opts Options) ([]diarization.Interval, Outcome) {
	if !opts.Diarization {
		o.recordSkipped(ctx, StageDiarize, ReasonNotRequested)
		return nil, Skipped(ReasonNotRequested)
	}
	ctx, done := o.startStage(ctx, StageDiarize)

	d, ok := o.models.Diarizer()
	if !ok {
		return nil, done(Skipped(ReasonUnavailable))
	}
	req := diarization.Request{
		Audio:       sample,
		MinSpeakers: opts.MinSpeakers,
		MaxSpeakers: opts.MaxSpeakers,
	}
	// Equal bounds pin the speaker count.
	if opts.MinSpeakers == opts.MaxSpeakers {
		req.NumSpeakers = opts.MinSpeakers
	}
	resp, err := d.Diarize(ctx, req)
	if err == nil && resp == nil {
		err = errors.Internal(nil).WithDetail("reason", "empty diarization response")
	}
	if err != nil {
		return nil, done(Failed(err))
	}
	return resp.Intervals, done(Applied())
}

func (o *Orchestrator) fuse(ctx context.Context, segments []transcription.Segment, intervals []diarization.Interval) []transcription.Segment {
	_, done := o.startStage(ctx, StageFuse)
	out := fusion.AssignSegments(segments, intervals)
	done(Applied())
	return out
}

// startStage opens the stage span and returns a function that closes it,
// records the outcome and hands the outcome back.
func (o *Orchestrator) startStage(ctx context.Context, stage Stage) (context.Context, func(Outcome) Outcome) {
	start := time.Now()
	ctx, span := observability.StartSpan(ctx, observability.SpanPipelineStage+string(stage),
		trace.WithAttributes(attribute.String(observability.AttrStage, string(stage))))

	return ctx, func(out Outcome) Outcome {
		d := time.Since(start)
		span.SetAttributes(attribute.String(observability.AttrOutcome, string(out.Status)))
		if out.Reason != "" && out.Err == nil {
			span.SetAttributes(attribute.String(observability.AttrReason, out.Reason))
		}
		if out.Err != nil {
			observability.SetSpanError(ctx, out.Err)
		}
		span.End()
		o.metrics.RecordStage(ctx, string(stage), string(out.Status), d)

		fields := logger.StageFields(string(stage), string(out.Status), d)
		log := o.log.WithContext(ctx)
		switch {
		case out.Err != nil && stage == StageTranscribe:
			fields[logger.FieldError] = out.Err.Error()
			log.Error("stage failed", fields)
		case out.Err != nil:
			fields[logger.FieldError] = out.Err.Error()
			log.Warn("stage failed, continuing without it", fields)
		case out.Status == StatusSkipped:
			fields["reason"] = out.Reason
			log.Info("stage skipped", fields)
		default:
			log.Debug("stage completed", fields)
		}
		return out
	}
}

func (o *Orchestrator) recordSkipped(ctx context.Context, stage Stage, reason string) {
	o.metrics.RecordStage(ctx, string(stage), string(StatusSkipped), 0)
	o.log.WithContext(ctx).Debug("stage skipped", logger.Fields(logger.FieldStage, string(stage), "reason", reason))
}
