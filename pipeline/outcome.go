package pipeline

// Stage names a pipeline step.
type Stage string

const (
	StageTranscribe Stage = "transcribe"
	StageAlign      Stage = "align"
	StageDiarize    Stage = "diarize"
	StageFuse       Stage = "fuse"
)

// Status is the result kind of an optional stage.
type Status string

const (
	StatusApplied Status = "applied"
	StatusSkipped Status = "skipped"
	StatusFailed  Status = "failed"
)

// Reasons attached to skipped stages.
const (
	ReasonNotRequested = "not_requested"
	ReasonUnavailable  = "unavailable"
)

// Outcome tells callers what happened to an optional stage, so "not
// requested", "unavailable" and "attempted and failed" stay distinct.
type Outcome struct {
	Status Status `json:"status"`
	Reason string `json:"reason,omitempty"`
	Err    error  `json:"-"`
}

// Applied is the outcome of a stage that ran and succeeded.
func Applied() Outcome { return Outcome{Status: StatusApplied} }

// Skipped is the outcome of a stage that did not run.
func Skipped(reason string) Outcome { return Outcome{Status: StatusSkipped, Reason: reason} }

// Failed is the outcome of a stage that ran and failed. The reason carries
// the error text.
func Failed(err error) Outcome {
	o := Outcome{Status: StatusFailed, Err: err}
	if err != nil {
		o.Reason = err.Error()
	}
	return o
}

// IsApplied reports whether the stage ran and succeeded.
func (o Outcome) IsApplied() bool { return o.Status == StatusApplied }
