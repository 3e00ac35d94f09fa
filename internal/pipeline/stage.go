package pipeline

import (
	"log/slog"
	"time"
)

// Stage is one external-call unit of a workflow.
type Stage string

const (
	StageUpload     Stage = "upload"
	StageTranscribe Stage = "transcribe"
	StageRespond    Stage = "respond"
	StageSynthesize Stage = "synthesize"
)

// State is the position of a multi-stage workflow run.
type State string

const (
	StateReceived     State = "received"
	StateStored       State = "stored"
	StateTranscribing State = "transcribing"
	StateTranscribed  State = "transcribed"
	StateResponding   State = "responding"
	StateResponded    State = "responded"
	StateSynthesizing State = "synthesizing"
	StateDone         State = "done"
	StateErrored      State = "errored"
)

// StageError is the terminal failure of a workflow, tagged with the stage
// that failed. Error returns the stage's own message.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string { return e.Err.Error() }

func (e *StageError) Unwrap() error { return e.Err }

// run tracks one workflow execution for logging.
type run struct {
	workflow string
	state    State
	started  time.Time
	log      *slog.Logger
}

func newRun(workflow string) *run {
	r := &run{
		workflow: workflow,
		state:    StateReceived,
		started:  time.Now(),
		log:      slog.With("workflow", workflow),
	}
	r.log.Debug("pipeline state", "state", r.state)
	return r
}

func (r *run) to(s State) {
	r.log.Debug("pipeline state", "from", r.state, "state", s)
	r.state = s
}

// fail moves the run to Errored and returns the tagged error.
func (r *run) fail(stage Stage, err error) error {
	r.log.Warn("pipeline stage failed",
		"from", r.state,
		"stage", stage,
		"elapsed", time.Since(r.started),
		"error", err,
	)
	r.state = StateErrored
	return &StageError{Stage: stage, Err: err}
}

func (r *run) done() {
	r.to(StateDone)
	r.log.Info("pipeline completed", "elapsed", time.Since(r.started))
}
