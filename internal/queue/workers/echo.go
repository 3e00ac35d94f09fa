package workers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/nikhilbhutani/voiceagent/internal/pipeline"
	"github.com/nikhilbhutani/voiceagent/internal/queue"
)

// EchoRunner runs the echo workflow on a stored upload.
type EchoRunner interface {
	RunEchoAsset(ctx context.Context, key string) (*pipeline.Result, error)
}

type EchoWorker struct {
	runner EchoRunner
}

func NewEchoWorker(runner EchoRunner) *EchoWorker {
	return &EchoWorker{runner: runner}
}

// ProcessTask runs one deferred echo. Failures are never retried.
func (w *EchoWorker) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var payload queue.EchoPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("unmarshal payload: %v: %w", err, asynq.SkipRetry)
	}

	slog.Info("processing echo job", "filename", payload.Filename)

	res, err := w.runner.RunEchoAsset(ctx, payload.Filename)
	if err != nil {
		return &terminalError{err: err}
	}

	data, err := json.Marshal(res)
	if err != nil {
		return fmt.Errorf("marshal result: %v: %w", err, asynq.SkipRetry)
	}
	if rw := t.ResultWriter(); rw != nil {
		if _, err := rw.Write(data); err != nil {
			return fmt.Errorf("write result: %w", err)
		}
	}

	slog.Info("echo job completed", "filename", payload.Filename, "audio_url", res.AudioURL)
	return nil
}

// terminalError keeps the workflow's message as the task's last error while
// telling asynq not to retry.
type terminalError struct {
	err error
}

func (e *terminalError) Error() string { return e.err.Error() }

func (e *terminalError) Unwrap() []error { return []error{e.err, asynq.SkipRetry} }
