package workers

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nikhilbhutani/voiceagent/internal/apperr"
	"github.com/nikhilbhutani/voiceagent/internal/pipeline"
	"github.com/nikhilbhutani/voiceagent/internal/queue"
)

type fakeRunner struct {
	key string
	res *pipeline.Result
	err error
}

func (f *fakeRunner) RunEchoAsset(_ context.Context, key string) (*pipeline.Result, error) {
	f.key = key
	return f.res, f.err
}

func echoTask(t *testing.T, filename string) *asynq.Task {
	t.Helper()
	data, err := json.Marshal(queue.EchoPayload{Filename: filename})
	require.NoError(t, err)
	return asynq.NewTask(queue.TypeEcho, data)
}

func TestEchoWorker_Success(t *testing.T) {
	runner := &fakeRunner{res: &pipeline.Result{Transcription: "hi", AudioURL: "https://x/a.mp3"}}

	err := NewEchoWorker(runner).ProcessTask(context.Background(), echoTask(t, "k_clip.wav"))
	require.NoError(t, err)
	assert.Equal(t, "k_clip.wav", runner.key)
}

func TestEchoWorker_StageFailureSkipsRetry(t *testing.T) {
	stageErr := &pipeline.StageError{
		Stage: pipeline.StageTranscribe,
		Err:   apperr.New(apperr.KindTimeout, "stt.poll", "Transcription timed out."),
	}
	runner := &fakeRunner{err: stageErr}

	err := NewEchoWorker(runner).ProcessTask(context.Background(), echoTask(t, "k_clip.wav"))
	require.Error(t, err)
	assert.ErrorIs(t, err, asynq.SkipRetry)
	assert.Equal(t, "Transcription timed out.", err.Error())

	var se *pipeline.StageError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, pipeline.StageTranscribe, se.Stage)
}

func TestEchoWorker_BadPayload(t *testing.T) {
	err := NewEchoWorker(&fakeRunner{}).ProcessTask(context.Background(), asynq.NewTask(queue.TypeEcho, []byte("{")))
	assert.ErrorIs(t, err, asynq.SkipRetry)
}
