package stt

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/nikhilbhutani/voiceagent/internal/apperr"
	"github.com/nikhilbhutani/voiceagent/internal/retry"
)

// AssemblyAIConfig holds configuration for the AssemblyAI backend.
type AssemblyAIConfig struct {
	APIKey          string
	BaseURL         string        // default: "https://api.assemblyai.com"
	PollInterval    time.Duration // default: 2s
	MaxPollAttempts int           // default: 30
	RequestTimeout  time.Duration // per HTTP call, default: 60s
	UploadRetries   int
	RetryBase       time.Duration // default: 500ms
}

// AssemblyAI transcribes audio with AssemblyAI's asynchronous job API:
// upload bytes, start a job, then poll until the job reaches a terminal state.
type AssemblyAI struct {
	cfg        AssemblyAIConfig
	httpClient *http.Client
}

// NewAssemblyAI creates an AssemblyAI client with sensible defaults applied.
func NewAssemblyAI(cfg AssemblyAIConfig) *AssemblyAI {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.assemblyai.com"
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 2 * time.Second
	}
	if cfg.MaxPollAttempts <= 0 {
		cfg.MaxPollAttempts = 30
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 60 * time.Second
	}
	if cfg.RetryBase <= 0 {
		cfg.RetryBase = 500 * time.Millisecond
	}
	return &AssemblyAI{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: cfg.RequestTimeout,
		},
	}
}

func (a *AssemblyAI) Name() string { return "assemblyai" }

// PollBudget is the longest time Transcribe spends polling one job.
func (a *AssemblyAI) PollBudget() time.Duration {
	return time.Duration(a.cfg.MaxPollAttempts) * a.cfg.PollInterval
}

func (a *AssemblyAI) Transcribe(ctx context.Context, req TranscriptionRequest) (*TranscriptionResponse, error) {
	if a.cfg.APIKey == "" {
		return nil, apperr.Wrap(apperr.KindNotConfigured, "stt.transcribe", ErrNotConfigured, "AssemblyAI API key not configured.")
	}
	if len(req.Audio) == 0 {
		return nil, apperr.New(apperr.KindInvalidInput, "stt.transcribe", "Audio file is empty.")
	}

	uploadURL, err := a.upload(ctx, req.Audio)
	if err != nil {
		return nil, err
	}

	jobID, err := a.startJob(ctx, uploadURL, req.Language)
	if err != nil {
		return nil, err
	}
	slog.Debug("transcription job started", "job_id", jobID, "filename", req.Filename)

	job, err := a.waitForJob(ctx, jobID)
	if err != nil {
		return nil, err
	}

	return &TranscriptionResponse{
		Text:     job.Text,
		Language: job.LanguageCode,
		Duration: job.AudioDuration,
		JobID:    job.ID,
	}, nil
}

// upload sends the raw bytes to the ingest endpoint. It is idempotent, so
// transient failures are retried.
func (a *AssemblyAI) upload(ctx context.Context, audio []byte) (string, error) {
	var uploadURL, detail string
	err := retry.Do(ctx, retry.Policy{Retries: a.cfg.UploadRetries, Base: a.cfg.RetryBase, Op: "assemblyai.upload"}, func(ctx context.Context) error {
		httpReq, err := http.NewRequestWithContext(ctx, "POST", a.cfg.BaseURL+"/v2/upload", bytes.NewReader(audio))
		if err != nil {
			return retry.Permanent(err)
		}
		httpReq.Header.Set("authorization", a.cfg.APIKey)
		httpReq.Header.Set("Content-Type", "application/octet-stream")

		status, body, err := a.do(httpReq)
		if err != nil {
			detail = err.Error()
			return fmt.Errorf("upload request: %w", err)
		}
		if status != http.StatusOK {
			detail = body
			failure := fmt.Errorf("upload failed (status %d): %s", status, body)
			if retry.Transient(status) {
				return failure
			}
			return retry.Permanent(failure)
		}

		var out struct {
			UploadURL string `json:"upload_url"`
		}
		if err := json.Unmarshal([]byte(body), &out); err != nil || out.UploadURL == "" {
			return retry.Permanent(fmt.Errorf("%w: upload response without upload_url: %s", ErrMalformedResponse, body))
		}
		uploadURL = out.UploadURL
		return nil
	})
	if err == nil {
		return uploadURL, nil
	}

	if errors.Is(err, ErrMalformedResponse) {
		return "", apperr.Wrap(apperr.KindUpstreamMalformed, "stt.upload", fmt.Errorf("%w: %w", ErrUploadFailed, err),
			"Failed to upload audio to AssemblyAI: response did not include an upload URL.")
	}
	if cerr := contextFailure(ctx, "stt.upload"); cerr != nil {
		return "", cerr
	}
	return "", apperr.Wrap(apperr.KindUpstreamUnavailable, "stt.upload", fmt.Errorf("%w: %w", ErrUploadFailed, err),
		"Failed to upload audio to AssemblyAI: "+detail)
}

// startJob creates the transcription job. Not retried: a duplicate submission
// could create a second billed job.
func (a *AssemblyAI) startJob(ctx context.Context, uploadURL, language string) (string, error) {
	payload := map[string]any{"audio_url": uploadURL}
	if language != "" {
		payload["language_code"] = language
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", a.cfg.BaseURL+"/v2/transcript", bytes.NewReader(data))
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("authorization", a.cfg.APIKey)
	httpReq.Header.Set("Content-Type", "application/json")

	status, body, err := a.do(httpReq)
	if err != nil {
		if cerr := contextFailure(ctx, "stt.start"); cerr != nil {
			return "", cerr
		}
		return "", apperr.Wrap(apperr.KindUpstreamUnavailable, "stt.start", fmt.Errorf("%w: %w", ErrJobStartFailed, err),
			"Failed to start transcription job: "+err.Error())
	}
	if status != http.StatusOK {
		return "", apperr.Wrap(apperr.KindUpstreamUnavailable, "stt.start",
			fmt.Errorf("%w (status %d): %s", ErrJobStartFailed, status, body),
			"Failed to start transcription job: "+body)
	}

	var job Job
	if err := json.Unmarshal([]byte(body), &job); err != nil || job.ID == "" {
		return "", apperr.Wrap(apperr.KindUpstreamMalformed, "stt.start",
			fmt.Errorf("%w: %w: %s", ErrJobStartFailed, ErrMalformedResponse, body),
			"Failed to start transcription job: response did not include a job id.")
	}
	return job.ID, nil
}

// waitForJob polls at PollInterval for at most MaxPollAttempts, and never
// longer than PollBudget in wall time, however slow the provider answers.
func (a *AssemblyAI) waitForJob(ctx context.Context, jobID string) (*Job, error) {
	pollCtx, cancel := context.WithTimeout(ctx, a.PollBudget())
	defer cancel()

	timer := time.NewTimer(a.cfg.PollInterval)
	defer timer.Stop()

	for attempt := 1; attempt <= a.cfg.MaxPollAttempts; attempt++ {
		job, err := a.fetchJob(pollCtx, jobID)
		switch {
		case err != nil && pollCtx.Err() != nil:
			return nil, a.pollExpired(ctx, jobID, attempt)
		case err != nil:
			var pe *pollError
			if errors.As(err, &pe) && !pe.transient() {
				return nil, apperr.Wrap(apperr.KindUpstreamUnavailable, "stt.poll", err,
					"Failed to fetch transcription status: "+pe.body)
			}
			if errors.Is(err, ErrMalformedResponse) {
				return nil, apperr.Wrap(apperr.KindUpstreamMalformed, "stt.poll", err,
					"Transcription status response could not be read.")
			}
			slog.Warn("transient transcription poll failure", "job_id", jobID, "attempt", attempt, "error", err)
		case job.Status == StatusCompleted:
			return job, nil
		case job.Status.Terminal():
			return nil, apperr.Wrap(apperr.KindUpstreamUnavailable, "stt.poll",
				fmt.Errorf("%w: %s", ErrTranscriptionFailed, job.Error),
				"Transcription failed: "+job.Error)
		}

		if attempt == a.cfg.MaxPollAttempts {
			break
		}

		timer.Reset(a.cfg.PollInterval)
		select {
		case <-pollCtx.Done():
			return nil, a.pollExpired(ctx, jobID, attempt)
		case <-timer.C:
		}
	}

	return nil, a.pollExpired(ctx, jobID, a.cfg.MaxPollAttempts)
}

func (a *AssemblyAI) pollExpired(ctx context.Context, jobID string, attempts int) error {
	if cerr := contextFailure(ctx, "stt.poll"); cerr != nil {
		return cerr
	}
	slog.Warn("transcription timed out", "job_id", jobID, "attempts", attempts, "budget", a.PollBudget())
	return apperr.Wrap(apperr.KindTimeout, "stt.poll", ErrTimedOut, "Transcription timed out.")
}

func (a *AssemblyAI) fetchJob(ctx context.Context, jobID string) (*Job, error) {
	httpReq, err := http.NewRequestWithContext(ctx, "GET", a.cfg.BaseURL+"/v2/transcript/"+jobID, nil)
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("authorization", a.cfg.APIKey)

	status, body, err := a.do(httpReq)
	if err != nil {
		return nil, &pollError{body: err.Error(), err: err}
	}
	if status != http.StatusOK {
		return nil, &pollError{status: status, body: body}
	}

	var job Job
	if err := json.Unmarshal([]byte(body), &job); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return &job, nil
}

func (a *AssemblyAI) do(req *http.Request) (int, string, error) {
	resp, err := a.httpClient.Do(req)
	if err != nil {
		return 0, "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, "", fmt.Errorf("read response: %w", err)
	}
	return resp.StatusCode, string(body), nil
}

// pollError is a failed status fetch. Status 0 means the request never got an answer.
type pollError struct {
	status int
	body   string
	err    error
}

func (e *pollError) Error() string {
	if e.status == 0 {
		return "poll request: " + e.body
	}
	return fmt.Sprintf("poll failed (status %d): %s", e.status, e.body)
}

func (e *pollError) Unwrap() error { return e.err }

func (e *pollError) transient() bool {
	return e.status == 0 || retry.Transient(e.status)
}

// contextFailure classifies a caller-side cancellation or deadline, if any.
func contextFailure(ctx context.Context, op string) error {
	switch {
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		return apperr.Wrap(apperr.KindTimeout, op, ctx.Err(), "Transcription timed out.")
	case ctx.Err() != nil:
		return apperr.Wrap(apperr.KindInternal, op, ctx.Err(), "Transcription cancelled.")
	}
	return nil
}
