package stt

import (
	"context"
	"errors"
)

var (
	ErrNotConfigured       = errors.New("transcription provider not configured")
	ErrUploadFailed        = errors.New("audio upload to transcription provider failed")
	ErrJobStartFailed      = errors.New("transcription job could not be started")
	ErrTranscriptionFailed = errors.New("transcription provider reported failure")
	ErrTimedOut            = errors.New("transcription polling bound exceeded")
	ErrMalformedResponse   = errors.New("malformed transcription provider response")
)

// TranscriptionRequest holds the audio to transcribe.
type TranscriptionRequest struct {
	Audio       []byte `json:"-"`
	Filename    string `json:"filename"`
	ContentType string `json:"content_type,omitempty"`
	Language    string `json:"language,omitempty"`
}

// TranscriptionResponse holds the transcription result.
type TranscriptionResponse struct {
	Text     string  `json:"text"`
	Language string  `json:"language,omitempty"`
	Duration float64 `json:"duration,omitempty"`
	JobID    string  `json:"job_id,omitempty"`
}

// STTProvider is the interface for speech-to-text backends.
type STTProvider interface {
	Transcribe(ctx context.Context, req TranscriptionRequest) (*TranscriptionResponse, error)
	Name() string
}

// JobStatus is the lifecycle state of a remote transcription job.
type JobStatus string

const (
	StatusQueued     JobStatus = "queued"
	StatusProcessing JobStatus = "processing"
	StatusCompleted  JobStatus = "completed"
	StatusFailed     JobStatus = "error"
)

// Terminal reports whether no further polling can change the job.
func (s JobStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Job is one remote transcription job as last observed by polling.
type Job struct {
	ID            string    `json:"id"`
	Status        JobStatus `json:"status"`
	Text          string    `json:"text"`
	Error         string    `json:"error"`
	LanguageCode  string    `json:"language_code"`
	AudioDuration float64   `json:"audio_duration"`
}
