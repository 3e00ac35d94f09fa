package stt

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"path/filepath"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/nikhilbhutani/voiceagent/internal/apperr"
)

// OpenAISTTConfig holds configuration for the OpenAI STT backend.
type OpenAISTTConfig struct {
	APIKey  string
	BaseURL string        // default: "https://api.openai.com/v1"
	Model   string        // default: "whisper-1"
	Timeout time.Duration // default: 300s
}

// OpenAISTT transcribes audio synchronously with OpenAI's Whisper API (or a compatible endpoint).
type OpenAISTT struct {
	cfg        OpenAISTTConfig
	client     *openai.Client
	name       string
	requireKey bool
}

// NewOpenAISTT creates an OpenAISTT with sensible defaults applied.
func NewOpenAISTT(cfg OpenAISTTConfig) *OpenAISTT {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.openai.com/v1"
	}
	if cfg.Model == "" {
		cfg.Model = openai.Whisper1
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 300 * time.Second
	}

	oc := openai.DefaultConfig(cfg.APIKey)
	oc.BaseURL = cfg.BaseURL
	oc.HTTPClient = &http.Client{Timeout: cfg.Timeout}

	return &OpenAISTT{
		cfg:        cfg,
		client:     openai.NewClientWithConfig(oc),
		name:       "openai-whisper",
		requireKey: true,
	}
}

func (o *OpenAISTT) Name() string { return o.name }

// Transcribe uploads the audio in one request; there is no job to poll.
func (o *OpenAISTT) Transcribe(ctx context.Context, req TranscriptionRequest) (*TranscriptionResponse, error) {
	if o.requireKey && o.cfg.APIKey == "" {
		return nil, apperr.Wrap(apperr.KindNotConfigured, "stt.transcribe", ErrNotConfigured, "OpenAI API key not configured.")
	}
	if len(req.Audio) == 0 {
		return nil, apperr.New(apperr.KindInvalidInput, "stt.transcribe", "Audio file is empty.")
	}

	filename := filepath.Base(req.Filename)
	if filename == "." || filename == "/" {
		filename = "audio.wav"
	}

	resp, err := o.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    o.cfg.Model,
		FilePath: filename,
		Reader:   bytes.NewReader(req.Audio),
		Language: req.Language,
		Format:   openai.AudioResponseFormatVerboseJSON,
	})
	if err != nil {
		if cerr := contextFailure(ctx, "stt.transcribe"); cerr != nil {
			return nil, cerr
		}
		return nil, apperr.Wrap(apperr.KindUpstreamUnavailable, "stt.transcribe",
			fmt.Errorf("%w: %w", ErrTranscriptionFailed, err),
			"Transcription failed: "+err.Error())
	}

	return &TranscriptionResponse{
		Text:     resp.Text,
		Language: resp.Language,
		Duration: resp.Duration,
	}, nil
}
