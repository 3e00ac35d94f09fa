package tts

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/nikhilbhutani/voiceagent/internal/apperr"
	"github.com/nikhilbhutani/voiceagent/internal/retry"
)

// MurfConfig holds configuration for the Murf backend.
type MurfConfig struct {
	APIKey        string
	BaseURL       string        // default: "https://api.murf.ai"
	Timeout       time.Duration // default: 30s
	VoicesRetries int
	RetryBase     time.Duration // default: 500ms
}

// Murf synthesizes speech with Murf's generate API, which answers with a
// hosted audio URL rather than the audio bytes.
type Murf struct {
	cfg        MurfConfig
	httpClient *http.Client
}

// NewMurf creates a Murf client with sensible defaults applied.
func NewMurf(cfg MurfConfig) *Murf {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.murf.ai"
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.RetryBase <= 0 {
		cfg.RetryBase = 500 * time.Millisecond
	}
	return &Murf{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

func (m *Murf) Name() string { return "murf" }

func (m *Murf) notConfigured(op string) error {
	return apperr.Wrap(apperr.KindNotConfigured, op, ErrNotConfigured, "Murf API key not configured.")
}

// Synthesize makes a single generate call. It is not retried since every
// call renders (and bills) a new clip.
func (m *Murf) Synthesize(ctx context.Context, req SynthesisRequest) (*SynthesisResult, error) {
	if m.cfg.APIKey == "" {
		return nil, m.notConfigured("tts.synthesize")
	}
	if strings.TrimSpace(req.Text) == "" {
		return nil, apperr.New(apperr.KindInvalidInput, "tts.synthesize", "Text is required.")
	}
	if req.VoiceID == "" {
		return nil, apperr.New(apperr.KindInvalidInput, "tts.synthesize", "voiceId is required.")
	}

	data, err := json.Marshal(map[string]string{
		"voiceId": req.VoiceID,
		"text":    req.Text,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", m.cfg.BaseURL+"/v1/speech/generate", bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("accept", "application/json")
	httpReq.Header.Set("api-key", m.cfg.APIKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := m.httpClient.Do(httpReq)
	if err != nil {
		return nil, apperr.Wrap(upstreamKind(ctx), "tts.synthesize", fmt.Errorf("%w: %w", ErrSynthesisFailed, err),
			"Failed to generate audio: "+err.Error())
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindUpstreamUnavailable, "tts.synthesize", fmt.Errorf("%w: read response: %w", ErrSynthesisFailed, err),
			"Failed to generate audio: "+err.Error())
	}

	if resp.StatusCode != http.StatusOK {
		return nil, apperr.Wrap(apperr.KindUpstreamUnavailable, "tts.synthesize",
			fmt.Errorf("%w (status %d): %s", ErrSynthesisFailed, resp.StatusCode, body),
			"Failed to generate audio: "+strings.TrimSpace(string(body)))
	}

	var out struct {
		AudioFile            string  `json:"audioFile"`
		AudioLengthInSeconds float64 `json:"audioLengthInSeconds"`
	}
	if err := json.Unmarshal(body, &out); err != nil || out.AudioFile == "" {
		return nil, apperr.Wrap(apperr.KindUpstreamMalformed, "tts.synthesize", ErrNoAudioReturned,
			"No audio file returned from Murf API")
	}

	return &SynthesisResult{
		AudioURL:        out.AudioFile,
		DurationSeconds: out.AudioLengthInSeconds,
	}, nil
}

// ListVoices queries the provider's voice catalogue. Read-only, so transient
// failures are retried.
func (m *Murf) ListVoices(ctx context.Context) ([]Voice, error) {
	if m.cfg.APIKey == "" {
		return nil, m.notConfigured("tts.voices")
	}

	var voices []Voice
	var detail string
	err := retry.Do(ctx, retry.Policy{Retries: m.cfg.VoicesRetries, Base: m.cfg.RetryBase, Op: "murf.voices"}, func(ctx context.Context) error {
		httpReq, err := http.NewRequestWithContext(ctx, "GET", m.cfg.BaseURL+"/v1/speech/voices", nil)
		if err != nil {
			return retry.Permanent(err)
		}
		httpReq.Header.Set("accept", "application/json")
		httpReq.Header.Set("api-key", m.cfg.APIKey)

		resp, err := m.httpClient.Do(httpReq)
		if err != nil {
			detail = err.Error()
			return err
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			detail = err.Error()
			return err
		}

		if resp.StatusCode != http.StatusOK {
			detail = strings.TrimSpace(string(body))
			failure := fmt.Errorf("voices failed (status %d): %s", resp.StatusCode, body)
			if retry.Transient(resp.StatusCode) {
				return failure
			}
			return retry.Permanent(failure)
		}

		if err := json.Unmarshal(body, &voices); err != nil {
			detail = "unexpected voice list format"
			return retry.Permanent(fmt.Errorf("%w: %w", errMalformedVoices, err))
		}
		return nil
	})
	if err != nil {
		kind := upstreamKind(ctx)
		if errors.Is(err, errMalformedVoices) {
			kind = apperr.KindUpstreamMalformed
		}
		return nil, apperr.Wrap(kind, "tts.voices", fmt.Errorf("%w: %w", ErrVoicesFailed, err),
			"Failed to fetch voices: "+detail)
	}

	return uniqueVoices(voices), nil
}

var errMalformedVoices = errors.New("malformed voice list")

// upstreamKind distinguishes a caller deadline from a provider failure.
func upstreamKind(ctx context.Context) apperr.Kind {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return apperr.KindTimeout
	}
	return apperr.KindUpstreamUnavailable
}
