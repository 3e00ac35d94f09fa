package tts

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/nikhilbhutani/voiceagent/internal/apperr"
	"github.com/nikhilbhutani/voiceagent/internal/storage"
)

// OpenAITTSConfig holds configuration for the OpenAI TTS backend.
type OpenAITTSConfig struct {
	APIKey  string
	BaseURL string        // default: "https://api.openai.com/v1"
	Model   string        // default: "tts-1"
	Timeout time.Duration // default: 120s
}

// OpenAITTS synthesizes speech using OpenAI's speech API and publishes the
// MP3 through the configured storage backend.
type OpenAITTS struct {
	cfg    OpenAITTSConfig
	client *openai.Client
	blobs  storage.Storage
}

var openAIVoices = []openai.SpeechVoice{
	openai.VoiceAlloy, openai.VoiceEcho, openai.VoiceFable,
	openai.VoiceOnyx, openai.VoiceNova, openai.VoiceShimmer,
}

// NewOpenAITTS creates an OpenAITTS with sensible defaults applied.
func NewOpenAITTS(cfg OpenAITTSConfig, blobs storage.Storage) *OpenAITTS {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.openai.com/v1"
	}
	if cfg.Model == "" {
		cfg.Model = string(openai.TTSModel1)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 120 * time.Second
	}

	oc := openai.DefaultConfig(cfg.APIKey)
	oc.BaseURL = cfg.BaseURL
	oc.HTTPClient = &http.Client{Timeout: cfg.Timeout}

	return &OpenAITTS{cfg: cfg, client: openai.NewClientWithConfig(oc), blobs: blobs}
}

func (o *OpenAITTS) Name() string { return "openai-tts" }

func (o *OpenAITTS) Synthesize(ctx context.Context, req SynthesisRequest) (*SynthesisResult, error) {
	if o.cfg.APIKey == "" {
		return nil, apperr.Wrap(apperr.KindNotConfigured, "tts.synthesize", ErrNotConfigured, "OpenAI API key not configured.")
	}
	if strings.TrimSpace(req.Text) == "" {
		return nil, apperr.New(apperr.KindInvalidInput, "tts.synthesize", "Text is required.")
	}

	voice := openai.SpeechVoice(req.VoiceID)
	if !knownOpenAIVoice(voice) {
		voice = openai.VoiceAlloy
	}

	resp, err := o.client.CreateSpeech(ctx, openai.CreateSpeechRequest{
		Model:          openai.SpeechModel(o.cfg.Model),
		Input:          req.Text,
		Voice:          voice,
		ResponseFormat: openai.SpeechResponseFormatMp3,
	})
	if err != nil {
		return nil, apperr.Wrap(upstreamKind(ctx), "tts.synthesize", fmt.Errorf("%w: %w", ErrSynthesisFailed, err),
			"Failed to generate audio: "+err.Error())
	}
	defer resp.Close()

	audio, err := io.ReadAll(resp)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindUpstreamUnavailable, "tts.synthesize", fmt.Errorf("%w: read audio: %w", ErrSynthesisFailed, err),
			"Failed to generate audio: "+err.Error())
	}

	return publish(ctx, o.blobs, audio, ".mp3", "audio/mpeg")
}

// ListVoices returns the fixed OpenAI voice set.
func (o *OpenAITTS) ListVoices(_ context.Context) ([]Voice, error) {
	voices := make([]Voice, 0, len(openAIVoices))
	for _, v := range openAIVoices {
		voices = append(voices, Voice{VoiceID: string(v), DisplayName: strings.ToUpper(string(v)[:1]) + string(v)[1:]})
	}
	return voices, nil
}

func knownOpenAIVoice(v openai.SpeechVoice) bool {
	for _, known := range openAIVoices {
		if v == known {
			return true
		}
	}
	return false
}
