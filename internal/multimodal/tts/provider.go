package tts

import (
	"context"
	"encoding/json"
	"errors"
)

var (
	ErrNotConfigured   = errors.New("synthesis provider not configured")
	ErrSynthesisFailed = errors.New("synthesis provider returned an error")
	ErrNoAudioReturned = errors.New("synthesis provider returned no audio")
	ErrVoicesFailed    = errors.New("voice list request failed")
)

// SynthesisRequest holds the parameters for text-to-speech generation.
type SynthesisRequest struct {
	Text    string `json:"text"`
	VoiceID string `json:"voiceId"`
}

// SynthesisResult points at the generated audio.
type SynthesisResult struct {
	AudioURL        string  `json:"audio_url"`
	ContentType     string  `json:"content_type,omitempty"`
	DurationSeconds float64 `json:"duration_seconds,omitempty"`
}

// TTSProvider is the interface for text-to-speech backends.
type TTSProvider interface {
	Synthesize(ctx context.Context, req SynthesisRequest) (*SynthesisResult, error)
	ListVoices(ctx context.Context) ([]Voice, error)
	Name() string
}

// Voice describes one provider voice. The provider's JSON object is kept
// verbatim and re-emitted on encode, so unknown fields pass through.
type Voice struct {
	VoiceID     string
	DisplayName string
	Locale      string
	Gender      string

	raw json.RawMessage
}

type voiceFields struct {
	VoiceID     string `json:"voiceId"`
	DisplayName string `json:"displayName,omitempty"`
	Locale      string `json:"locale,omitempty"`
	Gender      string `json:"gender,omitempty"`
}

func (v *Voice) UnmarshalJSON(data []byte) error {
	var f voiceFields
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	*v = Voice{
		VoiceID:     f.VoiceID,
		DisplayName: f.DisplayName,
		Locale:      f.Locale,
		Gender:      f.Gender,
		raw:         append(json.RawMessage(nil), data...),
	}
	return nil
}

func (v Voice) MarshalJSON() ([]byte, error) {
	if len(v.raw) > 0 {
		return v.raw, nil
	}
	return json.Marshal(voiceFields{
		VoiceID:     v.VoiceID,
		DisplayName: v.DisplayName,
		Locale:      v.Locale,
		Gender:      v.Gender,
	})
}

// uniqueVoices drops entries without an ID and later duplicates of an ID.
func uniqueVoices(voices []Voice) []Voice {
	seen := make(map[string]bool, len(voices))
	out := voices[:0]
	for _, v := range voices {
		if v.VoiceID == "" || seen[v.VoiceID] {
			continue
		}
		seen[v.VoiceID] = true
		out = append(out, v)
	}
	return out
}
