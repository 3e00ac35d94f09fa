package stt

// LocalSTTConfig holds configuration for a local OpenAI-compatible whisper server.
type LocalSTTConfig struct {
	BaseURL string // default: "http://localhost:8178"
	Model   string
}

// LocalSTT wraps OpenAISTT pointing at a local whisper server.
type LocalSTT struct {
	*OpenAISTT
}

// NewLocalSTT creates a LocalSTT; no API key is sent or required.
func NewLocalSTT(cfg LocalSTTConfig) *LocalSTT {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "http://localhost:8178"
	}
	inner := NewOpenAISTT(OpenAISTTConfig{
		BaseURL: baseURL,
		Model:   cfg.Model,
	})
	inner.name = "local-whisper"
	inner.requireKey = false
	return &LocalSTT{OpenAISTT: inner}
}
