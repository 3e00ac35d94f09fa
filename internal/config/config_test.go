package config

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir()) // keep a developer's .env out of the test

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:8000", cfg.Addr())
	assert.Equal(t, "local", cfg.Storage.Backend)
	assert.Equal(t, "uploads", cfg.Storage.Dir)
	assert.True(t, cfg.Upload.UniqueKeys)
	assert.Equal(t, 2*time.Second, cfg.STT.PollInterval)
	assert.Equal(t, 30, cfg.STT.MaxPollAttempts)
	assert.Equal(t, "en-IN-aarav", cfg.TTS.DefaultVoice)
	assert.Equal(t, 60*time.Second, cfg.TTS.VoicesCacheTTL)
	assert.Equal(t, "gemini", cfg.LLM.Provider)
	assert.False(t, cfg.LLM.Guardrails)
	assert.Equal(t, 50000, cfg.LLM.MaxPromptChars)
	assert.Equal(t, []string{"*"}, cfg.HTTP.AllowedOrigins)
	assert.False(t, cfg.HTTP.LegacyErrors)
}

func TestLoad_MissingKeysAreNotFatal(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("MURF_API_KEY", "")
	t.Setenv("ASSEMBLYAI_API_KEY", "")
	t.Setenv("GEMINI_API_KEY", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Empty(t, cfg.TTS.MurfKey)
	assert.Empty(t, cfg.STT.AssemblyAIKey)
	assert.Empty(t, cfg.LLM.GeminiKey)
}

func TestLoad_Overrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("STT_POLL_INTERVAL", "500ms")
	t.Setenv("STT_MAX_POLL_ATTEMPTS", "5")
	t.Setenv("UPLOAD_UNIQUE_KEYS", "false")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("MURF_API_KEY", "murf-key")
	t.Setenv("PUBLIC_BASE_URL", "https://voice.example/")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "https://voice.example", cfg.Server.PublicBaseURL)
	assert.Equal(t, 500*time.Millisecond, cfg.STT.PollInterval)
	assert.Equal(t, 5, cfg.STT.MaxPollAttempts)
	assert.False(t, cfg.Upload.UniqueKeys)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.HTTP.AllowedOrigins)
	assert.Equal(t, "murf-key", cfg.TTS.MurfKey)
}

func TestLoad_InvalidValues(t *testing.T) {
	cases := map[string]string{
		"SERVER_PORT":           "eighty",
		"STT_POLL_INTERVAL":     "soon",
		"STT_MAX_POLL_ATTEMPTS": "0",
		"STORAGE_BACKEND":       "ftp",
		"LLM_PROVIDER":          "eliza",
		"LLM_GUARDRAILS":        "maybe",
	}
	for key, value := range cases {
		t.Run(key, func(t *testing.T) {
			t.Chdir(t.TempDir())
			t.Setenv(key, value)
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestParseLogLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLogLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseLogLevel("warn"))
	assert.Equal(t, slog.LevelError, ParseLogLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLogLevel("verbose"))
}
