package stt

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nikhilbhutani/voiceagent/internal/apperr"
)

func TestLocalSTT_Transcribe(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/audio/transcriptions", r.URL.Path)
		if !assert.NoError(t, r.ParseMultipartForm(1<<20)) {
			return
		}
		assert.Equal(t, "whisper-1", r.FormValue("model"))
		_, header, err := r.FormFile("file")
		if assert.NoError(t, err) {
			assert.Equal(t, "sample.wav", header.Filename)
		}
		json.NewEncoder(w).Encode(map[string]any{"text": "hi there", "language": "english", "duration": 1.5})
	}))
	defer srv.Close()

	local := NewLocalSTT(LocalSTTConfig{BaseURL: srv.URL})
	assert.Equal(t, "local-whisper", local.Name())

	resp, err := local.Transcribe(context.Background(), request())
	require.NoError(t, err)
	assert.Equal(t, "hi there", resp.Text)
	assert.Equal(t, 1.5, resp.Duration)
}

func TestOpenAISTT_RequiresKey(t *testing.T) {
	_, err := NewOpenAISTT(OpenAISTTConfig{}).Transcribe(context.Background(), request())
	assert.ErrorIs(t, err, ErrNotConfigured)
	assert.Equal(t, apperr.KindNotConfigured, apperr.KindOf(err))
}

func TestOpenAISTT_ProviderError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":{"message":"unsupported audio","type":"invalid_request_error"}}`))
	}))
	defer srv.Close()

	client := NewOpenAISTT(OpenAISTTConfig{APIKey: "k", BaseURL: srv.URL})
	_, err := client.Transcribe(context.Background(), request())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTranscriptionFailed)
	assert.Contains(t, err.Error(), "unsupported audio")
}
