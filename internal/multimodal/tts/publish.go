package tts

import (
	"bytes"
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/nikhilbhutani/voiceagent/internal/apperr"
	"github.com/nikhilbhutani/voiceagent/internal/storage"
)

// generatedPrefix marks keys of audio rendered by this service, as opposed to
// client uploads sharing the same storage namespace.
const generatedPrefix = "tts-"

// IsGenerated reports whether key names synthesized audio.
func IsGenerated(key string) bool {
	return strings.HasPrefix(key, generatedPrefix)
}

// publish stores rendered audio and returns the URL clients can fetch it from.
// Backends that render bytes locally use it to honour the URL contract.
func publish(ctx context.Context, blobs storage.Storage, audio []byte, ext, contentType string) (*SynthesisResult, error) {
	if len(audio) == 0 {
		return nil, apperr.Wrap(apperr.KindUpstreamMalformed, "tts.publish", ErrNoAudioReturned, "No audio returned from synthesis backend")
	}

	key := generatedPrefix + uuid.NewString() + ext
	if _, err := blobs.Put(ctx, key, bytes.NewReader(audio), contentType); err != nil {
		return nil, apperr.Wrap(apperr.KindStorage, "tts.publish", err, "Failed to store generated audio.")
	}

	return &SynthesisResult{
		AudioURL:    blobs.URL(key),
		ContentType: contentType,
	}, nil
}
