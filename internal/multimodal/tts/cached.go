package tts

import (
	"context"
	"log/slog"
	"time"
)

// VoiceCache stores voice lists between requests.
type VoiceCache interface {
	Get(ctx context.Context, key string, dest any) error
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
}

// CachedSynthesizer memoizes ListVoices for TTL. Synthesis always goes to
// the wrapped provider. A failing cache is logged and bypassed.
type CachedSynthesizer struct {
	TTSProvider
	cache VoiceCache
	ttl   time.Duration
}

func NewCachedSynthesizer(p TTSProvider, cache VoiceCache, ttl time.Duration) *CachedSynthesizer {
	return &CachedSynthesizer{TTSProvider: p, cache: cache, ttl: ttl}
}

func (c *CachedSynthesizer) cacheKey() string {
	return "voices:" + c.Name()
}

func (c *CachedSynthesizer) ListVoices(ctx context.Context) ([]Voice, error) {
	var cached []Voice
	err := c.cache.Get(ctx, c.cacheKey(), &cached)
	if err == nil && len(cached) > 0 {
		return cached, nil
	}

	voices, err := c.TTSProvider.ListVoices(ctx)
	if err != nil {
		return nil, err
	}

	if err := c.cache.Set(ctx, c.cacheKey(), voices, c.ttl); err != nil {
		slog.Warn("voice cache write failed", "provider", c.Name(), "error", err)
	}
	return voices, nil
}
