// Package bootstrap wires configured backends into a ready orchestrator.
// Both the API server and the worker build their dependencies here.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/nikhilbhutani/voiceagent/internal/cache"
	"github.com/nikhilbhutani/voiceagent/internal/config"
	"github.com/nikhilbhutani/voiceagent/internal/llm"
	"github.com/nikhilbhutani/voiceagent/internal/multimodal/stt"
	"github.com/nikhilbhutani/voiceagent/internal/multimodal/tts"
	"github.com/nikhilbhutani/voiceagent/internal/pipeline"
	"github.com/nikhilbhutani/voiceagent/internal/storage"
	"github.com/nikhilbhutani/voiceagent/internal/upload"
)

type Services struct {
	Config       *config.Config
	Blobs        storage.Storage
	Store        *upload.Store
	Transcriber  stt.STTProvider
	Synthesizer  tts.TTSProvider
	Responder    *llm.Responder
	Orchestrator *pipeline.Orchestrator

	// Cache is nil when Redis was unreachable at startup.
	Cache *cache.Cache
	redis *redis.Client
}

// Build constructs every service from cfg. Only storage failures are fatal;
// Redis is optional and missing provider keys surface per request.
func Build(ctx context.Context, cfg *config.Config) (*Services, error) {
	blobs, err := NewStorage(ctx, cfg)
	if err != nil {
		return nil, err
	}

	s := &Services{
		Config: cfg,
		Blobs:  blobs,
		Store: upload.NewStore(blobs, upload.Options{
			UniqueKeys: cfg.Upload.UniqueKeys,
			MaxBytes:   cfg.Upload.MaxBytes,
		}),
		Transcriber: NewTranscriber(cfg.STT),
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		slog.Warn("redis unavailable, running without voice cache", "error", err)
		rdb.Close()
	} else {
		s.redis = rdb
		s.Cache = cache.NewCache(rdb, "voiceagent")
	}

	synth := NewSynthesizer(cfg.TTS, blobs)
	if s.Cache != nil && cfg.TTS.VoicesCacheTTL > 0 {
		synth = tts.NewCachedSynthesizer(synth, s.Cache, cfg.TTS.VoicesCacheTTL)
	}
	s.Synthesizer = synth

	s.Responder, err = llm.NewResponderFromConfig(ctx, cfg.LLM)
	if err != nil {
		s.Close()
		return nil, err
	}

	s.Orchestrator = pipeline.NewOrchestrator(s.Store, s.Transcriber, s.Synthesizer, s.Responder, cfg.TTS.DefaultVoice)

	slog.Info("services ready",
		"storage", blobs.Name(),
		"stt", s.Transcriber.Name(),
		"tts", s.Synthesizer.Name(),
		"llm", s.Responder.Name(),
		"voice_cache", s.Cache != nil,
	)
	return s, nil
}

// Ping checks the optional Redis connection. A nil error with no Redis
// configured means the service is ready without it.
func (s *Services) Ping(ctx context.Context) error {
	if s.Cache == nil {
		return nil
	}
	return s.Cache.Ping(ctx)
}

func (s *Services) Close() error {
	if s.redis == nil {
		return nil
	}
	return s.redis.Close()
}

// NewStorage opens the configured blob backend.
func NewStorage(ctx context.Context, cfg *config.Config) (storage.Storage, error) {
	switch cfg.Storage.Backend {
	case "local":
		blobs, err := storage.NewLocalStorage(cfg.Storage.Dir, cfg.Server.PublicBaseURL)
		if err != nil {
			return nil, fmt.Errorf("local storage: %w", err)
		}
		return blobs, nil
	case "s3":
		blobs, err := storage.NewS3Storage(ctx, storage.S3Config{
			Endpoint:  cfg.Storage.S3Endpoint,
			AccessKey: cfg.Storage.S3AccessKey,
			SecretKey: cfg.Storage.S3SecretKey,
			Bucket:    cfg.Storage.S3Bucket,
			Region:    cfg.Storage.S3Region,
			UseSSL:    cfg.Storage.S3UseSSL,
		})
		if err != nil {
			return nil, fmt.Errorf("s3 storage: %w", err)
		}
		return blobs, nil
	case "supabase":
		if cfg.Storage.SupabaseURL == "" || cfg.Storage.SupabaseKey == "" {
			return nil, errors.New("supabase storage requires SUPABASE_URL and SUPABASE_SERVICE_KEY")
		}
		return storage.NewSupabaseStorage(cfg.Storage.SupabaseURL, cfg.Storage.SupabaseKey, cfg.Storage.Bucket), nil
	}
	return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
}

func NewTranscriber(cfg config.STTConfig) stt.STTProvider {
	switch cfg.Backend {
	case "openai":
		return stt.NewOpenAISTT(stt.OpenAISTTConfig{
			APIKey:  cfg.OpenAIKey,
			Model:   cfg.OpenAIModel,
			Timeout: cfg.RequestTimeout,
		})
	case "local":
		return stt.NewLocalSTT(stt.LocalSTTConfig{
			BaseURL: cfg.LocalBaseURL,
			Model:   cfg.OpenAIModel,
		})
	}
	return stt.NewAssemblyAI(stt.AssemblyAIConfig{
		APIKey:          cfg.AssemblyAIKey,
		BaseURL:         cfg.AssemblyAIURL,
		PollInterval:    cfg.PollInterval,
		MaxPollAttempts: cfg.MaxPollAttempts,
		RequestTimeout:  cfg.RequestTimeout,
		UploadRetries:   cfg.UploadRetries,
	})
}

func NewSynthesizer(cfg config.TTSConfig, blobs storage.Storage) tts.TTSProvider {
	switch cfg.Backend {
	case "openai":
		return tts.NewOpenAITTS(tts.OpenAITTSConfig{
			APIKey:  cfg.OpenAIKey,
			Model:   cfg.OpenAIModel,
			Timeout: cfg.RequestTimeout,
		}, blobs)
	case "local":
		return tts.NewLocalTTS(tts.LocalTTSConfig{
			PiperBinPath: cfg.LocalBinPath,
			ModelPath:    cfg.LocalModel,
		}, blobs)
	}
	return tts.NewMurf(tts.MurfConfig{
		APIKey:        cfg.MurfKey,
		BaseURL:       cfg.MurfURL,
		Timeout:       cfg.RequestTimeout,
		VoicesRetries: cfg.VoicesRetries,
	})
}
