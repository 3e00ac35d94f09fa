package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server  ServerConfig
	Redis   RedisConfig
	Storage StorageConfig
	Upload  UploadConfig
	STT     STTConfig
	TTS     TTSConfig
	LLM     LLMConfig
	Queue   QueueConfig
	Auth    AuthConfig
	HTTP    HTTPConfig
}

type ServerConfig struct {
	Host          string
	Port          int
	PublicBaseURL string // used to build /media URLs for locally stored audio
	LogLevel      string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type StorageConfig struct {
	Backend string // "local", "s3" or "supabase"
	Dir     string

	S3Endpoint  string
	S3AccessKey string
	S3SecretKey string
	S3Bucket    string
	S3Region    string
	S3UseSSL    bool

	SupabaseURL string
	SupabaseKey string
	Bucket      string
}

type UploadConfig struct {
	UniqueKeys bool
	MaxBytes   int64
}

type STTConfig struct {
	Backend         string // "assemblyai", "openai" or "local"
	AssemblyAIKey   string
	AssemblyAIURL   string
	PollInterval    time.Duration
	MaxPollAttempts int
	RequestTimeout  time.Duration
	UploadRetries   int
	OpenAIKey       string
	OpenAIModel     string
	LocalBaseURL    string
}

type TTSConfig struct {
	Backend        string // "murf", "openai" or "local"
	MurfKey        string
	MurfURL        string
	DefaultVoice   string
	RequestTimeout time.Duration
	VoicesCacheTTL time.Duration
	VoicesRetries  int
	OpenAIKey      string
	OpenAIModel    string
	LocalBinPath   string
	LocalModel     string
}

type LLMConfig struct {
	Provider     string // "gemini", "openai", "anthropic" or "ollama"
	GeminiKey    string
	OpenAIKey    string
	AnthropicKey string
	OllamaURL    string
	Model        string
	SystemPrompt string
	Timeout      time.Duration

	// Guardrails screens prompts for injection attempts and blocked content
	// before they reach the provider.
	Guardrails     bool
	MaxPromptChars int
}

type QueueConfig struct {
	Enabled     bool
	ResultTTL   time.Duration
	TaskTimeout time.Duration
	Concurrency int
}

type AuthConfig struct {
	JWTSecret string
}

type HTTPConfig struct {
	LegacyErrors   bool
	RateLimit      int // requests per second per IP, 0 disables
	AllowedOrigins []string
}

// Load reads configuration from the environment. A .env file in the working
// directory is applied first when present. Missing provider keys are not errors.
func Load() (*Config, error) {
	_ = godotenv.Load()

	port, err := getEnvInt("SERVER_PORT", 8000)
	if err != nil {
		return nil, fmt.Errorf("invalid SERVER_PORT: %w", err)
	}

	redisDB, err := getEnvInt("REDIS_DB", 0)
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	s3SSL, err := getEnvBool("S3_USE_SSL", true)
	if err != nil {
		return nil, fmt.Errorf("invalid S3_USE_SSL: %w", err)
	}

	uniqueKeys, err := getEnvBool("UPLOAD_UNIQUE_KEYS", true)
	if err != nil {
		return nil, fmt.Errorf("invalid UPLOAD_UNIQUE_KEYS: %w", err)
	}

	maxBytes, err := getEnvInt("UPLOAD_MAX_BYTES", 25<<20)
	if err != nil {
		return nil, fmt.Errorf("invalid UPLOAD_MAX_BYTES: %w", err)
	}

	pollInterval, err := getEnvDuration("STT_POLL_INTERVAL", 2*time.Second)
	if err != nil {
		return nil, fmt.Errorf("invalid STT_POLL_INTERVAL: %w", err)
	}

	maxPolls, err := getEnvInt("STT_MAX_POLL_ATTEMPTS", 30)
	if err != nil {
		return nil, fmt.Errorf("invalid STT_MAX_POLL_ATTEMPTS: %w", err)
	}

	sttTimeout, err := getEnvDuration("STT_REQUEST_TIMEOUT", 60*time.Second)
	if err != nil {
		return nil, fmt.Errorf("invalid STT_REQUEST_TIMEOUT: %w", err)
	}

	uploadRetries, err := getEnvInt("STT_UPLOAD_RETRIES", 2)
	if err != nil {
		return nil, fmt.Errorf("invalid STT_UPLOAD_RETRIES: %w", err)
	}

	ttsTimeout, err := getEnvDuration("TTS_REQUEST_TIMEOUT", 30*time.Second)
	if err != nil {
		return nil, fmt.Errorf("invalid TTS_REQUEST_TIMEOUT: %w", err)
	}

	voicesTTL, err := getEnvDuration("TTS_VOICES_CACHE_TTL", 60*time.Second)
	if err != nil {
		return nil, fmt.Errorf("invalid TTS_VOICES_CACHE_TTL: %w", err)
	}

	voicesRetries, err := getEnvInt("TTS_VOICES_RETRIES", 2)
	if err != nil {
		return nil, fmt.Errorf("invalid TTS_VOICES_RETRIES: %w", err)
	}

	llmTimeout, err := getEnvDuration("LLM_TIMEOUT", 60*time.Second)
	if err != nil {
		return nil, fmt.Errorf("invalid LLM_TIMEOUT: %w", err)
	}

	guardrails, err := getEnvBool("LLM_GUARDRAILS", false)
	if err != nil {
		return nil, fmt.Errorf("invalid LLM_GUARDRAILS: %w", err)
	}

	maxPromptChars, err := getEnvInt("LLM_MAX_PROMPT_CHARS", 50000)
	if err != nil {
		return nil, fmt.Errorf("invalid LLM_MAX_PROMPT_CHARS: %w", err)
	}

	queueEnabled, err := getEnvBool("QUEUE_ENABLED", true)
	if err != nil {
		return nil, fmt.Errorf("invalid QUEUE_ENABLED: %w", err)
	}

	resultTTL, err := getEnvDuration("QUEUE_RESULT_TTL", time.Hour)
	if err != nil {
		return nil, fmt.Errorf("invalid QUEUE_RESULT_TTL: %w", err)
	}

	taskTimeout, err := getEnvDuration("QUEUE_TASK_TIMEOUT", 5*time.Minute)
	if err != nil {
		return nil, fmt.Errorf("invalid QUEUE_TASK_TIMEOUT: %w", err)
	}

	concurrency, err := getEnvInt("WORKER_CONCURRENCY", 10)
	if err != nil {
		return nil, fmt.Errorf("invalid WORKER_CONCURRENCY: %w", err)
	}

	legacyErrors, err := getEnvBool("HTTP_LEGACY_ERRORS", false)
	if err != nil {
		return nil, fmt.Errorf("invalid HTTP_LEGACY_ERRORS: %w", err)
	}

	rateLimit, err := getEnvInt("HTTP_RATE_LIMIT", 100)
	if err != nil {
		return nil, fmt.Errorf("invalid HTTP_RATE_LIMIT: %w", err)
	}

	openAIKey := getEnv("OPENAI_API_KEY", "")

	cfg := &Config{
		Server: ServerConfig{
			Host:          getEnv("SERVER_HOST", "0.0.0.0"),
			Port:          port,
			PublicBaseURL: strings.TrimRight(getEnv("PUBLIC_BASE_URL", fmt.Sprintf("http://localhost:%d", port)), "/"),
			LogLevel:      getEnv("LOG_LEVEL", "info"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       redisDB,
		},
		Storage: StorageConfig{
			Backend:     getEnv("STORAGE_BACKEND", "local"),
			Dir:         getEnv("UPLOAD_DIR", "uploads"),
			S3Endpoint:  getEnv("S3_ENDPOINT", ""),
			S3AccessKey: getEnv("S3_ACCESS_KEY", ""),
			S3SecretKey: getEnv("S3_SECRET_KEY", ""),
			S3Bucket:    getEnv("S3_BUCKET", ""),
			S3Region:    getEnv("S3_REGION", ""),
			S3UseSSL:    s3SSL,
			SupabaseURL: getEnv("SUPABASE_URL", ""),
			SupabaseKey: getEnv("SUPABASE_SERVICE_KEY", ""),
			Bucket:      getEnv("STORAGE_BUCKET", "audio"),
		},
		Upload: UploadConfig{
			UniqueKeys: uniqueKeys,
			MaxBytes:   int64(maxBytes),
		},
		STT: STTConfig{
			Backend:         getEnv("STT_BACKEND", "assemblyai"),
			AssemblyAIKey:   getEnv("ASSEMBLYAI_API_KEY", ""),
			AssemblyAIURL:   getEnv("ASSEMBLYAI_BASE_URL", "https://api.assemblyai.com"),
			PollInterval:    pollInterval,
			MaxPollAttempts: maxPolls,
			RequestTimeout:  sttTimeout,
			UploadRetries:   uploadRetries,
			OpenAIKey:       openAIKey,
			OpenAIModel:     getEnv("STT_OPENAI_MODEL", ""),
			LocalBaseURL:    getEnv("STT_LOCAL_BASE_URL", "http://localhost:8178"),
		},
		TTS: TTSConfig{
			Backend:        getEnv("TTS_BACKEND", "murf"),
			MurfKey:        getEnv("MURF_API_KEY", ""),
			MurfURL:        getEnv("MURF_BASE_URL", "https://api.murf.ai"),
			DefaultVoice:   getEnv("TTS_DEFAULT_VOICE", "en-IN-aarav"),
			RequestTimeout: ttsTimeout,
			VoicesCacheTTL: voicesTTL,
			VoicesRetries:  voicesRetries,
			OpenAIKey:      openAIKey,
			OpenAIModel:    getEnv("TTS_OPENAI_MODEL", ""),
			LocalBinPath:   getEnv("TTS_LOCAL_PIPER_BIN", "piper"),
			LocalModel:     getEnv("TTS_LOCAL_PIPER_MODEL", ""),
		},
		LLM: LLMConfig{
			Provider:       getEnv("LLM_PROVIDER", "gemini"),
			GeminiKey:      getEnv("GEMINI_API_KEY", ""),
			OpenAIKey:      openAIKey,
			AnthropicKey:   getEnv("ANTHROPIC_API_KEY", ""),
			OllamaURL:      getEnv("OLLAMA_URL", ""),
			Model:          getEnv("LLM_MODEL", getEnv("GEMINI_MODEL", "")),
			SystemPrompt:   getEnv("LLM_SYSTEM_PROMPT", ""),
			Timeout:        llmTimeout,
			Guardrails:     guardrails,
			MaxPromptChars: maxPromptChars,
		},
		Queue: QueueConfig{
			Enabled:     queueEnabled,
			ResultTTL:   resultTTL,
			TaskTimeout: taskTimeout,
			Concurrency: concurrency,
		},
		Auth: AuthConfig{
			JWTSecret: getEnv("AUTH_JWT_SECRET", ""),
		},
		HTTP: HTTPConfig{
			LegacyErrors:   legacyErrors,
			RateLimit:      rateLimit,
			AllowedOrigins: splitList(getEnv("CORS_ALLOWED_ORIGINS", "*")),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// ParseLogLevel maps LOG_LEVEL to a slog level. Unknown values mean info.
func ParseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

// Validate checks values that would otherwise fail at request time.
func (c *Config) Validate() error {
	var problems []string

	if !oneOf(c.Storage.Backend, "local", "s3", "supabase") {
		problems = append(problems, fmt.Sprintf("STORAGE_BACKEND %q", c.Storage.Backend))
	}
	if !oneOf(c.STT.Backend, "assemblyai", "openai", "local") {
		problems = append(problems, fmt.Sprintf("STT_BACKEND %q", c.STT.Backend))
	}
	if !oneOf(c.TTS.Backend, "murf", "openai", "local") {
		problems = append(problems, fmt.Sprintf("TTS_BACKEND %q", c.TTS.Backend))
	}
	if !oneOf(c.LLM.Provider, "gemini", "openai", "anthropic", "ollama") {
		problems = append(problems, fmt.Sprintf("LLM_PROVIDER %q", c.LLM.Provider))
	}
	if c.STT.PollInterval <= 0 {
		problems = append(problems, "STT_POLL_INTERVAL must be positive")
	}
	if c.STT.MaxPollAttempts < 1 {
		problems = append(problems, "STT_MAX_POLL_ATTEMPTS must be at least 1")
	}
	if c.STT.UploadRetries < 0 || c.TTS.VoicesRetries < 0 {
		problems = append(problems, "retry counts must not be negative")
	}
	if c.Upload.MaxBytes < 0 {
		problems = append(problems, "UPLOAD_MAX_BYTES must not be negative")
	}
	if c.Queue.Concurrency < 1 {
		problems = append(problems, "WORKER_CONCURRENCY must be at least 1")
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(problems, ", "))
	}
	return nil
}

func oneOf(v string, allowed ...string) bool {
	for _, a := range allowed {
		if v == a {
			return true
		}
	}
	return false
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	return strconv.Atoi(v)
}

func getEnvBool(key string, fallback bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	return strconv.ParseBool(v)
}

func getEnvDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	return time.ParseDuration(v)
}
