package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/nikhilbhutani/voiceagent/internal/apperr"
	"github.com/nikhilbhutani/voiceagent/internal/config"
	"github.com/nikhilbhutani/voiceagent/internal/guardrails"
)

// displayNames label providers in client-facing messages.
var displayNames = map[string]string{
	"gemini":    "Gemini",
	"openai":    "OpenAI",
	"anthropic": "Anthropic",
	"ollama":    "Ollama",
}

// Responder turns a prompt into one model reply. Without a credential every
// query fails fast and the provider is never reached.
type Responder struct {
	provider   Provider
	credential string
	label      string
	model      string
	system     string
	timeout    time.Duration
	guard      InputGuard
}

// InputGuard vets a prompt before it is sent to the provider.
type InputGuard interface {
	Allow(ctx context.Context, text string) error
}

type ResponderOptions struct {
	// Credential is the API key (or endpoint, for Ollama) p was built with.
	Credential   string
	Model        string
	SystemPrompt string
	Timeout      time.Duration
	Guard        InputGuard
}

// NewResponder wraps p. name selects the label used in client-facing messages.
func NewResponder(name string, p Provider, opts ResponderOptions) *Responder {
	label, ok := displayNames[name]
	if !ok {
		label = name
	}
	model := opts.Model
	if model == "" && p != nil {
		model = p.DefaultModel()
	}
	return &Responder{
		provider:   p,
		credential: opts.Credential,
		label:      label,
		model:      model,
		system:     opts.SystemPrompt,
		timeout:    opts.Timeout,
		guard:      opts.Guard,
	}
}

// NewResponderFromConfig selects the provider named by cfg.Provider. Missing
// credentials are not an error here; they surface on the first Query.
func NewResponderFromConfig(ctx context.Context, cfg config.LLMConfig) (*Responder, error) {
	var p Provider
	var credential string
	switch cfg.Provider {
	case "gemini":
		credential = cfg.GeminiKey
		if credential != "" {
			g, err := NewGeminiProvider(ctx, credential, "")
			if err != nil {
				return nil, err
			}
			p = g
		}
	case "openai":
		credential = cfg.OpenAIKey
		p = NewOpenAIProvider(credential, "")
	case "anthropic":
		credential = cfg.AnthropicKey
		p = NewAnthropicProvider(credential)
	case "ollama":
		credential = cfg.OllamaURL
		p = NewOllamaProvider(credential)
	default:
		return nil, fmt.Errorf("unknown LLM provider %q", cfg.Provider)
	}

	opts := ResponderOptions{
		Credential:   credential,
		Model:        cfg.Model,
		SystemPrompt: cfg.SystemPrompt,
		Timeout:      cfg.Timeout,
	}
	if cfg.Guardrails {
		opts.Guard = guardrails.DefaultPipeline(cfg.MaxPromptChars)
	}
	return NewResponder(cfg.Provider, p, opts), nil
}

func (r *Responder) Name() string {
	if r.provider == nil {
		return strings.ToLower(r.label)
	}
	return r.provider.Name()
}

// Query sends prompt as a single user turn and returns the reply text.
func (r *Responder) Query(ctx context.Context, prompt string) (string, error) {
	if r.credential == "" || r.provider == nil {
		msg := r.label + " API key not configured."
		if r.label == "Ollama" {
			msg = "Ollama URL not configured."
		}
		return "", apperr.Wrap(apperr.KindNotConfigured, "llm.query", ErrNotConfigured, msg)
	}
	if strings.TrimSpace(prompt) == "" {
		return "", apperr.New(apperr.KindInvalidInput, "llm.query", "Text is required.")
	}
	if r.guard != nil {
		if err := r.guard.Allow(ctx, prompt); err != nil {
			return "", err
		}
	}

	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	msgs := make([]Message, 0, 2)
	if r.system != "" {
		msgs = append(msgs, Message{Role: "system", Content: r.system})
	}
	msgs = append(msgs, Message{Role: "user", Content: prompt})

	resp, err := r.provider.ChatCompletion(ctx, ChatRequest{Model: r.model, Messages: msgs})
	if err != nil {
		kind := apperr.KindUpstreamUnavailable
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			kind = apperr.KindTimeout
		}
		return "", apperr.Wrap(kind, "llm.query", fmt.Errorf("%w: %w", ErrProviderFailed, err),
			fmt.Sprintf("Failed to generate response from %s: %v", r.label, err))
	}

	slog.Debug("llm response",
		"provider", resp.Provider,
		"model", r.model,
		"finish_reason", resp.FinishReason,
		"input_tokens", resp.InputTokens,
		"output_tokens", resp.OutputTokens,
		"cost_usd", resp.CostUSD,
		"latency_ms", resp.LatencyMs,
	)
	return resp.Content, nil
}
