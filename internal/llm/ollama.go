package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// OllamaProvider talks to a self-hosted Ollama server. The model is kept
// loaded between turns so spoken replies do not pay a cold start.
type OllamaProvider struct {
	baseURL    string
	keepAlive  string
	httpClient *http.Client
}

func NewOllamaProvider(baseURL string) *OllamaProvider {
	return &OllamaProvider{
		baseURL:    strings.TrimRight(baseURL, "/"),
		keepAlive:  "10m",
		httpClient: &http.Client{Timeout: 5 * time.Minute},
	}
}

func (p *OllamaProvider) Name() string { return "ollama" }

func (p *OllamaProvider) DefaultModel() string { return "llama3" }

// ollamaChat is both the /api/chat request and its non-streamed reply.
type ollamaChat struct {
	Model     string         `json:"model"`
	Messages  []Message      `json:"messages,omitempty"`
	Stream    bool           `json:"stream"`
	KeepAlive string         `json:"keep_alive,omitempty"`
	Options   map[string]any `json:"options,omitempty"`
	Message   *Message       `json:"message,omitempty"`
	Reason    string         `json:"done_reason,omitempty"`
	Prompt    int            `json:"prompt_eval_count,omitempty"`
	Eval      int            `json:"eval_count,omitempty"`
	Error     string         `json:"error,omitempty"`
}

func (p *OllamaProvider) ChatCompletion(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	start := time.Now()

	chat := ollamaChat{Model: req.Model, Messages: req.Messages, KeepAlive: p.keepAlive}
	if req.Temperature > 0 || req.MaxTokens > 0 {
		chat.Options = map[string]any{}
		if req.Temperature > 0 {
			chat.Options["temperature"] = req.Temperature
		}
		if req.MaxTokens > 0 {
			chat.Options["num_predict"] = req.MaxTokens
		}
	}

	data, err := json.Marshal(chat)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/api/chat", bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("ollama request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("ollama chat: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("ollama read: %w", err)
	}

	var reply ollamaChat
	decodeErr := json.Unmarshal(body, &reply)
	if resp.StatusCode != http.StatusOK {
		detail := strings.TrimSpace(string(body))
		if decodeErr == nil && reply.Error != "" {
			detail = reply.Error
		}
		return nil, fmt.Errorf("ollama chat failed (status %d): %s", resp.StatusCode, detail)
	}
	if decodeErr != nil {
		return nil, fmt.Errorf("ollama decode: %w", decodeErr)
	}
	if reply.Message == nil {
		return nil, errors.New("ollama chat returned no message")
	}

	return &ChatResponse{
		Provider:     p.Name(),
		Model:        req.Model,
		Content:      reply.Message.Content,
		FinishReason: reply.Reason,
		InputTokens:  reply.Prompt,
		OutputTokens: reply.Eval,
		LatencyMs:    time.Since(start).Milliseconds(),
	}, nil
}
