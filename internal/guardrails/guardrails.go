package guardrails

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/nikhilbhutani/voiceagent/internal/apperr"
)

// Result holds the outcome of a single check.
type Result struct {
	Allowed bool
	Flags   []string
	Score   float64
	Reason  string
}

// Guardrail is one check applied to a prompt before it is sent upstream.
type Guardrail interface {
	Check(ctx context.Context, text string) (*Result, error)
	Name() string
}

// Pipeline chains guardrails. The first blocking check wins.
type Pipeline struct {
	guards []Guardrail
}

func NewPipeline(guards ...Guardrail) *Pipeline {
	return &Pipeline{guards: guards}
}

// DefaultPipeline screens for oversized prompts, injection phrasing and
// blocked content, in that order.
func DefaultPipeline(maxChars int) *Pipeline {
	if maxChars <= 0 {
		maxChars = 50000
	}
	return NewPipeline(
		NewInputLengthGuard(maxChars),
		NewPromptInjectionDetector(0.7),
		NewContentFilter(),
	)
}

// Allow returns nil when every guardrail passes text, and an invalid-input
// error naming the blocking check otherwise.
func (p *Pipeline) Allow(ctx context.Context, text string) error {
	for _, g := range p.guards {
		res, err := g.Check(ctx, text)
		if err != nil {
			return fmt.Errorf("guardrail %s: %w", g.Name(), err)
		}
		if res.Allowed {
			continue
		}
		slog.Warn("prompt blocked", "guardrail", g.Name(), "flags", res.Flags, "score", res.Score)
		return apperr.New(apperr.KindInvalidInput, "guardrails."+g.Name(), "Request blocked: "+res.Reason+".")
	}
	return nil
}

// InputLengthGuard rejects prompts longer than maxLength runes.
type InputLengthGuard struct {
	maxLength int
}

func NewInputLengthGuard(maxLen int) *InputLengthGuard {
	return &InputLengthGuard{maxLength: maxLen}
}

func (g *InputLengthGuard) Name() string { return "input_length" }

func (g *InputLengthGuard) Check(_ context.Context, text string) (*Result, error) {
	if len([]rune(text)) > g.maxLength {
		return &Result{
			Reason: fmt.Sprintf("input exceeds %d characters", g.maxLength),
			Flags:  []string{"input_too_long"},
		}, nil
	}
	return &Result{Allowed: true}, nil
}

func normalize(text string) string {
	return strings.Join(strings.Fields(strings.ToLower(text)), " ")
}
