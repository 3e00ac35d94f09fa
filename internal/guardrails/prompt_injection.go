package guardrails

import (
	"context"
	"strings"
)

type injectionPattern struct {
	pattern string
	weight  float64
	flag    string
}

var injectionPatterns = []injectionPattern{
	{"ignore previous instructions", 0.9, "override_attempt"},
	{"ignore all previous", 0.9, "override_attempt"},
	{"disregard your instructions", 0.9, "override_attempt"},
	{"forget your instructions", 0.85, "override_attempt"},
	{"you are now", 0.7, "role_hijack"},
	{"pretend you are", 0.7, "role_hijack"},
	{"act as if you", 0.6, "role_hijack"},
	{"system prompt:", 0.8, "system_leak"},
	{"reveal your system", 0.8, "system_leak"},
	{"show me your prompt", 0.8, "system_leak"},
	{"what are your instructions", 0.7, "system_leak"},
	{"ignore safety", 0.9, "safety_bypass"},
	{"bypass your filters", 0.9, "safety_bypass"},
	{"jailbreak", 0.9, "jailbreak"},
	{"dan mode", 0.9, "jailbreak"},
	{"do anything now", 0.85, "jailbreak"},
	{"</system>", 0.8, "tag_injection"},
	{"<system>", 0.8, "tag_injection"},
	{"[system]", 0.7, "tag_injection"},
	{"### instruction", 0.6, "format_injection"},
	{"```system", 0.7, "format_injection"},
}

// PromptInjectionDetector scores a prompt against known override and
// jailbreak phrasings. Prompts scoring at or above threshold are blocked.
type PromptInjectionDetector struct {
	threshold float64
}

func NewPromptInjectionDetector(threshold float64) *PromptInjectionDetector {
	return &PromptInjectionDetector{threshold: threshold}
}

func (d *PromptInjectionDetector) Name() string { return "prompt_injection" }

func (d *PromptInjectionDetector) Check(_ context.Context, text string) (*Result, error) {
	score, flags := score(text)
	if score >= d.threshold && score > 0 {
		return &Result{
			Reason: "potential prompt injection detected",
			Flags:  flags,
			Score:  score,
		}, nil
	}
	return &Result{Allowed: true, Flags: flags, Score: score}, nil
}

// score returns the highest matching weight and every matched flag.
func score(text string) (float64, []string) {
	lower := normalize(text)
	var flags []string
	best := 0.0
	for _, p := range injectionPatterns {
		if strings.Contains(lower, p.pattern) {
			if p.weight > best {
				best = p.weight
			}
			flags = append(flags, p.flag)
		}
	}
	return best, flags
}
