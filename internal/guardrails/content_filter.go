package guardrails

import (
	"context"
	"sort"
	"strings"
)

// ContentFilter blocks requests for harmful instructions using keyword
// heuristics.
type ContentFilter struct {
	blocked map[string][]string
}

func NewContentFilter() *ContentFilter {
	return &ContentFilter{
		blocked: map[string][]string{
			"violence": {
				"how to make a bomb", "how to make explosives",
				"how to harm", "how to kill",
			},
			"illegal": {
				"how to hack into", "how to steal",
				"how to counterfeit", "how to forge",
			},
			"malware": {
				"write malware", "create a virus",
				"write ransomware", "create a trojan",
			},
		},
	}
}

func (f *ContentFilter) Name() string { return "content_filter" }

func (f *ContentFilter) Check(_ context.Context, text string) (*Result, error) {
	lower := normalize(text)

	categories := make([]string, 0, len(f.blocked))
	for c := range f.blocked {
		categories = append(categories, c)
	}
	sort.Strings(categories)

	for _, category := range categories {
		for _, p := range f.blocked[category] {
			if strings.Contains(lower, p) {
				return &Result{
					Reason: "content policy violation (" + category + ")",
					Flags:  []string{"blocked_" + category},
					Score:  1,
				}, nil
			}
		}
	}
	return &Result{Allowed: true}, nil
}
