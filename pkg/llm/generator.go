// Package llm provides text-generation clients for the providers the
// planning pipeline uses. All implementations satisfy Generator so the
// fallback chain can treat them interchangeably.
package llm

import (
	"context"
	"strings"
)

// Request is a single-turn generation request.
type Request struct {
	// System is an optional system prompt.
	System string
	// Prompt is the user prompt.
	Prompt string
	// Temperature overrides the provider default when non-nil.
	Temperature *float32
	// MaxTokens caps the response length. Zero means provider default.
	MaxTokens int64
}

// Generator produces text completions from a single provider.
type Generator interface {
	// Name identifies the provider ("gemini", "anthropic").
	Name() string
	// Generate returns the completion text for the request. Errors are
	// classified as *model.ProviderError so callers can decide whether
	// to fall through to the next provider.
	Generate(ctx context.Context, req Request) (string, error)
}

// ExtractJSON strips markdown code fences from a model response so the
// remainder can be passed to json.Unmarshal. Models frequently wrap JSON
// in ```json ... ``` despite instructions not to.
func ExtractJSON(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	// Drop a language tag like "json" on the fence line.
	if idx := strings.IndexByte(s, '\n'); idx >= 0 {
		first := strings.TrimSpace(s[:idx])
		if first == "" || !strings.ContainsAny(first, "{[") {
			s = s[idx+1:]
		}
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
