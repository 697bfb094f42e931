package llm

import (
	"context"
	"errors"

	"github.com/rotisserie/eris"
	"google.golang.org/genai"

	"github.com/wayfare-group/trip-planner-cli/internal/model"
	"github.com/wayfare-group/trip-planner-cli/internal/resilience"
)

// GeminiOption configures the Gemini generator.
type GeminiOption func(*Gemini)

// WithGeminiHTTPOptions overrides the SDK transport options, mainly so
// tests can point the client at a local server.
func WithGeminiHTTPOptions(opts genai.HTTPOptions) GeminiOption {
	return func(g *Gemini) {
		g.httpOptions = &opts
	}
}

// Gemini generates text through the Gemini API.
type Gemini struct {
	client      *genai.Client
	model       string
	httpOptions *genai.HTTPOptions
}

// NewGemini creates a Gemini generator for the given model.
func NewGemini(ctx context.Context, apiKey, modelName string, opts ...GeminiOption) (*Gemini, error) {
	g := &Gemini{model: modelName}
	for _, opt := range opts {
		opt(g)
	}

	cfg := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	if g.httpOptions != nil {
		cfg.HTTPOptions = *g.httpOptions
	}

	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, eris.Wrap(err, "llm: create gemini client")
	}
	g.client = client
	return g, nil
}

func (g *Gemini) Name() string { return "gemini" }

// Generate runs a single-turn completion against the configured model.
func (g *Gemini) Generate(ctx context.Context, req Request) (string, error) {
	cfg := &genai.GenerateContentConfig{}
	if req.Temperature != nil {
		cfg.Temperature = genai.Ptr[float32](*req.Temperature)
	}
	if req.MaxTokens > 0 {
		cfg.MaxOutputTokens = int32(req.MaxTokens)
	}
	if req.System != "" {
		cfg.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{{Text: req.System}},
		}
	}

	result, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(req.Prompt), cfg)
	if err != nil {
		return "", classifyGemini(err)
	}

	text := result.Text()
	if text == "" {
		return "", model.NewProviderError("gemini", model.ErrMalformedResponse,
			eris.New("llm: gemini returned no text candidates"))
	}
	return text, nil
}

// classifyGemini maps SDK errors onto the provider error taxonomy. API
// errors carry the HTTP status; anything else goes through the generic
// transport classifier.
func classifyGemini(err error) *model.ProviderError {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		kind := resilience.ClassifyHTTPStatus(apiErr.Code)
		return model.NewProviderError("gemini", kind, err)
	}
	return resilience.Classify("gemini", err)
}
