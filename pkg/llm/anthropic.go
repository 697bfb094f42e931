package llm

import (
	"context"
	"errors"
	"strings"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/rotisserie/eris"

	"github.com/wayfare-group/trip-planner-cli/internal/model"
	"github.com/wayfare-group/trip-planner-cli/internal/resilience"
)

const defaultAnthropicMaxTokens = 2048

// AnthropicOption configures the Anthropic generator.
type AnthropicOption func(*Anthropic)

// WithAnthropicRequestOptions passes extra options to the underlying SDK
// client, mainly so tests can redirect it at a local server.
func WithAnthropicRequestOptions(opts ...option.RequestOption) AnthropicOption {
	return func(a *Anthropic) {
		a.sdkOpts = append(a.sdkOpts, opts...)
	}
}

// Anthropic generates text through the Anthropic Messages API.
type Anthropic struct {
	client  sdk.Client
	model   string
	sdkOpts []option.RequestOption
}

// NewAnthropic creates an Anthropic generator for the given model.
func NewAnthropic(apiKey, modelName string, opts ...AnthropicOption) *Anthropic {
	a := &Anthropic{model: modelName}
	for _, opt := range opts {
		opt(a)
	}
	sdkOpts := append([]option.RequestOption{option.WithAPIKey(apiKey)}, a.sdkOpts...)
	a.client = sdk.NewClient(sdkOpts...)
	return a
}

func (a *Anthropic) Name() string { return "anthropic" }

// Generate runs a single-turn completion against the configured model.
func (a *Anthropic) Generate(ctx context.Context, req Request) (string, error) {
	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultAnthropicMaxTokens
	}

	params := sdk.MessageNewParams{
		Model:     sdk.Model(a.model),
		MaxTokens: maxTokens,
		Messages: []sdk.MessageParam{
			sdk.NewUserMessage(sdk.NewTextBlock(req.Prompt)),
		},
	}
	if req.System != "" {
		params.System = []sdk.TextBlockParam{{Text: req.System}}
	}
	if req.Temperature != nil {
		params.Temperature = sdk.Float(float64(*req.Temperature))
	}

	msg, err := a.client.Messages.New(ctx, params)
	if err != nil {
		return "", classifyAnthropic(err)
	}

	var sb strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	text := sb.String()
	if text == "" {
		return "", model.NewProviderError("anthropic", model.ErrMalformedResponse,
			eris.New("llm: anthropic returned no text blocks"))
	}
	return text, nil
}

// classifyAnthropic maps SDK errors onto the provider error taxonomy. API
// errors carry the HTTP status; anything else goes through the generic
// transport classifier.
func classifyAnthropic(err error) *model.ProviderError {
	var apiErr *sdk.Error
	if errors.As(err, &apiErr) {
		kind := resilience.ClassifyHTTPStatus(apiErr.StatusCode)
		return model.NewProviderError("anthropic", kind, err)
	}
	return resilience.Classify("anthropic", err)
}
