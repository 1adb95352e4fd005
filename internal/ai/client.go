// AngelaMos | 2026
// client.go

package ai

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
	"go.opentelemetry.io/otel/attribute"

	"github.com/carterperez-dev/medprep/internal/config"
	"github.com/carterperez-dev/medprep/internal/core"
)

const (
	DefaultModel       = "gpt-4o-mini"
	DefaultTimeout     = 60 * time.Second
	DefaultTemperature = 0.7
	DefaultMaxTokens   = 2048
)

type OpenAIClient struct {
	client      *openai.Client
	model       string
	timeout     time.Duration
	temperature float32
	maxTokens   int
}

// NewClient returns the provider-backed client, or a disabled client when
// no API key is configured.
func NewClient(cfg config.AIConfig) Client {
	if cfg.APIKey == "" {
		return disabledClient{}
	}
	return NewOpenAIClient(cfg)
}

func NewOpenAIClient(cfg config.AIConfig) *OpenAIClient {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}

	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.Temperature == 0 {
		cfg.Temperature = DefaultTemperature
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = DefaultMaxTokens
	}

	return &OpenAIClient{
		client:      openai.NewClientWithConfig(clientCfg),
		model:       cfg.Model,
		timeout:     cfg.Timeout,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
	}
}

func (c *OpenAIClient) Complete(
	ctx context.Context,
	req Request,
) (*Completion, error) {
	ctx, span := core.StartSpan(ctx, "ai.complete",
		attribute.String("ai.model", c.model),
		attribute.Bool("ai.structured", req.Structured),
		attribute.Int("ai.history_len", len(req.History)),
	)
	defer span.End()

	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.client.CreateChatCompletion(callCtx, c.buildRequest(req))
	if err != nil {
		core.SetSpanError(ctx, err)
		return nil, fmt.Errorf("%w: %s", core.ErrGenerationFailed, describeProviderError(err))
	}

	if len(resp.Choices) == 0 {
		err := fmt.Errorf("%w: provider returned no choices", core.ErrGenerationFailed)
		core.SetSpanError(ctx, err)
		return nil, err
	}

	choice := resp.Choices[0]
	completion := &Completion{
		Text:         strings.TrimSpace(choice.Message.Content),
		Units:        resp.Usage.TotalTokens,
		Model:        resp.Model,
		FinishReason: string(choice.FinishReason),
	}
	span.SetAttributes(attribute.Int("ai.units", completion.Units))

	if req.Structured {
		text, err := extractJSON(completion.Text)
		if err != nil {
			core.SetSpanError(ctx, err)
			return nil, err
		}
		completion.Text = text
	}

	return completion, nil
}

func (c *OpenAIClient) buildRequest(req Request) openai.ChatCompletionRequest {
	messages := make([]openai.ChatCompletionMessage, 0, len(req.History)+2)

	if req.System != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: req.System,
		})
	}

	for _, m := range req.History {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    providerRole(m.Role),
			Content: m.Text,
		})
	}

	if req.Prompt != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleUser,
			Content: req.Prompt,
		})
	}

	temperature := req.Temperature
	if temperature == 0 {
		temperature = c.temperature
	}
	if temperature < 0 {
		temperature = math.SmallestNonzeroFloat32
	}

	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = c.maxTokens
	}

	out := openai.ChatCompletionRequest{
		Model:       c.model,
		Messages:    messages,
		Temperature: temperature,
		MaxTokens:   maxTokens,
	}

	if req.Structured {
		out.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}

	return out
}

func providerRole(r Role) string {
	switch r {
	case RoleAssistant:
		return openai.ChatMessageRoleAssistant
	case RoleSystem:
		return openai.ChatMessageRoleSystem
	default:
		return openai.ChatMessageRoleUser
	}
}

func describeProviderError(err error) string {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return fmt.Sprintf("provider status %d: %s", apiErr.HTTPStatusCode, apiErr.Message)
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return fmt.Sprintf("provider status %d", reqErr.HTTPStatusCode)
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return "provider call timed out"
	}

	return err.Error()
}

// Ping confirms the provider accepts the API key.
func (c *OpenAIClient) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if _, err := c.client.ListModels(ctx); err != nil {
		return fmt.Errorf("ai ping: %s", describeProviderError(err))
	}
	return nil
}

type disabledClient struct{}

func (disabledClient) Complete(context.Context, Request) (*Completion, error) {
	return nil, core.ErrAIUnavailable
}

func (disabledClient) Ping(context.Context) error {
	return core.ErrAIUnavailable
}
