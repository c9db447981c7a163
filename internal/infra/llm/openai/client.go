package openai

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/rotisserie/eris"
	openai "github.com/sashabaranov/go-openai"

	"github.com/tokenrisk/scanner/internal/domain/llm"
)

const maxTokens = 4096

// Client wraps go-openai's client against a configurable, OpenAI-compatible
// base URL so the default Base-network gateway model id can be served by
// any compatible endpoint, not just OpenAI's own.
type Client struct {
	raw *openai.Client
}

// New builds a Client. baseURL may be empty to use OpenAI's default.
func New(apiKey, baseURL string) *Client {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	cfg.HTTPClient = &http.Client{}
	return &Client{raw: openai.NewClientWithConfig(cfg)}
}

// Complete implements llm.Client: one JSON-object-constrained chat
// completion call against the named model.
func (c *Client) Complete(ctx context.Context, model, systemPrompt, userPrompt string) (string, error) {
	req := openai.ChatCompletionRequest{
		Model:       model,
		Temperature: 0,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		MaxTokens: maxTokens,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: userPrompt},
		},
	}

	resp, err := c.raw.CreateChatCompletion(ctx, req)
	if err != nil {
		if isQuotaError(err) {
			return "", llm.ErrQuotaExceeded
		}
		return "", eris.Wrap(err, "llm chat completion")
	}

	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return "", llm.ErrNoOutput
	}

	return resp.Choices[0].Message.Content, nil
}

func isQuotaError(err error) bool {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode == http.StatusTooManyRequests
	}
	return strings.Contains(strings.ToLower(err.Error()), "rate limit") || strings.Contains(strings.ToLower(err.Error()), "quota")
}
