// Package openai relays prompts to the upstream chat-completion service.
// Text chat goes through the client library; the audio call uses the
// Responses API directly since the library does not cover it.
package openai

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	oai "github.com/sashabaranov/go-openai"

	"github.com/scentlab/avatar-relay/internal/core"
)

type Client struct {
	api     *oai.Client
	baseURL string
	apiKey  string
	// The audio call carries a whole recording and gets the long budget.
	audioHTTP *http.Client
	log       zerolog.Logger
}

// NewClient wires both transports against the same base URL, e.g.
// "https://api.openai.com/v1".
func NewClient(apiKey, baseURL string, logger zerolog.Logger) *Client {
	cfg := oai.DefaultConfig(apiKey)
	cfg.BaseURL = strings.TrimSuffix(baseURL, "/")
	cfg.HTTPClient = &http.Client{Timeout: 60 * time.Second}
	return &Client{
		api:       oai.NewClientWithConfig(cfg),
		baseURL:   cfg.BaseURL,
		apiKey:    apiKey,
		audioHTTP: &http.Client{Timeout: 120 * time.Second},
		log:       logger.With().Str("module", "adapters.openai").Logger(),
	}
}

// Complete performs one chat-completion round trip and returns the first
// choice's message text, empty string when the upstream returns no choices.
func (c *Client) Complete(ctx context.Context, req core.ChatRequest) (string, error) {
	var messages []oai.ChatCompletionMessage
	if req.System != "" {
		messages = append(messages, oai.ChatCompletionMessage{Role: oai.ChatMessageRoleSystem, Content: req.System})
	}
	messages = append(messages, oai.ChatCompletionMessage{Role: oai.ChatMessageRoleUser, Content: req.User})

	resp, err := c.api.CreateChatCompletion(ctx, oai.ChatCompletionRequest{
		Model:       req.Model,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
		Messages:    messages,
	})
	if err != nil {
		return "", wrapAPIError(err)
	}
	if len(resp.Choices) == 0 {
		return "", nil
	}
	reply := strings.TrimSpace(resp.Choices[0].Message.Content)
	c.log.Info().Int("reply_len", len(reply)).Msg("chat completion ok")
	return reply, nil
}

// wrapAPIError converts library errors into the shared gateway-error shape
// so handlers can surface upstream status and body.
func wrapAPIError(err error) error {
	var apiErr *oai.APIError
	if errors.As(err, &apiErr) {
		return &core.UpstreamError{Service: "openai", Status: apiErr.HTTPStatusCode, Body: apiErr.Message}
	}
	var reqErr *oai.RequestError
	if errors.As(err, &reqErr) {
		return &core.UpstreamError{Service: "openai", Status: reqErr.HTTPStatusCode, Body: reqErr.Error()}
	}
	return err
}
