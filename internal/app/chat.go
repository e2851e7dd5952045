package app

import (
	"context"
	"strings"

	"github.com/scentlab/avatar-relay/internal/core"
)

const chatModel = "gpt-4o-mini"

// ChatService relays free-text prompts to the chat-completion upstream.
type ChatService struct {
	chat core.ChatCompleter
}

func NewChatService(chat core.ChatCompleter) *ChatService {
	return &ChatService{chat: chat}
}

// Reply answers a generic prompt with the plain assistant persona.
func (s *ChatService) Reply(ctx context.Context, text string) (string, error) {
	return s.chat.Complete(ctx, core.ChatRequest{
		Model:       chatModel,
		System:      "You are a helpful, concise assistant.",
		User:        strings.TrimSpace(text),
		Temperature: 0.6,
		MaxTokens:   800,
	})
}

// ExplainProduct answers with the scripted perfume persona.
func (s *ChatService) ExplainProduct(ctx context.Context, name string) (string, error) {
	return s.chat.Complete(ctx, core.ChatRequest{
		Model:       chatModel,
		System:      PerfumeSystemPrompt(),
		User:        "Explain about the perfume " + strings.TrimSpace(name) + ".",
		Temperature: 0.5,
		MaxTokens:   700,
	})
}

// Hello is the upstream smoke test behind /api/hello.
func (s *ChatService) Hello(ctx context.Context) (string, error) {
	return s.chat.Complete(ctx, core.ChatRequest{
		Model:     chatModel,
		User:      "Hello",
		MaxTokens: 64,
	})
}
