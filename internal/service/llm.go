package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"
)

// ChatClient is the language-model side of the pipeline.
type ChatClient interface {
	Chat(ctx context.Context, msgs []openai.ChatCompletionMessage) (string, error)
}

// LLMClient talks to an OpenAI-compatible chat endpoint (LM Studio, Ollama,
// OpenAI proper).
type LLMClient struct {
	client *openai.Client
	model  string
}

func NewLLMClient(baseURL, apiKey, chatModel string) *LLMClient {
	cfg := openai.DefaultConfig(apiKey)
	cfg.BaseURL = baseURL
	return &LLMClient{
		client: openai.NewClientWithConfig(cfg),
		model:  chatModel,
	}
}

func (l *LLMClient) Chat(ctx context.Context, msgs []openai.ChatCompletionMessage) (string, error) {
	resp, err := l.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       l.model,
		Messages:    msgs,
		Temperature: 0.2,
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("chat completion: empty response")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

// ListModels proxies the upstream model list, handy for picking a chat model
// against a local runtime.
func (l *LLMClient) ListModels(ctx context.Context) ([]openai.Model, error) {
	resp, err := l.client.ListModels(ctx)
	if err != nil {
		return nil, fmt.Errorf("list models: %w", err)
	}
	return resp.Models, nil
}
