package analytics

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"northwind-chat/internal/types"
)

type LLMOptions struct {
	System      string
	Temperature float32
	MaxTokens   int
	Timeout     time.Duration
}

// LLMService answers questions directly from an OpenAI-compatible endpoint
// (OpenAI, Groq, a local server). Replies are always plain text.
type LLMService struct {
	client *openai.Client
	model  string
	opts   LLMOptions
}

func NewLLMService(apiKey, baseURL, model string, opts LLMOptions) *LLMService {
	cfg := openai.DefaultConfig(apiKey)
	if strings.TrimSpace(baseURL) != "" {
		cfg.BaseURL = strings.TrimRight(baseURL, "/")
	}
	if opts.Temperature <= 0 {
		opts.Temperature = 0.2
	}
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = 600
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 60 * time.Second
	}
	return &LLMService{client: openai.NewClientWithConfig(cfg), model: model, opts: opts}
}

// Ask returns the answer wrapped in the analytics reply shape so it flows
// through the same normalization as service replies.
func (s *LLMService) Ask(ctx context.Context, message string) ([]byte, error) {
	messages := []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleUser, Content: message},
	}
	if s.opts.System != "" {
		messages = append([]openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: s.opts.System},
		}, messages...)
	}

	ctx, cancel := context.WithTimeout(ctx, s.opts.Timeout)
	defer cancel()
	resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       s.model,
		Temperature: s.opts.Temperature,
		MaxTokens:   s.opts.MaxTokens,
		Messages:    messages,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTransport, err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("%w: no choices", ErrStatus)
	}
	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		return nil, fmt.Errorf("%w: empty completion", ErrStatus)
	}
	return json.Marshal(types.ChatResponse{Response: text, VisualizationType: "text"})
}
