package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	goopenai "github.com/sashabaranov/go-openai"

	"github.com/zhouzirui/cleantech-assistant/backend/internal/config"
	chatservice "github.com/zhouzirui/cleantech-assistant/backend/internal/service/chat"
)

// ErrNoChoices is returned when the completion carries no choices.
var ErrNoChoices = errors.New("completion returned no choices")

// Responder forwards each message as a single-turn prompt to an OpenAI-compatible API.
type Responder struct {
	client *goopenai.Client
	model  string
}

// NewResponder builds a responder from configuration.
func NewResponder(cfg config.OpenAIConfig) (*Responder, error) {
	if !cfg.Enabled() {
		return nil, fmt.Errorf("OPENAI_API_KEY is required for the openai responder")
	}

	clientCfg := goopenai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}
	if cfg.Timeout > 0 {
		clientCfg.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	}

	model := cfg.Model
	if model == "" {
		model = goopenai.GPT4oMini
	}

	return &Responder{
		client: goopenai.NewClientWithConfig(clientCfg),
		model:  model,
	}, nil
}

// Name implements chat.Responder.
func (r *Responder) Name() string {
	return "openai"
}

// Model returns the fixed model identifier sent with every request.
func (r *Responder) Model() string {
	return r.model
}

// Respond implements chat.Responder.
func (r *Responder) Respond(ctx context.Context, message string) (string, error) {
	if strings.TrimSpace(message) == "" {
		return "", chatservice.ErrMessageRequired
	}

	started := time.Now()
	resp, err := r.client.CreateChatCompletion(ctx, goopenai.ChatCompletionRequest{
		Model: r.model,
		Messages: []goopenai.ChatCompletionMessage{
			{Role: goopenai.ChatMessageRoleUser, Content: message},
		},
	})
	if err != nil {
		return "", fmt.Errorf("create chat completion (model=%s, after %s): %w", r.model, time.Since(started).Round(time.Millisecond), err)
	}

	if len(resp.Choices) == 0 {
		return "", ErrNoChoices
	}

	return resp.Choices[0].Message.Content, nil
}
