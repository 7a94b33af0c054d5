package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
	"github.com/rs/zerolog/log"

	"github.com/zhouzirui/cleantech-assistant/backend/internal/config"
	chatservice "github.com/zhouzirui/cleantech-assistant/backend/internal/service/chat"
)

// ErrEmptyCompletion is returned when the model produced no message.
var ErrEmptyCompletion = errors.New("model returned an empty message")

// Service answers chat turns through an eino chain backed by an Ark chat model.
type Service struct {
	modelName string
	chain     compose.Runnable[map[string]any, *schema.Message]
}

// NewService creates the Ark-backed service from configuration.
func NewService(ctx context.Context, cfg config.AIConfig) (*Service, error) {
	chatModel, err := cfg.NewChatModel(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create chat model: %w", err)
	}
	return NewServiceWithModel(ctx, cfg.Model, chatModel)
}

// NewServiceWithModel compiles the single-turn chain around an existing chat model.
func NewServiceWithModel(ctx context.Context, modelName string, chatModel model.BaseChatModel) (*Service, error) {
	// 单轮对话：只有一条用户消息，不携带历史。
	promptTemplate := prompt.FromMessages(
		schema.FString,
		schema.UserMessage("{query}"),
	)

	chain := compose.NewChain[map[string]any, *schema.Message]()
	chain.AppendChatTemplate(promptTemplate)
	chain.AppendChatModel(chatModel)

	runnable, err := chain.Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compile chat chain: %w", err)
	}

	return &Service{
		modelName: modelName,
		chain:     runnable,
	}, nil
}

// Name implements chat.Responder.
func (s *Service) Name() string {
	return "ark"
}

// Respond implements chat.Responder.
func (s *Service) Respond(ctx context.Context, message string) (string, error) {
	if strings.TrimSpace(message) == "" {
		return "", chatservice.ErrMessageRequired
	}

	response, err := s.chain.Invoke(ctx, map[string]any{"query": message})
	if err != nil {
		return "", fmt.Errorf("failed to run AI chain: %w", err)
	}
	if response == nil {
		return "", ErrEmptyCompletion
	}

	log.Debug().
		Str("component", "ai").
		Str("model", s.modelName).
		Int("length", len(response.Content)).
		Msg("generated response")
	return response.Content, nil
}
