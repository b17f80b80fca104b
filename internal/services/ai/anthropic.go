package ai

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/anthropic"
	"go.uber.org/zap"
)

// DefaultAnthropicMaxTokens bounds a single completion
const DefaultAnthropicMaxTokens = 4096

// AnthropicProvider implements ChatProvider using the Anthropic API via
// langchaingo. One client serves every Anthropic model in the catalog;
// the model is selected per call.
type AnthropicProvider struct {
	llm       *anthropic.LLM
	logger    *zap.Logger
	debugMode bool
}

// NewAnthropicProvider creates a new Anthropic provider
func NewAnthropicProvider(apiKey string, logger *zap.Logger, debugMode bool) (*AnthropicProvider, error) {
	llm, err := anthropic.New(anthropic.WithToken(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create anthropic client: %w", err)
	}

	return &AnthropicProvider{
		llm:       llm,
		logger:    logger,
		debugMode: debugMode,
	}, nil
}

// StreamChat streams a completion for the thread history
func (p *AnthropicProvider) StreamChat(ctx context.Context, modelName string, history []ChatMessage, onDelta DeltaFunc) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, DefaultChatTimeout)
	defer cancel()

	content := make([]llms.MessageContent, 0, len(history))
	for _, m := range history {
		role := llms.ChatMessageTypeHuman
		if m.Role == "assistant" {
			role = llms.ChatMessageTypeAI
		}
		content = append(content, llms.TextParts(role, m.Content))
	}

	if p.debugMode && p.logger != nil {
		p.logger.Debug("anthropic_chat_request",
			zap.String("model", modelName),
			zap.Int("history_len", len(history)),
		)
	}

	resp, err := p.llm.GenerateContent(ctx, content,
		llms.WithModel(modelName),
		llms.WithMaxTokens(DefaultAnthropicMaxTokens),
		llms.WithStreamingFunc(func(ctx context.Context, chunk []byte) error {
			if len(chunk) == 0 {
				return nil
			}
			return onDelta(string(chunk))
		}),
	)
	if err != nil {
		return "", fmt.Errorf("anthropic completion failed: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no choices in response")
	}

	return resp.Choices[0].Content, nil
}
