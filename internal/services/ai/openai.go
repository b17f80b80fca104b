package ai

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/shared"
	"go.uber.org/zap"
)

const (
	// DefaultOpenAIBaseURL is the default OpenAI API base URL
	DefaultOpenAIBaseURL = "https://api.openai.com/v1"
	// DefaultChatTimeout bounds a full streamed completion
	DefaultChatTimeout = 120 * time.Second
	// DefaultImageTimeout bounds an image generation call
	DefaultImageTimeout = 180 * time.Second
)

// OpenAIProvider implements ChatProvider and ImageProvider using the
// OpenAI API
type OpenAIProvider struct {
	client    openai.Client
	logger    *zap.Logger
	debugMode bool
}

// NewOpenAIProvider creates a new OpenAI provider
func NewOpenAIProvider(apiKey string) *OpenAIProvider {
	return NewOpenAIProviderWithLogger(apiKey, DefaultOpenAIBaseURL, nil, false)
}

// NewOpenAIProviderWithLogger creates a new OpenAI provider with logger support
func NewOpenAIProviderWithLogger(apiKey string, baseURL string, logger *zap.Logger, debugMode bool) *OpenAIProvider {
	if baseURL == "" {
		baseURL = DefaultOpenAIBaseURL
	}

	httpClient := &http.Client{
		Timeout: DefaultImageTimeout,
	}

	client := openai.NewClient(
		option.WithAPIKey(apiKey),
		option.WithBaseURL(baseURL),
		option.WithHTTPClient(httpClient),
	)

	return &OpenAIProvider{
		client:    client,
		logger:    logger,
		debugMode: debugMode,
	}
}

// StreamChat streams a completion for the thread history
func (p *OpenAIProvider) StreamChat(ctx context.Context, modelName string, history []ChatMessage, onDelta DeltaFunc) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, DefaultChatTimeout)
	defer cancel()

	messages := make([]openai.ChatCompletionMessageParamUnion, 0, len(history)+1)
	messages = append(messages, openai.SystemMessage("You are a helpful assistant."))
	for _, m := range history {
		switch m.Role {
		case "assistant":
			messages = append(messages, openai.AssistantMessage(m.Content))
		default:
			messages = append(messages, openai.UserMessage(m.Content))
		}
	}

	if p.debugMode && p.logger != nil {
		p.logger.Debug("openai_chat_request",
			zap.String("model", modelName),
			zap.Int("history_len", len(history)),
		)
	}

	stream := p.client.Chat.Completions.NewStreaming(ctx, openai.ChatCompletionNewParams{
		Model:    shared.ChatModel(modelName),
		Messages: messages,
	})

	acc := openai.ChatCompletionAccumulator{}
	for stream.Next() {
		chunk := stream.Current()
		acc.AddChunk(chunk)
		if len(chunk.Choices) == 0 {
			continue
		}
		if delta := chunk.Choices[0].Delta.Content; delta != "" {
			if err := onDelta(delta); err != nil {
				return "", fmt.Errorf("delta callback failed: %w", err)
			}
		}
	}

	if err := stream.Err(); err != nil {
		return "", fmt.Errorf("chat completion stream failed: %w", err)
	}

	if len(acc.Choices) == 0 {
		return "", fmt.Errorf("no choices in response")
	}

	return acc.Choices[0].Message.Content, nil
}

// GenerateImage generates an image and returns raw PNG bytes
func (p *OpenAIProvider) GenerateImage(ctx context.Context, modelName string, prompt string) ([]byte, string, error) {
	ctx, cancel := context.WithTimeout(ctx, DefaultImageTimeout)
	defer cancel()

	if p.debugMode && p.logger != nil {
		p.logger.Debug("openai_image_request",
			zap.String("model", modelName),
			zap.Int("prompt_len", len(prompt)),
		)
	}

	resp, err := p.client.Images.Generate(ctx, openai.ImageGenerateParams{
		Prompt: prompt,
		Model:  openai.ImageModel(modelName),
		Size:   openai.ImageGenerateParamsSize1024x1024,
	})
	if err != nil {
		return nil, "", fmt.Errorf("image generation failed: %w", err)
	}

	if len(resp.Data) == 0 || resp.Data[0].B64JSON == "" {
		return nil, "", fmt.Errorf("no image data in response")
	}

	raw, err := base64.StdEncoding.DecodeString(resp.Data[0].B64JSON)
	if err != nil {
		return nil, "", fmt.Errorf("failed to decode image payload: %w", err)
	}

	return raw, "image/png", nil
}
