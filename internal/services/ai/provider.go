package ai

import (
	"context"
	"fmt"

	"github.com/convoke/convoke-api/internal/models"
)

// ChatMessage is one turn of conversation history passed to a provider
type ChatMessage struct {
	Role    string `json:"role"` // "user" or "assistant"
	Content string `json:"content"`
}

// DeltaFunc receives incremental output while a chat completion streams.
// Returning an error aborts the stream.
type DeltaFunc func(delta string) error

// ChatProvider produces streamed text continuations for a thread history
type ChatProvider interface {
	// StreamChat invokes modelName with the conversation history and calls
	// onDelta for each chunk of output. It returns the full response text.
	StreamChat(ctx context.Context, modelName string, history []ChatMessage, onDelta DeltaFunc) (string, error)
}

// ImageProvider produces a binary image from a text prompt
type ImageProvider interface {
	// GenerateImage returns the raw image bytes and their content type
	GenerateImage(ctx context.Context, modelName string, prompt string) ([]byte, string, error)
}

// Registry maps the closed set of model providers to their chat
// implementations. Unknown providers are rejected here, at the dispatch
// boundary, rather than deep inside a request.
type Registry struct {
	chat  map[models.ModelProvider]ChatProvider
	image ImageProvider
}

// NewRegistry creates an empty provider registry
func NewRegistry() *Registry {
	return &Registry{chat: make(map[models.ModelProvider]ChatProvider)}
}

// RegisterChat binds a chat provider implementation
func (r *Registry) RegisterChat(provider models.ModelProvider, impl ChatProvider) {
	r.chat[provider] = impl
}

// RegisterImage binds the image provider implementation
func (r *Registry) RegisterImage(impl ImageProvider) {
	r.image = impl
}

// Chat returns the chat provider for the given catalog provider
func (r *Registry) Chat(provider models.ModelProvider) (ChatProvider, error) {
	impl, ok := r.chat[provider]
	if !ok {
		return nil, &ErrProviderNotConfigured{Provider: string(provider)}
	}
	return impl, nil
}

// Image returns the image provider
func (r *Registry) Image() (ImageProvider, error) {
	if r.image == nil {
		return nil, &ErrProviderNotConfigured{Provider: "image"}
	}
	return r.image, nil
}

// ErrProviderNotConfigured is returned when no implementation is
// registered for a provider named by the model catalog.
type ErrProviderNotConfigured struct {
	Provider string
}

func (e *ErrProviderNotConfigured) Error() string {
	return fmt.Sprintf("AI provider not configured: %s", e.Provider)
}
