// Package explain asks a local language model to describe learned templates.
//
// Templates are rendered into a prompt (with sensitive tokens redacted) and
// sent to an Ollama server. The reply is streamed back to the caller.
package explain

import (
	"context"
	"errors"
)

// Client is the chat surface explain needs from a model server.
// Implementations must be safe for concurrent use.
type Client interface {
	// Chat sends messages and returns a complete response.
	Chat(ctx context.Context, messages []Message, opts *ChatOptions) (*Response, error)

	// ChatStream sends messages and returns a channel of streaming events.
	// The channel is closed when the stream completes or fails.
	ChatStream(ctx context.Context, messages []Message, opts *ChatOptions) (<-chan StreamEvent, error)

	// Heartbeat checks if the server is reachable.
	Heartbeat(ctx context.Context) error

	// ModelAvailable reports whether model has been pulled on the server.
	ModelAvailable(ctx context.Context, model string) (bool, error)
}

// Message represents a single message in a conversation.
type Message struct {
	// Role identifies the message sender: "system", "user", or "assistant"
	Role    string
	Content string
}

// ChatOptions configures chat behavior. A nil value uses client defaults.
type ChatOptions struct {
	Model       string
	Temperature float32
	MaxTokens   int
}

// Response represents a complete model response.
type Response struct {
	Content      string
	Model        string
	TokensPrompt int
	TokensTotal  int
}

// StreamEvent represents a single event in a streaming response.
type StreamEvent struct {
	Content string
	Done    bool
	Error   error
}

// Common errors
var (
	ErrProviderUnavailable = errors.New("model server is not reachable")
	ErrContextCanceled     = errors.New("operation was canceled")
	ErrNoTemplates         = errors.New("no templates to explain")
	ErrModelNotFound       = errors.New("model not found on server")
)
