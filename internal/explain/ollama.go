package explain

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ollama/ollama/api"
)

// DefaultModel is used when no model is configured.
const DefaultModel = "llama3.2"

// OllamaConfig holds Ollama-specific configuration.
type OllamaConfig struct {
	// Host is the Ollama API endpoint (e.g., "http://localhost:11434").
	// Empty uses OLLAMA_HOST or the Ollama default.
	Host string

	// Model is the default model to use (e.g., "llama3.2")
	Model string

	// KeepAlive controls how long the model stays loaded (e.g., "5m")
	KeepAlive string

	// NumCtx is the context window size, 0 for the model default.
	NumCtx int
}

// OllamaClient implements Client for an Ollama server.
type OllamaClient struct {
	client *api.Client
	config OllamaConfig
	logger *slog.Logger
}

var _ Client = (*OllamaClient)(nil)

// NewOllama creates an Ollama client.
func NewOllama(cfg OllamaConfig, logger *slog.Logger) (*OllamaClient, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	var client *api.Client
	if cfg.Host != "" {
		parsedURL, err := url.Parse(cfg.Host)
		if err != nil {
			logger.Error("invalid ollama host URL", "host", cfg.Host, "error", err)
			return nil, fmt.Errorf("invalid ollama host: %w", err)
		}
		client = api.NewClient(parsedURL, http.DefaultClient)
		logger.Debug("created ollama client with explicit host", "host", cfg.Host)
	} else {
		var err error
		client, err = api.ClientFromEnvironment()
		if err != nil {
			logger.Error("failed to create ollama client from environment", "error", err)
			return nil, fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
		}
		logger.Debug("created ollama client from environment")
	}

	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}

	return &OllamaClient{client: client, config: cfg, logger: logger}, nil
}

// Model returns the default model name.
func (c *OllamaClient) Model() string {
	return c.config.Model
}

// request builds a chat request from messages and opts.
func (c *OllamaClient) request(messages []Message, opts *ChatOptions, stream bool) (*api.ChatRequest, error) {
	if len(messages) == 0 {
		return nil, errors.New("messages cannot be empty")
	}

	model := c.config.Model
	temperature := float32(0)
	maxTokens := 0
	if opts != nil {
		if opts.Model != "" {
			model = opts.Model
		}
		temperature = opts.Temperature
		maxTokens = opts.MaxTokens
	}

	ollamaMessages := make([]api.Message, len(messages))
	for i, msg := range messages {
		ollamaMessages[i] = api.Message{Role: msg.Role, Content: msg.Content}
	}

	req := &api.ChatRequest{
		Model:    model,
		Messages: ollamaMessages,
		Options: map[string]any{
			"temperature": temperature,
		},
		Stream: &stream,
	}
	if maxTokens > 0 {
		req.Options["num_predict"] = maxTokens
	}
	if c.config.NumCtx > 0 {
		req.Options["num_ctx"] = c.config.NumCtx
	}
	if c.config.KeepAlive != "" {
		d, err := time.ParseDuration(c.config.KeepAlive)
		if err != nil {
			return nil, fmt.Errorf("invalid keep_alive %q: %w", c.config.KeepAlive, err)
		}
		req.KeepAlive = &api.Duration{Duration: d}
	}
	return req, nil
}

// Chat sends messages to Ollama and returns a complete response.
func (c *OllamaClient) Chat(ctx context.Context, messages []Message, opts *ChatOptions) (*Response, error) {
	req, err := c.request(messages, opts, false)
	if err != nil {
		return nil, err
	}
	c.logger.Debug("sending chat request", "model", req.Model, "messages", len(messages))

	var response api.ChatResponse
	err = c.client.Chat(ctx, req, func(resp api.ChatResponse) error {
		response = resp
		return nil
	})
	if err != nil {
		c.logger.Error("chat request failed", "error", err, "model", req.Model)
		if errors.Is(err, context.Canceled) {
			return nil, fmt.Errorf("%w: %v", ErrContextCanceled, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	}

	c.logger.Debug("chat request completed",
		"model", response.Model,
		"prompt_tokens", response.PromptEvalCount,
		"total_tokens", response.EvalCount)

	return &Response{
		Content:      response.Message.Content,
		Model:        response.Model,
		TokensPrompt: response.PromptEvalCount,
		TokensTotal:  response.PromptEvalCount + response.EvalCount,
	}, nil
}

// ChatStream sends messages to Ollama and returns a channel of streaming events.
func (c *OllamaClient) ChatStream(ctx context.Context, messages []Message, opts *ChatOptions) (<-chan StreamEvent, error) {
	req, err := c.request(messages, opts, true)
	if err != nil {
		return nil, err
	}
	c.logger.Debug("starting chat stream", "model", req.Model, "messages", len(messages))

	events := make(chan StreamEvent, 10)
	go func() {
		defer close(events)

		err := c.client.Chat(ctx, req, func(resp api.ChatResponse) error {
			if err := ctx.Err(); err != nil {
				return err
			}
			if resp.Message.Content != "" || resp.Done {
				events <- StreamEvent{Content: resp.Message.Content, Done: resp.Done}
			}
			if resp.Done {
				c.logger.Debug("chat stream completed",
					"model", resp.Model,
					"prompt_tokens", resp.PromptEvalCount,
					"total_tokens", resp.EvalCount)
			}
			return nil
		})

		switch {
		case err == nil:
		case errors.Is(err, context.Canceled):
			events <- StreamEvent{Error: fmt.Errorf("%w: %v", ErrContextCanceled, err), Done: true}
		default:
			c.logger.Error("chat stream failed", "error", err, "model", req.Model)
			events <- StreamEvent{Error: fmt.Errorf("%w: %v", ErrProviderUnavailable, err), Done: true}
		}
	}()

	return events, nil
}

// Heartbeat checks if the Ollama service is reachable.
func (c *OllamaClient) Heartbeat(ctx context.Context) error {
	if err := c.client.Heartbeat(ctx); err != nil {
		c.logger.Error("ollama heartbeat failed", "error", err)
		return fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	}
	return nil
}

// ModelAvailable checks if a model has been pulled.
func (c *OllamaClient) ModelAvailable(ctx context.Context, model string) (bool, error) {
	listResp, err := c.client.List(ctx)
	if err != nil {
		c.logger.Error("failed to list models", "error", err)
		return false, fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	}
	for _, m := range listResp.Models {
		if sameModel(m.Name, model) || sameModel(m.Model, model) {
			return true, nil
		}
	}
	return false, nil
}

// sameModel compares model names, treating a missing tag as "latest".
func sameModel(listed, want string) bool {
	if listed == want {
		return true
	}
	if !strings.Contains(want, ":") {
		return listed == want+":latest"
	}
	return false
}
