package explain

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/bimmerbailey/clog/internal/output"
)

// Options configures an Explainer.
type Options struct {
	Model        string
	Temperature  float32
	MaxTemplates int
	NoStream     bool // wait for the whole answer instead of streaming it
	Redactor     *Redactor
	Logger       *slog.Logger
}

// Explainer sends templates to a model and streams its answer.
type Explainer struct {
	client Client
	opts   Options
	logger *slog.Logger
}

// New creates an Explainer backed by client.
func New(client Client, opts Options) *Explainer {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Explainer{client: client, opts: opts, logger: logger}
}

// Explain writes the model's explanation of s to w. An empty question asks
// for a general explanation.
func (e *Explainer) Explain(ctx context.Context, w io.Writer, s *output.Snapshot, question string) error {
	messages, err := Build(BuildOptions{
		Snapshot:     s,
		Question:     question,
		MaxTemplates: e.opts.MaxTemplates,
		Redactor:     e.opts.Redactor,
	})
	if err != nil {
		return err
	}
	if n := e.opts.Redactor.Count(); n > 0 {
		e.logger.Debug("redacted sensitive tokens", "values", n)
	}

	if err := e.client.Heartbeat(ctx); err != nil {
		return err
	}
	if model := e.opts.Model; model != "" {
		ok, err := e.client.ModelAvailable(ctx, model)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("model %q not pulled, run `ollama pull %s`: %w", model, model, ErrModelNotFound)
		}
	}

	opts := &ChatOptions{
		Model:       e.opts.Model,
		Temperature: e.opts.Temperature,
	}
	if e.opts.NoStream {
		resp, err := e.client.Chat(ctx, messages, opts)
		if err != nil {
			return err
		}
		e.logger.Info("explanation received", "model", resp.Model, "tokens", resp.TokensTotal)
		_, err = fmt.Fprintln(w, resp.Content)
		return err
	}

	stream, err := e.client.ChatStream(ctx, messages, opts)
	if err != nil {
		return err
	}

	for event := range stream {
		if event.Error != nil {
			return event.Error
		}
		if _, err := io.WriteString(w, event.Content); err != nil {
			return fmt.Errorf("writing explanation: %w", err)
		}
	}
	_, err = fmt.Fprintln(w)
	return err
}
