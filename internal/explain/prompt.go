package explain

import (
	"cmp"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/bimmerbailey/clog/internal/output"
)

// ErrMissingField is returned by Build when a required option is absent.
var ErrMissingField = errors.New("missing required field")

// BuildOptions holds what a prompt is built from.
type BuildOptions struct {
	// Snapshot holds the learned templates. Required.
	Snapshot *output.Snapshot

	// Question is an optional user question about the templates. When empty
	// the model is asked for a general explanation.
	Question string

	// MaxTemplates caps how many templates are included, busiest first.
	// Zero includes all of them.
	MaxTemplates int

	// Redactor masks sensitive tokens in patterns. Nil sends them as is.
	Redactor *Redactor
}

const systemPrompt = `You are an expert log analysis assistant. You are given log message templates learned from a log stream.

Each template is a sequence of slots. A slot shown as (a|b|c) held different words in different lines; numbers were removed before learning. Hit counts show how many lines matched each template.

Guidelines:
1. Only reference templates present in the input
2. Explain what each important template means for the system that produced it
3. Group related templates (e.g. a request and its failure)
4. Point out templates that look like errors, retries or security events
5. Mention rare templates that may deserve attention
6. Never invent log messages`

// Build returns the system and user messages for opts.
func Build(opts BuildOptions) ([]Message, error) {
	if opts.Snapshot == nil {
		return nil, fmt.Errorf("%w: Snapshot", ErrMissingField)
	}
	if len(opts.Snapshot.Templates) == 0 {
		return nil, ErrNoTemplates
	}

	return []Message{
		{Role: "system", Content: systemPrompt},
		{Role: "user", Content: userMessage(opts)},
	}, nil
}

func userMessage(opts BuildOptions) string {
	s := opts.Snapshot
	templates := busiest(s.Templates, opts.MaxTemplates)

	var sb strings.Builder
	if opts.Question != "" {
		fmt.Fprintf(&sb, "Answer this question about the log templates below: %s\n\n", opts.Question)
	} else {
		sb.WriteString("Explain the following log templates:\n\n")
	}

	fmt.Fprintf(&sb, "Lines: %d (%d matched no template)\n", s.Stats.Lines, s.Stats.Dropped)
	fmt.Fprintf(&sb, "Templates: %d", len(s.Templates))
	if len(templates) < len(s.Templates) {
		fmt.Fprintf(&sb, " (showing the %d most frequent)", len(templates))
	}
	sb.WriteString("\n\n")

	for _, t := range templates {
		fmt.Fprintf(&sb, "[%d] hits=%d  %s\n", t.ID, t.Hits, opts.Redactor.Redact(t.Pattern))
	}
	return sb.String()
}

// busiest returns up to limit templates ordered by hits, ties by ID.
func busiest(templates []output.TemplateRecord, limit int) []output.TemplateRecord {
	sorted := make([]output.TemplateRecord, len(templates))
	copy(sorted, templates)
	slices.SortStableFunc(sorted, func(a, b output.TemplateRecord) int {
		if c := cmp.Compare(b.Hits, a.Hits); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	if limit > 0 && len(sorted) > limit {
		sorted = sorted[:limit]
	}
	return sorted
}
