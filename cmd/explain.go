package cmd

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/bimmerbailey/clog/internal/explain"
	"github.com/spf13/cobra"
)

var explainCmd = &cobra.Command{
	Use:   "explain [flags] [file...]",
	Short: "Ask a local model to explain learned templates",
	Long: `Learn templates from the given files (or read them from a dump), then send
the most frequent ones to an Ollama model and stream its explanation.
Sensitive tokens such as email addresses and API keys are masked before
anything is sent.

Examples:
  clog explain /var/log/app.log
  clog explain --dump templates.cbor.zst --question "which templates are failures?"
  clog explain --model mistral --max-templates 20 app.log
  clog explain --no-stream app.log > explanation.txt`,
	RunE: runExplain,
}

func init() {
	addExplainFlags(explainCmd)

	rootCmd.AddCommand(explainCmd)
}

func addExplainFlags(cmd *cobra.Command) {
	cmd.Flags().String("dump", "", "read templates from a dump file instead of learning")
	cmd.Flags().StringP("question", "q", "", "ask a specific question about the templates")
	cmd.Flags().String("model", "", "Ollama model (overrides explain.ollama.model)")
	cmd.Flags().Int("max-templates", 0, "send at most this many templates (overrides explain.max_templates)")
	cmd.Flags().Bool("no-stream", false, "print the answer once it is complete")
}

func runExplain(cmd *cobra.Command, args []string) error {
	dumpPath, _ := cmd.Flags().GetString("dump")
	question, _ := cmd.Flags().GetString("question")
	model, _ := cmd.Flags().GetString("model")
	maxTemplates, _ := cmd.Flags().GetInt("max-templates")
	noStream, _ := cmd.Flags().GetBool("no-stream")

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if model != "" {
		cfg.Explain.Ollama.Model = model
	}
	if maxTemplates > 0 {
		cfg.Explain.MaxTemplates = maxTemplates
	}
	logger := newLogger(cmd.ErrOrStderr(), cfg)

	ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	snap, err := loadSnapshot(ctx, cfg, logger, args, dumpPath)
	if err != nil {
		return err
	}
	if len(snap.Templates) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No templates learned yet")
		return nil
	}

	client, err := explain.NewOllama(explain.OllamaConfig{
		Host:      cfg.Explain.Ollama.Host,
		Model:     cfg.Explain.Ollama.Model,
		KeepAlive: cfg.Explain.Ollama.KeepAlive,
		NumCtx:    cfg.Explain.Ollama.NumCtx,
	}, logger)
	if err != nil {
		return fmt.Errorf("failed to create Ollama client: %w", err)
	}

	redactor, err := explain.NewRedactor(cfg.Explain.Redact, cfg.Explain.RedactPatterns)
	if err != nil {
		return err
	}

	e := explain.New(client, explain.Options{
		Model:        client.Model(),
		Temperature:  cfg.Explain.Temperature,
		MaxTemplates: cfg.Explain.MaxTemplates,
		NoStream:     noStream,
		Redactor:     redactor,
		Logger:       logger,
	})

	err = e.Explain(ctx, cmd.OutOrStdout(), snap, question)
	if errors.Is(err, explain.ErrProviderUnavailable) {
		host := cfg.Explain.Ollama.Host
		if host == "" {
			host = "the default Ollama host"
		}
		return fmt.Errorf("cannot reach Ollama at %s: %w\n\nStart Ollama with: ollama serve", host, err)
	}
	return err
}
