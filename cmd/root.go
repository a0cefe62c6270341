package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/bimmerbailey/clog/internal/config"
	"github.com/bimmerbailey/clog/internal/learner"
	"github.com/bimmerbailey/clog/internal/metrics"
	"github.com/bimmerbailey/clog/internal/output"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "clog",
	Short: "Learn log message templates from a stream of lines",
	Long: `Clog learns message templates from log lines as they arrive.

Each line is split into words (numbers are dropped) and either folded into
the closest known template or kept as a new one. The learned templates and
the word index can be printed, saved to a dump file, summarized, or
explained by a local model.

Examples:
  clog learn /var/log/app.log
  cat app.log | clog learn --format table
  clog follow --out templates.cbor.zst /var/log/app.log
  clog match --train app.log today.log
  clog stats --top 5 app.log`,
	SilenceUsage: true,
}

// Execute is called by main.main(). It runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default is $HOME/.clog.yaml)")
	flags.StringP("format", "f", "text", "output format (text, table, json, yaml, cbor)")
	flags.String("color", "auto", "colorize table patterns (auto, always, never)")
	flags.BoolP("verbose", "v", false, "enable verbose output")
	flags.Bool("debug", false, "log every learned line")
	flags.Int("min-matches", 3, "alignment score a line needs to join a template")
	flags.Int("max-alternatives", 1, "tokens allowed to miss a template")
	flags.Bool("interior", false, "record mismatched tokens as slot alternatives")
	flags.Bool("extract-message", false, "learn from the message of JSON and syslog lines")

	_ = viper.BindPFlag("format", flags.Lookup("format"))
	_ = viper.BindPFlag("color", flags.Lookup("color"))
	_ = viper.BindPFlag("verbose", flags.Lookup("verbose"))
	_ = viper.BindPFlag("debug", flags.Lookup("debug"))
	_ = viper.BindPFlag("learner.min_consequent_matches", flags.Lookup("min-matches"))
	_ = viper.BindPFlag("learner.max_new_alternatives", flags.Lookup("max-alternatives"))
	_ = viper.BindPFlag("learner.interior_alternatives", flags.Lookup("interior"))
	_ = viper.BindPFlag("input.extract_message", flags.Lookup("extract-message"))
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintln(os.Stderr, "Error finding home directory:", err)
			os.Exit(1)
		}

		viper.AddConfigPath(home)
		viper.AddConfigPath(".")
		viper.SetConfigName(".clog")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("CLOG")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	setDefaults(viper.GetViper())

	if err := viper.ReadInConfig(); err == nil {
		if viper.GetBool("verbose") {
			fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
		}
	}
}

// setDefaults registers every config key so environment variables can
// override keys that appear in no file.
func setDefaults(v *viper.Viper) {
	def := config.Default()
	v.SetDefault("format", def.Format)
	v.SetDefault("color", def.Color)
	v.SetDefault("verbose", def.Verbose)
	v.SetDefault("debug", def.Debug)
	v.SetDefault("learner.min_consequent_matches", def.Learner.MinConsequentMatches)
	v.SetDefault("learner.max_new_alternatives", def.Learner.MaxNewAlternatives)
	v.SetDefault("learner.interior_alternatives", def.Learner.InteriorAlternatives)
	v.SetDefault("input.extract_message", def.Input.ExtractMessage)
	v.SetDefault("progress.interval", def.Progress.Interval)
	v.SetDefault("metrics.addr", def.Metrics.Addr)
	v.SetDefault("explain.ollama.host", def.Explain.Ollama.Host)
	v.SetDefault("explain.ollama.model", def.Explain.Ollama.Model)
	v.SetDefault("explain.ollama.keep_alive", def.Explain.Ollama.KeepAlive)
	v.SetDefault("explain.ollama.num_ctx", def.Explain.Ollama.NumCtx)
	v.SetDefault("explain.max_templates", def.Explain.MaxTemplates)
	v.SetDefault("explain.temperature", def.Explain.Temperature)
	v.SetDefault("explain.redact", def.Explain.Redact)
	v.SetDefault("explain.redact_patterns", def.Explain.RedactPatterns)
}

// loadConfig decodes the viper settings over the defaults and validates
// the result.
func loadConfig() (*config.Config, error) {
	cfg := config.Default()
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

// newLogger returns a text logger on w: errors only by default, info with
// verbose and everything with debug.
func newLogger(w io.Writer, cfg *config.Config) *slog.Logger {
	level := slog.LevelError
	switch {
	case cfg.Debug:
		level = slog.LevelDebug
	case cfg.Verbose:
		level = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// newLearner builds a learner from cfg. rec may be nil.
func newLearner(cfg *config.Config, logger *slog.Logger, rec learner.Recorder) *learner.Learner {
	opts := []learner.Option{
		learner.WithMinConsequentMatches(cfg.Learner.MinConsequentMatches),
		learner.WithMaxNewAlternatives(cfg.Learner.MaxNewAlternatives),
		learner.WithInteriorAlternatives(cfg.Learner.InteriorAlternatives),
		learner.WithLogger(logger),
	}
	if rec != nil {
		opts = append(opts, learner.WithRecorder(rec))
	}
	return learner.New(opts...)
}

// startMetrics serves learner metrics on cfg.Metrics.Addr until stop is
// called. The recorder is nil when no address is configured.
func startMetrics(ctx context.Context, cfg *config.Config, logger *slog.Logger) (rec learner.Recorder, stop func()) {
	if cfg.Metrics.Addr == "" {
		return nil, func() {}
	}

	m := metrics.New()
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := m.Serve(ctx, cfg.Metrics.Addr, logger); err != nil {
			logger.Error("metrics server failed", "addr", cfg.Metrics.Addr, "error", err)
		}
	}()
	return m, func() {
		cancel()
		<-done
	}
}

// emitTemplates snapshots l, writes the dump file when outPath is set and
// prints the snapshot unless quiet.
func emitTemplates(cmd *cobra.Command, cfg *config.Config, logger *slog.Logger, l *learner.Learner, outPath string, quiet bool) error {
	snap := output.NewSnapshot(l)
	if outPath != "" {
		format := output.FormatForPath(outPath, output.FormatCBOR)
		if err := output.WriteFile(outPath, snap, format); err != nil {
			return fmt.Errorf("failed to write dump: %w", err)
		}
		logger.Info("wrote dump", "path", outPath, "format", format, "templates", len(snap.Templates))
	}
	if quiet {
		return nil
	}
	return writeSnapshot(cmd, cfg, snap)
}

// writeSnapshot prints s to the command output in the configured format.
func writeSnapshot(cmd *cobra.Command, cfg *config.Config, s *output.Snapshot) error {
	w := output.New(cmd.OutOrStdout(), output.ParseFormat(cfg.Format)).
		WithColor(output.ParseColorMode(cfg.Color))
	return w.WriteSnapshot(s)
}
