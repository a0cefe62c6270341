package cmd

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/bimmerbailey/clog/internal/config"
	"github.com/bimmerbailey/clog/internal/learner"
	"github.com/bimmerbailey/clog/internal/parser"
	"github.com/bimmerbailey/clog/internal/progress"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var learnCmd = &cobra.Command{
	Use:   "learn [flags] [file...]",
	Short: "Learn templates from log files or stdin",
	Long: `Stream lines from the given files (or stdin when none or "-" is given)
through the template learner, then print the templates and the word index.

Examples:
  clog learn /var/log/app.log
  clog learn --format json 'logs/*.log'
  journalctl -o cat | clog learn --out templates.cbor.zst
  clog learn --metrics-addr :9464 --verbose big.log`,
	RunE: runLearn,
}

func init() {
	addLearnFlags(learnCmd)

	rootCmd.AddCommand(learnCmd)
}

func addLearnFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("out", "o", "", "also write a dump file (format from extension: .json, .yaml, .cbor, optional .zst)")
	cmd.Flags().String("metrics-addr", "", "serve Prometheus metrics on this address while learning")
	cmd.Flags().Bool("quiet", false, "do not print the templates to stdout")
}

func runLearn(cmd *cobra.Command, args []string) error {
	outPath, _ := cmd.Flags().GetString("out")
	metricsAddr, _ := cmd.Flags().GetString("metrics-addr")
	quiet, _ := cmd.Flags().GetBool("quiet")

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if metricsAddr != "" {
		cfg.Metrics.Addr = metricsAddr
	}
	logger := newLogger(cmd.ErrOrStderr(), cfg)

	files, err := config.ExpandGlobs(args)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rec, stopMetrics := startMetrics(ctx, cfg, logger)
	defer stopMetrics()

	l := newLearner(cfg, logger, rec)
	if err := learnFiles(ctx, l, cfg, logger, files); err != nil {
		if !errors.Is(err, context.Canceled) || ctx.Err() == nil {
			return err
		}
		logger.Warn("interrupted, keeping the templates learned so far", "lines", l.Stats().Lines)
	}

	return emitTemplates(cmd, cfg, logger, l, outPath, quiet)
}

// learnFiles streams every line of files into l. One goroutine reads while
// another learns, so parsing and matching overlap. Alignment faults are
// logged by the learner and do not stop the run.
func learnFiles(ctx context.Context, l *learner.Learner, cfg *config.Config, logger *slog.Logger, files []string) error {
	reader := parser.New(cfg.Input.ExtractMessage).WithLogger(logger)
	reporter := progress.New(l, logger, cfg.Progress.Interval)

	g, gctx := errgroup.WithContext(ctx)
	lines := make(chan parser.Line, 256)

	g.Go(func() error {
		defer close(lines)
		for _, file := range files {
			logger.Debug("reading input", "file", file)
			err := reader.StreamFile(gctx, file, func(line parser.Line) error {
				select {
				case lines <- line:
					return nil
				case <-gctx.Done():
					return gctx.Err()
				}
			})
			if err != nil {
				return err
			}
		}
		return nil
	})

	g.Go(func() error {
		for line := range lines {
			if _, err := l.Learn(line.Message); err != nil && !errors.Is(err, learner.ErrAlignmentFault) {
				return err
			}
			reporter.Line()
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}
	reporter.Done()
	return nil
}

// commandContext returns the command's context, or a background context
// when the command is run directly as in tests.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
