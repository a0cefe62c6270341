package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"regexp"
	"syscall"

	"github.com/bimmerbailey/clog/internal/config"
	"github.com/bimmerbailey/clog/internal/learner"
	"github.com/bimmerbailey/clog/internal/parser"
	"github.com/bimmerbailey/clog/internal/progress"
	"github.com/bimmerbailey/clog/internal/tail"
	"github.com/spf13/cobra"
)

var followCmd = &cobra.Command{
	Use:   "follow [flags] <file>",
	Short: "Learn templates from a growing log file",
	Long: `Watch a log file like 'tail -f' and learn from every appended line.
The templates are printed when the command is interrupted, when --for
elapses, or when the file is rotated away.

Examples:
  clog follow /var/log/app.log
  clog follow --from-start --for 10m /var/log/app.log
  clog follow --pattern "sshd" --follow-rotate /var/log/auth.log
  clog follow --out templates.json.zst --metrics-addr :9464 app.log`,
	Args: cobra.ExactArgs(1),
	RunE: runFollow,
}

func init() {
	addFollowFlags(followCmd)

	rootCmd.AddCommand(followCmd)
}

func addFollowFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("pattern", "p", "", "only learn lines matching regex pattern")
	cmd.Flags().IntP("lines", "n", 0, "number of existing trailing lines to learn first")
	cmd.Flags().Bool("from-start", false, "learn the whole existing file first")
	cmd.Flags().Bool("no-follow", false, "learn the existing lines and exit (don't follow)")
	cmd.Flags().Bool("follow-rotate", false, "follow through log rotations (continue when file is renamed/removed)")
	cmd.Flags().String("for", "", "stop after this long (e.g. 30s, 15m, 2h, 1d)")
	cmd.Flags().StringP("out", "o", "", "also write a dump file (format from extension)")
	cmd.Flags().String("metrics-addr", "", "serve Prometheus metrics on this address while following")
}

func runFollow(cmd *cobra.Command, args []string) error {
	filePath := args[0]
	patternStr, _ := cmd.Flags().GetString("pattern")
	lines, _ := cmd.Flags().GetInt("lines")
	fromStart, _ := cmd.Flags().GetBool("from-start")
	noFollow, _ := cmd.Flags().GetBool("no-follow")
	followRotate, _ := cmd.Flags().GetBool("follow-rotate")
	forStr, _ := cmd.Flags().GetString("for")
	outPath, _ := cmd.Flags().GetString("out")
	metricsAddr, _ := cmd.Flags().GetString("metrics-addr")

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if metricsAddr != "" {
		cfg.Metrics.Addr = metricsAddr
	}
	logger := newLogger(cmd.ErrOrStderr(), cfg)

	if _, err := os.Stat(filePath); err != nil {
		return fmt.Errorf("file does not exist: %s", filePath)
	}

	var pattern *regexp.Regexp
	if patternStr != "" {
		pattern, err = regexp.Compile(patternStr)
		if err != nil {
			return fmt.Errorf("invalid pattern: %w", err)
		}
	}

	ctx, cancel := context.WithCancel(commandContext(cmd))
	defer cancel()
	if forStr != "" {
		d, err := config.ParseDuration(forStr)
		if err != nil {
			return fmt.Errorf("invalid --for value: %w", err)
		}
		ctx, cancel = context.WithTimeout(ctx, d)
		defer cancel()
	}

	rec, stopMetrics := startMetrics(ctx, cfg, logger)
	defer stopMetrics()

	l := newLearner(cfg, logger, rec)
	reporter := progress.New(l, logger, cfg.Progress.Interval)

	tailer := tail.New(tail.Options{
		FilePath:     filePath,
		Lines:        lines,
		FromStart:    fromStart,
		Follow:       !noFollow,
		FollowRotate: followRotate,
		Pattern:      pattern,
		Reader:       parser.New(cfg.Input.ExtractMessage).WithLogger(logger),
		Logger:       logger,
		OnLine: func(line parser.Line) error {
			if _, err := l.Learn(line.Message); err != nil && !errors.Is(err, learner.ErrAlignmentFault) {
				return err
			}
			reporter.Line()
			return nil
		},
	})

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	errChan := make(chan error, 1)
	go func() {
		errChan <- tailer.Run(ctx)
	}()

	select {
	case <-sigChan:
		cancel()
		err = <-errChan
	case err = <-errChan:
	}
	if err != nil && !errors.Is(err, tail.ErrRotated) {
		return err
	}
	reporter.Done()

	return emitTemplates(cmd, cfg, logger, l, outPath, false)
}
