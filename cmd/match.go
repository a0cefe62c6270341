package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/bimmerbailey/clog/internal/config"
	"github.com/bimmerbailey/clog/internal/learner"
	"github.com/bimmerbailey/clog/internal/output"
	"github.com/bimmerbailey/clog/internal/parser"
	"github.com/spf13/cobra"
)

var matchCmd = &cobra.Command{
	Use:   "match --train <file> [flags] [file...]",
	Short: "Classify lines against templates learned from training files",
	Long: `Learn templates from the training files, then report for every line of
the given files (or stdin) which template it would join. Lines that fit no
template are reported as NEW. Matching does not change the templates.

Examples:
  clog match --train yesterday.log today.log
  clog match --train 'archive/*.log' --format json today.log
  tail -n 100 app.log | clog match --train app.log.1`,
	RunE: runMatch,
}

func init() {
	addMatchFlags(matchCmd)

	rootCmd.AddCommand(matchCmd)
}

func addMatchFlags(cmd *cobra.Command) {
	cmd.Flags().StringSliceP("train", "t", []string{}, "log file(s) to learn templates from (required, repeatable)")
	cmd.Flags().Bool("new-only", false, "only report lines that fit no template")
	_ = cmd.MarkFlagRequired("train")
}

// matchResult is the classification of one input line.
type matchResult struct {
	File       string `json:"file" yaml:"file" cbor:"file"`
	Line       int    `json:"line" yaml:"line" cbor:"line"`
	Message    string `json:"message" yaml:"message" cbor:"message"`
	TemplateID int    `json:"template_id" yaml:"template_id" cbor:"template_id"` // -1 when no template fits
	Pattern    string `json:"pattern,omitempty" yaml:"pattern,omitempty" cbor:"pattern,omitempty"`
}

func runMatch(cmd *cobra.Command, args []string) error {
	train, _ := cmd.Flags().GetStringSlice("train")
	newOnly, _ := cmd.Flags().GetBool("new-only")

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := newLogger(cmd.ErrOrStderr(), cfg)

	trainFiles, err := config.ExpandGlobs(train)
	if err != nil {
		return err
	}
	files, err := config.ExpandGlobs(args)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	l := newLearner(cfg, logger, nil)
	if err := learnFiles(ctx, l, cfg, logger, trainFiles); err != nil {
		return err
	}
	logger.Info("training finished", "files", len(trainFiles), "templates", l.Len())

	results, err := classify(ctx, l, parser.New(cfg.Input.ExtractMessage).WithLogger(logger), files, newOnly)
	if err != nil {
		return err
	}

	format := output.ParseFormat(cfg.Format)
	w := output.New(cmd.OutOrStdout(), format)
	switch format {
	case output.FormatJSON:
		return w.WriteJSON(results)
	case output.FormatYAML:
		return w.WriteYAML(results)
	case output.FormatCBOR:
		return w.WriteCBOR(results)
	case output.FormatTable:
		return writeMatchTable(cmd.OutOrStdout(), results)
	default:
		return writeMatchText(cmd.OutOrStdout(), results)
	}
}

// classify looks up the template of every line of files without learning.
func classify(ctx context.Context, l *learner.Learner, reader *parser.Reader, files []string, newOnly bool) ([]matchResult, error) {
	results := []matchResult{}
	for _, file := range files {
		err := reader.StreamFile(ctx, file, func(line parser.Line) error {
			res := matchResult{File: file, Line: line.Num, Message: line.Message, TemplateID: -1}
			if id, ok := l.Match(line.Message); ok {
				if newOnly {
					return nil
				}
				res.TemplateID = id
				if t, ok := l.Template(id); ok {
					res.Pattern = t.Pattern()
				}
			}
			results = append(results, res)
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return results, nil
}

func writeMatchText(w io.Writer, results []matchResult) error {
	matched := 0
	for _, r := range results {
		if r.TemplateID < 0 {
			fmt.Fprintf(w, "%s:%d: NEW %s\n", r.File, r.Line, r.Message)
			continue
		}
		matched++
		fmt.Fprintf(w, "%s:%d: template %d %s\n", r.File, r.Line, r.TemplateID, r.Pattern)
	}
	_, err := fmt.Fprintf(w, "\n%d of %d lines matched a template\n", matched, len(results))
	return err
}

func writeMatchTable(w io.Writer, results []matchResult) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "FILE\tLINE\tTEMPLATE\tMESSAGE")
	for _, r := range results {
		id := "NEW"
		if r.TemplateID >= 0 {
			id = fmt.Sprint(r.TemplateID)
		}
		fmt.Fprintf(tw, "%s\t%d\t%s\t%s\n", r.File, r.Line, id, r.Message)
	}
	return tw.Flush()
}
