package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/bimmerbailey/clog/internal/analyzer"
	"github.com/bimmerbailey/clog/internal/config"
	"github.com/bimmerbailey/clog/internal/output"
	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats [flags] [file...]",
	Short: "Show template statistics",
	Long: `Learn templates from the given files (or read them from a dump) and
display a statistical summary: line counts, coverage, template sizes, and the
templates that absorbed the most lines.

Examples:
  clog stats /var/log/app.log
  clog stats --format json --top 20 app.log
  clog stats --dump templates.cbor.zst --pattern "timeout|refused"
  clog stats --group-by slots app.log`,
	RunE: runStats,
}

func init() {
	addStatsFlags(statsCmd)

	rootCmd.AddCommand(statsCmd)
}

func addStatsFlags(cmd *cobra.Command) {
	cmd.Flags().Int("top", 10, "number of top templates to show")
	cmd.Flags().String("dump", "", "read templates from a dump file instead of learning")
	cmd.Flags().StringP("pattern", "p", "", "list templates whose pattern matches this regex")
	cmd.Flags().Int("min-hits", 0, "list templates with at least this many hits")
	cmd.Flags().Bool("invert", false, "list templates whose pattern does not match")
	cmd.Flags().String("group-by", "", "group templates (slots)")
}

// statsReport is what stats prints.
type statsReport struct {
	analyzer.Stats `yaml:",inline"`
	Groups         []analyzer.GroupedResult `json:"groups,omitempty" yaml:"groups,omitempty"`
	Matches        []output.TemplateRecord  `json:"matches,omitempty" yaml:"matches,omitempty"`
}

func runStats(cmd *cobra.Command, args []string) error {
	topN, _ := cmd.Flags().GetInt("top")
	dumpPath, _ := cmd.Flags().GetString("dump")
	pattern, _ := cmd.Flags().GetString("pattern")
	minHits, _ := cmd.Flags().GetInt("min-hits")
	invert, _ := cmd.Flags().GetBool("invert")
	groupBy, _ := cmd.Flags().GetString("group-by")

	if groupBy != "" && groupBy != "slots" {
		return fmt.Errorf("invalid --group-by value %q (must be slots)", groupBy)
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := newLogger(cmd.ErrOrStderr(), cfg)

	ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	snap, err := loadSnapshot(ctx, cfg, logger, args, dumpPath)
	if err != nil {
		return err
	}

	a := analyzer.New()
	report := statsReport{Stats: a.ComputeStats(snap, topN)}
	if groupBy == "slots" {
		report.Groups = a.GroupBySlotCount(snap)
	}
	if pattern != "" || minHits > 0 {
		report.Matches, err = a.Filter(snap, analyzer.FilterOptions{
			Pattern: pattern,
			MinHits: minHits,
			Invert:  invert,
		})
		if err != nil {
			return err
		}
	}

	w := output.New(cmd.OutOrStdout(), output.ParseFormat(cfg.Format))
	switch output.ParseFormat(cfg.Format) {
	case output.FormatJSON:
		return w.WriteJSON(report)
	case output.FormatYAML:
		return w.WriteYAML(report)
	case output.FormatCBOR:
		return w.WriteCBOR(report)
	default:
		return writeStatsText(cmd.OutOrStdout(), report)
	}
}

// loadSnapshot reads dumpPath when set, otherwise learns files.
func loadSnapshot(ctx context.Context, cfg *config.Config, logger *slog.Logger, files []string, dumpPath string) (*output.Snapshot, error) {
	if dumpPath != "" {
		if len(files) > 0 {
			return nil, fmt.Errorf("--dump cannot be combined with input files")
		}
		return output.ReadSnapshotFile(dumpPath)
	}

	files, err := config.ExpandGlobs(files)
	if err != nil {
		return nil, err
	}
	l := newLearner(cfg, logger, nil)
	if err := learnFiles(ctx, l, cfg, logger, files); err != nil {
		return nil, err
	}
	return output.NewSnapshot(l), nil
}

func writeStatsText(w io.Writer, r statsReport) error {
	fmt.Fprintf(w, "Total Lines: %d\n", r.TotalLines)
	fmt.Fprintf(w, "Learned Lines: %d\n", r.LearnedLines)
	fmt.Fprintf(w, "Dropped Lines: %d\n", r.DroppedLines)
	fmt.Fprintf(w, "Templates: %d\n", r.Templates)
	fmt.Fprintf(w, "Words: %d\n", r.Words)
	fmt.Fprintf(w, "Coverage: %.2f%%\n", r.Coverage*100)
	fmt.Fprintf(w, "Singletons: %d\n", r.Singletons)
	fmt.Fprintf(w, "Mean Slots: %.2f\n", r.MeanSlots)
	fmt.Fprintf(w, "Max Slots: %d\n", r.MaxSlots)
	fmt.Fprintf(w, "Variable Slots: %d\n", r.VariableSlots)

	if len(r.TopTemplates) > 0 {
		fmt.Fprintln(w, "\nTop Templates:")
		for _, t := range r.TopTemplates {
			fmt.Fprintf(w, "  [%d] %d hits (%.2f%%)  %s\n", t.ID, t.Hits, t.Percent, t.Pattern)
		}
	}

	if len(r.Groups) > 0 {
		fmt.Fprintln(w, "\nBy Slot Count:")
		for _, g := range r.Groups {
			fmt.Fprintf(w, "  %d slots: %d templates, %d hits (%.2f%%)\n", g.Slots, g.Templates, g.Hits, g.Percent)
		}
	}

	if r.Matches != nil {
		fmt.Fprintf(w, "\nMatching Templates: %d\n", len(r.Matches))
		for _, t := range r.Matches {
			fmt.Fprintf(w, "  [%d] %d hits  %s\n", t.ID, t.Hits, t.Pattern)
		}
	}
	return nil
}
