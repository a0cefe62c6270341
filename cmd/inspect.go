package cmd

import (
	"github.com/bimmerbailey/clog/internal/output"
	"github.com/spf13/cobra"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect [flags] <dump-file>",
	Short: "Print a saved template dump",
	Long: `Read a dump written with --out (JSON, YAML or CBOR, optionally zstd
compressed) and print it in the selected format.

Examples:
  clog inspect templates.cbor.zst
  clog inspect --format table templates.json`,
	Args: cobra.ExactArgs(1),
	RunE: runInspect,
}

func init() {
	rootCmd.AddCommand(inspectCmd)
}

func runInspect(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	snap, err := output.ReadSnapshotFile(args[0])
	if err != nil {
		return err
	}
	return writeSnapshot(cmd, cfg, snap)
}
