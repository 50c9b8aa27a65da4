package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dosanma1/crxpack/internal/workspace"
)

var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Empty the output directory",
	Long: `Remove every top-level entry of the output directory except those matching
clean.keep (by default .git*).`,
	RunE: runClean,
}

func init() {
	rootCmd.AddCommand(cleanCmd)
}

func runClean(cmd *cobra.Command, args []string) error {
	ctx, cfg, err := setup(cmd)
	if err != nil {
		return err
	}

	report, err := workspace.Reset(ctx, cfg.DistDir(), cfg.Clean.Keep)
	if err != nil {
		return err
	}

	for _, name := range report.Removed {
		fmt.Printf("🗑️  Removed %s\n", name)
	}
	fmt.Printf("✅ Clean completed (%d removed, %d kept)\n", len(report.Removed), len(report.Kept))
	return nil
}
