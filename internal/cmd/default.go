package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var defaultCmd = &cobra.Command{
	Use:   "default",
	Short: "Lint, then build",
	Long: `Lint the extension scripts and crxpack.yaml, then run a build.

Any lint problem stops the run before the output directory is touched. The
lint report is written either way.`,
	RunE: runDefault,
}

func init() {
	rootCmd.AddCommand(defaultCmd)
}

func runDefault(cmd *cobra.Command, args []string) error {
	ctx, cfg, err := setup(cmd)
	if err != nil {
		return err
	}

	fmt.Println("🔨 Linting and building...")
	res, err := newPipeline(cfg).Default(ctx)
	if err != nil {
		return err
	}

	printSummary(res)
	fmt.Printf("✅ Build completed in %s\n", formatDuration(res.Duration()))
	return nil
}
