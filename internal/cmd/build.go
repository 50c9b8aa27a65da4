package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Build the extension into the output directory",
	Long: `Discover sources, plan bundles from the HTML build blocks and execute the plan:
bundle and minify scripts and styles, copy static files, rewrite references
and minify HTML. No lint is run.`,
	RunE: runBuild,
}

func init() {
	rootCmd.AddCommand(buildCmd)
}

func runBuild(cmd *cobra.Command, args []string) error {
	ctx, cfg, err := setup(cmd)
	if err != nil {
		return err
	}

	fmt.Println("🔨 Building...")
	res, err := newPipeline(cfg).Build(ctx)
	if err != nil {
		return err
	}

	printSummary(res)
	fmt.Printf("✅ Build completed in %s\n", formatDuration(res.Duration()))
	return nil
}
