package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var releaseCmd = &cobra.Command{
	Use:   "release",
	Short: "Lint, stamp the manifest and package a release artifact",
	Long: `Create an artifact suitable for publishing to an extension store.

The release sequence lints, validates the build plan and the manifest, empties
the output directory (keeping entries that match clean.keep), increments the
manifest build number, builds, and zips the output directory into
<package>/<product>-<version>.zip.`,
	RunE: runRelease,
}

func init() {
	rootCmd.AddCommand(releaseCmd)
}

func runRelease(cmd *cobra.Command, args []string) error {
	ctx, cfg, err := setup(cmd)
	if err != nil {
		return err
	}

	fmt.Println("🚀 Releasing...")
	res, err := newPipeline(cfg).Release(ctx)
	if err != nil {
		return err
	}

	printSummary(res)
	fmt.Printf("✅ Release completed in %s\n", formatDuration(res.Duration()))
	return nil
}
