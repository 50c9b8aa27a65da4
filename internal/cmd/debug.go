package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dosanma1/crxpack/internal/watch"
)

var debugCmd = &cobra.Command{
	Use:   "debug",
	Short: "Build, then rebuild on every change",
	Long: `Run a build, then watch the source directory.

Script changes lint and build; HTML, style and manifest changes build. Changes
that arrive during a run are folded into one follow-up run. A failing run is
reported and watching continues. Press Ctrl-C to stop.`,
	RunE: runDebug,
}

func init() {
	rootCmd.AddCommand(debugCmd)
}

func runDebug(cmd *cobra.Command, args []string) error {
	ctx, cfg, err := setup(cmd)
	if err != nil {
		return err
	}

	p := newPipeline(cfg)

	fmt.Println("🔨 Building...")
	res, err := p.Build(ctx)
	if err != nil {
		return err
	}
	printSummary(res)
	fmt.Printf("✅ Build completed in %s\n", formatDuration(res.Duration()))

	orchestrator, err := watch.NewOrchestrator(cfg, p)
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	orchestrator.OnRun = func(run watch.Run) {
		if run.Err != nil {
			fmt.Printf("❌ Rebuild failed: %v\n", run.Err)
			return
		}
		fmt.Printf("✅ Rebuilt in %s (%d change(s))\n", formatDuration(run.Result.Duration()), len(run.Request.Paths))
	}

	fmt.Printf("👀 Watching %s (Ctrl-C to stop)\n", cfg.AppDir())
	if err := orchestrator.Run(ctx); err != nil {
		return err
	}
	fmt.Println("👋 Stopped watching")
	return nil
}
