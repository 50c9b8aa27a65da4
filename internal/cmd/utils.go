package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/dosanma1/crxpack/internal/config"
	"github.com/dosanma1/crxpack/internal/logging"
	"github.com/dosanma1/crxpack/internal/pipeline"
)

// setup resolves the config and returns a context carrying the CLI logger.
func setup(cmd *cobra.Command) (context.Context, *config.Config, error) {
	logger := logging.New(os.Stderr, verbose)
	ctx := logging.WithLogger(cmd.Context(), logger)

	cwd, err := os.Getwd()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get working directory: %w", err)
	}

	cfg, err := config.Resolve(configPath, cwd)
	if err != nil {
		return nil, nil, err
	}

	if cfg.File != "" {
		logger.Debug("Loaded config", "path", cfg.File)
	} else {
		logger.Debug("No crxpack.yaml found, using defaults", "dir", cfg.BaseDir)
	}
	return ctx, cfg, nil
}

// newPipeline creates the pipeline for cfg with the progress bar on stderr.
func newPipeline(cfg *config.Config) *pipeline.Pipeline {
	return pipeline.New(cfg, os.Stderr)
}

// printSummary prints the outcome of a sequence.
func printSummary(res *pipeline.Result) {
	if res == nil {
		return
	}
	if res.Lint != nil {
		fmt.Printf("🔍 Linted %d file(s), no problems\n", res.Lint.FilesTotal)
	}
	if res.Plan != nil {
		fmt.Printf("🧩 Bundled %d asset(s), copied %d file(s)\n", len(res.Bundles), res.Copied)
	}
	if res.Version != "" {
		fmt.Printf("🏷️  Manifest version %s\n", res.Version)
	}
	if res.Artifact != nil {
		fmt.Printf("📦 Packaged %s (%d files, %s)\n", res.Artifact.Path, res.Artifact.Files, formatBytes(res.Artifact.Size))
	}
}

func formatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}

func formatDuration(d time.Duration) string {
	return d.Round(time.Millisecond).String()
}
