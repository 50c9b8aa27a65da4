package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dosanma1/crxpack/internal/discovery"
	"github.com/dosanma1/crxpack/internal/manifest"
	"github.com/dosanma1/crxpack/internal/usemin"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check the config, build plan and manifest without writing anything",
	RunE:  runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	_, cfg, err := setup(cmd)
	if err != nil {
		return err
	}
	if cfg.File != "" {
		fmt.Printf("✅ %s is valid\n", cfg.File)
	}

	src, err := discovery.Discover(cfg.AppDir(), map[string][]string{"plan": cfg.Plan.HTML})
	if err != nil {
		return err
	}
	plan, err := usemin.Prepare(src.Root, src.Files("plan"))
	if err != nil {
		return err
	}
	fmt.Printf("✅ Build plan is valid (%d block(s), %d bundle(s))\n", len(plan.Blocks), len(plan.Bundles()))

	m, err := manifest.Load(cfg.ManifestPath())
	if err != nil {
		return err
	}
	fmt.Printf("✅ Manifest is valid (%s %s)\n", m.Name, m.Version)
	return nil
}
