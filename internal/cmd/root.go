package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var (
	configPath string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "crxpack",
	Short: "crxpack - Browser extension build pipeline",
	Long: `crxpack lints, bundles and packages a browser extension.

It checks the extension scripts, concatenates and minifies the assets named in
HTML build blocks, copies static files, rewrites references, stamps the
manifest with a new build number and zips a release artifact.

Running crxpack without a command is the same as "crxpack default".`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runDefault,
}

// Execute runs the root command. Interrupts cancel the command's context.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to crxpack.yaml (default: searched from the working directory upwards)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Show debug logs")
}
