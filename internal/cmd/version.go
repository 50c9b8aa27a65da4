package cmd

import (
	"fmt"
	"runtime/debug"

	"github.com/spf13/cobra"
)

// version is overridden at link time with -ldflags "-X ...cmd.version=".
var version = "0.1.0"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the crxpack version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("crxpack %s\n", version)
		if info, ok := debug.ReadBuildInfo(); ok {
			fmt.Printf("go %s\n", info.GoVersion)
		}
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
