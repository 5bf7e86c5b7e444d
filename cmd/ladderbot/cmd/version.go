package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Version is stamped by the build; the default marks local builds.
var Version = "dev"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the ladderbot version",
	Run: func(_ *cobra.Command, _ []string) {
		fmt.Println("ladderbot", Version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
