package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/go-drift/bind/pkg/config"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "bindsoak version %s (built %s, config schema %s)\n", Version, BuildTime, config.SchemaVersion)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
