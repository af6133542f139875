package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/menezmethod/memoria/internal/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the build version",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, _ []string) {
		out := "memoria " + version.Version
		if version.Commit != "" {
			out += " (" + version.Commit + ")"
		}
		fmt.Fprintln(cmd.OutOrStdout(), out)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
