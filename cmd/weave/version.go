package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aretw0/weave"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of weave",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "weave version %s\n", weave.Version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
