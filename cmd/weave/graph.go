package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aretw0/weave/internal/cli"
	"github.com/aretw0/weave/internal/presentation/graph"
)

var graphCmd = &cobra.Command{
	Use:   "graph [definition.yaml | graph-name]",
	Short: "Export the pipeline as a Mermaid diagram",
	Long:  `Compiles the pipeline and prints a Mermaid flowchart (graph TD) of its nodes and edges.`,
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		source := ""
		if len(args) > 0 {
			source = args[0]
		}
		g, err := cli.LoadGraph(source, cli.NewRegistry())
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), graph.GenerateMermaid(g, nil))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)
}
