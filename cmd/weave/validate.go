package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aretw0/weave/internal/cli"
	"github.com/aretw0/weave/internal/validator"
)

var validateCmd = &cobra.Command{
	Use:   "validate <definition.yaml | graph-name>",
	Short: "Check a pipeline for consistency",
	Long: `Compiles the pipeline, reporting every structural error at once, then lists
unreachable nodes, nodes that end the run implicitly and unmapped routers.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		g, err := cli.LoadGraph(args[0], cli.NewRegistry())
		if err != nil {
			return fmt.Errorf("validation failed: %w", err)
		}

		out := cmd.OutOrStdout()
		report := validator.Lint(g)
		for _, name := range report.ImplicitTerminals {
			fmt.Fprintf(out, "note: node %q has no outgoing edge and ends the run\n", name)
		}
		for _, name := range report.DynamicRoutes {
			fmt.Fprintf(out, "note: node %q routes without a label mapping; reachability not checked\n", name)
		}
		if err := report.Err(); err != nil {
			return fmt.Errorf("validation failed: %w", err)
		}

		fmt.Fprintf(out, "Graph %q is valid (%d nodes).\n", g.Name(), len(g.Nodes()))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
