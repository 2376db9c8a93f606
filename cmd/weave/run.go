package main

import (
	"github.com/spf13/cobra"

	"github.com/aretw0/weave/internal/cli"
)

var runCmd = &cobra.Command{
	Use:   "run [definition.yaml | graph-name]",
	Short: "Run a pipeline",
	Long: `Runs a pipeline from a YAML definition or a built-in graph name.
Without an argument the enterprise compliance pipeline runs.`,
	Example: `  weave run --state '{"document":"..."}'
  weave run flow.yaml --run-id job-1 --stream
  weave run flow.yaml --run-id job-1 --resume`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, logger, err := loadSettings(cmd)
		if err != nil {
			return err
		}

		source := ""
		if len(args) > 0 {
			source = args[0]
		}
		g, err := cli.LoadGraph(source, cli.NewRegistry())
		if err != nil {
			return err
		}

		engine, persistence, err := cli.NewEngine(cmd.Context(), s, logger)
		if err != nil {
			return err
		}
		defer persistence.Close()

		state, _ := cmd.Flags().GetString("state")
		runID, _ := cmd.Flags().GetString("run-id")
		stream, _ := cmd.Flags().GetBool("stream")
		resume, _ := cmd.Flags().GetBool("resume")
		format, _ := cmd.Flags().GetString("format")

		return cli.RunGraph(cmd.Context(), engine, g, cli.RunOptions{
			Source: source,
			State:  state,
			RunID:  runID,
			Stream: stream,
			Resume: resume,
			Format: cli.Format(format),
			Out:    cmd.OutOrStdout(),
		})
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().String("state", "", "Initial state as a JSON object")
	runCmd.Flags().String("run-id", "", "Run id; keys checkpoints and enables --resume")
	runCmd.Flags().Bool("stream", false, "Print every step as it completes")
	runCmd.Flags().Bool("resume", false, "Continue the checkpointed run given by --run-id")
	runCmd.Flags().Int("max-steps", 0, "Step limit per nesting level (0 keeps the default)")
	runCmd.Flags().String("format", string(cli.FormatAuto), "Output format: auto, text, json")
}
