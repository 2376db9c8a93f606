package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/aretw0/weave/internal/cli"
	"github.com/aretw0/weave/pkg/session"
)

var checkpointCmd = &cobra.Command{
	Use:     "checkpoint",
	Aliases: []string{"cp"},
	Short:   "Manage run checkpoints",
	Long:    `List, inspect and remove the checkpoints of the configured backend.`,
}

var checkpointLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List runs with a checkpoint",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSessions(cmd, func(ctx context.Context, sessions *session.Manager) error {
			return cli.ListCheckpoints(ctx, sessions, cmd.OutOrStdout())
		})
	},
}

var checkpointInspectCmd = &cobra.Command{
	Use:   "inspect <run-id>",
	Short: "Print the checkpoint of a run",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSessions(cmd, func(ctx context.Context, sessions *session.Manager) error {
			return cli.InspectCheckpoint(ctx, sessions, args[0], cli.NewPrinter(cmd.OutOrStdout(), cli.FormatAuto))
		})
	},
}

var checkpointRmCmd = &cobra.Command{
	Use:   "rm <run-id>...",
	Short: "Remove one or more checkpoints",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSessions(cmd, func(ctx context.Context, sessions *session.Manager) error {
			return cli.RemoveCheckpoints(ctx, sessions, args, cmd.OutOrStdout())
		})
	},
}

func init() {
	rootCmd.AddCommand(checkpointCmd)
	checkpointCmd.AddCommand(checkpointLsCmd)
	checkpointCmd.AddCommand(checkpointInspectCmd)
	checkpointCmd.AddCommand(checkpointRmCmd)
}

// withSessions opens the configured backend for the duration of fn.
func withSessions(cmd *cobra.Command, fn func(context.Context, *session.Manager) error) error {
	s, logger, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	engine, persistence, err := cli.NewEngine(cmd.Context(), s, logger)
	if err != nil {
		return err
	}
	defer persistence.Close()
	return fn(cmd.Context(), engine.Sessions())
}
