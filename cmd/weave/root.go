package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/weave/internal/cli"
	"github.com/aretw0/weave/internal/config"
)

var rootCmd = &cobra.Command{
	Use:   "weave",
	Short: "weave runs declarative processing pipelines",
	Long: `weave compiles pipelines of named steps joined by static and conditional
edges, runs them with per-step checkpoints and resumes them after failures.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().String("config", "", "Path to a YAML config file")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().String("backend", "", "Checkpoint backend: none, memory, file, redis, postgres, s3")
}

// loadSettings reads the config file and environment, then applies flags.
func loadSettings(cmd *cobra.Command) (config.Settings, *slog.Logger, error) {
	path, _ := cmd.Flags().GetString("config")
	s, err := config.Load(path, os.Environ())
	if err != nil {
		return s, nil, err
	}

	if cmd.Flags().Changed("log-level") {
		s.LogLevel, _ = cmd.Flags().GetString("log-level")
	}
	if cmd.Flags().Changed("backend") {
		s.Checkpoint.Backend, _ = cmd.Flags().GetString("backend")
	}
	if cmd.Flags().Lookup("max-steps") != nil && cmd.Flags().Changed("max-steps") {
		s.MaxSteps, _ = cmd.Flags().GetInt("max-steps")
	}
	if err := s.Validate(); err != nil {
		return s, nil, err
	}

	logger, err := cli.NewLogger(s.LogLevel)
	if err != nil {
		return s, nil, err
	}
	return s, logger, nil
}
