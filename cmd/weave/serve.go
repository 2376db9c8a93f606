package main

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/aretw0/weave/internal/cli"
	"github.com/aretw0/weave/pkg/observability"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long: `Serves the built-in pipelines and any given definitions over HTTP, with
Prometheus metrics at /metrics.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, logger, err := loadSettings(cmd)
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("addr") {
			s.HTTP.Addr, _ = cmd.Flags().GetString("addr")
		}
		files, _ := cmd.Flags().GetStringSlice("graph")

		graphs, err := cli.LoadGraphs(files, cli.NewRegistry())
		if err != nil {
			return err
		}

		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		metrics, err := observability.NewMetrics(reg)
		if err != nil {
			return err
		}

		engine, persistence, err := cli.NewEngine(cmd.Context(), s, logger, metrics.Hooks())
		if err != nil {
			return err
		}
		defer persistence.Close()

		return cli.Serve(cmd.Context(), engine, graphs, s.HTTP.Addr, reg, logger, cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("addr", ":8080", "Address to listen on")
	serveCmd.Flags().StringSlice("graph", nil, "Additional definition files to serve")
}
