// Package main provides the evalkit command line tool.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ricesearch/evalkit/callback"
	"github.com/ricesearch/evalkit/internal/config"
	"github.com/ricesearch/evalkit/internal/pkg/logger"
	"github.com/ricesearch/evalkit/internal/telemetry"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	tel := telemetry.New()

	rootCmd := &cobra.Command{
		Use:   "evalkit",
		Short: "evalkit - evaluation metrics for gradient boosting",
		Long: `evalkit scores predictions with the metrics used to monitor
gradient-boosting training: normalized Gini, AP@k and MAP@k, MAPE, SMAPE,
RMSE, RMSLE and ROC-AUC.

Examples:
  evalkit score --data preds.yaml --metric gini --metric auc
  evalkit rank --data queries.yaml -k 10
  evalkit replay --data rounds.yaml --run exp-1 --patience 5`,
		SilenceUsage: true,
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			path, _ := cmd.Flags().GetString("metrics-out")
			if path == "" {
				return nil
			}
			return tel.WriteFile(path)
		},
	}

	// Global flags
	rootCmd.PersistentFlags().StringP("config", "c", "", "config file path")
	rootCmd.PersistentFlags().String("env-file", "", "load EVALKIT_* variables from a .env file")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().String("format", "text", "output format (text, json)")
	rootCmd.PersistentFlags().String("metrics-out", "", "write Prometheus metrics to this file on exit")

	rootCmd.AddCommand(
		scoreCmd(tel),
		rankCmd(tel),
		replayCmd(tel),
		metricsCmd(),
		versionCmd(),
	)

	return rootCmd
}

// setup loads configuration and builds the logger shared by all commands.
func setup(cmd *cobra.Command) (*config.Config, *logger.Logger, error) {
	configPath, _ := cmd.Flags().GetString("config")
	envFile, _ := cmd.Flags().GetString("env-file")
	verbose, _ := cmd.Flags().GetBool("verbose")

	if err := config.LoadDotEnv(envFile); err != nil {
		return nil, nil, err
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, err
	}

	level := cfg.Log.Level
	if verbose {
		level = "debug"
	}
	log := logger.New(level, cfg.Log.Format)
	log.Debug("config loaded", "path", configPath, "history", cfg.History.Backend, "bus", cfg.Bus.Type)

	return cfg, log, nil
}

func metricsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "metrics",
		Short: "List the available metrics",
		RunE: func(cmd *cobra.Command, args []string) error {
			var rows []callback.EvalResult
			for _, name := range callback.Names() {
				m, err := callback.Lookup(name)
				if err != nil {
					return err
				}
				rows = append(rows, callback.EvalResult{Name: m.Name, HigherIsBetter: m.HigherIsBetter})
			}

			if outputFormat(cmd) == "json" {
				return writeJSON(cmd.OutOrStdout(), rows)
			}
			w := newTable(cmd.OutOrStdout())
			fmt.Fprintln(w, "METRIC\tDIRECTION")
			for _, r := range rows {
				fmt.Fprintf(w, "%s\t%s\n", r.Name, direction(r.HigherIsBetter))
			}
			return w.Flush()
		},
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "evalkit %s\n", version)
			fmt.Fprintf(cmd.OutOrStdout(), "  commit: %s\n", commit)
			fmt.Fprintf(cmd.OutOrStdout(), "  built:  %s\n", date)
		},
	}
}

func outputFormat(cmd *cobra.Command) string {
	format, _ := cmd.Flags().GetString("format")
	return strings.ToLower(format)
}

func direction(higherIsBetter bool) string {
	if higherIsBetter {
		return "higher is better"
	}
	return "lower is better"
}
