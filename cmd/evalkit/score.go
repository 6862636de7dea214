package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ricesearch/evalkit/internal/evaluation"
	"github.com/ricesearch/evalkit/internal/telemetry"
	"github.com/ricesearch/evalkit/metric"
)

func scoreCmd(tel *telemetry.Telemetry) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "score",
		Short: "Score a dataset with one or more metrics",
		Long: `Score the actual/predicted arrays of a dataset file.

Metrics default to the configured list (EVALKIT_METRICS).`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runScore(cmd, tel)
		},
	}

	cmd.Flags().String("data", "", "dataset file (YAML or JSON)")
	cmd.Flags().StringSliceP("metric", "m", nil, "metric to compute (repeatable)")
	_ = cmd.MarkFlagRequired("data")

	return cmd
}

func runScore(cmd *cobra.Command, tel *telemetry.Telemetry) error {
	cfg, log, err := setup(cmd)
	if err != nil {
		return err
	}

	dataPath, _ := cmd.Flags().GetString("data")
	names, _ := cmd.Flags().GetStringSlice("metric")
	if len(names) == 0 {
		names = cfg.Eval.Metrics
	}

	ds, err := evaluation.LoadDataset(dataPath)
	if err != nil {
		return err
	}

	ev := evaluation.NewEvaluator(cfg.Eval.Workers, log).WithTelemetry(tel)
	results, err := ev.Score(cmd.Context(), ds.Actual, ds.Predicted, names)
	if err != nil {
		log.WithError(err).Error("scoring failed", "data", dataPath)
		return err
	}

	if outputFormat(cmd) == "json" {
		return writeJSON(cmd.OutOrStdout(), results)
	}
	w := newTable(cmd.OutOrStdout())
	fmt.Fprintln(w, "METRIC\tVALUE")
	for _, r := range results {
		fmt.Fprintf(w, "%s\t%.6f\n", r.Name, r.Value)
	}
	return w.Flush()
}

func rankCmd(tel *telemetry.Telemetry) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rank",
		Short: "Compute AP@k per query and MAP@k",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runRank(cmd, tel)
		},
	}

	cmd.Flags().String("data", "", "dataset file with queries (YAML or JSON)")
	cmd.Flags().IntP("k", "k", 0, fmt.Sprintf("ranking cutoff (default from config, %d)", metric.DefaultK))
	_ = cmd.MarkFlagRequired("data")

	return cmd
}

func runRank(cmd *cobra.Command, tel *telemetry.Telemetry) error {
	cfg, log, err := setup(cmd)
	if err != nil {
		return err
	}

	dataPath, _ := cmd.Flags().GetString("data")
	k, _ := cmd.Flags().GetInt("k")
	if k == 0 {
		k = cfg.Eval.K
	}

	ds, err := evaluation.LoadDataset(dataPath)
	if err != nil {
		return err
	}
	if len(ds.Queries) == 0 {
		return fmt.Errorf("%s has no queries", dataPath)
	}

	report, err := evaluation.NewEvaluator(cfg.Eval.Workers, log).WithTelemetry(tel).Evaluate(cmd.Context(), ds, nil, k)
	if err != nil {
		return err
	}

	if outputFormat(cmd) == "json" {
		return writeJSON(cmd.OutOrStdout(), report)
	}
	w := newTable(cmd.OutOrStdout())
	fmt.Fprintf(w, "QUERY\tAP@%d\tP@%d\tR@%d\tMRR\n", k, k, k)
	for _, q := range report.Queries {
		fmt.Fprintf(w, "%s\t%.6f\t%.4f\t%.4f\t%.4f\n", q.QueryID, q.AP, q.Precision, q.Recall, q.MRR)
	}
	s := report.Summary
	fmt.Fprintf(w, "MAP@%d\t%.6f\t%.4f\t%.4f\t%.4f\n", k, s.MAP, s.MeanPrecision, s.MeanRecall, s.MeanMRR)
	return w.Flush()
}
