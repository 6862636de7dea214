package main

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/ricesearch/evalkit/callback"
	"github.com/ricesearch/evalkit/internal/bus"
	"github.com/ricesearch/evalkit/internal/evaluation"
	"github.com/ricesearch/evalkit/internal/history"
	"github.com/ricesearch/evalkit/internal/telemetry"
)

type replaySummary struct {
	Run        string                `json:"run"`
	Dataset    string                `json:"dataset"`
	Iterations []replayIteration     `json:"iterations"`
	StoppedAt  *int                  `json:"stopped_at,omitempty"`
	Best       *history.Record       `json:"best,omitempty"`
	Final      []callback.EvalResult `json:"final,omitempty"`
}

type replayIteration struct {
	Iteration int                   `json:"iteration"`
	Results   []callback.EvalResult `json:"results"`
}

func replayCmd(tel *telemetry.Telemetry) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Replay per-iteration predictions through the evaluation history",
		Long: `Replay the iterations of a dataset file as a training loop would:
each round is scored, recorded in the configured history backend and
published on the configured bus. The first metric drives early stopping.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runReplay(cmd, tel)
		},
	}

	cmd.Flags().String("data", "", "dataset file with iterations (YAML or JSON)")
	cmd.Flags().String("run", "", "run identifier (generated when empty)")
	cmd.Flags().String("dataset", "valid", "evaluation dataset name")
	cmd.Flags().StringSliceP("metric", "m", nil, "metric to record (repeatable, first drives early stopping)")
	cmd.Flags().Int("patience", -1, "early stopping patience (default from config, 0 disables)")
	cmd.Flags().Bool("resume", false, "continue numbering from the stored history")
	cmd.Flags().Bool("reset", false, "delete the stored history of the run first")
	_ = cmd.MarkFlagRequired("data")

	return cmd
}

func runReplay(cmd *cobra.Command, tel *telemetry.Telemetry) error {
	cfg, log, err := setup(cmd)
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	dataPath, _ := cmd.Flags().GetString("data")
	run, _ := cmd.Flags().GetString("run")
	dataset, _ := cmd.Flags().GetString("dataset")
	names, _ := cmd.Flags().GetStringSlice("metric")
	patience, _ := cmd.Flags().GetInt("patience")
	resume, _ := cmd.Flags().GetBool("resume")
	reset, _ := cmd.Flags().GetBool("reset")

	if run == "" {
		run = uuid.New().String()
	}
	if err := history.ValidateName("run", run); err != nil {
		return err
	}
	if len(names) == 0 {
		names = cfg.Eval.Metrics
	}
	if patience < 0 {
		patience = cfg.History.Patience
	}

	ds, err := evaluation.LoadDataset(dataPath)
	if err != nil {
		return err
	}
	if len(ds.Iterations) == 0 {
		return fmt.Errorf("%s has no iterations", dataPath)
	}

	metrics := make([]callback.Metric, len(names))
	for i, name := range names {
		if metrics[i], err = callback.Lookup(name); err != nil {
			return err
		}
	}

	storage, err := history.NewStorage(cfg.History)
	if err != nil {
		return fmt.Errorf("failed to open history: %w", err)
	}
	defer func() { _ = storage.Close() }()

	eventBus, err := bus.NewBus(cfg.Bus, log)
	if err != nil {
		return fmt.Errorf("failed to create event bus: %w", err)
	}
	defer func() { _ = eventBus.Close() }()

	if reset {
		if err := storage.DeleteRun(ctx, run); err != nil {
			return err
		}
		log.WithRun(run, dataset).Info("history reset")
	}

	rec := history.NewRecorder(storage, eventBus, log).WithTelemetry(tel)
	offset := 0
	if resume {
		for i, m := range metrics {
			n, err := rec.Restore(ctx, run, dataset, m.Name)
			if err != nil {
				return err
			}
			if i == 0 {
				offset = n
			}
		}
		log.WithRun(run, dataset).Info("history restored", "iterations", offset)
	}

	mon, err := history.NewMonitor(rec, run, dataset, patience, metrics...)
	if err != nil {
		return err
	}

	summary := replaySummary{Run: run, Dataset: dataset}
	for i, it := range ds.Iterations {
		iteration := offset + i
		results, stop, err := mon.Evaluate(ctx, iteration, it.Predicted, callback.Labels(ds.LabelsFor(i)))
		if err != nil {
			return fmt.Errorf("iteration %d: %w", iteration, err)
		}
		summary.Iterations = append(summary.Iterations, replayIteration{Iteration: iteration, Results: results})
		summary.Final = results
		if stop {
			summary.StoppedAt = &iteration
			break
		}
	}

	if best, ok := mon.Best(); ok {
		summary.Best = &best
	}

	if outputFormat(cmd) == "json" {
		return writeJSON(cmd.OutOrStdout(), summary)
	}
	return printReplay(cmd, summary)
}

func printReplay(cmd *cobra.Command, s replaySummary) error {
	w := newTable(cmd.OutOrStdout())
	fmt.Fprint(w, "ITER")
	for _, r := range s.Final {
		fmt.Fprintf(w, "\t%s", r.Name)
	}
	fmt.Fprintln(w)

	for _, it := range s.Iterations {
		fmt.Fprintf(w, "%d", it.Iteration)
		for _, r := range it.Results {
			fmt.Fprintf(w, "\t%.6f", r.Value)
		}
		fmt.Fprintln(w)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if s.Best != nil {
		fmt.Fprintf(out, "best %s: %.6f at iteration %d\n", s.Best.Result.Name, s.Best.Result.Value, s.Best.Iteration)
	}
	if s.StoppedAt != nil {
		fmt.Fprintf(out, "early stop at iteration %d\n", *s.StoppedAt)
	}
	return nil
}
