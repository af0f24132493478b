package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/embench/evalcore/pkg/coordinator"
	"github.com/embench/evalcore/pkg/runspec"
	"github.com/embench/evalcore/pkg/store"
)

// newRegenSummaryCommand rebuilds run_summary.json by re-walking a run
// directory's already-written execution logs and trajectories, without
// re-running any scenario. Useful after manually editing a trajectory, or
// after a crash that left run_summary.json stale or absent.
func newRegenSummaryCommand() *cli.Command {
	return &cli.Command{
		Name:  "regen-summary",
		Usage: "recompute run_summary.json from a run directory's existing logs",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "run-dir", Required: true},
			&cli.StringFlag{Name: "config", Usage: "bundle used for the original run, to recover parallelism"},
		},
		Action: regenSummaryAction,
	}
}

func regenSummaryAction(ctx context.Context, cmd *cli.Command) error {
	runDir := cmd.String("run-dir")

	spec, err := runspec.Load(ctx, cmd.String("config"))
	if err != nil {
		return err
	}

	prior := existingRunInfo(runDir)
	startedAt, endedAt := prior.StartTime, prior.EndTime
	if startedAt.IsZero() {
		startedAt = time.Now()
	}
	if endedAt.IsZero() {
		endedAt = time.Now()
	}

	summary, err := coordinator.BuildRunSummary(runDir, prior.RunName, spec, startedAt, endedAt,
		prior.Interrupted, nil, prior.SelectionDescriptor, prior.ScenarioCount, spec.Parallelism)
	if err != nil {
		return err
	}

	registry, err := store.Open(runDir)
	if err != nil {
		return err
	}
	if err := registry.WriteRunSummary(summary); err != nil {
		return err
	}

	fmt.Printf("regenerated %s: %d categories, overall accuracy %.2f\n",
		registry.RunSummaryPath(), len(summary.TaskCategoryStatistics), summary.OverallSummary.Accuracy)
	return nil
}

// existingRunInfo best-efforts recovering run_info from a previously-written
// run_summary.json; the caller reuses its run name, timestamps, interrupted
// flag, selection descriptor and scenario count, which BuildRunSummary can't
// derive from logs alone. Parallelism is taken from the loaded spec instead.
func existingRunInfo(runDir string) store.RunInfo {
	data, err := os.ReadFile(filepath.Join(runDir, "run_summary.json"))
	if err != nil {
		return store.RunInfo{RunName: filepath.Base(runDir)}
	}
	var existing store.RunSummary
	if err := json.Unmarshal(data, &existing); err != nil {
		return store.RunInfo{RunName: filepath.Base(runDir)}
	}
	return existing.RunInfo
}
