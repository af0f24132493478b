package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/urfave/cli/v3"

	"github.com/embench/evalcore/pkg/coordinator"
	"github.com/embench/evalcore/pkg/runner"
	"github.com/embench/evalcore/pkg/runspec"
	"github.com/embench/evalcore/pkg/store"
)

// newWorkerCommand returns the hidden per-scenario worker subcommand the
// run coordinator re-invokes the binary with (§5 Worker isolation). It is
// never meant to be typed by a human; Hidden keeps it out of --help.
func newWorkerCommand() *cli.Command {
	return &cli.Command{
		Name:   coordinator.WorkerSubcommand,
		Hidden: true,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "run-dir", Required: true},
			&cli.StringFlag{Name: "scenario-id", Required: true},
			&cli.StringFlag{Name: "invocation-id"},
			&cli.StringFlag{Name: "config"},
			&cli.StringFlag{Name: "agent-provider"},
		},
		Action: workerAction,
	}
}

func workerAction(ctx context.Context, cmd *cli.Command) error {
	spec, err := runspec.Load(ctx, cmd.String("config"))
	if err != nil {
		return err
	}
	if err := spec.Validate(); err != nil {
		return err
	}

	runDir := cmd.String("run-dir")
	scenarioID := cmd.String("scenario-id")
	log := slog.Default().With("scenario_id", scenarioID, "invocation_id", cmd.String("invocation-id"))

	registry, err := store.Open(runDir)
	if err != nil {
		return err
	}

	tracer, err := setupTracing(ctx, runDir, spec)
	if err != nil {
		return err
	}
	defer func() { _ = tracer.Shutdown(ctx) }()

	r := runner.New(log, spec, registry, tracer, simulatorFactory(), agentFactory(cmd.String("agent-provider")))
	result := r.RunScenario(ctx, scenarioID)
	if result.Err != nil {
		return fmt.Errorf("scenario %s failed: %w", scenarioID, result.Err)
	}
	return nil
}
