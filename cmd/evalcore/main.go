// Command evalcore drives one embodied-agent benchmark run: it resolves
// and validates a RunSpec, then either runs the full scenario set (default
// "run" command), regenerates a run's summary from its already-written
// trajectories ("regen-summary"), or — invoked only by the coordinator
// itself, never by a human — executes exactly one scenario in isolation
// (the hidden worker subcommand).
package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v3"
)

func main() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		slog.Warn("failed to load .env", "error", err)
	}

	cmd := &cli.Command{
		Name:           "evalcore",
		Usage:          "evaluation orchestration core for embodied-agent benchmarking",
		DefaultCommand: "run",
		Commands: []*cli.Command{
			newRunCommand(),
			newRegenSummaryCommand(),
			newWorkerCommand(),
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}
