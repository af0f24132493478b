package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/embench/evalcore/internal/fakesim"
	"github.com/embench/evalcore/internal/refagent"
	"github.com/embench/evalcore/pkg/coordinator"
	"github.com/embench/evalcore/pkg/model"
	"github.com/embench/evalcore/pkg/runner"
	"github.com/embench/evalcore/pkg/runspec"
	"github.com/embench/evalcore/pkg/selector"
	"github.com/embench/evalcore/pkg/simcontract"
	"github.com/embench/evalcore/pkg/statusapi"
	"github.com/embench/evalcore/pkg/store"
	"github.com/embench/evalcore/pkg/tracing"
)

// newRunCommand returns the default command: resolve a RunSpec from the
// optional config bundle plus these flag overrides, then drive every
// selected scenario through the run coordinator (§4.6, §6 CLI surface).
func newRunCommand() *cli.Command {
	return &cli.Command{
		Name:  "run",
		Usage: "run an evaluation over the selected scenarios",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Usage: "path to a YAML configuration bundle"},
			&cli.StringFlag{Name: "agent-type", Usage: "single | centralized-multi | decentralized-multi"},
			&cli.StringFlag{Name: "task-type", Usage: "sequential | combined | independent"},
			&cli.StringFlag{Name: "scenarios", Usage: `"all", "START:END" (range), or a comma-separated id list`},
			&cli.StringFlag{Name: "task-categories", Usage: "comma-separated category filter"},
			&cli.StringFlag{Name: "agent-count-filter", Usage: "any | single | multi"},
			&cli.IntFlag{Name: "parallel", Usage: "bounded worker process count"},
			&cli.StringFlag{Name: "suffix", Usage: "custom run-name suffix"},
			&cli.StringFlag{Name: "output", Usage: "output directory root"},
			&cli.BoolFlag{Name: "dry-run", Usage: "resolve and print the scenario selection without running it"},
			&cli.StringFlag{Name: "status-addr", Usage: "optional host:port to serve /health and /status"},
		},
		Action: runAction,
	}
}

func runAction(ctx context.Context, cmd *cli.Command) error {
	spec, err := runspec.Load(ctx, cmd.String("config"))
	if err != nil {
		return err
	}
	applyRunFlags(spec, cmd)
	if err := spec.Validate(); err != nil {
		return err
	}

	startedAt := time.Now()
	runName := spec.RunName(startedAt)

	if cmd.Bool("dry-run") {
		scenarioIDs, err := selector.Select(slog.Default(), spec)
		if err != nil {
			return err
		}
		fmt.Printf("run %s would execute %d scenario(s):\n", runName, len(scenarioIDs))
		for _, id := range scenarioIDs {
			fmt.Println(" ", id)
		}
		return nil
	}

	runDir := spec.OutputDir + string(os.PathSeparator) + runName
	registry, err := store.Open(runDir)
	if err != nil {
		return err
	}

	binaryPath, err := os.Executable()
	if err != nil {
		return fmt.Errorf("resolving evalcore executable path: %w", err)
	}

	coord := coordinator.New(slog.Default(), spec, registry, runName, binaryPath, cmd.String("config"))

	if addr := cmd.String("status-addr"); addr != "" {
		go serveStatus(addr, coord)
	}

	summary, runErr := coord.Run(ctx)
	fmt.Printf("run %s finished: %d scenario(s), %d failed, overall accuracy %.2f\n",
		runName, summary.RunInfo.ScenarioCount, len(summary.FailedScenarios), summary.OverallSummary.Accuracy)
	return runErr
}

func serveStatus(addr string, coord *coordinator.Coordinator) {
	for coord.Reporter == nil {
		time.Sleep(10 * time.Millisecond)
	}
	router := statusapi.NewRouter(coord.Reporter)
	if err := router.Run(addr); err != nil {
		slog.Error("status server exited", "error", err)
	}
}

// applyRunFlags layers explicit CLI flags over the loaded RunSpec; an unset
// flag leaves whatever the bundle/defaults already produced standing.
func applyRunFlags(spec *runspec.RunSpec, cmd *cli.Command) {
	if v := cmd.String("agent-type"); v != "" {
		spec.AgentMode = model.AgentMode(v)
	}
	if v := cmd.String("task-type"); v != "" {
		spec.TaskRegime = model.TaskRegime(v)
	}
	if v := cmd.String("scenarios"); v != "" {
		spec.ScenarioSelection = parseSelection(v)
	}
	if v := cmd.String("task-categories"); v != "" {
		spec.TaskFilter.Categories = strings.Split(v, ",")
	}
	if v := cmd.String("agent-count-filter"); v != "" {
		spec.TaskFilter.RequiredAgentCount = model.AgentCountFilter(v)
	}
	if cmd.IsSet("parallel") {
		spec.Parallelism = int(cmd.Int("parallel"))
	}
	if v := cmd.String("suffix"); v != "" {
		spec.CustomSuffix = v
	}
	if v := cmd.String("output"); v != "" {
		spec.OutputDir = v
	}
}

func parseSelection(raw string) runspec.ScenarioSelection {
	if raw == "all" {
		return runspec.ScenarioSelection{Mode: model.SelectionAll}
	}
	if start, end, ok := strings.Cut(raw, ":"); ok {
		return runspec.ScenarioSelection{Mode: model.SelectionRange, Start: start, End: end}
	}
	return runspec.ScenarioSelection{Mode: model.SelectionList, IDs: strings.Split(raw, ",")}
}

// simulatorFactory and agentFactory are shared by the run and worker
// subcommands so both build collaborators the same way.
func simulatorFactory() runner.SimulatorFactory {
	return func(ctx context.Context, scenarioID string, scene any, agentConfigs []model.AgentConfig) (simcontract.Simulator, error) {
		return fakesim.New(scene), nil
	}
}

func agentFactory(providerOverride string) runner.AgentFactory {
	provider := providerOverride
	if provider == "" {
		provider = "anthropic"
	}
	apiKey := os.Getenv("ANTHROPIC_API_KEY")
	modelName := os.Getenv("EVALCORE_AGENT_MODEL")
	if provider == "openai" {
		apiKey = os.Getenv("OPENAI_API_KEY")
		if modelName == "" {
			modelName = "gpt-4o"
		}
	} else if modelName == "" {
		modelName = "claude-sonnet-4-5"
	}
	maxTokens := 1024
	if v := os.Getenv("EVALCORE_AGENT_MAX_TOKENS"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			maxTokens = parsed
		}
	}

	cfg := refagent.Config{Provider: provider, APIKey: apiKey, Model: modelName, MaxTokens: maxTokens, Temperature: 0.2}
	return func(ctx context.Context, agentCfg model.AgentConfig) (simcontract.Agent, error) {
		return refagent.New(cfg, agentCfg)
	}
}

// setupTracing builds the run's tracing Provider from spec.Tracing. With
// tracing disabled, tracing.Setup still returns a usable Provider backed by
// the global tracer, so callers never handle a nil Provider.
func setupTracing(ctx context.Context, runName string, spec *runspec.RunSpec) (*tracing.Provider, error) {
	return tracing.Setup(ctx, runName, spec.Tracing)
}
