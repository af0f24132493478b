// Package runner implements the scenario runner (C5): one invocation per
// scenario, loading its on-disk artifacts, instantiating a simulator and
// agent(s), dispatching to the task executor (C4) per the configured
// regime, and assembling the per-task results C6 folds into the run
// summary (§4.5). A Runner holds no shared mutable state with the
// coordinator or other runners except through files via the trajectory
// store — it is safe to run inside an isolated worker process.
package runner

import (
	"context"
	"time"

	"github.com/embench/evalcore/pkg/executor"
	"github.com/embench/evalcore/pkg/model"
	"github.com/embench/evalcore/pkg/simcontract"
)

// SimulatorFactory instantiates a simulator seeded with one scenario's scene
// and agent roster. The concrete simulator's room/object graph and action
// semantics are out of scope here (§1) — the factory is supplied by the
// binary wiring the core together (cmd/evalcore).
type SimulatorFactory func(ctx context.Context, scenarioID string, scene any, agentConfigs []model.AgentConfig) (simcontract.Simulator, error)

// AgentFactory instantiates one agent for one agent config. Prompt
// construction and provider wiring are out of scope here (§1).
type AgentFactory func(ctx context.Context, cfg model.AgentConfig) (simcontract.Agent, error)

// Result is the structured value C5 returns to C6 per scenario (§4.5 step 7).
type Result struct {
	ScenarioID  string
	TaskResults []executor.TaskExecution
	StartTime   time.Time
	EndTime     time.Time
	Err         error // non-nil only for a scenario-level load/setup failure
}

// DurationSeconds is the scenario's total wall-clock span.
func (r Result) DurationSeconds() float64 {
	return r.EndTime.Sub(r.StartTime).Seconds()
}
