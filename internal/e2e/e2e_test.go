// Package e2e drives the full C3-C5 path (selector, runner, executor)
// against internal/fakesim and a scripted stub agent, end to end through a
// real store.Registry on a temp directory. Each test mirrors one of the
// run-wide properties the base scenarios exercise. The interrupted-run
// scenario is not exercised here, since it is about OS signal delivery to a
// subprocess rather than anything C5 itself decides; pkg/coordinator's tests
// cover the process pool's success, failure and size-bound paths, not an
// interrupt.
package e2e

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/embench/evalcore/internal/fakesim"
	"github.com/embench/evalcore/internal/testutil"
	"github.com/embench/evalcore/pkg/model"
	"github.com/embench/evalcore/pkg/runner"
	"github.com/embench/evalcore/pkg/runspec"
	"github.com/embench/evalcore/pkg/simcontract"
	"github.com/embench/evalcore/pkg/store"
	"github.com/embench/evalcore/pkg/tracing"
	"github.com/stretchr/testify/require"
)

// scriptedAgent replays a fixed command script across its whole lifetime,
// then answers DONE forever once exhausted.
type scriptedAgent struct {
	mu     sync.Mutex
	script []string
	idx    int
}

func newScriptedAgent(script ...string) *scriptedAgent {
	return &scriptedAgent{script: script}
}

// SetTask does not reset the script cursor: a continuous agent session
// (sequential/combined regimes) must keep advancing through one script
// across tasks, exactly as a real conversational agent would carry its
// history forward. Reset is the only thing that rewinds it.
func (a *scriptedAgent) SetTask(ctx context.Context, description string) error {
	return nil
}

func (a *scriptedAgent) Decide(ctx context.Context, environmentDescription string) (simcontract.DecideResult, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.idx >= len(a.script) {
		return simcontract.DecideResult{RawResponse: "DONE", ExtractedCommand: "DONE"}, nil
	}
	cmd := a.script[a.idx]
	a.idx++
	return simcontract.DecideResult{RawResponse: cmd, ExtractedCommand: cmd}, nil
}

func (a *scriptedAgent) Reset(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.idx = 0
	return nil
}

func (a *scriptedAgent) RecordQA(ctx context.Context, qa simcontract.QARecord) error { return nil }

func baseSpec(t *testing.T, datasetDir string) *runspec.RunSpec {
	t.Helper()
	return &runspec.RunSpec{
		AgentMode:   model.AgentModeSingle,
		DatasetDir:  datasetDir,
		OutputDir:   t.TempDir(),
		StepBudget:  50,
		Parallelism: 1,
		Retry:       runspec.RetryPolicy{MaxAttempts: 1, BaseDelay: 1, MaxDelay: 1, CallTimeout: 1_000_000_000},
	}
}

func noopTracer(t *testing.T) *tracing.Provider {
	t.Helper()
	p, err := tracing.Setup(context.Background(), "e2e", runspec.TracingConfig{Enabled: false})
	require.NoError(t, err)
	return p
}

func readTrajectory(t *testing.T, runDir, scenarioID string) []model.TaskTrajectory {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(runDir, "trajectories", scenarioID+"_trajectory.json"))
	require.NoError(t, err)
	var traj []model.TaskTrajectory
	require.NoError(t, json.Unmarshal(data, &traj))
	return traj
}

// Scenario A: sequential regime, two tasks, only the second succeeds. T1's
// commands are all rejected as invalid so its subtask never becomes
// satisfied; T2's commands succeed and its single subtask is satisfied
// before it claims DONE.
func TestSequentialRegimeSecondTaskOnlySucceeds(t *testing.T) {
	dataset := testutil.NewDataset(t)
	scenario := model.Scenario{
		ScenarioID: "00001",
		Scene:      map[string]any{"rooms": []string{"a", "b"}},
		Tasks: []model.Task{
			{TaskIndex: 0, Description: "fetch the mug", Category: "direct_command"},
			{TaskIndex: 1, Description: "use the tool", Category: "tool_use"},
		},
		AgentConfigs: []model.AgentConfig{{AgentID: "agent_0"}},
	}
	testutil.SeedDataset(t, dataset, scenario)

	spec := baseSpec(t, dataset)
	spec.TaskRegime = model.RegimeSequential
	registry, err := store.Open(filepath.Join(spec.OutputDir, "run"))
	require.NoError(t, err)

	sim := fakesim.New(scenario.Scene).WithInvalidCommand("go north").WithInvalidCommand("grab obj")
	// Sequential regime reuses one agent session across both tasks, so a
	// single script covers T1's rejected commands and its DONE, followed by
	// T2's successful ones.
	agent := newScriptedAgent("go north", "grab obj", "DONE", "go south", "use tool_x")

	r := runner.New(nil, spec, registry, noopTracer(t), func(ctx context.Context, scenarioID string, scene any, cfgs []model.AgentConfig) (simcontract.Simulator, error) {
		return sim, nil
	}, func(ctx context.Context, cfg model.AgentConfig) (simcontract.Agent, error) { return agent, nil })

	result := r.RunScenario(context.Background(), scenario.ScenarioID)
	require.NoError(t, result.Err)
	require.Len(t, result.TaskResults, 2)

	t1 := result.TaskResults[0]
	checks := require.New(t)
	checks.False(t1.Analysis.ActuallyCompleted)

	traj := readTrajectory(t, registry.RunDir(), scenario.ScenarioID)
	checks.Len(traj, 2)
	checks.Empty(traj[0].SubtaskCompletions)

	data, err := os.ReadFile(registry.CSVPath())
	require.NoError(t, err)
	rows, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	require.NoError(t, err)
	checks.Equal(3, len(rows)) // header + one row per task
}

// Scenario B: combined regime with three sub-goals. The agent performs two
// successful applies then claims DONE, leaving the third sub-goal
// unsatisfied: the model's claim and the verifier's ruling disagree, which
// completion.Classify must report as premature.
func TestCombinedRegimeClaimsDoneBeforeAllSubtasksSatisfied(t *testing.T) {
	dataset := testutil.NewDataset(t)
	scenario := model.Scenario{
		ScenarioID: "00002",
		Scene:      map[string]any{},
		Tasks: []model.Task{
			{TaskIndex: 0, Description: "open the door", Category: "direct_command", Verifier: []any{"goal_a"}},
			{TaskIndex: 1, Description: "carry the box", Category: "direct_command", Verifier: []any{"goal_b"}},
			{TaskIndex: 2, Description: "place the box", Category: "direct_command", Verifier: []any{"goal_c"}},
		},
		AgentConfigs: []model.AgentConfig{{AgentID: "agent_0"}},
	}
	testutil.SeedDataset(t, dataset, scenario)

	spec := baseSpec(t, dataset)
	spec.TaskRegime = model.RegimeCombined
	registry, err := store.Open(filepath.Join(spec.OutputDir, "run"))
	require.NoError(t, err)

	sim := fakesim.New(scenario.Scene)
	agent := newScriptedAgent("step one", "step two")

	r := runner.New(nil, spec, registry, noopTracer(t), func(ctx context.Context, scenarioID string, scene any, cfgs []model.AgentConfig) (simcontract.Simulator, error) {
		return sim, nil
	}, func(ctx context.Context, cfg model.AgentConfig) (simcontract.Agent, error) { return agent, nil })

	result := r.RunScenario(context.Background(), scenario.ScenarioID)
	require.NoError(t, result.Err)
	require.Len(t, result.TaskResults, 1)

	tr := result.TaskResults[0]
	require.NotNil(t, tr.Analysis)
	require.True(t, tr.Analysis.ModelClaimedCompletion)
	require.False(t, tr.Analysis.ActuallyCompleted)
	require.Equal(t, model.AccuracyPremature, tr.Analysis.Accuracy)

	traj := readTrajectory(t, registry.RunDir(), scenario.ScenarioID)
	require.Len(t, traj, 1)
	require.Len(t, traj[0].SubtaskCompletions, 2) // goal_a and goal_b satisfied; goal_c never
}

// Scenario C: independent regime re-seeds a fresh simulator per
// constituent task, so a second task never observes state the first task
// left behind.
func TestIndependentRegimeResetsSimulatorBetweenTasks(t *testing.T) {
	dataset := testutil.NewDataset(t)
	scenario := model.Scenario{
		ScenarioID: "00003",
		Scene:      map[string]any{"door": map[string]any{"open": false}},
		Tasks: []model.Task{
			{TaskIndex: 0, Description: "open the door", Category: "direct_command"},
			{TaskIndex: 1, Description: "open the door again", Category: "direct_command"},
		},
		AgentConfigs: []model.AgentConfig{{AgentID: "agent_0"}},
	}
	testutil.SeedDataset(t, dataset, scenario)

	spec := baseSpec(t, dataset)
	spec.TaskRegime = model.RegimeIndependent
	registry, err := store.Open(filepath.Join(spec.OutputDir, "run"))
	require.NoError(t, err)

	var built []*fakesim.Simulator
	var mu sync.Mutex
	simFac := func(ctx context.Context, scenarioID string, scene any, cfgs []model.AgentConfig) (simcontract.Simulator, error) {
		mu.Lock()
		defer mu.Unlock()
		sim := fakesim.New(scene)
		built = append(built, sim)
		return sim, nil
	}
	agentFac := func(ctx context.Context, cfg model.AgentConfig) (simcontract.Agent, error) {
		return newScriptedAgent("open door"), nil
	}

	r := runner.New(nil, spec, registry, noopTracer(t), simFac, agentFac)
	result := r.RunScenario(context.Background(), scenario.ScenarioID)
	require.NoError(t, result.Err)
	require.Len(t, result.TaskResults, 2)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, built, 2, "independent regime must build one simulator per task")
	require.NotSame(t, built[0], built[1])
}

// Scenario D: four scenarios driven concurrently against the same
// Registry must each produce a well-formed, independent trajectory file
// and a CSV row per task, with no cross-scenario interference.
func TestConcurrentScenariosProduceIndependentArtifacts(t *testing.T) {
	dataset := testutil.NewDataset(t)
	var ids []string
	for i := 1; i <= 4; i++ {
		id := scenarioID(i)
		ids = append(ids, id)
		testutil.SeedDataset(t, dataset, model.Scenario{
			ScenarioID:   id,
			Scene:        map[string]any{},
			Tasks:        []model.Task{{TaskIndex: 0, Description: "act", Category: "direct_command"}},
			AgentConfigs: []model.AgentConfig{{AgentID: "agent_0"}},
		})
	}

	spec := baseSpec(t, dataset)
	spec.TaskRegime = model.RegimeSequential
	registry, err := store.Open(filepath.Join(spec.OutputDir, "run"))
	require.NoError(t, err)

	tracer := noopTracer(t)
	errs := make(chan error, len(ids))
	var wg sync.WaitGroup
	for _, id := range ids {
		wg.Add(1)
		go func(scenarioID string) {
			defer wg.Done()
			sim := fakesim.New(nil)
			r := runner.New(nil, spec, registry, tracer,
				func(ctx context.Context, sid string, scene any, cfgs []model.AgentConfig) (simcontract.Simulator, error) {
					return sim, nil
				},
				func(ctx context.Context, cfg model.AgentConfig) (simcontract.Agent, error) {
					return newScriptedAgent("act"), nil
				})
			res := r.RunScenario(context.Background(), scenarioID)
			errs <- res.Err
		}(id)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	for _, id := range ids {
		traj := readTrajectory(t, registry.RunDir(), id)
		require.Len(t, traj, 1)
	}

	data, err := os.ReadFile(registry.CSVPath())
	require.NoError(t, err)
	rows, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	require.NoError(t, err)
	require.Equal(t, 5, len(rows)) // header + 4 scenarios x 1 task
}

func scenarioID(i int) string {
	return fmt.Sprintf("%05d", i)
}
