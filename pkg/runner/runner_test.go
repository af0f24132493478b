package runner

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/embench/evalcore/pkg/model"
	"github.com/embench/evalcore/pkg/runspec"
	"github.com/embench/evalcore/pkg/simcontract"
	"github.com/embench/evalcore/pkg/store"
	"github.com/embench/evalcore/pkg/tracing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixedSimulator struct{ satisfied int }

func (s *fixedSimulator) Describe(ctx context.Context, opts simcontract.DescribeOptions) (string, error) {
	return "room description", nil
}
func (s *fixedSimulator) Apply(ctx context.Context, agentID, command string) (simcontract.ApplyResult, error) {
	s.satisfied++
	return simcontract.ApplyResult{Status: simcontract.ApplyStatusSuccess}, nil
}
func (s *fixedSimulator) VerifySubtasks(ctx context.Context, task any) (map[int]bool, error) {
	return map[int]bool{1: s.satisfied > 0}, nil
}
func (s *fixedSimulator) Reset(ctx context.Context) (simcontract.Simulator, error) { return s, nil }

type oneShotAgent struct{ done bool }

func (a *oneShotAgent) SetTask(ctx context.Context, description string) error { return nil }
func (a *oneShotAgent) Decide(ctx context.Context, env string) (simcontract.DecideResult, error) {
	if a.done {
		return simcontract.DecideResult{ExtractedCommand: "DONE"}, nil
	}
	a.done = true
	return simcontract.DecideResult{ExtractedCommand: "act"}, nil
}
func (a *oneShotAgent) Reset(ctx context.Context) error                          { return nil }
func (a *oneShotAgent) RecordQA(ctx context.Context, qa simcontract.QARecord) error { return nil }

func seedScenario(t *testing.T, datasetDir, scenarioID string, tasks []model.Task) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Join(datasetDir, "scene"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(datasetDir, "task"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(datasetDir, "scene", scenarioID+"_scene.json"), []byte(`{"rooms":[]}`), 0o644))
	data, err := json.Marshal(model.Scenario{
		ScenarioID:   scenarioID,
		Tasks:        tasks,
		AgentConfigs: []model.AgentConfig{{AgentID: "agent_0"}},
	})
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(datasetDir, "task", scenarioID+"_task.json"), data, 0o644))
}

func newTestRunner(t *testing.T, spec *runspec.RunSpec) (*Runner, *store.Registry) {
	t.Helper()
	reg, err := store.Open(t.TempDir())
	require.NoError(t, err)
	tracer, err := tracing.Setup(context.Background(), "test", runspec.TracingConfig{Enabled: false})
	require.NoError(t, err)

	simFac := func(ctx context.Context, scenarioID string, scene any, cfgs []model.AgentConfig) (simcontract.Simulator, error) {
		return &fixedSimulator{}, nil
	}
	agentFac := func(ctx context.Context, cfg model.AgentConfig) (simcontract.Agent, error) {
		return &oneShotAgent{}, nil
	}

	return New(nil, spec, reg, tracer, simFac, agentFac), reg
}

func TestRunScenarioSequential(t *testing.T) {
	datasetDir := t.TempDir()
	seedScenario(t, datasetDir, "scn_001", []model.Task{
		{TaskIndex: 1, Description: "pick up mug", Category: "manipulation"},
		{TaskIndex: 2, Description: "go to kitchen", Category: "navigation"},
	})
	spec := &runspec.RunSpec{DatasetDir: datasetDir, TaskRegime: model.RegimeSequential, StepBudget: 5, Retry: runspec.RetryPolicy{MaxAttempts: 1, BaseDelay: 1, MaxDelay: 1, CallTimeout: 1_000_000_000}}
	r, reg := newTestRunner(t, spec)

	result := r.RunScenario(context.Background(), "scn_001")

	require.NoError(t, result.Err)
	require.Len(t, result.TaskResults, 2)
	assert.Equal(t, model.FinalizeTerminator, result.TaskResults[0].FinalizeReason)

	data, err := os.ReadFile(reg.CSVPath())
	require.NoError(t, err)
	assert.Contains(t, string(data), "scn_001")
}

func TestRunScenarioCombinedProducesOneTrajectory(t *testing.T) {
	datasetDir := t.TempDir()
	seedScenario(t, datasetDir, "scn_002", []model.Task{
		{TaskIndex: 1, Description: "pick up mug"},
		{TaskIndex: 2, Description: "go to kitchen"},
	})
	spec := &runspec.RunSpec{DatasetDir: datasetDir, TaskRegime: model.RegimeCombined, StepBudget: 5, Retry: runspec.RetryPolicy{MaxAttempts: 1, BaseDelay: 1, MaxDelay: 1, CallTimeout: 1_000_000_000}}
	r, _ := newTestRunner(t, spec)

	result := r.RunScenario(context.Background(), "scn_002")

	require.NoError(t, result.Err)
	require.Len(t, result.TaskResults, 1)
	assert.Contains(t, result.TaskResults[0].Description, "THEN")
}

func TestRunScenarioLoadErrorIsReported(t *testing.T) {
	spec := &runspec.RunSpec{DatasetDir: t.TempDir(), TaskRegime: model.RegimeSequential, StepBudget: 5}
	r, _ := newTestRunner(t, spec)

	result := r.RunScenario(context.Background(), "scn_missing")

	assert.Error(t, result.Err)
	assert.Empty(t, result.TaskResults)
}
