package executor

import (
	"context"
	"fmt"
	"testing"

	"github.com/embench/evalcore/pkg/model"
	"github.com/embench/evalcore/pkg/runspec"
	"github.com/embench/evalcore/pkg/simcontract"
	"github.com/embench/evalcore/pkg/store"
	"github.com/embench/evalcore/pkg/tracing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedSimulator satisfies every subtask after a fixed number of
// successful applies and never fails.
type scriptedSimulator struct {
	applyCount       int
	satisfyAfter     int
	applyErr         error
}

func (s *scriptedSimulator) Describe(ctx context.Context, opts simcontract.DescribeOptions) (string, error) {
	return "you are in a room", nil
}

func (s *scriptedSimulator) Apply(ctx context.Context, agentID, command string) (simcontract.ApplyResult, error) {
	if s.applyErr != nil {
		return simcontract.ApplyResult{}, s.applyErr
	}
	s.applyCount++
	return simcontract.ApplyResult{Status: simcontract.ApplyStatusSuccess, Message: "ok"}, nil
}

func (s *scriptedSimulator) VerifySubtasks(ctx context.Context, task any) (map[int]bool, error) {
	return map[int]bool{1: s.applyCount >= s.satisfyAfter}, nil
}

func (s *scriptedSimulator) Reset(ctx context.Context) (simcontract.Simulator, error) {
	return s, nil
}

// scriptedAgent emits commands from a fixed script, then "done".
type scriptedAgent struct {
	script []string
	calls  int
}

func (a *scriptedAgent) SetTask(ctx context.Context, description string) error { return nil }

func (a *scriptedAgent) Decide(ctx context.Context, environmentDescription string) (simcontract.DecideResult, error) {
	idx := a.calls
	a.calls++
	if idx >= len(a.script) {
		return simcontract.DecideResult{RawResponse: "DONE", ExtractedCommand: "DONE"}, nil
	}
	cmd := a.script[idx]
	return simcontract.DecideResult{RawResponse: cmd, ExtractedCommand: cmd}, nil
}

func (a *scriptedAgent) Reset(ctx context.Context) error { return nil }

func (a *scriptedAgent) RecordQA(ctx context.Context, qa simcontract.QARecord) error { return nil }

func testSpec() *runspec.RunSpec {
	spec := &runspec.RunSpec{
		StepBudget: 10,
		Retry:      runspec.RetryPolicy{MaxAttempts: 1, BaseDelay: 1, MaxDelay: 1, CallTimeout: 1_000_000_000},
	}
	return spec
}

func newTestHandle(t *testing.T) *store.Handle {
	t.Helper()
	reg, err := store.Open(t.TempDir())
	require.NoError(t, err)
	return reg.OpenScenario("scn_001")
}

func noopTracer(t *testing.T) *tracing.Provider {
	t.Helper()
	p, err := tracing.Setup(context.Background(), "test", runspec.TracingConfig{Enabled: false})
	require.NoError(t, err)
	return p
}

func TestRunTaskTerminatesOnAgentDone(t *testing.T) {
	sim := &scriptedSimulator{satisfyAfter: 2}
	agent := &scriptedAgent{script: []string{"go north", "pick up mug"}}
	handle := newTestHandle(t)

	ex := New(nil, testSpec(), sim, map[string]simcontract.Agent{"agent_0": agent}, handle, noopTracer(t))

	result, err := ex.RunTask(context.Background(), "scn_001", model.Task{TaskIndex: 1, Description: "pick up the mug"}, []string{"agent_0"})

	require.NoError(t, err)
	assert.Equal(t, model.FinalizeTerminator, result.FinalizeReason)
	assert.Equal(t, 2, result.DoneCommandStep)
	assert.Equal(t, 2, result.ActualCompletionStep)
	assert.True(t, result.Analysis.ModelClaimedCompletion)
	assert.True(t, result.Analysis.ActuallyCompleted)
	assert.Equal(t, model.AccuracyCorrect, result.Analysis.Accuracy)
}

func TestRunTaskFinalizesOnBudgetExhaustion(t *testing.T) {
	sim := &scriptedSimulator{satisfyAfter: 1000} // never satisfied
	agent := &scriptedAgent{script: []string{"wander", "wander", "wander"}}
	handle := newTestHandle(t)
	spec := testSpec()
	spec.StepBudget = 2

	ex := New(nil, spec, sim, map[string]simcontract.Agent{"agent_0": agent}, handle, noopTracer(t))

	result, err := ex.RunTask(context.Background(), "scn_001", model.Task{TaskIndex: 1, Description: "wander"}, []string{"agent_0"})

	require.NoError(t, err)
	assert.Equal(t, model.FinalizeBudgetExhausted, result.FinalizeReason)
	assert.False(t, result.Analysis.ModelClaimedCompletion)
	assert.Equal(t, model.AccuracyNeither, result.Analysis.Accuracy)
}

func TestRunTaskRecordsSimulatorErrorAndFinalizes(t *testing.T) {
	sim := &scriptedSimulator{applyErr: fmt.Errorf("boom")}
	agent := &scriptedAgent{script: []string{"go north"}}
	handle := newTestHandle(t)

	ex := New(nil, testSpec(), sim, map[string]simcontract.Agent{"agent_0": agent}, handle, noopTracer(t))

	result, err := ex.RunTask(context.Background(), "scn_001", model.Task{TaskIndex: 1, Description: "go north"}, []string{"agent_0"})

	require.Error(t, err)
	assert.Equal(t, model.FinalizeSimulatorError, result.FinalizeReason)
}

func TestRunTaskInvalidCommandDoesNotEndTask(t *testing.T) {
	sim := &scriptedSimulator{satisfyAfter: 1}
	agent := &scriptedAgent{script: []string{"", "pick up mug"}}
	handle := newTestHandle(t)

	ex := New(nil, testSpec(), sim, map[string]simcontract.Agent{"agent_0": agent}, handle, noopTracer(t))

	result, err := ex.RunTask(context.Background(), "scn_001", model.Task{TaskIndex: 1, Description: "pick up the mug"}, []string{"agent_0"})

	require.NoError(t, err)
	assert.Equal(t, 1, result.FailedSteps)
	assert.Equal(t, 1, result.SuccessfulSteps)
}

func TestRunTaskZeroStepBudgetFinalizesImmediately(t *testing.T) {
	sim := &scriptedSimulator{satisfyAfter: 1}
	agent := &scriptedAgent{script: []string{"go north"}}
	handle := newTestHandle(t)
	spec := testSpec()
	spec.StepBudget = 0

	ex := New(nil, spec, sim, map[string]simcontract.Agent{"agent_0": agent}, handle, noopTracer(t))

	result, err := ex.RunTask(context.Background(), "scn_001", model.Task{TaskIndex: 1, Description: "pick up the mug"}, []string{"agent_0"})

	require.NoError(t, err)
	assert.Equal(t, model.FinalizeBudgetExhausted, result.FinalizeReason)
	assert.Equal(t, 0, result.TotalSteps)
	assert.False(t, result.Analysis.ModelClaimedCompletion)
	assert.False(t, result.Analysis.ActuallyCompleted)
	assert.Equal(t, 0, agent.calls)
	assert.Equal(t, 0, sim.applyCount)
}

func TestRunTaskFinalizesOnContextCancellation(t *testing.T) {
	sim := &scriptedSimulator{satisfyAfter: 1000}
	agent := &scriptedAgent{script: []string{"wander"}}
	handle := newTestHandle(t)

	ex := New(nil, testSpec(), sim, map[string]simcontract.Agent{"agent_0": agent}, handle, noopTracer(t))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := ex.RunTask(ctx, "scn_001", model.Task{TaskIndex: 1, Description: "wander"}, []string{"agent_0"})

	require.Error(t, err)
	assert.Equal(t, model.FinalizeScenarioTimeout, result.FinalizeReason)
}
