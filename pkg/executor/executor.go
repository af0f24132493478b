package executor

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/embench/evalcore/pkg/completion"
	"github.com/embench/evalcore/pkg/model"
	"github.com/embench/evalcore/pkg/retry"
	"github.com/embench/evalcore/pkg/runspec"
	"github.com/embench/evalcore/pkg/simcontract"
	"github.com/embench/evalcore/pkg/store"
	"github.com/embench/evalcore/pkg/tracing"
)

// Executor drives one task at a time against the collaborators it is
// constructed with. A fresh Executor is cheap — C5 builds one per scenario
// and reuses it across tasks within sequential/combined regimes; the
// independent regime gets a fresh Executor per constituent task since the
// simulator and agents are Reset between tasks (§4.4).
type Executor struct {
	log    *slog.Logger
	spec   *runspec.RunSpec
	sim    simcontract.Simulator
	agents map[string]simcontract.Agent
	handle *store.Handle
	tracer *tracing.Provider
}

// New builds an Executor for one scenario. agents is keyed by AgentID; the
// caller resolves agent_mode into this map before invoking the executor.
func New(log *slog.Logger, spec *runspec.RunSpec, sim simcontract.Simulator, agents map[string]simcontract.Agent, handle *store.Handle, tracer *tracing.Provider) *Executor {
	if log == nil {
		log = slog.Default()
	}
	return &Executor{log: log, spec: spec, sim: sim, agents: agents, handle: handle, tracer: tracer}
}

// RunTask drives task to completion, returning its TaskExecution summary.
// agentIDs gives the round-robin decision order (one entry for single-agent
// mode, several for multi-agent); requiredSubtasks lists the subtask indices
// the verifier must report satisfied for the task to be objectively
// complete (§4.4 step 9).
func (e *Executor) RunTask(ctx context.Context, scenarioID string, task model.Task, agentIDs []string) (TaskExecution, error) {
	exec := newTaskExecution(task)
	tracker := completion.New(e.log, scenarioID, task.TaskIndex)
	requiredSubtasks := requiredSubtaskIndices(task)

	if err := e.handle.StartTask(task.TaskIndex, task.Description, task.Category); err != nil {
		return exec, err
	}
	for _, id := range agentIDs {
		if err := e.agents[id].SetTask(ctx, task.Description); err != nil {
			return e.finalize(ctx, scenarioID, tracker, &exec, model.FinalizeAgentError, false, err)
		}
	}

	claimedDone := false
	actionIndex := 0

	for {
		if actionIndex >= e.spec.StepBudget {
			return e.finalize(ctx, scenarioID, tracker, &exec, model.FinalizeBudgetExhausted, claimedDone, nil)
		}
		if err := ctx.Err(); err != nil {
			return e.finalize(ctx, scenarioID, tracker, &exec, model.FinalizeScenarioTimeout, claimedDone, err)
		}

		agentID := agentIDs[actionIndex%len(agentIDs)]
		agent := e.agents[agentID]

		actionCtx, span := e.tracer.StartAction(ctx, scenarioID, task.TaskIndex, actionIndex)

		desc, err := e.sim.Describe(actionCtx, simcontract.DescribeOptions{
			AgentID:        agentID,
			Detail:         e.spec.DetailLevel,
			ShowProperties: e.spec.ShowProperties,
			OnlyDiscovered: e.spec.OnlyDiscovered,
		})
		if err != nil {
			span.End()
			return e.finalize(ctx, scenarioID, tracker, &exec, model.FinalizeSimulatorError, claimedDone, err)
		}

		decision, err := retry.Do(actionCtx, e.spec.Retry, func(callCtx context.Context) (simcontract.DecideResult, error) {
			return agent.Decide(callCtx, desc)
		})
		exec.LLMInteractions++
		if err != nil {
			span.End()
			return e.finalize(ctx, scenarioID, tracker, &exec, model.FinalizeAgentError, claimedDone, err)
		}

		if err := agent.RecordQA(actionCtx, simcontract.QARecord{
			AgentID: agentID, Prompt: desc, RawResponse: decision.RawResponse,
			ExtractedCommand: decision.ExtractedCommand,
			PromptTokens:     decision.PromptTokens, CompletionTokens: decision.CompletionTokens,
		}); err != nil {
			e.log.Warn("agent RecordQA failed", "error", err)
		}
		if err := e.handle.AppendQA(simcontract.QARecord{
			AgentID: agentID, Prompt: desc, RawResponse: decision.RawResponse,
			ExtractedCommand: decision.ExtractedCommand,
			PromptTokens:     decision.PromptTokens, CompletionTokens: decision.CompletionTokens,
		}); err != nil {
			span.End()
			return e.finalize(ctx, scenarioID, tracker, &exec, model.FinalizeSimulatorError, claimedDone, err)
		}

		command := strings.TrimSpace(decision.ExtractedCommand)

		if isTerminator(command) {
			claimedDone = true
			exec.DoneCommandStep = actionIndex
			span.End()
			break
		}

		if command == "" {
			rec := model.ActionRecord{ActionIndex: actionIndex, AgentID: agentID, Command: decision.RawResponse, Status: model.StatusInvalid, ResultMessage: "agent produced no parseable command", Timestamp: time.Now()}
			if err := e.handle.AppendAction(rec); err != nil {
				span.End()
				return e.finalize(ctx, scenarioID, tracker, &exec, model.FinalizeSimulatorError, claimedDone, err)
			}
			exec.TotalSteps++
			exec.FailedSteps++
			span.End()
		} else {
			result, err := e.sim.Apply(actionCtx, agentID, command)
			if err != nil {
				span.End()
				return e.finalize(ctx, scenarioID, tracker, &exec, model.FinalizeSimulatorError, claimedDone, err)
			}

			rec := model.ActionRecord{ActionIndex: actionIndex, AgentID: agentID, Command: command, Status: model.ActionStatus(result.Status), ResultMessage: result.Message, Timestamp: time.Now()}
			if err := e.handle.AppendAction(rec); err != nil {
				span.End()
				return e.finalize(ctx, scenarioID, tracker, &exec, model.FinalizeSimulatorError, claimedDone, err)
			}
			exec.TotalSteps++
			if result.Status == simcontract.ApplyStatusSuccess {
				exec.SuccessfulSteps++
			} else {
				exec.FailedSteps++
			}

			if satisfied, verr := e.sim.VerifySubtasks(actionCtx, task); verr == nil {
				for _, completionRec := range tracker.Observe(satisfied, actionIndex+1) {
					if err := e.handle.RecordSubtaskCompletion(completionRec); err != nil {
						span.End()
						return e.finalize(ctx, scenarioID, tracker, &exec, model.FinalizeSimulatorError, claimedDone, err)
					}
				}
				if exec.ActualCompletionStep == -1 && tracker.AllSatisfied(requiredSubtasks) {
					exec.ActualCompletionStep = actionIndex + 1
				}
			} else {
				e.log.Warn("verify_subtasks failed; continuing without a completion update", "error", verr)
			}
		}
		span.End()

		actionIndex++
	}

	return e.finalize(ctx, scenarioID, tracker, &exec, model.FinalizeTerminator, claimedDone, nil)
}

// finalize closes out the task trajectory and records any completion-tracker
// anomalies, regardless of why the loop ended (§4.4 Failure semantics —
// every exit path, including simulator/agent errors, still finalizes).
func (e *Executor) finalize(ctx context.Context, scenarioID string, tracker *completion.Tracker, exec *TaskExecution, reason model.FinalizeReason, claimedDone bool, causeErr error) (TaskExecution, error) {
	exec.EndTime = time.Now()
	exec.FinalizeReason = reason

	if causeErr != nil {
		rec := model.ActionRecord{
			ActionIndex:   exec.TotalSteps,
			Status:        model.StatusFailure,
			ResultMessage: causeErr.Error(),
			Timestamp:     time.Now(),
		}
		_ = e.handle.AppendAction(rec)
		exec.TotalSteps++
		exec.FailedSteps++
	}

	actuallyCompleted := exec.ActualCompletionStep >= 0
	exec.Analysis = completion.Classify(claimedDone, exec.DoneCommandStep, actuallyCompleted, exec.ActualCompletionStep)

	for _, a := range tracker.Anomalies() {
		_ = e.handle.RecordAnomaly(store.Anomaly{TaskIndex: exec.TaskIndex, SubtaskIndex: a.SubtaskIndex, AtStep: a.AtStep, Message: a.Message})
	}

	summary := store.TaskExecutionSummary{
		TaskIndex:       exec.TaskIndex,
		FinalizeReason:  reason,
		TotalSteps:      exec.TotalSteps,
		SuccessfulSteps: exec.SuccessfulSteps,
		FailedSteps:     exec.FailedSteps,
		StartTime:       exec.StartTime,
		EndTime:         exec.EndTime,
		DurationSeconds: exec.DurationSeconds(),
	}

	if err := e.handle.FinalizeTask(exec.Analysis, reason, summary); err != nil {
		return *exec, err
	}
	return *exec, causeErr
}

// requiredSubtaskIndices derives the set of subtask indices the verifier must
// satisfy for objective completion. Verifier rules are the simulator's own
// opaque data (§6); the only thing the core assumes about their shape is
// that a list of sub-goals corresponds 1:1 with subtask indices 1..N. A
// single-goal task — the common case outside the combined regime — has
// exactly one subtask, indexed 1 (§4.2 doc comment on SubtaskCompletion).
func requiredSubtaskIndices(task model.Task) []int {
	if goals, ok := task.Verifier.([]any); ok && len(goals) > 0 {
		indices := make([]int, len(goals))
		for i := range goals {
			indices[i] = i + 1
		}
		return indices
	}
	return []int{1}
}
