package runner

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/embench/evalcore/pkg/executor"
	"github.com/embench/evalcore/pkg/model"
	"github.com/embench/evalcore/pkg/runspec"
	"github.com/embench/evalcore/pkg/simcontract"
	"github.com/embench/evalcore/pkg/store"
	"github.com/embench/evalcore/pkg/tracing"
)

// Runner wraps one scenario end-to-end (§4.5).
type Runner struct {
	log      *slog.Logger
	spec     *runspec.RunSpec
	registry *store.Registry
	tracer   *tracing.Provider
	simFac   SimulatorFactory
	agentFac AgentFactory
}

// New builds a Runner shared by every scenario worker invocation.
func New(log *slog.Logger, spec *runspec.RunSpec, registry *store.Registry, tracer *tracing.Provider, simFac SimulatorFactory, agentFac AgentFactory) *Runner {
	if log == nil {
		log = slog.Default()
	}
	return &Runner{log: log, spec: spec, registry: registry, tracer: tracer, simFac: simFac, agentFac: agentFac}
}

// RunScenario loads scenarioID's artifacts, instantiates its collaborators,
// and dispatches every task according to spec.TaskRegime.
func (r *Runner) RunScenario(ctx context.Context, scenarioID string) Result {
	result := Result{ScenarioID: scenarioID, StartTime: time.Now()}
	log := r.log.With("scenario_id", scenarioID)

	if r.spec.ScenarioTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.spec.ScenarioTimeout)
		defer cancel()
	}

	ctx, span := r.tracer.StartScenario(ctx, scenarioID)
	defer span.End()

	loaded, err := loadScenario(r.spec.DatasetDir, scenarioID)
	if err != nil {
		log.Error("scenario load failed", "error", err)
		result.Err = err
		result.EndTime = time.Now()
		return result
	}

	sim, err := r.simFac(ctx, scenarioID, loaded.Scene, loaded.AgentConfigs)
	if err != nil {
		result.Err = err
		result.EndTime = time.Now()
		return result
	}

	agents := make(map[string]simcontract.Agent, len(loaded.AgentConfigs))
	agentIDs := make([]string, 0, len(loaded.AgentConfigs))
	for _, cfg := range loaded.AgentConfigs {
		agent, err := r.agentFac(ctx, cfg)
		if err != nil {
			result.Err = err
			result.EndTime = time.Now()
			return result
		}
		agents[cfg.AgentID] = agent
		agentIDs = append(agentIDs, cfg.AgentID)
	}
	if len(agentIDs) == 0 {
		agentIDs = []string{"agent_0"}
	}

	handle := r.registry.OpenScenario(scenarioID)
	defer handle.Close()

	switch r.spec.TaskRegime {
	case model.RegimeCombined:
		result.TaskResults = r.runCombined(ctx, log, scenarioID, loaded.Tasks, agentIDs, sim, agents, handle)
	case model.RegimeIndependent:
		result.TaskResults = r.runIndependent(ctx, log, scenarioID, loaded.Tasks, loaded.Scene, loaded.AgentConfigs, agentIDs, handle)
	default: // sequential
		result.TaskResults = r.runSequential(ctx, log, scenarioID, loaded.Tasks, agentIDs, sim, agents, handle)
	}

	for _, tr := range result.TaskResults {
		r.appendCSVRow(scenarioID, tr, agentMode(agentIDs))
	}

	result.EndTime = time.Now()
	return result
}

// runSequential drives tasks in order against one simulator instance and one
// continuous agent session per agent; neither is reset between tasks (§4.4).
func (r *Runner) runSequential(ctx context.Context, log *slog.Logger, scenarioID string, tasks []model.Task, agentIDs []string, sim simcontract.Simulator, agents map[string]simcontract.Agent, handle *store.Handle) []executor.TaskExecution {
	ex := executor.New(log, r.spec, sim, agents, handle, r.tracer)
	results := make([]executor.TaskExecution, 0, len(tasks))
	for _, task := range tasks {
		tr, err := ex.RunTask(ctx, scenarioID, task, agentIDs)
		if err != nil {
			log.Warn("task ended with error", "task_index", task.TaskIndex, "error", err)
		}
		results = append(results, tr)
	}
	return results
}

// runCombined concatenates every constituent task description into one
// super-task and drives it as a single TaskTrajectory (§4.4).
func (r *Runner) runCombined(ctx context.Context, log *slog.Logger, scenarioID string, tasks []model.Task, agentIDs []string, sim simcontract.Simulator, agents map[string]simcontract.Agent, handle *store.Handle) []executor.TaskExecution {
	if len(tasks) == 0 {
		return nil
	}

	descriptions := make([]string, len(tasks))
	goals := make([]any, len(tasks))
	for i, task := range tasks {
		descriptions[i] = task.Description
		goals[i] = task.Verifier
	}

	combined := model.Task{
		TaskIndex:   tasks[0].TaskIndex,
		Description: strings.Join(descriptions, " THEN "),
		Category:    tasks[0].Category,
		Verifier:    goals,
	}

	ex := executor.New(log, r.spec, sim, agents, handle, r.tracer)
	tr, err := ex.RunTask(ctx, scenarioID, combined, agentIDs)
	if err != nil {
		log.Warn("combined task ended with error", "error", err)
	}
	return []executor.TaskExecution{tr}
}

// runIndependent seeds one simulator and one set of agent sessions, then
// Resets both between constituent tasks so no state flows from one task to
// the next (§4.4). Each task's trajectory reaches disk as soon as that task
// finishes; the store handle keeps every finalized task as raw JSON.
func (r *Runner) runIndependent(ctx context.Context, log *slog.Logger, scenarioID string, tasks []model.Task, scene any, agentConfigs []model.AgentConfig, agentIDs []string, handle *store.Handle) []executor.TaskExecution {
	results := make([]executor.TaskExecution, 0, len(tasks))

	var sim simcontract.Simulator
	agents := make(map[string]simcontract.Agent, len(agentConfigs))

	for i, task := range tasks {
		if i == 0 {
			var err error
			sim, err = r.simFac(ctx, scenarioID, scene, agentConfigs)
			if err != nil {
				log.Error("seeding simulator failed for independent task", "task_index", task.TaskIndex, "error", err)
				continue
			}
			for _, cfg := range agentConfigs {
				agent, err := r.agentFac(ctx, cfg)
				if err != nil {
					log.Error("instantiating agent failed for independent task", "task_index", task.TaskIndex, "error", err)
					continue
				}
				agents[cfg.AgentID] = agent
			}
		} else {
			reset, err := sim.Reset(ctx)
			if err != nil {
				log.Error("resetting simulator failed for independent task", "task_index", task.TaskIndex, "error", err)
				continue
			}
			sim = reset
			for id, agent := range agents {
				if err := agent.Reset(ctx); err != nil {
					log.Error("resetting agent failed for independent task", "task_index", task.TaskIndex, "agent_id", id, "error", err)
				}
			}
		}

		ex := executor.New(log, r.spec, sim, agents, handle, r.tracer)
		tr, err := ex.RunTask(ctx, scenarioID, task, agentIDs)
		if err != nil {
			log.Warn("independent task ended with error", "task_index", task.TaskIndex, "error", err)
		}
		results = append(results, tr)
	}
	return results
}

func (r *Runner) appendCSVRow(scenarioID string, tr executor.TaskExecution, agentType string) {
	row := store.CSVRow{
		Timestamp:            time.Now(),
		ScenarioID:           scenarioID,
		TaskIndex:            tr.TaskIndex,
		TaskDescription:      tr.Description,
		TaskCategory:         tr.Category,
		AgentType:            agentType,
		Status:               tr.FinalizeReason,
		TaskExecuted:         tr.TotalSteps > 0,
		SubtaskCompleted:     tr.Analysis.ActuallyCompleted,
		ModelClaimedDone:     tr.Analysis.ModelClaimedCompletion,
		ActualCompletionStep: tr.ActualCompletionStep,
		DoneCommandStep:      tr.DoneCommandStep,
		TotalSteps:           tr.TotalSteps,
		SuccessfulSteps:      tr.SuccessfulSteps,
		FailedSteps:          tr.FailedSteps,
		CommandSuccessRate:   tr.CommandSuccessRate(),
		StartTime:            tr.StartTime,
		EndTime:              tr.EndTime,
		DurationSeconds:      tr.DurationSeconds(),
		LLMInteractions:      tr.LLMInteractions,
	}
	if err := r.registry.AppendCSVRow(row); err != nil {
		r.log.Error("failed to append CSV row", "scenario_id", scenarioID, "task_index", tr.TaskIndex, "error", err)
	}
}

func agentMode(agentIDs []string) string {
	if len(agentIDs) <= 1 {
		return string(model.AgentModeSingle)
	}
	return string(model.AgentModeCentralized)
}
