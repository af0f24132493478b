// Package model defines the data types shared by every component of the
// evaluation core: scenarios, tasks, actions, and the derived completion
// analysis produced at task close.
package model

import "time"

// AgentMode selects how many agents a scenario is driven with.
type AgentMode string

const (
	AgentModeSingle       AgentMode = "single"
	AgentModeCentralized  AgentMode = "centralized-multi"
	AgentModeDecentralized AgentMode = "decentralized-multi"
)

// IsValid reports whether m is one of the known agent modes.
func (m AgentMode) IsValid() bool {
	switch m {
	case AgentModeSingle, AgentModeCentralized, AgentModeDecentralized:
		return true
	default:
		return false
	}
}

// TaskRegime selects the history/state discipline used across a scenario's tasks.
type TaskRegime string

const (
	RegimeSequential  TaskRegime = "sequential"
	RegimeCombined    TaskRegime = "combined"
	RegimeIndependent TaskRegime = "independent"
)

// IsValid reports whether r is one of the known task regimes.
func (r TaskRegime) IsValid() bool {
	switch r {
	case RegimeSequential, RegimeCombined, RegimeIndependent:
		return true
	default:
		return false
	}
}

// SelectionMode selects how a run resolves its scenario id list.
type SelectionMode string

const (
	SelectionAll   SelectionMode = "all"
	SelectionRange SelectionMode = "range"
	SelectionList  SelectionMode = "list"
)

// AgentCountFilter constrains scenario selection by agent-config cardinality.
type AgentCountFilter string

const (
	AgentCountAny    AgentCountFilter = "any"
	AgentCountSingle AgentCountFilter = "single"
	AgentCountMulti  AgentCountFilter = "multi"
)

// ActionStatus is the outcome of applying one command to the simulator.
type ActionStatus string

const (
	StatusSuccess ActionStatus = "SUCCESS"
	StatusFailure ActionStatus = "FAILURE"
	StatusInvalid ActionStatus = "INVALID"
)

// FinalizeReason records why a task's action loop ended.
type FinalizeReason string

const (
	FinalizeTerminator      FinalizeReason = "terminator"
	FinalizeBudgetExhausted FinalizeReason = "budget_exhausted"
	FinalizeSimulatorError  FinalizeReason = "simulator_error"
	FinalizeAgentError      FinalizeReason = "agent_error"
	FinalizeScenarioTimeout FinalizeReason = "scenario_timeout"
)

// Accuracy is the four-way classification of a task's completion analysis,
// collapsed to three observable outcomes plus "neither" (the spec names
// correct/premature/missed explicitly; neither covers ¬claimed ∧ ¬completed).
type Accuracy string

const (
	AccuracyCorrect   Accuracy = "correct"
	AccuracyPremature Accuracy = "premature"
	AccuracyMissed    Accuracy = "missed"
	AccuracyNeither   Accuracy = "neither"
)

// AgentConfig is one agent's capability record within a scenario.
type AgentConfig struct {
	AgentID     string   `json:"agent_id"`
	WeightLimit float64  `json:"weight_limit"`
	GraspCount  int      `json:"grasp_count"`
	Abilities   []string `json:"abilities"`
}

// Task is one unit of work within a scenario.
type Task struct {
	TaskIndex   int    `json:"task_index"`
	Description string `json:"description"`
	Category    string `json:"category"`
	Verifier    any    `json:"verifier"`
}

// Scenario is one benchmark instance: a scene plus an ordered list of tasks.
type Scenario struct {
	ScenarioID   string        `json:"scenario_id"`
	Scene        any           `json:"scene"`
	Tasks        []Task        `json:"tasks"`
	AgentConfigs []AgentConfig `json:"agent_configs"`
}

// ActionRecord is one entry in a task's action sequence.
type ActionRecord struct {
	ActionIndex   int          `json:"action_index"`
	AgentID       string       `json:"agent_id"`
	Command       string       `json:"command"`
	Status        ActionStatus `json:"status"`
	ResultMessage string       `json:"result_message"`
	Timestamp     time.Time    `json:"timestamp"`
}

// SubtaskCompletion is one objective-completion event recorded by the
// completion tracker. SubtaskIndex is 1-based within the containing task;
// outside the combined regime there is exactly one and it equals the task.
type SubtaskCompletion struct {
	SubtaskIndex int `json:"subtask_index"`
	CompletedAt  int `json:"completed_at"`
}

// TaskTrajectory is one element of a task's persisted trajectory. The
// combined regime emits exactly one aggregated TaskTrajectory per scenario.
type TaskTrajectory struct {
	TaskIndex           int                 `json:"task_index"`
	Description         string              `json:"description"`
	Category            string              `json:"category"`
	ActionSequence      []ActionRecord      `json:"action_sequence"`
	SubtaskCompletions  []SubtaskCompletion `json:"subtask_completions"`
	FinalizeReason      FinalizeReason      `json:"finalize_reason,omitempty"`
	Analysis            *CompletionAnalysis `json:"analysis,omitempty"`
}

// CompletionAnalysis is derived per task at close: the agreement (or lack
// thereof) between the model's own DONE claim and the verifier's ruling.
type CompletionAnalysis struct {
	ModelClaimedCompletion bool     `json:"model_claimed_completion"`
	ActuallyCompleted      bool     `json:"actually_completed"`
	Accuracy               Accuracy `json:"accuracy"`
	DoneStep               int      `json:"done_step"`
	ActualCompletionStep   int      `json:"actual_completion_step"`
}

// Classify derives the Accuracy field from the two booleans. It is a pure
// function so tests can exercise the four-way truth table directly.
func Classify(claimed, completed bool) Accuracy {
	switch {
	case claimed && completed:
		return AccuracyCorrect
	case claimed && !completed:
		return AccuracyPremature
	case !claimed && completed:
		return AccuracyMissed
	default:
		return AccuracyNeither
	}
}
