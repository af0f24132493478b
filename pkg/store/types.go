// Package store implements the trajectory store (C1): the atomically-written,
// append-only on-disk representation of one run. A Registry owns the run
// directory and the shared CSV; a Handle owns one scenario's trajectory, QA
// log, and execution log. Every mutation writes the full updated artifact to
// a temporary sibling file, fsyncs it, then renames it onto the target path
// (tasklog.Registry's "Registry is the sole owner of persistence" idiom,
// generalized with the atomic-rename discipline this spec requires).
package store

import (
	"time"

	"github.com/embench/evalcore/pkg/model"
)

// ExecutionLogEntry is the single JSON object persisted per scenario at
// <run>/logs/<scenario_id>_execution.json.
type ExecutionLogEntry struct {
	ScenarioID string                 `json:"scenario_id"`
	Tasks      []TaskExecutionSummary `json:"tasks"`
	Anomalies  []Anomaly              `json:"anomalies,omitempty"`
}

// TaskExecutionSummary is one finalized task's timing and outcome summary.
type TaskExecutionSummary struct {
	TaskIndex       int                  `json:"task_index"`
	FinalizeReason  model.FinalizeReason `json:"finalize_reason"`
	TotalSteps      int                  `json:"total_steps"`
	SuccessfulSteps int                  `json:"successful_steps"`
	FailedSteps     int                  `json:"failed_steps"`
	StartTime       time.Time            `json:"start_time"`
	EndTime         time.Time            `json:"end_time"`
	DurationSeconds float64              `json:"duration_seconds"`
}

// Anomaly records a completion-tracker oscillation: the verifier reported a
// previously-satisfied subtask as no longer satisfied (§4.2 — never silent).
type Anomaly struct {
	TaskIndex    int    `json:"task_index"`
	SubtaskIndex int    `json:"subtask_index"`
	AtStep       int    `json:"at_step"`
	Message      string `json:"message"`
}

// CSVRow is one row of the run-wide subtask_execution_log.csv, matching the
// fixed column schema verbatim (§6).
type CSVRow struct {
	Timestamp             time.Time
	ScenarioID            string
	TaskIndex             int
	TaskDescription       string
	TaskCategory          string
	AgentType             string
	Status                model.FinalizeReason
	TaskExecuted          bool
	SubtaskCompleted      bool
	ModelClaimedDone      bool
	ActualCompletionStep  int
	DoneCommandStep       int
	TotalSteps            int
	SuccessfulSteps       int
	FailedSteps           int
	CommandSuccessRate    float64
	StartTime             time.Time
	EndTime               time.Time
	DurationSeconds       float64
	LLMInteractions       int
}

// csvHeader is the fixed column order (§6); AppendCSVRow never reorders it.
var csvHeader = []string{
	"timestamp", "scenario_id", "task_index", "task_description", "task_category",
	"agent_type", "status", "task_executed", "subtask_completed", "model_claimed_done",
	"actual_completion_step", "done_command_step", "total_steps", "successful_steps",
	"failed_steps", "command_success_rate", "start_time", "end_time",
	"duration_seconds", "llm_interactions",
}

// RunSummary is the single JSON object written to run_summary.json at
// termination, normal or interrupted.
type RunSummary struct {
	RunInfo                RunInfo                  `json:"run_info"`
	TaskCategoryStatistics map[string]CategoryStats `json:"task_category_statistics"`
	OverallSummary         CategoryStats            `json:"overall_summary"`
	FailedScenarios        []FailedScenario         `json:"failed_scenarios,omitempty"`
}

// RunInfo is the run_summary.json "run_info" block.
type RunInfo struct {
	RunName             string    `json:"run_name"`
	StartTime           time.Time `json:"start_time"`
	EndTime             time.Time `json:"end_time"`
	AgentMode           string    `json:"agent_mode"`
	TaskRegime          string    `json:"task_regime"`
	Parallelism         int       `json:"parallelism"`
	ScenarioCount       int       `json:"scenario_count"`
	SelectionDescriptor string    `json:"selection_descriptor"`
	Interrupted         bool      `json:"interrupted"`
}

// CategoryStats is the four-number summary emitted per observed category and
// once more as overall_summary. Accuracy is completed/claimed, never
// completed/total and never claimed/total (§4.6).
type CategoryStats struct {
	Total        int     `json:"total"`
	Completed    int     `json:"completed"`
	ModelClaimed int     `json:"model_claimed"`
	Accuracy     float64 `json:"accuracy"`
}

// FailedScenario records a scenario whose worker process failed to start or
// exited non-zero, for example because its on-disk artifacts failed to load
// (§7 Scenario load error).
type FailedScenario struct {
	ScenarioID string `json:"scenario_id"`
	Reason     string `json:"reason"`
}
