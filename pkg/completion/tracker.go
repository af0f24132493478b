// Package completion implements the completion tracker (C2): after each
// applied action it queries the simulator verifier for the set of currently
// satisfied subtask indices, diffs against the previously-satisfied set, and
// emits SubtaskCompletion records for newly-satisfied ones. It is the sole
// authority for populating TaskTrajectory.SubtaskCompletions (§4.2).
package completion

import (
	"log/slog"

	"github.com/embench/evalcore/pkg/model"
)

// Tracker holds one task's verifier snapshot. A fresh Tracker must be
// created per task (sequential/combined: one per TaskTrajectory; independent:
// one per constituent task) since completion is monotonic only within a task.
type Tracker struct {
	log *slog.Logger

	satisfied map[int]bool // subtask index -> ever reported satisfied
	anomalies []Anomaly
}

// Anomaly is one verifier oscillation: a subtask previously reported
// satisfied is now reported as not satisfied. The tracker retains the
// original completion and never silently drops the event (§4.2).
type Anomaly struct {
	SubtaskIndex int
	AtStep       int
	Message      string
}

// New creates a Tracker for one task.
func New(log *slog.Logger, scenarioID string, taskIndex int) *Tracker {
	if log == nil {
		log = slog.Default()
	}
	return &Tracker{
		log:       log.With("scenario_id", scenarioID, "task_index", taskIndex),
		satisfied: make(map[int]bool),
	}
}

// Observe diffs the verifier's current satisfied-set against the tracker's
// memory and returns the SubtaskCompletion records for newly-satisfied
// subtasks at the given step. step is 1-based — the count of actions applied
// so far, matching SubtaskCompletion.CompletedAt's contract. Previously-
// satisfied subtasks reported as no longer satisfied generate an Anomaly
// instead of un-completing (§4.2 Contract).
func (t *Tracker) Observe(currentlySatisfied map[int]bool, step int) []model.SubtaskCompletion {
	var newCompletions []model.SubtaskCompletion

	for idx := range currentlySatisfied {
		if currentlySatisfied[idx] && !t.satisfied[idx] {
			t.satisfied[idx] = true
			newCompletions = append(newCompletions, model.SubtaskCompletion{
				SubtaskIndex: idx,
				CompletedAt:  step,
			})
		}
	}

	for idx := range t.satisfied {
		if t.satisfied[idx] && !currentlySatisfied[idx] {
			a := Anomaly{
				SubtaskIndex: idx,
				AtStep:       step,
				Message:      "verifier reported subtask as no longer satisfied; retaining original completion",
			}
			t.anomalies = append(t.anomalies, a)
			t.log.Warn("completion anomaly", "subtask_index", idx, "at_step", step)
		}
	}

	return newCompletions
}

// Anomalies returns every oscillation observed so far, for the caller to
// persist into the execution log.
func (t *Tracker) Anomalies() []Anomaly {
	return t.anomalies
}

// AllSatisfied reports whether every subtask index in required is currently
// known-satisfied (§4.4 step 9 — objective completion).
func (t *Tracker) AllSatisfied(required []int) bool {
	for _, idx := range required {
		if !t.satisfied[idx] {
			return false
		}
	}
	return true
}

// CompletedCount returns how many distinct subtask indices have ever been
// marked satisfied.
func (t *Tracker) CompletedCount() int {
	return len(t.satisfied)
}

// Classify produces the task's CompletionAnalysis given whether the model
// issued a terminator and at which step, and the actual completion step (the
// step at which the last required subtask was first satisfied; the executor
// passes -1 when it was never satisfied).
func Classify(modelClaimed bool, doneStep int, actuallyCompleted bool, actualCompletionStep int) model.CompletionAnalysis {
	return model.CompletionAnalysis{
		ModelClaimedCompletion: modelClaimed,
		ActuallyCompleted:      actuallyCompleted,
		Accuracy:               model.Classify(modelClaimed, actuallyCompleted),
		DoneStep:               doneStep,
		ActualCompletionStep:   actualCompletionStep,
	}
}
