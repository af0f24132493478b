// Package executor implements the task executor (C4): the per-step control
// loop that drives one task (or one combined super-task) to completion
// against a live simulator and agent(s) (§4.4).
package executor

import (
	"time"

	"github.com/embench/evalcore/pkg/model"
)

// TaskExecution is the result of one RunTask call: enough to build both the
// CSV row and the execution-log summary without re-reading the trajectory.
type TaskExecution struct {
	TaskIndex            int
	Description           string
	Category              string
	FinalizeReason        model.FinalizeReason
	Analysis              model.CompletionAnalysis
	TotalSteps            int
	SuccessfulSteps       int
	FailedSteps           int
	DoneCommandStep       int // -1 if the agent never issued a terminator
	ActualCompletionStep  int // -1 if the verifier never reported full completion
	LLMInteractions       int
	StartTime             time.Time
	EndTime               time.Time
}

func newTaskExecution(task model.Task) TaskExecution {
	return TaskExecution{
		TaskIndex:           task.TaskIndex,
		Description:         task.Description,
		Category:            task.Category,
		DoneCommandStep:     -1,
		ActualCompletionStep: -1,
		StartTime:           time.Now(),
	}
}

// DurationSeconds is the wall-clock span between StartTime and EndTime.
func (e TaskExecution) DurationSeconds() float64 {
	return e.EndTime.Sub(e.StartTime).Seconds()
}

// CommandSuccessRate is SuccessfulSteps/TotalSteps, or zero when no commands
// were ever submitted to the simulator (terminator on the first step).
func (e TaskExecution) CommandSuccessRate() float64 {
	if e.TotalSteps == 0 {
		return 0
	}
	return float64(e.SuccessfulSteps) / float64(e.TotalSteps)
}
