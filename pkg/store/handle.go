package store

import (
	"encoding/json"
	"sync"

	"github.com/embench/evalcore/pkg/corerrors"
	"github.com/embench/evalcore/pkg/model"
	"github.com/embench/evalcore/pkg/simcontract"
)

// Handle is the per-scenario writer returned by Registry.OpenScenario. All
// methods are safe for concurrent use, though in practice a scenario is
// driven by exactly one worker process at a time (§4.1 Concurrency).
//
// Only the in-flight task is held as a structured TaskTrajectory: a
// finalized one is marshaled immediately and kept as raw JSON. Every
// finalized task's raw JSON stays in memory for the handle's lifetime,
// because each flush rewrites the whole trajectory file; each task is on
// disk as soon as it is finalized.
type Handle struct {
	mu sync.Mutex

	scenarioID string
	trajPath   string
	execPath   string
	qaPath     string

	finalized []json.RawMessage
	current   *model.TaskTrajectory

	qaRecords []simcontract.QARecord
	execLog   ExecutionLogEntry

	closed bool
}

func newHandle(scenarioID, trajPath, execPath, qaPath string) *Handle {
	return &Handle{
		scenarioID: scenarioID,
		trajPath:   trajPath,
		execPath:   execPath,
		qaPath:     qaPath,
		execLog:    ExecutionLogEntry{ScenarioID: scenarioID},
	}
}

// StartTask opens a new in-flight TaskTrajectory. Callers must finalize (or
// abandon via a fatal error) the current task before starting another.
func (h *Handle) StartTask(taskIndex int, description, category string) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.current != nil {
		return corerrors.NewStorageError("start_task", h.trajPath, errAlreadyOpenTask)
	}
	h.current = &model.TaskTrajectory{
		TaskIndex:   taskIndex,
		Description: description,
		Category:    category,
	}
	return nil
}

// AppendAction appends one ActionRecord to the in-flight task and flushes
// the full trajectory file before returning (§4.4 step 7, §4.1 write
// discipline — "every append is persisted to disk before the next step").
func (h *Handle) AppendAction(rec model.ActionRecord) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.current == nil {
		return corerrors.NewStorageError("append_action", h.trajPath, errNoOpenTask)
	}
	h.current.ActionSequence = append(h.current.ActionSequence, rec)
	return h.flushTrajectoryLocked()
}

// RecordSubtaskCompletion appends one SubtaskCompletion emitted by the
// completion tracker (C2) and flushes.
func (h *Handle) RecordSubtaskCompletion(sc model.SubtaskCompletion) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.current == nil {
		return corerrors.NewStorageError("record_subtask_completion", h.trajPath, errNoOpenTask)
	}
	h.current.SubtaskCompletions = append(h.current.SubtaskCompletions, sc)
	return h.flushTrajectoryLocked()
}

// AppendQA records one agent decision round-trip and flushes the QA log.
func (h *Handle) AppendQA(qa simcontract.QARecord) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.qaRecords = append(h.qaRecords, qa)
	if err := atomicWriteJSON(h.qaPath, h.qaRecords); err != nil {
		return corerrors.NewStorageError("append_qa", h.qaPath, err)
	}
	return nil
}

// FinalizeTask closes the in-flight task with the given analysis and
// finalize reason, appends its timing summary to the execution log, and
// flushes both the trajectory and execution log files.
func (h *Handle) FinalizeTask(analysis model.CompletionAnalysis, reason model.FinalizeReason, summary TaskExecutionSummary) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.current == nil {
		return corerrors.NewStorageError("finalize_task", h.trajPath, errNoOpenTask)
	}
	h.current.Analysis = &analysis
	h.current.FinalizeReason = reason

	raw, err := json.Marshal(h.current)
	if err != nil {
		return corerrors.NewStorageError("marshal_task", h.trajPath, err)
	}
	h.finalized = append(h.finalized, raw)
	h.current = nil

	if err := h.flushTrajectoryLocked(); err != nil {
		return err
	}

	h.execLog.Tasks = append(h.execLog.Tasks, summary)
	return h.flushExecutionLogLocked()
}

// RecordAnomaly logs a completion-tracker oscillation (§4.2 — a subtask the
// verifier reports as un-completing is never silently dropped).
func (h *Handle) RecordAnomaly(a Anomaly) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.execLog.Anomalies = append(h.execLog.Anomalies, a)
	return h.flushExecutionLogLocked()
}

// Close marks the handle closed. Every mutation already flushed eagerly, so
// Close performs no additional I/O; it exists to make the handle's lifetime
// explicit (§3 Lifecycles). No method checks the closed flag, so writes
// after Close are not rejected.
func (h *Handle) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	return nil
}

func (h *Handle) flushTrajectoryLocked() error {
	entries := make([]json.RawMessage, len(h.finalized), len(h.finalized)+1)
	copy(entries, h.finalized)
	if h.current != nil {
		raw, err := json.Marshal(h.current)
		if err != nil {
			return corerrors.NewStorageError("marshal_task", h.trajPath, err)
		}
		entries = append(entries, raw)
	}
	if err := atomicWriteJSON(h.trajPath, entries); err != nil {
		return corerrors.NewStorageError("append_action", h.trajPath, err)
	}
	return nil
}

func (h *Handle) flushExecutionLogLocked() error {
	if err := atomicWriteJSON(h.execPath, h.execLog); err != nil {
		return corerrors.NewStorageError("execution_log", h.execPath, err)
	}
	return nil
}
