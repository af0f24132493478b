package store

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/embench/evalcore/pkg/corerrors"
)

// Registry owns one run's directory tree (§4.1):
//
//	<output>/<run_name>/
//	  run_summary.json
//	  evaluation_log.log
//	  subtask_execution_log.csv
//	  trajectories/<scenario_id>_trajectory.json
//	  logs/<scenario_id>_execution.json
//	  llm_qa/<scenario_id>_llm_qa.json
type Registry struct {
	runDir string

	csvPath string
	csvMu   sync.Mutex // serializes in-process appenders before the cross-process flock
}

// Open creates the run directory tree rooted at runDir and returns a
// Registry ready for use. An existing runDir is accepted as-is and its
// contents are left in place.
func Open(runDir string) (*Registry, error) {
	for _, sub := range []string{"", "trajectories", "logs", "llm_qa"} {
		if err := os.MkdirAll(filepath.Join(runDir, sub), 0o755); err != nil {
			return nil, corerrors.NewStorageError("mkdir", filepath.Join(runDir, sub), err)
		}
	}
	return &Registry{
		runDir:  runDir,
		csvPath: filepath.Join(runDir, "subtask_execution_log.csv"),
	}, nil
}

// RunDir returns the root directory this registry was opened against.
func (r *Registry) RunDir() string { return r.runDir }

// LogFilePath is the path of the run's plain-text evaluation_log.log. No
// code in the module writes this file; slog output goes to the process's
// default handler only.
func (r *Registry) LogFilePath() string { return filepath.Join(r.runDir, "evaluation_log.log") }

// RunSummaryPath is where WriteRunSummary persists its output.
func (r *Registry) RunSummaryPath() string { return filepath.Join(r.runDir, "run_summary.json") }

// CSVPath is the run-wide subtask_execution_log.csv path.
func (r *Registry) CSVPath() string { return r.csvPath }

// OpenScenario returns a fresh per-scenario Handle. A scenario's files are
// touched only by its own handle; no locking is required between scenarios
// (§4.1 Concurrency).
func (r *Registry) OpenScenario(scenarioID string) *Handle {
	return newHandle(
		scenarioID,
		filepath.Join(r.runDir, "trajectories", scenarioID+"_trajectory.json"),
		filepath.Join(r.runDir, "logs", scenarioID+"_execution.json"),
		filepath.Join(r.runDir, "llm_qa", scenarioID+"_llm_qa.json"),
	)
}

// AppendCSVRow appends one row to the shared CSV under an advisory
// exclusive file lock, held only for the duration of the append (§4.1, §5
// Shared resources).
func (r *Registry) AppendCSVRow(row CSVRow) error {
	r.csvMu.Lock()
	defer r.csvMu.Unlock()

	f, err := os.OpenFile(r.csvPath, os.O_CREATE|os.O_RDWR|os.O_APPEND, 0o644)
	if err != nil {
		return corerrors.NewStorageError("open_csv", r.csvPath, err)
	}
	defer f.Close()

	if err := lockExclusive(f); err != nil {
		return corerrors.NewStorageError("lock_csv", r.csvPath, err)
	}
	defer unlockFile(f)

	info, err := f.Stat()
	if err != nil {
		return corerrors.NewStorageError("stat_csv", r.csvPath, err)
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if info.Size() == 0 {
		if err := w.Write(csvHeader); err != nil {
			return corerrors.NewStorageError("write_csv_header", r.csvPath, err)
		}
	}
	if err := w.Write(row.record()); err != nil {
		return corerrors.NewStorageError("write_csv_row", r.csvPath, err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return corerrors.NewStorageError("flush_csv", r.csvPath, err)
	}

	if _, err := f.Write(buf.Bytes()); err != nil {
		return corerrors.NewStorageError("append_csv", r.csvPath, err)
	}
	if err := f.Sync(); err != nil {
		return corerrors.NewStorageError("fsync_csv", r.csvPath, err)
	}
	return nil
}

// WriteRunSummary atomically writes run_summary.json. Called only by the
// coordinator, only after workers have exited (§4.6, §5 Shared resources).
func (r *Registry) WriteRunSummary(summary RunSummary) error {
	if err := atomicWriteJSON(r.RunSummaryPath(), summary); err != nil {
		return corerrors.NewStorageError("run_summary", r.RunSummaryPath(), err)
	}
	return nil
}

// record renders one CSVRow in csvHeader's fixed column order.
func (row CSVRow) record() []string {
	return []string{
		row.Timestamp.UTC().Format(time.RFC3339),
		row.ScenarioID,
		fmt.Sprintf("%d", row.TaskIndex),
		row.TaskDescription,
		row.TaskCategory,
		row.AgentType,
		string(row.Status),
		fmt.Sprintf("%t", row.TaskExecuted),
		fmt.Sprintf("%t", row.SubtaskCompleted),
		fmt.Sprintf("%t", row.ModelClaimedDone),
		fmt.Sprintf("%d", row.ActualCompletionStep),
		fmt.Sprintf("%d", row.DoneCommandStep),
		fmt.Sprintf("%d", row.TotalSteps),
		fmt.Sprintf("%d", row.SuccessfulSteps),
		fmt.Sprintf("%d", row.FailedSteps),
		fmt.Sprintf("%.4f", row.CommandSuccessRate),
		row.StartTime.UTC().Format(time.RFC3339),
		row.EndTime.UTC().Format(time.RFC3339),
		fmt.Sprintf("%.3f", row.DurationSeconds),
		fmt.Sprintf("%d", row.LLMInteractions),
	}
}
