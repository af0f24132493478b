package coordinator

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/embench/evalcore/pkg/runspec"
	"github.com/embench/evalcore/pkg/store"
)

type execLogEntry = store.ExecutionLogEntry

// BuildRunSummary walks runDir's logs/ and trajectories/ directories and
// assembles a RunSummary (§4.6). It is the single source of truth for both
// the coordinator's normal-exit path and the standalone regen-summary CLI
// subcommand (SPEC_FULL §10 Supplemented Features).
func BuildRunSummary(runDir, runName string, spec *runspec.RunSpec, startedAt, endedAt time.Time, interrupted bool, failedScenarios []store.FailedScenario, selectionDescriptor string, scenarioCount, parallelism int) (store.RunSummary, error) {
	logsDir := filepath.Join(runDir, "logs")
	entries, err := os.ReadDir(logsDir)
	if err != nil {
		if os.IsNotExist(err) {
			entries = nil
		} else {
			return store.RunSummary{}, err
		}
	}

	categoryStats := map[string]*store.CategoryStats{}
	overall := &store.CategoryStats{}

	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		data, err := os.ReadFile(filepath.Join(logsDir, e.Name()))
		if err != nil {
			continue
		}
		var log execLogEntry
		if err := json.Unmarshal(data, &log); err != nil {
			continue
		}

		trajPath := filepath.Join(runDir, "trajectories", log.ScenarioID+"_trajectory.json")
		categories := readTrajectoryOutcomes(trajPath)
		for _, cat := range categories {
			stats := categoryStats[cat.category]
			if stats == nil {
				stats = &store.CategoryStats{}
				categoryStats[cat.category] = stats
			}
			stats.Total++
			overall.Total++
			if cat.claimed {
				stats.ModelClaimed++
				overall.ModelClaimed++
			}
			if cat.completed {
				stats.Completed++
				overall.Completed++
			}
		}
	}

	finalStats := make(map[string]store.CategoryStats, len(categoryStats))
	for cat, stats := range categoryStats {
		finalStats[cat] = finalize(*stats)
	}

	return store.RunSummary{
		RunInfo: store.RunInfo{
			RunName:             runName,
			StartTime:           startedAt,
			EndTime:             endedAt,
			AgentMode:           string(spec.AgentMode),
			TaskRegime:          string(spec.TaskRegime),
			Parallelism:         parallelism,
			ScenarioCount:       scenarioCount,
			SelectionDescriptor: selectionDescriptor,
			Interrupted:         interrupted,
		},
		TaskCategoryStatistics: finalStats,
		OverallSummary:         finalize(*overall),
		FailedScenarios:        failedScenarios,
	}, nil
}

func finalize(s store.CategoryStats) store.CategoryStats {
	if s.ModelClaimed > 0 {
		s.Accuracy = float64(s.Completed) / float64(s.ModelClaimed)
	}
	return s
}

type categoryOutcome struct {
	category  string
	claimed   bool
	completed bool
}

// readTrajectoryOutcomes reads one scenario's trajectory file and extracts
// the (category, claimed, completed) triple for each finalized task. Errors
// reading or parsing are treated as zero outcomes — a malformed trajectory
// must not crash summary generation (§7 failure semantics apply to
// regen-summary too).
func readTrajectoryOutcomes(path string) []categoryOutcome {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil
	}
	var raw []struct {
		Category string `json:"category"`
		Analysis *struct {
			ModelClaimedCompletion bool `json:"model_claimed_completion"`
			ActuallyCompleted      bool `json:"actually_completed"`
		} `json:"analysis"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil
	}

	outcomes := make([]categoryOutcome, 0, len(raw))
	for _, t := range raw {
		if t.Analysis == nil {
			continue
		}
		outcomes = append(outcomes, categoryOutcome{
			category:  t.Category,
			claimed:   t.Analysis.ModelClaimedCompletion,
			completed: t.Analysis.ActuallyCompleted,
		})
	}
	return outcomes
}
