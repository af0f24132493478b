// Package selector implements the scenario selector (C3): given a RunSpec,
// it returns the ordered list of scenario ids a run will execute, after
// selection-mode resolution and category/agent-count filtering (§4.3).
package selector

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/embench/evalcore/pkg/model"
	"github.com/embench/evalcore/pkg/runspec"
)

// taskFileSuffix is the on-disk naming convention read from the dataset's
// task directory (§6 Dataset layout: task/<scenario_id>_task.json).
const taskFileSuffix = "_task.json"

// Select resolves spec.ScenarioSelection against the task directory, then
// applies spec.TaskFilter. An empty result is returned as-is — the caller
// logs it and completes with zero work done, not an error (§4.3 edge case).
func Select(log *slog.Logger, spec *runspec.RunSpec) ([]string, error) {
	if log == nil {
		log = slog.Default()
	}

	all, err := discoverScenarioIDs(spec.DatasetDir)
	if err != nil {
		return nil, err
	}

	selected, err := applySelection(all, spec.ScenarioSelection)
	if err != nil {
		return nil, err
	}

	filtered := make([]string, 0, len(selected))
	for _, id := range selected {
		ok, err := passesFilter(spec.DatasetDir, id, spec.TaskFilter)
		if err != nil {
			log.Warn("skipping scenario during filtering", "scenario_id", id, "error", err)
			continue
		}
		if ok {
			filtered = append(filtered, id)
		}
	}

	log.Info("scenario selection complete",
		"before_count", len(selected),
		"after_count", len(filtered),
		"categories", spec.TaskFilter.Categories,
		"required_agent_count", spec.TaskFilter.RequiredAgentCount)

	return filtered, nil
}

// discoverScenarioIDs lists every scenario id with a task file present in
// <dataset_dir>/task (§4.3 "all": every scenario whose task file exists).
func discoverScenarioIDs(datasetDir string) ([]string, error) {
	taskDir := filepath.Join(datasetDir, "task")
	entries, err := os.ReadDir(taskDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var ids []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if strings.HasSuffix(name, taskFileSuffix) {
			ids = append(ids, strings.TrimSuffix(name, taskFileSuffix))
		}
	}
	sort.Strings(ids)
	return ids, nil
}

// applySelection narrows all by the configured selection mode (§4.3). The
// filter never adds scenarios beyond what all already contains.
func applySelection(all []string, sel runspec.ScenarioSelection) ([]string, error) {
	switch sel.Mode {
	case model.SelectionAll, "":
		return all, nil

	case model.SelectionRange:
		var out []string
		for _, id := range all {
			if id >= sel.Start && id <= sel.End {
				out = append(out, id)
			}
		}
		return out, nil

	case model.SelectionList:
		present := make(map[string]bool, len(all))
		for _, id := range all {
			present[id] = true
		}
		seen := make(map[string]bool, len(sel.IDs))
		var out []string
		for _, id := range sel.IDs {
			if seen[id] || !present[id] {
				continue
			}
			seen[id] = true
			out = append(out, id)
		}
		return out, nil

	default:
		return nil, errUnknownSelectionMode(sel.Mode)
	}
}

// passesFilter opens the scenario's task file and applies the category and
// agent-count filters (§4.3 Filter semantics).
func passesFilter(datasetDir, scenarioID string, filter runspec.TaskFilter) (bool, error) {
	path := filepath.Join(datasetDir, "task", scenarioID+taskFileSuffix)
	data, err := os.ReadFile(path)
	if err != nil {
		return false, err
	}

	var scenario model.Scenario
	if err := json.Unmarshal(data, &scenario); err != nil {
		return false, err
	}

	if len(filter.Categories) > 0 {
		want := make(map[string]bool, len(filter.Categories))
		for _, c := range filter.Categories {
			want[c] = true
		}
		hasCategory := false
		for _, task := range scenario.Tasks {
			if want[task.Category] {
				hasCategory = true
				break
			}
		}
		if !hasCategory {
			return false, nil
		}
	}

	switch filter.RequiredAgentCount {
	case model.AgentCountSingle:
		if len(scenario.AgentConfigs) != 1 {
			return false, nil
		}
	case model.AgentCountMulti:
		if len(scenario.AgentConfigs) < 2 {
			return false, nil
		}
	}

	return true, nil
}
