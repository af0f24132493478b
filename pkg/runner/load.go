package runner

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/embench/evalcore/pkg/corerrors"
	"github.com/embench/evalcore/pkg/model"
)

// loadedScenario is the on-disk artifact set for one scenario, read from the
// dataset layout C3/C5 share: scene/<id>_scene.json, task/<id>_task.json,
// and an optional task/<id>_verify.json (§6 Dataset layout).
type loadedScenario struct {
	Scene    any
	Tasks    []model.Task
	AgentConfigs []model.AgentConfig
}

func loadScenario(datasetDir, scenarioID string) (*loadedScenario, error) {
	scenePath := filepath.Join(datasetDir, "scene", scenarioID+"_scene.json")
	sceneData, err := os.ReadFile(scenePath)
	if err != nil {
		return nil, corerrors.NewScenarioLoadError(scenarioID, scenePath, err)
	}
	var scene any
	if err := json.Unmarshal(sceneData, &scene); err != nil {
		return nil, corerrors.NewScenarioLoadError(scenarioID, scenePath, err)
	}

	taskPath := filepath.Join(datasetDir, "task", scenarioID+"_task.json")
	taskData, err := os.ReadFile(taskPath)
	if err != nil {
		return nil, corerrors.NewScenarioLoadError(scenarioID, taskPath, err)
	}
	var scenario model.Scenario
	if err := json.Unmarshal(taskData, &scenario); err != nil {
		return nil, corerrors.NewScenarioLoadError(scenarioID, taskPath, err)
	}

	verifyPath := filepath.Join(datasetDir, "task", scenarioID+"_verify.json")
	if verifyData, err := os.ReadFile(verifyPath); err == nil {
		var verifiers map[string]any
		if err := json.Unmarshal(verifyData, &verifiers); err != nil {
			return nil, corerrors.NewScenarioLoadError(scenarioID, verifyPath, err)
		}
		for i := range scenario.Tasks {
			key := scenario.Tasks[i].Description
			if v, ok := verifiers[key]; ok {
				scenario.Tasks[i].Verifier = v
			}
		}
	} else if !os.IsNotExist(err) {
		return nil, corerrors.NewScenarioLoadError(scenarioID, verifyPath, err)
	}

	return &loadedScenario{Scene: scene, Tasks: scenario.Tasks, AgentConfigs: scenario.AgentConfigs}, nil
}
