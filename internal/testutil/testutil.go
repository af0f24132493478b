// Package testutil provides small fixture helpers shared by end-to-end
// tests that need a populated dataset directory and a run output
// directory, so each package's own tests don't hand-roll the same
// scene/task JSON layout.
package testutil

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/embench/evalcore/pkg/model"
	"github.com/stretchr/testify/require"
)

// SeedDataset writes one scenario's scene/task fixture files under
// datasetDir, in the layout C3 and C5 both read (§6 Dataset layout).
func SeedDataset(t *testing.T, datasetDir string, scenario model.Scenario) {
	t.Helper()

	require.NoError(t, os.MkdirAll(filepath.Join(datasetDir, "scene"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(datasetDir, "task"), 0o755))

	sceneData, err := json.Marshal(scenario.Scene)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(datasetDir, "scene", scenario.ScenarioID+"_scene.json"), sceneData, 0o644))

	taskData, err := json.Marshal(scenario)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(datasetDir, "task", scenario.ScenarioID+"_task.json"), taskData, 0o644))
}

// NewDataset creates an empty temp directory dataset layout ready for
// SeedDataset calls or direct file writes.
func NewDataset(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "scene"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "task"), 0o755))
	return dir
}
