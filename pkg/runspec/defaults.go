package runspec

import (
	"time"

	"github.com/embench/evalcore/pkg/model"
	"github.com/embench/evalcore/pkg/simcontract"
)

// builtinDefaults returns the core's built-in RunSpec, applied before the
// configuration bundle and before CLI flag overrides (tarsy pkg/config's
// GetBuiltinConfig + defaults-resolution idiom).
func builtinDefaults() RunSpec {
	return RunSpec{
		AgentMode:  model.AgentModeSingle,
		TaskRegime: model.RegimeSequential,
		ScenarioSelection: ScenarioSelection{
			Mode: model.SelectionAll,
		},
		TaskFilter: TaskFilter{
			RequiredAgentCount: model.AgentCountAny,
		},
		Parallelism: 1,
		StepBudget:  30,
		Retry: RetryPolicy{
			MaxAttempts: 3,
			BaseDelay:   2 * time.Second,
			MaxDelay:    30 * time.Second,
			CallTimeout: 60 * time.Second,
		},
		Tracing: TracingConfig{
			Enabled:  false,
			Exporter: "stdout",
		},
		DetailLevel: simcontract.DetailStandard,
		DatasetDir:  "data/scenarios",
		OutputDir:   "runs",
	}
}
