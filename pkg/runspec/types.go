// Package runspec defines RunSpec, the immutable input to one evaluation
// run, and the YAML configuration-bundle loader that produces it. RunSpec
// is created once by the run coordinator and is read-only thereafter
// (base spec §3 Lifecycles).
package runspec

import (
	"time"

	"github.com/embench/evalcore/pkg/model"
	"github.com/embench/evalcore/pkg/simcontract"
)

// ScenarioSelection describes how C3 resolves the scenario id list.
type ScenarioSelection struct {
	Mode  model.SelectionMode `yaml:"mode"`
	Start string              `yaml:"start,omitempty"` // range mode, inclusive
	End   string              `yaml:"end,omitempty"`   // range mode, inclusive
	IDs   []string            `yaml:"ids,omitempty"`   // list mode
}

// TaskFilter narrows a selection by task category and agent-config count.
type TaskFilter struct {
	Categories         []string              `yaml:"categories,omitempty"`
	RequiredAgentCount model.AgentCountFilter `yaml:"required_agent_count,omitempty"`
}

// RetryPolicy bounds the exponential backoff applied to agent/LLM calls
// (base spec §4.4, §5 — a hung LLM call must not stall the whole run).
type RetryPolicy struct {
	MaxAttempts int           `yaml:"max_attempts"`
	BaseDelay   time.Duration `yaml:"base_delay"`
	MaxDelay    time.Duration `yaml:"max_delay"`
	CallTimeout time.Duration `yaml:"call_timeout"`
}

// TracingConfig toggles the ambient OpenTelemetry instrumentation (§2.1 of
// SPEC_FULL); disabling it changes no observable behavior of the core.
type TracingConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Exporter string `yaml:"exporter,omitempty"` // "stdout" (only exporter wired today)
}

// RunSpec is the immutable input for one run (base spec §3).
type RunSpec struct {
	AgentMode          model.AgentMode          `yaml:"agent_mode"`
	TaskRegime         model.TaskRegime         `yaml:"task_regime"`
	ScenarioSelection  ScenarioSelection        `yaml:"scenario_selection"`
	TaskFilter         TaskFilter               `yaml:"task_filter"`
	Parallelism        int                      `yaml:"parallelism"`
	StepBudget         int                      `yaml:"step_budget"`
	CustomSuffix       string                   `yaml:"custom_suffix,omitempty"`
	Retry              RetryPolicy              `yaml:"retry"`
	Tracing            TracingConfig            `yaml:"tracing"`
	DetailLevel        simcontract.DetailLevel  `yaml:"detail_level"`
	ShowProperties     bool                     `yaml:"show_properties"`
	OnlyDiscovered     bool                     `yaml:"only_discovered"`
	DatasetDir         string                   `yaml:"dataset_dir"`
	OutputDir          string                   `yaml:"output_dir"`
	ScenarioTimeout    time.Duration            `yaml:"scenario_timeout,omitempty"` // 0 = no per-scenario wall-clock cap
}

// RunName derives the run directory name: <timestamp>_<agent_mode>_<task_regime>_<suffix> (§4.1).
func (s *RunSpec) RunName(startedAt time.Time) string {
	suffix := s.CustomSuffix
	if suffix == "" {
		suffix = "run"
	}
	return startedAt.UTC().Format("20060102T150405Z") + "_" + string(s.AgentMode) + "_" + string(s.TaskRegime) + "_" + suffix
}
