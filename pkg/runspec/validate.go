package runspec

import (
	"fmt"

	"github.com/embench/evalcore/pkg/corerrors"
	"github.com/embench/evalcore/pkg/model"
)

// Validate checks a fully-resolved RunSpec (built-in defaults, bundle, and
// CLI overrides all applied) for internal consistency. It fails fast,
// returning the first violation found (tarsy pkg/config's ValidateAll
// ordering: cheap structural checks before cross-field ones).
func (s *RunSpec) Validate() error {
	if !s.AgentMode.IsValid() {
		return corerrors.NewConfigError("agent_mode", fmt.Errorf("unknown value %q", s.AgentMode))
	}
	if !s.TaskRegime.IsValid() {
		return corerrors.NewConfigError("task_regime", fmt.Errorf("unknown value %q", s.TaskRegime))
	}
	if err := s.validateSelection(); err != nil {
		return err
	}
	if err := s.validateTaskFilter(); err != nil {
		return err
	}
	if s.Parallelism < 1 {
		return corerrors.NewConfigError("parallelism", fmt.Errorf("must be at least 1, got %d", s.Parallelism))
	}
	if s.StepBudget < 0 {
		return corerrors.NewConfigError("step_budget", fmt.Errorf("must not be negative, got %d", s.StepBudget))
	}
	if err := s.validateRetry(); err != nil {
		return err
	}
	if s.DatasetDir == "" {
		return corerrors.NewConfigError("dataset_dir", fmt.Errorf("must not be empty"))
	}
	if s.OutputDir == "" {
		return corerrors.NewConfigError("output_dir", fmt.Errorf("must not be empty"))
	}
	return nil
}

func (s *RunSpec) validateSelection() error {
	sel := s.ScenarioSelection
	switch sel.Mode {
	case model.SelectionAll:
		return nil
	case model.SelectionRange:
		if sel.Start == "" || sel.End == "" {
			return corerrors.NewConfigError("scenario_selection", fmt.Errorf("range mode requires both start and end"))
		}
		return nil
	case model.SelectionList:
		if len(sel.IDs) == 0 {
			return corerrors.NewConfigError("scenario_selection", fmt.Errorf("list mode requires at least one id"))
		}
		return nil
	default:
		return corerrors.NewConfigError("scenario_selection.mode", fmt.Errorf("unknown value %q", sel.Mode))
	}
}

func (s *RunSpec) validateTaskFilter() error {
	switch s.TaskFilter.RequiredAgentCount {
	case "", model.AgentCountAny, model.AgentCountSingle, model.AgentCountMulti:
		return nil
	default:
		return corerrors.NewConfigError("task_filter.required_agent_count", fmt.Errorf("unknown value %q", s.TaskFilter.RequiredAgentCount))
	}
}

func (s *RunSpec) validateRetry() error {
	r := s.Retry
	if r.MaxAttempts < 1 {
		return corerrors.NewConfigError("retry.max_attempts", fmt.Errorf("must be at least 1, got %d", r.MaxAttempts))
	}
	if r.BaseDelay <= 0 {
		return corerrors.NewConfigError("retry.base_delay", fmt.Errorf("must be positive, got %v", r.BaseDelay))
	}
	if r.MaxDelay < r.BaseDelay {
		return corerrors.NewConfigError("retry.max_delay", fmt.Errorf("must be >= base_delay, got max=%v base=%v", r.MaxDelay, r.BaseDelay))
	}
	if r.CallTimeout <= 0 {
		return corerrors.NewConfigError("retry.call_timeout", fmt.Errorf("must be positive, got %v", r.CallTimeout))
	}
	return nil
}
