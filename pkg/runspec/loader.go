package runspec

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"dario.cat/mergo"
	"gopkg.in/yaml.v3"
)

// Load resolves a RunSpec from the built-in defaults merged with an optional
// YAML configuration bundle (the --config flag). An empty bundlePath yields
// the built-in defaults untouched. Validate is not called here; callers
// apply CLI overrides first and validate once the RunSpec is final
// (mirrors tarsy pkg/config's Initialize load-then-validate split).
func Load(_ context.Context, bundlePath string) (*RunSpec, error) {
	log := slog.With("bundle", bundlePath)
	spec := builtinDefaults()

	if bundlePath == "" {
		log.Debug("no configuration bundle given, using built-in defaults")
		return &spec, nil
	}

	raw, err := os.ReadFile(bundlePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, NewLoadError(bundlePath, ErrBundleNotFound)
		}
		return nil, NewLoadError(bundlePath, err)
	}

	var bundle RunSpec
	if err := yaml.Unmarshal(expandEnv(raw), &bundle); err != nil {
		return nil, NewLoadError(bundlePath, fmt.Errorf("%w: %w", ErrInvalidYAML, err))
	}

	// Bundle values override the built-in defaults; zero-valued bundle
	// fields leave the default standing (mergo.WithOverride semantics).
	if err := mergo.Merge(&spec, bundle, mergo.WithOverride); err != nil {
		return nil, NewLoadError(bundlePath, fmt.Errorf("merging bundle over defaults: %w", err))
	}

	log.Info("configuration bundle loaded",
		"agent_mode", spec.AgentMode,
		"task_regime", spec.TaskRegime,
		"parallelism", spec.Parallelism)

	return &spec, nil
}
