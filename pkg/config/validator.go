package config

import (
	"fmt"

	"github.com/orchestra/orchestra/pkg/capability"
)

// Validate performs fail-fast, ordered validation over a Resolved
// configuration: system thresholds, then models, then roles — mirroring the
// teacher's validateQueue/validateAgents/... ordered-dependency shape.
func Validate(cfg *Resolved) error {
	if err := validateSystem(cfg); err != nil {
		return fmt.Errorf("system validation failed: %w", err)
	}
	if err := validateModels(cfg); err != nil {
		return fmt.Errorf("model validation failed: %w", err)
	}
	if err := validateRoles(cfg); err != nil {
		return fmt.Errorf("role validation failed: %w", err)
	}
	return nil
}

func validateSystem(cfg *Resolved) error {
	if cfg.MaxMemoryGB <= 0 {
		return fmt.Errorf("%w: system.max_memory_gb must be positive", ErrInvalidValue)
	}
	if cfg.ThermalThreshold < 0 || cfg.ThermalThreshold > 1 {
		return fmt.Errorf("%w: system.thermal_threshold must be in [0,1]", ErrInvalidValue)
	}
	if cfg.CacheCapacity <= 0 {
		return fmt.Errorf("%w: system.cache.capacity must be positive", ErrInvalidValue)
	}
	if cfg.CacheBackend != "json" && cfg.CacheBackend != "sqlite" {
		return fmt.Errorf("%w: system.cache.backend must be \"json\" or \"sqlite\", got %q", ErrInvalidValue, cfg.CacheBackend)
	}
	if cfg.OrchestratorMaxCriticIterations <= 0 {
		return fmt.Errorf("%w: system.orchestrator.max_critic_iterations must be positive", ErrInvalidValue)
	}
	if cfg.OrchestratorRiskThreshold < 0 || cfg.OrchestratorRiskThreshold > 1 {
		return fmt.Errorf("%w: system.orchestrator.risk_threshold must be in [0,1]", ErrInvalidValue)
	}
	return nil
}

func validateModels(cfg *Resolved) error {
	for name, m := range cfg.Profiles {
		if err := validateOneModel(name, m); err != nil {
			return err
		}
	}
	for name, m := range cfg.Remote {
		if err := validateOneModel(name, m); err != nil {
			return err
		}
		if m.RequiresCredential && m.Source == capability.SourceLocal {
			return fmt.Errorf("%w: remote model %q requires a credential but has source \"local\"", ErrInvalidValue, name)
		}
	}
	return nil
}

func validateOneModel(name string, m *capability.ModelCapabilities) error {
	if name == "" {
		return fmt.Errorf("%w: model entry has empty name", ErrMissingRequiredField)
	}
	if err := m.StructurallyValid(); err != nil {
		return fmt.Errorf("%w: model %q: %v", ErrInvalidValue, name, err)
	}
	return nil
}

func validateRoles(cfg *Resolved) error {
	if len(cfg.Requirements) == 0 {
		return fmt.Errorf("%w: at least one role must be configured", ErrMissingRequiredField)
	}
	for role, req := range cfg.Requirements {
		if req.ReasoningMin < 0 || req.ReasoningMin > 1 {
			return fmt.Errorf("%w: role %q reasoning_min must be in [0,1]", ErrInvalidValue, role)
		}
		for _, pref := range cfg.RolePreferences[role] {
			if _, inProfiles := cfg.Profiles[pref]; inProfiles {
				continue
			}
			if _, inRemote := cfg.Remote[pref]; inRemote {
				continue
			}
			return fmt.Errorf("%w: role %q prefers unknown model %q", ErrInvalidReference, role, pref)
		}
	}
	return nil
}
