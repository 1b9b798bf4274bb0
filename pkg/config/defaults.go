package config

import (
	"time"

	"github.com/orchestra/orchestra/pkg/capability"
)

// builtinRoles are the built-in role requirement baselines, merged under
// any user-supplied roles in orchestra.yaml (user values win field-by-field
// via mergo, mirroring the teacher's built-in+user merge for agents).
func builtinRoles() map[string]RoleYAML {
	return map[string]RoleYAML{
		"planner": {
			ReasoningMin: 0.6, CodingMin: 0.3, ContextLengthMin: 8192,
			MemoryGBMax: 24, MaxThermalSensitivity: 0.8,
		},
		"critic": {
			ReasoningMin: 0.65, CodingMin: 0.2, ContextLengthMin: 4096,
			MemoryGBMax: 24, MaxThermalSensitivity: 0.8,
		},
		"executor": {
			ReasoningMin: 0.4, CodingMin: 0.6, ContextLengthMin: 8192,
			MemoryGBMax: 32, MaxThermalSensitivity: 0.9,
		},
		"refinement": {
			ReasoningMin: 0.5, CodingMin: 0.4, ContextLengthMin: 4096,
			MemoryGBMax: 24, MaxThermalSensitivity: 0.8,
		},
	}
}

// DefaultSystem returns the built-in defaults applied for any system
// setting left unset in orchestra.yaml.
func DefaultSystem() SystemYAML {
	return SystemYAML{
		MaxMemoryGB:      32,
		ThermalThreshold: 0.85,
		Resource: &ResourceYAML{
			HistorySize:    100,
			SafetyBufferGB: 2.0,
			PollInterval:   "30s",
		},
		Cache: &CacheYAML{
			Capacity:   1000,
			DefaultTTL: "1h",
			EvictFrac:  0.10,
			Backend:    "json",
			Path:       "./orchestra-cache.json",
		},
		Orchestrator: &OrchestratorYAML{
			MaxCriticIterations: 3,
			RiskThreshold:       0.3,
			RefinementBackoff:   "1s",
			InvokeTimeout:       "60s",
		},
		ModelFactory: &ModelFactoryYAML{
			MaxMemoryGB:  32,
			LoadDeadline: "120s",
		},
	}
}

func boolOr(p *bool, def bool) bool {
	if p == nil {
		return def
	}
	return *p
}

func durationOr(s string, def time.Duration) time.Duration {
	if s == "" {
		return def
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return def
	}
	return d
}

func sourceOf(s string) capability.ModelSource {
	switch s {
	case "providerA":
		return capability.SourceProviderA
	case "providerB":
		return capability.SourceProviderB
	default:
		return capability.SourceLocal
	}
}

func quantizationOf(s string) capability.Quantization {
	switch s {
	case "q4":
		return capability.QuantizationQ4
	case "q5":
		return capability.QuantizationQ5
	case "q8":
		return capability.QuantizationQ8
	case "fp16":
		return capability.QuantizationFP16
	default:
		return capability.QuantizationNone
	}
}
