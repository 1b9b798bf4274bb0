package config

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"dario.cat/mergo"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/orchestra/orchestra/pkg/capability"
	orcherrors "github.com/orchestra/orchestra/pkg/errors"
)

// Initialize loads, merges, defaults, and validates orchestra.yaml from
// configDir, returning a Resolved configuration ready to wire into the
// module's components. Mirrors the teacher's Initialize/load/validate
// three-step shape (pkg/config/loader.go).
func Initialize(_ context.Context, configDir string) (*Resolved, error) {
	log := slog.With("config_dir", configDir)
	log.Info("initializing configuration")

	// A sibling .env file is loaded (if present) before YAML expansion so
	// ${VAR} references in orchestra.yaml can resolve to it. Missing .env
	// is not an error — most deployments rely on the real environment.
	_ = godotenv.Load(filepath.Join(configDir, ".env"))

	raw, err := loadYAML(configDir)
	if err != nil {
		return nil, orcherrors.NewConfig("config.Initialize", err)
	}

	resolved, err := resolve(raw)
	if err != nil {
		return nil, orcherrors.NewConfig("config.Initialize", err)
	}

	if err := Validate(resolved); err != nil {
		return nil, orcherrors.NewConfig("config.Initialize", err)
	}

	log.Info("configuration initialized",
		"models", len(resolved.Profiles)+len(resolved.Remote),
		"roles", len(resolved.Requirements))
	return resolved, nil
}

func loadYAML(configDir string) (*YAMLConfig, error) {
	path := filepath.Join(configDir, "orchestra.yaml")
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, path)
		}
		return nil, err
	}

	data = ExpandEnv(data)

	var cfg YAMLConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidYAML, err)
	}
	return &cfg, nil
}

// resolve merges built-in defaults with the user's YAML (user overrides
// built-in, via mergo.WithOverride) and converts the YAML shape into the
// domain types the rest of the module consumes.
func resolve(cfg *YAMLConfig) (*Resolved, error) {
	system := DefaultSystem()
	if cfg.System != nil {
		if err := mergo.Merge(&system, *cfg.System, mergo.WithOverride); err != nil {
			return nil, fmt.Errorf("merging system config: %w", err)
		}
	}

	out := &Resolved{
		MaxMemoryGB:           system.MaxMemoryGB,
		ThermalThreshold:      system.ThermalThreshold,
		CloudFallbacksEnabled: boolOr(system.CloudFallbacksEnabled, false),
		LocalOnly:             system.LocalOnly,

		ResourceHistorySize:    system.Resource.HistorySize,
		ResourceSafetyBufferGB: system.Resource.SafetyBufferGB,
		ResourcePollInterval:   durationOr(system.Resource.PollInterval, 0),

		CacheCapacity:   system.Cache.Capacity,
		CacheDefaultTTL: durationOr(system.Cache.DefaultTTL, 0),
		CacheEvictFrac:  system.Cache.EvictFrac,
		CacheBackend:    system.Cache.Backend,
		CachePath:       system.Cache.Path,

		OrchestratorMaxCriticIterations: system.Orchestrator.MaxCriticIterations,
		OrchestratorRiskThreshold:       system.Orchestrator.RiskThreshold,
		OrchestratorRefinementBackoff:   durationOr(system.Orchestrator.RefinementBackoff, 0),
		OrchestratorInvokeTimeout:       durationOr(system.Orchestrator.InvokeTimeout, 0),

		ModelFactoryMaxMemoryGB:  system.ModelFactory.MaxMemoryGB,
		ModelFactoryLoadDeadline: durationOr(system.ModelFactory.LoadDeadline, 0),

		Profiles: make(map[string]*capability.ModelCapabilities),
		Remote:   make(map[string]*capability.ModelCapabilities),

		Requirements:    make(map[string]*capability.RoleRequirements),
		RolePreferences: make(map[string][]string),
	}

	if cfg.Models != nil {
		for name, m := range cfg.Models.Profiles {
			out.Profiles[name] = toCapabilities(name, m)
		}
		for name, m := range cfg.Models.Remote {
			out.Remote[name] = toCapabilities(name, m)
		}
	}

	roles := builtinRoles()
	for name, r := range cfg.Roles {
		base := roles[name] // zero value if role is new, fine for mergo
		if err := mergo.Merge(&base, r, mergo.WithOverride); err != nil {
			return nil, fmt.Errorf("merging role %q: %w", name, err)
		}
		roles[name] = base
	}
	for name, r := range roles {
		out.Requirements[name] = &capability.RoleRequirements{
			Role:                    name,
			ReasoningMin:            r.ReasoningMin,
			CodingMin:               r.CodingMin,
			CreativityMin:           r.CreativityMin,
			MultilingualMin:         r.MultilingualMin,
			ContextLengthMin:        r.ContextLengthMin,
			MemoryGBMax:             r.MemoryGBMax,
			RequiresFunctionCalling: r.RequiresFunctionCalling,
			RequiresVision:          r.RequiresVision,
			RequiresTools:           r.RequiresTools,
			MaxThermalSensitivity:   r.MaxThermalSensitivity,
			RequiresLocal:           r.RequiresLocal,
		}
		out.RolePreferences[name] = r.Preferences
	}

	if cfg.Selection != nil {
		out.PreferLocal = cfg.Selection.PreferLocal
		out.PreferSmaller = cfg.Selection.PreferSmaller
		out.PreferFaster = cfg.Selection.PreferFaster
		out.CloudFallback = cfg.Selection.CloudFallback
	}

	return out, nil
}

func toCapabilities(name string, m ModelYAML) *capability.ModelCapabilities {
	caps := capability.New(name, sourceOf(m.Source))
	caps.DisplayName = m.DisplayName
	caps.RequiresCredential = m.RequiresCredential
	for _, tag := range m.Tags {
		caps.Tags[tag] = struct{}{}
	}
	caps.ContextLength = m.ContextLength
	caps.Quantization = quantizationOf(m.Quantization)
	caps.Parameters = m.Parameters
	caps.MemoryEstimateGB = m.MemoryEstimateGB
	caps.MinMemoryGB = m.MinMemoryGB
	caps.RecommendedMemoryGB = m.RecommendedMemoryGB
	caps.WithSkills(m.Reasoning, m.Coding, m.Creativity, m.Multilingual)
	caps.SupportsFunctionCalling = m.SupportsFunctionCalling
	caps.SupportsVision = m.SupportsVision
	caps.SupportsTools = m.SupportsTools
	caps.WithThermalSensitivity(m.ThermalSensitivity)
	return caps
}
