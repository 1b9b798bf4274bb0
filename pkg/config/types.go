// Package config loads the module's single orchestra.yaml settings file:
// system thresholds, model profiles, role requirements, role preferences,
// and the ambient tuning knobs for the cache, resource monitor, and
// orchestrator. Grounded on the teacher's pkg/config.Initialize/load/
// validate shape (pkg/config/loader.go), generalized from tarsy's
// agents/chains/mcp_servers registries to this module's model-capability
// domain.
package config

import (
	"time"

	"github.com/orchestra/orchestra/pkg/capability"
)

// YAMLConfig is the top-level shape of orchestra.yaml.
type YAMLConfig struct {
	System   *SystemYAML              `yaml:"system"`
	Models   *ModelsYAML               `yaml:"models"`
	Roles    map[string]RoleYAML       `yaml:"roles"`
	Selection *SelectionYAML           `yaml:"selection"`
}

// SystemYAML groups system-wide thresholds and the ambient component tuning
// knobs.
type SystemYAML struct {
	MaxMemoryGB           float64         `yaml:"max_memory_gb"`
	ThermalThreshold      float64         `yaml:"thermal_threshold"`
	CloudFallbacksEnabled *bool           `yaml:"cloud_fallbacks_enabled,omitempty"`
	LocalOnly             bool            `yaml:"local_only"`
	Resource              *ResourceYAML   `yaml:"resource"`
	Cache                 *CacheYAML      `yaml:"cache"`
	Orchestrator          *OrchestratorYAML `yaml:"orchestrator"`
	ModelFactory          *ModelFactoryYAML `yaml:"model_factory"`
}

// ResourceYAML tunes the ResourceMonitor.
type ResourceYAML struct {
	HistorySize    int     `yaml:"history_size"`
	SafetyBufferGB float64 `yaml:"safety_buffer_gb"`
	PollInterval   string  `yaml:"poll_interval"`
}

// CacheYAML tunes the ResponseCache and selects its persistence backend.
type CacheYAML struct {
	Capacity   int     `yaml:"capacity"`
	DefaultTTL string  `yaml:"default_ttl"`
	EvictFrac  float64 `yaml:"evict_frac"`
	Backend    string  `yaml:"backend"` // "json" (default) or "sqlite"
	Path       string  `yaml:"path"`
}

// OrchestratorYAML tunes the Plan/Critique/Execute cascade.
type OrchestratorYAML struct {
	MaxCriticIterations int    `yaml:"max_critic_iterations"`
	RiskThreshold       float64 `yaml:"risk_threshold"`
	RefinementBackoff   string `yaml:"refinement_backoff"`
	InvokeTimeout       string `yaml:"invoke_timeout"`
}

// ModelFactoryYAML tunes model load/switch behavior.
type ModelFactoryYAML struct {
	MaxMemoryGB  float64 `yaml:"max_memory_gb"`
	LoadDeadline string  `yaml:"load_deadline"`
}

// ModelsYAML holds the configured (non-discovered) model catalog.
type ModelsYAML struct {
	Profiles map[string]ModelYAML `yaml:"profiles"`
	Remote   map[string]ModelYAML `yaml:"remote"`
}

// ModelYAML is one model's configured capability profile.
type ModelYAML struct {
	DisplayName        string  `yaml:"display_name"`
	Source             string  `yaml:"source"`
	RequiresCredential  bool    `yaml:"requires_credential"`
	Tags                []string `yaml:"tags"`
	ContextLength       int     `yaml:"context_length"`
	Quantization        string  `yaml:"quantization"`
	Parameters          int64   `yaml:"parameters"`
	MemoryEstimateGB    float64 `yaml:"memory_estimate_gb"`
	MinMemoryGB         float64 `yaml:"min_memory_gb"`
	RecommendedMemoryGB float64 `yaml:"recommended_memory_gb"`
	Reasoning           float64 `yaml:"reasoning"`
	Coding              float64 `yaml:"coding"`
	Creativity          float64 `yaml:"creativity"`
	Multilingual        float64 `yaml:"multilingual"`
	SupportsFunctionCalling bool `yaml:"supports_function_calling"`
	SupportsVision          bool `yaml:"supports_vision"`
	SupportsTools           bool `yaml:"supports_tools"`
	ThermalSensitivity      float64 `yaml:"thermal_sensitivity"`
}

// RoleYAML is one role's requirements plus its preferred model names.
type RoleYAML struct {
	ReasoningMin    float64  `yaml:"reasoning_min"`
	CodingMin       float64  `yaml:"coding_min"`
	CreativityMin   float64  `yaml:"creativity_min"`
	MultilingualMin float64  `yaml:"multilingual_min"`
	ContextLengthMin int     `yaml:"context_length_min"`
	MemoryGBMax      float64 `yaml:"memory_gb_max"`
	RequiresFunctionCalling bool `yaml:"requires_function_calling"`
	RequiresVision          bool `yaml:"requires_vision"`
	RequiresTools           bool `yaml:"requires_tools"`
	MaxThermalSensitivity   float64 `yaml:"max_thermal_sensitivity"`
	RequiresLocal           bool    `yaml:"requires_local"`
	Preferences             []string `yaml:"preferences"`
}

// SelectionYAML is the scoring overlay applied on top of validation score.
type SelectionYAML struct {
	PreferLocal   bool `yaml:"prefer_local"`
	PreferSmaller bool `yaml:"prefer_smaller"`
	PreferFaster  bool `yaml:"prefer_faster"`
	CloudFallback []string `yaml:"cloud_fallback"`
}

// Resolved is the fully parsed, merged, defaulted, and validated
// configuration ready to wire into the module's components.
type Resolved struct {
	MaxMemoryGB           float64
	ThermalThreshold      float64
	CloudFallbacksEnabled bool
	LocalOnly             bool

	ResourceHistorySize    int
	ResourceSafetyBufferGB float64
	ResourcePollInterval   time.Duration

	CacheCapacity   int
	CacheDefaultTTL time.Duration
	CacheEvictFrac  float64
	CacheBackend    string
	CachePath       string

	OrchestratorMaxCriticIterations int
	OrchestratorRiskThreshold       float64
	OrchestratorRefinementBackoff   time.Duration
	OrchestratorInvokeTimeout       time.Duration

	ModelFactoryMaxMemoryGB  float64
	ModelFactoryLoadDeadline time.Duration

	Profiles map[string]*capability.ModelCapabilities
	Remote   map[string]*capability.ModelCapabilities

	Requirements    map[string]*capability.RoleRequirements
	RolePreferences map[string][]string

	PreferLocal   bool
	PreferSmaller bool
	PreferFaster  bool
	CloudFallback []string
}
