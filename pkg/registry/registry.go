// Package registry implements the ModelRegistry: discovery and merging of
// local inference endpoints, configured remote-provider catalogs, and
// configured static capability profiles, with rate-limited rediscovery and
// per-model validation isolation. Grounded on the teacher's
// pkg/config.Initialize/load merge shape (pkg/config/loader.go) generalized
// from YAML-file merging to live-endpoint merging.
package registry

import (
	"context"
	"sync"
	"time"

	"github.com/orchestra/orchestra/pkg/capability"
)

// LocalLister is the external local-daemon listing/describe contract
// (spec §6).
type LocalLister interface {
	List(ctx context.Context) ([]string, error)
	Describe(ctx context.Context, name string) error
}

// KeyStore is the external credential-presence contract (spec §6).
type KeyStore interface {
	Has(provider string) bool
}

// ModelInfo is the registry's per-model bookkeeping record.
type ModelInfo struct {
	Source         capability.ModelSource
	Capabilities   *capability.ModelCapabilities
	Validated      bool
	LastValidation time.Time
}

// SystemSettings is the read-only view of system-wide settings the
// registry exposes alongside model lookup.
type SystemSettings struct {
	MaxMemoryGB           float64
	ThermalThreshold      float64
	CloudFallbacksEnabled bool
}

// Registry discovers and merges model sources, validates reachability, and
// exposes lookup/filter operations.
type Registry struct {
	mu sync.RWMutex

	profiles map[string]*capability.ModelCapabilities // configured static profiles
	remote   map[string]*capability.ModelCapabilities  // configured remote catalogs

	models map[string]*ModelInfo

	rolePreferences map[string][]string
	cloudFallback   []string

	settings SystemSettings

	lister          LocalLister
	keys            KeyStore
	lastFullRefresh time.Time
	minRefreshGap   time.Duration
	validateTimeout time.Duration
}

// Config bundles the static/configured inputs to New.
type Config struct {
	Profiles        map[string]*capability.ModelCapabilities
	Remote          map[string]*capability.ModelCapabilities
	RolePreferences map[string][]string
	CloudFallback   []string
	Settings        SystemSettings
	MinRefreshGap   time.Duration
	ValidateTimeout time.Duration
}

// New builds a Registry. Call Refresh to populate it from the local
// daemon before first use.
func New(lister LocalLister, keys KeyStore, cfg Config) *Registry {
	if cfg.MinRefreshGap == 0 {
		cfg.MinRefreshGap = 60 * time.Second
	}
	if cfg.ValidateTimeout == 0 {
		cfg.ValidateTimeout = 5 * time.Second
	}
	return &Registry{
		profiles:        cfg.Profiles,
		remote:          cfg.Remote,
		models:          make(map[string]*ModelInfo),
		rolePreferences: cfg.RolePreferences,
		cloudFallback:   cfg.CloudFallback,
		settings:        cfg.Settings,
		lister:          lister,
		keys:            keys,
		minRefreshGap:   cfg.MinRefreshGap,
		validateTimeout: cfg.ValidateTimeout,
	}
}

// Refresh merges configured profiles, configured remote catalogs, and the
// local daemon's advertised list, validating each. Rediscovery is
// rate-limited to once per minRefreshGap unless force is true.
func (r *Registry) Refresh(ctx context.Context, force bool) error {
	r.mu.Lock()
	if !force && time.Since(r.lastFullRefresh) < r.minRefreshGap && !r.lastFullRefresh.IsZero() {
		r.mu.Unlock()
		return nil
	}
	r.mu.Unlock()

	merged := make(map[string]*ModelInfo)

	for name, caps := range r.profiles {
		merged[name] = &ModelInfo{Source: caps.Source, Capabilities: caps}
	}
	for name, caps := range r.remote {
		merged[name] = &ModelInfo{Source: caps.Source, Capabilities: caps}
	}

	var localNames []string
	if r.lister != nil {
		names, err := r.lister.List(ctx)
		if err == nil {
			localNames = names
		}
		// A listing failure does not fail Refresh as a whole — configured
		// profiles/remote catalogs are still usable (spec §4.2 "Failure").
	}
	for _, name := range localNames {
		if existing, ok := merged[name]; ok {
			existing.Source = capability.SourceLocal
			continue
		}
		merged[name] = &ModelInfo{Source: capability.SourceLocal}
	}

	for name, info := range merged {
		r.validateOne(ctx, name, info)
	}

	r.mu.Lock()
	r.models = merged
	r.lastFullRefresh = time.Now()
	r.mu.Unlock()

	return nil
}

// validateOne validates a single model, isolating its failure from the
// rest of the merge (spec §4.2 "Failure": "the model is marked
// validated=false and still listed; other models are unaffected").
func (r *Registry) validateOne(ctx context.Context, name string, info *ModelInfo) {
	switch info.Source {
	case capability.SourceLocal:
		vctx, cancel := context.WithTimeout(ctx, r.validateTimeout)
		defer cancel()
		if r.lister != nil && r.lister.Describe(vctx, name) == nil {
			info.Validated = true
		}
	default:
		if r.keys != nil && r.keys.Has(string(info.Source)) {
			info.Validated = true
		}
	}
	info.LastValidation = time.Now()
}

// Get looks up a model by name.
func (r *Registry) Get(name string) (*ModelInfo, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	info, ok := r.models[name]
	return info, ok
}

// FilterBySource returns the names of all known models from the given
// source, validated or not.
func (r *Registry) FilterBySource(source capability.ModelSource) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []string
	for name, info := range r.models {
		if info.Source == source {
			out = append(out, name)
		}
	}
	return out
}

// FilterByRole returns the configured preferred models for role, plus the
// cloud fallback chain when includeCloudFallback is true.
func (r *Registry) FilterByRole(role string, includeCloudFallback bool) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	preferred := append([]string(nil), r.rolePreferences[role]...)
	if includeCloudFallback {
		preferred = append(preferred, r.cloudFallback...)
	}
	return preferred
}

// Settings returns a copy of the read-only system settings view.
func (r *Registry) Settings() SystemSettings {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.settings
}

// All returns a copy of all known ModelInfo entries, keyed by name.
func (r *Registry) All() map[string]*ModelInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]*ModelInfo, len(r.models))
	for k, v := range r.models {
		out[k] = v
	}
	return out
}
