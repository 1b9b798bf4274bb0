// Package rolemap implements RoleMapper: the filter-then-rank selection of
// a model for a role under live system constraints, per spec §4.3/§4.4.
package rolemap

import (
	"sort"

	"github.com/orchestra/orchestra/pkg/capability"
)

// SystemConstraints is the live snapshot selection filters against.
type SystemConstraints struct {
	MaxMemoryGB           float64
	AvailableMemoryGB     float64
	MaxThermalSensitivity float64
	ThermalState          string // "normal", "moderate", "high", "critical"
	LocalOnly             bool
	CloudFallbacksEnabled bool
}

// SelectionCriteria is the scoring overlay applied on top of the
// validation score.
type SelectionCriteria struct {
	PreferLocal   bool
	PreferSmaller bool
	PreferFaster  bool
}

// Catalog is the minimal registry view RoleMapper needs: candidate names
// for a role and their capabilities.
type Catalog interface {
	FilterByRole(role string, includeCloudFallback bool) []string
	Get(name string) (capabilities *capability.ModelCapabilities, ok bool)
}

// Selection is the outcome of ranking one candidate.
type Selection struct {
	Name   string
	Score  float64
	Report capability.ValidationReport
}

// RoleMapper ranks and selects models for roles.
type RoleMapper struct {
	catalog  Catalog
	requirements map[string]*capability.RoleRequirements
}

// New builds a RoleMapper over catalog, with requirements keyed by role
// name.
func New(catalog Catalog, requirements map[string]*capability.RoleRequirements) *RoleMapper {
	return &RoleMapper{catalog: catalog, requirements: requirements}
}

func (rm *RoleMapper) survivors(role string, constraints SystemConstraints) []Selection {
	req, ok := rm.requirements[role]
	if !ok {
		return nil
	}

	candidates := rm.catalog.FilterByRole(role, constraints.CloudFallbacksEnabled)

	var out []Selection
	for _, name := range candidates {
		caps, ok := rm.catalog.Get(name)
		if !ok {
			continue
		}
		if caps.RecommendedMemoryGB > constraints.MaxMemoryGB {
			continue
		}
		thermalOK := constraints.ThermalState == "normal" || constraints.ThermalState == "moderate"
		if caps.ThermalSensitivity > constraints.MaxThermalSensitivity && !thermalOK {
			continue
		}
		if constraints.LocalOnly && caps.Source != capability.SourceLocal {
			continue
		}
		report := capability.Validate(caps, req)
		if !report.Valid {
			continue
		}
		out = append(out, Selection{Name: name, Score: report.Score, Report: report})
	}
	return out
}

// rank applies the SelectionCriteria overlay and sorts survivors by
// (score desc, parameter count desc).
func (rm *RoleMapper) rank(survivors []Selection, criteria SelectionCriteria) []Selection {
	paramsOf := make(map[string]int64, len(survivors))
	for _, s := range survivors {
		caps, _ := rm.catalog.Get(s.Name)
		if caps != nil {
			paramsOf[s.Name] = caps.Parameters
		}
	}

	ranked := make([]Selection, len(survivors))
	copy(ranked, survivors)

	for i := range ranked {
		caps, ok := rm.catalog.Get(ranked[i].Name)
		if !ok {
			continue
		}
		score := ranked[i].Score
		if criteria.PreferLocal && caps.Source == capability.SourceLocal {
			score += 0.10
		}
		if criteria.PreferSmaller && caps.Parameters < 7_000_000_000 {
			score += 0.10
		}
		if criteria.PreferFaster && caps.ThermalSensitivity < 0.5 {
			score += 0.05
		}
		ranked[i].Score = clamp01(score)
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Score != ranked[j].Score {
			return ranked[i].Score > ranked[j].Score
		}
		return paramsOf[ranked[i].Name] > paramsOf[ranked[j].Name]
	})

	return ranked
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// Select returns the top-ranked model for role under constraints.
func (rm *RoleMapper) Select(role string, constraints SystemConstraints, criteria SelectionCriteria) (Selection, bool) {
	ranked := rm.rank(rm.survivors(role, constraints), criteria)
	if len(ranked) == 0 {
		return Selection{}, false
	}
	return ranked[0], true
}

// Recommendations returns the top-k ranked models for role.
func (rm *RoleMapper) Recommendations(role string, constraints SystemConstraints, criteria SelectionCriteria, k int) []Selection {
	ranked := rm.rank(rm.survivors(role, constraints), criteria)
	if k > 0 && k < len(ranked) {
		ranked = ranked[:k]
	}
	return ranked
}

// ValidateName validates a specific named model against role/constraints,
// regardless of whether it would otherwise survive the filter stage.
func (rm *RoleMapper) ValidateName(name, role string, constraints SystemConstraints) capability.ValidationReport {
	req, ok := rm.requirements[role]
	if !ok {
		return capability.ValidationReport{Valid: false, Issues: []string{"unknown role"}}
	}
	caps, ok := rm.catalog.Get(name)
	if !ok {
		return capability.ValidationReport{Valid: false, Issues: []string{"unknown model"}}
	}
	return capability.Validate(caps, req)
}

// FallbackChain returns the ranked candidate names for role, in selection
// order, for use as a retry chain.
func (rm *RoleMapper) FallbackChain(role string, constraints SystemConstraints) []string {
	ranked := rm.rank(rm.survivors(role, constraints), SelectionCriteria{})
	names := make([]string, len(ranked))
	for i, s := range ranked {
		names[i] = s.Name
	}
	return names
}

// SuggestUpgrades returns models at least 20% larger in parameter count, or
// with reasoning at least current+0.1, than the model named currentName.
func (rm *RoleMapper) SuggestUpgrades(currentName, role string, constraints SystemConstraints) []Selection {
	current, ok := rm.catalog.Get(currentName)
	if !ok {
		return nil
	}
	ranked := rm.rank(rm.survivors(role, constraints), SelectionCriteria{})
	var out []Selection
	for _, s := range ranked {
		if s.Name == currentName {
			continue
		}
		caps, ok := rm.catalog.Get(s.Name)
		if !ok {
			continue
		}
		largerEnough := float64(caps.Parameters) >= float64(current.Parameters)*1.2
		smarterEnough := caps.Reasoning >= current.Reasoning+0.1
		if largerEnough || smarterEnough {
			out = append(out, s)
		}
	}
	return out
}
