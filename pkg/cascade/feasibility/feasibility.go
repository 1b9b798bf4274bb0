// Package feasibility implements Cascade stage four: estimating required
// effort and validating it against time/skill constraints, with
// alternatives generated on failure.
package feasibility

import "github.com/orchestra/orchestra/pkg/cascade/constraint"

// Status is the closed set of feasibility outcomes.
type Status string

const (
	Feasible   Status = "feasible"
	Marginal   Status = "marginal"
	Infeasible Status = "infeasible"
	Unknown    Status = "unknown"
)

// baseHours is the fixed 3x3 estimate table indexed by
// (complexity, scope).
var baseHours = map[string]map[string]float64{
	"simple": {
		"minimal":       1,
		"standard":      2,
		"comprehensive": 4,
	},
	"moderate": {
		"minimal":       3,
		"standard":      6,
		"comprehensive": 12,
	},
	"complex": {
		"minimal":       8,
		"standard":      16,
		"comprehensive": 32,
	},
}

var qualityMultiplier = map[string]float64{
	"mvp":        0.5,
	"production": 1.0,
	"polished":   1.5,
}

var maintainabilityMultiplier = map[string]float64{
	"quick_hack":   0.3,
	"maintainable": 1.0,
	"enterprise":   1.5,
}

var skillAdmissible = map[string]map[string]bool{
	"beginner":     {"simple": true},
	"intermediate": {"simple": true, "moderate": true},
	"expert":       {"simple": true, "moderate": true, "complex": true},
}

// EstimateHours computes required effort from the fixed tables. Missing
// dimensions default to "moderate"/"standard"/"production"/"maintainable".
func EstimateHours(complexity, scope, quality, maintainability string) float64 {
	if complexity == "" {
		complexity = "moderate"
	}
	if scope == "" {
		scope = "standard"
	}
	if quality == "" {
		quality = "production"
	}
	if maintainability == "" {
		maintainability = "maintainable"
	}

	base := baseHours[complexity][scope]
	return base * qualityMultiplier[quality] * maintainabilityMultiplier[maintainability]
}

// Alternative is a suggested relaxation addressing one or more failing
// dimensions.
type Alternative struct {
	Description    string
	AddressedCount int
}

// Result is the outcome of a feasibility check.
type Result struct {
	Status       Status
	Confidence   float64
	Reasons      []string
	Blockers     []string
	Alternatives []Alternative
	Suggestions  []string
}

// timeOK implements the spec's qualitative/numeric time check.
func timeOK(timeValue string, timeHours float64, estimate float64) bool {
	switch timeValue {
	case "urgent":
		return estimate <= 4
	case "flexible", "":
		if timeHours > 0 {
			return timeHours >= estimate
		}
		return true
	default:
		if timeHours > 0 {
			return timeHours >= estimate
		}
		return true
	}
}

func skillOK(skill, complexity string) bool {
	if skill == "" || complexity == "" {
		return true
	}
	admissible, ok := skillAdmissible[skill]
	if !ok {
		return true
	}
	return admissible[complexity]
}

// Check runs the two independent feasibility checks and classifies the
// outcome.
func Check(constraints []constraint.Constraint, timeHours float64) Result {
	byKind := make(map[constraint.Kind]string)
	for _, c := range constraints {
		byKind[c.Type] = c.Value
	}

	complexity := byKind[constraint.Complexity]
	scope := byKind[constraint.Scope]
	quality := byKind[constraint.Quality]
	maintainability := byKind[constraint.Maintainability]
	skill := byKind[constraint.Skill]
	timeValue := byKind[constraint.Time]

	estimate := EstimateHours(complexity, scope, quality, maintainability)
	tOK := timeOK(timeValue, timeHours, estimate)
	sOK := skillOK(skill, complexity)

	var res Result
	switch {
	case tOK && sOK:
		res = Result{Status: Feasible, Confidence: 0.8}
	case tOK != sOK:
		res = Result{Status: Marginal, Confidence: 0.6}
	default:
		res = Result{Status: Infeasible, Confidence: 0.7}
	}

	if !tOK {
		res.Blockers = append(res.Blockers, "insufficient time budget for estimated effort")
		res.Alternatives = append(res.Alternatives, scopeReduction(complexity, scope, quality, maintainability, true, false))
		res.Alternatives = append(res.Alternatives, qualityReduction(complexity, scope, quality, maintainability, true, false))
	}
	if !sOK {
		res.Blockers = append(res.Blockers, "skill level insufficient for task complexity")
		res.Alternatives = append(res.Alternatives, complexityReduction(complexity, scope, quality, maintainability, false, true))
	}
	if !tOK && !sOK {
		res.Suggestions = append(res.Suggestions, "consider both reducing scope and simplifying the task")
	}

	return res
}

func scopeReduction(complexity, scope, quality, maintainability string, addressesTime, addressesSkill bool) Alternative {
	addressed := 0
	if addressesTime {
		addressed++
	}
	if addressesSkill {
		addressed++
	}
	return Alternative{Description: "reduce scope (halves estimated hours)", AddressedCount: addressed}
}

func qualityReduction(complexity, scope, quality, maintainability string, addressesTime, addressesSkill bool) Alternative {
	addressed := 0
	if addressesTime {
		addressed++
	}
	if addressesSkill {
		addressed++
	}
	return Alternative{Description: "reduce quality target to mvp (halves estimated hours)", AddressedCount: addressed}
}

func complexityReduction(complexity, scope, quality, maintainability string, addressesTime, addressesSkill bool) Alternative {
	addressed := 0
	if addressesTime {
		addressed++
	}
	if addressesSkill {
		addressed++
	}
	return Alternative{Description: "reduce complexity (quarters estimated hours)", AddressedCount: addressed}
}
