package promptcatalog

// PlanStep mirrors the wire-shape of one step in a Plan.
type PlanStep struct {
	StepNumber    int      `json:"step_number"`
	Description   string   `json:"description"`
	Dependencies  []int    `json:"dependencies"`
	ToolsNeeded   []string `json:"tools_needed"`
	EstimatedTime string   `json:"estimated_time"`
}

// Plan mirrors the JSON-shaped structure a planner model returns.
type Plan struct {
	PlanSummary string     `json:"plan_summary"`
	Steps       []PlanStep `json:"steps"`
	TotalSteps  int        `json:"total_steps"`
	Complexity  string     `json:"complexity"`
}

// wellFormedRisk/malformedRisk are the two fixed outcomes of ValidateShape.
const (
	wellFormedRisk = 0.1
	malformedRisk  = 0.8
)

// ValidateShape runs the structural checks on a Plan: required fields
// present, step numbers dense and consistent with TotalSteps, every
// dependency referencing an earlier step, and every step having its
// required fields populated.
func ValidateShape(p Plan) (valid bool, riskScore float64) {
	if p.PlanSummary == "" || p.Complexity == "" {
		return false, malformedRisk
	}
	if p.TotalSteps != len(p.Steps) {
		return false, malformedRisk
	}

	seen := make(map[int]bool, len(p.Steps))
	for i, step := range p.Steps {
		expected := i + 1
		if step.StepNumber != expected {
			return false, malformedRisk
		}
		seen[step.StepNumber] = true
		if step.Description == "" {
			return false, malformedRisk
		}
		for _, dep := range step.Dependencies {
			if dep >= step.StepNumber || dep < 1 {
				return false, malformedRisk
			}
		}
	}

	switch p.Complexity {
	case "simple", "moderate", "complex":
	default:
		return false, malformedRisk
	}

	return true, wellFormedRisk
}
