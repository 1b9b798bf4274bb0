package feasibility

import (
	"testing"

	"github.com/orchestra/orchestra/pkg/cascade/constraint"
	"github.com/stretchr/testify/assert"
)

func TestEstimateHours_UsesFixedTable(t *testing.T) {
	hours := EstimateHours("moderate", "standard", "production", "maintainable")
	assert.Equal(t, 6.0, hours)
}

func TestEstimateHours_AppliesMultipliers(t *testing.T) {
	hours := EstimateHours("simple", "minimal", "mvp", "quick_hack")
	assert.InDelta(t, 1*0.5*0.3, hours, 1e-9)
}

func TestCheck_FeasibleWhenBothOK(t *testing.T) {
	cs := []constraint.Constraint{
		{Type: constraint.Complexity, Value: "simple"},
		{Type: constraint.Scope, Value: "minimal"},
		{Type: constraint.Skill, Value: "expert"},
	}
	res := Check(cs, 10)
	assert.Equal(t, Feasible, res.Status)
	assert.Equal(t, 0.8, res.Confidence)
}

func TestCheck_InfeasibleWhenBothFail(t *testing.T) {
	cs := []constraint.Constraint{
		{Type: constraint.Complexity, Value: "complex"},
		{Type: constraint.Scope, Value: "comprehensive"},
		{Type: constraint.Skill, Value: "beginner"},
		{Type: constraint.Time, Value: "urgent"},
	}
	res := Check(cs, 0)
	assert.Equal(t, Infeasible, res.Status)
	assert.NotEmpty(t, res.Alternatives)
	assert.NotEmpty(t, res.Blockers)
}

func TestCheck_MarginalWhenOneFails(t *testing.T) {
	cs := []constraint.Constraint{
		{Type: constraint.Complexity, Value: "complex"},
		{Type: constraint.Scope, Value: "minimal"},
		{Type: constraint.Skill, Value: "beginner"},
	}
	res := Check(cs, 100)
	assert.Equal(t, Marginal, res.Status)
}
