package pathgen

import (
	"testing"

	"github.com/orchestra/orchestra/pkg/cascade/constraint"
	"github.com/orchestra/orchestra/pkg/cascade/feasibility"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectTaskKind_DefaultsToCoding(t *testing.T) {
	assert.Equal(t, Coding, DetectTaskKind("do something unclear"))
	assert.Equal(t, Writing, DetectTaskKind("write a blog post"))
	assert.Equal(t, Research, DetectTaskKind("research the market"))
}

func TestGenerate_ProducesTwoOrThreePaths(t *testing.T) {
	paths := Generate(Coding, feasibility.Feasible, nil, 10)
	require.GreaterOrEqual(t, len(paths), 2)
	require.LessOrEqual(t, len(paths), 3)
}

func TestGenerate_FastDropsErrorHandlingAndRefactoring(t *testing.T) {
	paths := Generate(Coding, feasibility.Feasible, nil, 10)
	var fast *ExecutionPath
	for i := range paths {
		if paths[i].Kind == Fast {
			fast = &paths[i]
		}
	}
	require.NotNil(t, fast)
	for _, s := range fast.Steps {
		assert.NotEqual(t, "error handling", s)
		assert.NotEqual(t, "refactoring", s)
	}
}

func TestGenerate_MinimalKeepsThreeSteps(t *testing.T) {
	paths := Generate(Coding, feasibility.Marginal, nil, 10)
	var minimal *ExecutionPath
	for i := range paths {
		if paths[i].Kind == Minimal {
			minimal = &paths[i]
		}
	}
	require.NotNil(t, minimal)
	assert.Len(t, minimal.Steps, 3)
}

func TestScoreAgainst_PenalizesUrgentLongPaths(t *testing.T) {
	cs := []constraint.Constraint{{Type: constraint.Time, Value: "urgent"}}
	paths := Generate(Coding, feasibility.Feasible, cs, 10)
	for _, p := range paths {
		assert.GreaterOrEqual(t, p.FitScore, 0.0)
		assert.LessOrEqual(t, p.FitScore, 1.0)
		// every path here exceeds 4 hours, so each takes the 0.3 urgent penalty
		assert.InDelta(t, 0.7, p.FitScore, 1e-9)
	}
}
