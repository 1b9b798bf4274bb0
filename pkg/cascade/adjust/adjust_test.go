package adjust

import (
	"testing"

	"github.com/orchestra/orchestra/pkg/cascade/planning"
	"github.com/orchestra/orchestra/pkg/cascade/progress"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate_TimeoutProducesExpectedStrategies(t *testing.T) {
	subtask := planning.Subtask{Prompt: "please make sure to do the thing thoroughly"}
	adjustments := Generate(progress.Timeout, subtask, "")
	require.Len(t, adjustments, 3)

	kinds := make(map[Kind]bool)
	for _, a := range adjustments {
		kinds[a.Kind] = true
	}
	assert.True(t, kinds[Simplify])
	assert.True(t, kinds[ReduceScope])
	assert.True(t, kinds[ChangeModel])
}

func TestGenerate_TextbookFitRaisesConfidence(t *testing.T) {
	subtask := planning.Subtask{Prompt: "do the thing"}
	adjustments := Generate(progress.Timeout, subtask, "")
	for _, a := range adjustments {
		if a.Kind == Simplify {
			assert.GreaterOrEqual(t, a.Confidence, 0.85)
		}
	}
}

func TestSimplify_RemovesBoilerplate(t *testing.T) {
	subtask := planning.Subtask{Prompt: "please make sure to handle errors"}
	adjustments := Generate(progress.Timeout, subtask, "")
	for _, a := range adjustments {
		if a.Kind == Simplify {
			assert.NotContains(t, a.Adjusted, "please make sure to")
		}
	}
}

func TestBest_SelectsMaxConfidence(t *testing.T) {
	subtask := planning.Subtask{Prompt: "do it"}
	adjustments := Generate(progress.ResourceLimit, subtask, "small-model")
	best, ok := Best(adjustments)
	require.True(t, ok)
	for _, a := range adjustments {
		assert.GreaterOrEqual(t, best.Confidence, a.Confidence)
	}
}
