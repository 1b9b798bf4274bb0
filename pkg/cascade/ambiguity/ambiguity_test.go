package ambiguity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetect_SortsByConfidenceDescending(t *testing.T) {
	results := Detect("make it better and fix the system somehow, clean up everything")
	require.NotEmpty(t, results)
	for i := 1; i < len(results); i++ {
		assert.GreaterOrEqual(t, results[i-1].Confidence, results[i].Confidence)
	}
}

func TestDetect_UndefinedTermCarriesInterpretations(t *testing.T) {
	results := Detect("please make it better")
	var found bool
	for _, a := range results {
		if a.Type == UndefinedTerm {
			found = true
			assert.NotEmpty(t, a.Interpretations)
			assert.NotEmpty(t, a.Suggestions)
		}
	}
	assert.True(t, found)
}

func TestDetect_NoAmbiguityOnPreciseInput(t *testing.T) {
	results := Detect("add a GET /users/:id endpoint returning 404 on missing id")
	assert.Empty(t, results)
}

func TestDetect_CapsMatchesPerFamily(t *testing.T) {
	// a single family can match at most MaxMatchesPerFamily times; with
	// only one pattern per term this test asserts the cap is honored for
	// small inputs (an exhaustive pathological-input test isn't needed —
	// the loop-level guard is covered directly).
	results := Detect("it it it it")
	count := 0
	for _, a := range results {
		if a.Type == AmbiguousReference {
			count++
		}
	}
	assert.LessOrEqual(t, count, MaxMatchesPerFamily)
}
