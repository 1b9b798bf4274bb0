package constraint

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtract_FindsExplicitConstraints(t *testing.T) {
	cs := Extract("this is urgent and complex, beginner skill, mvp quality", "")
	byKind := make(map[Kind]Constraint)
	for _, c := range cs {
		byKind[c.Type] = c
	}
	assert.Equal(t, "urgent", byKind[Time].Value)
	assert.Equal(t, Explicit, byKind[Time].Origin)
	assert.Equal(t, "complex", byKind[Complexity].Value)
	assert.Equal(t, "beginner", byKind[Skill].Value)
	assert.Equal(t, "mvp", byKind[Quality].Value)
}

func TestExtract_InferredFromProjectType(t *testing.T) {
	cs := Extract("build a thing", "prototype")
	found := false
	for _, c := range cs {
		if c.Type == Quality {
			found = true
			assert.Equal(t, Inferred, c.Origin)
			assert.Equal(t, 0.6, c.Confidence)
		}
	}
	assert.True(t, found)
}

func TestConflicts_DetectsUrgentComplex(t *testing.T) {
	cs := Extract("urgent and complex task", "")
	conflicts := Conflicts(cs)
	assert.NotEmpty(t, conflicts)
}

func TestConflicts_NoneWhenConsistent(t *testing.T) {
	cs := Extract("simple and urgent task", "")
	conflicts := Conflicts(cs)
	assert.Empty(t, conflicts)
}

func TestMissingSuggestions_FlagsAbsentTypes(t *testing.T) {
	cs := Extract("expert skill required", "")
	suggestions := MissingSuggestions(cs)
	assert.Contains(t, suggestions, "consider specifying a time constraint")
	assert.Contains(t, suggestions, "consider specifying a quality constraint")
	assert.Contains(t, suggestions, "consider specifying a scope constraint")
}

func TestResolveDuplicates_KeepsHigherConfidence(t *testing.T) {
	cs := []Constraint{
		{Type: Time, Value: "flexible", Confidence: 0.70},
		{Type: Time, Value: "urgent", Confidence: 0.85},
	}
	best := resolveDuplicates(cs)
	assert.Equal(t, "urgent", best.Value)
	assert.Len(t, best.Superseded, 1)
	assert.Equal(t, "flexible", best.Superseded[0].Value)
}
