package clarify

import (
	"testing"

	"github.com/orchestra/orchestra/pkg/cascade/ambiguity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleAmbiguities() []ambiguity.Ambiguity {
	return []ambiguity.Ambiguity{
		{
			Type:            ambiguity.UndefinedTerm,
			Span:            "better",
			Confidence:      0.8,
			Interpretations: []string{"improve performance", "improve quality", "improve UX", "improve features"},
		},
	}
}

func TestSession_PresentAnswerCompletes(t *testing.T) {
	s := NewSession("make it better", sampleAmbiguities())
	choices, ok := s.Present()
	require.True(t, ok)
	require.NotEmpty(t, choices)
	assert.Equal(t, WaitingForInput, s.State())

	require.NoError(t, s.Answer(Answer{ChoiceID: "undefined_term_0"}))
	assert.Equal(t, Completed, s.State())

	clarified, err := s.Clarified()
	require.NoError(t, err)
	assert.Contains(t, clarified, "better (performance: speed, efficiency)")
}

func TestSession_FreeTextSubstitution(t *testing.T) {
	s := NewSession("make it better", sampleAmbiguities())
	_, _ = s.Present()
	require.NoError(t, s.Answer(Answer{FreeText: "faster"}))
	clarified, err := s.Clarified()
	require.NoError(t, err)
	assert.Equal(t, "make it faster", clarified)
}

func TestSession_CancelFromNonTerminal(t *testing.T) {
	s := NewSession("make it better", sampleAmbiguities())
	_, _ = s.Present()
	s.Cancel()
	assert.Equal(t, Cancelled, s.State())
}

func TestSession_ResumeReplaysUnanswered(t *testing.T) {
	s := NewSession("make it better", sampleAmbiguities())
	first, _ := s.Present()
	resumed, ok := s.Resume()
	require.True(t, ok)
	assert.Equal(t, first, resumed)
	assert.Equal(t, WaitingForInput, s.State())
}

func TestSession_SkipLeavesSpanUnchanged(t *testing.T) {
	s := NewSession("make it better", sampleAmbiguities())
	_, _ = s.Present()
	require.NoError(t, s.Answer(Answer{ChoiceID: "skip"}))
	clarified, err := s.Clarified()
	require.NoError(t, err)
	assert.Equal(t, "make it better", clarified)
}
