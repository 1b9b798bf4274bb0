// Package clarify implements Cascade stage two: an interactive
// clarification session that walks a caller through an ordered list of
// detected ambiguities and folds their answers back into the request.
package clarify

import (
	"fmt"
	"strings"

	"github.com/orchestra/orchestra/pkg/cascade/ambiguity"
)

// State is the closed set of session states.
type State string

const (
	Initializing      State = "initializing"
	PresentingChoices State = "presenting_choices"
	WaitingForInput   State = "waiting_for_input"
	ProcessingInput   State = "processing_input"
	Completed         State = "completed"
	Cancelled         State = "cancelled"
)

// Choice is one option presented for a given ambiguity.
type Choice struct {
	ID    string
	Label string
}

// Answer is the caller's response to the currently presented ambiguity.
type Answer struct {
	ChoiceID   string
	FreeText   string
}

// Session walks through an ordered ambiguity list, one at a time.
type Session struct {
	original    string
	ambiguities []ambiguity.Ambiguity
	index       int
	answers     map[int]Answer
	state       State
	lastChoices []Choice
}

// NewSession builds a session over original text and its detected
// ambiguities, ordered as received (callers pass pre-sorted output from
// ambiguity.Detect).
func NewSession(original string, ambiguities []ambiguity.Ambiguity) *Session {
	return &Session{
		original:    original,
		ambiguities: ambiguities,
		answers:     make(map[int]Answer),
		state:       Initializing,
	}
}

func choicesFor(a ambiguity.Ambiguity) []Choice {
	choices := make([]Choice, 0, len(a.Interpretations)+1)
	for i, interp := range a.Interpretations {
		choices = append(choices, Choice{ID: fmt.Sprintf("%s_%d", string(a.Type), i), Label: interp})
	}
	choices = append(choices, Choice{ID: "skip", Label: "skip — leave as-is"})
	return choices
}

// Present advances to presenting_choices for the current ambiguity and
// returns its choice list. Returns false once every ambiguity has been
// answered.
func (s *Session) Present() ([]Choice, bool) {
	if s.state == Cancelled || s.state == Completed {
		return nil, false
	}
	if s.index >= len(s.ambiguities) {
		s.state = Completed
		return nil, false
	}
	s.state = PresentingChoices
	s.lastChoices = choicesFor(s.ambiguities[s.index])
	s.state = WaitingForInput
	return s.lastChoices, true
}

// Answer records the caller's response to the currently presented
// ambiguity and advances the index.
func (s *Session) Answer(a Answer) error {
	if s.state != WaitingForInput {
		return fmt.Errorf("clarify: answer received outside waiting_for_input (state=%s)", s.state)
	}
	s.state = ProcessingInput
	s.answers[s.index] = a
	s.index++
	if s.index >= len(s.ambiguities) {
		s.state = Completed
	} else {
		s.state = PresentingChoices
	}
	return nil
}

// Cancel transitions from any non-terminal state to cancelled.
func (s *Session) Cancel() {
	if s.state != Completed {
		s.state = Cancelled
	}
}

// Resume re-presents the last unanswered ambiguity after a transient
// caller disconnect while waiting_for_input, without losing prior answers.
func (s *Session) Resume() ([]Choice, bool) {
	if s.state != WaitingForInput && s.state != ProcessingInput {
		return s.Present()
	}
	s.state = PresentingChoices
	s.lastChoices = choicesFor(s.ambiguities[s.index])
	s.state = WaitingForInput
	return s.lastChoices, true
}

// State returns the session's current state.
func (s *Session) State() State { return s.state }

// parenthetical strings for structured-choice substitution, keyed by
// choice ID (family plus interpretation index). Matches the spec example: "improve" + improve_performance ->
// "improve (performance: speed, efficiency)".
var parentheticals = map[string]string{
	"undefined_term_0": "(performance: speed, efficiency)",
	"undefined_term_1": "(quality: correctness, maintainability)",
	"undefined_term_2": "(UX: clarity, responsiveness)",
	"undefined_term_3": "(features: completeness, coverage)",
}

// Clarified produces the clarified request once the session is complete,
// substituting free-text inputs into the original span, or appending
// family-specific contextual parentheticals for structured choices.
func (s *Session) Clarified() (string, error) {
	if s.state != Completed {
		return "", fmt.Errorf("clarify: session not completed (state=%s)", s.state)
	}
	result := s.original
	for i, a := range s.ambiguities {
		ans, ok := s.answers[i]
		if !ok || ans.ChoiceID == "skip" {
			continue
		}
		if ans.FreeText != "" {
			result = strings.Replace(result, a.Span, ans.FreeText, 1)
			continue
		}
		if paren, ok := parentheticals[ans.ChoiceID]; ok {
			result = strings.Replace(result, a.Span, a.Span+" "+paren, 1)
		}
	}
	return result, nil
}
