// Package adjust implements Cascade stage eight: given an obstacle,
// generating candidate prompt adjustments and selecting the best.
package adjust

import (
	"fmt"
	"strings"

	"github.com/orchestra/orchestra/pkg/cascade/planning"
	"github.com/orchestra/orchestra/pkg/cascade/progress"
)

// Kind is the closed set of adjustment strategies.
type Kind string

const (
	Simplify     Kind = "simplify"
	Expand       Kind = "expand"
	Refine       Kind = "refine"
	Restructure  Kind = "restructure"
	AddContext   Kind = "add_context"
	ReduceScope  Kind = "reduce_scope"
	ChangeModel  Kind = "change_model"
	BreakDown    Kind = "break_down"
)

// Adjustment is one candidate modification to a subtask's prompt.
type Adjustment struct {
	Kind               Kind
	Original           string
	Adjusted           string
	Reason             string
	ExpectedImprovement string
	Confidence         float64
}

// strategiesByObstacle maps an obstacle kind to the adjustment kinds a
// textbook fix would apply, in priority order.
var strategiesByObstacle = map[progress.ObstacleKind][]Kind{
	progress.Timeout:           {Simplify, ReduceScope, ChangeModel},
	progress.ResourceLimit:     {ChangeModel, ReduceScope},
	progress.DependencyFailure: {Restructure, AddContext},
	progress.QualityIssue:      {Refine, Expand, AddContext},
	progress.PerformanceIssue:  {Simplify, ChangeModel},
	progress.Error:             {BreakDown, Refine},
	progress.UnknownObstacle:   {Refine},
}

// textbookFit records which (obstacleKind, adjustmentKind) pairs are a
// canonical match, earning a higher confidence.
var textbookFit = map[progress.ObstacleKind]map[Kind]bool{
	progress.Timeout:           {Simplify: true, ChangeModel: true},
	progress.ResourceLimit:     {ChangeModel: true},
	progress.DependencyFailure: {Restructure: true},
	progress.QualityIssue:      {Refine: true},
	progress.PerformanceIssue:  {ChangeModel: true},
	progress.Error:             {BreakDown: true},
}

var boilerplatePhrases = []string{
	"please make sure to", "it would be great if you could", "as a reminder,",
}

func transform(kind Kind, original, targetModel string) string {
	switch kind {
	case Simplify:
		out := original
		for _, phrase := range boilerplatePhrases {
			out = strings.ReplaceAll(out, phrase, "")
		}
		return strings.TrimSpace(out)
	case Expand:
		return original + "\n\nProvide additional detail and edge cases."
	case Refine:
		return original + "\n\nRefine the previous attempt for correctness and clarity."
	case Restructure:
		return "Step-by-step:\n" + original
	case AddContext:
		return original + "\n\nAdditional context may be required; ask if information is missing."
	case ReduceScope:
		return original + "\n\nFocus only on the minimal viable portion of this task."
	case ChangeModel:
		hint := "Respond concisely and directly."
		if targetModel != "" {
			hint = fmt.Sprintf("Respond in a style suited to %s: concise, direct.", targetModel)
		}
		return original + "\n\n" + hint
	case BreakDown:
		return original + "\n\n1. Identify the first concrete step.\n2. Perform it.\n3. Report the result before continuing."
	default:
		return original
	}
}

// Generate builds one Adjustment per strategy mapped to obstacleKind.
func Generate(obstacleKind progress.ObstacleKind, subtask planning.Subtask, targetModel string) []Adjustment {
	kinds := strategiesByObstacle[obstacleKind]
	if kinds == nil {
		kinds = strategiesByObstacle[progress.UnknownObstacle]
	}

	out := make([]Adjustment, 0, len(kinds))
	for _, k := range kinds {
		confidence := 0.7
		if textbookFit[obstacleKind][k] {
			confidence = 0.85
			if k == ChangeModel && obstacleKind == progress.ResourceLimit {
				confidence = 0.9
			}
		}
		out = append(out, Adjustment{
			Kind:                k,
			Original:            subtask.Prompt,
			Adjusted:            transform(k, subtask.Prompt, targetModel),
			Reason:              fmt.Sprintf("obstacle %q addressed via %q", obstacleKind, k),
			ExpectedImprovement: improvementFor(k),
			Confidence:          confidence,
		})
	}
	return out
}

func improvementFor(k Kind) string {
	switch k {
	case Simplify:
		return "shorter prompt, faster response"
	case ReduceScope:
		return "less work per invocation, lower timeout risk"
	case ChangeModel:
		return "avoids resource pressure from the current model"
	case BreakDown:
		return "clearer incremental steps reduce error rate"
	default:
		return "improved response quality"
	}
}

// Best returns the adjustment with maximum confidence.
func Best(adjustments []Adjustment) (Adjustment, bool) {
	if len(adjustments) == 0 {
		return Adjustment{}, false
	}
	best := adjustments[0]
	for _, a := range adjustments[1:] {
		if a.Confidence > best.Confidence {
			best = a
		}
	}
	return best, true
}
