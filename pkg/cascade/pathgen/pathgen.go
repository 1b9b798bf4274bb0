// Package pathgen implements Cascade stage five: generating 2-3 candidate
// execution paths from a fixed template table, scored against
// constraints.
package pathgen

import (
	"regexp"
	"strings"

	"github.com/orchestra/orchestra/pkg/cascade/constraint"
	"github.com/orchestra/orchestra/pkg/cascade/feasibility"
)

// TaskKind is detected by keyword from the user request.
type TaskKind string

const (
	Coding   TaskKind = "coding"
	Writing  TaskKind = "writing"
	Analysis TaskKind = "analysis"
	Research TaskKind = "research"
)

var taskKeywords = map[TaskKind]*regexp.Regexp{
	Writing:  regexp.MustCompile(`(?i)\b(write|draft|compose|blog|article)\b`),
	Analysis: regexp.MustCompile(`(?i)\b(analyze|analyse|evaluate|assess)\b`),
	Research: regexp.MustCompile(`(?i)\b(research|investigate|survey)\b`),
	Coding:   regexp.MustCompile(`(?i)\b(code|implement|build|fix|bug|function|api)\b`),
}

// DetectTaskKind matches keywords in priority order, defaulting to Coding.
func DetectTaskKind(input string) TaskKind {
	for _, kind := range []TaskKind{Writing, Analysis, Research, Coding} {
		if taskKeywords[kind].MatchString(input) {
			return kind
		}
	}
	return Coding
}

// PathKind is the closed set of execution path archetypes.
type PathKind string

const (
	Optimal     PathKind = "optimal"
	Fast        PathKind = "fast"
	Thorough    PathKind = "thorough"
	Minimal     PathKind = "minimal"
	Alternative PathKind = "alternative"
	Workaround  PathKind = "workaround"
)

// ExecutionPath is one candidate path through the task.
type ExecutionPath struct {
	Kind             PathKind
	Steps            []string
	EstimatedHours   float64
	EstimatedCost    float64
	RequiredSkills   []string
	RequiredResources []string
	Pros             []string
	Cons             []string
	Confidence       float64
	FitScore         float64
}

var baseSteps = map[TaskKind][]string{
	Coding:   {"analyze requirements", "implement", "error handling", "tests", "refactoring", "document"},
	Writing:  {"outline", "draft", "revise", "proofread"},
	Analysis: {"gather data", "analyze", "synthesize findings", "report"},
	Research: {"scope question", "gather sources", "synthesize", "write summary"},
}

func adjustSteps(kind PathKind, steps []string) []string {
	switch kind {
	case Minimal:
		first, last := steps[0], steps[len(steps)-1]
		mid := steps[len(steps)/2]
		return []string{first, mid, last}
	case Fast:
		var out []string
		for _, s := range steps {
			if s == "error handling" || s == "refactoring" {
				continue
			}
			out = append(out, s)
		}
		return out
	case Thorough:
		out := append([]string{}, steps...)
		return append(out, "tests", "performance", "security review")
	case Alternative:
		out := make([]string, len(steps))
		copy(out, steps)
		for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
			out[i], out[j] = out[j], out[i]
		}
		return out
	case Workaround:
		if len(steps) <= 2 {
			return steps
		}
		return []string{steps[0], strings.Join(steps[1:len(steps)-1], " + "), steps[len(steps)-1]}
	default:
		return steps
	}
}

// Generate produces 2-3 candidate paths for taskKind given feasStatus,
// scored against constraints.
func Generate(taskKind TaskKind, feasStatus feasibility.Status, constraints []constraint.Constraint, baseHours float64) []ExecutionPath {
	steps := baseSteps[taskKind]
	if steps == nil {
		steps = baseSteps[Coding]
	}

	kinds := []PathKind{Optimal, Fast}
	switch feasStatus {
	case feasibility.Infeasible:
		kinds = append(kinds, Workaround)
	case feasibility.Marginal:
		kinds = append(kinds, Minimal)
	default:
		kinds = append(kinds, Thorough)
	}

	var paths []ExecutionPath
	for _, k := range kinds {
		adjusted := adjustSteps(k, steps)
		hours := baseHours * hoursFactor(k)
		p := ExecutionPath{
			Kind:           k,
			Steps:          adjusted,
			EstimatedHours: hours,
			EstimatedCost:  hours * 10,
			Confidence:     0.7,
		}
		p.FitScore = scoreAgainst(p, constraints)
		paths = append(paths, p)
	}
	return paths
}

func hoursFactor(k PathKind) float64 {
	switch k {
	case Fast:
		return 0.7
	case Thorough:
		return 1.4
	case Minimal:
		return 0.5
	case Workaround:
		return 0.6
	case Alternative:
		return 1.0
	default:
		return 1.0
	}
}

// scoreAgainst scores a path's fit to time/budget/skill constraints in
// [0,1].
func scoreAgainst(p ExecutionPath, constraints []constraint.Constraint) float64 {
	score := 1.0
	for _, c := range constraints {
		switch c.Type {
		case constraint.Time:
			if c.Value == "urgent" && p.EstimatedHours > 4 {
				score -= 0.3
			}
		case constraint.Budget:
			if c.Value == "zero" && p.EstimatedCost > 0 {
				score -= 0.2
			}
		case constraint.Skill:
			if c.Value == "beginner" && len(p.Steps) > 5 {
				score -= 0.2
			}
		}
	}
	if score < 0 {
		score = 0
	}
	return score
}
