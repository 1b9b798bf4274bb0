// Package cascade assembles the eight stage sub-packages into the
// ordered request-refinement pipeline described in the data model: raw
// text in, a ranked ExecutionPlan out.
package cascade

import (
	"context"

	"github.com/orchestra/orchestra/pkg/cascade/ambiguity"
	"github.com/orchestra/orchestra/pkg/cascade/clarify"
	"github.com/orchestra/orchestra/pkg/cascade/constraint"
	"github.com/orchestra/orchestra/pkg/cascade/feasibility"
	"github.com/orchestra/orchestra/pkg/cascade/pathgen"
	"github.com/orchestra/orchestra/pkg/cascade/planning"
)

// StageInput carries the growing set of artifacts produced by earlier
// stages. Each stage reads what it needs and appends its own output.
type StageInput struct {
	RawInput         string
	ProjectType      string
	ClarifiedInput   string
	Ambiguities      []ambiguity.Ambiguity
	ClarifySession   *clarify.Session
	Constraints      []constraint.Constraint
	ConstraintConflicts []string
	Feasibility      feasibility.Result
	TimeHours        float64
	TaskKind         pathgen.TaskKind
	Paths            []pathgen.ExecutionPath
	Plan             planning.ExecutionPlan
}

// StageOutput is the same growing-artifact bag; stages mutate and return
// it by value for clarity at call sites.
type StageOutput = StageInput

// Stage is one pipeline step.
type Stage func(ctx context.Context, in StageInput) (StageOutput, error)

// detectStage runs ambiguity detection over RawInput.
func detectStage(ctx context.Context, in StageInput) (StageOutput, error) {
	in.Ambiguities = ambiguity.Detect(in.RawInput)
	in.ClarifiedInput = in.RawInput
	return in, nil
}

// constraintStage extracts constraints from the (possibly clarified)
// input.
func constraintStage(ctx context.Context, in StageInput) (StageOutput, error) {
	in.Constraints = constraint.Extract(in.ClarifiedInput, in.ProjectType)
	in.ConstraintConflicts = constraint.Conflicts(in.Constraints)
	return in, nil
}

// feasibilityStage checks feasibility against the extracted constraints.
func feasibilityStage(ctx context.Context, in StageInput) (StageOutput, error) {
	in.Feasibility = feasibility.Check(in.Constraints, in.TimeHours)
	return in, nil
}

// pathStage generates candidate execution paths.
func pathStage(ctx context.Context, in StageInput) (StageOutput, error) {
	in.TaskKind = pathgen.DetectTaskKind(in.ClarifiedInput)
	estimate := estimateHoursFromConstraints(in.Constraints)
	in.Paths = pathgen.Generate(in.TaskKind, in.Feasibility.Status, in.Constraints, estimate)
	return in, nil
}

// planStage decomposes the clarified input into an ExecutionPlan by task
// kind and constraints; the highest-fit path only supplies the plan's
// TotalEstimatedHours.
func planStage(ctx context.Context, in StageInput) (StageOutput, error) {
	best := bestPath(in.Paths)
	complexity, scope, quality := constraintValues(in.Constraints)
	in.Plan = planning.Decompose("plan-1", in.ClarifiedInput, in.TaskKind, complexity, scope, quality, in.TimeHours)
	if best.Kind != "" {
		in.Plan.TotalEstimatedHours = best.EstimatedHours
	}
	return in, nil
}

func bestPath(paths []pathgen.ExecutionPath) pathgen.ExecutionPath {
	var best pathgen.ExecutionPath
	for _, p := range paths {
		if p.FitScore >= best.FitScore {
			best = p
		}
	}
	return best
}

func constraintValues(constraints []constraint.Constraint) (complexity, scope, quality string) {
	for _, c := range constraints {
		switch c.Type {
		case constraint.Complexity:
			complexity = c.Value
		case constraint.Scope:
			scope = c.Value
		case constraint.Quality:
			quality = c.Value
		}
	}
	return
}

func estimateHoursFromConstraints(constraints []constraint.Constraint) float64 {
	complexity, scope, quality := constraintValues(constraints)
	maintainability := ""
	for _, c := range constraints {
		if c.Type == constraint.Maintainability {
			maintainability = c.Value
		}
	}
	return feasibility.EstimateHours(complexity, scope, quality, maintainability)
}

// DefaultStages is the fixed, ordered pipeline. Clarification is driven
// interactively by the caller (see pkg/cascade/clarify) and is therefore
// not itself a Stage function — Run assumes ClarifiedInput has already
// been set by the caller if clarification took place.
var DefaultStages = []Stage{
	detectStage,
	constraintStage,
	feasibilityStage,
	pathStage,
	planStage,
}

// Run executes every stage in order, feeding each stage's output as the
// next stage's input. A stage error short-circuits the pipeline.
func Run(ctx context.Context, in StageInput, stages []Stage) (StageOutput, error) {
	if stages == nil {
		stages = DefaultStages
	}
	current := in
	for _, stage := range stages {
		select {
		case <-ctx.Done():
			return current, ctx.Err()
		default:
		}
		out, err := stage(ctx, current)
		if err != nil {
			return current, err
		}
		current = out
	}
	return current, nil
}
