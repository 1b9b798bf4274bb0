// Package planning implements Cascade stage six: decomposing a task
// description into an ordered ExecutionPlan of Subtasks, assigning a
// target model per (taskKind, complexity) and a linear dependency chain.
package planning

import (
	"fmt"

	"github.com/orchestra/orchestra/pkg/cascade/pathgen"
)

// Status is the closed set of subtask states.
type Status string

const (
	Pending    Status = "pending"
	InProgress Status = "in_progress"
	Completed  Status = "completed"
	Failed     Status = "failed"
	Skipped    Status = "skipped"
)

// Priority is the closed set of subtask priorities.
type Priority string

const (
	Critical Priority = "critical"
	High     Priority = "high"
	Medium   Priority = "medium"
	Low      Priority = "low"
)

// Subtask is one unit of decomposed work.
type Subtask struct {
	ID             string
	Description    string
	Status         Status
	Priority       Priority
	Dependencies   []string
	EstimatedHours float64
	RequiredModel  string
	Prompt         string
	OutputFormat   string
	Context        string
	Result         string
}

// WorkflowKind is the closed set of plan execution strategies.
type WorkflowKind string

const (
	Sequential   WorkflowKind = "sequential"
	Parallel     WorkflowKind = "parallel"
	Hierarchical WorkflowKind = "hierarchical"
	Iterative    WorkflowKind = "iterative"
)

// ExecutionPlan is the decomposed, model-assigned plan for one request.
type ExecutionPlan struct {
	ID                  string
	Description         string
	Subtasks            []Subtask
	TotalEstimatedHours float64
	WorkflowKind        WorkflowKind
	Parallelizable      bool
	CheckpointInterval  int
}

// coding template: analyze, implement, error handling, tests, refactor,
// document — trimmed by scope.
var codingTemplate = []string{"analyze", "implement", "error handling", "tests", "refactor", "document"}

func templateFor(kind pathgen.TaskKind, scope string) []string {
	steps := codingTemplate
	if kind != pathgen.Coding {
		steps = []string{"analyze", "produce", "review"}
	}
	if scope == "minimal" {
		return []string{steps[0], steps[1], steps[len(steps)-1]}
	}
	return steps
}

// modelTable assigns a target model per (taskKind, complexity).
var modelTable = map[pathgen.TaskKind]map[string]string{
	pathgen.Coding: {
		"simple":   "qwen2.5-coder:7b",
		"moderate": "qwen2.5-coder:14b",
		"complex":  "deepseek-coder-v2:16b",
	},
	pathgen.Writing: {
		"simple":   "mistral:7b",
		"moderate": "mistral:7b",
		"complex":  "mixtral:8x7b",
	},
	pathgen.Analysis: {
		"simple":   "mistral:7b",
		"moderate": "mixtral:8x7b",
		"complex":  "mixtral:8x7b",
	},
	pathgen.Research: {
		"simple":   "mistral:7b",
		"moderate": "mixtral:8x7b",
		"complex":  "mixtral:8x7b",
	},
}

func modelFor(kind pathgen.TaskKind, complexity string) string {
	byComplexity, ok := modelTable[kind]
	if !ok {
		byComplexity = modelTable[pathgen.Coding]
	}
	if m, ok := byComplexity[complexity]; ok {
		return m
	}
	return byComplexity["moderate"]
}

// Decompose builds an ExecutionPlan from taskKind/complexity/scope,
// description, and the time constraint (hours; 0 if absent).
func Decompose(id, description string, kind pathgen.TaskKind, complexity, scope, quality string, timeHours float64) ExecutionPlan {
	steps := templateFor(kind, scope)
	model := modelFor(kind, complexity)

	subtasks := make([]Subtask, len(steps))
	for i, step := range steps {
		var deps []string
		if i > 0 {
			deps = []string{subtasks[i-1].ID}
		}
		subtasks[i] = Subtask{
			ID:             fmt.Sprintf("st-%d", i+1),
			Description:    step + ": " + description,
			Status:         Pending,
			Priority:       Medium,
			Dependencies:   deps,
			EstimatedHours: 1,
			RequiredModel:  model,
			Prompt:         "Perform step '" + step + "' for: " + description,
			OutputFormat:   "text",
		}
	}

	workflow := Sequential
	parallelizable := false
	noDeps := len(subtasks) > 0 && len(subtasks[0].Dependencies) == 0 && allIndependent(subtasks)
	if noDeps || (timeHours > 0 && timeHours < 10) {
		workflow = Parallel
		parallelizable = true
	}

	checkpoint := 1
	switch quality {
	case "polished":
		checkpoint = 1
	case "mvp":
		checkpoint = max(2, len(subtasks)/2)
	}

	total := 0.0
	for _, s := range subtasks {
		total += s.EstimatedHours
	}

	return ExecutionPlan{
		ID:                  id,
		Description:         description,
		Subtasks:            subtasks,
		TotalEstimatedHours: total,
		WorkflowKind:        workflow,
		Parallelizable:      parallelizable,
		CheckpointInterval:  checkpoint,
	}
}

func allIndependent(subtasks []Subtask) bool {
	for _, s := range subtasks {
		if len(s.Dependencies) > 0 {
			return false
		}
	}
	return true
}

// ReplanSubtask regenerates a single failed subtask's prompt/status in
// place, preserving the results of earlier, already-completed subtasks —
// rather than regenerating the whole plan.
func ReplanSubtask(plan *ExecutionPlan, subtaskID string) error {
	for i := range plan.Subtasks {
		if plan.Subtasks[i].ID != subtaskID {
			continue
		}
		plan.Subtasks[i].Status = Pending
		plan.Subtasks[i].Prompt = "Retry step for: " + plan.Subtasks[i].Description
		plan.Subtasks[i].Result = ""
		return nil
	}
	return fmt.Errorf("planning: subtask %q not found in plan %q", subtaskID, plan.ID)
}
