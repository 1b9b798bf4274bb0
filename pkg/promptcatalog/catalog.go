// Package promptcatalog is the read-only, role/intent-indexed catalog of
// prompt configurations, plus the plan-shape validator the Orchestrator
// uses to accept or reject a planner's output.
package promptcatalog

import (
	"fmt"
	"strings"
)

// Role is the closed set of invocation roles.
type Role string

const (
	Planner    Role = "planner"
	Critic     Role = "critic"
	Executor   Role = "executor"
	Refinement Role = "refinement"
)

// Intent is the closed set of CLI-routed intents.
type Intent string

const (
	Debug    Intent = "debug"
	Generate Intent = "generate"
	Explain  Intent = "explain"
	Default  Intent = ""
)

// PromptConfig is one named prompt configuration.
type PromptConfig struct {
	Temperature  float64
	MaxTokens    int
	SystemPrompt string
	UserTemplate string
}

type key struct {
	role   Role
	intent Intent
}

// Catalog is the immutable role/intent-indexed prompt store.
type Catalog struct {
	configs map[key]PromptConfig
}

// New builds a Catalog seeded with the default templates.
func New() *Catalog {
	return &Catalog{configs: defaultConfigs()}
}

// Get returns the config for (role, intent), falling back to the
// role's Default-intent config when no intent-specific one exists.
func (c *Catalog) Get(role Role, intent Intent) (PromptConfig, bool) {
	if cfg, ok := c.configs[key{role, intent}]; ok {
		return cfg, true
	}
	cfg, ok := c.configs[key{role, Default}]
	return cfg, ok
}

// ErrMissingVariable is returned by Format when template references a
// variable not present in vars.
type ErrMissingVariable struct {
	Variable string
}

func (e ErrMissingVariable) Error() string {
	return fmt.Sprintf("promptcatalog: template references undefined variable %q", e.Variable)
}

// Format substitutes {{var}} markers in template with vars, failing
// loudly (returning ErrMissingVariable) on any marker with no matching
// key.
func Format(template string, vars map[string]string) (string, error) {
	var out strings.Builder
	i := 0
	for i < len(template) {
		open := strings.Index(template[i:], "{{")
		if open == -1 {
			out.WriteString(template[i:])
			break
		}
		out.WriteString(template[i : i+open])
		start := i + open + 2
		close := strings.Index(template[start:], "}}")
		if close == -1 {
			return "", fmt.Errorf("promptcatalog: unterminated {{ in template")
		}
		name := strings.TrimSpace(template[start : start+close])
		val, ok := vars[name]
		if !ok {
			return "", ErrMissingVariable{Variable: name}
		}
		out.WriteString(val)
		i = start + close + 2
	}
	return out.String(), nil
}

func defaultConfigs() map[key]PromptConfig {
	return map[key]PromptConfig{
		{Planner, Default}: {
			Temperature:  0.4,
			MaxTokens:    2048,
			SystemPrompt: "You are a planning assistant. Produce a JSON plan with plan_summary, steps, total_steps, complexity.",
			UserTemplate: "Task: {{userInput}}\n\nContext: {{context}}",
		},
		{Planner, Debug}: {
			Temperature:  0.3,
			MaxTokens:    2048,
			SystemPrompt: "You are a debugging planning assistant. Produce a JSON plan that isolates the root cause before fixing.",
			UserTemplate: "Bug report: {{userInput}}\n\nContext: {{context}}\n\nRetrieved context: {{retrieved}}",
		},
		{Planner, Generate}: {
			Temperature:  0.5,
			MaxTokens:    2048,
			SystemPrompt: "You are a planning assistant for generation tasks.",
			UserTemplate: "Generate: {{userInput}}\n\nContext: {{context}}\n\nRetrieved context: {{retrieved}}",
		},
		{Planner, Explain}: {
			Temperature:  0.3,
			MaxTokens:    2048,
			SystemPrompt: "You are a planning assistant for explanation tasks.",
			UserTemplate: "Explain: {{userInput}}\n\nContext: {{context}}\n\nRetrieved context: {{retrieved}}",
		},
		{Critic, Default}: {
			Temperature:  0.2,
			MaxTokens:    1536,
			SystemPrompt: "You are a plan critic. Evaluate the plan and return JSON with is_valid, risk_score, issues_found, suggestions, overall_assessment.",
			UserTemplate: "Plan: {{plan}}\n\nOriginal task: {{userInput}}",
		},
		{Refinement, Default}: {
			Temperature:  0.4,
			MaxTokens:    2048,
			SystemPrompt: "You are a plan refiner. Given a plan and a critique, produce a corrected JSON plan.",
			UserTemplate: "Plan: {{plan}}\n\nCritique: {{critique}}",
		},
		{Executor, Default}: {
			Temperature:  0.3,
			MaxTokens:    4096,
			SystemPrompt: "You are an execution assistant. Carry out the approved plan and return the result.",
			UserTemplate: "Plan: {{plan}}\n\nAdditional context: {{additionalContext}}",
		},
	}
}
