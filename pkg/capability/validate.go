package capability

import (
	"fmt"
	"sync"

	"github.com/go-playground/validator/v10"
)

// skillTaggedView is the struct-tag-annotated shadow of ModelCapabilities'
// skill axes, validated with go-playground/validator. The cross-field
// min<=estimate<=recommended memory invariant is checked directly in
// StructurallyValid since the tag vocabulary alone can't express a
// three-way chain across independent fields.
type skillTaggedView struct {
	Reasoning    float64 `validate:"gte=0,lte=1"`
	Coding       float64 `validate:"gte=0,lte=1"`
	Creativity   float64 `validate:"gte=0,lte=1"`
	Multilingual float64 `validate:"gte=0,lte=1"`

	ContextLength       int     `validate:"gt=0"`
	MemoryEstimateGB    float64 `validate:"gt=0"`
	MinMemoryGB         float64 `validate:"gt=0"`
	RecommendedMemoryGB float64 `validate:"gt=0"`

	ThermalSensitivity float64 `validate:"gte=0,lte=1"`
}

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func v() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New()
	})
	return validate
}

// StructurallyValid runs struct-tag validation over the numeric axes of a
// ModelCapabilities and checks the min<=estimate<=recommended memory chain.
func (m *ModelCapabilities) StructurallyValid() error {
	view := skillTaggedView{
		Reasoning:           m.Reasoning,
		Coding:              m.Coding,
		Creativity:          m.Creativity,
		Multilingual:        m.Multilingual,
		ContextLength:       m.ContextLength,
		MemoryEstimateGB:    m.MemoryEstimateGB,
		MinMemoryGB:         m.MinMemoryGB,
		RecommendedMemoryGB: m.RecommendedMemoryGB,
		ThermalSensitivity:  m.ThermalSensitivity,
	}
	if err := v().Struct(view); err != nil {
		return fmt.Errorf("model %q: %w", m.Name, err)
	}
	if !(m.MinMemoryGB <= m.MemoryEstimateGB && m.MemoryEstimateGB <= m.RecommendedMemoryGB) {
		return fmt.Errorf("model %q: memory chain violated: min=%.2f estimate=%.2f recommended=%.2f",
			m.Name, m.MinMemoryGB, m.MemoryEstimateGB, m.RecommendedMemoryGB)
	}
	return nil
}

// ValidationReport is the result of validating a ModelCapabilities against
// a RoleRequirements.
type ValidationReport struct {
	Valid    bool
	Issues   []string
	Warnings []string
	Score    float64
}

// Satisfies reports whether capabilities meet all of req's minima, as the
// boolean half of the spec's RoleRequirements invariant.
func Satisfies(m *ModelCapabilities, req *RoleRequirements) bool {
	report := Validate(m, req)
	return report.Valid
}

// Validate checks m against req and computes the weighted score (0.6
// skills, 0.2 context, 0.2 memory-headroom) per spec §3.
func Validate(m *ModelCapabilities, req *RoleRequirements) ValidationReport {
	var issues []string
	var warnings []string

	check := func(ok bool, msg string) {
		if !ok {
			issues = append(issues, msg)
		}
	}

	check(m.Reasoning >= req.ReasoningMin, fmt.Sprintf("reasoning %.2f below minimum %.2f", m.Reasoning, req.ReasoningMin))
	check(m.Coding >= req.CodingMin, fmt.Sprintf("coding %.2f below minimum %.2f", m.Coding, req.CodingMin))
	check(m.Creativity >= req.CreativityMin, fmt.Sprintf("creativity %.2f below minimum %.2f", m.Creativity, req.CreativityMin))
	check(m.Multilingual >= req.MultilingualMin, fmt.Sprintf("multilingual %.2f below minimum %.2f", m.Multilingual, req.MultilingualMin))
	check(m.ContextLength >= req.ContextLengthMin, fmt.Sprintf("context length %d below minimum %d", m.ContextLength, req.ContextLengthMin))
	check(m.RecommendedMemoryGB <= req.MemoryGBMax, fmt.Sprintf("recommended memory %.2fGB exceeds max %.2fGB", m.RecommendedMemoryGB, req.MemoryGBMax))
	check(m.ThermalSensitivity <= req.MaxThermalSensitivity, fmt.Sprintf("thermal sensitivity %.2f exceeds max %.2f", m.ThermalSensitivity, req.MaxThermalSensitivity))

	if req.RequiresFunctionCalling {
		check(m.SupportsFunctionCalling, "function calling required but not supported")
	}
	if req.RequiresVision {
		check(m.SupportsVision, "vision required but not supported")
	}
	if req.RequiresTools {
		check(m.SupportsTools, "tool use required but not supported")
	}
	if req.RequiresLocal {
		check(m.Source == SourceLocal, fmt.Sprintf("local source required but model source is %s", m.Source))
	}

	valid := len(issues) == 0

	skillScore := (m.Reasoning + m.Coding + m.Creativity + m.Multilingual) / 4
	contextScore := 0.0
	if req.ContextLengthMin > 0 {
		contextScore = clamp01(float64(m.ContextLength) / float64(req.ContextLengthMin))
	} else {
		contextScore = 1
	}
	memoryScore := 1.0
	if req.MemoryGBMax > 0 {
		headroom := (req.MemoryGBMax - m.RecommendedMemoryGB) / req.MemoryGBMax
		memoryScore = clamp01(headroom + 0.5) // headroom of 0 still scores moderately
	}

	score := clamp01(0.6*skillScore + 0.2*contextScore + 0.2*memoryScore)

	if !valid {
		warnings = append(warnings, "model does not satisfy role requirements")
	}

	return ValidationReport{Valid: valid, Issues: issues, Warnings: warnings, Score: score}
}
