// Package capability defines the data model for model capabilities and
// role requirements, and the scoring/validation that ranks a capability
// against a requirement.
package capability

// ModelSource identifies where a model is served from.
type ModelSource string

const (
	SourceLocal     ModelSource = "local"
	SourceProviderA ModelSource = "providerA"
	SourceProviderB ModelSource = "providerB"
)

// Quantization is a closed set of supported weight quantizations.
type Quantization string

const (
	QuantizationNone Quantization = "none"
	QuantizationQ4   Quantization = "q4"
	QuantizationQ5   Quantization = "q5"
	QuantizationQ8   Quantization = "q8"
	QuantizationFP16 Quantization = "fp16"
)

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}

// ModelCapabilities is an immutable description of one model. Construct
// with New, then set the skill axes with WithSkills and thermal
// sensitivity with WithThermalSensitivity, which clamp into [0,1];
// other fields are validated by Validate.
type ModelCapabilities struct {
	Name             string
	DisplayName      string
	Source           ModelSource
	RequiresCredential bool
	Tags             map[string]struct{}

	ContextLength int
	Quantization  Quantization
	Parameters    int64

	MemoryEstimateGB     float64
	MinMemoryGB          float64
	RecommendedMemoryGB  float64

	Reasoning     float64
	Coding        float64
	Creativity    float64
	Multilingual  float64

	SupportsFunctionCalling bool
	SupportsVision          bool
	SupportsTools           bool

	ThermalSensitivity float64
}

// New constructs a ModelCapabilities with the given name and source and
// an empty tag set. It sets no skill or thermal values; WithSkills and
// WithThermalSensitivity set and clamp those.
func New(name string, source ModelSource) *ModelCapabilities {
	return &ModelCapabilities{
		Name:   name,
		Source: source,
		Tags:   make(map[string]struct{}),
	}
}

// WithSkills sets the four skill axes, clamping each into [0,1].
func (m *ModelCapabilities) WithSkills(reasoning, coding, creativity, multilingual float64) *ModelCapabilities {
	m.Reasoning = clamp01(reasoning)
	m.Coding = clamp01(coding)
	m.Creativity = clamp01(creativity)
	m.Multilingual = clamp01(multilingual)
	return m
}

// WithThermalSensitivity sets thermal sensitivity, clamped into [0,1].
func (m *ModelCapabilities) WithThermalSensitivity(v float64) *ModelCapabilities {
	m.ThermalSensitivity = clamp01(v)
	return m
}

// HasTag reports whether the model carries the given tag.
func (m *ModelCapabilities) HasTag(tag string) bool {
	_, ok := m.Tags[tag]
	return ok
}

// RoleRequirements describes the minimums and constraints a role imposes
// on a candidate model.
type RoleRequirements struct {
	Role string

	ReasoningMin    float64
	CodingMin       float64
	CreativityMin   float64
	MultilingualMin float64

	ContextLengthMin int
	MemoryGBMax      float64

	RequiresFunctionCalling bool
	RequiresVision          bool
	RequiresTools           bool

	MaxThermalSensitivity float64
	RequiresLocal         bool
}
