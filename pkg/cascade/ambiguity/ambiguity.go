// Package ambiguity implements Cascade stage one: pattern-driven detection
// of vague or underspecified phrasing in a raw user request.
package ambiguity

import (
	"regexp"
	"sort"
)

// Kind is the closed set of ambiguity families.
type Kind string

const (
	VagueQuantifier    Kind = "vague_quantifier"
	UndefinedTerm      Kind = "undefined_term"
	MissingContext     Kind = "missing_context"
	AmbiguousReference Kind = "ambiguous_reference"
	UnclearScope       Kind = "unclear_scope"
	SubjectiveCriteria Kind = "subjective_criteria"
)

// baseConfidence is the fixed per-family confidence assigned before any
// term-specific adjustment.
var baseConfidence = map[Kind]float64{
	VagueQuantifier:    0.70,
	UndefinedTerm:      0.80,
	MissingContext:     0.90,
	AmbiguousReference: 0.85,
	UnclearScope:       0.75,
	SubjectiveCriteria: 0.65,
}

// MaxMatchesPerFamily bounds scanning on pathological inputs: a family
// stops recording new matches once it has this many, regardless of how
// many more the pattern set would otherwise find.
const MaxMatchesPerFamily = 20

// Ambiguity is one detected ambiguous span.
type Ambiguity struct {
	Type            Kind
	Span            string
	Confidence      float64
	Interpretations []string
	Suggestions     []string
}

type pattern struct {
	re   *regexp.Regexp
	term string
}

type family struct {
	kind     Kind
	patterns []pattern
	table    map[string]entry
}

type entry struct {
	interpretations []string
	suggestions     []string
}

var families = []family{
	{
		kind: VagueQuantifier,
		patterns: []pattern{
			{regexp.MustCompile(`(?i)\bsome\b`), "some"},
			{regexp.MustCompile(`(?i)\bmany\b`), "many"},
			{regexp.MustCompile(`(?i)\ba few\b`), "a few"},
			{regexp.MustCompile(`(?i)\bseveral\b`), "several"},
		},
		table: map[string]entry{
			"default": {
				interpretations: []string{"a small fixed number", "an unspecified but nonzero count"},
				suggestions:     []string{"specify an exact count or range"},
			},
		},
	},
	{
		kind: UndefinedTerm,
		patterns: []pattern{
			{regexp.MustCompile(`(?i)\bbetter\b`), "better"},
			{regexp.MustCompile(`(?i)\bimprove\b`), "improve"},
			{regexp.MustCompile(`(?i)\boptimi[sz]e\b`), "optimize"},
		},
		table: map[string]entry{
			"better": {
				interpretations: []string{"improve performance", "improve quality", "improve UX", "improve features"},
				suggestions:     []string{"state which dimension to improve"},
			},
			"improve": {
				interpretations: []string{"improve performance", "improve quality", "improve UX", "improve features"},
				suggestions:     []string{"state which dimension to improve"},
			},
			"default": {
				interpretations: []string{"speed", "resource usage", "code clarity"},
				suggestions:     []string{"clarify what is being optimized for"},
			},
		},
	},
	{
		kind: MissingContext,
		patterns: []pattern{
			{regexp.MustCompile(`(?i)\bthe (system|app|project)\b`), "the system"},
			{regexp.MustCompile(`(?i)\bour (codebase|repo|service)\b`), "our codebase"},
		},
		table: map[string]entry{
			"default": {
				interpretations: []string{"a specific named system not yet identified"},
				suggestions:     []string{"name the system, repository, or service in question"},
			},
		},
	},
	{
		kind: AmbiguousReference,
		patterns: []pattern{
			{regexp.MustCompile(`(?i)\bit\b`), "it"},
			{regexp.MustCompile(`(?i)\bthis\b`), "this"},
			{regexp.MustCompile(`(?i)\bthat\b`), "that"},
		},
		table: map[string]entry{
			"default": {
				interpretations: []string{"the previously mentioned subject", "a new unnamed subject"},
				suggestions:     []string{"replace the pronoun with the concrete noun it refers to"},
			},
		},
	},
	{
		kind: UnclearScope,
		patterns: []pattern{
			{regexp.MustCompile(`(?i)\beverything\b`), "everything"},
			{regexp.MustCompile(`(?i)\ball of it\b`), "all of it"},
			{regexp.MustCompile(`(?i)\bwhatever\b`), "whatever"},
		},
		table: map[string]entry{
			"default": {
				interpretations: []string{"the entire codebase", "a single module"},
				suggestions:     []string{"bound the scope to specific files or modules"},
			},
		},
	},
	{
		kind: SubjectiveCriteria,
		patterns: []pattern{
			{regexp.MustCompile(`(?i)\bclean\b`), "clean"},
			{regexp.MustCompile(`(?i)\bnice\b`), "nice"},
			{regexp.MustCompile(`(?i)\bmodern\b`), "modern"},
		},
		table: map[string]entry{
			"default": {
				interpretations: []string{"idiomatic", "minimal", "well-documented"},
				suggestions:     []string{"describe concrete acceptance criteria"},
			},
		},
	},
}

// Detect runs all six families over input and returns merged results
// sorted by confidence descending.
func Detect(input string) []Ambiguity {
	var out []Ambiguity
	for _, fam := range families {
		count := 0
		for _, p := range fam.patterns {
			if count >= MaxMatchesPerFamily {
				break
			}
			for _, loc := range p.re.FindAllStringIndex(input, -1) {
				if count >= MaxMatchesPerFamily {
					break
				}
				e, ok := fam.table[p.term]
				if !ok {
					e = fam.table["default"]
				}
				out = append(out, Ambiguity{
					Type:            fam.kind,
					Span:            input[loc[0]:loc[1]],
					Confidence:      baseConfidence[fam.kind],
					Interpretations: e.interpretations,
					Suggestions:     e.suggestions,
				})
				count++
			}
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Confidence > out[j].Confidence
	})
	return out
}
