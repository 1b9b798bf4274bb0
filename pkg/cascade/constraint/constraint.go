// Package constraint implements Cascade stage three: regex-based
// extraction of task constraints across seven families, plus
// contradiction/warning validation over the extracted set.
package constraint

import "regexp"

// Kind is the closed set of constraint families.
type Kind string

const (
	Time            Kind = "time"
	Budget          Kind = "budget"
	Skill           Kind = "skill"
	Complexity      Kind = "complexity"
	Scope           Kind = "scope"
	Quality         Kind = "quality"
	Maintainability Kind = "maintainability"
)

// Origin distinguishes explicit matches from values inferred from context.
type Origin string

const (
	Explicit Origin = "explicit"
	Inferred Origin = "inferred"
	Implicit Origin = "implicit"
)

// Constraint is one extracted constraint.
type Constraint struct {
	Type        Kind
	Value       string
	Confidence  float64
	Origin      Origin
	Description string
	// Superseded holds lower-confidence constraints of the same Type that
	// were discarded in favor of this one.
	Superseded []Constraint
}

type matcher struct {
	re         *regexp.Regexp
	value      string
	confidence float64
}

var extractors = map[Kind][]matcher{
	Time: {
		{regexp.MustCompile(`(?i)\burgent(ly)?\b`), "urgent", 0.85},
		{regexp.MustCompile(`(?i)\b(\d+)\s*hours?\b`), "", 0.80},
		{regexp.MustCompile(`(?i)\b(\d+)\s*days?\b`), "", 0.80},
		{regexp.MustCompile(`(?i)\bno rush\b`), "flexible", 0.70},
	},
	Budget: {
		{regexp.MustCompile(`(?i)\bfree\b`), "zero", 0.75},
		{regexp.MustCompile(`(?i)\$\s*(\d+)`), "", 0.80},
	},
	Skill: {
		{regexp.MustCompile(`(?i)\bbeginner\b`), "beginner", 0.80},
		{regexp.MustCompile(`(?i)\bintermediate\b`), "intermediate", 0.80},
		{regexp.MustCompile(`(?i)\bexpert\b`), "expert", 0.80},
	},
	Complexity: {
		{regexp.MustCompile(`(?i)\bsimple\b`), "simple", 0.75},
		{regexp.MustCompile(`(?i)\bcomplex\b`), "complex", 0.80},
		{regexp.MustCompile(`(?i)\bmoderate(ly)?\b`), "moderate", 0.70},
	},
	Scope: {
		{regexp.MustCompile(`(?i)\bminimal\b`), "minimal", 0.75},
		{regexp.MustCompile(`(?i)\bcomprehensive\b`), "comprehensive", 0.75},
		{regexp.MustCompile(`(?i)\bstandard\b`), "standard", 0.70},
	},
	Quality: {
		{regexp.MustCompile(`(?i)\bmvp\b`), "mvp", 0.80},
		{regexp.MustCompile(`(?i)\bpolished\b`), "polished", 0.80},
		{regexp.MustCompile(`(?i)\bproduction[- ]?(ready|grade)?\b`), "production", 0.75},
	},
	Maintainability: {
		{regexp.MustCompile(`(?i)\bquick hack\b`), "quick_hack", 0.80},
		{regexp.MustCompile(`(?i)\benterprise\b`), "enterprise", 0.80},
		{regexp.MustCompile(`(?i)\bmaintainable\b`), "maintainable", 0.75},
	},
}

// Extract runs all seven extractors over input. When inferredProjectType
// is "prototype" and no explicit quality constraint was found, a quality
// = mvp constraint is appended with Origin Inferred and lowered
// confidence; other project types add nothing.
func Extract(input, inferredProjectType string) []Constraint {
	found := make(map[Kind][]Constraint)

	for kind, ms := range extractors {
		for _, m := range ms {
			loc := m.re.FindStringSubmatch(input)
			if loc == nil {
				continue
			}
			value := m.value
			if value == "" && len(loc) > 1 {
				value = loc[1]
			}
			found[kind] = append(found[kind], Constraint{
				Type:        kind,
				Value:       value,
				Confidence:  m.confidence,
				Origin:      Explicit,
				Description: kind.humanize(value),
			})
		}
	}

	if inferredProjectType == "prototype" {
		if _, ok := found[Quality]; !ok {
			found[Quality] = append(found[Quality], Constraint{
				Type: Quality, Value: "mvp", Confidence: 0.6, Origin: Inferred,
				Description: "quality inferred as mvp from prototype project type",
			})
		}
	}

	var out []Constraint
	for _, cs := range found {
		out = append(out, resolveDuplicates(cs))
	}
	return out
}

func (k Kind) humanize(value string) string {
	return string(k) + "=" + value
}

// resolveDuplicates keeps the highest-confidence constraint of a kind and
// records the rest as Superseded.
func resolveDuplicates(cs []Constraint) Constraint {
	best := cs[0]
	for _, c := range cs[1:] {
		if c.Confidence > best.Confidence {
			c.Superseded = append(append([]Constraint(nil), best.Superseded...), best.withoutSuperseded())
			best = c
		} else {
			best.Superseded = append(best.Superseded, c)
		}
	}
	return best
}

func (c Constraint) withoutSuperseded() Constraint {
	c.Superseded = nil
	return c
}

// conflict is a fixed pairwise contradiction table entry.
type conflict struct {
	a, b Kind
	av, bv string
}

var conflicts = []conflict{
	{Time, Complexity, "urgent", "complex"},
	{Quality, Maintainability, "mvp", "enterprise"},
	{Scope, Quality, "minimal", "polished"},
}

// Conflicts returns human-readable descriptions of every contradiction
// found across constraints, per the fixed conflict table.
func Conflicts(constraints []Constraint) []string {
	byKind := make(map[Kind]Constraint, len(constraints))
	for _, c := range constraints {
		byKind[c.Type] = c
	}

	var out []string
	for _, cf := range conflicts {
		a, aok := byKind[cf.a]
		b, bok := byKind[cf.b]
		if aok && bok && a.Value == cf.av && b.Value == cf.bv {
			out = append(out, string(cf.a)+"="+cf.av+" conflicts with "+string(cf.b)+"="+cf.bv)
		}
	}
	return out
}

// Warnings returns non-fatal observations: beginner+complex, insufficient
// time, etc.
func Warnings(constraints []Constraint) []string {
	byKind := make(map[Kind]Constraint, len(constraints))
	for _, c := range constraints {
		byKind[c.Type] = c
	}

	var out []string
	if skill, ok := byKind[Skill]; ok && skill.Value == "beginner" {
		if complexity, ok := byKind[Complexity]; ok && complexity.Value == "complex" {
			out = append(out, "beginner skill with complex task may be unrealistic")
		}
	}
	return out
}

// MissingSuggestions returns suggestions (not errors) for absent
// constraints among {time, quality, scope}.
func MissingSuggestions(constraints []Constraint) []string {
	byKind := make(map[Kind]bool, len(constraints))
	for _, c := range constraints {
		byKind[c.Type] = true
	}

	var out []string
	for _, k := range []Kind{Time, Quality, Scope} {
		if !byKind[k] {
			out = append(out, "consider specifying a "+string(k)+" constraint")
		}
	}
	return out
}
