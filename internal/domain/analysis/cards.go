package analysis

import "fmt"

// Placeholder is shown by the tolerant policy for a missing or empty field.
const Placeholder = "N/A"

// Policy decides how missing result fields are rendered.
type Policy string

const (
	// Tolerant substitutes Placeholder for anything absent or empty.
	Tolerant Policy = "tolerant"
	// Strict expects a fully populated result: absent scalars render as the empty
	// string and absent or non-list sequence fields fail rendering.
	Strict Policy = "strict"
)

// ParsePolicy maps a config string to a Policy. Empty means Tolerant.
func ParsePolicy(s string) (Policy, error) {
	switch Policy(s) {
	case "", Tolerant:
		return Tolerant, nil
	case Strict:
		return Strict, nil
	default:
		return "", fmt.Errorf("unknown render policy %q (allowed: tolerant, strict)", s)
	}
}

// Card is one labeled entry of the rendered result.
type Card struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

type cardField struct {
	title string
	key   string
	list  bool
	get   func(*Result) Value
}

// cardFields is the fixed display order.
var cardFields = []cardField{
	{"Language", "language", false, func(r *Result) Value { return r.Language }},
	{"Domain", "domain", false, func(r *Result) Value { return r.Domain }},
	{"Architectural Layer", "architectural_layer", false, func(r *Result) Value { return r.ArchitecturalLayer }},
	{"Time Complexity", "time_complexity", false, func(r *Result) Value { return r.TimeComplexity }},
	{"Space Complexity", "space_complexity", false, func(r *Result) Value { return r.SpaceComplexity }},
	{"Primary Concepts", "primary_concepts", true, func(r *Result) Value { return r.PrimaryConcepts }},
	{"Secondary Concepts", "secondary_concepts", true, func(r *Result) Value { return r.SecondaryConcepts }},
	{"Design Patterns", "design_patterns", true, func(r *Result) Value { return r.DesignPatterns }},
	{"Execution Flow", "execution_flow", false, func(r *Result) Value { return r.ExecutionFlow }},
	{"Why Abstraction Exists", "why_abstraction_exists", false, func(r *Result) Value { return r.WhyAbstractionExists }},
	{"Prerequisites", "prerequisite_concepts", true, func(r *Result) Value { return r.PrerequisiteConcepts }},
}

// CardTitles returns the card titles in display order.
func CardTitles() []string {
	titles := make([]string, len(cardFields))
	for i, f := range cardFields {
		titles[i] = f.title
	}
	return titles
}

// Render turns a result into its eleven display cards.
func Render(r *Result, p Policy) ([]Card, error) {
	if r == nil {
		r = &Result{}
	}
	cards := make([]Card, 0, len(cardFields))
	for _, f := range cardFields {
		v := f.get(r)
		content, err := display(f, v, p)
		if err != nil {
			return nil, err
		}
		cards = append(cards, Card{Title: f.title, Content: content})
	}
	return cards, nil
}

func display(f cardField, v Value, p Policy) (string, error) {
	if p == Strict {
		if f.list && !v.IsList() {
			return "", &MissingFieldError{Field: f.key}
		}
		return v.String(), nil
	}
	if !v.Truthy() || v.String() == "" {
		return Placeholder, nil
	}
	return v.String(), nil
}
