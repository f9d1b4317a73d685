package model

import "strings"

// Ordinal is a week-of-month designator.
type Ordinal uint8

const (
	First Ordinal = 1 << iota
	Second
	Third
	Fourth
	Fifth
	Last
)

// Ordinals lists every designator in canonical order.
var Ordinals = []Ordinal{First, Second, Third, Fourth, Fifth, Last}

func (o Ordinal) String() string {
	switch o {
	case First:
		return "1st"
	case Second:
		return "2nd"
	case Third:
		return "3rd"
	case Fourth:
		return "4th"
	case Fifth:
		return "5th"
	case Last:
		return "last"
	default:
		return "?"
	}
}

// OrdinalFor maps a 1-based week-of-month to its ordinal, or 0 when n is
// outside 1..5.
func OrdinalFor(n int) Ordinal {
	if n < 1 || n > 5 {
		return 0
	}
	return Ordinal(1 << (n - 1))
}

// OrdinalSet is a set of Ordinals.
type OrdinalSet uint8

func NewOrdinalSet(ords ...Ordinal) OrdinalSet {
	var s OrdinalSet
	for _, o := range ords {
		s |= OrdinalSet(o)
	}
	return s
}

func (s OrdinalSet) Has(o Ordinal) bool {
	return o != 0 && s&OrdinalSet(o) != 0
}

func (s OrdinalSet) Empty() bool {
	return s == 0
}

func (s OrdinalSet) String() string {
	parts := make([]string, 0, len(Ordinals))
	for _, o := range Ordinals {
		if s.Has(o) {
			parts = append(parts, o.String())
		}
	}
	return strings.Join(parts, ", ")
}

// RuleKind tags the MonthlyRule variant.
type RuleKind uint8

const (
	Unconstrained RuleKind = iota
	Include
	Exclude
)

func (k RuleKind) String() string {
	switch k {
	case Include:
		return "include"
	case Exclude:
		return "exclude"
	default:
		return "unconstrained"
	}
}

// MonthlyRule narrows a weekly cadence to particular weeks of the month.
// The zero value is Unconstrained.
type MonthlyRule struct {
	Kind     RuleKind
	Ordinals OrdinalSet
}

func IncludeRule(ords ...Ordinal) MonthlyRule {
	return MonthlyRule{Kind: Include, Ordinals: NewOrdinalSet(ords...)}
}

func ExcludeRule(ords ...Ordinal) MonthlyRule {
	return MonthlyRule{Kind: Exclude, Ordinals: NewOrdinalSet(ords...)}
}

func (r MonthlyRule) String() string {
	switch r.Kind {
	case Include:
		return r.Ordinals.String()
	case Exclude:
		return "except " + r.Ordinals.String()
	default:
		return ""
	}
}
