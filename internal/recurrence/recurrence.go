// Package recurrence decides whether a net's weekly and monthly rules fire
// on a given calendar date.
package recurrence

import (
	"strings"

	"netsched/internal/model"
)

const exceptMarker = "except"

var ordinalTokens = []struct {
	token string
	ord   model.Ordinal
}{
	{"1st", model.First},
	{"2nd", model.Second},
	{"3rd", model.Third},
	{"4th", model.Fourth},
	{"5th", model.Fifth},
	{"last", model.Last},
}

// ParseMonthlyRule turns catalog rule text into a MonthlyRule.
//
// Matching is case-insensitive substring containment, so free text such as
// "except 2nd Thursday" yields Exclude{2nd}; the weekday words are ignored.
// Empty text is Unconstrained. Non-empty text with no ordinal tokens and
// no except marker also degrades to Unconstrained, and ok is false so the
// caller can warn about it.
func ParseMonthlyRule(text string) (rule model.MonthlyRule, ok bool) {
	t := strings.ToLower(strings.TrimSpace(text))
	if t == "" {
		return model.MonthlyRule{}, true
	}

	var set model.OrdinalSet
	for _, ot := range ordinalTokens {
		if strings.Contains(t, ot.token) {
			set |= model.NewOrdinalSet(ot.ord)
		}
	}

	switch {
	case strings.Contains(t, exceptMarker):
		return model.MonthlyRule{Kind: model.Exclude, Ordinals: set}, true
	case !set.Empty():
		return model.MonthlyRule{Kind: model.Include, Ordinals: set}, true
	default:
		return model.MonthlyRule{}, false
	}
}

// WeekOfMonth returns ceil(day/7): days 1-7 are week 1, 8-14 week 2, ...
func WeekOfMonth(d model.CalendarDate) int {
	return (d.Day + 6) / 7
}

// IsLastWeek reports whether d falls within the trailing seven days of its
// month. It can be true together with week 4 or week 5.
func IsLastWeek(d model.CalendarDate) bool {
	return d.Day > d.DaysInMonth()-7
}

// Hits returns the ordinals that describe d's position in its month.
func Hits(d model.CalendarDate) model.OrdinalSet {
	hits := model.NewOrdinalSet(model.OrdinalFor(WeekOfMonth(d)))
	if IsLastWeek(d) {
		hits |= model.NewOrdinalSet(model.Last)
	}
	return hits
}

// Matches evaluates only the monthly part of a rule against d.
func Matches(rule model.MonthlyRule, d model.CalendarDate) bool {
	hit := rule.Ordinals&Hits(d) != 0
	switch rule.Kind {
	case model.Include:
		return hit
	case model.Exclude:
		return !hit
	default:
		return true
	}
}

// OccursOn reports whether net fires on date d. The weekday set is the
// outer gate; the monthly rule only narrows it.
func OccursOn(net model.NetDefinition, d model.CalendarDate) bool {
	if !net.Days.Contains(d.Weekday()) {
		return false
	}
	return Matches(net.Rule, d)
}
