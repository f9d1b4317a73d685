// Package schedule resolves which nets run on a day and how close each of
// today's nets is to the reference instant.
package schedule

import (
	"fmt"
	"slices"
	"time"

	"netsched/internal/model"
	"netsched/internal/recurrence"
)

// Classification windows, in minutes relative to the net's start. Nets are
// assumed to run for LiveWindow minutes; the catalog has no duration.
const (
	LiveWindow     = 45
	SoonWindow     = 30
	UpcomingWindow = 120
)

// ErrInvalidWeekday is returned for queries on a day outside Sunday..Saturday.
var ErrInvalidWeekday = model.ErrInvalidWeekday

// Buckets partitions today's nets by proximity to the reference instant.
// Each bucket keeps ascending start-time order.
type Buckets struct {
	Live     []model.NetDefinition
	Soon     []model.NetDefinition
	Upcoming []model.NetDefinition
}

// Resolver answers schedule queries over an immutable catalog. It holds no
// per-query state, so it is safe for concurrent use.
type Resolver struct {
	nets []model.NetDefinition
}

// New creates a Resolver. The catalog slice is copied.
func New(catalog []model.NetDefinition) *Resolver {
	return &Resolver{nets: slices.Clone(catalog)}
}

// Len returns the catalog size.
func (r *Resolver) Len() int {
	return len(r.nets)
}

// Nets returns a copy of the catalog in catalog order.
func (r *Resolver) Nets() []model.NetDefinition {
	return slices.Clone(r.nets)
}

// EventsOnDay lists the nets whose weekday set contains day and whose
// monthly rule holds for the reference date, ordered by start time.
//
// The monthly rule is always evaluated against ref's date, even when day is
// another weekday: browsing the week reuses today's week-of-month context.
// Nets starting at the same minute keep catalog order.
func (r *Resolver) EventsOnDay(ref model.ReferenceInstant, day time.Weekday) ([]model.NetDefinition, error) {
	if !model.ValidWeekday(day) {
		return nil, fmt.Errorf("events on day %d: %w", int(day), ErrInvalidWeekday)
	}

	out := make([]model.NetDefinition, 0)
	for _, n := range r.nets {
		if !n.Days.Contains(day) {
			continue
		}
		if !recurrence.Matches(n.Rule, ref.Date) {
			continue
		}
		out = append(out, n)
	}

	slices.SortStableFunc(out, func(a, b model.NetDefinition) int {
		return a.Time.Minutes() - b.Time.Minutes()
	})
	return out, nil
}

// Classify buckets a net by delta = netMinutes - nowMinutes.
//
//	live      -45 < delta <= 0
//	soon        0 < delta <= 30
//	upcoming   30 < delta <= 120
func Classify(delta int) model.Classification {
	switch {
	case delta <= 0 && delta > -LiveWindow:
		return model.ClassLive
	case delta > 0 && delta <= SoonWindow:
		return model.ClassSoon
	case delta > SoonWindow && delta <= UpcomingWindow:
		return model.ClassUpcoming
	default:
		return model.ClassNone
	}
}

// ClassifyToday partitions the nets on ref's weekday into live, soon and
// upcoming. Nets outside every window are dropped.
func (r *Resolver) ClassifyToday(ref model.ReferenceInstant) Buckets {
	var b Buckets

	// ref.Weekday() is always valid, so the error is impossible here.
	today, _ := r.EventsOnDay(ref, ref.Weekday())
	for _, n := range today {
		switch Classify(n.Time.Minutes() - ref.Minutes) {
		case model.ClassLive:
			b.Live = append(b.Live, n)
		case model.ClassSoon:
			b.Soon = append(b.Soon, n)
		case model.ClassUpcoming:
			b.Upcoming = append(b.Upcoming, n)
		}
	}
	return b
}

// Day returns the full listing for day. Classifications are filled in only
// when day is the reference weekday; other days are ClassNone throughout.
func (r *Resolver) Day(ref model.ReferenceInstant, day time.Weekday) ([]model.ResolvedOccurrence, error) {
	nets, err := r.EventsOnDay(ref, day)
	if err != nil {
		return nil, err
	}

	isToday := day == ref.Weekday()
	out := make([]model.ResolvedOccurrence, 0, len(nets))
	for _, n := range nets {
		c := model.ClassNone
		if isToday {
			c = Classify(n.Time.Minutes() - ref.Minutes)
		}
		out = append(out, model.ResolvedOccurrence{Net: n, Classification: c})
	}
	return out, nil
}

// Counts returns the number of nets per weekday, indexed by time.Weekday.
func (r *Resolver) Counts(ref model.ReferenceInstant) [7]int {
	var counts [7]int
	for d := time.Sunday; d <= time.Saturday; d++ {
		nets, _ := r.EventsOnDay(ref, d)
		counts[d] = len(nets)
	}
	return counts
}
