package schedule

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/teambition/rrule-go"

	appLog "netsched/internal/log"
	"netsched/internal/model"
	"netsched/internal/recurrence"
)

const (
	defaultMaxOccurrencesPerNet = 400

	// MaxWindowDays bounds an expansion window to one (leap) year.
	MaxWindowDays = 366
)

var ErrWindowTooLarge = fmt.Errorf("expand: window longer than %d days", MaxWindowDays)

// ExpandConfig controls how the catalog is expanded into dated occurrences.
type ExpandConfig struct {
	// Location is the wall-clock zone the occurrences are placed in.
	// If nil, time.Local is used.
	Location *time.Location

	// From is the first day of the window; Days is its length.
	From model.CalendarDate
	Days int

	// MaxOccurrencesPerNet is a safety cap. If zero,
	// defaultMaxOccurrencesPerNet is used.
	MaxOccurrencesPerNet int
}

// ExpandResult wraps the expanded occurrences and any truncation.
type ExpandResult struct {
	Occurrences []model.Occurrence
	// TruncatedNets records catalog indexes that hit the cap.
	TruncatedNets []int
}

var weekdayToRRule = map[time.Weekday]rrule.Weekday{
	time.Sunday:    rrule.SU,
	time.Monday:    rrule.MO,
	time.Tuesday:   rrule.TU,
	time.Wednesday: rrule.WE,
	time.Thursday:  rrule.TH,
	time.Friday:    rrule.FR,
	time.Saturday:  rrule.SA,
}

// Expand lists every dated occurrence of the catalog within the window.
//
// Unlike EventsOnDay, each candidate date is checked against its own
// week-of-month, so the result is the true calendar of the window.
// Occurrences are ordered by start time; simultaneous starts keep catalog
// order.
func Expand(nets []model.NetDefinition, cfg ExpandConfig) (ExpandResult, error) {
	var result ExpandResult

	if cfg.Days < 0 {
		return result, errors.New("expand: negative window")
	}
	if cfg.Days > MaxWindowDays {
		return result, fmt.Errorf("%w: %d", ErrWindowTooLarge, cfg.Days)
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	if cfg.MaxOccurrencesPerNet <= 0 {
		cfg.MaxOccurrencesPerNet = defaultMaxOccurrencesPerNet
	}

	end := cfg.From.AddDays(cfg.Days)
	all := make([]model.Occurrence, 0)

	for i, n := range nets {
		occ, hitCap, err := expandNet(i, n, end, cfg)
		if err != nil {
			return result, fmt.Errorf("expand %q: %w", n.Name, err)
		}
		if hitCap {
			result.TruncatedNets = append(result.TruncatedNets, i)
			appLog.Warn("expand: truncated occurrences for net due to cap",
				"net", n.Name,
				"cap", cfg.MaxOccurrencesPerNet,
			)
		}
		all = append(all, occ...)
	}

	slices.SortStableFunc(all, func(a, b model.Occurrence) int {
		return a.Start.Compare(b.Start)
	})

	result.Occurrences = all
	return result, nil
}

func expandNet(index int, n model.NetDefinition, end model.CalendarDate, cfg ExpandConfig) ([]model.Occurrence, bool, error) {
	out := make([]model.Occurrence, 0)
	if cfg.Days == 0 || n.Days.Empty() {
		return out, false, nil
	}

	byday := make([]rrule.Weekday, 0, 7)
	for _, d := range n.Days.Days() {
		byday = append(byday, weekdayToRRule[d])
	}

	// The rule stops at the window end; a candidate landing exactly on end
	// is dropped below.
	start := cfg.From.At(n.Time, cfg.Location)
	until := end.At(n.Time, cfg.Location)
	r, err := rrule.NewRRule(rrule.ROption{
		Freq:      rrule.WEEKLY,
		Dtstart:   start,
		Until:     until,
		Byweekday: byday,
	})
	if err != nil {
		return nil, false, err
	}
	candidates := r.All()

	hitCap := false
	for _, t := range candidates {
		d := model.DateOf(t)
		if !d.Before(end) {
			continue
		}
		if !recurrence.OccursOn(n, d) {
			continue
		}
		if len(out) >= cfg.MaxOccurrencesPerNet {
			hitCap = true
			break
		}
		out = append(out, model.Occurrence{
			Index: index,
			Net:   n,
			Date:  d,
			Start: t,
			End:   t.Add(LiveWindow * time.Minute),
		})
	}
	return out, hitCap, nil
}
