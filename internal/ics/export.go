package ics

import (
	"errors"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"

	"netsched/internal/model"
)

const productID = "-//netsched//Net Schedule//EN"

// floatingLayout is an RFC 5545 local ("floating") date-time.
const floatingLayout = "20060102T150405"

// ExportOptions controls calendar-level properties of the feed.
type ExportOptions struct {
	// Name is shown by calendar clients (X-WR-CALNAME).
	Name string

	// Stamp is written as DTSTAMP on every event. If zero, the current time
	// is used.
	Stamp time.Time
}

// Export serializes occurrences as an iCalendar feed, one VEVENT each.
// DTSTART and DTEND are floating local times: the occurrence's wall clock
// is written as-is with no zone.
func Export(occurrences []model.Occurrence, opts ExportOptions) ([]byte, error) {
	if opts.Stamp.IsZero() {
		opts.Stamp = time.Now()
	}

	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId(productID)
	if opts.Name != "" {
		cal.SetXWRCalName(opts.Name)
	}

	for _, occ := range occurrences {
		if occ.End.Before(occ.Start) {
			return nil, errors.New("ics: occurrence ends before it starts: " + occ.InstanceKey())
		}
		ev := cal.AddEvent(occ.InstanceKey() + "@netsched")
		ev.SetDtStampTime(opts.Stamp)
		ev.SetProperty(ical.ComponentPropertyDtStart, occ.Start.Format(floatingLayout))
		ev.SetProperty(ical.ComponentPropertyDtEnd, occ.End.Format(floatingLayout))
		ev.SetSummary(occ.Net.Name)
		if loc := occ.Net.Channel.String(); loc != "" {
			ev.SetLocation(loc)
		}
		if desc := description(occ.Net); desc != "" {
			ev.SetDescription(desc)
		}
	}

	return []byte(cal.Serialize()), nil
}

func description(n model.NetDefinition) string {
	lines := make([]string, 0, 3)
	if n.Channel.Kind == model.ChannelRepeater && n.Channel.RepeaterID != "" {
		lines = append(lines, "Repeater: "+n.Channel.RepeaterID)
	}
	if n.RuleText != "" {
		lines = append(lines, "Weeks: "+n.RuleText)
	}
	if n.Note != "" {
		lines = append(lines, n.Note)
	}
	return strings.Join(lines, "\n")
}
