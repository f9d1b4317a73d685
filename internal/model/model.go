package model

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// NetDefinition is a single recurring net from the catalog. Definitions are
// built once at catalog load time and never mutated afterwards.
type NetDefinition struct {
	// Name is the display label. Names are not unique; the same club may
	// run several nets at different times.
	Name string

	Time TimeOfDay
	Days WeekdaySet

	// Rule narrows the weekly cadence to certain weeks of the month.
	// RuleText keeps the catalog text the rule was parsed from, for display.
	Rule     MonthlyRule
	RuleText string

	Channel Channel

	// Note is free text such as "Non-Amateur".
	Note string
}

// TimeOfDay is a wall-clock time in the single implicit local zone.
type TimeOfDay struct {
	Hour   int
	Minute int
}

var ErrInvalidTime = errors.New("invalid time of day")

// ParseTimeOfDay parses a 24-hour "HH:MM" string.
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	hh, mm, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok {
		return TimeOfDay{}, fmt.Errorf("%w: %q", ErrInvalidTime, s)
	}
	if !digits(hh) || len(hh) > 2 || !digits(mm) || len(mm) != 2 {
		return TimeOfDay{}, fmt.Errorf("%w: %q", ErrInvalidTime, s)
	}
	h, _ := strconv.Atoi(hh)
	m, _ := strconv.Atoi(mm)
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return TimeOfDay{}, fmt.Errorf("%w: %q out of range", ErrInvalidTime, s)
	}
	return TimeOfDay{Hour: h, Minute: m}, nil
}

func digits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// Minutes returns minutes since midnight.
func (t TimeOfDay) Minutes() int {
	return t.Hour*60 + t.Minute
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

// Format12h renders the time as "7:05 AM".
func (t TimeOfDay) Format12h() string {
	period := "AM"
	if t.Hour >= 12 {
		period = "PM"
	}
	h := t.Hour % 12
	if h == 0 {
		h = 12
	}
	return fmt.Sprintf("%d:%02d %s", h, t.Minute, period)
}

// WeekdaySet is a set of weekdays, one bit per time.Weekday.
type WeekdaySet uint8

var ErrInvalidWeekday = errors.New("invalid weekday")

// NewWeekdaySet builds a set from the given weekdays.
func NewWeekdaySet(days ...time.Weekday) WeekdaySet {
	var s WeekdaySet
	for _, d := range days {
		if ValidWeekday(d) {
			s |= 1 << uint(d)
		}
	}
	return s
}

// ValidWeekday reports whether d is one of Sunday..Saturday.
func ValidWeekday(d time.Weekday) bool {
	return d >= time.Sunday && d <= time.Saturday
}

func (s WeekdaySet) Contains(d time.Weekday) bool {
	if !ValidWeekday(d) {
		return false
	}
	return s&(1<<uint(d)) != 0
}

func (s WeekdaySet) Empty() bool {
	return s == 0
}

// Days lists the members of the set, Sunday first.
func (s WeekdaySet) Days() []time.Weekday {
	out := make([]time.Weekday, 0, 7)
	for d := time.Sunday; d <= time.Saturday; d++ {
		if s.Contains(d) {
			out = append(out, d)
		}
	}
	return out
}

// ParseWeekday accepts full English weekday names ("monday") and
// three-letter labels ("Mon"), case-insensitively.
func ParseWeekday(name string) (time.Weekday, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	for d := time.Sunday; d <= time.Saturday; d++ {
		full := strings.ToLower(d.String())
		if n == full || (len(n) == 3 && n == full[:3]) {
			return d, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidWeekday, name)
}

// WeekdayName returns the lower-case catalog spelling of d ("wednesday").
func WeekdayName(d time.Weekday) string {
	return strings.ToLower(d.String())
}

// CalendarDate is a timezone-naive date.
type CalendarDate struct {
	Year  int
	Month time.Month
	Day   int
}

// DateOf returns the calendar date of t in t's own location.
func DateOf(t time.Time) CalendarDate {
	y, m, d := t.Date()
	return CalendarDate{Year: y, Month: m, Day: d}
}

func (d CalendarDate) civil() time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
}

func (d CalendarDate) Weekday() time.Weekday {
	return d.civil().Weekday()
}

// DaysInMonth returns the length of the date's month.
func (d CalendarDate) DaysInMonth() int {
	return time.Date(d.Year, d.Month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// AddDays returns the date n days later (or earlier for negative n).
func (d CalendarDate) AddDays(n int) CalendarDate {
	return DateOf(d.civil().AddDate(0, 0, n))
}

// At returns the wall-clock instant on this date in loc.
func (d CalendarDate) At(t TimeOfDay, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.Local
	}
	return time.Date(d.Year, d.Month, d.Day, t.Hour, t.Minute, 0, 0, loc)
}

// Before reports whether d is strictly earlier than o.
func (d CalendarDate) Before(o CalendarDate) bool {
	return d.civil().Before(o.civil())
}

func (d CalendarDate) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

// ReferenceInstant is the evaluation "now": a date plus minutes since
// midnight. The resolver never reads the clock itself.
type ReferenceInstant struct {
	Date    CalendarDate
	Minutes int
}

// InstantOf converts a wall-clock time into a ReferenceInstant. Seconds
// are truncated.
func InstantOf(t time.Time) ReferenceInstant {
	return ReferenceInstant{
		Date:    DateOf(t),
		Minutes: t.Hour()*60 + t.Minute(),
	}
}

func (r ReferenceInstant) Weekday() time.Weekday {
	return r.Date.Weekday()
}

// Classification buckets a net relative to a reference instant.
type Classification string

const (
	ClassNone     Classification = "none"
	ClassLive     Classification = "live"
	ClassSoon     Classification = "soon"
	ClassUpcoming Classification = "upcoming"
)

// ResolvedOccurrence pairs a net with its classification for one
// reference instant. It is only meaningful for that instant.
type ResolvedOccurrence struct {
	Net            NetDefinition
	Classification Classification
}

// Occurrence is a single dated instance of a net within an expansion
// window.
type Occurrence struct {
	// Index is the net's position in the catalog.
	Index int
	Net   NetDefinition

	Date CalendarDate

	// Start / End are wall-clock times in the expansion's location. End
	// assumes the fixed net duration.
	Start time.Time
	End   time.Time
}

// InstanceKey identifies the occurrence across expansions.
func (o Occurrence) InstanceKey() string {
	return fmt.Sprintf("%d-%s", o.Index, o.Date)
}
