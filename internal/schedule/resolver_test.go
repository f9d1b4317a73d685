package schedule

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"netsched/internal/model"
	"netsched/internal/recurrence"
)

func mkNet(name, at, rule string, days ...time.Weekday) model.NetDefinition {
	t, err := model.ParseTimeOfDay(at)
	if err != nil {
		panic(err)
	}
	r, _ := recurrence.ParseMonthlyRule(rule)
	return model.NetDefinition{
		Name:     name,
		Time:     t,
		Days:     model.NewWeekdaySet(days...),
		Rule:     r,
		RuleText: rule,
		Channel:  model.Channel{Kind: model.ChannelSystem, SystemName: "TEST"},
	}
}

// at builds a reference instant on the given 2026 date.
func at(month time.Month, day int, hhmm string) model.ReferenceInstant {
	t, err := model.ParseTimeOfDay(hhmm)
	if err != nil {
		panic(err)
	}
	return model.ReferenceInstant{
		Date:    model.CalendarDate{Year: 2026, Month: month, Day: day},
		Minutes: t.Minutes(),
	}
}

func names(nets []model.NetDefinition) []string {
	out := make([]string, 0, len(nets))
	for _, n := range nets {
		out = append(out, n.Name)
	}
	return out
}

func TestEventsOnDaySortedAndStable(t *testing.T) {
	r := New([]model.NetDefinition{
		mkNet("late", "21:00", "", time.Wednesday),
		mkNet("A", "19:00", "", time.Wednesday),
		mkNet("monday only", "08:00", "", time.Monday),
		mkNet("B", "19:00", "", time.Wednesday),
		mkNet("early", "07:15", "", time.Wednesday, time.Thursday),
	})

	// 2026-03-04 is a Wednesday.
	got, err := r.EventsOnDay(at(time.March, 4, "12:00"), time.Wednesday)
	if err != nil {
		t.Fatalf("EventsOnDay: %v", err)
	}
	want := []string{"early", "A", "B", "late"}
	if !reflect.DeepEqual(names(got), want) {
		t.Fatalf("EventsOnDay = %v, want %v", names(got), want)
	}
}

func TestEventsOnDayUsesReferenceDateForMonthlyRule(t *testing.T) {
	r := New([]model.NetDefinition{
		mkNet("first wednesday", "19:00", "1st", time.Wednesday),
		mkNet("every wednesday", "20:00", "", time.Wednesday),
	})

	// Reference Monday 2026-03-02 is in week 1, so browsing Wednesday shows
	// the 1st-week net.
	got, _ := r.EventsOnDay(at(time.March, 2, "09:00"), time.Wednesday)
	if !reflect.DeepEqual(names(got), []string{"first wednesday", "every wednesday"}) {
		t.Fatalf("week 1 reference: got %v", names(got))
	}

	// Reference Monday 2026-03-09 is in week 2.
	got, _ = r.EventsOnDay(at(time.March, 9, "09:00"), time.Wednesday)
	if !reflect.DeepEqual(names(got), []string{"every wednesday"}) {
		t.Fatalf("week 2 reference: got %v", names(got))
	}
}

func TestEventsOnDayInvalidWeekday(t *testing.T) {
	r := New(nil)
	for _, d := range []time.Weekday{-1, 7, 42} {
		if _, err := r.EventsOnDay(at(time.March, 2, "09:00"), d); !errors.Is(err, ErrInvalidWeekday) {
			t.Errorf("EventsOnDay(%d) err = %v, want ErrInvalidWeekday", int(d), err)
		}
	}
}

func TestEventsOnDayEmpty(t *testing.T) {
	r := New(nil)
	got, err := r.EventsOnDay(at(time.March, 2, "09:00"), time.Monday)
	if err != nil || len(got) != 0 {
		t.Fatalf("empty catalog: got %v, %v", got, err)
	}
	b := r.ClassifyToday(at(time.March, 2, "09:00"))
	if len(b.Live)+len(b.Soon)+len(b.Upcoming) != 0 {
		t.Fatalf("empty catalog produced buckets: %+v", b)
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		delta int
		want  model.Classification
	}{
		{-45, model.ClassNone},
		{-44, model.ClassLive},
		{-1, model.ClassLive},
		{0, model.ClassLive},
		{1, model.ClassSoon},
		{30, model.ClassSoon},
		{31, model.ClassUpcoming},
		{120, model.ClassUpcoming},
		{121, model.ClassNone},
		{-600, model.ClassNone},
		{900, model.ClassNone},
	}
	for _, tt := range tests {
		if got := Classify(tt.delta); got != tt.want {
			t.Errorf("Classify(%d) = %s, want %s", tt.delta, got, tt.want)
		}
	}
}

func TestClassifyTodayBoundaries(t *testing.T) {
	// Net at T = 10:00 on Mondays; 2026-03-02 is a Monday.
	r := New([]model.NetDefinition{mkNet("net", "10:00", "", time.Monday)})

	tests := []struct {
		now  string
		want model.Classification
	}{
		{"10:00", model.ClassLive},     // delta 0
		{"09:59", model.ClassSoon},     // delta 1
		{"10:44", model.ClassLive},     // delta -44
		{"10:45", model.ClassNone},     // delta -45
		{"09:30", model.ClassSoon},     // delta 30
		{"09:29", model.ClassUpcoming}, // delta 31
		{"08:00", model.ClassUpcoming}, // delta 120
		{"07:59", model.ClassNone},     // delta 121
	}

	for _, tt := range tests {
		b := r.ClassifyToday(at(time.March, 2, tt.now))
		got := model.ClassNone
		switch {
		case len(b.Live) == 1:
			got = model.ClassLive
		case len(b.Soon) == 1:
			got = model.ClassSoon
		case len(b.Upcoming) == 1:
			got = model.ClassUpcoming
		}
		if total := len(b.Live) + len(b.Soon) + len(b.Upcoming); total > 1 {
			t.Fatalf("now %s: net in %d buckets", tt.now, total)
		}
		if got != tt.want {
			t.Errorf("now %s: got %s, want %s", tt.now, got, tt.want)
		}
	}
}

func TestClassifyTodayOnlyToday(t *testing.T) {
	r := New([]model.NetDefinition{
		mkNet("tuesday", "10:00", "", time.Tuesday),
		mkNet("monday", "10:10", "", time.Monday),
	})
	b := r.ClassifyToday(at(time.March, 2, "10:00"))
	if !reflect.DeepEqual(names(b.Soon), []string{"monday"}) || len(b.Live) != 0 {
		t.Fatalf("buckets = %+v", b)
	}
}

func TestClassifyTodayOrderAndDeterminism(t *testing.T) {
	r := New([]model.NetDefinition{
		mkNet("upcoming 2", "20:30", "", time.Wednesday),
		mkNet("live", "18:30", "", time.Wednesday),
		mkNet("soon B", "19:20", "", time.Wednesday),
		mkNet("soon A", "19:10", "", time.Wednesday),
		mkNet("upcoming 1", "19:45", "", time.Wednesday),
		mkNet("soon C", "19:20", "", time.Wednesday),
		mkNet("past", "17:00", "", time.Wednesday),
		mkNet("far", "23:00", "", time.Wednesday),
	})
	ref := at(time.March, 4, "19:00")

	first := r.ClassifyToday(ref)
	second := r.ClassifyToday(ref)
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("ClassifyToday is not deterministic:\n%+v\n%+v", first, second)
	}

	if !reflect.DeepEqual(names(first.Live), []string{"live"}) {
		t.Errorf("live = %v", names(first.Live))
	}
	if !reflect.DeepEqual(names(first.Soon), []string{"soon A", "soon B", "soon C"}) {
		t.Errorf("soon = %v", names(first.Soon))
	}
	if !reflect.DeepEqual(names(first.Upcoming), []string{"upcoming 1", "upcoming 2"}) {
		t.Errorf("upcoming = %v", names(first.Upcoming))
	}
}

func TestClassifyTodayHonoursMonthlyRule(t *testing.T) {
	r := New([]model.NetDefinition{
		mkNet("first monday", "09:00", "1st", time.Monday),
	})

	if b := r.ClassifyToday(at(time.March, 2, "09:00")); len(b.Live) != 1 {
		t.Errorf("first Monday: expected live, got %+v", b)
	}
	if b := r.ClassifyToday(at(time.March, 9, "09:00")); len(b.Live) != 0 {
		t.Errorf("second Monday: expected nothing, got %+v", b)
	}
}

func TestDay(t *testing.T) {
	r := New([]model.NetDefinition{
		mkNet("morning", "08:00", "", time.Monday, time.Tuesday),
		mkNet("evening", "19:00", "", time.Monday, time.Tuesday),
	})
	ref := at(time.March, 2, "08:10")

	today, err := r.Day(ref, time.Monday)
	if err != nil {
		t.Fatalf("Day: %v", err)
	}
	if len(today) != 2 || today[0].Classification != model.ClassLive || today[1].Classification != model.ClassNone {
		t.Fatalf("today = %+v", today)
	}

	tomorrow, err := r.Day(ref, time.Tuesday)
	if err != nil {
		t.Fatalf("Day: %v", err)
	}
	for _, o := range tomorrow {
		if o.Classification != model.ClassNone {
			t.Errorf("%s on another day classified %s", o.Net.Name, o.Classification)
		}
	}

	if _, err := r.Day(ref, 9); !errors.Is(err, ErrInvalidWeekday) {
		t.Errorf("Day(9) err = %v", err)
	}
}

func TestCounts(t *testing.T) {
	r := New([]model.NetDefinition{
		mkNet("a", "08:00", "", time.Monday, time.Tuesday),
		mkNet("b", "09:00", "", time.Monday),
		mkNet("c", "09:00", "2nd", time.Sunday),
	})
	counts := r.Counts(at(time.March, 2, "08:00"))
	want := [7]int{0, 2, 1, 0, 0, 0, 0}
	if counts != want {
		t.Fatalf("Counts = %v, want %v", counts, want)
	}
}

func TestNewCopiesCatalog(t *testing.T) {
	nets := []model.NetDefinition{mkNet("a", "08:00", "", time.Monday)}
	r := New(nets)
	nets[0].Name = "mutated"

	got, _ := r.EventsOnDay(at(time.March, 2, "08:00"), time.Monday)
	if got[0].Name != "a" {
		t.Fatalf("resolver shares caller's slice")
	}
	if r.Len() != 1 || r.Nets()[0].Name != "a" {
		t.Fatalf("Len/Nets mismatch")
	}
}
