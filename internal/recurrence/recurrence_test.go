package recurrence

import (
	"testing"
	"time"

	"netsched/internal/model"
)

func date(y int, m time.Month, d int) model.CalendarDate {
	return model.CalendarDate{Year: y, Month: m, Day: d}
}

func net(rule string, days ...time.Weekday) model.NetDefinition {
	r, _ := ParseMonthlyRule(rule)
	return model.NetDefinition{
		Name:     "test",
		Days:     model.NewWeekdaySet(days...),
		Rule:     r,
		RuleText: rule,
	}
}

var everyDay = []time.Weekday{
	time.Sunday, time.Monday, time.Tuesday, time.Wednesday,
	time.Thursday, time.Friday, time.Saturday,
}

func TestParseMonthlyRule(t *testing.T) {
	tests := []struct {
		text   string
		want   model.MonthlyRule
		wantOK bool
	}{
		{"", model.MonthlyRule{}, true},
		{"   ", model.MonthlyRule{}, true},
		{"1st", model.IncludeRule(model.First), true},
		{"1st, 3rd", model.IncludeRule(model.First, model.Third), true},
		{"1st, 3rd, 5th", model.IncludeRule(model.First, model.Third, model.Fifth), true},
		{"2nd, 4th, 5th", model.IncludeRule(model.Second, model.Fourth, model.Fifth), true},
		{"Last", model.IncludeRule(model.Last), true},
		{"except 4th", model.ExcludeRule(model.Fourth), true},
		{"EXCEPT 1st, 2nd", model.ExcludeRule(model.First, model.Second), true},
		{"except last", model.ExcludeRule(model.Last), true},
		{"except 2nd Thursday", model.ExcludeRule(model.Second), true},
		{"except holidays", model.ExcludeRule(), true},
		{"monthly", model.MonthlyRule{}, false},
	}

	for _, tt := range tests {
		got, ok := ParseMonthlyRule(tt.text)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("ParseMonthlyRule(%q) = %+v, %v; want %+v, %v", tt.text, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestWeekOfMonthAndLastWeek(t *testing.T) {
	tests := []struct {
		d    model.CalendarDate
		week int
		last bool
	}{
		{date(2026, time.March, 1), 1, false},
		{date(2026, time.March, 7), 1, false},
		{date(2026, time.March, 8), 2, false},
		{date(2026, time.March, 24), 4, false},
		{date(2026, time.March, 25), 4, true},
		{date(2026, time.March, 28), 4, true},
		{date(2026, time.March, 29), 5, true},
		{date(2026, time.March, 31), 5, true},
		// 28-day month: the whole fourth week is also the last week.
		{date(2026, time.February, 21), 3, false},
		{date(2026, time.February, 22), 4, true},
		{date(2026, time.February, 28), 4, true},
		{date(2024, time.February, 29), 5, true},
		{date(2026, time.November, 23), 4, false},
		{date(2026, time.November, 24), 4, true},
	}

	for _, tt := range tests {
		if got := WeekOfMonth(tt.d); got != tt.week {
			t.Errorf("WeekOfMonth(%s) = %d, want %d", tt.d, got, tt.week)
		}
		if got := IsLastWeek(tt.d); got != tt.last {
			t.Errorf("IsLastWeek(%s) = %v, want %v", tt.d, got, tt.last)
		}
	}
}

func TestOccursOnWeekdayGate(t *testing.T) {
	rules := []string{"", "1st", "except 4th", "last", "except last", "nonsense"}
	monday := net("", time.Monday)

	for _, rule := range rules {
		n := net(rule, time.Monday)
		for day := 1; day <= 31; day++ {
			d := date(2026, time.March, day)
			if d.Weekday() == time.Monday {
				continue
			}
			if OccursOn(n, d) {
				t.Fatalf("rule %q: OccursOn(%s, a %s) = true, want false", rule, d, d.Weekday())
			}
		}
	}

	if !OccursOn(monday, date(2026, time.March, 9)) {
		t.Fatalf("unconstrained monday net should occur on Monday 2026-03-09")
	}
}

func TestOccursOnExcludeFourth(t *testing.T) {
	n := net("except 4th", time.Monday)

	// Mondays in March 2026: 2, 9, 16, 23, 30 -> weeks 1..5.
	want := map[int]bool{2: true, 9: true, 16: true, 23: false, 30: true}
	for day, occurs := range want {
		if got := OccursOn(n, date(2026, time.March, day)); got != occurs {
			t.Errorf("except 4th on 2026-03-%02d = %v, want %v", day, got, occurs)
		}
	}
}

func TestOccursOnIncludeFirstThird(t *testing.T) {
	n := net("1st, 3rd", time.Monday)

	want := map[int]bool{2: true, 9: false, 16: true, 23: false, 30: false}
	for day, occurs := range want {
		if got := OccursOn(n, date(2026, time.March, day)); got != occurs {
			t.Errorf("1st, 3rd on 2026-03-%02d = %v, want %v", day, got, occurs)
		}
	}
}

func TestOccursOnFirstMondayScenario(t *testing.T) {
	n := net("1st", time.Monday)

	if !OccursOn(n, date(2026, time.March, 2)) {
		t.Errorf("first Monday should occur")
	}
	if OccursOn(n, date(2026, time.March, 9)) {
		t.Errorf("second Monday should not occur")
	}
}

func TestOccursOnExceptLast(t *testing.T) {
	n := net("except last", everyDay...)

	for day := 25; day <= 31; day++ {
		if OccursOn(n, date(2026, time.March, day)) {
			t.Errorf("except last on 2026-03-%02d = true, want false", day)
		}
	}
	if !OccursOn(n, date(2026, time.March, 10)) {
		t.Errorf("except last on 2026-03-10 = false, want true")
	}
	// Day 24 is week 4 but not in the trailing seven days of a 31-day month.
	if !OccursOn(n, date(2026, time.March, 24)) {
		t.Errorf("except last on 2026-03-24 = false, want true")
	}
}

func TestOccursOnLastOverlapsFourth(t *testing.T) {
	fourth := net("4th", time.Thursday)
	last := net("last", time.Thursday)
	both := net("4th, last", time.Thursday)

	// Thursday 2026-02-26 is both the 4th and the last Thursday of February.
	d := date(2026, time.February, 26)
	for _, n := range []model.NetDefinition{fourth, last, both} {
		if !OccursOn(n, d) {
			t.Errorf("rule %q should occur on %s", n.RuleText, d)
		}
	}

	// Thursday 2026-10-22 is the 4th Thursday; the last is the 29th.
	if OccursOn(last, date(2026, time.October, 22)) {
		t.Errorf("last should not occur on 2026-10-22")
	}
	if !OccursOn(last, date(2026, time.October, 29)) {
		t.Errorf("last should occur on 2026-10-29")
	}
	if OccursOn(fourth, date(2026, time.October, 29)) {
		t.Errorf("4th should not occur on 2026-10-29")
	}
}

func TestOccursOnFifthNeverInShortMonth(t *testing.T) {
	n := net("5th", time.Thursday)

	// February 2026 has four Thursdays.
	for day := 1; day <= 28; day++ {
		if OccursOn(n, date(2026, time.February, day)) {
			t.Fatalf("5th Thursday matched in February 2026 on day %d", day)
		}
	}
	if !OccursOn(n, date(2026, time.October, 29)) {
		t.Errorf("5th Thursday should match 2026-10-29")
	}
}

func TestOccursOnUnparseableRuleAlwaysOccurs(t *testing.T) {
	n := net("monthly", time.Tuesday)

	for _, day := range []int{3, 10, 17, 24, 31} {
		if !OccursOn(n, date(2026, time.March, day)) {
			t.Errorf("unconstrained rule should occur on 2026-03-%02d", day)
		}
	}
}

func TestOccursOnFreeTextException(t *testing.T) {
	// "except 2nd Thursday" on a daily net suppresses every weekday of the
	// second week; the weekday words are not parsed.
	n := net("except 2nd Thursday", everyDay...)

	for day := 8; day <= 14; day++ {
		if OccursOn(n, date(2026, time.October, day)) {
			t.Errorf("2026-10-%02d is in week 2 and should be suppressed", day)
		}
	}
	if !OccursOn(n, date(2026, time.October, 15)) {
		t.Errorf("2026-10-15 should occur")
	}
}
