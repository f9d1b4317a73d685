package monitor

import (
	"context"
	"testing"
	"time"

	"netsched/internal/model"
	"netsched/internal/schedule"
	"netsched/internal/telemetry"
)

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time { return c.t }

func testResolver() *schedule.Resolver {
	return schedule.New([]model.NetDefinition{
		{Name: "morning", Time: model.TimeOfDay{Hour: 9}, Days: model.NewWeekdaySet(time.Monday)},
		{Name: "late morning", Time: model.TimeOfDay{Hour: 9, Minute: 20}, Days: model.NewWeekdaySet(time.Monday)},
	})
}

func TestTickReportsNetsGoingLive(t *testing.T) {
	clock := &fakeClock{t: time.Date(2026, time.March, 2, 8, 55, 0, 0, time.UTC)}
	m := New(testResolver(), clock.now, telemetry.New())

	snap := m.Tick()
	if len(snap.Buckets.Soon) != 2 || len(snap.WentLive) != 0 {
		t.Fatalf("08:55 snapshot = %+v", snap)
	}

	clock.t = clock.t.Add(5 * time.Minute) // 09:00
	snap = m.Tick()
	if len(snap.WentLive) != 1 || snap.WentLive[0].Name != "morning" {
		t.Fatalf("09:00 went live = %+v", snap.WentLive)
	}

	clock.t = clock.t.Add(time.Minute) // 09:01, nothing new
	if snap = m.Tick(); len(snap.WentLive) != 0 {
		t.Fatalf("09:01 went live = %+v", snap.WentLive)
	}

	clock.t = clock.t.Add(19 * time.Minute) // 09:20
	snap = m.Tick()
	if len(snap.WentLive) != 1 || snap.WentLive[0].Name != "late morning" {
		t.Fatalf("09:20 went live = %+v", snap.WentLive)
	}
	if len(snap.Buckets.Live) != 2 {
		t.Fatalf("09:20 live = %+v", snap.Buckets.Live)
	}
	if snap.At.Minutes != 9*60+20 {
		t.Fatalf("reference minutes = %d", snap.At.Minutes)
	}
}

func TestTickReportsSameNamedNetsSeparately(t *testing.T) {
	nine := model.TimeOfDay{Hour: 9}
	mon := model.NewWeekdaySet(time.Monday)
	r := schedule.New([]model.NetDefinition{
		{Name: "club net", Time: nine, Days: mon, Channel: model.Channel{Kind: model.ChannelDirect, Frequency: "146.520"}},
		{Name: "club net", Time: nine, Days: mon, Channel: model.Channel{Kind: model.ChannelDirect, Frequency: "446.000"}},
		{Name: "club net", Time: nine, Days: mon, Channel: model.Channel{Kind: model.ChannelDirect, Frequency: "446.000"}},
	})
	clock := &fakeClock{t: time.Date(2026, time.March, 2, 8, 59, 0, 0, time.UTC)}
	m := New(r, clock.now, nil)
	m.Tick()

	clock.t = clock.t.Add(time.Minute)
	snap := m.Tick()
	if len(snap.WentLive) != 3 {
		t.Fatalf("went live = %d, want 3: %+v", len(snap.WentLive), snap.WentLive)
	}

	clock.t = clock.t.Add(time.Minute)
	if snap = m.Tick(); len(snap.WentLive) != 0 {
		t.Fatalf("reported again: %+v", snap.WentLive)
	}
}

func TestRunRejectsBadSchedule(t *testing.T) {
	clock := &fakeClock{t: time.Date(2026, time.March, 2, 8, 55, 0, 0, time.UTC)}
	m := New(testResolver(), clock.now, nil)

	if err := m.Run(context.Background(), "not a cron spec", time.UTC); err == nil {
		t.Fatalf("expected error for invalid schedule")
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	clock := &fakeClock{t: time.Date(2026, time.March, 2, 9, 0, 0, 0, time.UTC)}
	m := New(testResolver(), clock.now, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- m.Run(ctx, "* * * * *", time.UTC) }()

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("Run did not return after cancel")
	}
}
