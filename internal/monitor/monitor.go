// Package monitor periodically re-evaluates today's schedule and reports
// nets as they go on the air.
package monitor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	appLog "netsched/internal/log"
	"netsched/internal/model"
	"netsched/internal/schedule"
	"netsched/internal/telemetry"
)

// Snapshot is the result of one refresh.
type Snapshot struct {
	At      model.ReferenceInstant
	Buckets schedule.Buckets
	// WentLive lists nets that are live now but were not at the previous
	// refresh.
	WentLive []model.NetDefinition
}

// Monitor owns the wall clock. Every tick it builds a fresh reference
// instant and asks the resolver to classify today's nets.
type Monitor struct {
	resolver *schedule.Resolver
	now      func() time.Time
	metrics  *telemetry.Metrics

	mu sync.Mutex
	// lastLive counts live entries per definition; names alone are not
	// unique and the catalog may list the same definition twice.
	lastLive map[model.NetDefinition]int
}

// New creates a Monitor. now must return times in the configured wall-clock
// zone; metrics may be nil.
func New(resolver *schedule.Resolver, now func() time.Time, metrics *telemetry.Metrics) *Monitor {
	return &Monitor{
		resolver: resolver,
		now:      now,
		metrics:  metrics,
		lastLive: make(map[model.NetDefinition]int),
	}
}

// Tick performs one refresh.
func (m *Monitor) Tick() Snapshot {
	ref := model.InstantOf(m.now())
	b := m.resolver.ClassifyToday(ref)

	live := make(map[model.NetDefinition]int, len(b.Live))
	var wentLive []model.NetDefinition

	m.mu.Lock()
	for _, n := range b.Live {
		live[n]++
		if live[n] > m.lastLive[n] {
			wentLive = append(wentLive, n)
		}
	}
	m.lastLive = live
	m.mu.Unlock()

	for _, n := range wentLive {
		appLog.Info("net on the air",
			"net", n.Name,
			"time", n.Time.String(),
			"channel", n.Channel.String(),
		)
	}
	appLog.Debug("monitor tick",
		"date", ref.Date.String(),
		"minutes", ref.Minutes,
		"live", len(b.Live),
		"soon", len(b.Soon),
		"upcoming", len(b.Upcoming),
	)

	if m.metrics != nil {
		m.metrics.ObserveBuckets(b)
		m.metrics.Ticks.Inc()
	}

	return Snapshot{At: ref, Buckets: b, WentLive: wentLive}
}

// Run ticks once immediately and then on every cron firing of spec until
// ctx is cancelled.
func (m *Monitor) Run(ctx context.Context, spec string, loc *time.Location) error {
	if loc == nil {
		loc = time.Local
	}
	c := cron.New(
		cron.WithLocation(loc),
		cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)),
	)
	if _, err := c.AddFunc(spec, func() { m.Tick() }); err != nil {
		return fmt.Errorf("monitor: invalid refresh schedule %q: %w", spec, err)
	}

	m.Tick()
	c.Start()
	appLog.Info("monitor started", "refresh", spec, "timezone", loc.String())

	<-ctx.Done()
	<-c.Stop().Done()
	appLog.Info("monitor stopped")
	return nil
}
