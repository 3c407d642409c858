package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/samirrijal/iberseis/internal/core/domain"
	"github.com/samirrijal/iberseis/internal/core/ports"
	"github.com/samirrijal/iberseis/internal/pkg/metrics"
)

// poller queries the event service for new events and hands each one to
// publish exactly once.
type poller struct {
	provider     ports.SeismicDataProvider
	publish      func(ctx context.Context, ev *domain.Event) error
	minMagnitude float64
	bounds       *domain.Bounds
	// overlap re-queries the tail of the previous window; catalogs publish late.
	overlap  time.Duration
	lookback time.Duration
	now      func() time.Time

	// last is the end of the previous query window, zero before the first poll.
	last time.Time
	seen map[string]time.Time
}

func newPoller(provider ports.SeismicDataProvider, publish func(ctx context.Context, ev *domain.Event) error, minMagnitude float64, bounds *domain.Bounds, lookback time.Duration) *poller {
	p := &poller{
		provider:     provider,
		publish:      publish,
		minMagnitude: minMagnitude,
		bounds:       bounds,
		overlap:      10 * time.Minute,
		lookback:     lookback,
		now:          time.Now,
		seen:         make(map[string]time.Time),
	}
	return p
}

// poll runs one query and returns the number of events published.
func (p *poller) poll(ctx context.Context) (int, error) {
	now := p.now().UTC()
	from := p.last
	if from.IsZero() {
		from = now.Add(-p.lookback)
	}
	start := from.Add(-p.overlap)

	events, err := p.provider.Events(ctx, ports.EventQuery{
		Start:        start,
		End:          now,
		MinMagnitude: p.minMagnitude,
		Bounds:       p.bounds,
	})
	if err != nil {
		return 0, fmt.Errorf("query events: %w", err)
	}

	published := 0
	next := now
	for i := range events {
		ev := &events[i]
		if _, ok := p.seen[ev.ID]; ok {
			continue
		}
		if err := p.publish(ctx, ev); err != nil {
			// Left unseen; the next window is held back to include its origin.
			slog.Warn("publish event failed", "event", ev.ID, "error", err)
			if ev.OriginTime.Before(next) {
				next = ev.OriginTime
			}
			continue
		}
		p.seen[ev.ID] = ev.OriginTime
		metrics.EventsPolled.Inc()
		published++
	}

	// Events older than the next window start cannot be returned again.
	p.last = next
	horizon := next.Add(-p.overlap)
	for id, origin := range p.seen {
		if origin.Before(horizon) {
			delete(p.seen, id)
		}
	}
	return published, nil
}
