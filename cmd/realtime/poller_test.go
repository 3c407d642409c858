package main

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samirrijal/iberseis/internal/core/domain"
	"github.com/samirrijal/iberseis/internal/core/ports"
)

type fakeCatalog struct {
	events  []domain.Event
	err     error
	queries []ports.EventQuery
}

// Events returns the events whose origin lies inside the query window.
func (f *fakeCatalog) Events(ctx context.Context, q ports.EventQuery) ([]domain.Event, error) {
	f.queries = append(f.queries, q)
	if f.err != nil {
		return nil, f.err
	}
	var out []domain.Event
	for _, ev := range f.events {
		if !ev.OriginTime.Before(q.Start) && !ev.OriginTime.After(q.End) {
			out = append(out, ev)
		}
	}
	return out, nil
}

func (f *fakeCatalog) Station(ctx context.Context, network, code string) (*domain.Station, error) {
	return nil, domain.ErrNotFound
}

func (f *fakeCatalog) Stations(ctx context.Context, network string, bounds *domain.Bounds) ([]domain.Station, error) {
	return nil, nil
}

func TestPoller_PublishesEachEventOnce(t *testing.T) {
	clock := time.Date(2026, 2, 19, 12, 30, 0, 0, time.UTC)
	cat := &fakeCatalog{events: []domain.Event{
		{ID: "a", OriginTime: clock.Add(-5 * time.Minute)},
		{ID: "b", OriginTime: clock.Add(-time.Minute)},
	}}
	var got []string
	p := newPoller(cat, func(ctx context.Context, ev *domain.Event) error {
		got = append(got, ev.ID)
		return nil
	}, 2.5, nil, time.Hour)
	p.now = func() time.Time { return clock }

	n, err := p.poll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	clock = clock.Add(30 * time.Second)
	n, err = p.poll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, n)
	assert.Equal(t, []string{"a", "b"}, got)

	require.Len(t, cat.queries, 2)
	assert.Equal(t, 2.5, cat.queries[1].MinMagnitude)
	assert.Equal(t, clock, cat.queries[1].End)
	assert.Equal(t, clock.Add(-30*time.Second).Add(-10*time.Minute), cat.queries[1].Start)
}

func TestPoller_RetriesFailedPublish(t *testing.T) {
	cat := &fakeCatalog{events: []domain.Event{{ID: "a", OriginTime: time.Now()}}}
	fail := true
	calls := 0
	p := newPoller(cat, func(ctx context.Context, ev *domain.Event) error {
		calls++
		if fail {
			return errors.New("broker down")
		}
		return nil
	}, 0, nil, time.Minute)

	n, err := p.poll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	fail = false
	n, err = p.poll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, 2, calls)
}

func TestPoller_FirstWindowUsesInjectedClock(t *testing.T) {
	clock := time.Date(2026, 2, 19, 12, 30, 0, 0, time.UTC)
	cat := &fakeCatalog{}
	p := newPoller(cat, func(ctx context.Context, ev *domain.Event) error { return nil }, 0, nil, time.Hour)
	p.now = func() time.Time { return clock }

	_, err := p.poll(context.Background())
	require.NoError(t, err)
	require.Len(t, cat.queries, 1)
	assert.Equal(t, clock.Add(-time.Hour).Add(-10*time.Minute), cat.queries[0].Start)
}

func TestPoller_RetriesFailedPublishOutsideOverlap(t *testing.T) {
	clock := time.Date(2026, 2, 19, 12, 30, 0, 0, time.UTC)
	origin := clock.Add(-30 * time.Minute)
	cat := &fakeCatalog{events: []domain.Event{{ID: "late", OriginTime: origin}}}
	fail := true
	var got []string
	p := newPoller(cat, func(ctx context.Context, ev *domain.Event) error {
		if fail {
			return errors.New("broker down")
		}
		got = append(got, ev.ID)
		return nil
	}, 0, nil, time.Hour)
	p.now = func() time.Time { return clock }

	n, err := p.poll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	fail = false
	clock = clock.Add(30 * time.Minute)
	n, err = p.poll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, []string{"late"}, got)
	assert.False(t, cat.queries[1].Start.After(origin), "second window must still cover the failed event")

	clock = clock.Add(time.Minute)
	n, err = p.poll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestPoller_QueryError(t *testing.T) {
	cat := &fakeCatalog{err: errors.New("fdsn unavailable")}
	p := newPoller(cat, func(ctx context.Context, ev *domain.Event) error { return nil }, 0, nil, time.Minute)
	before := p.last

	_, err := p.poll(context.Background())
	assert.Error(t, err)
	assert.Equal(t, before, p.last)
}

func TestPoller_ForgetsOldEvents(t *testing.T) {
	clock := time.Date(2026, 2, 19, 12, 0, 0, 0, time.UTC)
	cat := &fakeCatalog{events: []domain.Event{{ID: "old", OriginTime: clock.Add(-time.Minute)}}}
	p := newPoller(cat, func(ctx context.Context, ev *domain.Event) error { return nil }, 0, nil, time.Hour)
	p.now = func() time.Time { return clock }

	_, err := p.poll(context.Background())
	require.NoError(t, err)
	assert.Contains(t, p.seen, "old")

	cat.events = nil
	clock = clock.Add(time.Hour)
	_, err = p.poll(context.Background())
	require.NoError(t, err)
	clock = clock.Add(time.Hour)
	_, err = p.poll(context.Background())
	require.NoError(t, err)
	assert.NotContains(t, p.seen, "old")
}
