// Package fdsn queries FDSN web services (fdsnws-event, fdsnws-station) for
// event and station coordinates using the plain-text output format.
package fdsn

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/valyala/fasthttp"

	"github.com/samirrijal/iberseis/internal/core/domain"
	"github.com/samirrijal/iberseis/internal/core/ports"
	"github.com/samirrijal/iberseis/internal/pkg/metrics"
	"github.com/samirrijal/iberseis/internal/pkg/telemetry"
)

const userAgent = "iberseis/1.0 (+https://github.com/samirrijal/iberseis)"

// Options configures a Client.
type Options struct {
	EventURL   string
	StationURL string
	Timeout    time.Duration
	MaxRetries int
	Cache      ports.CacheService // optional
}

// Client implements ports.SeismicDataProvider.
type Client struct {
	http       *fasthttp.Client
	eventURL   string
	stationURL string
	timeout    time.Duration
	maxRetries int
	cache      ports.CacheService
}

// New creates a new FDSN client.
func New(opts Options) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.MaxRetries < 0 {
		opts.MaxRetries = 0
	}
	return &Client{
		http: &fasthttp.Client{
			Name:                     userAgent,
			ReadTimeout:              opts.Timeout,
			WriteTimeout:             opts.Timeout,
			MaxIdleConnDuration:      time.Minute,
			NoDefaultUserAgentHeader: true,
		},
		eventURL:   opts.EventURL,
		stationURL: opts.StationURL,
		timeout:    opts.Timeout,
		maxRetries: opts.MaxRetries,
		cache:      opts.Cache,
	}
}

// Events queries the event service. No matching events yields an empty slice.
func (c *Client) Events(ctx context.Context, q ports.EventQuery) ([]domain.Event, error) {
	params := url.Values{}
	params.Set("format", "text")
	if !q.Start.IsZero() {
		params.Set("starttime", formatTime(q.Start))
	}
	if !q.End.IsZero() {
		params.Set("endtime", formatTime(q.End))
	}
	if q.MinMagnitude > 0 {
		params.Set("minmagnitude", strconv.FormatFloat(q.MinMagnitude, 'f', -1, 64))
	}
	if q.Limit > 0 {
		params.Set("limit", strconv.Itoa(q.Limit))
	}
	setBounds(params, q.Bounds)

	body, err := c.fetch(ctx, "event", c.eventURL, params, 300)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	events, err := parseEvents(body)
	if err != nil {
		return nil, fmt.Errorf("parse events: %w", err)
	}
	return events, nil
}

// Station returns a single station by network and code.
func (c *Client) Station(ctx context.Context, network, code string) (*domain.Station, error) {
	params := url.Values{}
	params.Set("format", "text")
	params.Set("level", "station")
	params.Set("network", network)
	params.Set("station", code)

	body, err := c.fetch(ctx, "station", c.stationURL, params, 86400)
	if err != nil {
		return nil, fmt.Errorf("station %s.%s: %w", network, code, err)
	}
	stations, err := parseStations(body)
	if err != nil {
		return nil, fmt.Errorf("parse stations: %w", err)
	}
	if len(stations) == 0 {
		return nil, fmt.Errorf("station %s.%s: %w", network, code, domain.ErrNotFound)
	}
	// Epochs are listed oldest first; the last one is current.
	st := stations[len(stations)-1]
	return &st, nil
}

// Stations lists the stations of a network, optionally inside bounds.
func (c *Client) Stations(ctx context.Context, network string, bounds *domain.Bounds) ([]domain.Station, error) {
	params := url.Values{}
	params.Set("format", "text")
	params.Set("level", "station")
	if network != "" {
		params.Set("network", network)
	}
	setBounds(params, bounds)

	body, err := c.fetch(ctx, "station", c.stationURL, params, 0)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	stations, err := parseStations(body)
	if err != nil {
		return nil, fmt.Errorf("parse stations: %w", err)
	}
	return latestEpochs(stations), nil
}

// fetch GETs base?params, retrying transient failures. Responses are cached for
// cacheTTL seconds when a cache is configured and cacheTTL > 0.
func (c *Client) fetch(ctx context.Context, service, base string, params url.Values, cacheTTL int) ([]byte, error) {
	uri := base + "?" + params.Encode()

	cacheKey := "fdsn:" + uri
	if c.cache != nil && cacheTTL > 0 {
		if data, err := c.cache.Get(ctx, cacheKey); err == nil {
			metrics.CacheHits.WithLabelValues("fdsn_" + service).Inc()
			return data, nil
		}
		metrics.CacheMisses.WithLabelValues("fdsn_" + service).Inc()
	}

	ctx, span := telemetry.StartSpan(ctx, "fdsn."+service)
	defer span.End()

	start := time.Now()
	var body []byte
	op := func() error {
		b, err := c.get(ctx, uri)
		if err != nil {
			return err
		}
		body = b
		return nil
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = 250 * time.Millisecond
	policy.MaxInterval = 5 * time.Second
	err := backoff.Retry(op, backoff.WithContext(backoff.WithMaxRetries(policy, uint64(c.maxRetries)), ctx))
	metrics.FDSNRequestDuration.WithLabelValues(service).Observe(time.Since(start).Seconds())
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			metrics.FDSNRequestErrors.WithLabelValues(service).Inc()
			span.RecordError(err)
		}
		return nil, err
	}

	if c.cache != nil && cacheTTL > 0 {
		_ = c.cache.Set(ctx, cacheKey, body, cacheTTL)
	}
	return body, nil
}

// get performs one request. Errors that retrying cannot fix are wrapped in backoff.Permanent.
func (c *Client) get(ctx context.Context, uri string) ([]byte, error) {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(uri)
	req.Header.SetMethod(fasthttp.MethodGet)
	req.Header.Set(fasthttp.HeaderUserAgent, userAgent)
	req.Header.Set(fasthttp.HeaderAccept, "text/plain")

	timeout := c.timeout
	if dl, ok := ctx.Deadline(); ok {
		if remaining := time.Until(dl); remaining < timeout {
			timeout = remaining
		}
	}
	if timeout <= 0 {
		return nil, backoff.Permanent(context.DeadlineExceeded)
	}

	if err := c.http.DoTimeout(req, resp, timeout); err != nil {
		return nil, fmt.Errorf("GET %s: %w", uri, err)
	}

	switch status := resp.StatusCode(); {
	case status == fasthttp.StatusOK:
		return append([]byte(nil), resp.Body()...), nil
	case status == fasthttp.StatusNoContent || status == fasthttp.StatusNotFound:
		return nil, backoff.Permanent(domain.ErrNotFound)
	case status == fasthttp.StatusTooManyRequests || status >= 500:
		return nil, fmt.Errorf("GET %s: HTTP %d", uri, status)
	default:
		return nil, backoff.Permanent(fmt.Errorf("GET %s: HTTP %d: %s", uri, status, truncate(resp.Body(), 200)))
	}
}

func setBounds(params url.Values, b *domain.Bounds) {
	if b == nil {
		return
	}
	params.Set("minlatitude", strconv.FormatFloat(b.MinLat, 'f', -1, 64))
	params.Set("maxlatitude", strconv.FormatFloat(b.MaxLat, 'f', -1, 64))
	params.Set("minlongitude", strconv.FormatFloat(b.MinLon, 'f', -1, 64))
	params.Set("maxlongitude", strconv.FormatFloat(b.MaxLon, 'f', -1, 64))
}

// latestEpochs keeps the last listed epoch of each NET.STA, preserving first-seen order.
func latestEpochs(stations []domain.Station) []domain.Station {
	idx := make(map[string]int, len(stations))
	var out []domain.Station
	for _, s := range stations {
		if i, ok := idx[s.ID()]; ok {
			out[i] = s
			continue
		}
		idx[s.ID()] = len(out)
		out = append(out, s)
	}
	return out
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
