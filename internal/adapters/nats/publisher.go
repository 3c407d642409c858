package natsadapter

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/samirrijal/iberseis/internal/core/domain"
)

// Subjects used on the broker.
const (
	SubjectEvents   = "seismic.event"
	SubjectArrivals = "seismic.arrival"
	SubjectReports  = "seismic.report"
)

// Publisher implements ports.EventPublisher using NATS JetStream.
type Publisher struct {
	conn *nats.Conn
	js   nats.JetStreamContext
}

// Streams returns the JetStream streams the publisher relies on.
func Streams() []nats.StreamConfig {
	return []nats.StreamConfig{
		{
			Name:      "SEISMIC_EVENTS",
			Subjects:  []string{SubjectEvents + ".>"},
			Retention: nats.InterestPolicy,
			MaxAge:    7 * 24 * time.Hour,
			Storage:   nats.FileStorage,
		},
		{
			Name:      "SEISMIC_ARRIVALS",
			Subjects:  []string{SubjectArrivals + ".>"},
			Retention: nats.InterestPolicy,
			MaxAge:    24 * time.Hour,
			Storage:   nats.FileStorage,
		},
		{
			Name:      "SEISMIC_REPORTS",
			Subjects:  []string{SubjectReports + ".>"},
			Retention: nats.LimitsPolicy,
			MaxAge:    30 * 24 * time.Hour,
			Storage:   nats.FileStorage,
		},
	}
}

// NewPublisher connects to NATS and enables JetStream.
func NewPublisher(url string) (*Publisher, error) {
	conn, err := RawConn(url)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}

	js, err := conn.JetStream()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("jetstream: %w", err)
	}

	for _, cfg := range Streams() {
		if _, err := js.AddStream(&cfg); err != nil {
			// Stream may already exist, try update
			if _, err := js.UpdateStream(&cfg); err != nil {
				conn.Close()
				return nil, fmt.Errorf("ensure stream %s: %w", cfg.Name, err)
			}
		}
	}

	return &Publisher{conn: conn, js: js}, nil
}

func (p *Publisher) PublishEvent(ctx context.Context, event *domain.Event) error {
	return p.publishJSON(ctx, SubjectEvents+"."+SubjectToken(event.ID), event)
}

func (p *Publisher) PublishArrival(ctx context.Context, pred *domain.ArrivalPrediction) error {
	subject := SubjectArrivals + "." + SubjectToken(pred.EventID) + "." + SubjectToken(pred.StationID)
	return p.publishJSON(ctx, subject, pred)
}

func (p *Publisher) PublishReport(ctx context.Context, report *domain.AnalysisReport) error {
	return p.publishJSON(ctx, SubjectReports+"."+SubjectToken(report.RunID), report)
}

func (p *Publisher) publishJSON(ctx context.Context, subject string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_, err = p.js.Publish(subject, data, nats.Context(ctx))
	return err
}

// Conn exposes the underlying connection for health checks.
func (p *Publisher) Conn() *nats.Conn {
	return p.conn
}

// Close drains and closes the connection.
func (p *Publisher) Close() {
	_ = p.conn.Drain()
}

// RawConn creates a plain NATS connection for subscribing (e.g. WebSocket relay).
func RawConn(url string) (*nats.Conn, error) {
	return nats.Connect(url,
		nats.Name("iberseis"),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
}

// SubjectToken makes s safe to use as a single subject token.
// Dots separate NET.STA identifiers and would split the token, so they become underscores.
func SubjectToken(s string) string {
	if s == "" {
		return "_"
	}
	return strings.Map(func(r rune) rune {
		switch r {
		case '.', '*', '>', ' ', '\t', '\n', '\r':
			return '_'
		}
		return r
	}, s)
}
