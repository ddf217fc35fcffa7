// Package events publishes dataset change notifications so downstream
// consumers can react to writes without polling the journal.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"git.home.luguber.info/inful/chronicle/internal/logfields"
	"git.home.luguber.info/inful/chronicle/internal/record"
	"git.home.luguber.info/inful/chronicle/internal/timestamp"
)

// Op names the mutation that produced a change event.
type Op string

const (
	OpPut    Op = "put"
	OpUpdate Op = "update"
	OpDelete Op = "delete"
)

// Change describes a single dataset mutation.
type Change struct {
	Op        Op                  `json:"op"`
	ID        record.ID           `json:"id"`
	Timestamp timestamp.Timestamp `json:"timestamp,omitempty"`
	Tags      []string            `json:"tags,omitempty"`
	EmittedAt time.Time           `json:"emitted_at"`
}

// Publisher delivers change events. Implementations must be safe for
// concurrent use.
type Publisher interface {
	Publish(ctx context.Context, change Change) error
	Close() error
}

// NoopPublisher discards all events. It is the default when eventing is
// disabled in configuration.
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, Change) error { return nil }
func (NoopPublisher) Close() error                          { return nil }

// NATSPublisher publishes change events to NATS core subjects. Events are
// fire-and-forget: a failed publish is reported to the caller but must not
// fail the originating write.
type NATSPublisher struct {
	conn    *nats.Conn
	subject string
}

// NewNATSPublisher connects to the NATS server at url. Events are published
// on "<subject>.<op>".
func NewNATSPublisher(url, subject string) (*NATSPublisher, error) {
	conn, err := nats.Connect(url,
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second))
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}

	slog.Info("NATS publisher connected",
		"url", url,
		logfields.Subject(subject))

	return &NATSPublisher{conn: conn, subject: subject}, nil
}

// Publish sends the change event on the op-specific subject.
func (p *NATSPublisher) Publish(_ context.Context, change Change) error {
	if change.EmittedAt.IsZero() {
		change.EmittedAt = time.Now().UTC()
	}

	data, err := json.Marshal(change)
	if err != nil {
		return fmt.Errorf("marshal change event: %w", err)
	}

	subj := p.subject + "." + string(change.Op)
	if err := p.conn.Publish(subj, data); err != nil {
		return fmt.Errorf("publish change event: %w", err)
	}

	slog.Debug("published change event",
		logfields.Subject(subj),
		logfields.Op(string(change.Op)),
		logfields.RecordID(change.ID.String()))

	return nil
}

// Close flushes pending messages and drops the connection.
func (p *NATSPublisher) Close() error {
	if p.conn != nil {
		_ = p.conn.Flush()
		p.conn.Close()
	}
	return nil
}
