package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/louisbranch/restobot/internal/platform/timeouts"
)

// SubjectPrefix starts every published subject.
const SubjectPrefix = "restobot.orders."

// Subject returns the NATS subject for an event type.
func Subject(eventType EventType) string {
	return SubjectPrefix + string(eventType)
}

// publisher is the subset of *nats.Conn used here.
type publisher interface {
	Publish(subject string, data []byte) error
}

// NATSPublisher publishes order events as JSON to NATS.
type NATSPublisher struct {
	pub  publisher
	conn *nats.Conn
}

// DialNATS connects to url and returns a publisher owning the connection.
func DialNATS(url string) (*NATSPublisher, error) {
	conn, err := nats.Connect(url,
		nats.Name("restobot"),
		nats.Timeout(timeouts.BrokerConnect),
		nats.MaxReconnects(5),
		nats.ReconnectWait(time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}
	return &NATSPublisher{pub: conn, conn: conn}, nil
}

// Notify implements Notifier.
func (p *NATSPublisher) Notify(ctx context.Context, event Event) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context cancelled before publish: %w", err)
	}
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	if err := p.pub.Publish(Subject(event.Type), data); err != nil {
		return fmt.Errorf("publish %s: %w", event.Type, err)
	}
	return nil
}

// Close drains the connection when the publisher owns one.
func (p *NATSPublisher) Close() error {
	if p == nil || p.conn == nil {
		return nil
	}
	return p.conn.Drain()
}
