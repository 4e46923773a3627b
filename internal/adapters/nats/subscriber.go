package natsadapter

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/nats-io/nats.go"

	"github.com/samirrijal/locallens/internal/core/domain"
)

// Subscriber implements ports.AreaSubscriber using a durable JetStream consumer.
type Subscriber struct {
	conn *nats.Conn
	js   nats.JetStreamContext
	subs []*nats.Subscription
}

// NewSubscriber connects to NATS and ensures the area stream exists.
func NewSubscriber(url string) (*Subscriber, error) {
	conn, err := Connect(url)
	if err != nil {
		return nil, err
	}
	js, err := conn.JetStream()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("jetstream: %w", err)
	}
	if err := ensureAreaStream(js); err != nil {
		conn.Close()
		return nil, err
	}
	return &Subscriber{conn: conn, js: js}, nil
}

// SubscribeAreas hands every forwarded area to handler. Malformed payloads are
// terminated; handler errors are nak'ed for redelivery (at most three attempts).
func (s *Subscriber) SubscribeAreas(ctx context.Context, handler func(ctx context.Context, area domain.AreaRequest) error) error {
	sub, err := s.js.Subscribe(AreaSubjects, func(msg *nats.Msg) {
		area, err := DecodeArea(msg.Data)
		if err != nil {
			slog.Warn("dropping malformed area event", "subject", msg.Subject, "error", err)
			_ = msg.Term()
			return
		}
		if err := handler(ctx, area); err != nil {
			slog.Warn("area handler failed", "area_id", area.ID, "error", err)
			_ = msg.Nak()
			return
		}
		_ = msg.Ack()
	},
		nats.Durable("area-digester"),
		nats.ManualAck(),
		nats.MaxDeliver(3),
	)
	if err != nil {
		return err
	}
	s.subs = append(s.subs, sub)
	return nil
}

// Close unsubscribes and drains.
func (s *Subscriber) Close() {
	for _, sub := range s.subs {
		_ = sub.Unsubscribe()
	}
	_ = s.conn.Drain()
}
