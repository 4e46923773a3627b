package natsadapter

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/samirrijal/locallens/internal/core/domain"
)

const (
	AreaStream     = "LOCALLENS_AREAS"
	AreaSubjects   = "locallens.area.>"
	DigestSubjects = "locallens.digest.>"
)

// AreaSubject is the JetStream subject an area request is published on.
func AreaSubject(id string) string { return "locallens.area." + id }

// DigestSubject is the core subject a digest is broadcast on.
func DigestSubject(areaID string) string { return "locallens.digest." + areaID }

// Publisher implements ports.AreaPublisher and ports.DigestPublisher.
type Publisher struct {
	conn *nats.Conn
	js   nats.JetStreamContext
}

// NewPublisher connects to NATS and makes sure the area stream exists.
func NewPublisher(url string) (*Publisher, error) {
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

	return &Publisher{conn: conn, js: js}, nil
}

func ensureAreaStream(js nats.JetStreamContext) error {
	cfg := &nats.StreamConfig{
		Name:      AreaStream,
		Subjects:  []string{AreaSubjects},
		Retention: nats.WorkQueuePolicy,
		MaxAge:    24 * time.Hour,
		Storage:   nats.FileStorage,
	}
	if _, err := js.AddStream(cfg); err != nil {
		// Stream may already exist — try update
		if _, err := js.UpdateStream(cfg); err != nil {
			return fmt.Errorf("ensure stream %s: %w", cfg.Name, err)
		}
	}
	return nil
}

// PublishArea persists an area request on the work-queue stream.
func (p *Publisher) PublishArea(ctx context.Context, area domain.AreaRequest) error {
	data, err := EncodeArea(area)
	if err != nil {
		return err
	}
	_, err = p.js.Publish(AreaSubject(area.ID), data, nats.Context(ctx), nats.MsgId(area.ID))
	return err
}

// PublishDigest broadcasts a digest as JSON to live subscribers.
func (p *Publisher) PublishDigest(_ context.Context, digest domain.AreaDigest) error {
	data, err := json.Marshal(digest)
	if err != nil {
		return err
	}
	return p.conn.Publish(DigestSubject(digest.AreaID), data)
}

// Conn exposes the underlying connection for relays.
func (p *Publisher) Conn() *nats.Conn {
	return p.conn
}

// Close drains and closes the connection.
func (p *Publisher) Close() {
	_ = p.conn.Drain()
}

// Connect opens a plain NATS connection with the reconnect policy shared by all binaries.
func Connect(url string) (*nats.Conn, error) {
	conn, err := nats.Connect(url,
		nats.Name("locallens"),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}
	return conn, nil
}
