package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/nats-io/nats.go"
)

// Publisher sends raw messages to a topic
type Publisher interface {
	Publish(ctx context.Context, topic string, msg []byte) error
}

// NATSPublisher publishes on a core NATS connection
type NATSPublisher struct {
	conn *nats.Conn
}

// NewNATSPublisher connects to the NATS server at url
func NewNATSPublisher(url string) (*NATSPublisher, error) {
	conn, err := nats.Connect(url, nats.Name("kitchen-planner"))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	return &NATSPublisher{conn: conn}, nil
}

func (p *NATSPublisher) Publish(ctx context.Context, topic string, msg []byte) error {
	return p.conn.Publish(topic, msg)
}

func (p *NATSPublisher) Close() error {
	p.conn.Close()
	return nil
}

// Forward returns a Listener that encodes events as JSON and hands them to pub.
// Publish failures are logged; the mutation that produced the event is already committed.
func Forward(ctx context.Context, pub Publisher, topic string) Listener {
	return func(e Event) {
		data, err := json.Marshal(e)
		if err != nil {
			log.Printf("events: cannot encode %s: %v", e.Type, err)
			return
		}
		if err := pub.Publish(ctx, topic, data); err != nil {
			log.Printf("events: cannot publish %s for %s: %v", e.Type, e.EntityID, err)
		}
	}
}
