package pubsub

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/Billy-Davies-2/draftboard/internal/logger"
)

// StreamConfig describes the JetStream stream backing a bus
type StreamConfig struct {
	Subject    string
	StreamName string
	Storage    nats.StorageType
	MaxAge     time.Duration
}

// jetStreamBus publishes board events to a JetStream subject and fans
// every delivered message out to local subscribers.
type jetStreamBus struct {
	fanout
	nc      *nats.Conn
	js      nats.JetStreamContext
	subject string
	sub     *nats.Subscription
}

func newJetStreamBus(nc *nats.Conn, cfg StreamConfig) (*jetStreamBus, error) {
	if cfg.Subject == "" {
		cfg.Subject = DefaultSubject
	}
	if cfg.StreamName == "" {
		cfg.StreamName = DefaultStreamName
	}

	js, err := nc.JetStream()
	if err != nil {
		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	if _, err := js.StreamInfo(cfg.StreamName); err != nil {
		_, err = js.AddStream(&nats.StreamConfig{
			Name:     cfg.StreamName,
			Subjects: []string{cfg.Subject},
			Storage:  cfg.Storage,
			MaxAge:   cfg.MaxAge,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create JetStream stream: %w", err)
		}
		logger.Info("JetStream stream created", "stream", cfg.StreamName, "subject", cfg.Subject)
	}

	b := &jetStreamBus{
		fanout:  newFanout(100),
		nc:      nc,
		js:      js,
		subject: cfg.Subject,
	}

	b.sub, err = js.Subscribe(cfg.Subject, func(msg *nats.Msg) {
		var event Event
		if err := json.Unmarshal(msg.Data, &event); err != nil {
			logger.Error("Failed to unmarshal event from JetStream", "error", err)
			_ = msg.Nak()
			return
		}
		b.broadcast(event)
		_ = msg.Ack()
	}, nats.ManualAck(), nats.DeliverNew())
	if err != nil {
		return nil, fmt.Errorf("failed to subscribe to %s: %w", cfg.Subject, err)
	}

	logger.Debug("Subscribed to JetStream", "subject", cfg.Subject)
	return b, nil
}

// Publish publishes an event to the stream
func (b *jetStreamBus) Publish(event Event) {
	data, err := json.Marshal(event)
	if err != nil {
		logger.Error("Failed to marshal event", "error", err, "event_type", event.Type)
		return
	}

	if _, err := b.js.Publish(b.subject, data); err != nil {
		logger.Error("Failed to publish to NATS", "error", err, "subject", b.subject, "event_type", event.Type)
		return
	}

	logger.Debug("Published event to NATS", "event_type", event.Type, "subject", b.subject)
}

// SubscribeJetStream creates a durable consumer that sees every event
// retained by the stream, including those published before it started.
func (b *jetStreamBus) SubscribeJetStream(consumerName string, handler func(Event)) error {
	_, err := b.js.Subscribe(b.subject, func(msg *nats.Msg) {
		var event Event
		if err := json.Unmarshal(msg.Data, &event); err != nil {
			logger.Error("Failed to unmarshal durable event", "error", err, "consumer", consumerName)
			_ = msg.Nak()
			return
		}
		handler(event)
		_ = msg.Ack()
	}, nats.Durable(consumerName), nats.ManualAck())
	return err
}

func (b *jetStreamBus) close() {
	if b.sub != nil {
		_ = b.sub.Unsubscribe()
	}
	b.closeAll()
	if b.nc != nil {
		b.nc.Close()
	}
}
