package pubsub

import (
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/Billy-Davies-2/draftboard/internal/logger"
)

const (
	DefaultSubject    = "draftboard.events"
	DefaultStreamName = "DRAFTBOARD_EVENTS"
)

// NATSPubSub shares board events between instances through an external NATS server
type NATSPubSub struct {
	*jetStreamBus
}

// NewNATSPubSub connects to natsURL and binds the board stream on subject
func NewNATSPubSub(natsURL, subject string) (*NATSPubSub, error) {
	nc, err := nats.Connect(natsURL,
		nats.Name("draftboard"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("NATS disconnected", "error", err)
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			logger.Info("NATS reconnected", "url", c.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	bus, err := newJetStreamBus(nc, StreamConfig{
		Subject:    subject,
		StreamName: DefaultStreamName,
		Storage:    nats.FileStorage,
		MaxAge:     24 * time.Hour,
	})
	if err != nil {
		nc.Close()
		return nil, err
	}

	logger.Info("Connected to NATS", "url", natsURL, "subject", bus.subject)
	return &NATSPubSub{jetStreamBus: bus}, nil
}

// Close drains local subscribers and closes the connection
func (p *NATSPubSub) Close() {
	p.close()
	logger.Info("NATS connection closed")
}
