package mocks

import (
	"sync"

	"github.com/Billy-Davies-2/draftboard/internal/logger"
	"github.com/Billy-Davies-2/draftboard/internal/pubsub"
)

// MockNATSPubSub stands in for NATS JetStream in tests and ENVIRONMENT=test,
// using the in-memory fan-out and recording what was published.
type MockNATSPubSub struct {
	*pubsub.PubSub
	mu        sync.Mutex
	published []pubsub.Event
}

// NewMockNATSPubSub creates a mock NATS pub/sub using the in-memory implementation
func NewMockNATSPubSub() *MockNATSPubSub {
	logger.Info("Using MOCK NATS/JetStream (in-memory pub/sub)")

	return &MockNATSPubSub{
		PubSub: pubsub.New(),
	}
}

// Publish records the event and delivers it locally
func (m *MockNATSPubSub) Publish(event pubsub.Event) {
	m.mu.Lock()
	m.published = append(m.published, event)
	m.mu.Unlock()
	m.PubSub.Publish(event)
}

// Published returns every event seen so far
func (m *MockNATSPubSub) Published() []pubsub.Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]pubsub.Event, len(m.published))
	copy(out, m.published)
	return out
}

// Close is a no-op for mock
func (m *MockNATSPubSub) Close() {}
