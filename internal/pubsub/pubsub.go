package pubsub

import (
	"time"

	"github.com/google/uuid"

	"github.com/Billy-Davies-2/draftboard/internal/logger"
)

// Board event types
const (
	EventRankingsMove   = "rankings:move"
	EventPlayersMark    = "players:mark"
	EventPlayersNotes   = "players:notes"
	EventDraftStatus    = "draft:status"
	EventSettingsUpdate = "settings:update"
	EventBoardReset     = "board:reset"
	EventBoardImport    = "board:import"
	EventADPUpdate      = "adp:update"
	EventAdviceApply    = "advice:apply"
)

// Event represents a pubsub event
type Event struct {
	ID      string                 `json:"id,omitempty"`
	Type    string                 `json:"type"`
	Time    time.Time              `json:"time,omitempty"`
	Payload map[string]interface{} `json:"payload,omitempty"`
}

// NewEvent stamps an event with a fresh id and the current time
func NewEvent(eventType string, payload map[string]interface{}) Event {
	return Event{
		ID:      uuid.NewString(),
		Type:    eventType,
		Time:    time.Now().UTC(),
		Payload: payload,
	}
}

// Publisher is anything events can be sent to
type Publisher interface {
	Publish(Event)
}

// Upstream is an interface for upstream publishers (e.g., NATS)
type Upstream interface {
	Publisher
	Subscribe() chan Event
	Unsubscribe(chan Event)
}

// PubSub implements a simple publish-subscribe system
type PubSub struct {
	fanout
	upstream Upstream // Optional upstream publisher (e.g., NATS)
}

// New creates a new PubSub instance
func New() *PubSub {
	return &PubSub{fanout: newFanout(10)}
}

// NewWithUpstream creates a PubSub that bridges to an upstream publisher (e.g., NATS).
// Publish sends to the upstream, which broadcasts to every instance; events
// from the upstream are forwarded to local subscribers.
func NewWithUpstream(upstream Upstream) *PubSub {
	ps := &PubSub{
		fanout:   newFanout(10),
		upstream: upstream,
	}

	ch := upstream.Subscribe()
	go func() {
		logger.Debug("PubSub: Subscribed to upstream, waiting for events")
		for event := range ch {
			logger.Debug("PubSub: Received event from upstream, forwarding to local", "type", event.Type)
			ps.broadcast(event)
		}
		logger.Debug("PubSub: Upstream channel closed")
	}()

	return ps
}

// Publish sends an event to all subscribers, through the upstream when one is configured
func (ps *PubSub) Publish(event Event) {
	if ps.upstream != nil {
		logger.Debug("PubSub: Forwarding to upstream", "type", event.Type)
		ps.upstream.Publish(event)
		return
	}
	logger.Debug("PubSub: Publishing locally (no upstream)", "type", event.Type)
	ps.broadcast(event)
}
