package pubsub

import (
	"sync"

	"github.com/Billy-Davies-2/draftboard/internal/logger"
)

// fanout delivers events to buffered subscriber channels without blocking
type fanout struct {
	mu          sync.RWMutex
	subscribers []chan Event
	buffer      int
}

func newFanout(buffer int) fanout {
	return fanout{subscribers: []chan Event{}, buffer: buffer}
}

// Subscribe adds a new subscriber and returns a channel for receiving events
func (f *fanout) Subscribe() chan Event {
	ch := make(chan Event, f.buffer)

	f.mu.Lock()
	f.subscribers = append(f.subscribers, ch)
	n := len(f.subscribers)
	f.mu.Unlock()

	logger.Debug("PubSub: New subscriber added", "total_subscribers", n)
	return ch
}

// Unsubscribe removes and closes a subscriber channel
func (f *fanout) Unsubscribe(ch chan Event) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for i, sub := range f.subscribers {
		if sub == ch {
			f.subscribers = append(f.subscribers[:i], f.subscribers[i+1:]...)
			close(ch)
			break
		}
	}
}

// SubscriberCount returns the number of active local subscribers
func (f *fanout) SubscriberCount() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.subscribers)
}

// broadcast sends to every subscriber, skipping full channels
func (f *fanout) broadcast(event Event) {
	// Sends never block, so holding the read lock keeps closeAll from
	// closing a channel mid-send.
	f.mu.RLock()
	defer f.mu.RUnlock()

	for _, ch := range f.subscribers {
		select {
		case ch <- event:
		default:
			logger.Warn("PubSub: Skipping slow subscriber", "event_type", event.Type)
		}
	}
}

func (f *fanout) closeAll() {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, sub := range f.subscribers {
		close(sub)
	}
	f.subscribers = nil
}
