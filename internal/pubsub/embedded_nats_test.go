package pubsub

import (
	"testing"
	"time"
)

func startEmbedded(t *testing.T) *EmbeddedNATSPubSub {
	t.Helper()
	ps, err := NewEmbeddedNATSPubSub(DefaultEmbeddedNATSOptions())
	if err != nil {
		t.Fatalf("NewEmbeddedNATSPubSub: %v", err)
	}
	t.Cleanup(ps.Close)
	return ps
}

func TestDefaultEmbeddedNATSOptions(t *testing.T) {
	opts := DefaultEmbeddedNATSOptions()
	if opts.Port != -1 || opts.Subject != DefaultSubject || opts.StreamName != DefaultStreamName || opts.StoreDir != "" {
		t.Errorf("opts = %+v", opts)
	}
}

func TestEmbeddedNATSPublishAndReceive(t *testing.T) {
	ps := startEmbedded(t)
	if ps.ServerURL() == "" {
		t.Fatal("empty server URL")
	}

	a, b := ps.Subscribe(), ps.Subscribe()
	sent := NewEvent(EventRankingsMove, map[string]interface{}{"playerId": "ja-marr-chase", "direction": "down"})
	ps.Publish(sent)

	for _, ch := range []chan Event{a, b} {
		got := recv(t, ch)
		if got.ID != sent.ID || got.Type != EventRankingsMove || got.Payload["direction"] != "down" {
			t.Errorf("got %+v", got)
		}
	}
}

func TestEmbeddedNATSDurableConsumer(t *testing.T) {
	ps := startEmbedded(t)

	ps.Publish(NewEvent(EventBoardImport, map[string]interface{}{"matched": 3.0}))

	got := make(chan Event, 1)
	if err := ps.SubscribeJetStream("audit", func(e Event) { got <- e }); err != nil {
		t.Fatalf("SubscribeJetStream: %v", err)
	}

	select {
	case e := <-got:
		if e.Type != EventBoardImport || e.Payload["matched"] != 3.0 {
			t.Errorf("got %+v", e)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("durable consumer did not replay retained event")
	}
}

func TestEmbeddedNATSAsUpstream(t *testing.T) {
	ps := startEmbedded(t)
	bus := NewWithUpstream(ps)
	local := bus.Subscribe()

	bus.Publish(NewEvent(EventAdviceApply, map[string]interface{}{"playerId": "p1"}))
	if e := recv(t, local); e.Type != EventAdviceApply {
		t.Errorf("got %+v", e)
	}
}

func TestEmbeddedNATSCloseClosesSubscribers(t *testing.T) {
	ps, err := NewEmbeddedNATSPubSub(EmbeddedNATSOptions{Port: -1, Subject: "test.board", StreamName: "TEST_BOARD"})
	if err != nil {
		t.Fatalf("NewEmbeddedNATSPubSub: %v", err)
	}
	ch := ps.Subscribe()
	ps.Close()

	if _, ok := <-ch; ok {
		t.Error("subscriber channel should be closed after Close")
	}
	if ps.SubscriberCount() != 0 {
		t.Errorf("SubscriberCount=%d", ps.SubscriberCount())
	}
}
