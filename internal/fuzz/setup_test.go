package fuzz

import (
	"testing"

	"github.com/Billy-Davies-2/draftboard/internal/dataset"
	"github.com/Billy-Davies-2/draftboard/internal/logger"
	"github.com/Billy-Davies-2/draftboard/internal/pubsub"
	"github.com/Billy-Davies-2/draftboard/internal/session"
)

func init() {
	logger.Init("error")
}

// newBoard builds a session over the embedded dataset
func newBoard(t *testing.T) (*session.Session, *pubsub.PubSub) {
	t.Helper()
	players, err := dataset.Embedded()
	if err != nil {
		t.Fatal(err)
	}
	ps := pubsub.New()
	board, err := session.New(players, nil, session.WithPublisher(ps))
	if err != nil {
		t.Fatal(err)
	}
	return board, ps
}
