// Package adpfeed keeps the board's ADP values current, either from a
// periodic aggregation source or from a watched dataset file.
package adpfeed

import (
	"context"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/Billy-Davies-2/draftboard/internal/logger"
)

// DefaultInterval matches the analytics refresh cadence
const DefaultInterval = 5 * time.Minute

// Source pushes fresh ADP values (playerID to ADP) into update
type Source interface {
	SyncADP(ctx context.Context, update func(map[string]float64) error) error
}

// Target receives ADP values and reports how many players changed
type Target interface {
	UpdateADP(adp map[string]float64) int
}

// Syncer pulls from a Source on a fixed interval
type Syncer struct {
	source   Source
	target   Target
	interval time.Duration
	clock    clockwork.Clock
	log      *slog.Logger
}

// NewSyncer creates a syncer. A non-positive interval uses DefaultInterval.
func NewSyncer(source Source, target Target, interval time.Duration, clock clockwork.Clock) *Syncer {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Syncer{
		source:   source,
		target:   target,
		interval: interval,
		clock:    clock,
		log:      logger.With("adpfeed"),
	}
}

// SyncOnce runs a single sync and returns how many players changed
func (s *Syncer) SyncOnce(ctx context.Context) (int, error) {
	changed := 0
	err := s.source.SyncADP(ctx, func(adp map[string]float64) error {
		changed = s.target.UpdateADP(adp)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return changed, nil
}

// Run syncs immediately and then on every tick until ctx is done
func (s *Syncer) Run(ctx context.Context) {
	ticker := s.clock.NewTicker(s.interval)
	defer ticker.Stop()

	s.sync(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			s.sync(ctx)
		}
	}
}

func (s *Syncer) sync(ctx context.Context) {
	s.log.Debug("Syncing ADP")
	changed, err := s.SyncOnce(ctx)
	if err != nil {
		s.log.Error("Failed to sync ADP", "error", err)
		return
	}
	s.log.Info("ADP synced", "changed", changed)
}
