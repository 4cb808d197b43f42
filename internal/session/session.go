// Package session owns the live draft board: the player list, the user's
// marks, notes and draft status, and the draft settings. Every mutation is
// persisted and announced on the event bus.
package session

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/jonboulle/clockwork"

	"github.com/Billy-Davies-2/draftboard/internal/dal"
	"github.com/Billy-Davies-2/draftboard/internal/draft"
	"github.com/Billy-Davies-2/draftboard/internal/logger"
	"github.com/Billy-Davies-2/draftboard/internal/models"
	"github.com/Billy-Davies-2/draftboard/internal/pubsub"
	"github.com/Billy-Davies-2/draftboard/internal/rankfile"
	"github.com/Billy-Davies-2/draftboard/internal/ranking"
	"github.com/Billy-Davies-2/draftboard/internal/recommend"
)

var (
	ErrStaleAdvice = errors.New("advice superseded by a newer request")
	ErrEmptyBoard  = errors.New("base board has no players")
)

// Option configures a Session
type Option func(*Session)

// WithClock sets the clock used for export dates
func WithClock(c clockwork.Clock) Option {
	return func(s *Session) { s.clock = c }
}

// WithPublisher announces every mutation on p
func WithPublisher(p pubsub.Publisher) Option {
	return func(s *Session) { s.pub = p }
}

// WithDefaultSettings replaces the settings used when none are persisted and on reset
func WithDefaultSettings(d models.DraftSettings) Option {
	return func(s *Session) { s.defaults = d.Normalize() }
}

// Session is the single owner of the board state
type Session struct {
	mu        sync.RWMutex
	base      []models.Player
	players   []models.Player
	settings  models.DraftSettings
	defaults  models.DraftSettings
	adviceGen uint64

	store dal.DraftDAL
	pub   pubsub.Publisher
	clock clockwork.Clock
	log   *slog.Logger
}

// Snapshot is a consistent read of everything a recommendation needs
type Snapshot struct {
	Available      []models.Player
	Roster         []models.Player
	Settings       models.DraftSettings
	PicksUntilNext int
}

// New builds a session over base, restoring whatever store holds. Missing or
// unreadable keys fall back to defaults.
func New(base []models.Player, store dal.DraftDAL, opts ...Option) (*Session, error) {
	if len(base) == 0 {
		return nil, ErrEmptyBoard
	}
	s := &Session{
		base:     ranking.DerivePositionRanks(ranking.Normalize(base)),
		defaults: models.DefaultDraftSettings(),
		store:    store,
		clock:    clockwork.NewRealClock(),
		log:      logger.With("session"),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.store == nil {
		s.store = dal.NewMemoryDAL()
	}

	s.players = s.restore()
	s.settings = s.restoreSettings()

	s.log.Info("Draft board loaded",
		"players", len(s.players),
		"drafted", ranking.DraftedCount(s.players),
		"total_teams", s.settings.TotalTeams,
		"draft_spot", s.settings.YourDraftSpot,
	)
	return s, nil
}

// Players returns a copy of the full board in base order
func (s *Session) Players() []models.Player {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return clone(s.players)
}

// Board returns the filtered view in customRank order
func (s *Session) Board(f ranking.Filter) ([]models.Player, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return f.Apply(s.players), nil
}

// Player returns one player by id
func (s *Session) Player(id string) (models.Player, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := ranking.IndexOf(s.players, id)
	if i < 0 {
		return models.Player{}, fmt.Errorf("%w: %s", ranking.ErrUnknownPlayer, id)
	}
	return s.players[i], nil
}

// Settings returns the current draft settings
func (s *Session) Settings() models.DraftSettings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings
}

// Move shifts playerID one place up or down within the view described by f.
// It reports false when the player is already at that end of the view.
func (s *Session) Move(playerID string, f ranking.Filter, dir ranking.Direction) (bool, error) {
	if err := f.Validate(); err != nil {
		return false, err
	}

	s.mu.Lock()
	visible := f.Apply(s.players)
	idx := ranking.IndexOf(visible, playerID)
	if idx < 0 {
		s.mu.Unlock()
		return false, fmt.Errorf("%w: %s not in view", ranking.ErrUnknownPlayer, playerID)
	}
	next, moved, err := ranking.MoveAdjacent(s.players, visible, idx, dir)
	if err != nil || !moved {
		s.mu.Unlock()
		return false, err
	}
	s.players = next
	s.saveRankings()
	s.mu.Unlock()

	s.publish(pubsub.EventRankingsMove, map[string]interface{}{
		"playerId":  playerID,
		"direction": dir.String(),
		"position":  f.Position,
	})
	return true, nil
}

// ToggleStar flips the star, clearing thumbs-down when the star is set
func (s *Session) ToggleStar(id string) (models.Player, error) {
	return s.mark(id, func(p *models.Player) {
		p.Starred = !p.Starred
		if p.Starred {
			p.ThumbsDown = false
		}
	})
}

// ToggleThumbsDown flips thumbs-down, clearing the star when it is set
func (s *Session) ToggleThumbsDown(id string) (models.Player, error) {
	return s.mark(id, func(p *models.Player) {
		p.ThumbsDown = !p.ThumbsDown
		if p.ThumbsDown {
			p.Starred = false
		}
	})
}

func (s *Session) mark(id string, apply func(*models.Player)) (models.Player, error) {
	p, err := s.update(id, apply, s.saveMarks)
	if err != nil {
		return p, err
	}
	s.publish(pubsub.EventPlayersMark, map[string]interface{}{
		"playerId":   id,
		"starred":    p.Starred,
		"thumbsDown": p.ThumbsDown,
	})
	return p, nil
}

// SetNotes replaces a player's notes
func (s *Session) SetNotes(id, text string) (models.Player, error) {
	p, err := s.update(id, func(p *models.Player) { p.Notes = text }, s.saveNotes)
	if err != nil {
		return p, err
	}
	s.publish(pubsub.EventPlayersNotes, map[string]interface{}{"playerId": id, "notes": text})
	return p, nil
}

// MarkDraftedByYou records the player as taken by the user
func (s *Session) MarkDraftedByYou(id string) (models.Player, error) {
	return s.setDraftStatus(id, models.DraftStatus{DraftedByYou: true}, "you")
}

// MarkDraftedByOthers records the player as taken by another team
func (s *Session) MarkDraftedByOthers(id string) (models.Player, error) {
	return s.setDraftStatus(id, models.DraftStatus{DraftedByOthers: true}, "others")
}

// ClearDraftStatus puts the player back on the board
func (s *Session) ClearDraftStatus(id string) (models.Player, error) {
	return s.setDraftStatus(id, models.DraftStatus{}, "none")
}

func (s *Session) setDraftStatus(id string, st models.DraftStatus, label string) (models.Player, error) {
	p, err := s.update(id, func(p *models.Player) {
		p.DraftedByYou = st.DraftedByYou
		p.DraftedByOthers = st.DraftedByOthers
	}, s.saveDraftStatus)
	if err != nil {
		return p, err
	}
	s.publish(pubsub.EventDraftStatus, map[string]interface{}{"playerId": id, "status": label})
	return p, nil
}

// update applies fn to one player under the write lock and persists with save
func (s *Session) update(id string, fn func(*models.Player), save func()) (models.Player, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := ranking.IndexOf(s.players, id)
	if i < 0 {
		return models.Player{}, fmt.Errorf("%w: %s", ranking.ErrUnknownPlayer, id)
	}
	next := clone(s.players)
	fn(&next[i])
	s.players = next
	save()
	return next[i], nil
}

// UpdateSettings normalises and stores new settings
func (s *Session) UpdateSettings(in models.DraftSettings) models.DraftSettings {
	settings := in.Normalize()

	s.mu.Lock()
	s.settings = settings
	s.saveSettings()
	s.mu.Unlock()

	s.publish(pubsub.EventSettingsUpdate, map[string]interface{}{
		"totalTeams":    settings.TotalTeams,
		"yourDraftSpot": settings.YourDraftSpot,
	})
	return settings
}

// PicksUntilNext is the number of picks before the user is on the clock
func (s *Session) PicksUntilNext() (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.picksUntilNext()
}

func (s *Session) picksUntilNext() (int, error) {
	return draft.PicksUntilNext(s.settings.TotalTeams, s.settings.YourDraftSpot, ranking.DraftedCount(s.players))
}

// CurrentPick describes the pick on the clock
func (s *Session) CurrentPick() (draft.Pick, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return draft.CurrentPick(s.settings.TotalTeams, ranking.DraftedCount(s.players))
}

// Roster returns the user's drafted players in customRank order
func (s *Session) Roster() []models.Player {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return ranking.Roster(s.players)
}

// Slots assigns the roster to lineup slots
func (s *Session) Slots() draft.Allocation {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return draft.AllocateSlots(ranking.Roster(s.players), s.settings)
}

// Projected lists the players expected to be left at the user's next turn
func (s *Session) Projected() ([]models.Player, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n, err := s.picksUntilNext()
	if err != nil {
		return nil, err
	}
	return draft.ProjectedAvailable(ranking.Available(s.players), n, draft.ProjectedCount), nil
}

// PositionCounts counts the user's roster by position
func (s *Session) PositionCounts() map[models.Position]int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return draft.PositionCounts(ranking.Roster(s.players))
}

// Snapshot reads available players, roster, settings and pick timing at once
func (s *Session) Snapshot() (Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n, err := s.picksUntilNext()
	if err != nil {
		return Snapshot{}, err
	}
	return Snapshot{
		Available:      ranking.Available(s.players),
		Roster:         ranking.Roster(s.players),
		Settings:       s.settings,
		PicksUntilNext: n,
	}, nil
}

// Recommend runs the scorer over the current board
func (s *Session) Recommend() (recommend.Result, error) {
	snap, err := s.Snapshot()
	if err != nil {
		return recommend.Result{}, err
	}
	return recommend.Recommend(snap.Available, snap.Roster, snap.Settings, snap.PicksUntilNext), nil
}

// Reset restores the base board and default settings and clears storage.
// Pending advice becomes stale.
func (s *Session) Reset() error {
	s.mu.Lock()
	s.players = clone(s.base)
	s.settings = s.defaults
	s.adviceGen++
	err := dal.DeleteAll(s.store)
	s.mu.Unlock()

	if err != nil {
		s.log.Error("Failed to clear persisted board", "error", err)
		return fmt.Errorf("reset: %w", err)
	}
	s.log.Info("Draft board reset")
	s.publish(pubsub.EventBoardReset, nil)
	return nil
}

// Import validates a rankings file and merges it into the board. Nothing
// changes when validation fails.
func (s *Session) Import(data []byte, contentType string) (rankfile.Stats, error) {
	imp, err := rankfile.Parse(data, contentType)
	if err != nil {
		return rankfile.Stats{}, err
	}

	s.mu.Lock()
	next, stats := rankfile.Merge(s.players, imp)
	s.players = next
	s.saveRankings()
	s.saveMarks()
	s.saveNotes()
	s.mu.Unlock()

	s.log.Info("Rankings imported", "total", stats.Total, "updated", stats.Updated, "matched", stats.Matched)
	s.publish(pubsub.EventBoardImport, map[string]interface{}{
		"total":   stats.Total,
		"updated": stats.Updated,
		"matched": stats.Matched,
	})
	return stats, nil
}

// Export builds a rankings file stamped with the session clock
func (s *Session) Export() (rankfile.File, string) {
	now := s.clock.Now()
	s.mu.RLock()
	defer s.mu.RUnlock()
	return rankfile.Export(s.players, now), rankfile.FileName(now)
}

// UpdateADP replaces adpRank for every known player in adp and returns how
// many changed. ADP is feed data and is not persisted.
func (s *Session) UpdateADP(adp map[string]float64) int {
	s.mu.Lock()
	next := clone(s.players)
	changed := 0
	for i := range next {
		v, ok := adp[next[i].PlayerID]
		if !ok || v <= 0 || v == next[i].ADPRank {
			continue
		}
		next[i].ADPRank = v
		changed++
	}
	if changed > 0 {
		s.players = next
	}
	s.mu.Unlock()

	if changed > 0 {
		s.publish(pubsub.EventADPUpdate, map[string]interface{}{"changed": changed})
	}
	return changed
}

// BeginAdvice starts a new advice request. Only the newest request may write
// its result.
func (s *Session) BeginAdvice() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.adviceGen++
	return s.adviceGen
}

// ApplyAdvice writes text to the top candidate named longName, or to the
// viewed player when no candidate has that name. matched reports which of
// the two received it, judged against the board at write time.
func (s *Session) ApplyAdvice(gen uint64, viewedID, longName, text string) (p models.Player, matched bool, err error) {
	s.mu.Lock()
	if gen != s.adviceGen {
		s.mu.Unlock()
		return models.Player{}, false, ErrStaleAdvice
	}

	targetID := viewedID
	candidates := recommend.Candidates(ranking.Available(s.players))
	if i := ranking.FindByName(candidates, longName); i >= 0 {
		targetID, matched = candidates[i].PlayerID, true
	}
	p, err = s.writeSuggestion(targetID, text)
	s.mu.Unlock()
	if err != nil {
		return p, false, err
	}

	s.publish(pubsub.EventAdviceApply, map[string]interface{}{
		"playerId": p.PlayerID,
		"viewedId": viewedID,
		"matched":  matched,
	})
	return p, matched, nil
}

// SetAISuggestion writes raw text to one player, subject to the same
// generation check as ApplyAdvice
func (s *Session) SetAISuggestion(gen uint64, id, text string) (models.Player, error) {
	s.mu.Lock()
	if gen != s.adviceGen {
		s.mu.Unlock()
		return models.Player{}, ErrStaleAdvice
	}
	p, err := s.writeSuggestion(id, text)
	s.mu.Unlock()
	if err != nil {
		return p, err
	}
	s.publish(pubsub.EventAdviceApply, map[string]interface{}{"playerId": id, "viewedId": id, "matched": false})
	return p, nil
}

// writeSuggestion must be called with the write lock held
func (s *Session) writeSuggestion(id, text string) (models.Player, error) {
	i := ranking.IndexOf(s.players, id)
	if i < 0 {
		return models.Player{}, fmt.Errorf("%w: %s", ranking.ErrUnknownPlayer, id)
	}
	next := clone(s.players)
	next[i].AISuggestions = text
	s.players = next
	return next[i], nil
}

func (s *Session) publish(eventType string, payload map[string]interface{}) {
	if s.pub == nil {
		return
	}
	s.pub.Publish(pubsub.NewEvent(eventType, payload))
}

func clone(players []models.Player) []models.Player {
	out := make([]models.Player, len(players))
	copy(out, players)
	return out
}
