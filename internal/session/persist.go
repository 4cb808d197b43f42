package session

import (
	"github.com/Billy-Davies-2/draftboard/internal/dal"
	"github.com/Billy-Davies-2/draftboard/internal/models"
	"github.com/Billy-Davies-2/draftboard/internal/ranking"
)

// restore overlays persisted ranks, marks, notes and draft status on the base board
func (s *Session) restore() []models.Player {
	players := clone(s.base)

	var ranks map[string]int
	if s.load(dal.KeyRankings, &ranks) {
		for i := range players {
			if r, ok := ranks[players[i].PlayerID]; ok {
				players[i].CustomRank = r
			}
		}
	}

	var marks map[string]models.Mark
	if s.load(dal.KeyPlayerMarks, &marks) {
		for i := range players {
			m, ok := marks[players[i].PlayerID]
			if !ok {
				continue
			}
			players[i].Starred = m.Starred
			players[i].ThumbsDown = m.ThumbsDown && !m.Starred
		}
	}

	var notes map[string]string
	if s.load(dal.KeyNotes, &notes) {
		for i := range players {
			players[i].Notes = notes[players[i].PlayerID]
		}
	}

	var status map[string]models.DraftStatus
	if s.load(dal.KeyDraftStatus, &status) {
		for i := range players {
			st, ok := status[players[i].PlayerID]
			if !ok {
				continue
			}
			players[i].DraftedByYou = st.DraftedByYou
			players[i].DraftedByOthers = st.DraftedByOthers && !st.DraftedByYou
		}
	}

	return ranking.DerivePositionRanks(ranking.Normalize(players))
}

func (s *Session) restoreSettings() models.DraftSettings {
	var settings models.DraftSettings
	if !s.load(dal.KeySettings, &settings) {
		return s.defaults
	}
	return settings.Normalize()
}

// load reads one key, treating failures as absent
func (s *Session) load(key string, v any) bool {
	ok, err := dal.LoadJSON(s.store, key, v)
	if err != nil {
		s.log.Warn("Ignoring unreadable persisted state", "key", key, "error", err)
		return false
	}
	return ok
}

// The save helpers run with the write lock held. Failures are logged; the
// in-memory board stays authoritative.

func (s *Session) saveRankings() {
	ranks := make(map[string]int, len(s.players))
	for _, p := range s.players {
		ranks[p.PlayerID] = p.CustomRank
	}
	s.save(dal.KeyRankings, ranks)
}

func (s *Session) saveMarks() {
	marks := make(map[string]models.Mark)
	for _, p := range s.players {
		if p.Starred || p.ThumbsDown {
			marks[p.PlayerID] = models.Mark{Starred: p.Starred, ThumbsDown: p.ThumbsDown}
		}
	}
	s.save(dal.KeyPlayerMarks, marks)
}

func (s *Session) saveNotes() {
	notes := make(map[string]string)
	for _, p := range s.players {
		if p.Notes != "" {
			notes[p.PlayerID] = p.Notes
		}
	}
	s.save(dal.KeyNotes, notes)
}

func (s *Session) saveDraftStatus() {
	status := make(map[string]models.DraftStatus)
	for _, p := range s.players {
		if p.Drafted() {
			status[p.PlayerID] = models.DraftStatus{DraftedByYou: p.DraftedByYou, DraftedByOthers: p.DraftedByOthers}
		}
	}
	s.save(dal.KeyDraftStatus, status)
}

func (s *Session) saveSettings() {
	s.save(dal.KeySettings, s.settings)
}

func (s *Session) save(key string, v any) {
	if err := dal.SaveJSON(s.store, key, v); err != nil {
		s.log.Error("Failed to persist board state", "key", key, "error", err)
	}
}
