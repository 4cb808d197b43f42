package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/Billy-Davies-2/draftboard/internal/dal"
	"github.com/Billy-Davies-2/draftboard/internal/mocks"
	"github.com/Billy-Davies-2/draftboard/internal/models"
	"github.com/Billy-Davies-2/draftboard/internal/pubsub"
	"github.com/Billy-Davies-2/draftboard/internal/rankfile"
	"github.com/Billy-Davies-2/draftboard/internal/ranking"
)

func baseBoard(n int) []models.Player {
	positions := []models.Position{models.PositionRB, models.PositionWR, models.PositionQB, models.PositionTE, models.PositionK, models.PositionDST}
	players := make([]models.Player, n)
	for i := range players {
		players[i] = models.Player{
			PlayerID:   fmt.Sprintf("p%d", i+1),
			LongName:   fmt.Sprintf("Player %d", i+1),
			Team:       "KC",
			Position:   positions[i%len(positions)],
			ADPRank:    float64(i + 1),
			CustomRank: i + 1,
		}
	}
	return players
}

func newTestSession(t *testing.T, store dal.DraftDAL, opts ...Option) (*Session, *mocks.MockNATSPubSub) {
	t.Helper()
	bus := mocks.NewMockNATSPubSub()
	s, err := New(baseBoard(30), store, append([]Option{WithPublisher(bus)}, opts...)...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return s, bus
}

func seed(t *testing.T, store dal.DraftDAL, key string, v any) {
	t.Helper()
	if err := dal.SaveJSON(store, key, v); err != nil {
		t.Fatal(err)
	}
}

func eventTypes(bus *mocks.MockNATSPubSub) []string {
	var out []string
	for _, e := range bus.Published() {
		out = append(out, e.Type)
	}
	return out
}

func TestNewRejectsEmptyBoard(t *testing.T) {
	if _, err := New(nil, nil); !errors.Is(err, ErrEmptyBoard) {
		t.Fatalf("err=%v want ErrEmptyBoard", err)
	}
}

func TestNewRestoresPersistedState(t *testing.T) {
	store := dal.NewMemoryDAL()
	seed(t, store, dal.KeyRankings, map[string]int{"p1": 2, "p2": 1})
	seed(t, store, dal.KeyPlayerMarks, map[string]models.Mark{
		"p3": {Starred: true},
		"p4": {Starred: true, ThumbsDown: true},
	})
	seed(t, store, dal.KeyNotes, map[string]string{"p5": "late value"})
	seed(t, store, dal.KeyDraftStatus, map[string]models.DraftStatus{"p6": {DraftedByOthers: true}})
	seed(t, store, dal.KeySettings, models.DraftSettings{TotalTeams: 10, YourDraftSpot: 14, QBCount: -1})

	s, _ := newTestSession(t, store)

	p1, _ := s.Player("p1")
	p2, _ := s.Player("p2")
	if p1.CustomRank != 2 || p2.CustomRank != 1 {
		t.Errorf("ranks p1=%d p2=%d", p1.CustomRank, p2.CustomRank)
	}
	if p4, _ := s.Player("p4"); !p4.Starred || p4.ThumbsDown {
		t.Errorf("p4 marks = %+v, star should win", p4)
	}
	if p5, _ := s.Player("p5"); p5.Notes != "late value" {
		t.Errorf("p5 notes = %q", p5.Notes)
	}
	if p6, _ := s.Player("p6"); !p6.DraftedByOthers {
		t.Error("p6 should be drafted by others")
	}
	if got := s.Settings(); got.TotalTeams != 10 || got.YourDraftSpot != 10 || got.QBCount != 0 {
		t.Errorf("settings = %+v", got)
	}
	if !ranking.IsPermutation(s.Players()) {
		t.Error("restored ranks are not a permutation")
	}
}

func TestNewIgnoresCorruptState(t *testing.T) {
	store := dal.NewMemoryDAL()
	_ = store.Save(dal.KeyRankings, []byte(`{"p1":`))
	_ = store.Save(dal.KeySettings, []byte(`"nope"`))

	s, _ := newTestSession(t, store)
	if p1, _ := s.Player("p1"); p1.CustomRank != 1 {
		t.Errorf("p1 rank = %d want 1", p1.CustomRank)
	}
	if s.Settings() != models.DefaultDraftSettings() {
		t.Errorf("settings = %+v want defaults", s.Settings())
	}
}

func TestMove(t *testing.T) {
	store := dal.NewMemoryDAL()
	s, bus := newTestSession(t, store)

	// p7 is the second RB; in the RB view it moves above p1
	moved, err := s.Move("p7", ranking.Filter{Position: "RB"}, ranking.Up)
	if err != nil || !moved {
		t.Fatalf("Move = %v, %v", moved, err)
	}
	p1, _ := s.Player("p1")
	p7, _ := s.Player("p7")
	if p7.CustomRank != 1 || p1.CustomRank != 7 || p7.PosRank != 1 || p1.PosRank != 2 {
		t.Errorf("p7 rank=%d pos=%d, p1 rank=%d pos=%d", p7.CustomRank, p7.PosRank, p1.CustomRank, p1.PosRank)
	}

	var saved map[string]int
	if ok, err := dal.LoadJSON(store, dal.KeyRankings, &saved); !ok || err != nil || saved["p7"] != 1 {
		t.Errorf("persisted rankings = %v (%v, %v)", saved, ok, err)
	}
	if types := eventTypes(bus); len(types) != 1 || types[0] != pubsub.EventRankingsMove {
		t.Errorf("events = %v", types)
	}

	t.Run("Boundary", func(t *testing.T) {
		moved, err := s.Move("p7", ranking.Filter{Position: "RB"}, ranking.Up)
		if err != nil || moved {
			t.Fatalf("boundary Move = %v, %v", moved, err)
		}
	})

	t.Run("NotInView", func(t *testing.T) {
		_, err := s.Move("p2", ranking.Filter{Position: "RB"}, ranking.Down)
		if !errors.Is(err, ranking.ErrUnknownPlayer) {
			t.Fatalf("err=%v want ErrUnknownPlayer", err)
		}
	})

	t.Run("BadFilter", func(t *testing.T) {
		_, err := s.Move("p1", ranking.Filter{Position: "FLEX"}, ranking.Down)
		if !errors.Is(err, ranking.ErrUnknownPosition) {
			t.Fatalf("err=%v want ErrUnknownPosition", err)
		}
	})
}

func TestToggleMarksAreExclusive(t *testing.T) {
	s, _ := newTestSession(t, nil)

	if p, _ := s.ToggleStar("p1"); !p.Starred || p.ThumbsDown {
		t.Fatalf("after star: %+v", p)
	}
	if p, _ := s.ToggleThumbsDown("p1"); p.Starred || !p.ThumbsDown {
		t.Fatalf("after thumbs down: %+v", p)
	}
	if p, _ := s.ToggleStar("p1"); !p.Starred || p.ThumbsDown {
		t.Fatalf("after star again: %+v", p)
	}
	if p, _ := s.ToggleStar("p1"); p.Starred || p.ThumbsDown {
		t.Fatalf("after unstar: %+v", p)
	}
	if _, err := s.ToggleStar("nobody"); !errors.Is(err, ranking.ErrUnknownPlayer) {
		t.Fatalf("err=%v", err)
	}
}

func TestNotesPersistOnlyNonEmpty(t *testing.T) {
	store := dal.NewMemoryDAL()
	s, _ := newTestSession(t, store)

	_, _ = s.SetNotes("p1", "handcuff")
	_, _ = s.SetNotes("p2", "x")
	_, _ = s.SetNotes("p2", "")

	var notes map[string]string
	_, _ = dal.LoadJSON(store, dal.KeyNotes, &notes)
	if len(notes) != 1 || notes["p1"] != "handcuff" {
		t.Errorf("persisted notes = %v", notes)
	}
}

func TestDraftStatusAndPickTiming(t *testing.T) {
	s, bus := newTestSession(t, nil)

	if n, _ := s.PicksUntilNext(); n != 0 {
		t.Fatalf("PicksUntilNext before any pick = %d want 0", n)
	}

	if p, _ := s.MarkDraftedByYou("p1"); !p.DraftedByYou {
		t.Fatal("p1 not drafted by you")
	}
	if n, _ := s.PicksUntilNext(); n != 22 {
		t.Errorf("PicksUntilNext after one pick = %d want 22", n)
	}
	if pick, _ := s.CurrentPick(); pick.Overall != 2 || pick.Spot != 2 {
		t.Errorf("CurrentPick = %+v", pick)
	}

	p, _ := s.MarkDraftedByOthers("p1")
	if p.DraftedByYou || !p.DraftedByOthers {
		t.Errorf("statuses not exclusive: %+v", p)
	}
	if len(s.Roster()) != 0 {
		t.Error("roster should be empty once p1 moved to others")
	}

	_, _ = s.MarkDraftedByYou("p2")
	if counts := s.PositionCounts(); counts[models.PositionWR] != 1 || counts[models.PositionQB] != 0 {
		t.Errorf("counts = %v", counts)
	}
	if slots := s.Slots(); slots.OpenSlots("WR") != 1 {
		t.Errorf("open WR slots = %d want 1", slots.OpenSlots("WR"))
	}

	if p, _ := s.ClearDraftStatus("p1"); p.Drafted() {
		t.Errorf("p1 still drafted: %+v", p)
	}
	if n := len(bus.Published()); n != 4 {
		t.Errorf("published %d events want 4", n)
	}
}

func TestProjected(t *testing.T) {
	s, _ := newTestSession(t, nil)
	s.UpdateSettings(models.DraftSettings{TotalTeams: 12, YourDraftSpot: 5})

	projected, err := s.Projected()
	if err != nil {
		t.Fatalf("Projected: %v", err)
	}
	if len(projected) != 6 || projected[0].PlayerID != "p4" {
		t.Errorf("projected = %v", projected)
	}
}

func TestUpdateSettingsNormalizes(t *testing.T) {
	store := dal.NewMemoryDAL()
	s, _ := newTestSession(t, store)

	got := s.UpdateSettings(models.DraftSettings{TotalTeams: 0, YourDraftSpot: 20, BenchCount: -3})
	if got.TotalTeams != 12 || got.YourDraftSpot != 12 || got.BenchCount != 0 {
		t.Errorf("settings = %+v", got)
	}
	var saved models.DraftSettings
	if ok, _ := dal.LoadJSON(store, dal.KeySettings, &saved); !ok || saved != got {
		t.Errorf("persisted = %+v", saved)
	}
}

func TestReset(t *testing.T) {
	store := dal.NewMemoryDAL()
	defaults := models.DefaultDraftSettings()
	defaults.TotalTeams = 10
	s, _ := newTestSession(t, store, WithDefaultSettings(defaults))

	_, _ = s.Move("p2", ranking.Filter{}, ranking.Up)
	_, _ = s.ToggleStar("p3")
	_, _ = s.MarkDraftedByYou("p4")
	s.UpdateSettings(models.DraftSettings{TotalTeams: 8, YourDraftSpot: 3})
	gen := s.BeginAdvice()

	if err := s.Reset(); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	if p2, _ := s.Player("p2"); p2.CustomRank != 2 {
		t.Errorf("p2 rank = %d", p2.CustomRank)
	}
	if p3, _ := s.Player("p3"); p3.Starred {
		t.Error("star survived reset")
	}
	if s.Settings() != defaults {
		t.Errorf("settings = %+v", s.Settings())
	}
	for _, key := range dal.Keys {
		if data, _ := store.Load(key); data != nil {
			t.Errorf("%s still persisted", key)
		}
	}
	if _, err := s.SetAISuggestion(gen, "p1", "late"); !errors.Is(err, ErrStaleAdvice) {
		t.Errorf("advice begun before reset should be stale, got %v", err)
	}
}

func TestImport(t *testing.T) {
	store := dal.NewMemoryDAL()
	s, bus := newTestSession(t, store)
	_, _ = s.MarkDraftedByOthers("p2")

	data := `{"players":[
		{"playerID":"p2","longName":"Player 2","position":"WR","customRank":1,"starred":true},
		{"playerID":"p1","longName":"Player 1","position":"RB","customRank":2,"notes":"workhorse"}
	]}`
	stats, err := s.Import([]byte(data), "application/json")
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if stats != (rankfile.Stats{Total: 30, Updated: 2, Matched: 2}) {
		t.Errorf("stats = %+v", stats)
	}
	p2, _ := s.Player("p2")
	if p2.CustomRank != 1 || !p2.Starred || !p2.DraftedByOthers {
		t.Errorf("p2 = %+v", p2)
	}
	if !ranking.IsPermutation(s.Players()) {
		t.Error("ranks not a permutation after import")
	}
	types := eventTypes(bus)
	if types[len(types)-1] != pubsub.EventBoardImport {
		t.Errorf("events = %v", types)
	}

	t.Run("RejectedLeavesBoardUnchanged", func(t *testing.T) {
		before := s.Players()
		raw, _ := json.Marshal(map[string]any{"players": []map[string]any{{"longName": "x", "position": "WR"}}})
		if _, err := s.Import(raw, ""); !errors.Is(err, rankfile.ErrMissingFields) {
			t.Fatalf("err=%v want ErrMissingFields", err)
		}
		after := s.Players()
		for i := range before {
			if before[i] != after[i] {
				t.Fatalf("player %s changed on rejected import", before[i].PlayerID)
			}
		}
	})
}

func TestExportUsesClock(t *testing.T) {
	clock := clockwork.NewFakeClockAt(time.Date(2025, 9, 4, 20, 0, 0, 0, time.UTC))
	s, _ := newTestSession(t, nil, WithClock(clock))

	f, name := s.Export()
	if name != "draftboard-rankings-2025-09-04.json" || !f.ExportDate.Equal(clock.Now()) {
		t.Errorf("export %s at %v", name, f.ExportDate)
	}
	if len(f.Players) != 30 || f.Players[0].PlayerID != "p1" {
		t.Errorf("export players = %d", len(f.Players))
	}
}

func TestUpdateADP(t *testing.T) {
	s, bus := newTestSession(t, nil)

	n := s.UpdateADP(map[string]float64{"p1": 3.5, "p2": 2, "ghost": 1, "p3": -1})
	if n != 1 {
		t.Errorf("changed = %d want 1", n)
	}
	if p1, _ := s.Player("p1"); p1.ADPRank != 3.5 {
		t.Errorf("p1 adp = %v", p1.ADPRank)
	}
	if s.UpdateADP(map[string]float64{"p1": 3.5}) != 0 {
		t.Error("unchanged ADP reported as changed")
	}
	if types := eventTypes(bus); len(types) != 1 || types[0] != pubsub.EventADPUpdate {
		t.Errorf("events = %v", types)
	}
}

func TestRecommend(t *testing.T) {
	s, _ := newTestSession(t, nil)
	res, err := s.Recommend()
	if err != nil {
		t.Fatalf("Recommend: %v", err)
	}
	if res.Chosen == nil || res.PicksUntilNext != 0 {
		t.Errorf("result = %+v", res)
	}
}

func TestAdvice(t *testing.T) {
	t.Run("MatchesCandidate", func(t *testing.T) {
		s, _ := newTestSession(t, nil)
		gen := s.BeginAdvice()
		p, matched, err := s.ApplyAdvice(gen, "p1", "player 3", "Player 3: strong floor")
		if err != nil {
			t.Fatalf("ApplyAdvice: %v", err)
		}
		if !matched || p.PlayerID != "p3" || p.AISuggestions != "Player 3: strong floor" {
			t.Errorf("applied to %+v", p)
		}
		if p1, _ := s.Player("p1"); p1.AISuggestions != "" {
			t.Error("viewed player should be untouched")
		}
	})

	t.Run("FallsBackToViewed", func(t *testing.T) {
		s, _ := newTestSession(t, nil)
		gen := s.BeginAdvice()
		// p25 is outside the top 20 candidates
		p, matched, err := s.ApplyAdvice(gen, "p1", "Player 25", "reach")
		if err != nil || matched || p.PlayerID != "p1" {
			t.Fatalf("applied to %s matched=%v (%v)", p.PlayerID, matched, err)
		}
	})

	t.Run("StaleGenerationWritesNothing", func(t *testing.T) {
		s, _ := newTestSession(t, nil)
		old := s.BeginAdvice()
		current := s.BeginAdvice()

		if _, _, err := s.ApplyAdvice(current, "p1", "Player 1", "new"); err != nil {
			t.Fatal(err)
		}
		if _, _, err := s.ApplyAdvice(old, "p1", "Player 1", "old"); !errors.Is(err, ErrStaleAdvice) {
			t.Fatalf("err=%v want ErrStaleAdvice", err)
		}
		if p1, _ := s.Player("p1"); p1.AISuggestions != "new" {
			t.Errorf("suggestion = %q", p1.AISuggestions)
		}
	})

	t.Run("NotPersisted", func(t *testing.T) {
		store := dal.NewMemoryDAL()
		s, _ := newTestSession(t, store)
		_, _ = s.SetAISuggestion(s.BeginAdvice(), "p1", "raw text")
		_, _ = s.ToggleStar("p1")

		again, _ := newTestSession(t, store)
		if p1, _ := again.Player("p1"); p1.AISuggestions != "" || !p1.Starred {
			t.Errorf("reloaded p1 = %+v", p1)
		}
	})
}

func TestConcurrentMovesKeepPermutation(t *testing.T) {
	s, _ := newTestSession(t, nil)

	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				id := fmt.Sprintf("p%d", (w*7+i)%30+1)
				dir := ranking.Up
				if i%2 == 1 {
					dir = ranking.Down
				}
				_, _ = s.Move(id, ranking.Filter{}, dir)
			}
		}(w)
	}
	wg.Wait()

	if !ranking.IsPermutation(s.Players()) {
		t.Fatal("concurrent moves broke the permutation")
	}
}
