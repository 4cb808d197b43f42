package ranking

import (
	"errors"
	"fmt"
	"math/rand"
	"testing"

	"github.com/Billy-Davies-2/draftboard/internal/models"
)

func testBoard() []models.Player {
	positions := []models.Position{
		models.PositionRB, models.PositionWR, models.PositionQB, models.PositionRB,
		models.PositionWR, models.PositionTE, models.PositionRB, models.PositionK,
		models.PositionWR, models.PositionDST,
	}
	players := make([]models.Player, len(positions))
	for i, pos := range positions {
		players[i] = models.Player{
			PlayerID:   fmt.Sprintf("p%d", i+1),
			LongName:   fmt.Sprintf("Player %d", i+1),
			Team:       "KC",
			Position:   pos,
			ADPRank:    float64(i + 1),
			CustomRank: i + 1,
		}
	}
	return DerivePositionRanks(players)
}

func assertPosRanksConsistent(t *testing.T, players []models.Player) {
	t.Helper()
	byPos := make(map[models.Position][]models.Player)
	for _, p := range SortByCustomRank(players) {
		byPos[p.Position] = append(byPos[p.Position], p)
	}
	for pos, group := range byPos {
		for i, p := range group {
			if p.PosRank != i+1 {
				t.Fatalf("%s %s has posRank %d, want %d", pos, p.PlayerID, p.PosRank, i+1)
			}
		}
	}
}

func TestDerivePositionRanks(t *testing.T) {
	players := testBoard()
	assertPosRanksConsistent(t, players)

	if players[0].PosRank != 1 || players[3].PosRank != 2 || players[6].PosRank != 3 {
		t.Errorf("RB posRanks = %d,%d,%d want 1,2,3", players[0].PosRank, players[3].PosRank, players[6].PosRank)
	}

	again := DerivePositionRanks(players)
	for i := range players {
		if again[i] != players[i] {
			t.Fatalf("DerivePositionRanks is not idempotent at %d", i)
		}
	}
}

func TestDerivePositionRanksDoesNotMutateInput(t *testing.T) {
	players := []models.Player{
		{PlayerID: "a", Position: models.PositionQB, CustomRank: 2},
		{PlayerID: "b", Position: models.PositionQB, CustomRank: 1},
	}
	out := DerivePositionRanks(players)
	if players[0].PosRank != 0 || players[1].PosRank != 0 {
		t.Error("input slice was modified")
	}
	if out[0].PosRank != 2 || out[1].PosRank != 1 {
		t.Errorf("posRanks = %d,%d want 2,1", out[0].PosRank, out[1].PosRank)
	}
}

func TestNormalize(t *testing.T) {
	players := []models.Player{
		{PlayerID: "a", CustomRank: 7},
		{PlayerID: "b", CustomRank: 0},
		{PlayerID: "c", CustomRank: 3},
		{PlayerID: "d", CustomRank: 3},
		{PlayerID: "e", CustomRank: -1},
	}
	out := Normalize(players)
	want := map[string]int{"c": 1, "d": 2, "a": 3, "b": 4, "e": 5}
	for _, p := range out {
		if p.CustomRank != want[p.PlayerID] {
			t.Errorf("%s customRank=%d want %d", p.PlayerID, p.CustomRank, want[p.PlayerID])
		}
	}
	if !IsPermutation(out) {
		t.Error("Normalize did not produce a permutation")
	}
}

func TestNormalizeInvalidRanksKeepSliceOrder(t *testing.T) {
	players := []models.Player{
		{PlayerID: "a", CustomRank: -5},
		{PlayerID: "b", CustomRank: 2},
		{PlayerID: "c", CustomRank: 0},
		{PlayerID: "d", CustomRank: -2},
		{PlayerID: "e", CustomRank: 0},
	}
	out := Normalize(players)
	want := map[string]int{"b": 1, "a": 2, "c": 3, "d": 4, "e": 5}
	for _, p := range out {
		if p.CustomRank != want[p.PlayerID] {
			t.Errorf("%s customRank=%d want %d", p.PlayerID, p.CustomRank, want[p.PlayerID])
		}
	}
}

func TestMoveAdjacent(t *testing.T) {
	players := testBoard()

	t.Run("UpSwapsWithNeighbour", func(t *testing.T) {
		visible := SortByCustomRank(players)
		out, moved, err := MoveAdjacent(players, visible, 3, Up)
		if err != nil || !moved {
			t.Fatalf("MoveAdjacent: moved=%v err=%v", moved, err)
		}
		if out[3].CustomRank != 3 || out[2].CustomRank != 4 {
			t.Errorf("ranks after move: p4=%d p3=%d", out[3].CustomRank, out[2].CustomRank)
		}
		assertPosRanksConsistent(t, out)
	})

	t.Run("FilteredViewSwapsWithinPosition", func(t *testing.T) {
		visible := Filter{Position: "RB"}.Apply(players)
		out, moved, err := MoveAdjacent(players, visible, 2, Up)
		if err != nil || !moved {
			t.Fatalf("MoveAdjacent: moved=%v err=%v", moved, err)
		}
		// p7 (rank 7) swaps with p4 (rank 4)
		if out[6].CustomRank != 4 || out[3].CustomRank != 7 {
			t.Errorf("ranks after move: p7=%d p4=%d", out[6].CustomRank, out[3].CustomRank)
		}
		if out[6].PosRank != 2 || out[3].PosRank != 3 {
			t.Errorf("posRanks after move: p7=%d p4=%d", out[6].PosRank, out[3].PosRank)
		}
	})

	t.Run("BoundaryIsNoOp", func(t *testing.T) {
		visible := SortByCustomRank(players)
		for _, tc := range []struct {
			index int
			dir   Direction
		}{{0, Up}, {len(visible) - 1, Down}} {
			out, moved, err := MoveAdjacent(players, visible, tc.index, tc.dir)
			if err != nil || moved {
				t.Fatalf("index %d %s: moved=%v err=%v", tc.index, tc.dir, moved, err)
			}
			for i := range out {
				if out[i] != players[i] {
					t.Fatalf("boundary move changed player %d", i)
				}
			}
		}
	})

	t.Run("OutOfRange", func(t *testing.T) {
		_, _, err := MoveAdjacent(players, SortByCustomRank(players), 99, Up)
		if !errors.Is(err, ErrIndexOutOfRange) {
			t.Fatalf("err=%v want ErrIndexOutOfRange", err)
		}
	})

	t.Run("UnknownVisiblePlayer", func(t *testing.T) {
		visible := []models.Player{{PlayerID: "ghost"}, players[0]}
		_, _, err := MoveAdjacent(players, visible, 1, Up)
		if !errors.Is(err, ErrUnknownPlayer) {
			t.Fatalf("err=%v want ErrUnknownPlayer", err)
		}
	})

	t.Run("UpThenDownRestores", func(t *testing.T) {
		visible := SortByCustomRank(players)
		once, _, _ := MoveAdjacent(players, visible, 5, Up)
		back, _, _ := MoveAdjacent(once, SortByCustomRank(once), 4, Down)
		for i := range players {
			if back[i] != players[i] {
				t.Fatalf("player %d differs after up+down: %+v vs %+v", i, back[i], players[i])
			}
		}
	})
}

func TestMoveSequenceKeepsPermutation(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	players := testBoard()
	filters := []Filter{{}, {Position: "RB"}, {Position: "WR"}, {Position: "ALL"}}

	for i := 0; i < 500; i++ {
		f := filters[rng.Intn(len(filters))]
		visible := f.Apply(players)
		dir := Up
		if rng.Intn(2) == 1 {
			dir = Down
		}
		out, _, err := MoveAdjacent(players, visible, rng.Intn(len(visible)), dir)
		if err != nil {
			t.Fatalf("move %d: %v", i, err)
		}
		players = out
		if !IsPermutation(players) {
			t.Fatalf("move %d broke the customRank permutation", i)
		}
		assertPosRanksConsistent(t, players)
	}
}

func TestParseDirection(t *testing.T) {
	if d, err := ParseDirection("UP"); err != nil || d != Up {
		t.Errorf("ParseDirection(UP)=%v,%v", d, err)
	}
	if d, err := ParseDirection("down"); err != nil || d != Down {
		t.Errorf("ParseDirection(down)=%v,%v", d, err)
	}
	if _, err := ParseDirection("left"); !errors.Is(err, ErrBadDirection) {
		t.Errorf("ParseDirection(left) err=%v", err)
	}
}

func TestFilter(t *testing.T) {
	players := testBoard()
	players[0].LongName = "Bijan Robinson"
	players[0].Team = "ATL"
	players[1].DraftedByOthers = true

	if got := (Filter{Search: "bijan"}).Apply(players); len(got) != 1 || got[0].PlayerID != "p1" {
		t.Errorf("name search returned %v", got)
	}
	if got := (Filter{Search: "atl"}).Apply(players); len(got) != 1 {
		t.Errorf("team search returned %d players", len(got))
	}
	if got := (Filter{Position: "wr", AvailableOnly: true}).Apply(players); len(got) != 2 {
		t.Errorf("available WR returned %d players, want 2", len(got))
	}
	if err := (Filter{Position: "FLEX"}).Validate(); !errors.Is(err, ErrUnknownPosition) {
		t.Errorf("Validate(FLEX)=%v", err)
	}
	if err := (Filter{Position: "all"}).Validate(); err != nil {
		t.Errorf("Validate(all)=%v", err)
	}
	if n := DraftedCount(players); n != 1 {
		t.Errorf("DraftedCount=%d want 1", n)
	}
}

func TestFindByName(t *testing.T) {
	players := testBoard()
	players[3].LongName = "Jahmyr Gibbs"

	if i := FindByName(players, "  jahmyr GIBBS "); i != 3 {
		t.Errorf("FindByName=%d want 3", i)
	}
	if i := FindByName(players, "Jahmyr"); i != -1 {
		t.Errorf("partial name matched index %d", i)
	}
	if i := FindByName(players, ""); i != -1 {
		t.Errorf("empty name matched index %d", i)
	}
}
