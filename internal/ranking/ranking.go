// Package ranking keeps a board's custom ranking and per-position ranking
// consistent. Every function here is pure: it returns a new slice and leaves
// the input untouched.
package ranking

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/Billy-Davies-2/draftboard/internal/models"
)

var (
	ErrIndexOutOfRange = errors.New("index out of range")
	ErrUnknownPlayer   = errors.New("player not found")
	ErrUnknownPosition = errors.New("unknown position filter")
	ErrBadDirection    = errors.New("direction must be up or down")
)

// Direction is the way a player moves on the board
type Direction int

const (
	// Up moves toward rank 1
	Up Direction = iota
	// Down moves toward higher rank numbers
	Down
)

func (d Direction) String() string {
	if d == Up {
		return "up"
	}
	return "down"
}

// ParseDirection accepts "up" or "down"
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "up":
		return Up, nil
	case "down":
		return Down, nil
	}
	return Up, fmt.Errorf("%w: %q", ErrBadDirection, s)
}

// DerivePositionRanks assigns posRank 1..M inside each position group in
// customRank order. Equal customRanks keep their slice order.
func DerivePositionRanks(players []models.Player) []models.Player {
	out := make([]models.Player, len(players))
	copy(out, players)

	groups := make(map[models.Position][]int)
	for i, p := range out {
		groups[p.Position] = append(groups[p.Position], i)
	}

	for _, idx := range groups {
		sort.SliceStable(idx, func(a, b int) bool {
			return out[idx[a]].CustomRank < out[idx[b]].CustomRank
		})
		for n, i := range idx {
			out[i].PosRank = n + 1
		}
	}

	return out
}

// Normalize renumbers customRank to 1..N keeping the existing relative order.
// Ranks below 1 sort after every valid rank; ties keep slice order.
func Normalize(players []models.Player) []models.Player {
	out := make([]models.Player, len(players))
	copy(out, players)

	order := make([]int, len(out))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		ra, rb := out[order[a]].CustomRank, out[order[b]].CustomRank
		if (ra < 1) != (rb < 1) {
			return ra >= 1
		}
		if ra < 1 {
			return false
		}
		return ra < rb
	})

	for n, i := range order {
		out[i].CustomRank = n + 1
	}
	return out
}

// IsPermutation reports whether customRank covers 1..N with no gaps or duplicates
func IsPermutation(players []models.Player) bool {
	seen := make([]bool, len(players)+1)
	for _, p := range players {
		if p.CustomRank < 1 || p.CustomRank > len(players) || seen[p.CustomRank] {
			return false
		}
		seen[p.CustomRank] = true
	}
	return true
}

// MoveAdjacent swaps the customRank of visible[index] with its neighbour in
// the visible ordering and re-derives position ranks over the full set.
// Moving past either end of the visible list is a no-op.
func MoveAdjacent(players, visible []models.Player, index int, dir Direction) ([]models.Player, bool, error) {
	if index < 0 || index >= len(visible) {
		return players, false, fmt.Errorf("%w: %d of %d", ErrIndexOutOfRange, index, len(visible))
	}

	target := index - 1
	if dir == Down {
		target = index + 1
	}
	if target < 0 || target >= len(visible) {
		return players, false, nil
	}

	a := IndexOf(players, visible[index].PlayerID)
	b := IndexOf(players, visible[target].PlayerID)
	if a < 0 || b < 0 {
		return players, false, ErrUnknownPlayer
	}

	out := make([]models.Player, len(players))
	copy(out, players)
	out[a].CustomRank, out[b].CustomRank = out[b].CustomRank, out[a].CustomRank

	return DerivePositionRanks(out), true, nil
}

// IndexOf returns the slice index of the player with id, or -1
func IndexOf(players []models.Player, id string) int {
	for i := range players {
		if players[i].PlayerID == id {
			return i
		}
	}
	return -1
}

// SortByCustomRank returns a copy ordered by customRank
func SortByCustomRank(players []models.Player) []models.Player {
	out := make([]models.Player, len(players))
	copy(out, players)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CustomRank < out[j].CustomRank
	})
	return out
}
