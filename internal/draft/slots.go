package draft

import (
	"sort"

	"github.com/Billy-Davies-2/draftboard/internal/models"
)

// Slot labels in lineup order
const (
	SlotQB    = "QB"
	SlotRB    = "RB"
	SlotWR    = "WR"
	SlotTE    = "TE"
	SlotFlex  = "FLEX"
	SlotK     = "K"
	SlotDST   = "DST"
	SlotBench = "BENCH"
)

// Slot represents one roster spot and the player assigned to it, if any
type Slot struct {
	Label  string         `json:"label"`
	Index  int            `json:"index"`
	Player *models.Player `json:"player,omitempty"`
}

// Starter reports whether the slot is part of the starting lineup
func (s Slot) Starter() bool {
	return s.Label != SlotBench
}

// Filled reports whether a player occupies the slot
func (s Slot) Filled() bool {
	return s.Player != nil
}

// Allocation is the result of placing a roster into lineup slots
type Allocation struct {
	Slots      []Slot          `json:"slots"`
	Unassigned []models.Player `json:"unassigned,omitempty"`
}

// Eligible reports whether a player at pos may fill a slot with label
func Eligible(label string, pos models.Position) bool {
	switch label {
	case SlotFlex:
		return pos == models.PositionRB || pos == models.PositionWR || pos == models.PositionTE
	case SlotBench:
		return true
	default:
		return string(pos) == label
	}
}

// Template expands settings into the ordered list of empty slots
func Template(settings models.DraftSettings) []Slot {
	counts := []struct {
		label string
		n     int
	}{
		{SlotQB, settings.QBCount},
		{SlotRB, settings.RBCount},
		{SlotWR, settings.WRCount},
		{SlotTE, settings.TECount},
		{SlotFlex, settings.FlexCount},
		{SlotK, settings.KCount},
		{SlotDST, settings.DSTCount},
		{SlotBench, settings.BenchCount},
	}

	var slots []Slot
	for _, c := range counts {
		for i := 0; i < c.n; i++ {
			slots = append(slots, Slot{Label: c.label, Index: i})
		}
	}
	return slots
}

// AllocateSlots assigns roster players to lineup slots. Players are taken in
// customRank order and each slot gets the first unassigned eligible player.
// The roster slice is never modified.
func AllocateSlots(roster []models.Player, settings models.DraftSettings) Allocation {
	ordered := make([]models.Player, len(roster))
	copy(ordered, roster)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].CustomRank < ordered[j].CustomRank
	})

	assigned := make([]bool, len(ordered))
	slots := Template(settings)
	for s := range slots {
		for i := range ordered {
			if assigned[i] || !Eligible(slots[s].Label, ordered[i].Position) {
				continue
			}
			p := ordered[i]
			slots[s].Player = &p
			assigned[i] = true
			break
		}
	}

	alloc := Allocation{Slots: slots}
	for i, p := range ordered {
		if !assigned[i] {
			alloc.Unassigned = append(alloc.Unassigned, p)
		}
	}
	return alloc
}

// Starters returns the players occupying starting slots
func (a Allocation) Starters() []models.Player {
	var out []models.Player
	for _, s := range a.Slots {
		if s.Starter() && s.Player != nil {
			out = append(out, *s.Player)
		}
	}
	return out
}

// OpenSlots counts unfilled slots with the given label
func (a Allocation) OpenSlots(label string) int {
	n := 0
	for _, s := range a.Slots {
		if s.Label == label && s.Player == nil {
			n++
		}
	}
	return n
}
