package recommend

import (
	"github.com/Billy-Davies-2/draftboard/internal/draft"
	"github.com/Billy-Davies-2/draftboard/internal/models"
)

// rosterContext is what the scorer needs to know about the user's roster
type rosterContext struct {
	settings  models.DraftSettings
	counts    map[models.Position]int
	starters  []models.Player
	open      map[string]int
	skillNeed bool
}

func newRosterContext(roster []models.Player, settings models.DraftSettings) rosterContext {
	alloc := draft.AllocateSlots(roster, settings)

	open := make(map[string]int)
	for _, s := range alloc.Slots {
		if s.Starter() && !s.Filled() {
			open[s.Label]++
		}
	}

	return rosterContext{
		settings:  settings,
		counts:    draft.PositionCounts(roster),
		starters:  alloc.Starters(),
		open:      open,
		skillNeed: open[draft.SlotRB] > 0 || open[draft.SlotWR] > 0,
	}
}

func (c rosterContext) filled(pos models.Position) bool {
	return c.counts[pos] >= c.settings.Required(pos)
}

// backupEligible reports whether a QB or TE candidate would be a backup
func (c rosterContext) backupEligible(pos models.Position) bool {
	return (pos == models.PositionQB || pos == models.PositionTE) && c.filled(pos)
}

// capped reports whether the hard K/DST limit excludes the position
func (c rosterContext) capped(pos models.Position) bool {
	return (pos == models.PositionK || pos == models.PositionDST) && c.filled(pos)
}

// stacksWith reports whether p pairs with a starting QB, WR or TE from the same team
func (c rosterContext) stacksWith(p models.Player) bool {
	if p.Team == "" {
		return false
	}
	for _, s := range c.starters {
		if s.Team != p.Team {
			continue
		}
		switch p.Position {
		case models.PositionQB:
			if s.Position == models.PositionWR || s.Position == models.PositionTE {
				return true
			}
		case models.PositionWR, models.PositionTE:
			if s.Position == models.PositionQB {
				return true
			}
		}
	}
	return false
}

// needPriority ranks how much a position fills an open starting slot.
// RB and WR come first.
func (c rosterContext) needPriority(pos models.Position) int {
	switch pos {
	case models.PositionRB, models.PositionWR:
		if c.open[string(pos)] > 0 {
			return 2
		}
		if c.open[draft.SlotFlex] > 0 {
			return 1
		}
	case models.PositionTE:
		if c.open[draft.SlotTE] > 0 || c.open[draft.SlotFlex] > 0 {
			return 1
		}
	default:
		if c.open[string(pos)] > 0 {
			return 1
		}
	}
	return 0
}
