package ranking

import (
	"strings"

	"github.com/Billy-Davies-2/draftboard/internal/models"
)

// AllPositions is the filter value that shows every position
const AllPositions = "ALL"

// Filter describes a board view
type Filter struct {
	Position      string `json:"position"`
	Search        string `json:"search"`
	AvailableOnly bool   `json:"availableOnly"`
}

// Validate rejects position filters that name no position
func (f Filter) Validate() error {
	if f.allPositions() {
		return nil
	}
	if _, ok := models.ParsePosition(f.Position); !ok {
		return ErrUnknownPosition
	}
	return nil
}

func (f Filter) allPositions() bool {
	p := strings.TrimSpace(f.Position)
	return p == "" || strings.EqualFold(p, AllPositions)
}

// Apply returns the matching players ordered by customRank
func (f Filter) Apply(players []models.Player) []models.Player {
	pos, _ := models.ParsePosition(f.Position)
	all := f.allPositions()
	search := strings.ToLower(strings.TrimSpace(f.Search))

	var out []models.Player
	for _, p := range players {
		if f.AvailableOnly && p.Drafted() {
			continue
		}
		if !all && p.Position != pos {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(p.LongName), search) &&
			!strings.Contains(strings.ToLower(p.Team), search) {
			continue
		}
		out = append(out, p)
	}
	return SortByCustomRank(out)
}

// Available returns undrafted players ordered by customRank
func Available(players []models.Player) []models.Player {
	return Filter{AvailableOnly: true}.Apply(players)
}

// Roster returns the players drafted by the user ordered by customRank
func Roster(players []models.Player) []models.Player {
	var out []models.Player
	for _, p := range players {
		if p.DraftedByYou {
			out = append(out, p)
		}
	}
	return SortByCustomRank(out)
}

// DraftedCount is the number of picks made so far by anyone
func DraftedCount(players []models.Player) int {
	n := 0
	for _, p := range players {
		if p.Drafted() {
			n++
		}
	}
	return n
}

// FindByName returns the index of the first player whose longName equals
// name ignoring case and surrounding space, or -1
func FindByName(players []models.Player, name string) int {
	name = strings.TrimSpace(name)
	if name == "" {
		return -1
	}
	for i := range players {
		if strings.EqualFold(strings.TrimSpace(players[i].LongName), name) {
			return i
		}
	}
	return -1
}
