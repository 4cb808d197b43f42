// Package draft holds snake-draft order arithmetic and roster slot allocation.
package draft

import (
	"errors"
	"fmt"

	"github.com/Billy-Davies-2/draftboard/internal/models"
)

var (
	ErrInvalidTeamCount = errors.New("total teams must be at least 1")
	ErrInvalidDraftSpot = errors.New("draft spot must be between 1 and total teams")
)

// ProjectedCount is how many players the projection shows around the user's next turn
const ProjectedCount = 6

// Pick represents the pick currently on the clock
type Pick struct {
	Overall int `json:"overall"`
	Round   int `json:"round"`
	InRound int `json:"inRound"`
	Spot    int `json:"spot"`
}

func validate(totalTeams, spot int) error {
	if totalTeams <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidTeamCount, totalTeams)
	}
	if spot < 1 || spot > totalTeams {
		return fmt.Errorf("%w: %d of %d", ErrInvalidDraftSpot, spot, totalTeams)
	}
	return nil
}

// userPickInRound returns the user's pick number within a 1-based round.
// Odd rounds run 1..N, even rounds run N..1.
func userPickInRound(totalTeams, spot, round int) int {
	if round%2 == 1 {
		return spot
	}
	return totalTeams - spot + 1
}

// CurrentPick returns the pick on the clock after made picks, with the
// draft spot that owns it under snake order.
func CurrentPick(totalTeams, made int) (Pick, error) {
	if totalTeams <= 0 {
		return Pick{}, fmt.Errorf("%w: %d", ErrInvalidTeamCount, totalTeams)
	}
	if made < 0 {
		made = 0
	}

	round := made / totalTeams
	inRound := made % totalTeams

	spot := inRound + 1
	if round%2 == 1 {
		// Odd 0-based rounds go backward
		spot = totalTeams - inRound
	}

	return Pick{
		Overall: made + 1,
		Round:   round + 1,
		InRound: inRound + 1,
		Spot:    spot,
	}, nil
}

// PicksUntilNext returns how many picks happen before the user is on the
// clock. Zero means the user is picking now.
func PicksUntilNext(totalTeams, spot, made int) (int, error) {
	if err := validate(totalTeams, spot); err != nil {
		return 0, err
	}
	if made < 0 {
		made = 0
	}

	round := made/totalTeams + 1
	pick := made%totalTeams + 1

	userPick := userPickInRound(totalTeams, spot, round)
	if pick <= userPick {
		return userPick - pick, nil
	}
	return (totalTeams - pick) + userPickInRound(totalTeams, spot, round+1), nil
}

// ProjectedAvailable returns up to n players expected to still be on the
// board around the user's next turn, assuming picks follow the order given.
func ProjectedAvailable(available []models.Player, picksUntil, n int) []models.Player {
	if picksUntil <= 0 || n <= 0 || len(available) == 0 {
		return nil
	}
	start := picksUntil
	if start > len(available) {
		start = len(available)
	}
	rest := available[start-1:]
	if len(rest) > n {
		rest = rest[:n]
	}
	out := make([]models.Player, len(rest))
	copy(out, rest)
	return out
}

// PositionCounts counts roster players by position
func PositionCounts(roster []models.Player) map[models.Position]int {
	counts := make(map[models.Position]int, len(models.Positions))
	for _, pos := range models.Positions {
		counts[pos] = 0
	}
	for _, p := range roster {
		counts[p.Position]++
	}
	return counts
}
