package advisor

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/Billy-Davies-2/draftboard/internal/models"
	"github.com/Billy-Davies-2/draftboard/internal/recommend"
)

// PromptContext is everything the completion model sees
type PromptContext struct {
	Candidates     []models.Player
	Roster         []models.Player
	Settings       models.DraftSettings
	Selected       *models.Player
	PicksUntilNext int
	// EnginePick is the scorer's own choice, offered as a hint
	EnginePick *recommend.Result
}

type promptPlayer struct {
	LongName   string          `json:"longName"`
	Position   models.Position `json:"position"`
	Team       string          `json:"team"`
	ADPRank    float64         `json:"adpRank"`
	CustomRank int             `json:"customRank"`
	PosRank    int             `json:"posRank"`
	Notes      string          `json:"notes,omitempty"`
	Starred    bool            `json:"starred"`
	ThumbsDown bool            `json:"thumbsDown"`
}

func toPromptPlayers(players []models.Player) []promptPlayer {
	out := make([]promptPlayer, len(players))
	for i, p := range players {
		out[i] = promptPlayer{
			LongName:   p.LongName,
			Position:   p.Position,
			Team:       p.Team,
			ADPRank:    p.ADPRank,
			CustomRank: p.CustomRank,
			PosRank:    p.PosRank,
			Notes:      p.Notes,
			Starred:    p.Starred,
			ThumbsDown: p.ThumbsDown,
		}
	}
	return out
}

const promptHeader = `You are an elite fantasy-football draft assistant.
Recommend exactly one player from availablePlayers that maximizes the user's chances to win their league.

Inputs:
- availablePlayers: the top %d players still on the board (longName, position, team, adpRank, customRank, posRank, notes, starred, thumbsDown)
- draftedPlayers: players already on the user's roster
- draftSettings: roster requirements (qbCount, rbCount, wrCount, teCount, flexCount, kCount, dstCount, benchCount), totalTeams and yourDraftSpot
- selectedPlayer: the player the user is looking at
- picksUntilNext: picks before the user drafts again in snake order

Priorities:
1. Base the pick on the data given, not on personal rankings of your own.
2. Backup QB or TE only for exceptional value, well past ADP.
3. Favor stacks: a top WR or TE from the user's starting QB's team, or the QB of the user's WR or TE.
4. Weigh adpRank and customRank together and look for value the user also rates highly.
5. Respect notes and marks: starred players are the user's guys, thumbs down means only at a discount.
6. The longer until picksUntilNext, the more reasonable it is to reach for a player.
7. Never draft a kicker or defense once those slots are filled.

Respond with a JSON object and nothing else: {"longName": "<player name>", "overview": "<two sentence overview of why to pick this player>"}
`

// BuildPrompt renders the completion prompt
func BuildPrompt(pc PromptContext) (string, error) {
	candidates := pc.Candidates
	if len(candidates) > recommend.CandidateLimit {
		candidates = candidates[:recommend.CandidateLimit]
	}

	var b strings.Builder
	fmt.Fprintf(&b, promptHeader, recommend.CandidateLimit)
	b.WriteString("\nData:\n")

	sections := []struct {
		name string
		v    any
	}{
		{"availablePlayers", toPromptPlayers(candidates)},
		{"draftedPlayers", toPromptPlayers(pc.Roster)},
		{"draftSettings", pc.Settings},
	}
	if pc.Selected != nil {
		sections = append(sections, struct {
			name string
			v    any
		}{"selectedPlayer", toPromptPlayers([]models.Player{*pc.Selected})[0]})
	}
	for _, s := range sections {
		data, err := json.Marshal(s.v)
		if err != nil {
			return "", fmt.Errorf("encode %s: %w", s.name, err)
		}
		fmt.Fprintf(&b, "%s: %s\n", s.name, data)
	}
	fmt.Fprintf(&b, "picksUntilNext: %d\n", pc.PicksUntilNext)

	if pc.EnginePick != nil && pc.EnginePick.Chosen != nil {
		fmt.Fprintf(&b, "modelPick: %s (%s) - %s\n", pc.EnginePick.Chosen.LongName, pc.EnginePick.Chosen.Position, pc.EnginePick.Reason)
	}
	return b.String(), nil
}
