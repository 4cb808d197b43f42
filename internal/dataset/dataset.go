// Package dataset loads the base player board and converts raw ADP feeds
// into board players.
package dataset

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/Billy-Davies-2/draftboard/internal/models"
	"github.com/Billy-Davies-2/draftboard/internal/ranking"
)

//go:embed adp_enriched.json
var embedded []byte

const (
	teamLogoURL    = "https://a.espncdn.com/i/teamlogos/nfl/500/%s.png"
	headshotURL    = "https://a.espncdn.com/i/headshots/nfl/players/full/%s.png"
	placeholderURL = "https://a.espncdn.com/i/headshots/nophoto.png"
	freeAgent      = "FA"
)

var (
	ErrEmpty      = errors.New("dataset contains no players")
	ErrDuplicate  = errors.New("duplicate player id")
	posPrefix     = regexp.MustCompile(`^([A-Z]+)`)
	numericID     = regexp.MustCompile(`^[0-9]+$`)
	teamNameToAbb = map[string]string{
		"Arizona Cardinals": "ARI", "Atlanta Falcons": "ATL", "Baltimore Ravens": "BAL", "Buffalo Bills": "BUF",
		"Carolina Panthers": "CAR", "Chicago Bears": "CHI", "Cincinnati Bengals": "CIN", "Cleveland Browns": "CLE",
		"Dallas Cowboys": "DAL", "Denver Broncos": "DEN", "Detroit Lions": "DET", "Green Bay Packers": "GB",
		"Houston Texans": "HOU", "Indianapolis Colts": "IND", "Jacksonville Jaguars": "JAX", "Kansas City Chiefs": "KC",
		"Las Vegas Raiders": "LV", "Los Angeles Chargers": "LAC", "Los Angeles Rams": "LAR", "Miami Dolphins": "MIA",
		"Minnesota Vikings": "MIN", "New England Patriots": "NE", "New Orleans Saints": "NO", "New York Giants": "NYG",
		"New York Jets": "NYJ", "Philadelphia Eagles": "PHI", "Pittsburgh Steelers": "PIT", "San Francisco 49ers": "SF",
		"Seattle Seahawks": "SEA", "Tampa Bay Buccaneers": "TB", "Tennessee Titans": "TEN", "Washington Commanders": "WAS",
	}
)

// RawEntry is one row of an upstream ADP list before enrichment
type RawEntry struct {
	PlayerID   string    `json:"playerID"`
	LongName   string    `json:"longName"`
	PosADP     string    `json:"posADP"`
	OverallADP flexFloat `json:"overallADP"`
	TeamID     string    `json:"teamID"`
	Team       string    `json:"team"`
}

// rawFeed is the upstream response envelope
type rawFeed struct {
	Body struct {
		ADPList []RawEntry `json:"adpList"`
	} `json:"body"`
}

// flexFloat accepts numbers and numeric strings
type flexFloat float64

func (f *flexFloat) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		*f = 0
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("overallADP %q: %w", s, err)
	}
	*f = flexFloat(v)
	return nil
}

// Embedded returns the bundled board players
func Embedded() ([]models.Player, error) {
	return Decode(embedded)
}

// Load reads a board from path, or the bundled board when path is empty
func Load(path string) ([]models.Player, error) {
	if path == "" {
		return Embedded()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read dataset %s: %w", path, err)
	}
	players, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("decode dataset %s: %w", path, err)
	}
	return players, nil
}

// Decode accepts either an enriched player array or a raw upstream feed
// ({"body":{"adpList":[...]}}) and returns board players with customRank
// following file order.
func Decode(data []byte) ([]models.Player, error) {
	trimmed := strings.TrimSpace(string(data))
	if strings.HasPrefix(trimmed, "{") {
		var feed rawFeed
		if err := json.Unmarshal(data, &feed); err != nil {
			return nil, err
		}
		players, _ := Enrich(feed.Body.ADPList)
		return prepare(players)
	}

	var players []models.Player
	if err := json.Unmarshal(data, &players); err != nil {
		return nil, err
	}
	kept := players[:0]
	for _, p := range players {
		pos, ok := models.ParsePosition(string(p.Position))
		if !ok {
			continue
		}
		p.Position = pos
		kept = append(kept, p)
	}
	return prepare(kept)
}

// prepare assigns initial ranks and clears session-only fields
func prepare(players []models.Player) ([]models.Player, error) {
	if len(players) == 0 {
		return nil, ErrEmpty
	}
	seen := make(map[string]bool, len(players))
	out := make([]models.Player, len(players))
	for i, p := range players {
		if seen[p.PlayerID] {
			return nil, fmt.Errorf("%w: %s", ErrDuplicate, p.PlayerID)
		}
		seen[p.PlayerID] = true

		out[i] = models.Player{
			PlayerID:   p.PlayerID,
			LongName:   p.LongName,
			Team:       p.Team,
			Position:   p.Position,
			PosADP:     p.PosADP,
			ADPRank:    p.ADPRank,
			CustomRank: i + 1,
			Headshot:   p.Headshot,
		}
		if out[i].ADPRank <= 0 {
			out[i].ADPRank = float64(i + 1)
		}
	}
	return ranking.DerivePositionRanks(out), nil
}

// Enrich converts raw feed rows into players. Rows without a recognisable
// position are skipped and their names returned.
func Enrich(raw []RawEntry) ([]models.Player, []string) {
	var players []models.Player
	var skipped []string

	for _, r := range raw {
		name := strings.TrimSpace(r.LongName)
		if name == "" {
			name = "Unknown"
		}
		id := strings.TrimSpace(r.PlayerID)

		pos, ok := PositionFromPosADP(r.PosADP)
		if !ok {
			skipped = append(skipped, name)
			continue
		}

		team := strings.TrimSpace(r.Team)
		if team == "" {
			team = freeAgent
		}
		if pos == models.PositionDST {
			if abbr, ok := TeamAbbreviation(strings.TrimSuffix(name, " DST")); ok {
				team = abbr
			}
			if r.TeamID != "" {
				id = "DST_" + r.TeamID
			}
		}
		if id == "" {
			skipped = append(skipped, name)
			continue
		}

		players = append(players, models.Player{
			PlayerID: id,
			LongName: name,
			Team:     team,
			Position: pos,
			PosADP:   r.PosADP,
			ADPRank:  float64(r.OverallADP),
			Headshot: Headshot(id, team, pos),
		})
	}
	return players, skipped
}

// PositionFromPosADP reads the position prefix of labels like "RB12"
func PositionFromPosADP(posADP string) (models.Position, bool) {
	m := posPrefix.FindStringSubmatch(strings.TrimSpace(posADP))
	if m == nil {
		return "", false
	}
	return models.ParsePosition(m[1])
}

// TeamAbbreviation maps a full team name to its abbreviation
func TeamAbbreviation(name string) (string, bool) {
	abbr, ok := teamNameToAbb[strings.TrimSpace(name)]
	return abbr, ok
}

// Headshot returns the image URL for a player: team logo for defenses,
// the player photo for numeric ids and a placeholder otherwise.
func Headshot(id, team string, pos models.Position) string {
	if pos == models.PositionDST && isTeam(team) {
		return fmt.Sprintf(teamLogoURL, team)
	}
	if numericID.MatchString(id) {
		return fmt.Sprintf(headshotURL, id)
	}
	return placeholderURL
}

func isTeam(abbr string) bool {
	for _, v := range teamNameToAbb {
		if v == abbr {
			return true
		}
	}
	return false
}

// ADPMap returns playerID to adpRank for every player
func ADPMap(players []models.Player) map[string]float64 {
	out := make(map[string]float64, len(players))
	for _, p := range players {
		out[p.PlayerID] = p.ADPRank
	}
	return out
}
