package models

import "strings"

// Position represents a fantasy roster position
type Position string

const (
	PositionQB  Position = "QB"
	PositionRB  Position = "RB"
	PositionWR  Position = "WR"
	PositionTE  Position = "TE"
	PositionK   Position = "K"
	PositionDST Position = "DST"
)

// Positions lists every draftable position in board order
var Positions = []Position{PositionQB, PositionRB, PositionWR, PositionTE, PositionK, PositionDST}

// ParsePosition returns the position for s (case-insensitive) and whether it is valid
func ParsePosition(s string) (Position, bool) {
	p := Position(strings.ToUpper(strings.TrimSpace(s)))
	for _, known := range Positions {
		if p == known {
			return p, true
		}
	}
	return "", false
}

// Player represents one entry on the draft board
type Player struct {
	PlayerID        string   `json:"playerID"`
	LongName        string   `json:"longName"`
	Team            string   `json:"team"`
	Position        Position `json:"position"`
	PosADP          string   `json:"posADP,omitempty"`
	ADPRank         float64  `json:"adpRank"`
	CustomRank      int      `json:"customRank"`
	PosRank         int      `json:"posRank"`
	Starred         bool     `json:"starred"`
	ThumbsDown      bool     `json:"thumbsDown"`
	Notes           string   `json:"notes"`
	DraftedByYou    bool     `json:"draftedByYou"`
	DraftedByOthers bool     `json:"draftedByOthers"`
	AISuggestions   string   `json:"aiSuggestions,omitempty"`
	Headshot        string   `json:"headshot,omitempty"`
}

// Drafted reports whether anyone has taken the player
func (p Player) Drafted() bool {
	return p.DraftedByYou || p.DraftedByOthers
}

// Mark is the persisted preference flag pair for a player
type Mark struct {
	Starred    bool `json:"starred"`
	ThumbsDown bool `json:"thumbsDown"`
}

// DraftStatus is the persisted draft flag pair for a player
type DraftStatus struct {
	DraftedByYou    bool `json:"draftedByYou"`
	DraftedByOthers bool `json:"draftedByOthers"`
}

// DraftSettings holds roster requirements and the user's place in the draft
type DraftSettings struct {
	QBCount       int `json:"qbCount" yaml:"qb_count"`
	RBCount       int `json:"rbCount" yaml:"rb_count"`
	WRCount       int `json:"wrCount" yaml:"wr_count"`
	TECount       int `json:"teCount" yaml:"te_count"`
	FlexCount     int `json:"flexCount" yaml:"flex_count"`
	KCount        int `json:"kCount" yaml:"k_count"`
	DSTCount      int `json:"dstCount" yaml:"dst_count"`
	BenchCount    int `json:"benchCount" yaml:"bench_count"`
	TotalTeams    int `json:"totalTeams" yaml:"total_teams"`
	YourDraftSpot int `json:"yourDraftSpot" yaml:"your_draft_spot"`
}

const defaultTotalTeams = 12

// DefaultDraftSettings returns a standard 12-team one-QB lineup
func DefaultDraftSettings() DraftSettings {
	return DraftSettings{
		QBCount:       1,
		RBCount:       2,
		WRCount:       2,
		TECount:       1,
		FlexCount:     1,
		KCount:        1,
		DSTCount:      1,
		BenchCount:    6,
		TotalTeams:    defaultTotalTeams,
		YourDraftSpot: 1,
	}
}

// Normalize clamps settings into a usable range instead of rejecting them.
// Negative counts become zero, a missing team count falls back to the default
// and the draft spot is clamped into [1, TotalTeams].
func (s DraftSettings) Normalize() DraftSettings {
	clamp := func(v int) int {
		if v < 0 {
			return 0
		}
		return v
	}
	s.QBCount = clamp(s.QBCount)
	s.RBCount = clamp(s.RBCount)
	s.WRCount = clamp(s.WRCount)
	s.TECount = clamp(s.TECount)
	s.FlexCount = clamp(s.FlexCount)
	s.KCount = clamp(s.KCount)
	s.DSTCount = clamp(s.DSTCount)
	s.BenchCount = clamp(s.BenchCount)

	if s.TotalTeams < 1 {
		s.TotalTeams = defaultTotalTeams
	}
	if s.YourDraftSpot < 1 {
		s.YourDraftSpot = 1
	}
	if s.YourDraftSpot > s.TotalTeams {
		s.YourDraftSpot = s.TotalTeams
	}
	return s
}

// Required returns the number of starters required at a position
func (s DraftSettings) Required(pos Position) int {
	switch pos {
	case PositionQB:
		return s.QBCount
	case PositionRB:
		return s.RBCount
	case PositionWR:
		return s.WRCount
	case PositionTE:
		return s.TECount
	case PositionK:
		return s.KCount
	case PositionDST:
		return s.DSTCount
	}
	return 0
}

// RosterSize is the total number of roster spots
func (s DraftSettings) RosterSize() int {
	return s.QBCount + s.RBCount + s.WRCount + s.TECount + s.FlexCount + s.KCount + s.DSTCount + s.BenchCount
}
