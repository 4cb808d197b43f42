// Package rankfile reads and writes portable rankings files.
package rankfile

import (
	"bytes"
	"encoding/json"
	"errors"
	"mime"
	"strings"
	"time"

	"github.com/Billy-Davies-2/draftboard/internal/logger"
	"github.com/Billy-Davies-2/draftboard/internal/models"
	"github.com/Billy-Davies-2/draftboard/internal/ranking"
)

const (
	// Version is written into every exported file
	Version = "1.0"
	// MaxSize is the largest accepted import in bytes
	MaxSize = 5 * 1024 * 1024
	// MaxPlayers is the largest accepted players array
	MaxPlayers = 1000
	// ContentType is the only accepted media type
	ContentType = "application/json"
)

// Import failures. The messages are shown to the user as-is.
var (
	ErrNotJSON        = errors.New("Please select a valid JSON file")
	ErrTooLarge       = errors.New("File too large. Maximum size is 5MB.")
	ErrMissingPlayers = errors.New("Invalid file format - missing players array")
	ErrTooManyPlayers = errors.New("File contains too many players. Maximum is 1000.")
	ErrMissingFields  = errors.New("Invalid file format - missing required player fields")
	ErrInvalidJSON    = errors.New("Invalid JSON file format")
)

var requiredFields = []string{"playerID", "longName", "position"}

// File is the exported rankings document
type File struct {
	ExportDate time.Time `json:"exportDate"`
	Version    string    `json:"version"`
	Players    []Entry   `json:"players"`
}

// Entry is one player in an exported file
type Entry struct {
	PlayerID   string          `json:"playerID"`
	LongName   string          `json:"longName"`
	Position   models.Position `json:"position"`
	Team       string          `json:"team"`
	CustomRank int             `json:"customRank"`
	Starred    bool            `json:"starred"`
	ThumbsDown bool            `json:"thumbsDown"`
	Notes      string          `json:"notes"`
	ADPRank    float64         `json:"adpRank"`
}

// ImportEntry is one imported player. Nil fields were absent from the file
// and leave the current value alone on merge.
type ImportEntry struct {
	PlayerID   string  `json:"playerID"`
	LongName   string  `json:"longName"`
	Position   string  `json:"position"`
	Team       string  `json:"team,omitempty"`
	CustomRank *int    `json:"customRank,omitempty"`
	Starred    *bool   `json:"starred,omitempty"`
	ThumbsDown *bool   `json:"thumbsDown,omitempty"`
	Notes      *string `json:"notes,omitempty"`
}

// Import is a validated rankings file
type Import struct {
	ExportDate string        `json:"exportDate,omitempty"`
	Version    string        `json:"version,omitempty"`
	Players    []ImportEntry `json:"players"`
}

// Stats summarises a merge
type Stats struct {
	Total   int `json:"total"`
	Updated int `json:"updated"`
	Matched int `json:"matched"`
}

// Export builds a rankings file for players in customRank order
func Export(players []models.Player, now time.Time) File {
	ordered := ranking.SortByCustomRank(players)
	f := File{
		ExportDate: now.UTC(),
		Version:    Version,
		Players:    make([]Entry, len(ordered)),
	}
	for i, p := range ordered {
		f.Players[i] = Entry{
			PlayerID:   p.PlayerID,
			LongName:   p.LongName,
			Position:   p.Position,
			Team:       p.Team,
			CustomRank: p.CustomRank,
			Starred:    p.Starred,
			ThumbsDown: p.ThumbsDown,
			Notes:      p.Notes,
			ADPRank:    p.ADPRank,
		}
	}
	return f
}

// FileName is the suggested download name for an export made at now
func FileName(now time.Time) string {
	return "draftboard-rankings-" + now.UTC().Format("2006-01-02") + ".json"
}

// Parse validates raw file bytes. contentType may be empty when the caller
// has none; otherwise it must be application/json.
func Parse(data []byte, contentType string) (*Import, error) {
	if contentType != "" {
		mt, _, err := mime.ParseMediaType(contentType)
		if err != nil || !strings.EqualFold(mt, ContentType) {
			return nil, ErrNotJSON
		}
	}
	if len(data) > MaxSize {
		return nil, ErrTooLarge
	}
	if !json.Valid(data) {
		return nil, ErrInvalidJSON
	}

	var top map[string]json.RawMessage
	if err := json.Unmarshal(data, &top); err != nil {
		return nil, ErrMissingPlayers
	}
	rawPlayers, ok := top["players"]
	if !ok {
		return nil, ErrMissingPlayers
	}
	var entries []json.RawMessage
	if err := json.Unmarshal(rawPlayers, &entries); err != nil || entries == nil {
		return nil, ErrMissingPlayers
	}
	if len(entries) > MaxPlayers {
		return nil, ErrTooManyPlayers
	}

	imp := &Import{Players: make([]ImportEntry, 0, len(entries))}
	// Header fields are informational; a wrong type leaves them empty
	if v, ok := top["version"]; ok {
		if err := json.Unmarshal(v, &imp.Version); err != nil {
			logger.Debug("Ignoring rankings file version", "error", err)
		}
	}
	if v, ok := top["exportDate"]; ok {
		if err := json.Unmarshal(v, &imp.ExportDate); err != nil {
			logger.Debug("Ignoring rankings file exportDate", "error", err)
		}
	}

	for _, raw := range entries {
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(raw, &fields); err != nil || fields == nil {
			return nil, ErrMissingFields
		}
		for _, f := range requiredFields {
			if _, ok := fields[f]; !ok {
				return nil, ErrMissingFields
			}
		}

		var e ImportEntry
		if err := json.Unmarshal(raw, &e); err != nil {
			return nil, ErrInvalidJSON
		}
		imp.Players = append(imp.Players, e)
	}

	return imp, nil
}

// Merge applies imported ranks, marks and notes to players matched by id.
// Draft status is never imported. Ranks are renumbered to a permutation and
// position ranks re-derived.
func Merge(players []models.Player, imp *Import) ([]models.Player, Stats) {
	byID := make(map[string]ImportEntry, len(imp.Players))
	for _, e := range imp.Players {
		byID[e.PlayerID] = e
	}

	out := make([]models.Player, len(players))
	copy(out, players)

	stats := Stats{Total: len(players), Updated: len(imp.Players)}
	for i := range out {
		e, ok := byID[out[i].PlayerID]
		if !ok {
			continue
		}
		stats.Matched++

		if e.CustomRank != nil {
			out[i].CustomRank = *e.CustomRank
		}
		if e.Starred != nil {
			out[i].Starred = *e.Starred
		}
		if e.ThumbsDown != nil {
			out[i].ThumbsDown = *e.ThumbsDown
			if *e.ThumbsDown && e.Starred == nil {
				out[i].Starred = false
			}
		}
		// A file marking both keeps the star
		if out[i].Starred && out[i].ThumbsDown {
			out[i].ThumbsDown = false
		}
		if e.Notes != nil {
			out[i].Notes = *e.Notes
		}
	}

	return ranking.DerivePositionRanks(ranking.Normalize(out)), stats
}

// Encode writes f as indented JSON
func Encode(f File) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	if err := enc.Encode(f); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
