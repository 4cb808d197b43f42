package advisor

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/Billy-Davies-2/draftboard/internal/models"
	"github.com/Billy-Davies-2/draftboard/internal/ranking"
)

var ErrBadSuggestion = errors.New("completion is not a {longName, overview} object")

// Suggestion is the model's pick
type Suggestion struct {
	LongName string `json:"longName"`
	Overview string `json:"overview"`
}

// Text is what gets written to the player's aiSuggestions field
func (s Suggestion) Text() string {
	return s.LongName + ": " + s.Overview
}

// ParseSuggestion accepts exactly one JSON object holding non-empty longName
// and overview strings and nothing else
func ParseSuggestion(text string) (Suggestion, error) {
	if !bytes.HasPrefix(bytes.TrimSpace([]byte(text)), []byte("{")) {
		return Suggestion{}, ErrBadSuggestion
	}

	dec := json.NewDecoder(strings.NewReader(text))
	dec.DisallowUnknownFields()

	var raw struct {
		LongName *string `json:"longName"`
		Overview *string `json:"overview"`
	}
	if err := dec.Decode(&raw); err != nil {
		return Suggestion{}, fmt.Errorf("%w: %v", ErrBadSuggestion, err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return Suggestion{}, fmt.Errorf("%w: trailing data", ErrBadSuggestion)
	}
	if raw.LongName == nil || raw.Overview == nil {
		return Suggestion{}, fmt.Errorf("%w: missing field", ErrBadSuggestion)
	}

	s := Suggestion{LongName: strings.TrimSpace(*raw.LongName), Overview: strings.TrimSpace(*raw.Overview)}
	if s.LongName == "" || s.Overview == "" {
		return Suggestion{}, fmt.Errorf("%w: empty field", ErrBadSuggestion)
	}
	return s, nil
}

// MatchCandidate finds the candidate named longName, ignoring case
func MatchCandidate(candidates []models.Player, longName string) *models.Player {
	i := ranking.FindByName(candidates, longName)
	if i < 0 {
		return nil
	}
	p := candidates[i]
	return &p
}
