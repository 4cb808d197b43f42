// Package advisor asks a text-completion model for a pick and writes its
// answer back onto the board.
package advisor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/Billy-Davies-2/draftboard/internal/logger"
	"github.com/Billy-Davies-2/draftboard/internal/models"
	"github.com/Billy-Davies-2/draftboard/internal/recommend"
	"github.com/Billy-Davies-2/draftboard/internal/session"
)

var ErrCompletion = errors.New("completion service failed")

// Outcome describes what an advice request wrote
type Outcome struct {
	RequestID  string        `json:"requestId"`
	Player     models.Player `json:"player"`
	Suggestion *Suggestion   `json:"suggestion,omitempty"`
	Matched    bool          `json:"matched"`
	Raw        string        `json:"raw,omitempty"`
}

// Advisor runs advice requests against a session
type Advisor struct {
	completer Completer
	board     *session.Session
	timeout   time.Duration
	log       *slog.Logger
}

// New creates an advisor. timeout bounds each completion call; 0 means 45s.
func New(c Completer, board *session.Session, timeout time.Duration) *Advisor {
	if timeout <= 0 {
		timeout = 45 * time.Second
	}
	return &Advisor{completer: c, board: board, timeout: timeout, log: logger.With("advisor")}
}

// Advise asks for a pick while the user views viewedID. A transport failure
// writes nothing and returns ErrCompletion. An unparseable reply is written
// verbatim to the viewed player. Otherwise the overview lands on the named
// candidate, or on the viewed player when no candidate matches.
func (a *Advisor) Advise(ctx context.Context, viewedID string) (Outcome, error) {
	viewed, err := a.board.Player(viewedID)
	if err != nil {
		return Outcome{}, err
	}

	reqID := uuid.NewString()
	gen := a.board.BeginAdvice()
	log := a.log.With("request_id", reqID, "viewed", viewedID)

	snap, err := a.board.Snapshot()
	if err != nil {
		return Outcome{}, err
	}
	candidates := recommend.Candidates(snap.Available)
	engine := recommend.Recommend(snap.Available, snap.Roster, snap.Settings, snap.PicksUntilNext)

	prompt, err := BuildPrompt(PromptContext{
		Candidates:     candidates,
		Roster:         snap.Roster,
		Settings:       snap.Settings,
		Selected:       &viewed,
		PicksUntilNext: snap.PicksUntilNext,
		EnginePick:     &engine,
	})
	if err != nil {
		return Outcome{}, err
	}

	cctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	text, err := a.completer.Complete(cctx, prompt)
	if err != nil {
		log.Error("Completion failed", "error", err)
		return Outcome{}, fmt.Errorf("%w: %v", ErrCompletion, err)
	}

	out := Outcome{RequestID: reqID}
	sug, err := ParseSuggestion(text)
	if err != nil {
		log.Warn("Unparseable completion, storing raw text", "error", err)
		p, werr := a.board.SetAISuggestion(gen, viewedID, text)
		if werr != nil {
			return Outcome{}, werr
		}
		out.Player, out.Raw = p, text
		return out, nil
	}

	out.Suggestion = &sug
	p, matched, err := a.board.ApplyAdvice(gen, viewedID, sug.LongName, sug.Text())
	if err != nil {
		if errors.Is(err, session.ErrStaleAdvice) {
			log.Info("Discarding superseded advice")
		}
		return Outcome{}, err
	}
	out.Player, out.Matched = p, matched

	log.Info("Advice applied", "player", p.PlayerID, "matched", out.Matched)
	return out, nil
}
