package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/Billy-Davies-2/draftboard/internal/advisor"
	"github.com/Billy-Davies-2/draftboard/internal/draft"
	"github.com/Billy-Davies-2/draftboard/internal/logger"
	"github.com/Billy-Davies-2/draftboard/internal/models"
	"github.com/Billy-Davies-2/draftboard/internal/pubsub"
	"github.com/Billy-Davies-2/draftboard/internal/rankfile"
	"github.com/Billy-Davies-2/draftboard/internal/ranking"
	"github.com/Billy-Davies-2/draftboard/internal/recommend"
	"github.com/Billy-Davies-2/draftboard/internal/session"
)

// Subscriber is the read side of the event bus
type Subscriber interface {
	Subscribe() chan pubsub.Event
	Unsubscribe(chan pubsub.Event)
}

// APIHandlers contains all API handler methods
type APIHandlers struct {
	board     *session.Session
	advisor   *advisor.Advisor
	events    Subscriber
	keepalive time.Duration
}

// NewAPIHandlers creates a new API handlers instance. adv may be nil when no
// completion service is configured.
func NewAPIHandlers(board *session.Session, adv *advisor.Advisor, events Subscriber) *APIHandlers {
	return &APIHandlers{
		board:     board,
		advisor:   adv,
		events:    events,
		keepalive: 30 * time.Second,
	}
}

// Register mounts every API route on mux
func (h *APIHandlers) Register(mux *http.ServeMux) {
	mux.HandleFunc("/api/board", h.GetBoard)
	mux.HandleFunc("/api/player", h.GetPlayer)
	mux.HandleFunc("/api/players/move", h.MovePlayer)
	mux.HandleFunc("/api/players/star", h.ToggleStar)
	mux.HandleFunc("/api/players/thumbsdown", h.ToggleThumbsDown)
	mux.HandleFunc("/api/players/notes", h.SetNotes)
	mux.HandleFunc("/api/players/drafted", h.SetDrafted)
	mux.HandleFunc("/api/settings", h.Settings)
	mux.HandleFunc("/api/draft/status", h.DraftStatus)
	mux.HandleFunc("/api/recommend", h.Recommend)
	mux.HandleFunc("/api/advice", h.Advice)
	mux.HandleFunc("/api/rankings/export", h.Export)
	mux.HandleFunc("/api/rankings/import", h.Import)
	mux.HandleFunc("/api/rankings/reset", h.Reset)
	mux.HandleFunc("/api/events", h.EventsSSE)
}

type playerRequest struct {
	PlayerID string `json:"playerId"`
}

// GetBoard returns the filtered board in customRank order
func (h *APIHandlers) GetBoard(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodGet) {
		return
	}
	q := r.URL.Query()
	f := ranking.Filter{
		Position: q.Get("position"),
		Search:   q.Get("q"),
	}
	if v := q.Get("available"); v != "" {
		available, err := strconv.ParseBool(v)
		if err != nil {
			http.Error(w, "available must be true or false", http.StatusBadRequest)
			return
		}
		f.AvailableOnly = available
	}

	players, err := h.board.Board(f)
	if err != nil {
		writeError(w, err)
		return
	}
	if players == nil {
		players = []models.Player{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"players": players,
		"filter":  f,
	})
}

// GetPlayer returns one player by ?id=
func (h *APIHandlers) GetPlayer(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodGet) {
		return
	}
	p, err := h.board.Player(r.URL.Query().Get("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// MovePlayer moves a player one place within a board view
func (h *APIHandlers) MovePlayer(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodPost) {
		return
	}
	var req struct {
		PlayerID  string         `json:"playerId"`
		Direction string         `json:"direction"`
		Filter    ranking.Filter `json:"filter"`
	}
	if !decode(w, r, &req) {
		return
	}
	dir, err := ranking.ParseDirection(req.Direction)
	if err != nil {
		writeError(w, err)
		return
	}

	logger.Debug("Moving player", "player_id", req.PlayerID, "direction", dir.String())
	moved, err := h.board.Move(req.PlayerID, req.Filter, dir)
	if err != nil {
		writeError(w, err)
		return
	}
	p, _ := h.board.Player(req.PlayerID)
	writeJSON(w, http.StatusOK, map[string]interface{}{"moved": moved, "player": p})
}

// ToggleStar flips a player's star
func (h *APIHandlers) ToggleStar(w http.ResponseWriter, r *http.Request) {
	h.playerAction(w, r, h.board.ToggleStar)
}

// ToggleThumbsDown flips a player's thumbs-down
func (h *APIHandlers) ToggleThumbsDown(w http.ResponseWriter, r *http.Request) {
	h.playerAction(w, r, h.board.ToggleThumbsDown)
}

func (h *APIHandlers) playerAction(w http.ResponseWriter, r *http.Request, fn func(string) (models.Player, error)) {
	if !allow(w, r, http.MethodPost) {
		return
	}
	var req playerRequest
	if !decode(w, r, &req) {
		return
	}
	p, err := fn(req.PlayerID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// SetNotes replaces a player's notes
func (h *APIHandlers) SetNotes(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodPost) {
		return
	}
	var req struct {
		PlayerID string `json:"playerId"`
		Notes    string `json:"notes"`
	}
	if !decode(w, r, &req) {
		return
	}
	p, err := h.board.SetNotes(req.PlayerID, req.Notes)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// SetDrafted sets draft status to you, others or none
func (h *APIHandlers) SetDrafted(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodPost) {
		return
	}
	var req struct {
		PlayerID string `json:"playerId"`
		Status   string `json:"status"`
	}
	if !decode(w, r, &req) {
		return
	}

	var fn func(string) (models.Player, error)
	switch strings.ToLower(req.Status) {
	case "you":
		fn = h.board.MarkDraftedByYou
	case "others":
		fn = h.board.MarkDraftedByOthers
	case "none", "":
		fn = h.board.ClearDraftStatus
	default:
		http.Error(w, "status must be you, others or none", http.StatusBadRequest)
		return
	}

	logger.Info("Updating draft status", "player_id", req.PlayerID, "status", req.Status)
	p, err := fn(req.PlayerID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// Settings reads or replaces the draft settings
func (h *APIHandlers) Settings(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, h.board.Settings())
	case http.MethodPost, http.MethodPut:
		var req models.DraftSettings
		if !decode(w, r, &req) {
			return
		}
		writeJSON(w, http.StatusOK, h.board.UpdateSettings(req))
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// DraftStatus reports pick timing, lineup slots and the projected board
func (h *APIHandlers) DraftStatus(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodGet) {
		return
	}
	until, err := h.board.PicksUntilNext()
	if err != nil {
		writeError(w, err)
		return
	}
	pick, err := h.board.CurrentPick()
	if err != nil {
		writeError(w, err)
		return
	}
	projected, err := h.board.Projected()
	if err != nil {
		writeError(w, err)
		return
	}
	if projected == nil {
		projected = []models.Player{}
	}

	writeJSON(w, http.StatusOK, struct {
		PicksUntilNext int                     `json:"picksUntilNext"`
		CurrentPick    draft.Pick              `json:"currentPick"`
		Settings       models.DraftSettings    `json:"settings"`
		Slots          draft.Allocation        `json:"slots"`
		Projected      []models.Player         `json:"projected"`
		PositionCounts map[models.Position]int `json:"positionCounts"`
	}{
		PicksUntilNext: until,
		CurrentPick:    pick,
		Settings:       h.board.Settings(),
		Slots:          h.board.Slots(),
		Projected:      projected,
		PositionCounts: h.board.PositionCounts(),
	})
}

// Recommend runs the scorer
func (h *APIHandlers) Recommend(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodGet) {
		return
	}
	res, err := h.board.Recommend()
	if err != nil {
		writeError(w, err)
		return
	}
	if res.Candidates == nil {
		res.Candidates = []recommend.Scored{}
	}
	writeJSON(w, http.StatusOK, res)
}

// Advice asks the completion service for a pick while the user views playerId
func (h *APIHandlers) Advice(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodPost) {
		return
	}
	if h.advisor == nil {
		http.Error(w, advisor.ErrNoAPIKey.Error(), http.StatusServiceUnavailable)
		return
	}
	var req playerRequest
	if !decode(w, r, &req) {
		return
	}
	out, err := h.advisor.Advise(r.Context(), req.PlayerID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// Export downloads the rankings file
func (h *APIHandlers) Export(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodGet) {
		return
	}
	f, name := h.board.Export()
	data, err := rankfile.Encode(f)
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", rankfile.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	_, _ = w.Write(data)
}

// Import merges an uploaded rankings file
func (h *APIHandlers) Import(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodPost) {
		return
	}
	// One byte past the limit is enough to detect an oversized file
	data, err := io.ReadAll(io.LimitReader(r.Body, rankfile.MaxSize+1))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	stats, err := h.board.Import(data, r.Header.Get("Content-Type"))
	if err != nil {
		logger.Warn("Rejected rankings import", "error", err, "bytes", len(data))
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// Reset restores the base board
func (h *APIHandlers) Reset(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodPost) {
		return
	}
	if err := h.board.Reset(); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// EventsSSE provides Server-Sent Events for realtime updates
func (h *APIHandlers) EventsSSE(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	flush := func() {
		if f, ok := w.(http.Flusher); ok {
			f.Flush()
		}
	}

	eventChan := h.events.Subscribe()
	defer h.events.Unsubscribe(eventChan)

	fmt.Fprintf(w, "data: {\"type\":\"connected\"}\n\n")
	flush()

	ticker := time.NewTicker(h.keepalive)
	defer ticker.Stop()

	for {
		select {
		case event, ok := <-eventChan:
			if !ok {
				return
			}
			data, err := json.Marshal(event)
			if err != nil {
				logger.Error("Failed to encode event", "error", err, "event_type", event.Type)
				continue
			}
			fmt.Fprintf(w, "id: %s\ndata: %s\n\n", event.ID, data)
			flush()
		case <-r.Context().Done():
			logger.Debug("SSE client disconnected")
			return
		case <-ticker.C:
			fmt.Fprintf(w, ": keepalive\n\n")
			flush()
		}
	}
}

func allow(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method != method {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return false
	}
	return true
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(v); err != nil {
		logger.Warn("Failed to decode request", "error", err, "path", r.URL.Path)
		http.Error(w, "invalid JSON body", http.StatusBadRequest)
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("Failed to encode response", "error", err)
	}
}

// StatusFor maps domain errors to HTTP status codes
func StatusFor(err error) int {
	switch {
	case errors.Is(err, ranking.ErrUnknownPlayer):
		return http.StatusNotFound
	case errors.Is(err, session.ErrStaleAdvice):
		return http.StatusConflict
	case errors.Is(err, advisor.ErrCompletion):
		return http.StatusBadGateway
	case errors.Is(err, rankfile.ErrTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, rankfile.ErrNotJSON):
		return http.StatusUnsupportedMediaType
	case errors.Is(err, ranking.ErrUnknownPosition),
		errors.Is(err, ranking.ErrBadDirection),
		errors.Is(err, ranking.ErrIndexOutOfRange),
		errors.Is(err, draft.ErrInvalidTeamCount),
		errors.Is(err, draft.ErrInvalidDraftSpot),
		errors.Is(err, rankfile.ErrInvalidJSON),
		errors.Is(err, rankfile.ErrMissingPlayers),
		errors.Is(err, rankfile.ErrMissingFields),
		errors.Is(err, rankfile.ErrTooManyPlayers):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func writeError(w http.ResponseWriter, err error) {
	status := StatusFor(err)
	if status >= http.StatusInternalServerError {
		logger.Error("Request failed", "error", err, "status", status)
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
