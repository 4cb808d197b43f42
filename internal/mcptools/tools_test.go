package mcptools

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/Billy-Davies-2/draftboard/internal/logger"
	"github.com/Billy-Davies-2/draftboard/internal/models"
	"github.com/Billy-Davies-2/draftboard/internal/session"
)

func init() {
	logger.Init("error")
}

func newBoard(t *testing.T) *session.Session {
	t.Helper()
	positions := []models.Position{models.PositionRB, models.PositionWR, models.PositionQB, models.PositionTE, models.PositionK, models.PositionDST}
	players := make([]models.Player, 40)
	for i := range players {
		players[i] = models.Player{
			PlayerID:   fmt.Sprintf("p%d", i+1),
			LongName:   fmt.Sprintf("Player %d", i+1),
			Team:       "KC",
			Position:   positions[i%len(positions)],
			ADPRank:    float64(i + 1),
			CustomRank: i + 1,
		}
	}
	board, err := session.New(players, nil)
	if err != nil {
		t.Fatal(err)
	}
	return board
}

func connect(t *testing.T, server *mcp.Server) *mcp.ClientSession {
	t.Helper()
	ctx := context.Background()
	serverTransport, clientTransport := mcp.NewInMemoryTransports()
	if _, err := server.Connect(ctx, serverTransport, nil); err != nil {
		t.Fatalf("server connect: %v", err)
	}
	client := mcp.NewClient(&mcp.Implementation{Name: "test-client", Version: "v0.0.1"}, nil)
	cs, err := client.Connect(ctx, clientTransport, nil)
	if err != nil {
		t.Fatalf("client connect: %v", err)
	}
	t.Cleanup(func() { cs.Close() })
	return cs
}

func call(t *testing.T, cs *mcp.ClientSession, name string, args map[string]any, out any) *mcp.CallToolResult {
	t.Helper()
	if args == nil {
		args = map[string]any{}
	}
	res, err := cs.CallTool(context.Background(), &mcp.CallToolParams{Name: name, Arguments: args})
	if err != nil {
		t.Fatalf("CallTool(%s): %v", name, err)
	}
	if len(res.Content) == 0 {
		t.Fatalf("%s returned no content", name)
	}
	text, ok := res.Content[0].(*mcp.TextContent)
	if !ok {
		t.Fatalf("%s content is %T", name, res.Content[0])
	}
	if out != nil && !res.IsError {
		if err := json.Unmarshal([]byte(text.Text), out); err != nil {
			t.Fatalf("%s output: %v\n%s", name, err, text.Text)
		}
	}
	return res
}

func TestToolRegistry(t *testing.T) {
	server, registry := NewServer(newBoard(t))
	want := []string{"recommend_pick", "picks_until_next", "board", "roster_slots"}
	if len(registry) != len(want) {
		t.Fatalf("registry = %+v", registry)
	}
	for i, name := range want {
		if registry[i].Name != name || registry[i].Description == "" {
			t.Errorf("registry[%d] = %+v", i, registry[i])
		}
	}

	cs := connect(t, server)
	list, err := cs.ListTools(context.Background(), nil)
	if err != nil {
		t.Fatalf("ListTools: %v", err)
	}
	if len(list.Tools) != len(want) {
		t.Errorf("listed %d tools want %d", len(list.Tools), len(want))
	}
}

func TestPicksUntilNextTool(t *testing.T) {
	board := newBoard(t)
	server, _ := NewServer(board)
	cs := connect(t, server)

	if _, err := board.MarkDraftedByYou("p1"); err != nil {
		t.Fatal(err)
	}

	var out struct {
		PicksUntilNext int `json:"picksUntilNext"`
		CurrentPick    struct {
			Overall int `json:"overall"`
			Round   int `json:"round"`
		} `json:"currentPick"`
	}
	call(t, cs, "picks_until_next", nil, &out)
	if out.PicksUntilNext != 22 || out.CurrentPick.Overall != 2 || out.CurrentPick.Round != 1 {
		t.Errorf("out = %+v", out)
	}
}

func TestRecommendPickTool(t *testing.T) {
	server, _ := NewServer(newBoard(t))
	cs := connect(t, server)

	var out struct {
		Chosen *models.Player `json:"chosen"`
		Reason string         `json:"reason"`
	}
	call(t, cs, "recommend_pick", nil, &out)
	if out.Chosen == nil || out.Reason == "" {
		t.Fatalf("out = %+v", out)
	}
}

func TestBoardTool(t *testing.T) {
	board := newBoard(t)
	server, _ := NewServer(board)
	cs := connect(t, server)

	if _, err := board.MarkDraftedByOthers("p1"); err != nil {
		t.Fatal(err)
	}

	var out struct {
		Total   int             `json:"total"`
		Players []models.Player `json:"players"`
	}
	call(t, cs, "board", map[string]any{"position": "RB", "available_only": true, "limit": 3}, &out)
	if out.Total != 6 || len(out.Players) != 3 {
		t.Fatalf("total=%d players=%d", out.Total, len(out.Players))
	}
	for _, p := range out.Players {
		if p.Position != models.PositionRB || p.Drafted() {
			t.Errorf("unexpected player %+v", p)
		}
	}
	if out.Players[0].PlayerID != "p7" {
		t.Errorf("first available RB = %s want p7", out.Players[0].PlayerID)
	}

	call(t, cs, "board", nil, &out)
	if out.Total != 40 || len(out.Players) != defaultBoardLimit {
		t.Errorf("default limit: total=%d players=%d", out.Total, len(out.Players))
	}

	res := call(t, cs, "board", map[string]any{"position": "OL"}, nil)
	if !res.IsError {
		t.Error("unknown position should be a tool error")
	}
}

func TestRosterSlotsTool(t *testing.T) {
	board := newBoard(t)
	server, _ := NewServer(board)
	cs := connect(t, server)

	for _, id := range []string{"p1", "p2", "p7"} {
		if _, err := board.MarkDraftedByYou(id); err != nil {
			t.Fatal(err)
		}
	}

	var out struct {
		Allocation struct {
			Slots []struct {
				Label  string         `json:"label"`
				Player *models.Player `json:"player"`
			} `json:"slots"`
		} `json:"allocation"`
		Counts map[string]int `json:"counts"`
	}
	call(t, cs, "roster_slots", nil, &out)
	if out.Counts["RB"] != 2 || out.Counts["WR"] != 1 || out.Counts["DST"] != 0 {
		t.Errorf("counts = %v", out.Counts)
	}
	filled := 0
	for _, s := range out.Allocation.Slots {
		if s.Player != nil {
			filled++
			if s.Label == "BENCH" {
				t.Errorf("%s benched while starters are open", s.Player.PlayerID)
			}
		}
	}
	if filled != 3 {
		t.Errorf("filled=%d want 3", filled)
	}
}

func TestStreamableHTTPHandler(t *testing.T) {
	server, _ := NewServer(newBoard(t))
	srv := httptest.NewServer(Handler(server))
	defer srv.Close()

	ctx := context.Background()
	client := mcp.NewClient(&mcp.Implementation{Name: "http-client", Version: "v0.0.1"}, nil)
	cs, err := client.Connect(ctx, &mcp.StreamableClientTransport{Endpoint: srv.URL}, nil)
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	defer cs.Close()

	res := call(t, cs, "picks_until_next", nil, nil)
	text := res.Content[0].(*mcp.TextContent).Text
	if res.IsError || !strings.Contains(text, `"picksUntilNext": 0`) {
		t.Errorf("response = %s", text)
	}
}
