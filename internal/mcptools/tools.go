// Package mcptools exposes the draft board to LLM agents as MCP tools.
package mcptools

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/Billy-Davies-2/draftboard/internal/models"
	"github.com/Billy-Davies-2/draftboard/internal/ranking"
	"github.com/Billy-Davies-2/draftboard/internal/session"
)

const (
	serverName    = "draftboard-mcp"
	serverVersion = "0.1.0"

	defaultBoardLimit = 25
	maxBoardLimit     = 200
)

// ToolInfo names a registered tool
type ToolInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type noArgs struct{}

// BoardArgs filters the board tool
type BoardArgs struct {
	Position      string `json:"position,omitempty" jsonschema:"Position filter: QB, RB, WR, TE, K, DST or ALL (default ALL)"`
	Search        string `json:"search,omitempty" jsonschema:"Case-insensitive substring of player name or team"`
	AvailableOnly bool   `json:"available_only,omitempty" jsonschema:"Hide drafted players"`
	Limit         int    `json:"limit,omitempty" jsonschema:"Maximum players returned (default 25, max 200)"`
}

// NewServer builds an MCP server whose tools read from board
func NewServer(board *session.Session) (*mcp.Server, []ToolInfo) {
	server := mcp.NewServer(
		&mcp.Implementation{
			Name:    serverName,
			Version: serverVersion,
		},
		nil,
	)

	registry := make([]ToolInfo, 0, 4)

	addTool(server, &registry, &mcp.Tool{
		Name:        "recommend_pick",
		Description: "Best available player for the user's next pick, with the score breakdown for every candidate",
	}, func(ctx context.Context, req *mcp.CallToolRequest, _ noArgs) (*mcp.CallToolResult, any, error) {
		res, err := board.Recommend()
		if err != nil {
			return toolError(err), nil, nil
		}
		return toolJSON(res)
	})

	addTool(server, &registry, &mcp.Tool{
		Name:        "picks_until_next",
		Description: "Number of picks before the user is on the clock in the snake draft, and the pick currently on the clock",
	}, func(ctx context.Context, req *mcp.CallToolRequest, _ noArgs) (*mcp.CallToolResult, any, error) {
		n, err := board.PicksUntilNext()
		if err != nil {
			return toolError(err), nil, nil
		}
		current, err := board.CurrentPick()
		if err != nil {
			return toolError(err), nil, nil
		}
		return toolJSON(map[string]any{
			"picksUntilNext": n,
			"currentPick":    current,
			"settings":       board.Settings(),
		})
	})

	addTool(server, &registry, &mcp.Tool{
		Name:        "board",
		Description: "Players in the user's custom ranking order, optionally filtered by position, name or availability",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args BoardArgs) (*mcp.CallToolResult, any, error) {
		players, err := board.Board(ranking.Filter{
			Position:      args.Position,
			Search:        args.Search,
			AvailableOnly: args.AvailableOnly,
		})
		if err != nil {
			return toolError(err), nil, nil
		}
		limit := args.Limit
		if limit <= 0 {
			limit = defaultBoardLimit
		}
		if limit > maxBoardLimit {
			limit = maxBoardLimit
		}
		total := len(players)
		if len(players) > limit {
			players = players[:limit]
		}
		return toolJSON(map[string]any{
			"total":   total,
			"players": players,
		})
	})

	addTool(server, &registry, &mcp.Tool{
		Name:        "roster_slots",
		Description: "The user's drafted players placed into starting lineup and bench slots",
	}, func(ctx context.Context, req *mcp.CallToolRequest, _ noArgs) (*mcp.CallToolResult, any, error) {
		return toolJSON(map[string]any{
			"allocation": board.Slots(),
			"counts":     positionCounts(board.PositionCounts()),
		})
	})

	return server, registry
}

// Handler serves server over streamable HTTP
func Handler(server *mcp.Server) http.Handler {
	return mcp.NewStreamableHTTPHandler(func(r *http.Request) *mcp.Server {
		return server
	}, &mcp.StreamableHTTPOptions{JSONResponse: true})
}

func addTool[T any](server *mcp.Server, registry *[]ToolInfo, tool *mcp.Tool, handler func(context.Context, *mcp.CallToolRequest, T) (*mcp.CallToolResult, any, error)) {
	*registry = append(*registry, ToolInfo{Name: tool.Name, Description: tool.Description})
	mcp.AddTool(server, tool, handler)
}

// positionCounts keys counts by string and includes zero positions
func positionCounts(counts map[models.Position]int) map[string]int {
	out := make(map[string]int, len(models.Positions))
	for _, pos := range models.Positions {
		out[string(pos)] = counts[pos]
	}
	return out
}

func toolJSON(v any) (*mcp.CallToolResult, any, error) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return toolError(err), nil, nil
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: string(b)},
		},
	}, nil, nil
}

func toolError(err error) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{
			&mcp.TextContent{Text: fmt.Sprintf("error: %v", err)},
		},
	}
}
