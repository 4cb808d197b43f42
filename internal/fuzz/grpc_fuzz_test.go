package fuzz

import (
	"context"
	"testing"

	"google.golang.org/protobuf/types/known/structpb"

	grpcserver "github.com/Billy-Davies-2/draftboard/internal/grpc"
	"github.com/Billy-Davies-2/draftboard/internal/ranking"
)

// FuzzGRPCMovePlayer fuzzes the gRPC MovePlayer method
func FuzzGRPCMovePlayer(f *testing.F) {
	f.Add("ja-marr-chase", "up", "ALL", "", false)
	f.Add("bijan-robinson", "down", "RB", "atl", true)
	f.Add("", "", "", "", false)
	f.Add("invalid", "left", "FLEX", "\xff", true)

	f.Fuzz(func(t *testing.T, playerID, direction, position, q string, available bool) {
		board, ps := newBoard(t)
		server := grpcserver.NewServer(board, ps)

		req, err := structpb.NewStruct(map[string]interface{}{
			"playerId":  playerID,
			"direction": direction,
			"position":  position,
			"q":         q,
			"available": available,
		})
		if err != nil {
			// Invalid UTF-8 cannot be carried in a Struct
			return
		}

		_, _ = server.MovePlayer(context.Background(), req)
		if !ranking.IsPermutation(board.Players()) {
			t.Fatalf("move %s %s broke the permutation", playerID, direction)
		}
	})
}

// FuzzGRPCGetBoard fuzzes the gRPC GetBoard method
func FuzzGRPCGetBoard(f *testing.F) {
	f.Add("WR", "chase")
	f.Add("", "")
	f.Add("dst", "PHI")

	f.Fuzz(func(t *testing.T, position, q string) {
		board, ps := newBoard(t)
		server := grpcserver.NewServer(board, ps)

		req, err := structpb.NewStruct(map[string]interface{}{"position": position, "q": q})
		if err != nil {
			return
		}
		_, _ = server.GetBoard(context.Background(), req)
	})
}
