package grpc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/Billy-Davies-2/draftboard/internal/draft"
	"github.com/Billy-Davies-2/draftboard/internal/logger"
	"github.com/Billy-Davies-2/draftboard/internal/pubsub"
	"github.com/Billy-Davies-2/draftboard/internal/ranking"
	"github.com/Billy-Davies-2/draftboard/internal/session"
)

// Subscriber is the read side of the event bus
type Subscriber interface {
	Subscribe() chan pubsub.Event
	Unsubscribe(chan pubsub.Event)
}

// Server implements the gRPC DraftBoard service
type Server struct {
	board  *session.Session
	events Subscriber
}

// NewServer creates a new gRPC server
func NewServer(board *session.Session, events Subscriber) *Server {
	return &Server{
		board:  board,
		events: events,
	}
}

type boardRequest struct {
	PlayerID  string `json:"playerId"`
	Direction string `json:"direction"`
	Position  string `json:"position"`
	Query     string `json:"q"`
	Available bool   `json:"available"`
}

func (r boardRequest) filter() ranking.Filter {
	return ranking.Filter{Position: r.Position, Search: r.Query, AvailableOnly: r.Available}
}

// GetBoard returns the filtered board
func (s *Server) GetBoard(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var in boardRequest
	if err := fromStruct(req, &in); err != nil {
		return nil, err
	}
	logger.Debug("gRPC: Getting board", "position", in.Position)

	players, err := s.board.Board(in.filter())
	if err != nil {
		return nil, toStatus(err)
	}
	return toStruct(map[string]interface{}{"players": players})
}

// MovePlayer moves one player up or down within a board view
func (s *Server) MovePlayer(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var in boardRequest
	if err := fromStruct(req, &in); err != nil {
		return nil, err
	}
	dir, err := ranking.ParseDirection(in.Direction)
	if err != nil {
		return nil, toStatus(err)
	}

	logger.Info("gRPC: Moving player", "player_id", in.PlayerID, "direction", dir.String())
	moved, err := s.board.Move(in.PlayerID, in.filter(), dir)
	if err != nil {
		logger.Warn("gRPC: Move failed", "error", err, "player_id", in.PlayerID)
		return nil, toStatus(err)
	}
	p, err := s.board.Player(in.PlayerID)
	if err != nil {
		return nil, toStatus(err)
	}
	return toStruct(map[string]interface{}{"moved": moved, "player": p})
}

// PicksUntilNext reports the pick on the clock and the wait until the user's turn
func (s *Server) PicksUntilNext(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	n, err := s.board.PicksUntilNext()
	if err != nil {
		return nil, toStatus(err)
	}
	pick, err := s.board.CurrentPick()
	if err != nil {
		return nil, toStatus(err)
	}
	return toStruct(map[string]interface{}{"picksUntilNext": n, "currentPick": pick})
}

// Recommend runs the scorer
func (s *Server) Recommend(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	res, err := s.board.Recommend()
	if err != nil {
		return nil, toStatus(err)
	}
	return toStruct(res)
}

// StreamEvents streams board events until the client goes away
func (s *Server) StreamEvents(_ *emptypb.Empty, stream EventStream) error {
	logger.Info("gRPC: Client subscribed to event stream")

	eventChan := s.events.Subscribe()
	defer s.events.Unsubscribe(eventChan)

	for {
		select {
		case event, ok := <-eventChan:
			if !ok {
				return nil
			}
			msg, err := toStruct(event)
			if err != nil {
				logger.Error("gRPC: Failed to convert event", "error", err, "event_type", event.Type)
				continue
			}
			if err := stream.Send(msg); err != nil {
				logger.Error("gRPC: Failed to send event", "error", err)
				return err
			}
		case <-stream.Context().Done():
			logger.Info("gRPC: Client disconnected from event stream")
			return nil
		}
	}
}

// toStruct converts v through its JSON form so field names and the null
// encoding of ineligible scores match the HTTP API
func toStruct(v any) (*structpb.Struct, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode response: %v", err)
	}
	var m map[string]interface{}
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, status.Errorf(codes.Internal, "encode response: %v", err)
	}
	out, err := structpb.NewStruct(m)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode response: %v", err)
	}
	return out, nil
}

func fromStruct(in *structpb.Struct, v any) error {
	if in == nil {
		return nil
	}
	data, err := json.Marshal(in.AsMap())
	if err != nil {
		return status.Errorf(codes.InvalidArgument, "decode request: %v", err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return status.Errorf(codes.InvalidArgument, "decode request: %v", err)
	}
	return nil
}

func toStatus(err error) error {
	code := codes.Internal
	switch {
	case errors.Is(err, ranking.ErrUnknownPlayer):
		code = codes.NotFound
	case errors.Is(err, ranking.ErrUnknownPosition),
		errors.Is(err, ranking.ErrBadDirection),
		errors.Is(err, ranking.ErrIndexOutOfRange),
		errors.Is(err, draft.ErrInvalidTeamCount),
		errors.Is(err, draft.ErrInvalidDraftSpot):
		code = codes.InvalidArgument
	}
	return status.Error(code, fmt.Sprint(err))
}
