package grpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName is the fully qualified gRPC service name
const ServiceName = "draftboard.v1.DraftBoard"

// DraftBoardServer is the server API for the DraftBoard service. Requests
// and replies are generic protobuf Structs carrying the same JSON shapes as
// the HTTP API.
type DraftBoardServer interface {
	GetBoard(context.Context, *structpb.Struct) (*structpb.Struct, error)
	MovePlayer(context.Context, *structpb.Struct) (*structpb.Struct, error)
	PicksUntilNext(context.Context, *emptypb.Empty) (*structpb.Struct, error)
	Recommend(context.Context, *emptypb.Empty) (*structpb.Struct, error)
	StreamEvents(*emptypb.Empty, EventStream) error
}

// EventStream is the server side of StreamEvents
type EventStream interface {
	Send(*structpb.Struct) error
	grpc.ServerStream
}

type eventStream struct {
	grpc.ServerStream
}

func (s *eventStream) Send(m *structpb.Struct) error {
	return s.ServerStream.SendMsg(m)
}

// ServiceDesc describes the DraftBoard service for grpc.Server.RegisterService
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*DraftBoardServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "GetBoard", Handler: getBoardHandler},
		{MethodName: "MovePlayer", Handler: movePlayerHandler},
		{MethodName: "PicksUntilNext", Handler: picksUntilNextHandler},
		{MethodName: "Recommend", Handler: recommendHandler},
	},
	Streams: []grpc.StreamDesc{
		{StreamName: "StreamEvents", Handler: streamEventsHandler, ServerStreams: true},
	},
	Metadata: "draftboard/v1/draftboard.proto",
}

// Register adds srv to s
func Register(s grpc.ServiceRegistrar, srv DraftBoardServer) {
	s.RegisterService(&ServiceDesc, srv)
}

func unary[Req any](method string, call func(DraftBoardServer, context.Context, *Req) (*structpb.Struct, error)) func(any, context.Context, func(any) error, grpc.UnaryServerInterceptor) (any, error) {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(Req)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(DraftBoardServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + ServiceName + "/" + method}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(DraftBoardServer), ctx, req.(*Req))
		}
		return interceptor(ctx, in, info, handler)
	}
}

var (
	getBoardHandler = unary("GetBoard", func(s DraftBoardServer, ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
		return s.GetBoard(ctx, in)
	})
	movePlayerHandler = unary("MovePlayer", func(s DraftBoardServer, ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
		return s.MovePlayer(ctx, in)
	})
	picksUntilNextHandler = unary("PicksUntilNext", func(s DraftBoardServer, ctx context.Context, in *emptypb.Empty) (*structpb.Struct, error) {
		return s.PicksUntilNext(ctx, in)
	})
	recommendHandler = unary("Recommend", func(s DraftBoardServer, ctx context.Context, in *emptypb.Empty) (*structpb.Struct, error) {
		return s.Recommend(ctx, in)
	})
)

func streamEventsHandler(srv any, stream grpc.ServerStream) error {
	m := new(emptypb.Empty)
	if err := stream.RecvMsg(m); err != nil {
		return err
	}
	return srv.(DraftBoardServer).StreamEvents(m, &eventStream{stream})
}

// Client calls the DraftBoard service
type Client struct {
	cc grpc.ClientConnInterface
}

// NewClient wraps a connection
func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

func (c *Client) invoke(ctx context.Context, method string, in any, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, "/"+ServiceName+"/"+method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) GetBoard(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, "GetBoard", in, opts...)
}

func (c *Client) MovePlayer(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, "MovePlayer", in, opts...)
}

func (c *Client) PicksUntilNext(ctx context.Context, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, "PicksUntilNext", &emptypb.Empty{}, opts...)
}

func (c *Client) Recommend(ctx context.Context, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, "Recommend", &emptypb.Empty{}, opts...)
}

// StreamEvents opens the event stream; call Recv on the result until it errors
func (c *Client) StreamEvents(ctx context.Context, opts ...grpc.CallOption) (*EventReceiver, error) {
	stream, err := c.cc.NewStream(ctx, &ServiceDesc.Streams[0], "/"+ServiceName+"/StreamEvents", opts...)
	if err != nil {
		return nil, err
	}
	if err := stream.SendMsg(&emptypb.Empty{}); err != nil {
		return nil, err
	}
	if err := stream.CloseSend(); err != nil {
		return nil, err
	}
	return &EventReceiver{stream: stream}, nil
}

// EventReceiver reads events from StreamEvents
type EventReceiver struct {
	stream grpc.ClientStream
}

// Recv blocks for the next event
func (r *EventReceiver) Recv() (*structpb.Struct, error) {
	m := new(structpb.Struct)
	if err := r.stream.RecvMsg(m); err != nil {
		return nil, err
	}
	return m, nil
}
