// Package grpcserver exposes the league command API over gRPC.
//
// The service is registered from a hand-written descriptor; requests and replies are
// google.protobuf.Struct messages shaped by package convert.
package grpcserver

import (
	"context"
	"errors"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/and161185/league-keeper/internal/convert"
	"github.com/and161185/league-keeper/internal/errs"
	"github.com/and161185/league-keeper/internal/service"
)

// Service and method names on the wire.
const (
	ServiceName  = "league.v1.Commands"
	MethodApply  = "/" + ServiceName + "/Apply"
	MethodDelete = "/" + ServiceName + "/Delete"
)

// CommandsServer is the server API for the league command service.
type CommandsServer interface {
	Apply(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	Delete(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
}

// Server wires the command service into gRPC handlers.
type Server struct {
	commands service.Commands
}

var _ CommandsServer = (*Server)(nil)

// New constructs a gRPC server with the injected service.
func New(commands service.Commands) *Server {
	return &Server{commands: commands}
}

// Register attaches srv to the gRPC server.
func Register(s grpc.ServiceRegistrar, srv CommandsServer) {
	s.RegisterService(&serviceDesc, srv)
}

// Apply creates or updates one entity. Refusals come back as an unsuccessful outcome,
// transport and decoding problems as gRPC errors.
func (s *Server) Apply(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	kind, payload, err := convert.FromProtoApply(req)
	if err != nil {
		return nil, toStatus("apply", err)
	}
	out, err := s.commands.Apply(ctx, kind, payload)
	if err != nil {
		return nil, toStatus("apply", err)
	}
	return reply(out)
}

// Delete soft-deletes one entity.
func (s *Server) Delete(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	dr, err := convert.FromProtoDelete(req)
	if err != nil {
		return nil, toStatus("delete", err)
	}
	out, err := s.commands.Delete(ctx, dr.Kind, dr.ID, dr.LastUpdated)
	if err != nil {
		return nil, toStatus("delete", err)
	}
	return reply(out)
}

func reply(out service.Outcome) (*structpb.Struct, error) {
	s, err := convert.ToProtoOutcome(out)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode outcome: %v", err)
	}
	return s, nil
}

func toStatus(op string, err error) error {
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return status.FromContextError(err).Err()
	case errors.Is(err, errs.ErrUnknownKind), errors.Is(err, errs.ErrValidationFailed), errors.Is(err, errs.ErrWrongType):
		return status.Errorf(codes.InvalidArgument, "%s: %v", op, err)
	case errors.Is(err, errs.ErrNotFound):
		return status.Errorf(codes.NotFound, "%s: not found", op)
	case errors.Is(err, errs.ErrStaleConcurrencyToken):
		return status.Errorf(codes.FailedPrecondition, "%s: stale", op)
	default:
		return status.Errorf(codes.Internal, "%s: %v", op, err)
	}
}

func applyHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(CommandsServer).Apply(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: MethodApply}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(CommandsServer).Apply(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

func deleteHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(CommandsServer).Delete(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: MethodDelete}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(CommandsServer).Delete(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

var serviceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*CommandsServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Apply", Handler: applyHandler},
		{MethodName: "Delete", Handler: deleteHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "league/v1/commands.proto",
}

// Client calls the command service over conn.
type Client struct {
	conn grpc.ClientConnInterface
}

// NewClient constructs a Client.
func NewClient(conn grpc.ClientConnInterface) *Client {
	return &Client{conn: conn}
}

// Apply sends an apply request.
func (c *Client) Apply(ctx context.Context, req *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.conn.Invoke(ctx, MethodApply, req, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

// Delete sends a delete request.
func (c *Client) Delete(ctx context.Context, req *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.conn.Invoke(ctx, MethodDelete, req, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
