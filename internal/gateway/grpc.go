package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"

	"github.com/zjrosen/gitglance/internal/log"
)

const (
	hostServiceName = "gitglance.host.v1.Host"
	invokeMethod    = "/" + hostServiceName + "/Invoke"
)

// invokeRequest is the wire form of a command call.
type invokeRequest struct {
	ID      string          `json:"id"`
	Command string          `json:"command"`
	Args    json.RawMessage `json:"args,omitempty"`
}

// invokeResponse carries either a result or a host error payload.
type invokeResponse struct {
	ID     string          `json:"id"`
	Result json.RawMessage `json:"result,omitempty"`
	Error  *errorPayload   `json:"error,omitempty"`
}

type errorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// jsonCodec lets the host service run over gRPC without generated protobuf
// types; both ends force it, so content-subtype negotiation is not needed.
type jsonCodec struct{}

func (jsonCodec) Marshal(v any) ([]byte, error)      { return json.Marshal(v) }
func (jsonCodec) Unmarshal(data []byte, v any) error { return json.Unmarshal(data, v) }
func (jsonCodec) Name() string                       { return "json" }

// hostService is the server-side contract registered with gRPC.
type hostService interface {
	Invoke(ctx context.Context, req *invokeRequest) (*invokeResponse, error)
}

var hostServiceDesc = grpc.ServiceDesc{
	ServiceName: hostServiceName,
	HandlerType: (*hostService)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Invoke", Handler: invokeHandler},
	},
	Streams: []grpc.StreamDesc{},
}

func invokeHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(invokeRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(hostService).Invoke(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: invokeMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(hostService).Invoke(ctx, req.(*invokeRequest))
	}
	return interceptor(ctx, in, info, handler)
}

// server adapts a Handler to the gRPC host service.
type server struct {
	handler Handler
}

func (s *server) Invoke(ctx context.Context, req *invokeRequest) (*invokeResponse, error) {
	if req.Command == "" {
		return nil, status.Error(codes.InvalidArgument, ErrEmptyCommand.Error())
	}

	result, err := s.handler.Handle(ctx, req.Command, req.Args)
	if err != nil {
		return &invokeResponse{
			ID:    req.ID,
			Error: &errorPayload{Code: errorCode(err), Message: err.Error()},
		}, nil
	}

	raw, err := json.Marshal(result)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encoding result: %v", err)
	}
	return &invokeResponse{ID: req.ID, Result: raw}, nil
}

// NewServer returns a gRPC server exposing h as the host service.
// The caller owns Serve and Stop.
func NewServer(h Handler, opts ...grpc.ServerOption) *grpc.Server {
	opts = append([]grpc.ServerOption{
		grpc.ForceServerCodec(jsonCodec{}),
		grpc.UnaryInterceptor(logUnary),
	}, opts...)
	srv := grpc.NewServer(opts...)
	srv.RegisterService(&hostServiceDesc, &server{handler: h})
	return srv
}

func logUnary(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	start := time.Now()
	resp, err := handler(ctx, req)
	if r, ok := req.(*invokeRequest); ok {
		log.Debug(log.CatGateway, "Served command",
			"id", r.ID,
			"command", r.Command,
			"duration", time.Since(start),
			"error", err)
	}
	return resp, err
}

// Client invokes commands on a remote host over gRPC.
type Client struct {
	conn *grpc.ClientConn
}

var _ Invoker = (*Client)(nil)

// Dial creates a Client for target. Connections are established lazily on
// the first call; extra options are appended after insecure credentials.
func Dial(target string, opts ...grpc.DialOption) (*Client, error) {
	opts = append([]grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}, opts...)
	conn, err := grpc.NewClient(target, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating host client for %s: %w", target, err)
	}
	return &Client{conn: conn}, nil
}

// Invoke implements Invoker.
func (c *Client) Invoke(ctx context.Context, name string, args Args) (json.RawMessage, error) {
	if name == "" {
		return nil, &TransportError{Command: name, Err: ErrEmptyCommand}
	}

	rawArgs, err := marshalArgs(args)
	if err != nil {
		return nil, &TransportError{Command: name, Err: err}
	}

	req := &invokeRequest{ID: uuid.NewString(), Command: name, Args: rawArgs}
	var resp invokeResponse
	if err := c.conn.Invoke(ctx, invokeMethod, req, &resp, grpc.ForceCodec(jsonCodec{})); err != nil {
		log.Debug(log.CatGateway, "Host call failed", "id", req.ID, "command", name, "error", err)
		return nil, &TransportError{Command: name, Err: err}
	}

	if resp.Error != nil {
		return nil, &HostError{Command: name, Code: resp.Error.Code, Message: resp.Error.Message}
	}
	return resp.Result, nil
}

// Close releases the underlying connection.
func (c *Client) Close() error {
	return c.conn.Close()
}
