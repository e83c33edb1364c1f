package transport

import (
	"context"
	"fmt"
	"log/slog"
	"net"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	coltracepb "go.opentelemetry.io/proto/otlp/collector/trace/v1"

	"clnrmgo/internal/readiness"
)

// GRPCIngest is the `OtlpGrpc{endpoint}` readiness source: a standard
// OTLP/gRPC TraceService receiver, the protobuf counterpart to
// HTTPIngest built on the same otlp/collector/trace/v1 contract the
// teacher's otlptracegrpc exporter client speaks on the other end of
// the wire.
type GRPCIngest struct {
	buffer
	coltracepb.UnimplementedTraceServiceServer

	server   *grpc.Server
	listener net.Listener
	logger   *slog.Logger
	auth     *TokenAuth
}

// NewGRPCIngest binds addr (e.g. "127.0.0.1:0") immediately so Start
// can run the accept loop without a race on the bound port.
func NewGRPCIngest(addr string, auth *TokenAuth, logger *slog.Logger) (*GRPCIngest, error) {
	if auth == nil {
		auth = &TokenAuth{}
	}

	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("otlp grpc ingest: listen %s: %w", addr, err)
	}

	ing := &GRPCIngest{listener: lis, logger: logger, auth: auth}
	ing.server = grpc.NewServer(grpc.UnaryInterceptor(ing.authInterceptor))
	coltracepb.RegisterTraceServiceServer(ing.server, ing)

	return ing, nil
}

// Addr returns the bound listener address, useful when addr was ":0".
func (g *GRPCIngest) Addr() string {
	return g.listener.Addr().String()
}

// Start runs the accept loop until Shutdown is called or the server
// fails; like grpc.Server.Serve, it returns nil after Shutdown and a
// non-nil error otherwise.
func (g *GRPCIngest) Start(context.Context) error {
	g.logger.Info("otlp grpc ingest listening", slog.String("addr", g.listener.Addr().String()))

	return g.server.Serve(g.listener)
}

// Shutdown stops accepting new RPCs and waits for in-flight ones to
// finish, the grpc.Server analogue of http.Server.Shutdown.
func (g *GRPCIngest) Shutdown(context.Context) error {
	g.server.GracefulStop()

	return nil
}

// Export implements coltracepb.TraceServiceServer.
func (g *GRPCIngest) Export(
	_ context.Context,
	req *coltracepb.ExportTraceServiceRequest,
) (*coltracepb.ExportTraceServiceResponse, error) {
	spans := resourceSpansToSpans(req.GetResourceSpans())
	g.buffer.append(spans)

	g.logger.Debug("otlp grpc spans received", slog.Int("count", len(spans)))

	return &coltracepb.ExportTraceServiceResponse{}, nil
}

func (g *GRPCIngest) authInterceptor(
	ctx context.Context,
	req any,
	_ *grpc.UnaryServerInfo,
	handler grpc.UnaryHandler,
) (any, error) {
	if !g.auth.Enabled() {
		return handler(ctx, req)
	}

	md, ok := metadata.FromIncomingContext(ctx)
	if !ok || !g.auth.Verify(bearerFromMetadata(md)) {
		return nil, status.Error(codes.Unauthenticated, ErrInvalidToken.Error())
	}

	return handler(ctx, req)
}

func bearerFromMetadata(md metadata.MD) string {
	values := md.Get("authorization")
	if len(values) == 0 {
		return ""
	}

	const prefix = "Bearer "
	v := values[0]

	if len(v) <= len(prefix) || v[:len(prefix)] != prefix {
		return ""
	}

	return v[len(prefix):]
}

var _ readiness.Source = (*GRPCIngest)(nil)
