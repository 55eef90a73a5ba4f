package transportgrpc

import (
	"fmt"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	grpcinterceptors "github.com/toanftraanf/cdyt-clone-in-springboot/internal/transport/grpc/interceptors"
)

// ServerDependencies encapsulates services required by the gRPC server layer.
type ServerDependencies struct {
	Tokens      grpcinterceptors.TokenValidator
	Identities  grpcinterceptors.IdentityResolver
	Permissions grpcinterceptors.PermissionChecker
	Decisions   grpcinterceptors.DecisionRecorder
	Metrics     *grpcinterceptors.GRPCMetrics
	Tracing     *grpcinterceptors.Tracing
	Logger      *zap.Logger
	// PublicMethods are added to the health check, which is always public.
	PublicMethods []string
}

// Server bundles the gRPC server with its health service.
type Server struct {
	*grpc.Server
	Health *health.Server
}

// NewServer wires the gRPC server with tracing, metrics and the auth pipeline
// applied to every unary call.
func NewServer(deps ServerDependencies) (*Server, error) {
	if deps.Tokens == nil || deps.Identities == nil || deps.Permissions == nil {
		return nil, fmt.Errorf("token validator, identity resolver and permission checker are required")
	}

	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	public := append([]string{healthpb.Health_Check_FullMethodName}, deps.PublicMethods...)
	auth := grpcinterceptors.NewAuthInterceptor(deps.Tokens, deps.Identities, deps.Permissions, grpcinterceptors.AuthOptions{
		PublicMethods: public,
		Metrics:       deps.Decisions,
		Logger:        logger,
	})

	server := grpc.NewServer(
		deps.Tracing.ServerOption(),
		grpc.ChainUnaryInterceptor(
			deps.Metrics.UnaryServerInterceptor(),
			auth.UnaryServerInterceptor(),
		),
	)

	healthServer := health.NewServer()
	healthServer.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(server, healthServer)

	reflection.Register(server)

	return &Server{Server: server, Health: healthServer}, nil
}

// Shutdown marks the service as not serving and drains in-flight calls.
func (s *Server) Shutdown() {
	s.Health.Shutdown()
	s.GracefulStop()
}
