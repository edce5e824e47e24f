// Package grpc exposes the session lifecycle over gRPC.
package grpc

import (
	"context"
	"net"
	"time"

	"github.com/dmitrijs2005/livedesk/internal/logging"
	"github.com/dmitrijs2005/livedesk/internal/server/models"
	"github.com/dmitrijs2005/livedesk/internal/server/services"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// Accounts is implemented by services.UserService.
type Accounts interface {
	Register(ctx context.Context, username, password string) (*models.User, *services.TokenPair, error)
	Login(ctx context.Context, username, password string) (*services.TokenPair, error)
}

// Sessions is implemented by services.SessionService.
type Sessions interface {
	Refresh(ctx context.Context, refreshToken string) (*services.TokenPair, error)
	Logout(ctx context.Context, refreshToken string) error
	LogoutAll(ctx context.Context, userID string) error
	Authenticate(ctx context.Context, accessToken string) (string, error)
}

type GRPCServer struct {
	address      string
	accounts     Accounts
	sessions     Sessions
	logger       logging.Logger
	queryTimeout time.Duration
	health       *health.Server
}

func NewGRPCServer(addr string, l logging.Logger, accounts Accounts, sessions Sessions, queryTimeout time.Duration) *GRPCServer {
	return &GRPCServer{
		address:      addr,
		logger:       l.With("module", "grpc_server"),
		accounts:     accounts,
		sessions:     sessions,
		queryTimeout: queryTimeout,
		health:       health.NewServer(),
	}
}

func (s *GRPCServer) newServer() *grpc.Server {
	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(
		s.loggingInterceptor,
		s.timeoutInterceptor,
		s.accessTokenInterceptor,
	))

	RegisterSessionServiceServer(srv, &handler{s: s})
	healthpb.RegisterHealthServer(srv, s.health)
	return srv
}

// Run listens on the configured address and serves until ctx is done.
func (s *GRPCServer) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}
	return s.Serve(ctx, listen)
}

// Serve serves on lis until ctx is done, then stops gracefully.
func (s *GRPCServer) Serve(ctx context.Context, lis net.Listener) error {
	srv := s.newServer()

	s.health.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	s.health.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_SERVING)

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping gRPC server...")
		s.health.Shutdown()
		srv.GracefulStop()
	}()

	s.logger.Info(ctx, "Starting gRPC server", "address", lis.Addr().String())

	if err := srv.Serve(lis); err != nil {
		return err
	}
	return nil
}
