package grpc

import (
	"context"
	"errors"
	"net"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/logging"
	pb "github.com/dmitrijs2005/gophauth/internal/proto"
	"github.com/dmitrijs2005/gophauth/internal/server/auth"
	"github.com/dmitrijs2005/gophauth/internal/server/metrics"
	"google.golang.org/grpc"
)

type userSvc interface {
	Register(ctx context.Context, name, email, password string) error
	Authenticate(ctx context.Context, email, password string) (*auth.IssuedToken, error)
}

type tokenParser interface {
	Parse(token string) (*auth.Claims, error)
}

type GRPCServer struct {
	pb.UnimplementedAuthServiceServer
	address string
	users   userSvc
	tokens  tokenParser
	metrics *metrics.Metrics
	logger  logging.Logger

	// shutdownTimeout bounds GracefulStop; zero waits for in-flight calls.
	shutdownTimeout time.Duration
}

func NewGRPCServer(a string, shutdownTimeout time.Duration, l logging.Logger, us userSvc, tp tokenParser, m *metrics.Metrics) *GRPCServer {
	return &GRPCServer{
		address:         a,
		shutdownTimeout: shutdownTimeout,
		logger:          l.With("module", "grpc_server"),
		users:           us,
		tokens:          tp,
		metrics:         m,
	}
}

func (s *GRPCServer) Run(ctx context.Context) error {

	// announces address
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	return s.Serve(ctx, listen)
}

// Serve runs the gRPC server on listen until ctx is cancelled.
func (s *GRPCServer) Serve(ctx context.Context, listen net.Listener) error {

	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(s.accessTokenInterceptor))
	pb.RegisterAuthServiceServer(srv, s)

	served := make(chan struct{})
	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		select {
		case <-ctx.Done():
			s.logger.Info(ctx, "Stopping gRPC server...")
			s.stop(srv)
		case <-served:
		}
	}()

	s.logger.Info(ctx, "Starting gRPC server", "address", listen.Addr().String())

	// starts accepting incoming connections
	err := srv.Serve(listen)
	close(served)
	<-stopped

	if errors.Is(err, grpc.ErrServerStopped) {
		return nil
	}
	return err
}

// stop drains in-flight calls, forcing the server down once shutdownTimeout
// has passed.
func (s *GRPCServer) stop(srv *grpc.Server) {
	drained := make(chan struct{})
	go func() {
		srv.GracefulStop()
		close(drained)
	}()

	if s.shutdownTimeout <= 0 {
		<-drained
		return
	}

	timer := time.NewTimer(s.shutdownTimeout)
	defer timer.Stop()

	select {
	case <-drained:
	case <-timer.C:
		s.logger.Warn(context.Background(), "gRPC graceful stop timed out, forcing", "timeout", s.shutdownTimeout)
		srv.Stop()
		<-drained
	}
}
