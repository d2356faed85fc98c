package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"

	"google.golang.org/grpc"
	"google.golang.org/grpc/reflection"

	"github.com/oggyb/tripmate-match/internal/config"
)

// Registrar adds one service to a gRPC server.
type Registrar interface {
	Register(s *grpc.Server)
}

// GRPCServer is a gRPC server bound to the configured address.
type GRPCServer struct {
	addr string
	srv  *grpc.Server
	log  *slog.Logger
}

// NewGRPCServer builds a gRPC server and registers all provided services.
func NewGRPCServer(cfg *config.Config, log *slog.Logger, registrars ...Registrar) *GRPCServer {
	s := grpc.NewServer(grpc.ChainUnaryInterceptor(loggingInterceptor(log)))

	// register all services
	for _, r := range registrars {
		r.Register(s)
	}

	// enable reflection for easier debugging with grpcurl
	reflection.Register(s)

	return &GRPCServer{
		addr: net.JoinHostPort(cfg.GRPC.Host, cfg.GRPC.Port),
		srv:  s,
		log:  log,
	}
}

// Run listens and serves until ctx is cancelled, then drains in-flight
// calls.
func (g *GRPCServer) Run(ctx context.Context) error {
	lis, err := net.Listen("tcp", g.addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", g.addr, err)
	}
	return g.serve(ctx, lis)
}

func (g *GRPCServer) serve(ctx context.Context, lis net.Listener) error {
	errCh := make(chan error, 1)
	go func() {
		g.log.Info("starting gRPC server", "addr", lis.Addr().String())
		errCh <- g.srv.Serve(lis)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, grpc.ErrServerStopped) {
			return nil
		}
		return err
	case <-ctx.Done():
		g.log.Info("stopping gRPC server")
		g.srv.GracefulStop()
		return nil
	}
}

func loggingInterceptor(log *slog.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		resp, err := handler(ctx, req)
		if err != nil {
			log.Debug("grpc call failed", "method", info.FullMethod, "err", err)
		}
		return resp, err
	}
}
