package server

import (
	"context"
	"net"
	"time"

	"github.com/apex/log"
	"google.golang.org/grpc"
	"google.golang.org/grpc/reflection"
	"google.golang.org/grpc/status"
)

// GRPCServer wraps a gRPC server and listener.
type GRPCServer struct {
	Server   *grpc.Server
	Listener net.Listener
}

func NewGRPCServer(addr string, logger log.Interface) (*GRPCServer, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}

	s := grpc.NewServer(grpc.UnaryInterceptor(loggingInterceptor(logger)))
	reflection.Register(s)

	return &GRPCServer{Server: s, Listener: ln}, nil
}

func (s *GRPCServer) Serve() error {
	return s.Server.Serve(s.Listener)
}

// Stop drains in-flight calls until ctx ends, then forces the stop.
func (s *GRPCServer) Stop(ctx context.Context) {
	done := make(chan struct{})
	go func() {
		s.Server.GracefulStop()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		s.Server.Stop()
	}
}

func loggingInterceptor(logger log.Interface) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		started := time.Now()
		resp, err := handler(ctx, req)
		if logger != nil {
			entry := logger.WithFields(log.Fields{
				"method":   info.FullMethod,
				"code":     status.Code(err).String(),
				"duration": time.Since(started).String(),
			})
			if err != nil {
				entry.WithError(err).Warn("grpc call failed")
			} else {
				entry.Debug("grpc call")
			}
		}
		return resp, err
	}
}
