package grpc

import (
	"context"
	"fmt"
	"net"
	"os"
	"runtime/debug"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"

	"github.com/andrescamacho/microgreens-go/internal/application/logging"
)

// DaemonServer serves the Lifecycle service and the gRPC health service on a
// unix socket. The daemon is the single writer; the CLI always goes through it.
type DaemonServer struct {
	listener        net.Listener
	socketPath      string
	server          *grpc.Server
	health          *health.Server
	logger          logging.OperationLogger
	shutdownTimeout time.Duration
}

// NewDaemonServer creates a new daemon server instance listening on socketPath
func NewDaemonServer(service LifecycleServer, socketPath string, logger logging.OperationLogger, shutdownTimeout time.Duration) (*DaemonServer, error) {
	// Remove existing socket file if present
	if err := os.RemoveAll(socketPath); err != nil {
		return nil, fmt.Errorf("failed to remove existing socket: %w", err)
	}

	listener, err := net.Listen("unix", socketPath)
	if err != nil {
		return nil, fmt.Errorf("failed to create unix socket listener: %w", err)
	}

	// Set socket permissions (owner only)
	if err := os.Chmod(socketPath, 0600); err != nil {
		listener.Close()
		return nil, fmt.Errorf("failed to set socket permissions: %w", err)
	}

	return newDaemonServer(service, listener, logger, shutdownTimeout), nil
}

// NewDaemonServerOnListener serves on an already open listener
func NewDaemonServerOnListener(service LifecycleServer, listener net.Listener, logger logging.OperationLogger) *DaemonServer {
	return newDaemonServer(service, listener, logger, 0)
}

func newDaemonServer(service LifecycleServer, listener net.Listener, logger logging.OperationLogger, shutdownTimeout time.Duration) *DaemonServer {
	if shutdownTimeout <= 0 {
		shutdownTimeout = 30 * time.Second
	}
	s := &DaemonServer{
		listener:        listener,
		socketPath:      listener.Addr().String(),
		health:          health.NewServer(),
		logger:          logger,
		shutdownTimeout: shutdownTimeout,
	}
	s.server = grpc.NewServer(grpc.ChainUnaryInterceptor(s.recoverInterceptor))
	RegisterLifecycleServer(s.server, service)
	healthpb.RegisterHealthServer(s.server, s.health)
	return s
}

// Start serves until ctx is cancelled, then drains in-flight calls
func (s *DaemonServer) Start(ctx context.Context) error {
	fmt.Printf("Daemon server listening on unix socket: %s\n", s.socketPath)

	s.health.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_SERVING)
	s.health.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)

	errChan := make(chan error, 1)
	go func() {
		if err := s.server.Serve(s.listener); err != nil && err != grpc.ErrServerStopped {
			errChan <- fmt.Errorf("gRPC server error: %w", err)
		}
		close(errChan)
	}()

	select {
	case err, ok := <-errChan:
		if ok {
			return err
		}
		return nil
	case <-ctx.Done():
		fmt.Println("Initiating graceful shutdown of gRPC server...")
		s.stop()
		return nil
	}
}

func (s *DaemonServer) stop() {
	s.health.Shutdown()

	done := make(chan struct{})
	go func() {
		s.server.GracefulStop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(s.shutdownTimeout):
		fmt.Printf("Graceful shutdown exceeded %s, forcing stop\n", s.shutdownTimeout)
		s.server.Stop()
	}
}

// recoverInterceptor turns a handler panic into an Internal status
func (s *DaemonServer) recoverInterceptor(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (resp interface{}, err error) {
	defer func() {
		if r := recover(); r != nil {
			if s.logger != nil {
				s.logger.Log(logging.LevelError, fmt.Sprintf("panic in %s: %v", info.FullMethod, r), map[string]interface{}{
					"stack": string(debug.Stack()),
				})
			}
			err = status.Errorf(codes.Internal, "internal error in %s", info.FullMethod)
		}
	}()
	return handler(ctx, req)
}
