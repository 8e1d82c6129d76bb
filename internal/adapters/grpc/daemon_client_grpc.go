package grpc

import (
	"context"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/protobuf/types/known/structpb"
)

// DaemonClientGRPC calls the Lifecycle service of a running daemon
type DaemonClientGRPC struct {
	conn *grpc.ClientConn
}

// NewDaemonClientGRPC creates a new gRPC daemon client
// socketPath should be a Unix domain socket path (e.g., "/tmp/greens-daemon.sock")
func NewDaemonClientGRPC(socketPath string) (*DaemonClientGRPC, error) {
	conn, err := grpc.NewClient(
		"unix:"+socketPath,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to daemon socket: %w", err)
	}
	return &DaemonClientGRPC{conn: conn}, nil
}

// NewDaemonClientFromConn wraps an existing connection
func NewDaemonClientFromConn(conn *grpc.ClientConn) *DaemonClientGRPC {
	return &DaemonClientGRPC{conn: conn}
}

// Close closes the gRPC connection
func (c *DaemonClientGRPC) Close() error {
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

// Call sends req to method and decodes the reply into resp. resp may be nil.
func (c *DaemonClientGRPC) Call(ctx context.Context, method string, req, resp interface{}) error {
	in, err := ToStruct(req)
	if err != nil {
		return fmt.Errorf("failed to encode %s request: %w", method, err)
	}

	out := &structpb.Struct{}
	if err := c.conn.Invoke(ctx, FullMethod(method), in, out); err != nil {
		return err
	}
	if resp == nil {
		return nil
	}
	if err := FromStruct(out, resp); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", method, err)
	}
	return nil
}

// CallRaw sends req and returns the reply payload as a generic map
func (c *DaemonClientGRPC) CallRaw(ctx context.Context, method string, req interface{}) (map[string]interface{}, error) {
	var out map[string]interface{}
	if err := c.Call(ctx, method, req, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Health reports the daemon's serving status
func (c *DaemonClientGRPC) Health(ctx context.Context) (string, error) {
	resp, err := healthpb.NewHealthClient(c.conn).Check(ctx, &healthpb.HealthCheckRequest{Service: ServiceName})
	if err != nil {
		return "", fmt.Errorf("health check failed: %w", err)
	}
	return resp.GetStatus().String(), nil
}
