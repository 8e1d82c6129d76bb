package cli

import (
	"context"
	"fmt"

	"google.golang.org/grpc/status"

	grpcAdapter "github.com/andrescamacho/microgreens-go/internal/adapters/grpc"
)

// callDaemon sends one request to the daemon and decodes its reply into resp
func callDaemon(method string, req, resp interface{}) error {
	client, err := grpcAdapter.NewDaemonClientGRPC(socketPath)
	if err != nil {
		return fmt.Errorf("failed to connect to daemon: %w", err)
	}
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := client.Call(ctx, method, req, resp); err != nil {
		if st, ok := status.FromError(err); ok {
			return fmt.Errorf("%s: %s (%s)", method, st.Message(), st.Code())
		}
		return fmt.Errorf("%s: %w", method, err)
	}
	return nil
}
