package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	grpcAdapter "github.com/andrescamacho/microgreens-go/internal/adapters/grpc"
	"github.com/andrescamacho/microgreens-go/internal/infrastructure/config"
	"github.com/andrescamacho/microgreens-go/internal/infrastructure/pidfile"
)

// NewDaemonCommand creates the daemon command
func NewDaemonCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "daemon",
		Short: "Inspect the greens daemon",
	}
	cmd.AddCommand(newDaemonStatusCommand())
	return cmd
}

func newDaemonStatusCommand() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Check whether the daemon is running and serving",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.LoadConfigOrDefault(configPath)

			pid, running, err := pidfile.New(cfg.Daemon.PIDFile).Status()
			if err != nil {
				return fmt.Errorf("failed to read pid file: %w", err)
			}
			if !running {
				fmt.Println("✗ Daemon is not running")
				return nil
			}

			client, err := grpcAdapter.NewDaemonClientGRPC(socketPath)
			if err != nil {
				return fmt.Errorf("failed to connect to daemon: %w", err)
			}
			defer client.Close()

			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			state, err := client.Health(ctx)
			if err != nil {
				fmt.Printf("✗ Daemon process %d is running but not answering: %v\n", pid, err)
				return nil
			}

			fmt.Println("✓ Daemon is healthy")
			fmt.Printf("  PID:     %d\n", pid)
			fmt.Printf("  Socket:  %s\n", socketPath)
			fmt.Printf("  Status:  %s\n", state)
			return nil
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "Daemon config file (to locate the pid file)")
	return cmd
}
