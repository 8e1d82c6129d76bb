package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/andrescamacho/microgreens-go/internal/infrastructure/config"
)

var (
	// Global flags
	socketPath string
	actor      string
	outputJSON bool
	timeout    time.Duration
)

// NewRootCommand creates the root command for the CLI
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "greens",
		Short: "Greens CLI - Drive crop batches through their growing stages",
		Long: `Greens CLI talks to the greens daemon over its Unix socket.

Examples:
  greens batch create --recipe sunflower-std --trays 12
  greens batch state <batch-id>
  greens crop advance <crop-id> <crop-id>
  greens crop revert <crop-id> --reason "moved back by mistake"
  greens batch advance <batch-id> --stage blackout
  greens task due
  greens plan aggregate --signal ORD-1,sunflower,450,2026-05-04
  greens transitions --batch <batch-id>`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return applyUserDefaults(cmd)
		},
		SilenceUsage: true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
	}

	// Global flags
	rootCmd.PersistentFlags().StringVar(&socketPath, "socket", getDefaultSocketPath(),
		"Path to daemon Unix socket")
	rootCmd.PersistentFlags().StringVar(&actor, "actor", "",
		"User recorded on stage changes (defaults to the configured actor)")
	rootCmd.PersistentFlags().BoolVar(&outputJSON, "json", false,
		"Print raw JSON responses")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 30*time.Second,
		"Deadline for each daemon call")

	// Add command groups
	rootCmd.AddCommand(NewConfigCommand())
	rootCmd.AddCommand(NewBatchCommand())
	rootCmd.AddCommand(NewCropCommand())
	rootCmd.AddCommand(NewTaskCommand())
	rootCmd.AddCommand(NewPlanCommand())
	rootCmd.AddCommand(NewTransitionsCommand())
	rootCmd.AddCommand(NewDaemonCommand())

	return rootCmd
}

// applyUserDefaults fills unset global flags from ~/.greens/config.json
func applyUserDefaults(cmd *cobra.Command) error {
	handler, err := config.NewUserConfigHandler()
	if err != nil {
		return nil
	}
	userCfg, err := handler.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to load user config: %v\n", err)
		return nil
	}
	if !cmd.Flags().Changed("socket") && os.Getenv("GREENS_SOCKET") == "" && userCfg.SocketPath != "" {
		socketPath = userCfg.SocketPath
	}
	if actor == "" {
		actor = userCfg.DefaultActor
	}
	return nil
}

// getDefaultSocketPath returns the default socket path
func getDefaultSocketPath() string {
	if path := os.Getenv("GREENS_SOCKET"); path != "" {
		return path
	}
	return "/tmp/greens-daemon.sock"
}

// Execute runs the root command
func Execute() {
	rootCmd := NewRootCommand()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
