package cli

import (
	"fmt"
	"net/url"

	"github.com/spf13/cobra"

	"github.com/andrescamacho/microgreens-go/internal/infrastructure/config"
)

// NewConfigCommand creates the config command with subcommands
func NewConfigCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage configuration settings",
		Long: `Manage greens configuration settings.

Configuration is loaded from multiple sources with priority:
1. Environment variables (GREENS_* prefix)
2. Config file (config.yaml)
3. Default values

User preferences (default actor, socket) are stored in ~/.greens/config.json

Examples:
  greens config show
  greens config set-actor alice
  greens config set-socket /run/greens/daemon.sock`,
	}

	cmd.AddCommand(newConfigShowCommand())
	cmd.AddCommand(newConfigSetActorCommand())
	cmd.AddCommand(newConfigSetSocketCommand())

	return cmd
}

func newConfigShowCommand() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(configPath)
			if err != nil {
				fmt.Printf("Warning: Failed to load config: %v\n", err)
				fmt.Println("Using default configuration.")
				cfg = config.LoadConfigOrDefault(configPath)
			}

			userConfigHandler, err := config.NewUserConfigHandler()
			if err != nil {
				return fmt.Errorf("failed to create user config handler: %w", err)
			}
			userCfg, err := userConfigHandler.Load()
			if err != nil {
				fmt.Printf("Warning: Failed to load user config: %v\n\n", err)
				userCfg = &config.UserConfig{}
			}

			fmt.Println("Greens Configuration")
			fmt.Println("====================")

			fmt.Println("User Preferences:")
			fmt.Printf("  Config file:      %s\n", userConfigHandler.GetConfigPath())
			fmt.Printf("  Default actor:    %s\n", orDash(userCfg.DefaultActor))
			fmt.Printf("  Socket override:  %s\n", orDash(userCfg.SocketPath))

			fmt.Println("\nDatabase:")
			fmt.Printf("  Type:             %s\n", cfg.Database.Type)
			if cfg.Database.URL != "" {
				fmt.Printf("  URL:              %s\n", maskPassword(cfg.Database.URL))
			} else if cfg.Database.Type == "postgres" {
				fmt.Printf("  Host:             %s\n", cfg.Database.Host)
				fmt.Printf("  Port:             %d\n", cfg.Database.Port)
				fmt.Printf("  Database:         %s\n", cfg.Database.Name)
				fmt.Printf("  User:             %s\n", cfg.Database.User)
			} else {
				fmt.Printf("  Path:             %s\n", cfg.Database.Path)
			}

			fmt.Println("\nDaemon:")
			fmt.Printf("  Socket Path:      %s\n", cfg.Daemon.SocketPath)
			fmt.Printf("  PID File:         %s\n", cfg.Daemon.PIDFile)

			fmt.Println("\nLifecycle:")
			fmt.Printf("  Chunk Size:       %d\n", cfg.Lifecycle.ChunkSize)
			fmt.Printf("  Lock Timeout:     %s\n", cfg.Lifecycle.LockTimeout)
			fmt.Printf("  Default Actor:    %s\n", cfg.Lifecycle.DefaultActor)

			fmt.Println("\nScheduler:")
			fmt.Printf("  Enabled:          %t\n", cfg.Scheduler.Enabled)
			fmt.Printf("  Sweep Interval:   %s\n", cfg.Scheduler.SweepInterval)
			fmt.Printf("  Auto Trigger:     %t (%.1f/s, burst %d)\n", cfg.Scheduler.AutoTrigger, cfg.Scheduler.TriggerRate, cfg.Scheduler.TriggerBurst)

			fmt.Println("\nMetrics:")
			fmt.Printf("  Enabled:          %t\n", cfg.Metrics.Enabled)
			fmt.Printf("  Listen:           %s:%d%s\n", cfg.Metrics.Host, cfg.Metrics.Port, cfg.Metrics.Path)

			fmt.Println("\nLogging:")
			fmt.Printf("  Level:            %s\n", cfg.Logging.Level)
			fmt.Printf("  Format:           %s\n", cfg.Logging.Format)
			fmt.Printf("  Output:           %s\n", cfg.Logging.Output)

			return nil
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "Config file to load")
	return cmd
}

func newConfigSetActorCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "set-actor <name>",
		Short: "Set the actor recorded on your stage changes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			handler, err := config.NewUserConfigHandler()
			if err != nil {
				return fmt.Errorf("failed to create user config handler: %w", err)
			}
			if err := handler.SetDefaultActor(args[0]); err != nil {
				return fmt.Errorf("failed to set default actor: %w", err)
			}
			fmt.Printf("✓ Default actor set to %s\n", args[0])
			return nil
		},
	}
}

func newConfigSetSocketCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "set-socket <path>",
		Short: "Set the daemon socket the CLI connects to",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			handler, err := config.NewUserConfigHandler()
			if err != nil {
				return fmt.Errorf("failed to create user config handler: %w", err)
			}
			if err := handler.SetSocketPath(args[0]); err != nil {
				return fmt.Errorf("failed to set socket path: %w", err)
			}
			fmt.Printf("✓ Socket set to %s\n", args[0])
			return nil
		},
	}
}

// maskPassword hides the password of a database URL
func maskPassword(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.User == nil {
		return raw
	}
	if _, ok := u.User.Password(); ok {
		u.User = url.UserPassword(u.User.Username(), "****")
	}
	return u.String()
}
