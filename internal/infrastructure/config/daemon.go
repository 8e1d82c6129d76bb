package config

import "time"

// DaemonConfig holds daemon service configuration
type DaemonConfig struct {
	// Unix socket path the gRPC server listens on
	SocketPath string `mapstructure:"socket_path" validate:"required"`

	// PID file location
	PIDFile string `mapstructure:"pid_file" validate:"required"`

	// Graceful shutdown timeout
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"required"`
}

// LifecycleConfig tunes the stage transition engine
type LifecycleConfig struct {
	// Crops processed per chunk of a bulk transition
	ChunkSize int `mapstructure:"chunk_size" validate:"min=1,max=10000"`

	// How long a transition waits for its batch locks before giving up
	LockTimeout time.Duration `mapstructure:"lock_timeout" validate:"required"`

	// Actor recorded when a caller does not name one
	DefaultActor string `mapstructure:"default_actor"`
}

// SchedulerConfig tunes the background task sweeper
type SchedulerConfig struct {
	Enabled bool `mapstructure:"enabled"`

	SweepInterval time.Duration `mapstructure:"sweep_interval" validate:"required"`

	// Trigger due tasks automatically instead of only publishing them
	AutoTrigger bool `mapstructure:"auto_trigger"`

	// Automatic triggers per second and burst
	TriggerRate  float64 `mapstructure:"trigger_rate" validate:"gt=0"`
	TriggerBurst int     `mapstructure:"trigger_burst" validate:"min=1"`

	// Maximum due tasks collected per sweep
	DueLimit int `mapstructure:"due_limit" validate:"min=1"`
}
