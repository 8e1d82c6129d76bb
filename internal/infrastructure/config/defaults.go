package config

import "time"

// SetDefaults sets default values for all configuration fields
func SetDefaults(cfg *Config) {
	// Database defaults
	if cfg.Database.Type == "" {
		cfg.Database.Type = "postgres"
	}
	if cfg.Database.Host == "" {
		cfg.Database.Host = "localhost"
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = 5432
	}
	if cfg.Database.User == "" {
		cfg.Database.User = "greens"
	}
	if cfg.Database.Name == "" {
		cfg.Database.Name = "greens"
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.Database.Path == "" {
		cfg.Database.Path = "greens.db"
	}
	if cfg.Database.Pool.MaxOpen == 0 {
		cfg.Database.Pool.MaxOpen = 25
	}
	if cfg.Database.Pool.MaxIdle == 0 {
		cfg.Database.Pool.MaxIdle = 5
	}
	if cfg.Database.Pool.MaxLifetime == 0 {
		cfg.Database.Pool.MaxLifetime = 5 * time.Minute
	}

	// Daemon defaults
	if cfg.Daemon.SocketPath == "" {
		cfg.Daemon.SocketPath = "/tmp/greens-daemon.sock"
	}
	if cfg.Daemon.PIDFile == "" {
		cfg.Daemon.PIDFile = "/tmp/greens-daemon.pid"
	}
	if cfg.Daemon.ShutdownTimeout == 0 {
		cfg.Daemon.ShutdownTimeout = 30 * time.Second
	}

	// Lifecycle defaults
	if cfg.Lifecycle.ChunkSize == 0 {
		cfg.Lifecycle.ChunkSize = 100
	}
	if cfg.Lifecycle.LockTimeout == 0 {
		cfg.Lifecycle.LockTimeout = 10 * time.Second
	}
	if cfg.Lifecycle.DefaultActor == "" {
		cfg.Lifecycle.DefaultActor = "system"
	}

	// Scheduler defaults
	if cfg.Scheduler.SweepInterval == 0 {
		cfg.Scheduler.SweepInterval = 60 * time.Second
	}
	if cfg.Scheduler.TriggerRate == 0 {
		cfg.Scheduler.TriggerRate = 5
	}
	if cfg.Scheduler.TriggerBurst == 0 {
		cfg.Scheduler.TriggerBurst = 10
	}
	if cfg.Scheduler.DueLimit == 0 {
		cfg.Scheduler.DueLimit = 500
	}

	// Metrics defaults
	if cfg.Metrics.Host == "" {
		cfg.Metrics.Host = "localhost"
	}
	if cfg.Metrics.Port == 0 {
		cfg.Metrics.Port = 9090
	}
	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = "/metrics"
	}

	// Logging defaults
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "text"
	}
	if cfg.Logging.Output == "" {
		cfg.Logging.Output = "stdout"
	}
}
