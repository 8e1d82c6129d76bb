package config

// MetricsConfig configures the HTTP listener that serves the Prometheus
// endpoint alongside the read-only feeds
type MetricsConfig struct {
	// Enabled controls whether metrics collection and the HTTP listener are active
	Enabled bool `mapstructure:"enabled"`

	// Port for the HTTP server
	Port int `mapstructure:"port" validate:"omitempty,min=1024,max=65535"`

	// Host to bind the HTTP server (default: localhost)
	Host string `mapstructure:"host"`

	// Path for the metrics endpoint (default: /metrics)
	Path string `mapstructure:"path"`

	// Origins allowed to read the feeds cross-origin
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}
