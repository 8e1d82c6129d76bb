package config_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andrescamacho/microgreens-go/internal/application/common"
	"github.com/andrescamacho/microgreens-go/internal/infrastructure/config"
)

func TestLoadConfig_FileAndEnvironment(t *testing.T) {
	// Arrange
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yaml := `
database:
  type: sqlite
  path: ` + filepath.Join(dir, "greens.db") + `
lifecycle:
  chunk_size: 25
scheduler:
  enabled: true
  sweep_interval: 30s
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0644))
	t.Setenv("GREENS_SCHEDULER_AUTO_TRIGGER", "true")
	t.Setenv("GREENS_LIFECYCLE_LOCK_TIMEOUT", "3s")

	// Act
	cfg, err := config.LoadConfig(path)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, "sqlite", cfg.Database.Type)
	assert.Equal(t, 25, cfg.Lifecycle.ChunkSize)
	assert.Equal(t, 3*time.Second, cfg.Lifecycle.LockTimeout)
	assert.True(t, cfg.Scheduler.Enabled)
	assert.True(t, cfg.Scheduler.AutoTrigger)
	assert.Equal(t, 30*time.Second, cfg.Scheduler.SweepInterval)
	assert.Equal(t, "/tmp/greens-daemon.sock", cfg.Daemon.SocketPath)
}

func TestLoadConfig_RejectsUnknownDatabaseType(t *testing.T) {
	// Arrange
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("database:\n  type: mongo\n"), 0644))

	// Act
	_, err := config.LoadConfig(path)

	// Assert
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid configuration")
	assert.Contains(t, err.Error(), "Config.Database.Type")
	assert.Contains(t, err.Error(), "database_type")
}

func TestValidateConfig_DatabaseTypes(t *testing.T) {
	for _, dbType := range []string{"postgres", "sqlite", "sqlite-pure"} {
		t.Run(dbType, func(t *testing.T) {
			// Arrange
			cfg := &config.Config{}
			cfg.Database.Type = dbType
			config.SetDefaults(cfg)

			// Act
			err := config.ValidateConfig(cfg)

			// Assert
			assert.NoError(t, err)
		})
	}
}

func TestValidateConfig_IdlePoolCannotExceedOpenPool(t *testing.T) {
	// Arrange
	cfg := &config.Config{}
	config.SetDefaults(cfg)
	cfg.Database.Pool.MaxOpen = 4
	cfg.Database.Pool.MaxIdle = 8

	// Act
	err := config.ValidateConfig(cfg)

	// Assert
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Config.Database.Pool.MaxIdle")
	assert.Contains(t, err.Error(), "ltefield")
}

func TestValidateConfig_SharesCommandValidator(t *testing.T) {
	// Arrange
	type target struct {
		Driver string `validate:"database_type"`
	}

	// Act
	err := common.ValidateRequest(&target{Driver: "mongo"})

	// Assert
	var invalid *common.ErrInvalidRequest
	require.True(t, errors.As(err, &invalid))
	assert.Equal(t, []string{"Driver failed database_type"}, invalid.Problems)
}

func TestSetDefaults_FillsEverySection(t *testing.T) {
	// Arrange
	cfg := &config.Config{}

	// Act
	config.SetDefaults(cfg)

	// Assert
	require.NoError(t, config.ValidateConfig(cfg))
	assert.Equal(t, 100, cfg.Lifecycle.ChunkSize)
	assert.Equal(t, "system", cfg.Lifecycle.DefaultActor)
	assert.Equal(t, "/metrics", cfg.Metrics.Path)
	assert.Equal(t, 500, cfg.Scheduler.DueLimit)
}

func TestUserConfigHandler_RoundTrip(t *testing.T) {
	// Arrange
	h, err := config.NewUserConfigHandlerIn(t.TempDir())
	require.NoError(t, err)

	// Act
	require.NoError(t, h.SetDefaultActor("grower-7"))
	require.NoError(t, h.SetSocketPath("/run/greens.sock"))
	cfg, err := h.Load()

	// Assert
	require.NoError(t, err)
	assert.Equal(t, "grower-7", cfg.DefaultActor)
	assert.Equal(t, "/run/greens.sock", cfg.SocketPath)
}
