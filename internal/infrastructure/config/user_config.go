package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// UserConfig holds CLI preferences stored in ~/.greens/config.json
type UserConfig struct {
	// Actor recorded on transitions when --actor is not given
	DefaultActor string `json:"default_actor,omitempty"`

	// Daemon socket to dial when --socket is not given
	SocketPath string `json:"socket_path,omitempty"`
}

// UserConfigHandler manages loading and saving user configuration
type UserConfigHandler struct {
	configPath string
}

// NewUserConfigHandler creates a handler for ~/.greens/config.json
func NewUserConfigHandler() (*UserConfigHandler, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get home directory: %w", err)
	}
	return NewUserConfigHandlerIn(filepath.Join(homeDir, ".greens"))
}

// NewUserConfigHandlerIn creates a handler for config.json inside dir
func NewUserConfigHandlerIn(dir string) (*UserConfigHandler, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create config directory: %w", err)
	}
	return &UserConfigHandler{configPath: filepath.Join(dir, "config.json")}, nil
}

// Load reads the user config from disk; a missing file is an empty config
func (h *UserConfigHandler) Load() (*UserConfig, error) {
	data, err := os.ReadFile(h.configPath)
	if os.IsNotExist(err) {
		return &UserConfig{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read user config: %w", err)
	}

	var cfg UserConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse user config: %w", err)
	}
	return &cfg, nil
}

// Save writes the user config to disk
func (h *UserConfigHandler) Save(cfg *UserConfig) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal user config: %w", err)
	}
	if err := os.WriteFile(h.configPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write user config: %w", err)
	}
	return nil
}

// SetDefaultActor stores the actor recorded on CLI-issued transitions
func (h *UserConfigHandler) SetDefaultActor(actor string) error {
	cfg, err := h.Load()
	if err != nil {
		return err
	}
	cfg.DefaultActor = actor
	return h.Save(cfg)
}

// SetSocketPath stores the daemon socket the CLI dials
func (h *UserConfigHandler) SetSocketPath(path string) error {
	cfg, err := h.Load()
	if err != nil {
		return err
	}
	cfg.SocketPath = path
	return h.Save(cfg)
}

// GetConfigPath returns the path to the user config file
func (h *UserConfigHandler) GetConfigPath() string {
	return h.configPath
}
