package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

const DefaultConfigFileName = "config.toml"

// API configures the remote store. Only read when mode is "remote".
type API struct {
	BaseURL        string `toml:"base_url"`
	Token          string `toml:"token"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

func (a API) Timeout() time.Duration {
	return time.Duration(a.TimeoutSeconds) * time.Second
}

// Defaults seed new routines' notification profiles.
type Defaults struct {
	Sound string `toml:"sound"`
	Level string `toml:"level"`
}

type Config struct {
	// Mode selects the store: "local" (sqlite file) or "remote" (REST).
	Mode     string   `toml:"mode"`
	DBPath   string   `toml:"db_path"`
	PageSize int      `toml:"page_size"`
	API      API      `toml:"api"`
	Defaults Defaults `toml:"defaults"`
}

// DefaultPath returns the config location under XDG config dir.
func DefaultPath() (string, error) {
	cfgDir := os.Getenv("XDG_CONFIG_HOME")
	if cfgDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		cfgDir = filepath.Join(home, ".config")
	}
	appDir := filepath.Join(cfgDir, "rota")
	if err := os.MkdirAll(appDir, 0755); err != nil {
		return "", err
	}
	return filepath.Join(appDir, DefaultConfigFileName), nil
}

// LoadOrCreate reads the config at path, writing the defaults there
// first if nothing exists yet.
func LoadOrCreate(path string) (Config, error) {
	cfg := defaultConfig()
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		if err := write(path, cfg); err != nil {
			return cfg, err
		}
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	return cfg, cfg.validate()
}

func (c *Config) validate() error {
	switch c.Mode {
	case "", "local":
		c.Mode = "local"
	case "remote":
		if c.API.BaseURL == "" {
			return errors.New("remote mode needs api.base_url")
		}
	default:
		return fmt.Errorf("unknown store mode %q", c.Mode)
	}
	if c.PageSize <= 0 {
		c.PageSize = 20
	}
	return nil
}

func write(path string, cfg Config) error {
	data, err := toml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func defaultConfig() Config {
	return Config{
		Mode:     "local",
		PageSize: 20,
		API: API{
			TimeoutSeconds: 15,
		},
		Defaults: Defaults{
			Sound: "default",
			Level: "active",
		},
	}
}
