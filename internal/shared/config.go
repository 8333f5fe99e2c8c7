package shared

import (
	_ "embed"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// APIBaseEnv names the environment variable that overrides [APIConfig.BaseURL].
const APIBaseEnv = "DJAY_API_BASE_URL"

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	API      APIConfig      `toml:"api"`
	Player   PlayerConfig   `toml:"player"`
	Log      LogConfig      `toml:"log"`
	Server   ServerConfig   `toml:"server"`
	Database DatabaseConfig `toml:"database"`
}

// APIConfig contains catalog API settings.
type APIConfig struct {
	BaseURL        string        `toml:"base_url"`
	Timeout        time.Duration `toml:"timeout"`
	ReloadInterval time.Duration `toml:"reload_interval"`
}

// PlayerConfig selects and configures the audio backend.
type PlayerConfig struct {
	Backend        string        `toml:"backend"`
	MPVPath        string        `toml:"mpv_path"`
	SocketPath     string        `toml:"socket_path"`
	ConnectTimeout time.Duration `toml:"connect_timeout"`
	LoadTimeout    time.Duration `toml:"load_timeout"`
}

// LogConfig contains logger settings.
type LogConfig struct {
	Level string `toml:"level"`
	File  string `toml:"file"`
}

// ServerConfig contains settings for the static catalog server.
type ServerConfig struct {
	Host     string `toml:"host"`
	Port     int    `toml:"port"`
	Catalog  string `toml:"catalog"`
	MediaDir string `toml:"media_dir"`
}

// DatabaseConfig contains the session history database settings.
type DatabaseConfig struct {
	Path string `toml:"path"`
}

// LoadConfig reads a TOML configuration file from path and overlays it on [DefaultConfig].
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("%w: failed to parse config: %v", ErrInvalidConfig, err)
	}

	return config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// ResolveAPIBase picks the catalog base URL: flag value first, then [APIBaseEnv], then the config file.
func (c *Config) ResolveAPIBase(flagValue string) {
	if v := strings.TrimSpace(flagValue); v != "" {
		c.API.BaseURL = v
		return
	}
	if v := strings.TrimSpace(os.Getenv(APIBaseEnv)); v != "" {
		c.API.BaseURL = v
	}
}

// Validate reports missing or malformed required settings.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.API.BaseURL) == "" {
		return fmt.Errorf("%w: api.base_url (or %s) is required", ErrMissingConfig, APIBaseEnv)
	}
	if !IsAbsoluteURL(c.API.BaseURL) {
		return fmt.Errorf("%w: api.base_url %q is not an absolute URL", ErrInvalidConfig, c.API.BaseURL)
	}
	if c.API.Timeout <= 0 {
		return fmt.Errorf("%w: api.timeout must be positive", ErrInvalidConfig)
	}
	switch c.Player.Backend {
	case "mpv", "none":
	default:
		return fmt.Errorf("%w: unknown player backend %q", ErrInvalidConfig, c.Player.Backend)
	}
	return nil
}
