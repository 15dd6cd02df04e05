package shared

import (
	_ "embed"
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Export   ExportConfig   `toml:"export"`
	Auth     AuthConfig     `toml:"auth"`
	API      APIConfig      `toml:"api"`
	Database DatabaseConfig `toml:"database"`
	Env      EnvConfig      `toml:"env"`
}

// ExportConfig contains defaults for the export command.
type ExportConfig struct {
	OutDir     string `toml:"out_dir"`
	TTLDays    int    `toml:"ttl_days"`
	PlainFiles bool   `toml:"plain_files"`
	Summary    bool   `toml:"summary"`
}

// AuthConfig contains OAuth endpoint and callback listener settings.
type AuthConfig struct {
	RedirectURI    string `toml:"redirect_uri"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
	AuthURL        string `toml:"auth_url"`
	TokenURL       string `toml:"token_url"`
}

// APIConfig contains Web API client settings.
type APIConfig struct {
	BaseURL           string  `toml:"base_url"`
	RequestsPerSecond float64 `toml:"requests_per_second"`
	TimeoutSeconds    int     `toml:"timeout_seconds"`
}

// DatabaseConfig contains export ledger connection settings. An empty path disables the ledger.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// EnvConfig points at the .env credential store.
type EnvConfig struct {
	Path string `toml:"path"`
}

// AuthTimeout returns the callback wait ceiling, defaulting to five minutes.
func (c AuthConfig) AuthTimeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return 300 * time.Second
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// RequestTimeout returns the per-request HTTP timeout, defaulting to thirty seconds.
func (c APIConfig) RequestTimeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Keys missing from the file keep the values from [DefaultConfig].
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
