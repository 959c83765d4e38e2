package shared

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Credentials CredentialsConfig `toml:"credentials"`
	Storage     StorageConfig     `toml:"storage"`
	Database    DatabaseConfig    `toml:"database"`
	Server      ServerConfig      `toml:"server"`
	Playlist    PlaylistConfig    `toml:"playlist"`
	Catalog     CatalogConfig     `toml:"catalog"`
	Log         LogConfig         `toml:"log"`
}

// CredentialsConfig contains service-specific credentials.
type CredentialsConfig struct {
	Spotify SpotifyConfig `toml:"spotify"`
}

// SpotifyConfig contains Spotify API credentials and endpoints.
type SpotifyConfig struct {
	ClientID     string `toml:"client_id" env:"UPL_SPOTIFY_CLIENT_ID"`
	ClientSecret string `toml:"client_secret" env:"UPL_SPOTIFY_CLIENT_SECRET"`
	RedirectURI  string `toml:"redirect_uri" env:"UPL_SPOTIFY_REDIRECT_URI"`
	AuthURL      string `toml:"auth_url" env:"UPL_SPOTIFY_AUTH_URL"`
	TokenURL     string `toml:"token_url" env:"UPL_SPOTIFY_TOKEN_URL"`
	APIURL       string `toml:"api_url" env:"UPL_SPOTIFY_API_URL"`
}

// Map returns the credentials keyed the way services.NewAuthenticator expects.
func (s SpotifyConfig) Map() map[string]string {
	return map[string]string{
		"client_id":     s.ClientID,
		"client_secret": s.ClientSecret,
		"redirect_uri":  s.RedirectURI,
		"auth_url":      s.AuthURL,
		"token_url":     s.TokenURL,
		"api_url":       s.APIURL,
	}
}

// StorageConfig selects where the credential is persisted.
//
// Backend is one of sqlite, bolt, keyring or memory. None of them encrypt at rest beyond
// what the platform primitive provides (the OS keychain does, sqlite and bolt files do not).
type StorageConfig struct {
	Backend        string `toml:"backend" env:"UPL_STORAGE_BACKEND"`
	Path           string `toml:"path" env:"UPL_STORAGE_PATH"`
	KeyringService string `toml:"keyring_service" env:"UPL_KEYRING_SERVICE"`
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path" env:"UPL_DATABASE_PATH"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// ServerConfig contains the loopback callback listener settings.
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port" env:"UPL_SERVER_PORT"`
}

// PlaylistConfig names the managed playlist tracks are appended to.
type PlaylistConfig struct {
	Name        string `toml:"name" env:"UPL_PLAYLIST_NAME"`
	Description string `toml:"description"`
}

// CatalogConfig throttles and bounds catalog requests.
type CatalogConfig struct {
	RequestsPerSecond float64 `toml:"requests_per_second"`
	Burst             int     `toml:"burst"`
	TimeoutSeconds    int     `toml:"timeout_seconds"`
}

// LogConfig contains logger settings.
type LogConfig struct {
	Level string `toml:"level" env:"UPL_LOG_LEVEL"`
}

// Timeout returns the per-request catalog timeout.
func (c CatalogConfig) Timeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// Validate reports whether the Spotify credentials needed for network commands are present.
func (c *Config) Validate() error {
	s := c.Credentials.Spotify
	if s.ClientID == "" || s.ClientSecret == "" {
		return fmt.Errorf("%w: spotify client_id and client_secret must be set", ErrMissingCredentials)
	}
	if s.RedirectURI == "" {
		return fmt.Errorf("%w: spotify redirect_uri must be set", ErrInvalidConfig)
	}
	return nil
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Values missing from the file fall back to the embedded defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return config, nil
}

// ApplyEnv overrides config values from the environment, loading envFile first when it exists.
func ApplyEnv(config *Config, envFile string) error {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("failed to load %s: %w", envFile, err)
		}
	}

	if err := env.Parse(config); err != nil {
		return fmt.Errorf("failed to parse environment: %w", err)
	}
	return nil
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

	if err := os.WriteFile(path, exampleConf, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// SaveConfig writes config to path as TOML.
func SaveConfig(path string, config *Config) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	if err := toml.NewEncoder(f).Encode(config); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}
