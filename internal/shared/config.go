package shared

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	spotifyauth "github.com/zmb3/spotify/v2/auth"
)

//go:embed config.example.toml
var exampleConf []byte

// Environment variables that override values read from the config file.
const (
	EnvClientID      = "CLIENT_ID"
	EnvClientSecret  = "CLIENT_SECRET"
	EnvRedirectURI   = "REDIRECT_URI"
	EnvScope         = "SCOPE"
	EnvSessionSecret = "SESSION_SECRET"
)

// Session backends understood by [SessionConfig.Backend].
const (
	BackendCookie = "cookie"
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
)

// Config represents the application configuration loaded from a TOML file and the environment.
type Config struct {
	Spotify  SpotifyConfig  `toml:"spotify"`
	Server   ServerConfig   `toml:"server"`
	Session  SessionConfig  `toml:"session"`
	Database DatabaseConfig `toml:"database"`
	Redis    RedisConfig    `toml:"redis"`
	Log      LogConfig      `toml:"log"`
}

// SpotifyConfig contains the OAuth client registration and Web API settings.
type SpotifyConfig struct {
	ClientID     string `toml:"client_id"`
	ClientSecret string `toml:"client_secret"`
	RedirectURI  string `toml:"redirect_uri"`
	Scope        string `toml:"scope"` // space separated, as sent to the provider

	// Endpoint overrides. Empty means the public Spotify endpoints.
	AuthURL  string `toml:"auth_url"`
	TokenURL string `toml:"token_url"`
	APIURL   string `toml:"api_url"`

	RateLimit float64  `toml:"rate_limit"` // outbound requests per second
	Timeout   Duration `toml:"timeout"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host            string   `toml:"host"`
	Port            int      `toml:"port"`
	ShutdownTimeout Duration `toml:"shutdown_timeout"`
}

// SessionConfig controls the browser session cookie and where session data lives.
type SessionConfig struct {
	CookieName string `toml:"cookie_name"`
	Secret     string `toml:"secret"`
	Backend    string `toml:"backend"`
	Secure     bool   `toml:"secure"`
	MaxAge     int    `toml:"max_age"` // seconds
}

// DatabaseConfig contains database connection settings for the sqlite session backend.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// RedisConfig contains connection settings for the redis session backend.
type RedisConfig struct {
	Addr     string `toml:"addr"`
	Password string `toml:"password"`
	DB       int    `toml:"db"`
	Prefix   string `toml:"prefix"`
}

// LogConfig contains logger settings.
type LogConfig struct {
	Level string `toml:"level"`
}

// Duration wraps [time.Duration] so it can be written as "10s" in TOML.
type Duration struct {
	time.Duration
}

// UnmarshalText implements [encoding.TextUnmarshaler].
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("%w: duration %q: %v", ErrInvalidConfig, text, err)
	}
	d.Duration = v
	return nil
}

// MarshalText implements [encoding.TextMarshaler].
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Scopes splits the configured scope string into individual scopes.
func (s SpotifyConfig) Scopes() []string {
	return strings.Fields(strings.ReplaceAll(s.Scope, ",", " "))
}

// Endpoints returns the authorize and token URLs, falling back to Spotify's accounts service.
func (s SpotifyConfig) Endpoints() (authURL, tokenURL string) {
	authURL, tokenURL = s.AuthURL, s.TokenURL
	if authURL == "" {
		authURL = spotifyauth.AuthURL
	}
	if tokenURL == "" {
		tokenURL = spotifyauth.TokenURL
	}
	return authURL, tokenURL
}

// Addr returns the listen address for the HTTP server.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Values missing from the file keep the defaults from the embedded example config.
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

	if err := os.WriteFile(path, exampleConf, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// LoadDotEnv loads variables from the given .env files into the process environment.
//
// Missing files are ignored and variables already set in the environment win.
func LoadDotEnv(paths ...string) error {
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return fmt.Errorf("failed to load %s: %w", p, err)
		}
	}
	return nil
}

// ApplyEnv overrides credentials and the session secret with values from the environment.
func (c *Config) ApplyEnv(getenv func(string) string) {
	if getenv == nil {
		getenv = os.Getenv
	}
	set := func(dst *string, key string) {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			*dst = v
		}
	}

	set(&c.Spotify.ClientID, EnvClientID)
	set(&c.Spotify.ClientSecret, EnvClientSecret)
	set(&c.Spotify.RedirectURI, EnvRedirectURI)
	set(&c.Spotify.Scope, EnvScope)
	set(&c.Session.Secret, EnvSessionSecret)
}

// Validate reports every required value that is missing or malformed.
func (c *Config) Validate() error {
	var missing []string
	if c.Spotify.ClientID == "" {
		missing = append(missing, EnvClientID)
	}
	if c.Spotify.ClientSecret == "" {
		missing = append(missing, EnvClientSecret)
	}
	if c.Spotify.RedirectURI == "" {
		missing = append(missing, EnvRedirectURI)
	}
	if len(c.Spotify.Scopes()) == 0 {
		missing = append(missing, EnvScope)
	}

	var errs []error
	if len(missing) > 0 {
		errs = append(errs, fmt.Errorf("%w: %s", ErrMissingConfig, strings.Join(missing, ", ")))
	}

	switch c.Session.Backend {
	case BackendCookie, BackendSQLite, BackendRedis:
	default:
		errs = append(errs, fmt.Errorf("%w: unknown session backend %q", ErrInvalidConfig, c.Session.Backend))
	}

	if c.Session.CookieName == "" {
		errs = append(errs, fmt.Errorf("%w: session cookie_name is empty", ErrInvalidConfig))
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("%w: server port %d", ErrInvalidConfig, c.Server.Port))
	}

	return errors.Join(errs...)
}
