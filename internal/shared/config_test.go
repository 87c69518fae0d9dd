package shared

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestConfig(t *testing.T) {
	t.Run("DefaultConfig", func(t *testing.T) {
		config := DefaultConfig()

		if config.Server.Port != 3000 {
			t.Errorf("expected server port 3000, got %d", config.Server.Port)
		}
		if config.Session.CookieName != "spotify-auth-session" {
			t.Errorf("expected cookie name spotify-auth-session, got %s", config.Session.CookieName)
		}
		if config.Session.Backend != BackendCookie {
			t.Errorf("expected cookie backend, got %s", config.Session.Backend)
		}
		if !config.Session.Secure {
			t.Error("expected secure cookies by default")
		}
		if config.Spotify.Timeout.Duration != 10*time.Second {
			t.Errorf("expected 10s timeout, got %v", config.Spotify.Timeout.Duration)
		}
		if config.Spotify.ClientID != "" {
			t.Errorf("expected empty client_id, got %s", config.Spotify.ClientID)
		}
	})

	t.Run("DefaultConfig Redirect Matches Listener", func(t *testing.T) {
		config := DefaultConfig()

		want := "http://" + config.Server.Addr() + "/callback"
		if config.Spotify.RedirectURI != want {
			t.Errorf("expected redirect URI %s, got %s", want, config.Spotify.RedirectURI)
		}
	})

	t.Run("CreateConfigFile", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "config.toml")

		if err := CreateConfigFile(configPath); err != nil {
			t.Fatalf("failed to create config file: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load created config: %v", err)
		}
		if config.Database.Path != DefaultConfig().Database.Path {
			t.Errorf("created config database path doesn't match default")
		}

		if err := CreateConfigFile(configPath); err == nil {
			t.Error("creating config file again should fail")
		}
	})

	t.Run("LoadConfig", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "config.toml")

		testConfig := `[spotify]
client_id = "test_client_id"
client_secret = "test_secret"
redirect_uri = "http://localhost:3000/callback"
scope = "user-top-read,playlist-modify-public"
timeout = "3s"

[server]
port = 8080

[session]
backend = "redis"
`
		if err := os.WriteFile(configPath, []byte(testConfig), 0644); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load config: %v", err)
		}

		if config.Server.Port != 8080 {
			t.Errorf("expected server port 8080, got %d", config.Server.Port)
		}
		if config.Server.Host != "127.0.0.1" {
			t.Errorf("expected default host to survive, got %s", config.Server.Host)
		}
		if config.Spotify.ClientID != "test_client_id" {
			t.Errorf("expected spotify client_id test_client_id, got %s", config.Spotify.ClientID)
		}
		if config.Spotify.Timeout.Duration != 3*time.Second {
			t.Errorf("expected 3s timeout, got %v", config.Spotify.Timeout.Duration)
		}
		if config.Session.Backend != BackendRedis {
			t.Errorf("expected redis backend, got %s", config.Session.Backend)
		}

		scopes := config.Spotify.Scopes()
		if len(scopes) != 2 || scopes[0] != "user-top-read" || scopes[1] != "playlist-modify-public" {
			t.Errorf("unexpected scopes %v", scopes)
		}
	})

	t.Run("LoadConfig Invalid Duration", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "config.toml")
		if err := os.WriteFile(configPath, []byte("[spotify]\ntimeout = \"soon\"\n"), 0644); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		if _, err := LoadConfig(configPath); err == nil {
			t.Error("expected error for invalid duration")
		}
	})

	t.Run("LoadConfig Missing File", func(t *testing.T) {
		if _, err := LoadConfig(filepath.Join(t.TempDir(), "nope.toml")); err == nil {
			t.Error("expected error for missing file")
		}
	})

	t.Run("ApplyEnv", func(t *testing.T) {
		config := DefaultConfig()
		config.Spotify.ClientID = "from_file"

		env := map[string]string{
			EnvClientID:      "from_env",
			EnvClientSecret:  "secret",
			EnvRedirectURI:   "https://example.com/callback",
			EnvScope:         "user-top-read",
			EnvSessionSecret: "",
		}
		config.ApplyEnv(func(k string) string { return env[k] })

		if config.Spotify.ClientID != "from_env" {
			t.Errorf("expected env to override client id, got %s", config.Spotify.ClientID)
		}
		if config.Spotify.RedirectURI != "https://example.com/callback" {
			t.Errorf("unexpected redirect uri %s", config.Spotify.RedirectURI)
		}
		if config.Session.Secret != "" {
			t.Errorf("empty env value should not override, got %q", config.Session.Secret)
		}
	})

	t.Run("LoadDotEnv", func(t *testing.T) {
		envPath := filepath.Join(t.TempDir(), ".env")
		if err := os.WriteFile(envPath, []byte("SOUNDEXPLORER_TEST_VAR=loaded\n"), 0600); err != nil {
			t.Fatalf("failed to write .env: %v", err)
		}
		t.Cleanup(func() { os.Unsetenv("SOUNDEXPLORER_TEST_VAR") })

		if err := LoadDotEnv(filepath.Join(t.TempDir(), "missing.env"), envPath); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if got := os.Getenv("SOUNDEXPLORER_TEST_VAR"); got != "loaded" {
			t.Errorf("expected variable from .env, got %q", got)
		}
	})

	t.Run("Validate", func(t *testing.T) {
		t.Run("Missing Credentials", func(t *testing.T) {
			config := DefaultConfig()
			config.Spotify.Scope = ""

			err := config.Validate()
			if !errors.Is(err, ErrMissingConfig) {
				t.Fatalf("expected ErrMissingConfig, got %v", err)
			}
			for _, name := range []string{EnvClientID, EnvClientSecret, EnvScope} {
				if !strings.Contains(err.Error(), name) {
					t.Errorf("expected error to name %s, got %v", name, err)
				}
			}
		})

		t.Run("Unknown Backend", func(t *testing.T) {
			config := validConfig()
			config.Session.Backend = "memcached"

			if err := config.Validate(); !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("expected ErrInvalidConfig, got %v", err)
			}
		})

		t.Run("Valid", func(t *testing.T) {
			if err := validConfig().Validate(); err != nil {
				t.Errorf("expected valid config, got %v", err)
			}
		})
	})

	t.Run("Endpoints", func(t *testing.T) {
		authURL, tokenURL := SpotifyConfig{}.Endpoints()
		if !strings.Contains(authURL, "accounts.spotify.com") || !strings.Contains(tokenURL, "accounts.spotify.com") {
			t.Errorf("expected spotify endpoints, got %s %s", authURL, tokenURL)
		}

		authURL, tokenURL = SpotifyConfig{AuthURL: "http://a", TokenURL: "http://t"}.Endpoints()
		if authURL != "http://a" || tokenURL != "http://t" {
			t.Errorf("expected overrides, got %s %s", authURL, tokenURL)
		}
	})
}

func validConfig() *Config {
	config := DefaultConfig()
	config.Spotify.ClientID = "id"
	config.Spotify.ClientSecret = "secret"
	return config
}
