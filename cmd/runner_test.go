package main

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/desertthunder/soundexplorer/internal/session"
	"github.com/desertthunder/soundexplorer/internal/shared"
	tu "github.com/desertthunder/soundexplorer/internal/testing"
	"github.com/urfave/cli/v3"
)

func noEnv(string) string { return "" }

// run executes args against a root command built from the runner.
func run(t *testing.T, r *Runner, args ...string) error {
	t.Helper()
	app := &cli.Command{Name: "soundexplorer", Commands: r.register()}
	return app.Run(context.Background(), append([]string{"soundexplorer"}, args...))
}

func testConfig() *shared.Config {
	config := shared.DefaultConfig()
	config.Spotify.ClientID = "client-abc"
	config.Spotify.ClientSecret = "secret"
	config.Session.Secret = "session-secret"
	return config
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(body), 0600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

func TestRunner(t *testing.T) {
	t.Run("NewRunner", func(t *testing.T) {
		t.Run("with all dependencies provided", func(t *testing.T) {
			config := shared.DefaultConfig()
			logger := shared.NewLogger(nil)
			output := &bytes.Buffer{}
			httpClient := &http.Client{}

			runner := NewRunner(RunnerOpts{
				Config:     config,
				Logger:     logger,
				Output:     output,
				HTTPClient: httpClient,
			})

			if runner.config != config {
				t.Error("expected config to be set")
			}
			if runner.logger != logger {
				t.Error("expected logger to be set")
			}
			if runner.output != output {
				t.Error("expected output to be set")
			}
			if runner.httpClient != httpClient {
				t.Error("expected httpClient to be set")
			}
		})

		t.Run("with nil logger uses default", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{})
			if runner.logger == nil {
				t.Error("expected default logger to be set")
			}
		})

		t.Run("with nil output uses stdout", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{})
			if runner.output != os.Stdout {
				t.Error("expected output to default to os.Stdout")
			}
		})

		t.Run("with nil httpClient uses default", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{})
			if runner.httpClient != http.DefaultClient {
				t.Error("expected httpClient to default to http.DefaultClient")
			}
		})
	})

	t.Run("writeJSON", func(t *testing.T) {
		t.Run("writes formatted JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writeJSON(map[string]string{"key": "value"}, true); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			result := output.String()
			if !strings.Contains(result, `"key": "value"`) {
				t.Errorf("expected formatted JSON, got %s", result)
			}
			if !strings.HasSuffix(result, "\n") {
				t.Error("expected output to end with newline")
			}
		})

		t.Run("writes compact JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writeJSON(map[string]string{"key": "value"}, false); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			expected := `{"key":"value"}` + "\n"
			if output.String() != expected {
				t.Errorf("expected %q, got %q", expected, output.String())
			}
		})

		t.Run("handles marshal error with non-serializable data", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &bytes.Buffer{}})

			err := runner.writeJSON(make(chan int), false)
			if err == nil || !strings.Contains(err.Error(), "failed to marshal JSON") {
				t.Errorf("expected marshal error, got %v", err)
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &tu.FWriter{}})

			err := runner.writeJSON(map[string]string{"key": "value"}, false)
			if err == nil || !strings.Contains(err.Error(), "failed to write output") {
				t.Errorf("expected write error, got %v", err)
			}
		})
	})

	t.Run("writePlain", func(t *testing.T) {
		t.Run("writes plain text successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writePlain("hello %s", "world"); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if output.String() != "hello world" {
				t.Errorf("expected 'hello world', got %q", output.String())
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &tu.FWriter{}})

			err := runner.writePlain("test")
			if err == nil || !strings.Contains(err.Error(), "failed to write output") {
				t.Errorf("expected write error, got %v", err)
			}
		})
	})

	t.Run("register", func(t *testing.T) {
		runner := NewRunner(RunnerOpts{})
		commands := runner.register()

		names := map[string]bool{}
		for i, cmd := range commands {
			if cmd == nil {
				t.Fatalf("command at index %d is nil", i)
			}
			names[cmd.Name] = true
		}
		for _, want := range []string{"serve", "setup", "sessions", "auth"} {
			if !names[want] {
				t.Errorf("expected %s command", want)
			}
		}
	})
}

func TestLoadConfig(t *testing.T) {
	t.Run("environment overrides file", func(t *testing.T) {
		path := writeConfig(t, "[spotify]\nclient_id = \"from-file\"\n")
		env := map[string]string{shared.EnvClientID: "from-env", shared.EnvSessionSecret: "s3cret"}
		runner := NewRunner(RunnerOpts{Output: &bytes.Buffer{}, Getenv: func(k string) string { return env[k] }})

		var got *shared.Config
		app := &cli.Command{
			Name:  "test",
			Flags: []cli.Flag{configFlag()},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				var err error
				got, err = runner.loadConfig(cmd)
				return err
			},
		}
		if err := app.Run(context.Background(), []string{"test", "--config", path}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if got.Spotify.ClientID != "from-env" {
			t.Errorf("expected env client id, got %s", got.Spotify.ClientID)
		}
		if got.Session.Secret != "s3cret" {
			t.Errorf("expected env session secret, got %s", got.Session.Secret)
		}
	})

	t.Run("dotenv file", func(t *testing.T) {
		dir := t.TempDir()
		envPath := filepath.Join(dir, ".env")
		if err := os.WriteFile(envPath, []byte("SOUNDEXPLORER_TEST_VALUE=loaded\n"), 0600); err != nil {
			t.Fatalf("failed to write env file: %v", err)
		}
		t.Cleanup(func() { os.Unsetenv("SOUNDEXPLORER_TEST_VALUE") })

		runner := NewRunner(RunnerOpts{Output: &bytes.Buffer{}, Getenv: noEnv})
		app := &cli.Command{
			Name:  "test",
			Flags: []cli.Flag{configFlag(), envFileFlag()},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				_, err := runner.loadConfig(cmd)
				return err
			},
		}
		args := []string{"test", "--config", filepath.Join(dir, "missing.toml"), "--env-file", envPath}
		if err := app.Run(context.Background(), args); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if os.Getenv("SOUNDEXPLORER_TEST_VALUE") != "loaded" {
			t.Error("expected .env values in the environment")
		}
	})

	t.Run("invalid file", func(t *testing.T) {
		path := writeConfig(t, "not = [valid")
		runner := NewRunner(RunnerOpts{Output: &bytes.Buffer{}, Getenv: noEnv})

		err := run(t, runner, "setup", "database", "--config", path)
		if !errors.Is(err, shared.ErrInvalidConfig) {
			t.Errorf("expected ErrInvalidConfig, got %v", err)
		}
	})
}

func TestSetup(t *testing.T) {
	t.Run("config", func(t *testing.T) {
		output := &bytes.Buffer{}
		runner := NewRunner(RunnerOpts{Output: output, Getenv: noEnv})

		wd, err := os.Getwd()
		if err != nil {
			t.Fatalf("failed to get working directory: %v", err)
		}
		defer tu.MustChdir(t, wd)
		tu.MustChdir(t, t.TempDir())
		path := "config.toml"

		if err := run(t, runner, "setup", "config"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		tu.AssertFileExists(t, path)
		if !strings.Contains(tu.MustReadFile(t, path), "[spotify]") {
			t.Error("expected example config contents")
		}

		if err := run(t, runner, "setup", "config"); err == nil {
			t.Error("expected error when config already exists")
		}
	})

	t.Run("database, rollback and prune", func(t *testing.T) {
		dir := t.TempDir()
		dbPath := filepath.Join(dir, "sessions.db")
		path := writeConfig(t, "[database]\npath = \""+filepath.ToSlash(dbPath)+"\"\n")

		output := &bytes.Buffer{}
		runner := NewRunner(RunnerOpts{Output: output, Getenv: noEnv})

		if err := run(t, runner, "setup", "database", "--config", path); err != nil {
			t.Fatalf("setup database failed: %v", err)
		}
		tu.AssertFileExists(t, dbPath)
		if !strings.Contains(output.String(), "1 migrations applied") {
			t.Errorf("unexpected output %q", output.String())
		}

		if err := run(t, runner, "sessions", "prune", "--config", path); err != nil {
			t.Fatalf("prune failed: %v", err)
		}
		if !strings.Contains(output.String(), "Deleted 0 expired sessions") {
			t.Errorf("unexpected output %q", output.String())
		}

		if err := run(t, runner, "setup", "database", "--config", path, "--rollback"); err != nil {
			t.Fatalf("rollback failed: %v", err)
		}
		if err := run(t, runner, "sessions", "prune", "--config", path); err == nil {
			t.Error("expected prune to fail without the sessions table")
		}
	})
}

func TestAuthURL(t *testing.T) {
	t.Run("prints authorization URL", func(t *testing.T) {
		output := &bytes.Buffer{}
		runner := NewRunner(RunnerOpts{Config: testConfig(), Output: output})

		if err := run(t, runner, "auth", "url"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		out := output.String()
		for _, want := range []string{"accounts.spotify.com/authorize", "client_id=client-abc", "show_dialog=true", "state="} {
			if !strings.Contains(out, want) {
				t.Errorf("expected %q in output %q", want, out)
			}
		}
	})

	t.Run("missing credentials", func(t *testing.T) {
		runner := NewRunner(RunnerOpts{Config: shared.DefaultConfig(), Output: &bytes.Buffer{}})

		if err := run(t, runner, "auth", "url"); !errors.Is(err, shared.ErrMissingConfig) {
			t.Errorf("expected ErrMissingConfig, got %v", err)
		}
	})
}

func TestServe(t *testing.T) {
	ctx := context.Background()

	t.Run("invalid config fails fast", func(t *testing.T) {
		runner := NewRunner(RunnerOpts{Config: shared.DefaultConfig(), Output: &bytes.Buffer{}})

		err := run(t, runner, "serve")
		if !errors.Is(err, shared.ErrMissingConfig) {
			t.Fatalf("expected ErrMissingConfig, got %v", err)
		}
		for _, name := range []string{shared.EnvClientID, shared.EnvClientSecret} {
			if !strings.Contains(err.Error(), name) {
				t.Errorf("expected %s named in %v", name, err)
			}
		}
	})

	backends := []struct {
		name   string
		config func(t *testing.T) *shared.Config
	}{
		{"cookie", func(t *testing.T) *shared.Config {
			return testConfig()
		}},
		{"sqlite", func(t *testing.T) *shared.Config {
			config := testConfig()
			config.Session.Backend = shared.BackendSQLite
			config.Database.Path = filepath.Join(t.TempDir(), "sessions.db")
			return config
		}},
		{"redis", func(t *testing.T) *shared.Config {
			config := testConfig()
			config.Session.Backend = shared.BackendRedis
			config.Redis.Addr = miniredis.RunT(t).Addr()
			return config
		}},
	}
	for _, tc := range backends {
		t.Run(tc.name+" handler", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &bytes.Buffer{}, Logger: shared.NewLogger(&bytes.Buffer{})})

			handler, cleanup, err := runner.buildHandler(ctx, tc.config(t))
			if err != nil {
				t.Fatalf("failed to build handler: %v", err)
			}
			defer cleanup()

			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
			if rec.Code != http.StatusOK {
				t.Errorf("expected 200 from /healthz, got %d", rec.Code)
			}

			rec = httptest.NewRecorder()
			handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/login", nil))
			if rec.Code != http.StatusOK {
				t.Fatalf("expected 200 from /login, got %d", rec.Code)
			}
			if rec.Header().Get("Pragma") != "no-cache" {
				t.Error("expected no-cache headers")
			}

			var cookie *http.Cookie
			for _, c := range rec.Result().Cookies() {
				if c.Name == "spotify-auth-session" {
					cookie = c
				}
			}
			if cookie == nil || !cookie.HttpOnly || !cookie.Secure {
				t.Errorf("expected secure session cookie, got %+v", cookie)
			}

			rec = httptest.NewRecorder()
			handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/artists", nil))
			if rec.Code != http.StatusSeeOther {
				t.Errorf("expected redirect from guarded route, got %d", rec.Code)
			}
		})
	}

	t.Run("unreachable redis", func(t *testing.T) {
		mr := miniredis.RunT(t)
		addr := mr.Addr()
		mr.Close()

		config := testConfig()
		config.Session.Backend = shared.BackendRedis
		config.Redis.Addr = addr

		runner := NewRunner(RunnerOpts{Output: &bytes.Buffer{}, Logger: shared.NewLogger(&bytes.Buffer{})})
		if _, _, err := runner.buildHandler(ctx, config); !errors.Is(err, shared.ErrSessionStore) {
			t.Errorf("expected ErrSessionStore, got %v", err)
		}
	})
	t.Run("shutdown drains in-flight requests", func(t *testing.T) {
		var once sync.Once
		started := make(chan struct{})
		api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			once.Do(func() { close(started) })
			time.Sleep(300 * time.Millisecond)
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"id":"user1","display_name":"Ana","images":[]}`))
		}))
		defer api.Close()

		l, err := net.Listen("tcp", "127.0.0.1:0")
		if err != nil {
			t.Fatalf("failed to reserve port: %v", err)
		}
		port := l.Addr().(*net.TCPAddr).Port
		l.Close()

		config := testConfig()
		config.Spotify.APIURL = api.URL + "/v1"
		config.Server.Host = "127.0.0.1"
		config.Server.Port = port
		base := "http://127.0.0.1:" + strconv.Itoa(port)

		manager := session.NewManager(session.NewCookieStore(config.Session), config.Session.CookieName)
		rec := httptest.NewRecorder()
		loggedIn := &session.Session{AccessToken: "user_token", RefreshToken: "refresh", Expiry: time.Now().Add(time.Hour)}
		if err := manager.Save(rec, httptest.NewRequest(http.MethodGet, "/", nil), loggedIn); err != nil {
			t.Fatalf("failed to encode session: %v", err)
		}

		runner := NewRunner(RunnerOpts{Config: config, Output: &bytes.Buffer{}, Logger: shared.NewLogger(&bytes.Buffer{})})
		serveCtx, cancel := context.WithCancel(context.Background())
		defer cancel()

		done := make(chan error, 1)
		go func() {
			app := &cli.Command{Name: "soundexplorer", Commands: runner.register()}
			done <- app.Run(serveCtx, []string{"soundexplorer", "serve"})
		}()

		ready := false
		for deadline := time.Now().Add(2 * time.Second); time.Now().Before(deadline); time.Sleep(20 * time.Millisecond) {
			if resp, err := http.Get(base + "/healthz"); err == nil {
				resp.Body.Close()
				ready = resp.StatusCode == http.StatusOK
				break
			}
		}
		if !ready {
			t.Fatal("server never became ready")
		}

		req, err := http.NewRequest(http.MethodGet, base+"/user_informations", nil)
		if err != nil {
			t.Fatalf("failed to build request: %v", err)
		}
		for _, c := range rec.Result().Cookies() {
			req.AddCookie(c)
		}

		type result struct {
			status int
			body   string
			err    error
		}
		results := make(chan result, 1)
		go func() {
			resp, err := http.DefaultClient.Do(req)
			if err != nil {
				results <- result{err: err}
				return
			}
			defer resp.Body.Close()
			body, _ := io.ReadAll(resp.Body)
			results <- result{status: resp.StatusCode, body: string(body)}
		}()

		select {
		case <-started:
		case <-time.After(2 * time.Second):
			t.Fatal("request never reached the API")
		}
		cancel()

		res := <-results
		if res.err != nil {
			t.Fatalf("request failed: %v", res.err)
		}
		if res.status != http.StatusOK {
			t.Errorf("expected 200 while shutting down, got %d: %s", res.status, res.body)
		}
		if !strings.Contains(res.body, `"username":"Ana"`) {
			t.Errorf("unexpected body %q", res.body)
		}

		select {
		case err := <-done:
			if err != nil {
				t.Errorf("expected clean shutdown, got %v", err)
			}
		case <-time.After(5 * time.Second):
			t.Error("serve did not return after shutdown")
		}
	})
}
