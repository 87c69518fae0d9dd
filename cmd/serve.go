package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/desertthunder/soundexplorer/internal/recommend"
	"github.com/desertthunder/soundexplorer/internal/repositories"
	"github.com/desertthunder/soundexplorer/internal/server"
	"github.com/desertthunder/soundexplorer/internal/services"
	"github.com/desertthunder/soundexplorer/internal/session"
	"github.com/desertthunder/soundexplorer/internal/shared"
	"github.com/desertthunder/soundexplorer/internal/web"
	"github.com/gorilla/sessions"
	"github.com/redis/go-redis/v9"
	"github.com/urfave/cli/v3"
)

var (
	_ session.Backend = (*repositories.SessionRepository)(nil)
	_ session.Backend = (*session.RedisBackend)(nil)
)

// Serve starts the web server and blocks until SIGINT/SIGTERM, then shuts down gracefully.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	config, err := r.loadConfig(cmd)
	if err != nil {
		return err
	}
	if host := cmd.String("host"); host != "" {
		config.Server.Host = host
	}
	if port := cmd.Int("port"); port != 0 {
		config.Server.Port = int(port)
	}
	if err := config.Validate(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	handler, cleanup, err := r.buildHandler(ctx, config)
	if err != nil {
		return err
	}
	defer cleanup()

	listener, err := net.Listen("tcp", config.Server.Addr())
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", config.Server.Addr(), err)
	}

	srv := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(listener)
	}()

	loginURL := "http://" + listener.Addr().String() + server.LoginPath
	r.logger.Info("server listening", "addr", listener.Addr().String(), "backend", config.Session.Backend)
	r.writeStatus("SoundExplorer is running at %s", urlStyle.Render(loginURL))

	if cmd.Bool("open") {
		if err := shared.OpenBrowser(loginURL); err != nil {
			r.logger.Warn("failed to open browser", "error", err)
		}
	}

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	// In-flight requests keep their own contexts and are drained by Shutdown.
	r.logger.Info("shutting down", "timeout", config.Server.ShutdownTimeout.Duration)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout(config))
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down: %w", err)
	}
	return nil
}

func shutdownTimeout(config *shared.Config) time.Duration {
	if d := config.Server.ShutdownTimeout.Duration; d > 0 {
		return d
	}
	return 10 * time.Second
}

// buildHandler wires the session store, Spotify clients and handlers into the router.
//
// cleanup releases the session backend and is never nil.
func (r *Runner) buildHandler(ctx context.Context, config *shared.Config) (http.Handler, func(), error) {
	store, cleanup, err := r.sessionStore(ctx, config)
	if err != nil {
		return nil, func() {}, err
	}

	authenticator, err := services.NewAuthenticator(config.Spotify, r.httpClient)
	if err != nil {
		cleanup()
		return nil, func() {}, err
	}

	var base http.RoundTripper
	if r.httpClient != nil {
		base = r.httpClient.Transport
	}

	logger := shared.WithLogger(r.logger, "component", "web")
	manager := session.NewManager(store, config.Session.CookieName)

	h, err := web.NewHandler(web.Options{
		OAuth:       authenticator,
		Services:    services.NewSpotifyFactory(config.Spotify, base),
		Recommender: recommend.New(shared.WithLogger(r.logger, "component", "recommend")),
		Sessions:    manager,
		Guard:       server.NewGuard(authenticator, manager, shared.WithLogger(r.logger, "component", "auth")),
		Logger:      logger,
	})
	if err != nil {
		cleanup()
		return nil, func() {}, fmt.Errorf("failed to load templates: %w", err)
	}

	router := server.NewBasicRouter()
	router.Use(
		server.Recover(logger),
		server.RequestLogger(shared.WithLogger(r.logger, "component", "http")),
		server.NoCache,
	)
	router.Handler(h)

	return router, cleanup, nil
}

// sessionStore opens the configured session backend.
func (r *Runner) sessionStore(ctx context.Context, config *shared.Config) (sessions.Store, func(), error) {
	if config.Session.Secret == "" {
		r.logger.Warn("session secret not set, sessions will not survive a restart", "env", shared.EnvSessionSecret)
	}

	switch config.Session.Backend {
	case shared.BackendSQLite:
		db, err := shared.NewDatabase(ctx, config.Database.Path)
		if err != nil {
			return nil, nil, err
		}
		shared.ConfigureDatabase(db, config.Database.MaxOpenConns, config.Database.MaxIdleConns)

		applied, err := shared.RunMigrations(ctx, db)
		if err != nil {
			db.Close()
			return nil, nil, fmt.Errorf("failed to run migrations: %w", err)
		}

		repo := repositories.NewSessionRepository(db)
		pruned, err := repo.DeleteExpired(ctx)
		if err != nil {
			db.Close()
			return nil, nil, err
		}
		r.logger.Info("sqlite session backend ready", "path", config.Database.Path, "migrations", applied, "pruned", pruned)

		return session.NewServerStore(repo, config.Session), func() { db.Close() }, nil

	case shared.BackendRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     config.Redis.Addr,
			Password: config.Redis.Password,
			DB:       config.Redis.DB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			client.Close()
			return nil, nil, fmt.Errorf("%w: redis %s: %v", shared.ErrSessionStore, config.Redis.Addr, err)
		}
		r.logger.Info("redis session backend ready", "addr", config.Redis.Addr)

		return session.NewServerStore(session.NewRedisBackend(client, config.Redis.Prefix), config.Session), func() { client.Close() }, nil

	default:
		return session.NewCookieStore(config.Session), func() {}, nil
	}
}
