package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/soundexplorer/internal/services"
	"github.com/desertthunder/soundexplorer/internal/session"
	"github.com/desertthunder/soundexplorer/internal/shared"
)

// LoginPath is where unauthenticated browsers are sent.
const LoginPath = "/login"

// Guard gates handlers behind a valid access token, refreshing it when expired.
type Guard struct {
	auth     services.OAuthService
	sessions *session.Manager
	logger   *log.Logger
	now      func() time.Time
}

// NewGuard creates a [Guard] using the wall clock.
func NewGuard(auth services.OAuthService, sessions *session.Manager, logger *log.Logger) *Guard {
	return &Guard{auth: auth, sessions: sessions, logger: logger, now: time.Now}
}

// WithClock replaces the clock read at request arrival.
func (g *Guard) WithClock(now func() time.Time) *Guard {
	g.now = now
	return g
}

// RequireAuth is the [Middleware] form of the guard.
//
// A browser without an access token is redirected to [LoginPath]. An access token expired at
// request arrival (or with unknown expiry) is refreshed exactly once before next runs; a rejected
// refresh clears the session and redirects. next finds the session with [session.FromContext].
//
// Only a refresh the provider rejects signs the user out. A network error or provider 5xx during
// refresh answers 500 and keeps the session, so the next request retries with the same refresh
// token instead of forcing a new login.
func (g *Guard) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		now := g.now()

		s, err := g.sessions.Load(r)
		if err != nil {
			g.fail(w, r, "failed to load session", err)
			return
		}

		if !s.Authenticated() {
			http.Redirect(w, r, LoginPath, http.StatusSeeOther)
			return
		}

		if s.Expired(now) {
			info, err := g.auth.Refresh(r.Context(), s.RefreshToken)
			switch {
			case errors.Is(err, shared.ErrRefreshFailed):
				g.logger.Info("refresh rejected, signing out", "path", r.URL.Path, "error", err)
				if err := g.sessions.Clear(w, r); err != nil {
					g.logger.Error("failed to clear session", "error", err)
				}
				http.Redirect(w, r, LoginPath, http.StatusSeeOther)
				return
			case err != nil:
				g.fail(w, r, "failed to refresh access token", err)
				return
			}

			s.SetTokens(info.AccessToken, info.RefreshToken, info.ExpiresIn, now)
			if err := g.sessions.Save(w, r, s); err != nil {
				g.fail(w, r, "failed to save refreshed session", err)
				return
			}
			g.logger.Debug("access token refreshed", "expiry", s.Expiry)
		}

		next.ServeHTTP(w, r.WithContext(session.WithContext(r.Context(), s)))
	})
}

func (g *Guard) fail(w http.ResponseWriter, r *http.Request, msg string, err error) {
	g.logger.Error(msg, "path", r.URL.Path, "error", err)
	http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
}
