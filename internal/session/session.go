// package session models the per-browser token state and persists it through gorilla/sessions
package session

import (
	"context"
	"time"
)

// Session is the typed view of one browser's authentication state.
//
// A zero Expiry means the expiry is unknown and the access token must be treated as expired.
type Session struct {
	AccessToken  string
	RefreshToken string
	Expiry       time.Time

	// State is the pending OAuth CSRF token between /login and /callback.
	State string
}

// Authenticated reports whether an access token is present.
func (s *Session) Authenticated() bool {
	return s != nil && s.AccessToken != ""
}

// Expired reports whether the access token is expired at now. Expiry is exclusive: now == Expiry is expired.
func (s *Session) Expired(now time.Time) bool {
	return s.Expiry.IsZero() || !now.Before(s.Expiry)
}

// SetTokens stores a fresh access token expiring expiresIn after now.
//
// An empty refreshToken keeps the current one.
func (s *Session) SetTokens(accessToken, refreshToken string, expiresIn time.Duration, now time.Time) {
	s.AccessToken = accessToken
	if refreshToken != "" {
		s.RefreshToken = refreshToken
	}
	s.Expiry = now.Add(expiresIn)
}

// Clear drops every token and the pending state.
func (s *Session) Clear() {
	*s = Session{}
}

type contextKey struct{}

// WithContext returns a copy of ctx carrying s.
func WithContext(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, contextKey{}, s)
}

// FromContext returns the session attached by the Auth Guard.
func FromContext(ctx context.Context) (*Session, bool) {
	s, ok := ctx.Value(contextKey{}).(*Session)
	return s, ok && s != nil
}
