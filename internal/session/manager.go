package session

import (
	"crypto/sha256"
	"crypto/sha512"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/desertthunder/soundexplorer/internal/shared"
	"github.com/gorilla/securecookie"
	"github.com/gorilla/sessions"
)

const (
	keyAccessToken  = "access_token"
	keyRefreshToken = "refresh_token"
	keyExpiry       = "expiry" // unix milliseconds
	keyState        = "oauth_state"
)

// Manager maps [Session] values onto a named [sessions.Session] of the underlying store.
type Manager struct {
	store sessions.Store
	name  string
}

// NewManager creates a Manager for the cookie called name.
func NewManager(store sessions.Store, name string) *Manager {
	return &Manager{store: store, name: name}
}

// Options returns the cookie options shared by every store.
func Options(cfg shared.SessionConfig) *sessions.Options {
	return &sessions.Options{
		Path:     "/",
		MaxAge:   cfg.MaxAge,
		HttpOnly: true,
		Secure:   cfg.Secure,
		SameSite: http.SameSiteLaxMode,
	}
}

// Keys derives the cookie hash (64 bytes) and encryption (32 bytes) keys from secret.
//
// An empty secret yields random keys, so every restart logs everybody out.
func Keys(secret string) (hashKey, blockKey []byte) {
	if secret == "" {
		return securecookie.GenerateRandomKey(64), securecookie.GenerateRandomKey(32)
	}
	h := sha512.Sum512([]byte("hash:" + secret))
	b := sha256.Sum256([]byte("block:" + secret))
	return h[:], b[:]
}

// NewCookieStore returns a store that keeps the whole session inside the encrypted cookie.
func NewCookieStore(cfg shared.SessionConfig) *sessions.CookieStore {
	store := sessions.NewCookieStore(Keys(cfg.Secret))
	store.Options = Options(cfg)
	store.MaxAge(cfg.MaxAge)
	return store
}

func (m *Manager) raw(r *http.Request) (*sessions.Session, error) {
	raw, err := m.store.Get(r, m.name)
	if err == nil {
		return raw, nil
	}
	// A cookie that fails to decode (rotated keys, tampering) is an empty session.
	if raw != nil && !errors.Is(err, shared.ErrSessionStore) {
		return raw, nil
	}
	return nil, err
}

// Load returns the request's session. A missing or undecodable cookie gives an empty Session.
func (m *Manager) Load(r *http.Request) (*Session, error) {
	raw, err := m.raw(r)
	if err != nil {
		return nil, err
	}

	s := &Session{}
	s.AccessToken, _ = raw.Values[keyAccessToken].(string)
	s.RefreshToken, _ = raw.Values[keyRefreshToken].(string)
	s.State, _ = raw.Values[keyState].(string)
	if ms, ok := raw.Values[keyExpiry].(int64); ok && ms > 0 {
		s.Expiry = time.UnixMilli(ms)
	}
	return s, nil
}

// Save writes s back to the store and sets the cookie.
func (m *Manager) Save(w http.ResponseWriter, r *http.Request, s *Session) error {
	raw, err := m.raw(r)
	if err != nil {
		return err
	}

	set := func(key, value string) {
		if value == "" {
			delete(raw.Values, key)
			return
		}
		raw.Values[key] = value
	}
	set(keyAccessToken, s.AccessToken)
	set(keyRefreshToken, s.RefreshToken)
	set(keyState, s.State)
	if s.Expiry.IsZero() {
		delete(raw.Values, keyExpiry)
	} else {
		raw.Values[keyExpiry] = s.Expiry.UnixMilli()
	}

	if err := raw.Save(r, w); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// Clear empties the session, keeping the cookie so flashes added afterwards survive the redirect.
func (m *Manager) Clear(w http.ResponseWriter, r *http.Request) error {
	raw, err := m.raw(r)
	if err != nil {
		return err
	}
	for k := range raw.Values {
		delete(raw.Values, k)
	}
	if err := raw.Save(r, w); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	return nil
}

// AddFlash queues a one-shot message for the next rendered page.
func (m *Manager) AddFlash(w http.ResponseWriter, r *http.Request, msg string) error {
	raw, err := m.raw(r)
	if err != nil {
		return err
	}
	raw.AddFlash(msg)
	return raw.Save(r, w)
}

// Flashes pops queued messages.
func (m *Manager) Flashes(w http.ResponseWriter, r *http.Request) ([]string, error) {
	raw, err := m.raw(r)
	if err != nil {
		return nil, err
	}

	flashes := raw.Flashes()
	if len(flashes) == 0 {
		return nil, nil
	}

	msgs := make([]string, 0, len(flashes))
	for _, f := range flashes {
		if s, ok := f.(string); ok {
			msgs = append(msgs, s)
		}
	}
	return msgs, raw.Save(r, w)
}
