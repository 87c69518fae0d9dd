package session

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/desertthunder/soundexplorer/internal/shared"
	"github.com/gorilla/securecookie"
	"github.com/gorilla/sessions"
)

// defaultTTL bounds server-side records of browser-lifetime cookies (MaxAge 0).
const defaultTTL = 24 * time.Hour

// Backend persists encoded session records by ID.
//
// Load returns (nil, nil) for unknown or expired IDs.
type Backend interface {
	Load(ctx context.Context, id string) ([]byte, error)
	Save(ctx context.Context, id string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, id string) error
}

// ServerStore is a [sessions.Store] that keeps values in a [Backend] and only a signed ID in the cookie.
type ServerStore struct {
	Codecs  []securecookie.Codec
	Options *sessions.Options

	backend Backend
}

// NewServerStore creates a ServerStore with cookie options taken from cfg.
func NewServerStore(backend Backend, cfg shared.SessionConfig) *ServerStore {
	hashKey, blockKey := Keys(cfg.Secret)
	s := &ServerStore{
		Codecs:  securecookie.CodecsFromPairs(hashKey, blockKey),
		Options: Options(cfg),
		backend: backend,
	}
	for _, c := range s.Codecs {
		if sc, ok := c.(*securecookie.SecureCookie); ok {
			sc.MaxAge(cfg.MaxAge)
		}
	}
	return s
}

// Get returns the session cached for the request, loading it on first use.
func (s *ServerStore) Get(r *http.Request, name string) (*sessions.Session, error) {
	return sessions.GetRegistry(r).Get(s, name)
}

// New loads the session referenced by the request cookie or returns a fresh one.
//
// Backend failures are reported wrapped in [shared.ErrSessionStore] alongside a usable empty session.
func (s *ServerStore) New(r *http.Request, name string) (*sessions.Session, error) {
	session := sessions.NewSession(s, name)
	opts := *s.Options
	session.Options = &opts
	session.IsNew = true

	c, err := r.Cookie(name)
	if err != nil {
		return session, nil
	}
	if err := securecookie.DecodeMulti(name, c.Value, &session.ID, s.Codecs...); err != nil {
		return session, nil
	}

	data, err := s.backend.Load(r.Context(), session.ID)
	if err != nil {
		return session, fmt.Errorf("%w: load %s: %v", shared.ErrSessionStore, session.ID, err)
	}
	if data == nil {
		session.ID = ""
		return session, nil
	}

	if err := securecookie.DecodeMulti(name, string(data), &session.Values, s.Codecs...); err != nil {
		session.ID = ""
		return session, nil
	}

	session.IsNew = false
	return session, nil
}

// Save writes the session record and the ID cookie. A negative MaxAge deletes both.
func (s *ServerStore) Save(r *http.Request, w http.ResponseWriter, session *sessions.Session) error {
	ctx := r.Context()

	if session.Options.MaxAge < 0 {
		if session.ID != "" {
			if err := s.backend.Delete(ctx, session.ID); err != nil {
				return fmt.Errorf("%w: delete %s: %v", shared.ErrSessionStore, session.ID, err)
			}
		}
		http.SetCookie(w, sessions.NewCookie(session.Name(), "", session.Options))
		return nil
	}

	if session.ID == "" {
		session.ID = shared.GenerateID()
	}

	encoded, err := securecookie.EncodeMulti(session.Name(), session.Values, s.Codecs...)
	if err != nil {
		return err
	}

	ttl := time.Duration(session.Options.MaxAge) * time.Second
	if ttl <= 0 {
		ttl = defaultTTL
	}
	if err := s.backend.Save(ctx, session.ID, []byte(encoded), ttl); err != nil {
		return fmt.Errorf("%w: save %s: %v", shared.ErrSessionStore, session.ID, err)
	}

	cookie, err := securecookie.EncodeMulti(session.Name(), session.ID, s.Codecs...)
	if err != nil {
		return err
	}
	http.SetCookie(w, sessions.NewCookie(session.Name(), cookie, session.Options))
	return nil
}
