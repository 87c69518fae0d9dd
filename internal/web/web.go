// Package web serves the SoundExplorer pages and JSON endpoints.
//
// # Routes
//
//	GET /login              login page with the authorization URL
//	GET /callback           OAuth redirect target
//	GET /log_out            clears the session
//	GET /healthz            liveness probe
//	GET /                   index page                     (guarded)
//	GET /user_informations  {"username", "user_picture"}   (guarded)
//	GET /artists            related artist page            (guarded)
//	GET /get_new_artist     {"artist_id"}                  (guarded)
//	GET /songs              generated playlist page        (guarded)
//	GET /get_new_playlist   {"playlist_id"}                (guarded)
//	GET /top_tracks         top tracks playlist page       (guarded)
//
// Each recommendation is a single method taking a [Format], so the page route and its JSON
// twin share the same logic.
//
// # Errors
//
// A [shared.EmptyResultError] becomes a 404 carrying its user-facing message. Anything else is
// logged and answered with a generic 500.
package web

import (
	"embed"
	"encoding/json"
	"errors"
	"html/template"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/soundexplorer/internal/recommend"
	"github.com/desertthunder/soundexplorer/internal/server"
	"github.com/desertthunder/soundexplorer/internal/services"
	"github.com/desertthunder/soundexplorer/internal/session"
	"github.com/desertthunder/soundexplorer/internal/shared"
)

//go:embed templates/*.html
var templateFS embed.FS

// Format selects how a recommendation is presented.
type Format int

const (
	FormatPage Format = iota
	FormatJSON
)

const (
	loginFailed    = "Error when logging in"
	genericFailure = "Something went wrong. Please try again later."
)

// page is the data passed to every template.
type page struct {
	Title      string
	Nav        bool
	Flashes    []string
	AuthURL    string
	ArtistID   string
	PlaylistID string
	Message    string
}

// Handler serves every SoundExplorer route.
type Handler struct {
	oauth       services.OAuthService
	newService  services.ServiceFactory
	recommender *recommend.Recommender
	sessions    *session.Manager
	guard       *server.Guard
	templates   *template.Template
	logger      *log.Logger
	now         func() time.Time
}

// Options holds the dependencies of a [Handler].
type Options struct {
	OAuth       services.OAuthService
	Services    services.ServiceFactory
	Recommender *recommend.Recommender
	Sessions    *session.Manager
	Guard       *server.Guard
	Logger      *log.Logger
}

// NewHandler parses the embedded templates and creates a [Handler].
func NewHandler(opts Options) (*Handler, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, err
	}

	return &Handler{
		oauth:       opts.OAuth,
		newService:  opts.Services,
		recommender: opts.Recommender,
		sessions:    opts.Sessions,
		guard:       opts.Guard,
		templates:   tmpl,
		logger:      opts.Logger,
		now:         time.Now,
	}, nil
}

// WithClock replaces the clock used to compute token expiry after login.
func (h *Handler) WithClock(now func() time.Time) *Handler {
	h.now = now
	return h
}

// Register implements [server.Handler].
func (h *Handler) Register(r server.Router) {
	guarded := h.guard.RequireAuth

	r.Handle(http.MethodGet, "/login", http.HandlerFunc(h.Login))
	r.Handle(http.MethodGet, "/callback", http.HandlerFunc(h.Callback))
	r.Handle(http.MethodGet, "/log_out", http.HandlerFunc(h.LogOut))
	r.Handle(http.MethodGet, "/healthz", http.HandlerFunc(server.Health))

	r.Handle(http.MethodGet, "/{$}", http.HandlerFunc(h.Index), guarded)
	r.Handle(http.MethodGet, "/user_informations", http.HandlerFunc(h.UserInformations), guarded)
	r.Handle(http.MethodGet, "/artists", h.artist(FormatPage), guarded)
	r.Handle(http.MethodGet, "/get_new_artist", h.artist(FormatJSON), guarded)
	r.Handle(http.MethodGet, "/songs", h.playlist(FormatPage), guarded)
	r.Handle(http.MethodGet, "/get_new_playlist", h.playlist(FormatJSON), guarded)
	r.Handle(http.MethodGet, "/top_tracks", http.HandlerFunc(h.TopTracks), guarded)
}

// service returns the Web API client for the guarded request's access token.
func (h *Handler) service(r *http.Request) services.Service {
	s, _ := session.FromContext(r.Context())
	return h.newService(s.AccessToken)
}

func (h *Handler) render(w http.ResponseWriter, status int, name string, data page) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := h.templates.ExecuteTemplate(w, name, data); err != nil {
		h.logger.Error("failed to render template", "template", name, "error", err)
	}
}

func (h *Handler) json(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

// fail maps err onto a response in the requested format.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, format Format, err error) {
	status, msg, title := http.StatusInternalServerError, genericFailure, "Something went wrong"

	var empty *shared.EmptyResultError
	if errors.As(err, &empty) {
		status, msg, title = http.StatusNotFound, empty.Message, "Nothing to show yet"
		if msg == "" {
			msg = "Nothing to show yet."
		}
		h.logger.Info("empty result", "path", r.URL.Path, "resource", empty.Resource)
	} else {
		h.logger.Error("request failed", "path", r.URL.Path, "error", err)
	}

	if format == FormatJSON {
		h.json(w, status, map[string]string{"error": msg})
		return
	}
	h.render(w, status, "error", page{Title: title, Nav: true, Message: msg})
}
