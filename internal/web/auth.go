package web

import (
	"net/http"

	"github.com/desertthunder/soundexplorer/internal/server"
	"github.com/desertthunder/soundexplorer/internal/shared"
)

// Login renders the login page. A new OAuth state is stored in the session on every visit.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	s, err := h.sessions.Load(r)
	if err != nil {
		h.fail(w, r, FormatPage, err)
		return
	}

	s.State = shared.GenerateID()
	if err := h.sessions.Save(w, r, s); err != nil {
		h.fail(w, r, FormatPage, err)
		return
	}

	flashes, err := h.sessions.Flashes(w, r)
	if err != nil {
		h.logger.Warn("failed to read flashes", "error", err)
	}

	h.render(w, http.StatusOK, "login", page{
		Title:   "Log in",
		Flashes: flashes,
		AuthURL: h.oauth.AuthorizeURL(s.State),
	})
}

// Callback completes the authorization code flow.
//
// A missing code, a state mismatch or a failed exchange stores nothing, flashes an error and
// sends the browser back to /login.
func (h *Handler) Callback(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	now := h.now()

	s, err := h.sessions.Load(r)
	if err != nil {
		h.fail(w, r, FormatPage, err)
		return
	}

	expected := s.State
	s.State = ""

	code := q.Get("code")
	switch {
	case code == "":
		h.logger.Warn("callback without code", "error", q.Get("error"))
		h.rejectLogin(w, r)
		return
	case expected == "" || q.Get("state") != expected:
		h.logger.Warn("callback state mismatch", "error", shared.ErrInvalidState)
		h.rejectLogin(w, r)
		return
	}

	info, err := h.oauth.Exchange(r.Context(), code)
	if err != nil {
		h.logger.Error("code exchange failed", "error", err)
		h.rejectLogin(w, r)
		return
	}

	s.SetTokens(info.AccessToken, info.RefreshToken, info.ExpiresIn, now)
	if err := h.sessions.Save(w, r, s); err != nil {
		h.fail(w, r, FormatPage, err)
		return
	}

	h.logger.Info("user logged in", "expiry", s.Expiry)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// rejectLogin drops any pending state, flashes the login error and redirects to /login.
func (h *Handler) rejectLogin(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.Clear(w, r); err != nil {
		h.logger.Error("failed to clear session", "error", err)
	}
	if err := h.sessions.AddFlash(w, r, loginFailed); err != nil {
		h.logger.Error("failed to add flash", "error", err)
	}
	http.Redirect(w, r, server.LoginPath, http.StatusSeeOther)
}

// LogOut clears the session and redirects to /login.
func (h *Handler) LogOut(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.Clear(w, r); err != nil {
		h.logger.Error("failed to clear session", "error", err)
	}
	http.Redirect(w, r, server.LoginPath, http.StatusSeeOther)
}
