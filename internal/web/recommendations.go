package web

import (
	"net/http"
)

// Index renders the home page.
func (h *Handler) Index(w http.ResponseWriter, r *http.Request) {
	flashes, err := h.sessions.Flashes(w, r)
	if err != nil {
		h.logger.Warn("failed to read flashes", "error", err)
	}
	h.render(w, http.StatusOK, "index", page{Title: "Home", Nav: true, Flashes: flashes})
}

// UserInformations returns the display name and picture of the logged in user.
func (h *Handler) UserInformations(w http.ResponseWriter, r *http.Request) {
	info, err := h.recommender.UserInfo(r.Context(), h.service(r))
	if err != nil {
		h.fail(w, r, FormatJSON, err)
		return
	}
	h.json(w, http.StatusOK, info)
}

// RelatedArtist presents one artist related to the user's top artists.
func (h *Handler) RelatedArtist(w http.ResponseWriter, r *http.Request, format Format) {
	id, err := h.recommender.RelatedArtist(r.Context(), h.service(r))
	if err != nil {
		h.fail(w, r, format, err)
		return
	}

	if format == FormatJSON {
		h.json(w, http.StatusOK, map[string]string{"artist_id": id})
		return
	}
	h.render(w, http.StatusOK, "artists", page{Title: "Artists", Nav: true, ArtistID: id})
}

// Playlist creates a recommendations playlist and presents its ID.
func (h *Handler) Playlist(w http.ResponseWriter, r *http.Request, format Format) {
	id, err := h.recommender.BuildPlaylist(r.Context(), h.service(r))
	if err != nil {
		h.fail(w, r, format, err)
		return
	}

	if format == FormatJSON {
		h.json(w, http.StatusOK, map[string]string{"playlist_id": id})
		return
	}
	h.render(w, http.StatusOK, "songs", page{Title: "Songs", Nav: true, PlaylistID: id})
}

// TopTracks presents the top tracks playlist of the user's country.
func (h *Handler) TopTracks(w http.ResponseWriter, r *http.Request) {
	id, err := h.recommender.TopTracksPlaylist(r.Context(), h.service(r))
	if err != nil {
		h.fail(w, r, FormatPage, err)
		return
	}
	h.render(w, http.StatusOK, "top_tracks", page{Title: "Top Tracks", Nav: true, PlaylistID: id})
}

func (h *Handler) artist(format Format) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h.RelatedArtist(w, r, format)
	})
}

func (h *Handler) playlist(format Format) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h.Playlist(w, r, format)
	})
}
