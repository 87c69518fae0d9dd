// package recommend implements the recommendation flows on top of [services.Service]
package recommend

import (
	"context"
	"math/rand/v2"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/soundexplorer/internal/models"
	"github.com/desertthunder/soundexplorer/internal/services"
	"github.com/desertthunder/soundexplorer/internal/shared"
)

const (
	relatedSeedPool = 10  // top artists considered when picking a related artist
	playlistSeeds   = 5   // the recommendations endpoint accepts at most five seeds
	playlistTracks  = 100 // tracks requested for a generated playlist

	PlaylistName        = "Recommendations by SoundExplorer"
	PlaylistDescription = "recommendation playlist by SoundExplorer"
	TopTracksQuery      = "Top"

	historyMessage = "Not enough listening history to make a recommendation yet. Listen to more music and try again."
)

// Picker selects a uniformly random index in [0, n).
type Picker interface {
	IntN(n int) int
}

type pickerFunc func(n int) int

func (f pickerFunc) IntN(n int) int { return f(n) }

// UserInfo is the profile summary returned by /user_informations.
type UserInfo struct {
	Username   string `json:"username"`
	PictureURL string `json:"user_picture"`
}

// Recommender runs each recommendation against the Service of the current user.
type Recommender struct {
	picker Picker
	logger *log.Logger
}

// New creates a [Recommender] drawing from the global math/rand source.
func New(logger *log.Logger) *Recommender {
	return &Recommender{picker: pickerFunc(rand.IntN), logger: logger}
}

// WithPicker replaces the random source.
func (r *Recommender) WithPicker(p Picker) *Recommender {
	r.picker = p
	return r
}

// RelatedArtist picks one of the user's top artists at random and returns a random artist related to it.
func (r *Recommender) RelatedArtist(ctx context.Context, svc services.Service) (string, error) {
	top, err := svc.TopArtists(ctx, relatedSeedPool)
	if err != nil {
		return "", err
	}

	ids := uniqueIDs(top)
	if len(ids) == 0 {
		return "", &shared.EmptyResultError{Resource: "top artists", Message: historyMessage}
	}
	seed := ids[r.picker.IntN(len(ids))]

	related, err := svc.RelatedArtists(ctx, seed)
	if err != nil {
		return "", err
	}
	if len(related) == 0 {
		return "", &shared.EmptyResultError{Resource: "related artists", Message: historyMessage}
	}

	artist := related[r.picker.IntN(len(related))]
	r.logger.Debug("related artist picked", "seed", seed, "artist", artist.ID)
	return artist.ID, nil
}

// BuildPlaylist creates a public playlist of recommendations seeded by the user's top five artists
// in ranking order and returns its ID.
//
// If adding tracks fails the empty playlist stays on the user's account.
func (r *Recommender) BuildPlaylist(ctx context.Context, svc services.Service) (string, error) {
	top, err := svc.TopArtists(ctx, playlistSeeds)
	if err != nil {
		return "", err
	}
	if len(top) == 0 {
		return "", &shared.EmptyResultError{Resource: "top artists", Message: historyMessage}
	}

	seeds := make([]string, 0, min(len(top), playlistSeeds))
	for _, a := range top[:min(len(top), playlistSeeds)] {
		seeds = append(seeds, a.ID)
	}

	user, err := svc.CurrentUser(ctx)
	if err != nil {
		return "", err
	}

	playlist, err := svc.CreatePlaylist(ctx, user.ID, models.Playlist{
		Name:        PlaylistName,
		Description: PlaylistDescription,
		Public:      true,
	})
	if err != nil {
		return "", err
	}

	tracks, err := svc.Recommendations(ctx, seeds, playlistTracks)
	if err != nil {
		return "", err
	}

	trackIDs := make([]string, 0, len(tracks))
	for _, t := range tracks {
		trackIDs = append(trackIDs, t.ID)
	}
	if len(trackIDs) > 0 {
		if err := svc.AddTracks(ctx, playlist.ID, trackIDs); err != nil {
			return "", err
		}
	}

	r.logger.Debug("playlist built", "playlist", playlist.ID, "seeds", seeds, "tracks", len(trackIDs))
	return playlist.ID, nil
}

// TopTracksPlaylist returns the first playlist matching "Top" in the user's country.
func (r *Recommender) TopTracksPlaylist(ctx context.Context, svc services.Service) (string, error) {
	user, err := svc.CurrentUser(ctx)
	if err != nil {
		return "", err
	}

	playlists, err := svc.SearchPlaylists(ctx, TopTracksQuery, user.Country, 1)
	if err != nil {
		return "", err
	}
	if len(playlists) == 0 {
		return "", &shared.EmptyResultError{
			Resource: "top playlists",
			Message:  "No top tracks playlist is available for your country.",
		}
	}
	return playlists[0].ID, nil
}

// UserInfo returns the display name and first profile picture of the user.
func (r *Recommender) UserInfo(ctx context.Context, svc services.Service) (*UserInfo, error) {
	user, err := svc.CurrentUser(ctx)
	if err != nil {
		return nil, err
	}
	return &UserInfo{Username: user.DisplayName, PictureURL: user.PictureURL()}, nil
}

// uniqueIDs drops duplicate and empty IDs, keeping first occurrences in order.
func uniqueIDs(artists []models.Artist) []string {
	seen := make(map[string]struct{}, len(artists))
	ids := make([]string, 0, len(artists))
	for _, a := range artists {
		if a.ID == "" {
			continue
		}
		if _, ok := seen[a.ID]; ok {
			continue
		}
		seen[a.ID] = struct{}{}
		ids = append(ids, a.ID)
	}
	return ids
}
