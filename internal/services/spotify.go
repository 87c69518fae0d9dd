// Spotify Web API implementation of [Service]
package services

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/desertthunder/soundexplorer/internal/models"
	"github.com/desertthunder/soundexplorer/internal/shared"
	"github.com/zmb3/spotify/v2"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
)

// maxTracksPerAdd is the Web API limit for one "add items to playlist" call.
const maxTracksPerAdd = 100

// SpotifyService implements [Service] on top of the [spotify.Client].
type SpotifyService struct {
	client *spotify.Client
}

// NewSpotifyService wraps an already authenticated [spotify.Client].
func NewSpotifyService(client *spotify.Client) *SpotifyService {
	return &SpotifyService{client: client}
}

// NewSpotifyFactory returns a [ServiceFactory] that builds a client per access token.
//
// All clients share one transport paced by a token bucket of cfg.RateLimit requests per second.
// The token source is static: refreshing is the Auth Guard's job, never the HTTP client's.
func NewSpotifyFactory(cfg shared.SpotifyConfig, base http.RoundTripper) ServiceFactory {
	if base == nil {
		base = http.DefaultTransport
	}
	transport := NewRateLimitedTransport(base, cfg.RateLimit)
	timeout := cfg.Timeout.Duration
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	var opts []spotify.ClientOption
	if cfg.APIURL != "" {
		apiURL := cfg.APIURL
		if !strings.HasSuffix(apiURL, "/") {
			apiURL += "/"
		}
		opts = append(opts, spotify.WithBaseURL(apiURL))
	}

	return func(accessToken string) Service {
		httpClient := &http.Client{
			Timeout: timeout,
			Transport: &oauth2.Transport{
				Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken, TokenType: "Bearer"}),
				Base:   transport,
			},
		}
		return NewSpotifyService(spotify.New(httpClient, opts...))
	}
}

// CurrentUser retrieves the current authenticated user's profile.
func (s *SpotifyService) CurrentUser(ctx context.Context) (*models.User, error) {
	user, err := s.client.CurrentUser(ctx)
	if err != nil {
		return nil, shared.NewExternalAPIError("current user", err)
	}

	images := make([]models.Image, 0, len(user.Images))
	for _, img := range user.Images {
		images = append(images, models.Image{URL: img.URL, Height: int(img.Height), Width: int(img.Width)})
	}

	return &models.User{
		ID:          user.ID,
		DisplayName: user.DisplayName,
		Country:     user.Country,
		Images:      images,
	}, nil
}

// TopArtists retrieves the user's top artists.
func (s *SpotifyService) TopArtists(ctx context.Context, limit int) ([]models.Artist, error) {
	page, err := s.client.CurrentUsersTopArtists(ctx, spotify.Limit(limit))
	if err != nil {
		return nil, shared.NewExternalAPIError("top artists", err)
	}
	return toArtists(page.Artists), nil
}

// RelatedArtists retrieves artists similar to artistID.
func (s *SpotifyService) RelatedArtists(ctx context.Context, artistID string) ([]models.Artist, error) {
	artists, err := s.client.GetRelatedArtists(ctx, spotify.ID(artistID))
	if err != nil {
		return nil, shared.NewExternalAPIError("related artists", err)
	}
	return toArtists(artists), nil
}

// CreatePlaylist creates a non-collaborative playlist for userID.
func (s *SpotifyService) CreatePlaylist(ctx context.Context, userID string, playlist models.Playlist) (*models.Playlist, error) {
	created, err := s.client.CreatePlaylistForUser(ctx, userID, playlist.Name, playlist.Description, playlist.Public, false)
	if err != nil {
		return nil, shared.NewExternalAPIError("create playlist", err)
	}

	return &models.Playlist{
		ID:          string(created.ID),
		Name:        created.Name,
		Description: created.Description,
		Public:      created.IsPublic,
	}, nil
}

// Recommendations retrieves tracks seeded by artists. The provider accepts at most five seeds.
func (s *SpotifyService) Recommendations(ctx context.Context, seedArtistIDs []string, limit int) ([]models.Track, error) {
	seeds := spotify.Seeds{Artists: make([]spotify.ID, 0, len(seedArtistIDs))}
	for _, id := range seedArtistIDs {
		seeds.Artists = append(seeds.Artists, spotify.ID(id))
	}

	recs, err := s.client.GetRecommendations(ctx, seeds, nil, spotify.Limit(limit))
	if err != nil {
		return nil, shared.NewExternalAPIError("recommendations", err)
	}

	tracks := make([]models.Track, 0, len(recs.Tracks))
	for _, t := range recs.Tracks {
		tracks = append(tracks, models.Track{ID: string(t.ID), Name: t.Name})
	}
	return tracks, nil
}

// AddTracks appends tracks to a playlist, in chunks the API accepts.
func (s *SpotifyService) AddTracks(ctx context.Context, playlistID string, trackIDs []string) error {
	for start := 0; start < len(trackIDs); start += maxTracksPerAdd {
		end := min(start+maxTracksPerAdd, len(trackIDs))

		ids := make([]spotify.ID, 0, end-start)
		for _, id := range trackIDs[start:end] {
			ids = append(ids, spotify.ID(id))
		}

		if _, err := s.client.AddTracksToPlaylist(ctx, spotify.ID(playlistID), ids...); err != nil {
			return shared.NewExternalAPIError("add tracks", err)
		}
	}
	return nil
}

// SearchPlaylists searches playlists in a market.
//
// The API may return null entries in place of unavailable playlists; those are dropped.
func (s *SpotifyService) SearchPlaylists(ctx context.Context, query, market string, limit int) ([]models.Playlist, error) {
	opts := []spotify.RequestOption{spotify.Limit(limit)}
	if market != "" {
		opts = append(opts, spotify.Market(market))
	}

	result, err := s.client.Search(ctx, query, spotify.SearchTypePlaylist, opts...)
	if err != nil {
		return nil, shared.NewExternalAPIError("search playlists", err)
	}
	if result.Playlists == nil {
		return nil, nil
	}

	playlists := make([]models.Playlist, 0, len(result.Playlists.Playlists))
	for _, p := range result.Playlists.Playlists {
		if p.ID == "" {
			continue
		}
		playlists = append(playlists, models.Playlist{
			ID:     string(p.ID),
			Name:   p.Name,
			Public: p.IsPublic,
		})
	}
	return playlists, nil
}

func toArtists(in []spotify.FullArtist) []models.Artist {
	artists := make([]models.Artist, 0, len(in))
	for _, a := range in {
		artists = append(artists, models.Artist{ID: string(a.ID), URI: string(a.URI), Name: a.Name})
	}
	return artists
}

// rateLimitedTransport waits on a [rate.Limiter] before every outbound request.
type rateLimitedTransport struct {
	base    http.RoundTripper
	limiter *rate.Limiter
}

// NewRateLimitedTransport paces requests through base to perSecond. A non-positive rate disables pacing.
func NewRateLimitedTransport(base http.RoundTripper, perSecond float64) http.RoundTripper {
	if perSecond <= 0 {
		return base
	}
	burst := max(int(perSecond), 1)
	return &rateLimitedTransport{base: base, limiter: rate.NewLimiter(rate.Limit(perSecond), burst)}
}

// RoundTrip implements [http.RoundTripper].
func (t *rateLimitedTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if err := t.limiter.Wait(req.Context()); err != nil {
		return nil, err
	}
	return t.base.RoundTrip(req)
}
