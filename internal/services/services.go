// package services defines the interfaces for talking to the music provider: OAuth and the Web API
package services

import (
	"context"
	"time"

	"github.com/desertthunder/soundexplorer/internal/models"
)

// Service defines the Web API calls the recommendation flows need, bound to one user's access token.
type Service interface {
	// CurrentUser returns the profile of the token owner.
	CurrentUser(ctx context.Context) (*models.User, error)

	// TopArtists returns up to limit of the user's most played artists in the provider's ranking order.
	TopArtists(ctx context.Context, limit int) ([]models.Artist, error)

	// RelatedArtists returns artists the provider considers similar to artistID.
	RelatedArtists(ctx context.Context, artistID string) ([]models.Artist, error)

	// CreatePlaylist creates a playlist owned by userID.
	CreatePlaylist(ctx context.Context, userID string, playlist models.Playlist) (*models.Playlist, error)

	// Recommendations returns up to limit tracks seeded by the given artist IDs, in order.
	Recommendations(ctx context.Context, seedArtistIDs []string, limit int) ([]models.Track, error)

	// AddTracks appends tracks to a playlist in the given order.
	AddTracks(ctx context.Context, playlistID string, trackIDs []string) error

	// SearchPlaylists searches public playlists matching query within a market (ISO country code).
	SearchPlaylists(ctx context.Context, query, market string, limit int) ([]models.Playlist, error)
}

// ServiceFactory builds a [Service] that authenticates with the given access token.
type ServiceFactory func(accessToken string) Service

// TokenInfo is the result of an authorization code exchange or a refresh.
type TokenInfo struct {
	AccessToken  string
	RefreshToken string
	ExpiresIn    time.Duration
}

// OAuthService performs the authorization code flow against the provider.
type OAuthService interface {
	// AuthorizeURL builds the provider's consent page URL carrying state.
	AuthorizeURL(state string) string

	// Exchange trades an authorization code for tokens.
	Exchange(ctx context.Context, code string) (*TokenInfo, error)

	// Refresh trades a refresh token for a new access token.
	Refresh(ctx context.Context, refreshToken string) (*TokenInfo, error)
}
