// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"

	"github.com/desertthunder/soundexplorer/internal/models"
	"github.com/desertthunder/soundexplorer/internal/services"
)

// MockService is a test double for [services.Service].
//
// Each method returns the matching field; calls are recorded in Calls by method name.
type MockService struct {
	mu    sync.Mutex
	Calls []string

	User          *models.User
	Top           []models.Artist
	Related       []models.Artist
	Created       *models.Playlist
	Tracks        []models.Track
	SearchResults []models.Playlist
	Err           error            // returned by every method when set
	ErrByMethod   map[string]error // overrides Err per method

	// Captured arguments
	TopLimit     int
	RelatedTo    string
	CreatedFor   string
	CreatedSpec  models.Playlist
	Seeds        []string
	RecLimit     int
	AddedTo      string
	AddedTracks  []string
	SearchQuery  string
	SearchMarket string
	SearchLimit  int
}

var _ services.Service = (*MockService)(nil)

func (m *MockService) record(method string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = append(m.Calls, method)
	if err, ok := m.ErrByMethod[method]; ok {
		return err
	}
	return m.Err
}

// Called reports whether method was invoked.
func (m *MockService) Called(method string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.Calls {
		if c == method {
			return true
		}
	}
	return false
}

func (m *MockService) CurrentUser(ctx context.Context) (*models.User, error) {
	if err := m.record("CurrentUser"); err != nil {
		return nil, err
	}
	if m.User == nil {
		return &models.User{ID: "user"}, nil
	}
	return m.User, nil
}

func (m *MockService) TopArtists(ctx context.Context, limit int) ([]models.Artist, error) {
	m.TopLimit = limit
	if err := m.record("TopArtists"); err != nil {
		return nil, err
	}
	if len(m.Top) > limit {
		return m.Top[:limit], nil
	}
	return m.Top, nil
}

func (m *MockService) RelatedArtists(ctx context.Context, artistID string) ([]models.Artist, error) {
	m.RelatedTo = artistID
	if err := m.record("RelatedArtists"); err != nil {
		return nil, err
	}
	return m.Related, nil
}

func (m *MockService) CreatePlaylist(ctx context.Context, userID string, playlist models.Playlist) (*models.Playlist, error) {
	m.CreatedFor = userID
	m.CreatedSpec = playlist
	if err := m.record("CreatePlaylist"); err != nil {
		return nil, err
	}
	if m.Created == nil {
		created := playlist
		created.ID = "playlist"
		return &created, nil
	}
	return m.Created, nil
}

func (m *MockService) Recommendations(ctx context.Context, seedArtistIDs []string, limit int) ([]models.Track, error) {
	m.Seeds = seedArtistIDs
	m.RecLimit = limit
	if err := m.record("Recommendations"); err != nil {
		return nil, err
	}
	return m.Tracks, nil
}

func (m *MockService) AddTracks(ctx context.Context, playlistID string, trackIDs []string) error {
	m.AddedTo = playlistID
	m.AddedTracks = trackIDs
	return m.record("AddTracks")
}

func (m *MockService) SearchPlaylists(ctx context.Context, query, market string, limit int) ([]models.Playlist, error) {
	m.SearchQuery, m.SearchMarket, m.SearchLimit = query, market, limit
	if err := m.record("SearchPlaylists"); err != nil {
		return nil, err
	}
	return m.SearchResults, nil
}

// Factory returns a [services.ServiceFactory] that always hands out m and remembers the token.
func (m *MockService) Factory(tokens *[]string) services.ServiceFactory {
	return func(accessToken string) services.Service {
		if tokens != nil {
			*tokens = append(*tokens, accessToken)
		}
		return m
	}
}

// MockOAuth is a test double for [services.OAuthService].
type MockOAuth struct {
	mu sync.Mutex

	URL           string
	ExchangeInfo  *services.TokenInfo
	ExchangeErr   error
	RefreshInfo   *services.TokenInfo
	RefreshErr    error
	Codes         []string
	RefreshTokens []string
}

var _ services.OAuthService = (*MockOAuth)(nil)

func (m *MockOAuth) AuthorizeURL(state string) string {
	if m.URL == "" {
		return "https://accounts.example.com/authorize?state=" + state
	}
	return m.URL + "?state=" + state
}

func (m *MockOAuth) Exchange(ctx context.Context, code string) (*services.TokenInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Codes = append(m.Codes, code)
	if m.ExchangeErr != nil {
		return nil, m.ExchangeErr
	}
	return m.ExchangeInfo, nil
}

func (m *MockOAuth) Refresh(ctx context.Context, refreshToken string) (*services.TokenInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.RefreshTokens = append(m.RefreshTokens, refreshToken)
	if m.RefreshErr != nil {
		return nil, m.RefreshErr
	}
	return m.RefreshInfo, nil
}

// RefreshCount returns the number of Refresh calls.
func (m *MockOAuth) RefreshCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.RefreshTokens)
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

func MustChdir(t *testing.T, dir string) {
	t.Helper()
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Failed to change directory to %s: %v", dir, err)
	}
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
