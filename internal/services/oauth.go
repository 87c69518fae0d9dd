package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/desertthunder/soundexplorer/internal/shared"
	"golang.org/x/oauth2"
)

// Authenticator implements [OAuthService] with an [oauth2.Config].
type Authenticator struct {
	config     *oauth2.Config
	httpClient *http.Client
}

// NewAuthenticator creates an [Authenticator] from the Spotify section of the config.
//
// client is used for token requests; nil means [http.DefaultClient].
func NewAuthenticator(cfg shared.SpotifyConfig, client *http.Client) (*Authenticator, error) {
	if cfg.ClientID == "" || cfg.ClientSecret == "" {
		return nil, fmt.Errorf("%w: client_id and client_secret are required", shared.ErrMissingConfig)
	}
	if cfg.RedirectURI == "" {
		return nil, fmt.Errorf("%w: redirect_uri is required", shared.ErrMissingConfig)
	}

	authURL, tokenURL := cfg.Endpoints()
	return &Authenticator{
		config: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURI,
			Scopes:       cfg.Scopes(),
			Endpoint: oauth2.Endpoint{
				AuthURL:   authURL,
				TokenURL:  tokenURL,
				AuthStyle: oauth2.AuthStyleInHeader,
			},
		},
		httpClient: client,
	}, nil
}

// AuthorizeURL returns the consent page URL. The dialog is always shown so users can switch accounts.
func (a *Authenticator) AuthorizeURL(state string) string {
	return a.config.AuthCodeURL(state, oauth2.SetAuthURLParam("show_dialog", "true"))
}

// Exchange trades an authorization code for tokens.
//
// A rejected code (expired, reused, redirect URI mismatch) yields a [shared.AuthExchangeError].
func (a *Authenticator) Exchange(ctx context.Context, code string) (*TokenInfo, error) {
	if code == "" {
		return nil, &shared.AuthExchangeError{Err: shared.ErrMissingArgument}
	}

	token, err := a.config.Exchange(a.context(ctx), code)
	if err != nil {
		if rejected(err) {
			return nil, &shared.AuthExchangeError{Err: err}
		}
		return nil, shared.NewExternalAPIError("token exchange", err)
	}

	return tokenInfo(token, ""), nil
}

// Refresh trades a refresh token for a new access token.
//
// A revoked or unknown refresh token yields a [shared.RefreshError]. When the provider does not
// rotate the refresh token the one passed in is returned.
func (a *Authenticator) Refresh(ctx context.Context, refreshToken string) (*TokenInfo, error) {
	if refreshToken == "" {
		return nil, &shared.RefreshError{Err: shared.ErrNoRefreshToken}
	}

	// An empty access token forces the source to hit the token endpoint.
	src := a.config.TokenSource(a.context(ctx), &oauth2.Token{RefreshToken: refreshToken})
	token, err := src.Token()
	if err != nil {
		if rejected(err) {
			return nil, &shared.RefreshError{Err: err}
		}
		return nil, shared.NewExternalAPIError("token refresh", err)
	}

	return tokenInfo(token, refreshToken), nil
}

func (a *Authenticator) context(ctx context.Context) context.Context {
	if a.httpClient == nil {
		return ctx
	}
	return context.WithValue(ctx, oauth2.HTTPClient, a.httpClient)
}

// rejected reports whether the token endpoint answered with a client error.
func rejected(err error) bool {
	var rErr *oauth2.RetrieveError
	if !errors.As(err, &rErr) {
		return false
	}
	return rErr.Response == nil || rErr.Response.StatusCode < http.StatusInternalServerError
}

func tokenInfo(token *oauth2.Token, previousRefresh string) *TokenInfo {
	info := &TokenInfo{
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
	}
	if info.RefreshToken == "" {
		info.RefreshToken = previousRefresh
	}
	if !token.Expiry.IsZero() {
		info.ExpiresIn = time.Until(token.Expiry).Round(time.Second)
	}
	return info
}
