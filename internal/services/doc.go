// Package services defines the [Service] and [OAuthService] interfaces for the music provider and implements them for Spotify.
//
// # OAuth
//
// [Authenticator] wraps an [oauth2.Config] pointed at the Spotify accounts service (or the
// endpoints configured in shared.SpotifyConfig). It builds the consent URL, exchanges
// authorization codes and refreshes access tokens. It keeps no token cache: callers persist
// the returned [TokenInfo] in the browser session.
//
// # Web API
//
// [SpotifyService] adapts the github.com/zmb3/spotify/v2 client to [Service] and maps responses
// to models types. [NewSpotifyFactory] builds one per request from the session's access token,
// using a static token source so the HTTP client never refreshes behind the Auth Guard's back.
// Outbound requests share a [rate.Limiter] paced transport. Nothing is retried.
//
// # Error Handling
//
//   - [shared.AuthExchangeError] : the provider rejected an authorization code
//   - [shared.RefreshError] : the provider rejected a refresh token, or there was none
//   - [shared.ExternalAPIError] : network failure or non-2xx Web API response
package services
