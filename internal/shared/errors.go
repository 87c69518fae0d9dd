package shared

import (
	"errors"
	"fmt"
)

var (
	// Configuration errors
	ErrMissingConfig = errors.New("missing required configuration")
	ErrInvalidConfig = errors.New("invalid configuration")

	// Authentication errors
	ErrAuthFailed       = errors.New("authentication failed")
	ErrNotAuthenticated = errors.New("not authenticated")
	ErrRefreshFailed    = errors.New("token refresh failed")
	ErrNoRefreshToken   = errors.New("no refresh token available")
	ErrInvalidState     = errors.New("invalid state parameter")

	// API and service errors
	ErrAPIRequest   = errors.New("API request failed")
	ErrEmptyResult  = errors.New("empty result")
	ErrSessionStore = errors.New("session store failure")

	// Input validation errors
	ErrMissingArgument = errors.New("missing required argument")
	ErrInvalidArgument = errors.New("invalid argument")
)

// AuthExchangeError is returned when the provider rejects an authorization code.
type AuthExchangeError struct {
	Err error
}

func (e *AuthExchangeError) Error() string {
	return fmt.Sprintf("authorization code exchange failed: %v", e.Err)
}

func (e *AuthExchangeError) Unwrap() error { return e.Err }

// Is matches [ErrAuthFailed].
func (e *AuthExchangeError) Is(target error) bool { return target == ErrAuthFailed }

// RefreshError is returned when a refresh token is revoked, invalid or absent.
type RefreshError struct {
	Err error
}

func (e *RefreshError) Error() string {
	return fmt.Sprintf("token refresh failed: %v", e.Err)
}

func (e *RefreshError) Unwrap() error { return e.Err }

// Is matches [ErrRefreshFailed].
func (e *RefreshError) Is(target error) bool { return target == ErrRefreshFailed }

// EmptyResultError is returned when the provider answered with no items where at least one was needed.
type EmptyResultError struct {
	Resource string // what was empty, e.g. "top artists"
	Message  string // user facing explanation
}

func (e *EmptyResultError) Error() string {
	return fmt.Sprintf("no %s returned", e.Resource)
}

// Is matches [ErrEmptyResult].
func (e *EmptyResultError) Is(target error) bool { return target == ErrEmptyResult }

// ExternalAPIError wraps a failed call to the provider's Web API.
type ExternalAPIError struct {
	Op  string
	Err error
}

func (e *ExternalAPIError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *ExternalAPIError) Unwrap() error { return e.Err }

// Is matches [ErrAPIRequest].
func (e *ExternalAPIError) Is(target error) bool { return target == ErrAPIRequest }

// NewExternalAPIError wraps err unless it is nil or already an [ExternalAPIError].
func NewExternalAPIError(op string, err error) error {
	if err == nil {
		return nil
	}
	var apiErr *ExternalAPIError
	if errors.As(err, &apiErr) {
		return err
	}
	return &ExternalAPIError{Op: op, Err: err}
}
