package shared

import "fmt"

var (
	// Configuration errors
	ErrMissingConfig      = fmt.Errorf("configuration not found")
	ErrInvalidConfig      = fmt.Errorf("invalid configuration")
	ErrMissingCredentials = fmt.Errorf("missing credentials")

	// Authentication errors
	ErrAuthFailed           = fmt.Errorf("authentication failed")
	ErrNoRefreshToken       = fmt.Errorf("no refresh token available")
	ErrNoAccessToken        = fmt.Errorf("no access token received")
	ErrAuthorizationTimeout = fmt.Errorf("authorization timed out")

	// API and service errors
	ErrAPIRequest = fmt.Errorf("API request failed")

	// Input validation errors
	ErrInvalidInput       = fmt.Errorf("invalid input")
	ErrMissingArgument    = fmt.Errorf("missing required argument")
	ErrInvalidArgument    = fmt.Errorf("invalid argument")
	ErrInvalidSelection   = fmt.Errorf("invalid selection")
	ErrSelectionCancelled = fmt.Errorf("selection cancelled")
	ErrAborted            = fmt.Errorf("aborted")
)

// AuthorizationError is returned when the authorization server redirects back with an error
// (for example the user pressed "Cancel" on the consent dialog).
type AuthorizationError struct {
	Code string
}

func (e *AuthorizationError) Error() string {
	return fmt.Sprintf("authorization error: %s", e.Code)
}

// Unwrap lets callers match any authorization failure with [ErrAuthFailed].
func (e *AuthorizationError) Unwrap() error {
	return ErrAuthFailed
}

// TokenExchangeError is a non-2xx answer from the token endpoint.
type TokenExchangeError struct {
	Status int
	Body   string
}

func (e *TokenExchangeError) Error() string {
	return fmt.Sprintf("token exchange failed: %d %s", e.Status, e.Body)
}

func (e *TokenExchangeError) Unwrap() error {
	return ErrAuthFailed
}

// RemoteAPIError is a non-2xx answer from a Web API data endpoint.
type RemoteAPIError struct {
	Status int
	Body   string
}

func (e *RemoteAPIError) Error() string {
	return fmt.Sprintf("spotify API error %d: %s", e.Status, e.Body)
}

func (e *RemoteAPIError) Unwrap() error {
	return ErrAPIRequest
}

// LocalIOError wraps a failed read, write or delete of an export file.
type LocalIOError struct {
	Op   string
	Path string
	Err  error
}

func (e *LocalIOError) Error() string {
	return fmt.Sprintf("failed to %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *LocalIOError) Unwrap() error {
	return e.Err
}
