package apiclient

import (
	"errors"
	"fmt"
)

// ErrUnauthorized is returned for any 401 from the API. The client drops its
// token before returning it.
var ErrUnauthorized = errors.New("session expired, please sign in again")

// APIError is a non-2xx response that is neither a 401 nor a field
// validation failure.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api request failed with status %d", e.Status)
	}
	return e.Message
}

// NetworkError wraps transport failures and unreadable responses. It is
// transient; nothing retries automatically.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// IsNotFound reports whether err is an API 404.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == 404
}
