package pokeapi

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when PokeAPI answers 404 for a resource.
var ErrNotFound = errors.New("pokeapi: resource not found")

// HTTPError is a non-2xx response other than 404.
type HTTPError struct {
	StatusCode int
	URL        string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("pokeapi: unexpected status code %d for %s", e.StatusCode, e.URL)
}

// NetworkError wraps a transport failure (unreachable host, reset, timeout).
type NetworkError struct {
	URL string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("pokeapi: request to %s failed: %v", e.URL, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// retryable reports whether a status code is worth another attempt.
func retryable(status int) bool {
	return status == 429 || status >= 500
}
