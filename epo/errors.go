package epo

import "errors"

var (
	// ErrAuth indicates the OAuth token could not be acquired or refreshed.
	ErrAuth = errors.New("authentication failed")

	// ErrNetwork indicates a transport failure or a non-2xx response.
	ErrNetwork = errors.New("network request failed")

	// ErrParse indicates the response body had an unexpected shape.
	ErrParse = errors.New("unexpected response shape")
)
