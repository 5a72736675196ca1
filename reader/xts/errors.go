package xts

import (
	"errors"
	"fmt"
)

// ErrNotAuthenticated is returned when a fetch is attempted before a
// successful login.
var ErrNotAuthenticated = errors.New("not logged in to marketdata api")

// APIError is a terminal failure reported by the XTS API: either a
// non-2xx HTTP status or a response body whose type is not "success".
type APIError struct {
	Status      int
	Type        string
	Description string
}

func (e *APIError) Error() string {
	if e.Description != "" {
		return fmt.Sprintf("xts api error (status %d, type %q): %s", e.Status, e.Type, e.Description)
	}
	return fmt.Sprintf("xts api error (status %d, type %q)", e.Status, e.Type)
}
