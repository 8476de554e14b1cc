package spotify

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/zmb3/spotify/v2"
)

// APIError is an error response from the Spotify Web API.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("spotify api: %d %s", e.Status, e.Message)
}

// Temporary reports whether the request may succeed if retried.
func (e *APIError) Temporary() bool {
	return e.Status == http.StatusTooManyRequests || e.Status/100 == 5
}

// wrap annotates err with action, converting library API errors to *APIError.
func wrap(action string, err error) error {
	var se spotify.Error
	if errors.As(err, &se) {
		return fmt.Errorf("%s: %w", action, &APIError{Status: se.Status, Message: se.Message})
	}
	return fmt.Errorf("%s: %w", action, err)
}
