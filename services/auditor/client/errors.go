package client

import (
	"errors"
	"fmt"
)

// ErrMalformedResponse signals a response body that is not valid JSON
var ErrMalformedResponse = errors.New("malformed JSON response")

var errNilContext = errors.New("nil context")
var errEmptyAPIKey = errors.New("empty API key")
var errEmptyApplicationID = errors.New("empty application ID")
var errEmptyBaseURL = errors.New("empty base URL")

// ErrAPIRequest is returned whenever the New Relic API answers with a status code outside {200, 204}.
// Body holds the raw response body for context.
type ErrAPIRequest struct {
	Method     string
	URL        string
	StatusCode int
	Body       string
}

// Error returns the string representation of the error
func (e *ErrAPIRequest) Error() string {
	return fmt.Sprintf("Error: %s %s returned status code %d: %s", e.Method, e.URL, e.StatusCode, e.Body)
}
