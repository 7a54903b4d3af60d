package ai

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/leofalp/sitesummarizer/internal/utils"
)

var (
	// ErrStreamUnavailable is returned when a 2xx response carries no body.
	ErrStreamUnavailable = errors.New("response stream unavailable")

	// ErrMissingAPIKey is returned by a provider asked to stream without a key.
	ErrMissingAPIKey = errors.New("API key is not set")
)

// APIError is a non-2xx answer from a provider. Body holds the raw response
// text, or "" when it could not be read.
type APIError struct {
	Provider   ProviderName
	StatusCode int
	Status     string
	Body       string
}

func (e *APIError) Error() string {
	msg := fmt.Sprintf("%s API error: %s", e.Provider, e.statusText())
	if body := strings.TrimSpace(e.Body); body != "" {
		msg += ": " + utils.TruncateString(body, 0)
	}
	return msg
}

func (e *APIError) statusText() string {
	if e.Status != "" {
		return e.Status
	}
	return fmt.Sprintf("%d %s", e.StatusCode, http.StatusText(e.StatusCode))
}

// RateLimited reports whether the provider answered 429.
func (e *APIError) RateLimited() bool {
	return e.StatusCode == http.StatusTooManyRequests
}

// NewAPIError builds an APIError from response and consumes its body.
func NewAPIError(provider ProviderName, response *http.Response) *APIError {
	return &APIError{
		Provider:   provider,
		StatusCode: response.StatusCode,
		Status:     response.Status,
		Body:       utils.ReadErrorBody(response),
	}
}
