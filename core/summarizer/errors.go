package summarizer

import (
	"errors"
	"fmt"

	"github.com/leofalp/sitesummarizer/providers/ai"
)

// ErrInput marks failures caused by the request itself. They happen before
// any provider call.
var ErrInput = errors.New("invalid input")

var (
	ErrMissingTarget    = fmt.Errorf("%w: target URL is missing", ErrInput)
	ErrMissingAPIKey    = fmt.Errorf("%w: API key is empty", ErrInput)
	ErrInsufficientText = fmt.Errorf("%w: page text is too short to summarize", ErrInput)
)

// ErrorType classifies err for logs and span attributes.
func ErrorType(err error) string {
	var apiErr *ai.APIError
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInput):
		return "input"
	case errors.As(err, &apiErr):
		return "provider_http"
	case errors.Is(err, ai.ErrStreamUnavailable):
		return "provider_stream"
	default:
		return "internal"
	}
}
