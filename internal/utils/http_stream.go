package utils

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/leofalp/sitesummarizer/providers/observability"
)

// MaxErrorBodySize caps how much of a non-2xx response body is read into an
// error message.
const MaxErrorBodySize int64 = 1 * 1024 * 1024

// HeaderOption is an extra request header applied after the defaults, so it
// can override Content-Type, Accept or Authorization.
type HeaderOption struct {
	Key   string
	Value string
}

// DoPostStream marshals body as JSON, POSTs it to url and returns the response
// with the body left open for SSE reading, whatever the status code. Callers
// inspect StatusCode themselves (some providers retry on specific statuses)
// and must close the body.
//
// When apiKey is non-empty it is sent as a Bearer token.
func DoPostStream(ctx context.Context, client *http.Client, url string, apiKey string, body any, headers ...HeaderOption) (*http.Response, error) {
	span := observability.SpanFromContext(ctx)

	httpClient := client
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	jsonBody, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("error marshaling body: %w", err)
	}

	if span != nil {
		span.AddEvent(observability.EventHTTPStreamPrepared,
			observability.String(observability.AttrHTTPMethod, http.MethodPost),
			observability.String(observability.AttrHTTPURL, RedactURL(url)),
			observability.Int(observability.AttrHTTPRequestBodySize, len(jsonBody)),
		)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("error creating request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/event-stream")
	if apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+apiKey)
	}

	for _, header := range headers {
		req.Header.Set(header.Key, header.Value)
	}

	requestStart := time.Now()
	response, err := httpClient.Do(req)
	requestDuration := time.Since(requestStart)

	if err != nil {
		if span != nil {
			span.AddEvent(observability.EventHTTPStreamError,
				observability.Error(err),
				observability.Duration(observability.AttrHTTPDuration, requestDuration),
			)
		}
		return nil, fmt.Errorf("error sending stream request: %w", err)
	}

	if span != nil {
		span.AddEvent(observability.EventHTTPStreamStarted,
			observability.Int(observability.AttrHTTPStatusCode, response.StatusCode),
			observability.Duration(observability.AttrHTTPDuration, requestDuration),
		)
	}

	return response, nil
}

// IsSuccess reports whether the response carries a 2xx status.
func IsSuccess(response *http.Response) bool {
	return response != nil && response.StatusCode >= 200 && response.StatusCode < 300
}

// ReadErrorBody drains up to MaxErrorBodySize bytes of the body and closes it.
// Read failures are swallowed: the error body is best-effort context only.
func ReadErrorBody(response *http.Response) string {
	if response == nil || response.Body == nil {
		return ""
	}
	defer CloseWithLog(response.Body)

	data, err := io.ReadAll(io.LimitReader(response.Body, MaxErrorBodySize))
	if err != nil {
		return ""
	}
	return string(data)
}

// CloseWithLog closes c and logs, rather than returns, a close failure.
func CloseWithLog(c io.Closer) {
	if c == nil {
		return
	}
	if err := c.Close(); err != nil {
		slog.Warn("failed to close response body", "error", err.Error())
	}
}
