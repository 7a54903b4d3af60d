package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/leofalp/sitesummarizer/providers/ai"
)

// writeSSE writes one SSE data event and flushes.
func writeSSE(writer http.ResponseWriter, data string) {
	fmt.Fprintf(writer, "data: %s\r\n\r\n", data)
	if flusher, ok := writer.(http.Flusher); ok {
		flusher.Flush()
	}
}

func chunk(texts ...string) string {
	parts := make([]map[string]string, 0, len(texts))
	for _, text := range texts {
		parts = append(parts, map[string]string{"text": text})
	}
	encoded, _ := json.Marshal(map[string]any{
		"candidates": []any{map[string]any{
			"content": map[string]any{"role": "model", "parts": parts},
		}},
	})
	return string(encoded)
}

func newTestProvider(t *testing.T, handler http.HandlerFunc) *GeminiProvider {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return New().WithBaseURL(server.URL).WithHttpClient(server.Client())
}

func collect(t *testing.T, provider *GeminiProvider, request ai.StreamRequest) ([]string, error) {
	t.Helper()
	var deltas []string
	err := provider.Stream(context.Background(), request, func(delta string) error {
		deltas = append(deltas, delta)
		return nil
	})
	return deltas, err
}

// TestStream_RequestShape verifies URL, headers and body of the request.
func TestStream_RequestShape(t *testing.T) {
	var gotPath, gotQuery, gotGoogKey, gotAuth, gotAccept string
	var gotBody map[string]any

	provider := newTestProvider(t, func(writer http.ResponseWriter, request *http.Request) {
		gotPath = request.URL.Path
		gotQuery = request.URL.RawQuery
		gotGoogKey = request.Header.Get("x-goog-api-key")
		gotAuth = request.Header.Get("Authorization")
		gotAccept = request.Header.Get("Accept")
		_ = json.NewDecoder(request.Body).Decode(&gotBody)
		writeSSE(writer, chunk("ok"))
	})

	if _, err := collect(t, provider, ai.StreamRequest{APIKey: "g-key", Model: "gemini-2.5-pro", Prompt: "要約して"}); err != nil {
		t.Fatalf("Stream returned error: %v", err)
	}

	if gotPath != "/models/gemini-2.5-pro:streamGenerateContent" {
		t.Errorf("path = %q", gotPath)
	}
	if gotQuery != "alt=sse&key=g-key" {
		t.Errorf("query = %q, want alt=sse&key=g-key", gotQuery)
	}
	if gotGoogKey != "g-key" {
		t.Errorf("x-goog-api-key = %q", gotGoogKey)
	}
	if gotAuth != "" {
		t.Errorf("Authorization should be empty, got %q", gotAuth)
	}
	if gotAccept != "text/event-stream" {
		t.Errorf("Accept = %q", gotAccept)
	}

	encoded, _ := json.Marshal(gotBody)
	want := `{"contents":[{"parts":[{"text":"要約して"}],"role":"user"}]}`
	if string(encoded) != want {
		t.Errorf("body = %s, want %s", encoded, want)
	}
}

// TestStream_DeltasInOrder verifies per-event part concatenation and ordering.
func TestStream_DeltasInOrder(t *testing.T) {
	provider := newTestProvider(t, func(writer http.ResponseWriter, _ *http.Request) {
		writeSSE(writer, chunk("Hello"))
		writeSSE(writer, chunk(", ", "wor"))
		writeSSE(writer, chunk("ld"))
	})

	deltas, err := collect(t, provider, ai.StreamRequest{APIKey: "k", Prompt: "p"})
	if err != nil {
		t.Fatalf("Stream returned error: %v", err)
	}
	if strings.Join(deltas, "|") != "Hello|, wor|ld" {
		t.Errorf("deltas = %q", deltas)
	}
}

// TestStream_SkipsNoiseAndSentinel verifies that [DONE], empty and invalid
// payloads are skipped without ending the stream.
func TestStream_SkipsNoiseAndSentinel(t *testing.T) {
	provider := newTestProvider(t, func(writer http.ResponseWriter, _ *http.Request) {
		writeSSE(writer, chunk("a"))
		writeSSE(writer, "")
		writeSSE(writer, "[DONE]")
		writeSSE(writer, "{broken")
		writeSSE(writer, `{"candidates":[]}`)
		writeSSE(writer, `{"candidates":[{"content":{"parts":[{"inlineData":{}},{"text":7}]}}]}`)
		writeSSE(writer, chunk("b"))
	})

	deltas, err := collect(t, provider, ai.StreamRequest{APIKey: "k", Prompt: "p"})
	if err != nil {
		t.Fatalf("Stream returned error: %v", err)
	}
	if strings.Join(deltas, "|") != "a|b" {
		t.Errorf("deltas = %q, want [a b]", deltas)
	}
}

// TestStream_DefaultModel verifies the model used when none is given.
func TestStream_DefaultModel(t *testing.T) {
	var gotPath string
	provider := newTestProvider(t, func(writer http.ResponseWriter, request *http.Request) {
		gotPath = request.URL.Path
	})

	if _, err := collect(t, provider, ai.StreamRequest{APIKey: "k", Prompt: "p"}); err != nil {
		t.Fatalf("Stream returned error: %v", err)
	}
	if gotPath != "/models/gemini-2.5-flash:streamGenerateContent" {
		t.Errorf("path = %q", gotPath)
	}
}

// TestStream_NonSuccess_NoRetry verifies that errors, 429 included, are not retried.
func TestStream_NonSuccess_NoRetry(t *testing.T) {
	calls := 0
	provider := newTestProvider(t, func(writer http.ResponseWriter, _ *http.Request) {
		calls++
		writer.WriteHeader(http.StatusTooManyRequests)
		_, _ = io.WriteString(writer, `{"error":{"status":"RESOURCE_EXHAUSTED"}}`)
	})

	_, err := collect(t, provider, ai.StreamRequest{APIKey: "k", Prompt: "p"})

	var apiErr *ai.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *ai.APIError, got %v", err)
	}
	if apiErr.Provider != ai.ProviderGemini || apiErr.StatusCode != http.StatusTooManyRequests {
		t.Errorf("unexpected APIError %+v", apiErr)
	}
	if !strings.Contains(apiErr.Body, "RESOURCE_EXHAUSTED") {
		t.Errorf("Body = %q", apiErr.Body)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestStream_MissingAPIKey(t *testing.T) {
	calls := 0
	provider := newTestProvider(t, func(http.ResponseWriter, *http.Request) { calls++ })

	_, err := collect(t, provider, ai.StreamRequest{Prompt: "p"})
	if !errors.Is(err, ai.ErrMissingAPIKey) {
		t.Errorf("expected ErrMissingAPIKey, got %v", err)
	}
	if calls != 0 {
		t.Errorf("calls = %d, want 0", calls)
	}
}

// TestStream_NoBody_ReturnsStreamUnavailable uses a transport that answers
// 200 without a body.
func TestStream_NoBody_ReturnsStreamUnavailable(t *testing.T) {
	client := &http.Client{Transport: roundTripFunc(func(request *http.Request) (*http.Response, error) {
		return &http.Response{StatusCode: http.StatusOK, Status: "200 OK", Body: http.NoBody, Request: request}, nil
	})}
	provider := New().WithBaseURL("http://gemini.invalid").WithHttpClient(client)

	_, err := collect(t, provider, ai.StreamRequest{APIKey: "k", Prompt: "p"})
	if !errors.Is(err, ai.ErrStreamUnavailable) {
		t.Errorf("expected ErrStreamUnavailable, got %v", err)
	}
}

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(request *http.Request) (*http.Response, error) {
	return f(request)
}

func TestExtractText(t *testing.T) {
	tests := []struct {
		payload string
		want    string
		wantOK  bool
	}{
		{chunk("x", "y"), "xy", true},
		{`{"candidates":[{"content":{}}]}`, "", true},
		{`{"usageMetadata":{"totalTokenCount":3}}`, "", true},
		{`not json`, "", false},
	}
	for _, tt := range tests {
		got, ok := extractText(tt.payload)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("extractText(%q) = (%q, %v), want (%q, %v)", tt.payload, got, ok, tt.want, tt.wantOK)
		}
	}
}
