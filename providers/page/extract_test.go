package page

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/leofalp/sitesummarizer/providers/observability"
	"github.com/leofalp/sitesummarizer/providers/observability/slogobs"
)

func serveHTML(t *testing.T, html string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, html)
	}))
	t.Cleanup(server.Close)
	return server
}

func TestExtract_PrefersMainElement(t *testing.T) {
	server := serveHTML(t, `<!DOCTYPE html>
<html>
<head><title> Test Page </title><style>body { color: red; }</style></head>
<body>
	<nav>Navigation links</nav>
	<main>
		<h1>Welcome</h1>
		<p>This is a <strong>test</strong>    paragraph.</p>
		<script>var hidden = "do not include";</script>
		<ul><li>Item 1</li><li>Item 2</li></ul>
	</main>
	<footer>Footer</footer>
</body>
</html>`)

	p, err := NewHTTPExtractor().Extract(context.Background(), Target{URL: server.URL})
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}

	if p.Title != "Test Page" {
		t.Errorf("Title = %q", p.Title)
	}
	if p.URL != server.URL {
		t.Errorf("URL = %q, want %q", p.URL, server.URL)
	}

	want := "Welcome\n\nThis is a test paragraph.\n\nItem 1\nItem 2"
	if p.Text != want {
		t.Errorf("Text = %q\nwant   %q", p.Text, want)
	}
}

func TestExtract_FallsBackToArticleThenBody(t *testing.T) {
	tests := []struct {
		name string
		html string
		want string
	}{
		{
			name: "article",
			html: `<html><body><div>chrome</div><article><p>Story text</p></article></body></html>`,
			want: "Story text",
		},
		{
			name: "body",
			html: `<html><body><div>First</div><div>Second<br>Third</div></body></html>`,
			want: "First\nSecond\nThird",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := serveHTML(t, tt.html)
			p, err := NewHTTPExtractor().Extract(context.Background(), Target{URL: server.URL})
			if err != nil {
				t.Fatalf("Extract: %v", err)
			}
			if p.Text != tt.want {
				t.Errorf("Text = %q, want %q", p.Text, tt.want)
			}
		})
	}
}

func TestExtract_LongSelectionWins(t *testing.T) {
	server := serveHTML(t, `<html><head><title>Selected</title></head><body><p>Body text</p></body></html>`)
	selection := strings.Repeat("selected words ", 20)

	p, err := NewHTTPExtractor().Extract(context.Background(), Target{URL: server.URL, Selection: selection})
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if p.Text != strings.TrimSpace(selection) {
		t.Errorf("Text = %q, want the selection", p.Text)
	}
	if p.Title != "Selected" {
		t.Errorf("Title = %q, want page title", p.Title)
	}
}

func TestExtract_ShortSelectionIgnored(t *testing.T) {
	server := serveHTML(t, `<html><body><p>Body text</p></body></html>`)

	p, err := NewHTTPExtractor().Extract(context.Background(), Target{URL: server.URL, Selection: "just a few words"})
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if p.Text != "Body text" {
		t.Errorf("Text = %q, want body text", p.Text)
	}
}

func TestExtract_SelectionSurvivesFetchFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusGone)
	}))
	defer server.Close()

	selection := strings.Repeat("x", SelectionThreshold+1)
	p, err := NewHTTPExtractor().Extract(context.Background(), Target{URL: server.URL, Selection: selection})
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if p.URL != server.URL || p.Title != "" || p.Text != selection {
		t.Errorf("Extract = %+v", p)
	}
}

func TestExtract_MarkdownFallback(t *testing.T) {
	server := serveHTML(t, `<html><head><title>Image only</title></head><body><img src="/diagram.png" alt="diagram"></body></html>`)

	p, err := NewHTTPExtractor().Extract(context.Background(), Target{URL: server.URL})
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if !strings.Contains(p.Text, "diagram") {
		t.Errorf("Text = %q, want markdown rendering of the image", p.Text)
	}
}

func TestExtract_Errors(t *testing.T) {
	t.Run("empty URL", func(t *testing.T) {
		_, err := NewHTTPExtractor().Extract(context.Background(), Target{URL: "  "})
		if !errors.Is(err, ErrMissingURL) {
			t.Errorf("err = %v, want ErrMissingURL", err)
		}
	})

	t.Run("non-200 status", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		}))
		defer server.Close()

		_, err := NewHTTPExtractor().Extract(context.Background(), Target{URL: server.URL})
		if err == nil || !strings.Contains(err.Error(), "404") {
			t.Errorf("err = %v, want status 404", err)
		}
	})

	t.Run("body too large", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			chunk := []byte(strings.Repeat("a", 1024*1024))
			for range 11 {
				_, _ = w.Write(chunk)
			}
		}))
		defer server.Close()

		_, err := NewHTTPExtractor().Extract(context.Background(), Target{URL: server.URL})
		if !errors.Is(err, ErrBodyTooLarge) {
			t.Errorf("err = %v, want ErrBodyTooLarge", err)
		}
	})

	t.Run("timeout", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-time.After(2 * time.Second):
			case <-r.Context().Done():
			}
		}))
		defer server.Close()

		_, err := NewHTTPExtractor().WithTimeout(50*time.Millisecond).Extract(context.Background(), Target{URL: server.URL})
		if err == nil || !strings.Contains(err.Error(), "timeout") {
			t.Errorf("err = %v, want timeout", err)
		}
	})
}

func TestExtract_SendsBrowserUserAgent(t *testing.T) {
	var gotUA string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		fmt.Fprint(w, "<html><body><p>hi</p></body></html>")
	}))
	defer server.Close()

	if _, err := NewHTTPExtractor().Extract(context.Background(), Target{URL: server.URL}); err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if gotUA != DefaultUserAgent {
		t.Errorf("User-Agent = %q", gotUA)
	}
}

func TestExtract_ReportsToObserver(t *testing.T) {
	server := serveHTML(t, `<html><body><main><p>Observed text</p></main></body></html>`)

	var logs strings.Builder
	observer := slogobs.New(slogobs.WithFormat(slogobs.FormatJSON), slogobs.WithOutput(&logs), slogobs.WithLevel(slogobs.LevelTrace))
	ctx := observability.ContextWithObserver(context.Background(), observer)

	if _, err := NewHTTPExtractor().Extract(ctx, Target{URL: server.URL}); err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if !strings.Contains(logs.String(), observability.SpanPageExtract) {
		t.Errorf("logs missing span %q: %s", observability.SpanPageExtract, logs.String())
	}
	if !strings.Contains(logs.String(), SourceDOM) {
		t.Errorf("logs missing page source: %s", logs.String())
	}
}
