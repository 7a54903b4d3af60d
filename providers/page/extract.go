package page

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"github.com/PuerkitoBio/goquery"

	"github.com/leofalp/sitesummarizer/internal/utils"
	"github.com/leofalp/sitesummarizer/providers/observability"
)

const (
	// DefaultTimeout bounds one page fetch, body included.
	DefaultTimeout = 20 * time.Second
	// DefaultUserAgent looks like a desktop browser; many sites serve reduced
	// markup to unknown agents.
	DefaultUserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0 Safari/537.36"
	// MaxBodySize is the largest HTML document read (10MB).
	MaxBodySize = 10 * 1024 * 1024
	// SelectionThreshold is the selection length above which the selection is
	// used instead of the page body.
	SelectionThreshold = 200

	dialTimeout           = 10 * time.Second
	tlsHandshakeTimeout   = 10 * time.Second
	responseHeaderTimeout = 10 * time.Second
	maxRedirects          = 10
)

// Text sources reported on spans.
const (
	SourceSelection = "selection"
	SourceDOM       = "dom"
	SourceMarkdown  = "markdown"
)

var (
	// ErrMissingURL is returned when the target has no URL.
	ErrMissingURL = errors.New("page URL is empty")
	// ErrBodyTooLarge is returned when the document exceeds MaxBodySize.
	ErrBodyTooLarge = fmt.Errorf("response body exceeds maximum size of %d bytes", MaxBodySize)
)

// Extractor turns a target into page content.
type Extractor interface {
	Extract(ctx context.Context, target Target) (Page, error)
}

// HTTPExtractor fetches the target over HTTP and extracts its visible text.
type HTTPExtractor struct {
	client    *http.Client
	userAgent string
	timeout   time.Duration
}

var _ Extractor = (*HTTPExtractor)(nil)

// NewHTTPExtractor returns an extractor with its own tuned HTTP client.
func NewHTTPExtractor() *HTTPExtractor {
	return &HTTPExtractor{
		client: &http.Client{
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout:   dialTimeout,
					KeepAlive: 30 * time.Second,
				}).DialContext,
				TLSHandshakeTimeout:   tlsHandshakeTimeout,
				ResponseHeaderTimeout: responseHeaderTimeout,
				IdleConnTimeout:       90 * time.Second,
				MaxIdleConns:          100,
				MaxIdleConnsPerHost:   10,
				ForceAttemptHTTP2:     true,
			},
			CheckRedirect: func(_ *http.Request, via []*http.Request) error {
				if len(via) >= maxRedirects {
					return fmt.Errorf("too many redirects (>%d)", maxRedirects)
				}
				return nil
			},
		},
		userAgent: DefaultUserAgent,
		timeout:   DefaultTimeout,
	}
}

func (e *HTTPExtractor) WithHttpClient(client *http.Client) *HTTPExtractor {
	e.client = client
	return e
}

func (e *HTTPExtractor) WithUserAgent(userAgent string) *HTTPExtractor {
	e.userAgent = userAgent
	return e
}

// WithTimeout overrides DefaultTimeout; non-positive values are ignored.
func (e *HTTPExtractor) WithTimeout(timeout time.Duration) *HTTPExtractor {
	if timeout > 0 {
		e.timeout = timeout
	}
	return e
}

// Extract returns the page for target.
//
// A selection longer than SelectionThreshold characters becomes the text; the
// page is still fetched for its title, and a failed fetch falls back to the
// target URL alone. Otherwise the first of main, article or body is rendered
// as visible text, and when that is empty the whole document is converted to
// Markdown instead.
func (e *HTTPExtractor) Extract(ctx context.Context, target Target) (Page, error) {
	observer := observability.ObserverFromContext(ctx)
	var span observability.Span
	if observer != nil {
		ctx, span = observer.StartSpan(ctx, observability.SpanPageExtract)
		defer span.End()
	}

	rawURL := strings.TrimSpace(target.URL)
	if rawURL == "" {
		return Page{}, ErrMissingURL
	}
	if span != nil {
		span.SetAttributes(observability.String(observability.AttrPageURL, rawURL))
	}

	selection := strings.TrimSpace(target.Selection)
	if utf8.RuneCountInString(selection) > SelectionThreshold {
		result := New("", rawURL, selection)
		doc, finalURL, err := e.fetch(ctx, rawURL)
		if err != nil {
			if observer != nil {
				observer.Debug(ctx, "Page fetch failed, using selection with URL only",
					observability.String(observability.AttrPageURL, rawURL),
					observability.Error(err),
				)
			}
		} else {
			result = New(documentTitle(doc), finalURL, selection)
		}
		recordPage(span, result, SourceSelection)
		return result, nil
	}

	doc, finalURL, err := e.fetch(ctx, rawURL)
	if err != nil {
		if span != nil {
			span.RecordError(err)
			span.SetStatus(observability.StatusError, "page fetch failed")
		}
		return Page{}, err
	}

	title := documentTitle(doc)
	source := SourceDOM
	text := visibleText(contentRoot(doc))
	if text == "" {
		source = SourceMarkdown
		text, err = markdownText(doc)
		if err != nil {
			if span != nil {
				span.RecordError(err)
				span.SetStatus(observability.StatusError, "markdown conversion failed")
			}
			return Page{}, err
		}
	}

	result := New(title, finalURL, text)
	recordPage(span, result, source)
	return result, nil
}

// fetch downloads and parses the document, returning it with the URL reached
// after redirects.
func (e *HTTPExtractor) fetch(ctx context.Context, rawURL string) (*goquery.Document, string, error) {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", e.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml;q=0.9,*/*;q=0.8")

	resp, err := e.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, "", fmt.Errorf("request timeout or canceled: %w", err)
		}
		return nil, "", fmt.Errorf("fetch page: %w", err)
	}
	defer utils.CloseWithLog(resp.Body)

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("fetch page: unexpected status: %d", resp.StatusCode)
	}

	// one byte past the cap tells an exact-size document from an oversized one
	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxBodySize+1))
	if err != nil {
		return nil, "", fmt.Errorf("read page body: %w", err)
	}
	if len(body) > MaxBodySize {
		return nil, "", ErrBodyTooLarge
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, "", fmt.Errorf("create document from reader: %w", err)
	}

	return doc, resp.Request.URL.String(), nil
}

func markdownText(doc *goquery.Document) (string, error) {
	html, err := doc.Html()
	if err != nil {
		return "", fmt.Errorf("render document: %w", err)
	}

	markdown, err := htmltomarkdown.ConvertString(html)
	if err != nil {
		return "", fmt.Errorf("failed to convert HTML to Markdown: %w", err)
	}
	return strings.TrimSpace(markdown), nil
}

func recordPage(span observability.Span, p Page, source string) {
	if span == nil {
		return
	}
	span.SetAttributes(
		observability.String(observability.AttrPageURL, p.URL),
		observability.String(observability.AttrPageTitle, p.Title),
		observability.Int(observability.AttrPageTextChars, utf8.RuneCountInString(p.Text)),
		observability.String(observability.AttrPageSource, source),
	)
}
