package page

import (
	"errors"
	"fmt"
	"strings"

	"mvdan.cc/xurls/v2"

	"github.com/leofalp/sitesummarizer/internal/utils"
)

// MaxTextLength is the number of characters of page text kept for the prompt.
const MaxTextLength = 8000

// ErrNoURL is returned by ResolveTarget when the text holds no http(s) URL.
var ErrNoURL = errors.New("no http(s) URL found")

// Page is the extracted content of one web page. Build it with New so the
// text limit always holds.
type Page struct {
	Title string
	URL   string
	Text  string
}

// New returns a Page whose text is cut to MaxTextLength characters.
func New(title, url, text string) Page {
	return Page{
		Title: title,
		URL:   url,
		Text:  utils.TruncateRunes(text, MaxTextLength),
	}
}

// Target names the page to summarize: its URL plus whatever the user had
// selected on it.
type Target struct {
	URL       string
	Selection string
}

// ResolveTarget picks the first http(s) URL out of free text, e.g. a shared
// message or a pasted line.
func ResolveTarget(text string) (Target, error) {
	urlRe, err := xurls.StrictMatchingScheme(`https?://`)
	if err != nil {
		return Target{}, fmt.Errorf("failed to create regexp: %w", err)
	}

	found := urlRe.FindString(strings.TrimSpace(text))
	if found == "" {
		return Target{}, ErrNoURL
	}
	return Target{URL: found}, nil
}
