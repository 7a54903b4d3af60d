package page

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var (
	inlineSpaceRe = regexp.MustCompile(`\s+`)
	manyNewlineRe = regexp.MustCompile(`\n{3,}`)
	manyBlankRe   = regexp.MustCompile(`[ \t]{2,}`)
)

// contentSelectors are tried in order; the first match is the content root.
var contentSelectors = []string{"main", "article", "body"}

var skippedElements = map[string]struct{}{
	"head": {}, "script": {}, "style": {}, "noscript": {}, "template": {},
	"svg": {}, "iframe": {}, "canvas": {},
}

// paragraphElements are separated from their neighbours by a blank line.
var paragraphElements = map[string]struct{}{
	"p": {}, "h1": {}, "h2": {}, "h3": {}, "h4": {}, "h5": {}, "h6": {},
	"blockquote": {}, "pre": {}, "table": {},
}

var blockElements = map[string]struct{}{
	"address": {}, "article": {}, "aside": {}, "body": {}, "dd": {}, "details": {},
	"dialog": {}, "div": {}, "dl": {}, "dt": {}, "fieldset": {}, "figcaption": {},
	"figure": {}, "footer": {}, "form": {}, "header": {}, "hr": {}, "li": {},
	"main": {}, "nav": {}, "ol": {}, "section": {}, "summary": {}, "tr": {},
	"ul": {},
}

// contentRoot returns the first of main, article or body.
func contentRoot(doc *goquery.Document) *goquery.Selection {
	for _, selector := range contentSelectors {
		if sel := doc.Find(selector).First(); sel.Length() > 0 {
			return sel
		}
	}
	return doc.Selection
}

// visibleText renders sel the way a browser lays out inner text: block
// elements start new lines, hidden elements are skipped, and runs of
// whitespace inside text collapse to a single space.
func visibleText(sel *goquery.Selection) string {
	w := &textWriter{}
	w.render(sel)
	return normalizeText(w.b.String())
}

type textWriter struct {
	b strings.Builder
}

func (w *textWriter) render(sel *goquery.Selection) {
	sel.Contents().Each(func(_ int, child *goquery.Selection) {
		name := goquery.NodeName(child)

		switch {
		case name == "#text":
			w.text(child.Text())
		case strings.HasPrefix(name, "#"):
			// comments, doctype
		case name == "br":
			w.b.WriteString("\n")
		case isSkipped(child, name):
		case contains(paragraphElements, name):
			w.lineBreaks(2)
			w.render(child)
			w.lineBreaks(2)
		case contains(blockElements, name):
			w.lineBreaks(1)
			w.render(child)
			w.lineBreaks(1)
		case name == "td" || name == "th":
			w.render(child)
			w.b.WriteString("\t")
		default:
			w.render(child)
		}
	})
}

func (w *textWriter) text(raw string) {
	collapsed := inlineSpaceRe.ReplaceAllString(raw, " ")
	if strings.TrimSpace(collapsed) == "" && w.atLineStart() {
		return
	}
	w.b.WriteString(collapsed)
}

func (w *textWriter) atLineStart() bool {
	trimmed := strings.TrimRight(w.b.String(), " \t")
	return trimmed == "" || strings.HasSuffix(trimmed, "\n")
}

// lineBreaks makes the output end with at least n newlines, unless nothing
// has been written yet.
func (w *textWriter) lineBreaks(n int) {
	trimmed := strings.TrimRight(w.b.String(), " \t")
	if trimmed == "" {
		return
	}
	have := len(trimmed) - len(strings.TrimRight(trimmed, "\n"))
	for range n - have {
		w.b.WriteString("\n")
	}
}

func isSkipped(sel *goquery.Selection, name string) bool {
	if contains(skippedElements, name) {
		return true
	}
	if _, hidden := sel.Attr("hidden"); hidden {
		return true
	}
	return sel.AttrOr("aria-hidden", "") == "true"
}

func contains(set map[string]struct{}, name string) bool {
	_, ok := set[name]
	return ok
}

// normalizeText trims every line and collapses blank runs.
func normalizeText(raw string) string {
	lines := strings.Split(raw, "\n")
	for i, line := range lines {
		lines[i] = strings.Trim(line, " \t")
	}

	text := strings.Join(lines, "\n")
	text = manyNewlineRe.ReplaceAllString(text, "\n\n")
	text = manyBlankRe.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}

// documentTitle prefers <title> and falls back to og:title.
func documentTitle(doc *goquery.Document) string {
	if title := strings.TrimSpace(doc.Find("title").First().Text()); title != "" {
		return title
	}
	if content, ok := doc.Find("meta[property='og:title']").Attr("content"); ok {
		return strings.TrimSpace(content)
	}
	return ""
}
