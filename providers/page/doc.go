// Package page extracts the text of a web page for summarization.
//
// [HTTPExtractor] fetches the document, renders the visible text of its main
// content with goquery, and falls back to a Markdown rendering of the whole
// document when no text is found. Every [Page] is capped at [MaxTextLength]
// characters.
package page
