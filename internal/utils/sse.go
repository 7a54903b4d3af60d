package utils

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

const (
	// DoneSentinel is the payload OpenAI-compatible APIs send as the last event.
	DoneSentinel = "[DONE]"

	sseDataField = "data:"

	// maxPendingEventSize bounds the undelimited carry-over between reads (1 MiB).
	maxPendingEventSize = 1 * 1024 * 1024

	sseReadBufferSize = 4 * 1024
)

// ErrEventTooLarge is returned by SSEReader when a single event grows past
// the carry-over limit without a blank-line delimiter.
var ErrEventTooLarge = errors.New("SSE event exceeds maximum size")

// ParseSSE splits buffer into complete event payloads and the trailing,
// possibly incomplete, remainder. The remainder must be prefixed to the next
// buffer by the caller.
//
// CRLF is normalized to LF first. Within each blank-line delimited chunk,
// every "data:" line contributes its value (marker and one optional space
// removed); several data lines are joined with "\n". Chunks without data
// lines produce no event. Payloads are returned uninterpreted, including ""
// and "[DONE]".
func ParseSSE(buffer string) (events []string, rest string) {
	normalized := strings.ReplaceAll(buffer, "\r\n", "\n")

	parts := strings.Split(normalized, "\n\n")
	rest = parts[len(parts)-1]

	for _, chunk := range parts[:len(parts)-1] {
		var dataLines []string
		for _, line := range strings.Split(chunk, "\n") {
			if !strings.HasPrefix(line, sseDataField) {
				continue
			}
			value := strings.TrimPrefix(line, sseDataField)
			value = strings.TrimPrefix(value, " ")
			dataLines = append(dataLines, value)
		}

		if len(dataLines) > 0 {
			events = append(events, strings.Join(dataLines, "\n"))
		}
	}

	return events, rest
}

// SSEReader yields SSE event payloads from a byte stream that may be split at
// arbitrary points, including in the middle of a multi-byte character.
//
// Bytes go through a stateful UTF-8 decoder before framing, so a rune split
// across two network reads is decoded once both halves have arrived. Invalid
// sequences become U+FFFD.
type SSEReader struct {
	reader  io.Reader
	buf     []byte
	rest    string
	pending []string
	eof     bool
}

// NewSSEReader wraps reader. The caller still owns and closes reader.
func NewSSEReader(reader io.Reader) *SSEReader {
	return &SSEReader{
		reader: transform.NewReader(reader, unicode.UTF8.NewDecoder()),
		buf:    make([]byte, sseReadBufferSize),
	}
}

// Next returns the next event payload in arrival order. It returns io.EOF once
// the stream has ended and every complete event has been consumed; an
// undelimited trailing fragment at end of stream is discarded.
func (r *SSEReader) Next() (string, error) {
	for len(r.pending) == 0 {
		if r.eof {
			return "", io.EOF
		}

		n, err := r.reader.Read(r.buf)
		if n > 0 {
			events, rest := ParseSSE(r.rest + string(r.buf[:n]))
			r.rest = rest
			r.pending = append(r.pending, events...)

			if len(r.rest) > maxPendingEventSize {
				return "", ErrEventTooLarge
			}
		}

		if errors.Is(err, io.EOF) {
			r.eof = true
			continue
		}
		if err != nil {
			return "", fmt.Errorf("SSE read error: %w", err)
		}
	}

	payload := r.pending[0]
	r.pending = r.pending[1:]
	return payload, nil
}
