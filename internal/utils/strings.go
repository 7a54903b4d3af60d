package utils

import (
	"fmt"
	"net/url"
	"unicode/utf8"
)

const (
	// DefaultMaxStringLength is the default maximum length for truncated strings
	DefaultMaxStringLength = 500

	redactedValue = "REDACTED"
)

// secretQueryParams are query parameters removed from URLs before they reach logs.
var secretQueryParams = []string{"key", "api_key"}

// TruncateString shortens s to at most maxLen bytes for log output, appending
// a suffix that records the original total length. If maxLen is zero or
// negative, [DefaultMaxStringLength] is used instead.
func TruncateString(s string, maxLen int) string {
	if maxLen <= 0 {
		maxLen = DefaultMaxStringLength
	}
	if len(s) <= maxLen {
		return s
	}
	return fmt.Sprintf("%s... (truncated, total: %d chars)", s[:maxLen], len(s))
}

// TruncateRunes returns the first maxRunes characters of s. Unlike
// TruncateString it never splits a multi-byte character and adds no suffix.
func TruncateRunes(s string, maxRunes int) string {
	if maxRunes <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= maxRunes {
		return s
	}

	count := 0
	for i := range s {
		if count == maxRunes {
			return s[:i]
		}
		count++
	}
	return s
}

// RedactURL replaces credential-bearing query parameters with a placeholder.
// Unparseable input is returned unchanged.
func RedactURL(raw string) string {
	parsed, err := url.Parse(raw)
	if err != nil {
		return raw
	}

	query := parsed.Query()
	changed := false
	for _, param := range secretQueryParams {
		if query.Has(param) {
			query.Set(param, redactedValue)
			changed = true
		}
	}
	if !changed {
		return raw
	}

	parsed.RawQuery = query.Encode()
	return parsed.String()
}
