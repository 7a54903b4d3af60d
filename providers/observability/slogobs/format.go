package slogobs

import (
	"fmt"
	"log/slog"
	"strings"
)

// Format selects the handler output layout.
type Format string

const (
	// FormatCompact is one line per record with attributes as a JSON object:
	//   2026-01-02 10:40:35  INFO Summary completed → {"summary.chars":812}
	FormatCompact Format = "compact"

	// FormatJSON is one JSON object per record, for log shippers.
	FormatJSON Format = "json"
)

// LevelTrace sits below DEBUG and carries per-event stream noise.
const LevelTrace = slog.LevelDebug - 4

// ParseFormat maps "compact" and "json" (case-insensitive) to a Format.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "compact":
		return FormatCompact, nil
	case "json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("unknown log format %q", s)
	}
}

// ParseLevel maps TRACE, DEBUG, INFO, WARN/WARNING and ERROR
// (case-insensitive) to a slog.Level. An empty string means INFO.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "TRACE":
		return LevelTrace, nil
	case "DEBUG":
		return slog.LevelDebug, nil
	case "", "INFO":
		return slog.LevelInfo, nil
	case "WARN", "WARNING":
		return slog.LevelWarn, nil
	case "ERROR":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", s)
	}
}

func (f Format) String() string {
	return string(f)
}
