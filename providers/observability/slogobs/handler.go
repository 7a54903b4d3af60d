package slogobs

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"time"
)

// Handler is a slog.Handler writing compact or JSON records. Handlers derived
// with WithAttrs/WithGroup share the parent's writer lock.
type Handler struct {
	format Format
	level  slog.Leveler
	output io.Writer
	colors bool
	mu     *sync.Mutex
	attrs  []slog.Attr
	prefix string
}

// HandlerOptions configures a Handler.
type HandlerOptions struct {
	Format Format
	// Level is the minimum level written; a *slog.LevelVar allows changing it at runtime.
	Level  slog.Leveler
	Output io.Writer
	// Colors enables ANSI colors in compact output. When false, colors are
	// still enabled if Output is a terminal.
	Colors bool
}

func NewHandler(opts *HandlerOptions) *Handler {
	if opts == nil {
		opts = &HandlerOptions{}
	}

	output := opts.Output
	if output == nil {
		output = os.Stderr
	}
	format := opts.Format
	if format == "" {
		format = FormatCompact
	}
	var level slog.Leveler = slog.LevelInfo
	if opts.Level != nil {
		level = opts.Level
	}

	colors := opts.Colors
	if !colors && format == FormatCompact {
		if f, ok := output.(*os.File); ok {
			colors = isTerminal(f)
		}
	}

	return &Handler{
		format: format,
		level:  level,
		output: output,
		colors: colors,
		mu:     &sync.Mutex{},
	}
}

func (h *Handler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *Handler) Handle(_ context.Context, r slog.Record) error {
	var line []byte
	var err error

	switch h.format {
	case FormatJSON:
		line, err = h.formatJSON(r)
	default:
		line, err = h.formatCompact(r)
	}
	if err != nil {
		return err
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err = h.output.Write(line)
	return err
}

func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clone := *h
	clone.attrs = make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	clone.attrs = append(clone.attrs, h.attrs...)
	for _, attr := range attrs {
		attr.Key = h.prefix + attr.Key
		clone.attrs = append(clone.attrs, attr)
	}
	return &clone
}

func (h *Handler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	clone := *h
	clone.prefix = h.prefix + name + "."
	return &clone
}

// formatCompact renders
//
//	2006-01-02 15:04:05 LEVEL Message → {"key":"value"}
func (h *Handler) formatCompact(r slog.Record) ([]byte, error) {
	buf := make([]byte, 0, 256)
	buf = append(buf, r.Time.Format(time.DateTime)...)
	buf = append(buf, ' ')

	level := fmt.Sprintf("%5s", levelString(r.Level))
	if h.colors {
		buf = append(buf, colorForLevel(r.Level)...)
		buf = append(buf, level...)
		buf = append(buf, colorReset...)
	} else {
		buf = append(buf, level...)
	}
	buf = append(buf, ' ')
	buf = append(buf, r.Message...)

	if attrs := h.collectAttrs(r); len(attrs) > 0 {
		encoded, err := json.Marshal(attrs)
		if err != nil {
			buf = append(buf, " [unencodable attributes]"...)
		} else {
			buf = append(buf, " → "...)
			buf = append(buf, encoded...)
		}
	}

	return append(buf, '\n'), nil
}

// formatJSON renders one object with time, level and msg merged with the attributes.
func (h *Handler) formatJSON(r slog.Record) ([]byte, error) {
	data := h.collectAttrs(r)
	data["time"] = r.Time.Format(time.RFC3339)
	data["level"] = levelString(r.Level)
	data["msg"] = r.Message

	encoded, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("encoding log record: %w", err)
	}
	return append(encoded, '\n'), nil
}

func (h *Handler) collectAttrs(r slog.Record) map[string]any {
	attrs := make(map[string]any, len(h.attrs)+r.NumAttrs())
	for _, attr := range h.attrs {
		addAttr(attrs, "", attr)
	}
	r.Attrs(func(attr slog.Attr) bool {
		addAttr(attrs, h.prefix, attr)
		return true
	})
	return attrs
}

// addAttr flattens groups into dotted keys.
func addAttr(attrs map[string]any, prefix string, attr slog.Attr) {
	value := attr.Value.Resolve()
	if value.Kind() == slog.KindGroup {
		groupPrefix := prefix
		if attr.Key != "" {
			groupPrefix = prefix + attr.Key + "."
		}
		for _, member := range value.Group() {
			addAttr(attrs, groupPrefix, member)
		}
		return
	}
	if attr.Key == "" {
		return
	}

	switch value.Kind() {
	case slog.KindDuration:
		attrs[prefix+attr.Key] = value.Duration().String()
	case slog.KindAny:
		if err, ok := value.Any().(error); ok {
			attrs[prefix+attr.Key] = err.Error()
			return
		}
		attrs[prefix+attr.Key] = value.Any()
	default:
		attrs[prefix+attr.Key] = value.Any()
	}
}

func levelString(level slog.Level) string {
	switch {
	case level < slog.LevelDebug:
		return "TRACE"
	case level < slog.LevelInfo:
		return "DEBUG"
	case level < slog.LevelWarn:
		return "INFO"
	case level < slog.LevelError:
		return "WARN"
	default:
		return "ERROR"
	}
}

const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorYellow = "\033[33m"
	colorGreen  = "\033[32m"
	colorBlue   = "\033[34m"
	colorGray   = "\033[90m"
)

func colorForLevel(level slog.Level) string {
	switch {
	case level < slog.LevelDebug:
		return colorGray
	case level < slog.LevelInfo:
		return colorBlue
	case level < slog.LevelWarn:
		return colorGreen
	case level < slog.LevelError:
		return colorYellow
	default:
		return colorRed
	}
}

func isTerminal(f *os.File) bool {
	if f == nil {
		return false
	}
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0
}
