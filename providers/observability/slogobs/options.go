package slogobs

import (
	"io"
	"log/slog"
	"os"
)

// Option configures an Observer.
type Option func(*config)

type config struct {
	format Format
	level  slog.Level
	output io.Writer
	colors bool
	logger *slog.Logger
}

func WithFormat(format Format) Option {
	return func(c *config) {
		c.format = format
	}
}

func WithLevel(level slog.Level) Option {
	return func(c *config) {
		c.level = level
	}
}

// WithOutput sets the destination. The default is stderr so that summaries
// printed to stdout by the CLI stay clean.
func WithOutput(output io.Writer) Option {
	return func(c *config) {
		c.output = output
	}
}

// WithColors forces ANSI level colors in compact output.
func WithColors(enabled bool) Option {
	return func(c *config) {
		c.colors = enabled
	}
}

// WithLogger bypasses the custom handler entirely; format, level, output and
// colors are then ignored.
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) {
		c.logger = logger
	}
}

func applyOptions(opts ...Option) *config {
	cfg := &config{
		format: FormatCompact,
		level:  slog.LevelInfo,
		output: os.Stderr,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}
