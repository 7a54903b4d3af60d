// Package slogobs implements observability.Provider with log/slog. Output is
// compact single-line text or JSON, selected with [WithFormat]; [LevelTrace]
// adds a level below DEBUG for raw stream events.
package slogobs
