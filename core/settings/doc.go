// Package settings manages the persisted summarization preferences and the
// encrypted API key.
package settings
