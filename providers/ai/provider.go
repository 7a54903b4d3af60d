package ai

import (
	"context"
	"strings"
)

// ProviderName identifies an LLM vendor.
type ProviderName string

const (
	ProviderOpenAI ProviderName = "openai"
	ProviderGemini ProviderName = "gemini"
)

// ParseProviderName normalizes user input. Only "gemini" (any case) selects
// Gemini; every other value, including the empty string, selects OpenAI.
func ParseProviderName(s string) ProviderName {
	if strings.EqualFold(strings.TrimSpace(s), string(ProviderGemini)) {
		return ProviderGemini
	}
	return ProviderOpenAI
}

func (p ProviderName) String() string {
	return string(p)
}

// StreamRequest is one summarization call. Model may be empty, in which case
// the provider's default model is used. APIKey must be set.
type StreamRequest struct {
	APIKey string
	Model  string
	Prompt string
}

// DeltaFunc receives text fragments in arrival order. Fragments are never
// empty. Returning an error aborts the stream and Stream returns that error.
type DeltaFunc func(delta string) error

// StreamProvider streams a completion as text deltas.
//
// Stream returns nil once the provider signals completion or closes the
// connection cleanly. It never calls onDelta after returning.
type StreamProvider interface {
	Name() ProviderName
	DefaultModel() string
	Stream(ctx context.Context, request StreamRequest, onDelta DeltaFunc) error
}
