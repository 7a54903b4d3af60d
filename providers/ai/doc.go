// Package ai defines the provider-agnostic streaming contract shared by the
// OpenAI and Gemini adapters.
//
// A [StreamProvider] turns a [StreamRequest] into an ordered sequence of text
// deltas delivered through a [DeltaFunc]. Failures before any delta arrives
// are reported as [*APIError] (non-2xx HTTP status) or [ErrStreamUnavailable]
// (no readable body); payloads that are not valid JSON are skipped rather than
// treated as errors.
package ai
