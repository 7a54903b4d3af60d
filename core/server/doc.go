// Package server is the local HTTP surface of the summarizer.
//
// POST /summarize answers with the session id as soon as the stream opens and
// keeps summarizing after the response is written. Clients follow progress on
// GET /sessions/{id}/events, a server-sent event stream that starts with the
// stored snapshot and continues with init, delta, done and error events.
// Input errors answer 400 and extraction or provider failures before the
// stream opens answer 502.
package server
