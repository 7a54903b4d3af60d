// Package store defines the two storage scopes of the summarizer: the
// persistent settings key/value scope ([KV]) and the volatile session scope
// ([SessionStore]), plus the [Session] record shared by both the orchestrator
// and the presentation surfaces.
//
// Implementations live in the inmemory (both scopes, lost on restart) and
// sqlite (settings scope) subpackages.
package store
