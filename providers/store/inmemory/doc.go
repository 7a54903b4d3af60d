// Package inmemory is a mutex-guarded map implementation of store.KV and
// store.SessionStore. The server uses it for the session scope; tests use it
// for both.
package inmemory
