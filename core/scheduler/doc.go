// Package scheduler runs background maintenance on a cron schedule. Today
// that is session eviction: summaries older than the TTL are dropped from the
// session store.
package scheduler
