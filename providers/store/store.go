package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a session id is unknown.
var ErrNotFound = errors.New("not found")

// Keys of the settings scope.
const (
	KeyProvider = "provider"
	KeyModel    = "model"
	KeyLength   = "length"

	// KeyAPIKeyEncrypted holds the vault blob ("v1:<iv>:<ct>").
	KeyAPIKeyEncrypted = "apiKeyEnc"

	// KeyLegacyAPIKey is the plaintext key written by older versions; it is
	// migrated to KeyAPIKeyEncrypted and removed.
	KeyLegacyAPIKey = "apiKey"
)

// Session is one summarization as seen by presentation surfaces. It is
// written when the stream opens, after each delta, and once more when the
// run ends.
type Session struct {
	ID        string    `json:"id"`
	Provider  string    `json:"provider"`
	Model     string    `json:"model"`
	Title     string    `json:"title"`
	URL       string    `json:"url"`
	Summary   string    `json:"summary"`
	CreatedAt time.Time `json:"createdAt"`
	OK        bool      `json:"ok"`
	Done      bool      `json:"done"`
	Error     string    `json:"error,omitempty"`
}

// KV is the persistent settings scope. Missing keys are absent from the map
// returned by Get.
type KV interface {
	Get(ctx context.Context, keys ...string) (map[string]string, error)
	Set(ctx context.Context, values map[string]string) error
	Remove(ctx context.Context, keys ...string) error
}

// SessionStore is the volatile session scope.
type SessionStore interface {
	GetSession(ctx context.Context, id string) (Session, error)
	PutSession(ctx context.Context, session Session) error

	// EvictSessions removes sessions whose CreatedAt is before cutoff and
	// returns how many were removed.
	EvictSessions(ctx context.Context, cutoff time.Time) (int, error)
}
