package settings

import (
	"context"
	"fmt"
	"strings"

	"github.com/leofalp/sitesummarizer/providers/ai"
	"github.com/leofalp/sitesummarizer/providers/keyvault"
	"github.com/leofalp/sitesummarizer/providers/observability"
	"github.com/leofalp/sitesummarizer/providers/store"
)

// DefaultLength is used when no summary length has been saved.
const DefaultLength = "medium"

// Settings are the user's saved summarization preferences.
//
// APIKey is the decrypted key. It is never serialized; HasAPIKey tells
// surfaces whether one is stored.
type Settings struct {
	Provider  ai.ProviderName `json:"provider"`
	Model     string          `json:"model"`
	Length    string          `json:"length"`
	HasAPIKey bool            `json:"hasApiKey"`
	APIKey    string          `json:"-"`
}

// Service reads and writes Settings through a KV store, sealing the API key
// with a vault.
type Service struct {
	kv    store.KV
	vault *keyvault.Vault
}

func New(kv store.KV, vault *keyvault.Vault) *Service {
	return &Service{kv: kv, vault: vault}
}

// Load returns the saved settings with defaults filled in. A stored key that
// no longer decrypts loads as no key at all.
func (s *Service) Load(ctx context.Context) (Settings, error) {
	values, err := s.kv.Get(ctx, store.KeyProvider, store.KeyModel, store.KeyLength, store.KeyAPIKeyEncrypted)
	if err != nil {
		return Settings{}, fmt.Errorf("load settings: %w", err)
	}

	result := Settings{
		Provider: ai.ParseProviderName(values[store.KeyProvider]),
		Model:    strings.TrimSpace(values[store.KeyModel]),
		Length:   strings.TrimSpace(values[store.KeyLength]),
	}
	if result.Length == "" {
		result.Length = DefaultLength
	}

	result.APIKey = s.decrypt(ctx, values[store.KeyAPIKeyEncrypted])
	result.HasAPIKey = result.APIKey != ""
	return result, nil
}

// APIKey returns only the decrypted key, "" when none is usable.
func (s *Service) APIKey(ctx context.Context) (string, error) {
	values, err := s.kv.Get(ctx, store.KeyAPIKeyEncrypted)
	if err != nil {
		return "", fmt.Errorf("load API key: %w", err)
	}
	return s.decrypt(ctx, values[store.KeyAPIKeyEncrypted]), nil
}

// Save writes provider, model and length. plainKey replaces the stored key
// only when non-empty, so saving preferences keeps an existing key.
func (s *Service) Save(ctx context.Context, settings Settings, plainKey string) error {
	length := strings.TrimSpace(settings.Length)
	if length == "" {
		length = DefaultLength
	}

	values := map[string]string{
		store.KeyProvider: ai.ParseProviderName(string(settings.Provider)).String(),
		store.KeyModel:    strings.TrimSpace(settings.Model),
		store.KeyLength:   length,
	}

	if plainKey = strings.TrimSpace(plainKey); plainKey != "" {
		blob, err := s.vault.Encrypt(plainKey)
		if err != nil {
			return fmt.Errorf("encrypt API key: %w", err)
		}
		values[store.KeyAPIKeyEncrypted] = blob
	}

	if err := s.kv.Set(ctx, values); err != nil {
		return fmt.Errorf("save settings: %w", err)
	}
	return nil
}

// ClearAPIKey forgets the stored key, including a legacy plaintext one.
func (s *Service) ClearAPIKey(ctx context.Context) error {
	if err := s.kv.Remove(ctx, store.KeyAPIKeyEncrypted, store.KeyLegacyAPIKey); err != nil {
		return fmt.Errorf("clear API key: %w", err)
	}
	return nil
}

// MigratePlainKey moves a plaintext key left by older versions into the
// encrypted slot. It reports whether anything was migrated; an existing
// encrypted key always wins and the legacy value is left alone.
func (s *Service) MigratePlainKey(ctx context.Context) (bool, error) {
	values, err := s.kv.Get(ctx, store.KeyAPIKeyEncrypted, store.KeyLegacyAPIKey)
	if err != nil {
		return false, fmt.Errorf("read keys: %w", err)
	}

	plain := values[store.KeyLegacyAPIKey]
	if values[store.KeyAPIKeyEncrypted] != "" || plain == "" {
		return false, nil
	}

	blob, err := s.vault.Encrypt(plain)
	if err != nil {
		return false, fmt.Errorf("encrypt legacy key: %w", err)
	}
	if err := s.kv.Set(ctx, map[string]string{store.KeyAPIKeyEncrypted: blob}); err != nil {
		return false, fmt.Errorf("store encrypted key: %w", err)
	}
	if err := s.kv.Remove(ctx, store.KeyLegacyAPIKey); err != nil {
		return false, fmt.Errorf("remove legacy key: %w", err)
	}

	if observer := observability.ObserverFromContext(ctx); observer != nil {
		observer.Info(ctx, "Migrated plaintext API key to encrypted storage")
	}
	return true, nil
}

func (s *Service) decrypt(ctx context.Context, blob string) string {
	key, err := s.vault.Decrypt(blob)
	if err != nil {
		if observer := observability.ObserverFromContext(ctx); observer != nil {
			observer.Warn(ctx, "Stored API key could not be decrypted", observability.Error(err))
		}
		return ""
	}
	return key
}
