package settings

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/leofalp/sitesummarizer/providers/ai"
	"github.com/leofalp/sitesummarizer/providers/keyvault"
	"github.com/leofalp/sitesummarizer/providers/store"
	"github.com/leofalp/sitesummarizer/providers/store/inmemory"
)

var (
	vaultOnce sync.Once
	vault     *keyvault.Vault
)

func newTestService(t *testing.T) (*Service, *inmemory.Store) {
	t.Helper()
	vaultOnce.Do(func() {
		v, err := keyvault.New("")
		if err != nil {
			t.Fatalf("keyvault.New: %v", err)
		}
		vault = v
	})
	kv := inmemory.New()
	return New(kv, vault), kv
}

func TestLoad_Defaults(t *testing.T) {
	svc, _ := newTestService(t)

	got, err := svc.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	want := Settings{Provider: ai.ProviderOpenAI, Length: DefaultLength}
	if got != want {
		t.Errorf("Load = %+v, want %+v", got, want)
	}
}

func TestSave_ThenLoad(t *testing.T) {
	ctx := context.Background()
	svc, kv := newTestService(t)

	err := svc.Save(ctx, Settings{Provider: ai.ProviderGemini, Model: " gemini-2.5-pro ", Length: "long"}, " AIza-secret ")
	if err != nil {
		t.Fatalf("Save: %v", err)
	}

	raw, _ := kv.Get(ctx, store.KeyAPIKeyEncrypted)
	if blob := raw[store.KeyAPIKeyEncrypted]; !strings.HasPrefix(blob, "v1:") || strings.Contains(blob, "AIza-secret") {
		t.Errorf("stored key blob = %q, want an encrypted v1 blob", blob)
	}

	got, err := svc.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	want := Settings{Provider: ai.ProviderGemini, Model: "gemini-2.5-pro", Length: "long", HasAPIKey: true, APIKey: "AIza-secret"}
	if got != want {
		t.Errorf("Load = %+v, want %+v", got, want)
	}
}

func TestSave_EmptyKeyKeepsExisting(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	_ = svc.Save(ctx, Settings{Provider: ai.ProviderOpenAI}, "sk-first")
	if err := svc.Save(ctx, Settings{Provider: ai.ProviderOpenAI, Length: "short"}, ""); err != nil {
		t.Fatalf("Save: %v", err)
	}

	key, err := svc.APIKey(ctx)
	if err != nil {
		t.Fatalf("APIKey: %v", err)
	}
	if key != "sk-first" {
		t.Errorf("APIKey = %q, want sk-first", key)
	}
}

func TestLoad_UndecryptableKeyIsEmpty(t *testing.T) {
	ctx := context.Background()
	svc, kv := newTestService(t)

	_ = kv.Set(ctx, map[string]string{store.KeyAPIKeyEncrypted: "garbage"})

	got, err := svc.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.APIKey != "" || got.HasAPIKey {
		t.Errorf("Load = %+v, want no key", got)
	}
}

func TestClearAPIKey(t *testing.T) {
	ctx := context.Background()
	svc, kv := newTestService(t)

	_ = svc.Save(ctx, Settings{}, "sk-test")
	_ = kv.Set(ctx, map[string]string{store.KeyLegacyAPIKey: "sk-legacy"})

	if err := svc.ClearAPIKey(ctx); err != nil {
		t.Fatalf("ClearAPIKey: %v", err)
	}

	raw, _ := kv.Get(ctx, store.KeyAPIKeyEncrypted, store.KeyLegacyAPIKey)
	if len(raw) != 0 {
		t.Errorf("keys left after clear: %v", raw)
	}
}

func TestMigratePlainKey(t *testing.T) {
	ctx := context.Background()

	t.Run("moves legacy key", func(t *testing.T) {
		svc, kv := newTestService(t)
		_ = kv.Set(ctx, map[string]string{store.KeyLegacyAPIKey: "sk-legacy"})

		migrated, err := svc.MigratePlainKey(ctx)
		if err != nil || !migrated {
			t.Fatalf("MigratePlainKey = %v, %v", migrated, err)
		}

		raw, _ := kv.Get(ctx, store.KeyLegacyAPIKey)
		if _, ok := raw[store.KeyLegacyAPIKey]; ok {
			t.Error("legacy plaintext key still stored")
		}
		if key, _ := svc.APIKey(ctx); key != "sk-legacy" {
			t.Errorf("APIKey = %q after migration", key)
		}
	})

	t.Run("encrypted key wins", func(t *testing.T) {
		svc, kv := newTestService(t)
		_ = svc.Save(ctx, Settings{}, "sk-new")
		_ = kv.Set(ctx, map[string]string{store.KeyLegacyAPIKey: "sk-legacy"})

		migrated, err := svc.MigratePlainKey(ctx)
		if err != nil || migrated {
			t.Fatalf("MigratePlainKey = %v, %v", migrated, err)
		}
		if key, _ := svc.APIKey(ctx); key != "sk-new" {
			t.Errorf("APIKey = %q, want sk-new", key)
		}
	})

	t.Run("nothing to do", func(t *testing.T) {
		svc, _ := newTestService(t)
		migrated, err := svc.MigratePlainKey(ctx)
		if err != nil || migrated {
			t.Errorf("MigratePlainKey = %v, %v", migrated, err)
		}
	})
}
