package keyvault

import (
	"encoding/base64"
	"errors"
	"strings"
	"sync"
	"testing"
)

var (
	defaultVaultOnce sync.Once
	defaultVault     *Vault
)

// sharedVault derives the default key once for the whole test binary.
func sharedVault(t *testing.T) *Vault {
	t.Helper()
	defaultVaultOnce.Do(func() {
		v, err := New("")
		if err != nil {
			t.Fatalf("New: %v", err)
		}
		defaultVault = v
	})
	return defaultVault
}

func TestVault_RoundTrip(t *testing.T) {
	v := sharedVault(t)

	for _, plaintext := range []string{
		"sk-test-123",
		"AIza-キー",
		strings.Repeat("x", 4096),
		"",
		":",
		"a:b:c",
		"v1:x:y",
	} {
		blob, err := v.Encrypt(plaintext)
		if err != nil {
			t.Fatalf("Encrypt: %v", err)
		}
		if !strings.HasPrefix(blob, "v1:") || strings.Count(blob, ":") != 2 {
			t.Errorf("blob %q does not have the v1:<iv>:<ct> shape", blob)
		}
		parts := strings.Split(blob, ":")
		if plaintext != "" && strings.Contains(parts[len(parts)-1], plaintext) {
			t.Error("blob leaks the plaintext")
		}

		got, err := v.Decrypt(blob)
		if err != nil {
			t.Fatalf("Decrypt: %v", err)
		}
		if got != plaintext {
			t.Errorf("Decrypt = %q, want %q", got, plaintext)
		}
	}
}

func TestVault_EncryptEmptyProducesBlob(t *testing.T) {
	v := sharedVault(t)

	blob, err := v.Encrypt("")
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	parts := strings.Split(blob, ":")
	if len(parts) != 3 || parts[0] != "v1" {
		t.Fatalf("blob = %q, want v1:<iv>:<ct>", blob)
	}
	// GCM tag only: 16 bytes
	tag, err := base64.StdEncoding.DecodeString(parts[2])
	if err != nil || len(tag) != 16 {
		t.Errorf("ciphertext = %q (%d bytes, err %v), want a bare 16-byte tag", parts[2], len(tag), err)
	}

	got, err := v.Decrypt(blob)
	if err != nil || got != "" {
		t.Errorf("Decrypt = %q, %v", got, err)
	}
}

func TestVault_FreshIVPerEncryption(t *testing.T) {
	v := sharedVault(t)

	first, _ := v.Encrypt("same")
	second, _ := v.Encrypt("same")
	if first == second {
		t.Error("two encryptions of the same plaintext produced the same blob")
	}
}

func TestVault_DecryptEmpty(t *testing.T) {
	got, err := sharedVault(t).Decrypt("")
	if err != nil || got != "" {
		t.Errorf(`Decrypt("") = %q, %v`, got, err)
	}
}

func TestVault_DecryptBadFormat(t *testing.T) {
	v := sharedVault(t)

	for _, blob := range []string{
		"sk-plain-key",
		"v2:AAAAAAAAAAAAAAAA:AAAA",
		"v1:onlytwo",
		"v1:a:b:c",
		"v1:!!!:AAAA",
		"v1:AAAA:AAAA",
	} {
		if _, err := v.Decrypt(blob); !errors.Is(err, ErrBadFormat) {
			t.Errorf("Decrypt(%q) err = %v, want ErrBadFormat", blob, err)
		}
	}
}

func TestVault_DecryptTampered(t *testing.T) {
	v := sharedVault(t)

	blob, _ := v.Encrypt("sk-test")
	parts := strings.Split(blob, ":")
	tampered := parts[0] + ":" + parts[1] + ":" + "AAAA" + parts[2][4:]
	if tampered == blob {
		t.Skip("ciphertext already started with AAAA")
	}

	if _, err := v.Decrypt(tampered); !errors.Is(err, ErrDecrypt) {
		t.Errorf("err = %v, want ErrDecrypt", err)
	}
}

func TestVault_OtherPassphraseCannotDecrypt(t *testing.T) {
	blob, _ := sharedVault(t).Encrypt("sk-test")

	other, err := New("another passphrase")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := other.Decrypt(blob); !errors.Is(err, ErrDecrypt) {
		t.Errorf("err = %v, want ErrDecrypt", err)
	}
}
