package keyvault

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/pbkdf2"
)

const (
	// DefaultPassphrase is compiled in, so a stored blob is obfuscated rather
	// than protected. Override it with SUMMARIZER_KEY_PASSPHRASE.
	DefaultPassphrase = "replace-with-your-fixed-passphrase-CHANGE-ME"
	// Salt is fixed so blobs written by one process open in the next.
	Salt = "site-summarizer-fixed-salt-v1"

	Iterations = 200000
	KeyLength  = 32
	IVLength   = 12

	formatVersion = "v1"
)

var (
	// ErrBadFormat is returned for blobs that are not "v1:<iv>:<ciphertext>".
	ErrBadFormat = errors.New("bad cipher format")
	// ErrDecrypt is returned when a well-formed blob fails authentication,
	// typically because it was sealed under another passphrase.
	ErrDecrypt = errors.New("decrypt failed")
)

// Vault seals short secrets such as API keys with AES-GCM-256. The key is
// derived once, in New.
type Vault struct {
	aead cipher.AEAD
}

// New derives the vault key from passphrase with PBKDF2-SHA256. An empty
// passphrase selects DefaultPassphrase.
func New(passphrase string) (*Vault, error) {
	if passphrase == "" {
		passphrase = DefaultPassphrase
	}

	key := pbkdf2.Key([]byte(passphrase), []byte(Salt), Iterations, KeyLength, sha256.New)

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("create cipher: %w", err)
	}
	aead, err := cipher.NewGCMWithNonceSize(block, IVLength)
	if err != nil {
		return nil, fmt.Errorf("create GCM: %w", err)
	}

	return &Vault{aead: aead}, nil
}

// Encrypt returns "v1:<base64 iv>:<base64 ciphertext>" with a fresh random IV.
func (v *Vault) Encrypt(plaintext string) (string, error) {
	iv := make([]byte, IVLength)
	if _, err := rand.Read(iv); err != nil {
		return "", fmt.Errorf("generate IV: %w", err)
	}

	ciphertext := v.aead.Seal(nil, iv, []byte(plaintext), nil)
	return strings.Join([]string{
		formatVersion,
		base64.StdEncoding.EncodeToString(iv),
		base64.StdEncoding.EncodeToString(ciphertext),
	}, ":"), nil
}

// Decrypt reverses Encrypt. An empty blob decrypts to an empty string.
func (v *Vault) Decrypt(blob string) (string, error) {
	if blob == "" {
		return "", nil
	}

	parts := strings.Split(blob, ":")
	if len(parts) != 3 || parts[0] != formatVersion {
		return "", ErrBadFormat
	}

	iv, err := base64.StdEncoding.DecodeString(parts[1])
	if err != nil || len(iv) != IVLength {
		return "", ErrBadFormat
	}
	ciphertext, err := base64.StdEncoding.DecodeString(parts[2])
	if err != nil {
		return "", ErrBadFormat
	}

	plaintext, err := v.aead.Open(nil, iv, ciphertext, nil)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrDecrypt, err)
	}
	return string(plaintext), nil
}
