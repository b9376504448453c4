// internal/pkg/vault/vault.go
package vault

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"io"

	"github.com/sirupsen/logrus"
	"github.com/your-org/storefront-core/internal/config"
	"golang.org/x/crypto/pbkdf2"
)

// Vault seals session blobs before they reach browser-facing storage.
//
// The key is derived from a fixed application secret, so this only protects
// against casual inspection of stored data. Anyone with access to the
// application configuration can decrypt; that is an accepted limitation,
// not a confidentiality guarantee.
type Vault struct {
	aead     cipher.AEAD
	degraded bool
	logger   *logrus.Logger
}

// New derives the sealing key and constructs the vault. If the AEAD cannot
// be constructed the vault falls back to a reversible base64 encoding so the
// application keeps working; the fallback is NOT secure and is logged as such.
func New(cfg *config.Config, logger *logrus.Logger) *Vault {
	v := &Vault{logger: logger}

	key := pbkdf2.Key([]byte(cfg.Vault.Secret), []byte(cfg.Vault.Salt), cfg.Vault.Iterations, 32, sha256.New)

	block, err := aes.NewCipher(key)
	if err != nil {
		v.degraded = true
		logger.WithError(err).Error("vault: cipher unavailable, falling back to reversible encoding (NOT secure)")
		return v
	}

	aead, err := cipher.NewGCM(block)
	if err != nil {
		v.degraded = true
		logger.WithError(err).Error("vault: AEAD unavailable, falling back to reversible encoding (NOT secure)")
		return v
	}

	v.aead = aead
	return v
}

// Degraded reports whether the vault is running on the insecure fallback encoding.
func (v *Vault) Degraded() bool {
	return v.degraded
}

// Encrypt seals the payload under a fresh random nonce and returns
// base64(nonce || sealed). In degraded mode it returns plain base64.
func (v *Vault) Encrypt(payload []byte) (string, error) {
	if v.degraded {
		return base64.StdEncoding.EncodeToString(payload), nil
	}

	nonce := make([]byte, v.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}

	sealed := v.aead.Seal(nonce, nonce, payload, nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// Decrypt opens a value produced by Encrypt. Corrupt, truncated or foreign
// ciphertext yields nil; callers treat nil as "no session", never an error.
func (v *Vault) Decrypt(ciphertext string) []byte {
	raw, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil {
		return nil
	}

	if v.degraded {
		return raw
	}

	nonceSize := v.aead.NonceSize()
	if len(raw) < nonceSize {
		return nil
	}

	nonce, sealed := raw[:nonceSize], raw[nonceSize:]
	payload, err := v.aead.Open(nil, nonce, sealed, nil)
	if err != nil {
		return nil
	}
	return payload
}
