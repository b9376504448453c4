// internal/pkg/vault/vault_test.go
package vault

import (
	"encoding/base64"
	"io"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/your-org/storefront-core/internal/config"
)

func testVault(t *testing.T) *Vault {
	t.Helper()

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	cfg := &config.Config{
		Vault: config.VaultConfig{
			Secret:     "unit-test-vault-secret",
			Salt:       "unit-test-salt",
			Iterations: 10000,
		},
	}

	v := New(cfg, logger)
	require.False(t, v.Degraded())
	return v
}

func TestEncryptDecryptRoundTrip(t *testing.T) {
	v := testVault(t)

	payload := []byte(`{"user_id":"u-1","auth_token":"tok"}`)
	ciphertext, err := v.Encrypt(payload)
	require.NoError(t, err)
	assert.NotEqual(t, string(payload), ciphertext)

	assert.Equal(t, payload, v.Decrypt(ciphertext))
}

func TestEncryptUsesFreshNonce(t *testing.T) {
	v := testVault(t)

	first, err := v.Encrypt([]byte("same payload"))
	require.NoError(t, err)
	second, err := v.Encrypt([]byte("same payload"))
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
}

func TestDecryptCorruptInputReturnsNil(t *testing.T) {
	v := testVault(t)

	assert.Nil(t, v.Decrypt("not base64 at all !!!"))
	assert.Nil(t, v.Decrypt(base64.StdEncoding.EncodeToString([]byte("short"))))

	// Valid base64, valid length, wrong key material.
	garbage := make([]byte, 64)
	assert.Nil(t, v.Decrypt(base64.StdEncoding.EncodeToString(garbage)))
}

func TestDecryptForeignCiphertextReturnsNil(t *testing.T) {
	v := testVault(t)

	logger := logrus.New()
	logger.SetOutput(io.Discard)
	other := New(&config.Config{
		Vault: config.VaultConfig{
			Secret:     "a-different-secret",
			Salt:       "unit-test-salt",
			Iterations: 10000,
		},
	}, logger)

	ciphertext, err := other.Encrypt([]byte("sealed elsewhere"))
	require.NoError(t, err)
	assert.Nil(t, v.Decrypt(ciphertext))
}

func TestDegradedModeIsReversibleButInsecure(t *testing.T) {
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	// Degraded vault falls back to plain base64. Functional, NOT secure.
	v := &Vault{degraded: true, logger: logger}
	require.True(t, v.Degraded())

	ciphertext, err := v.Encrypt([]byte("visible to anyone"))
	require.NoError(t, err)

	decoded, err := base64.StdEncoding.DecodeString(ciphertext)
	require.NoError(t, err)
	assert.Equal(t, "visible to anyone", string(decoded))

	assert.Equal(t, []byte("visible to anyone"), v.Decrypt(ciphertext))
}
