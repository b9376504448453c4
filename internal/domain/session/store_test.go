// internal/domain/session/store_test.go
package session

import (
	"context"
	"io"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/your-org/storefront-core/internal/config"
	"github.com/your-org/storefront-core/internal/pkg/storage"
	"github.com/your-org/storefront-core/internal/pkg/vault"
)

func testStore(t *testing.T) (*Store, *storage.MemoryKV, *storage.MemoryKV) {
	t.Helper()

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	v := vault.New(&config.Config{
		Vault: config.VaultConfig{
			Secret:     "session-store-test-secret",
			Salt:       "session-store-test-salt",
			Iterations: 10000,
		},
	}, logger)

	remember := storage.NewMemoryKV()
	ephemeral := storage.NewMemoryKV()
	return NewStore(remember, ephemeral, v, logger), remember, ephemeral
}

func sampleSession() *Session {
	return &Session{
		UserID:    "u-1",
		Profile:   Profile{FirstName: "Ada", Email: "ada@example.com"},
		AuthToken: "jwt-token",
	}
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	store, _, _ := testStore(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "client-1", sampleSession(), TierRemember))

	loaded, tier := store.Load(ctx, "client-1")
	require.NotNil(t, loaded)
	assert.Equal(t, TierRemember, tier)
	assert.Equal(t, "u-1", loaded.UserID)
	assert.Equal(t, "jwt-token", loaded.AuthToken)
}

func TestSaveClearsOppositeTier(t *testing.T) {
	store, remember, ephemeral := testStore(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "client-1", sampleSession(), TierRemember))
	require.NoError(t, store.Save(ctx, "client-1", sampleSession(), TierEphemeral))

	_, err := remember.Get(ctx, "session:client-1")
	assert.Equal(t, storage.ErrNotFound, err, "remember tier must be cleared")
	_, err = ephemeral.Get(ctx, "session:client-1")
	assert.NoError(t, err)

	// And back the other way.
	require.NoError(t, store.Save(ctx, "client-1", sampleSession(), TierRemember))
	_, err = ephemeral.Get(ctx, "session:client-1")
	assert.Equal(t, storage.ErrNotFound, err, "ephemeral tier must be cleared")
}

func TestSessionIsEncryptedAtRest(t *testing.T) {
	store, remember, _ := testStore(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "client-1", sampleSession(), TierRemember))

	raw, err := remember.Get(ctx, "session:client-1")
	require.NoError(t, err)
	assert.NotContains(t, raw, "jwt-token")
	assert.NotContains(t, raw, "ada@example.com")
}

func TestLoadCorruptBlobReturnsNil(t *testing.T) {
	store, remember, _ := testStore(t)
	ctx := context.Background()

	require.NoError(t, remember.Set(ctx, "session:client-1", "tampered", 0))

	sess, _ := store.Load(ctx, "client-1")
	assert.Nil(t, sess)
}

func TestDestroyClearsBothTiers(t *testing.T) {
	store, remember, ephemeral := testStore(t)
	ctx := context.Background()

	// Simulate a stale duplicate in each tier, then destroy.
	require.NoError(t, remember.Set(ctx, "session:client-1", "x", 0))
	require.NoError(t, ephemeral.Set(ctx, "session:client-1", "y", 0))

	store.Destroy(ctx, "client-1")

	sess, _ := store.Load(ctx, "client-1")
	assert.Nil(t, sess)
}

func TestGuestStashRoundTrip(t *testing.T) {
	store, _, _ := testStore(t)
	ctx := context.Background()

	assert.Nil(t, store.GuestStash(ctx, "client-1"))

	store.SaveGuestStash(ctx, "client-1", &GuestStash{
		Email:    "guest@example.com",
		Shipping: &Address{Street: "1 Main St", PostalCode: "94110"},
	})

	stash := store.GuestStash(ctx, "client-1")
	require.NotNil(t, stash)
	assert.Equal(t, "guest@example.com", stash.Email)
	require.NotNil(t, stash.Shipping)
	assert.Equal(t, "1 Main St", stash.Shipping.Street)
}

func TestAddAddressDedupe(t *testing.T) {
	sess := sampleSession()

	added := sess.AddAddress(Address{ID: "a-1", Street: "1 Main St", PostalCode: "94110"})
	assert.True(t, added)

	// Same street+zip, different casing and id: duplicate.
	added = sess.AddAddress(Address{ID: "a-2", Street: " 1 MAIN st", PostalCode: "94110"})
	assert.False(t, added)
	assert.Len(t, sess.Addresses, 1)

	added = sess.AddAddress(Address{ID: "a-3", Street: "1 Main St", PostalCode: "10001"})
	assert.True(t, added)
	assert.Len(t, sess.Addresses, 2)
}
