// internal/pkg/storage/prefix_test.go
package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrefixedKVNamespacesKeys(t *testing.T) {
	ctx := context.Background()
	backing := NewMemoryKV()

	a := NewPrefixedKV(backing, "a:")
	b := NewPrefixedKV(backing, "b:")

	require.NoError(t, a.Set(ctx, "k", "from-a", time.Minute))
	require.NoError(t, b.Set(ctx, "k", "from-b", time.Minute))

	gotA, err := a.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "from-a", gotA)

	gotB, err := b.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "from-b", gotB)

	require.NoError(t, a.Del(ctx, "k"))
	_, err = a.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrNotFound)

	gotB, err = b.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "from-b", gotB, "deleting in one namespace leaves the other")
}
