// internal/domain/cart/drawer_test.go
package cart

import (
	"context"
	"io"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/your-org/storefront-core/internal/pkg/storage"
)

func TestDrawerSignalRaisedOnAdd(t *testing.T) {
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	kv := storage.NewMemoryKV()
	ledger := NewLedger("c-1", kv, logger)
	drawer := NewDrawerSignal(kv, "c-1")
	ledger.SetNotifier(drawer)

	ctx := context.Background()
	assert.False(t, drawer.Consume(ctx), "no hint before any add")

	_, err := ledger.AddLine(ctx, Product{ID: "p-1", UnitPrice: 100}, 1, Variant{})
	require.NoError(t, err)

	assert.True(t, drawer.Consume(ctx), "add raises the hint")
	assert.False(t, drawer.Consume(ctx), "consuming lowers it")
}

func TestDrawerSignalNotRaisedBySilentAdd(t *testing.T) {
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	kv := storage.NewMemoryKV()
	ledger := NewLedger("c-2", kv, logger)
	drawer := NewDrawerSignal(kv, "c-2")
	ledger.SetNotifier(drawer)

	ctx := context.Background()
	_, err := ledger.AddLineSilent(ctx, Product{ID: "p-1", UnitPrice: 100}, 1, Variant{})
	require.NoError(t, err)

	assert.False(t, drawer.Consume(ctx))
}

func TestDrawerSignalsIsolatedPerCart(t *testing.T) {
	kv := storage.NewMemoryKV()
	a := NewDrawerSignal(kv, "cart-a")
	b := NewDrawerSignal(kv, "cart-b")

	a.OpenDrawer()

	ctx := context.Background()
	assert.False(t, b.Consume(ctx))
	assert.True(t, a.Consume(ctx))
}
