// internal/domain/promo/resolver_test.go
package promo

import (
	"context"
	"fmt"
	"io"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/your-org/storefront-core/internal/pkg/storage"
)

type mockValidator struct {
	verdict *Validation
	err     error
	calls   int
}

func (m *mockValidator) ValidatePromo(context.Context, string) (*Validation, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return m.verdict, nil
}

func testResolver(v Validator) *Resolver {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return NewResolver(v, storage.NewMemoryKV(), logger)
}

func TestApplyPercentage(t *testing.T) {
	r := testResolver(&mockValidator{verdict: &Validation{Valid: true, Kind: KindPercentage, Value: 10}})

	app := r.Apply(context.Background(), "SAVE10", 8000)
	assert.True(t, app.Applied)
	assert.Equal(t, int64(800), app.ResolvedDiscount)
}

func TestApplyFixed(t *testing.T) {
	r := testResolver(&mockValidator{verdict: &Validation{Valid: true, Kind: KindFixed, Value: 500}})

	app := r.Apply(context.Background(), "FIVEOFF", 8000)
	assert.True(t, app.Applied)
	assert.Equal(t, int64(500), app.ResolvedDiscount)
}

func TestApplyFixedClampedToSubtotal(t *testing.T) {
	// $10 off an $8 cart discounts $8, never a negative total.
	r := testResolver(&mockValidator{verdict: &Validation{Valid: true, Kind: KindFixed, Value: 1000}})

	app := r.Apply(context.Background(), "TENOFF", 800)
	assert.True(t, app.Applied)
	assert.Equal(t, int64(800), app.ResolvedDiscount)
}

func TestApplyInvalidCodeFailsClosed(t *testing.T) {
	r := testResolver(&mockValidator{verdict: &Validation{Valid: false, Error: "expired"}})

	app := r.Apply(context.Background(), "OLD", 8000)
	assert.False(t, app.Applied)
	assert.Equal(t, int64(0), app.ResolvedDiscount)
	assert.Equal(t, "expired", app.Message)
}

func TestApplyValidatorErrorFailsClosed(t *testing.T) {
	// A broken or unreachable validator must never grant a discount.
	r := testResolver(&mockValidator{err: fmt.Errorf("connection refused")})

	app := r.Apply(context.Background(), "SAVE10", 8000)
	assert.False(t, app.Applied)
	assert.Equal(t, int64(0), app.ResolvedDiscount)
}

func TestApplyUnknownKindFailsClosed(t *testing.T) {
	r := testResolver(&mockValidator{verdict: &Validation{Valid: true, Kind: "bogo", Value: 1}})

	app := r.Apply(context.Background(), "BOGO", 8000)
	assert.False(t, app.Applied)
	assert.Equal(t, int64(0), app.ResolvedDiscount)
}

func TestSavedCodeLifecycle(t *testing.T) {
	r := testResolver(&mockValidator{verdict: &Validation{Valid: true, Kind: KindFixed, Value: 100}})
	ctx := context.Background()

	assert.Empty(t, r.SavedCode(ctx, "sess-1"))

	r.SaveCode(ctx, "sess-1", "SAVE10")
	assert.Equal(t, "SAVE10", r.SavedCode(ctx, "sess-1"))
	assert.Empty(t, r.SavedCode(ctx, "sess-2"))

	r.ClearSavedCode(ctx, "sess-1")
	assert.Empty(t, r.SavedCode(ctx, "sess-1"))
}
