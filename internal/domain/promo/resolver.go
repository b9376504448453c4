// internal/domain/promo/resolver.go
package promo

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/your-org/storefront-core/internal/pkg/storage"
)

// Kind is the discount kind reported by the validator
type Kind string

const (
	KindPercentage Kind = "percentage"
	KindFixed      Kind = "fixed"
)

// savedCodeTTL keeps a saved code across page navigation within one browsing
// session, nothing longer. The code is revalidated on every use.
const savedCodeTTL = 30 * time.Minute

// Validation is the server's verdict on a promo code. Validity and the
// discount kind/value are entirely server-authoritative.
type Validation struct {
	Valid bool    `json:"valid"`
	Kind  Kind    `json:"kind,omitempty"`
	Value float64 `json:"value,omitempty"` // percent, or cents for fixed
	Error string  `json:"error,omitempty"`
}

// Validator checks a promo code against the server
type Validator interface {
	ValidatePromo(ctx context.Context, code string) (*Validation, error)
}

// Application is the resolved discount for display. It is ephemeral: the
// server recomputes the discount at the point of charge, so a cached
// application is a UI convenience, never a guarantee.
type Application struct {
	Code             string  `json:"code"`
	Kind             Kind    `json:"kind,omitempty"`
	Value            float64 `json:"value,omitempty"`
	ResolvedDiscount int64   `json:"resolved_discount"`
	Applied          bool    `json:"applied"`
	Message          string  `json:"message,omitempty"`
}

// Resolver resolves promo codes against the server-side validator
type Resolver struct {
	validator Validator
	store     storage.KV
	logger    *logrus.Logger
}

// NewResolver creates a new promo resolver
func NewResolver(validator Validator, store storage.KV, logger *logrus.Logger) *Resolver {
	return &Resolver{
		validator: validator,
		store:     store,
		logger:    logger,
	}
}

// Apply resolves a code against the validator and computes the discount for
// the given subtotal. Fail-closed: any validator error, timeout or invalid
// verdict resolves to a zero discount — a broken validator never grants one.
func (r *Resolver) Apply(ctx context.Context, code string, subtotal int64) *Application {
	app := &Application{Code: code}

	verdict, err := r.validator.ValidatePromo(ctx, code)
	if err != nil {
		r.logger.WithError(err).WithField("code", code).Warn("promo validation failed, resolving to zero discount")
		app.Message = "Could not verify promo code"
		return app
	}

	if !verdict.Valid {
		app.Message = verdict.Error
		if app.Message == "" {
			app.Message = "Invalid promo code"
		}
		return app
	}

	app.Kind = verdict.Kind
	app.Value = verdict.Value
	app.Applied = true

	switch verdict.Kind {
	case KindFixed:
		discount := int64(verdict.Value)
		if discount > subtotal {
			// Never discount below a zero total.
			discount = subtotal
		}
		app.ResolvedDiscount = discount
	case KindPercentage:
		app.ResolvedDiscount = int64(float64(subtotal) * verdict.Value / 100)
	default:
		r.logger.WithField("kind", verdict.Kind).Warn("unknown discount kind, resolving to zero discount")
		app.Applied = false
		app.ResolvedDiscount = 0
	}

	return app
}

// SaveCode caches a code so it survives navigation inside one browsing session
func (r *Resolver) SaveCode(ctx context.Context, sessionID, code string) {
	if err := r.store.Set(ctx, r.savedCodeKey(sessionID), code, savedCodeTTL); err != nil {
		r.logger.WithError(err).Warn("failed to cache promo code")
	}
}

// SavedCode returns the cached code, or empty when none is saved
func (r *Resolver) SavedCode(ctx context.Context, sessionID string) string {
	code, err := r.store.Get(ctx, r.savedCodeKey(sessionID))
	if err != nil {
		if err != storage.ErrNotFound {
			r.logger.WithError(err).Warn("failed to read cached promo code")
		}
		return ""
	}
	return code
}

// ClearSavedCode drops the cached code after a successful order or an
// explicit removal
func (r *Resolver) ClearSavedCode(ctx context.Context, sessionID string) {
	if err := r.store.Del(ctx, r.savedCodeKey(sessionID)); err != nil {
		r.logger.WithError(err).Warn("failed to clear cached promo code")
	}
}

func (r *Resolver) savedCodeKey(sessionID string) string {
	return fmt.Sprintf("promo:saved:%s", sessionID)
}
