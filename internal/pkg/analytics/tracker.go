// internal/pkg/analytics/tracker.go
package analytics

import (
	"context"

	"github.com/sirupsen/logrus"
	"github.com/your-org/storefront-core/internal/domain/order"
)

// Tracker emits conversion events as structured logs for the downstream
// pipeline to pick up. Best-effort by contract.
type Tracker struct {
	logger *logrus.Logger
}

// NewTracker creates a conversion tracker
func NewTracker(logger *logrus.Logger) *Tracker {
	return &Tracker{logger: logger}
}

// TrackPurchase records a completed purchase
func (t *Tracker) TrackPurchase(ctx context.Context, o *order.Order) error {
	t.logger.WithFields(logrus.Fields{
		"event":      "purchase",
		"order_id":   o.ID,
		"user_id":    o.UserID,
		"total":      o.Total,
		"discount":   o.Discount,
		"promo_code": o.PromoCode,
		"item_count": len(o.Lines),
		"fraud_flag": o.FraudSuspect,
	}).Info("Conversion tracked")
	return nil
}
