// internal/domain/order/entity.go
package order

import (
	"time"

	"gorm.io/gorm"
)

// Status represents the order status. An order is created only after a
// successful charge; later transitions are driven externally.
type Status string

const (
	StatusPlaced      Status = "placed"
	StatusFraudReview Status = "fraud_review"
	StatusFulfilled   Status = "fulfilled"
	StatusCancelled   Status = "cancelled"
)

// Order is the immutable record written after a successful charge. Amounts
// in cents; Total is the server-verified charge amount.
type Order struct {
	ID     string `gorm:"primaryKey;size:36" json:"id"`
	UserID string `gorm:"index;size:36" json:"user_id,omitempty"` // empty for guest orders
	Email  string `gorm:"not null;size:255" json:"email"`
	Status Status `gorm:"not null;default:'placed'" json:"status"`

	Subtotal     int64  `gorm:"not null" json:"subtotal"`
	ShippingCost int64  `gorm:"default:0" json:"shipping_cost"`
	Discount     int64  `gorm:"default:0" json:"discount"`
	Total        int64  `gorm:"not null" json:"total"`
	PromoCode    string `gorm:"size:50" json:"promo_code,omitempty"`

	ChargeID        string `gorm:"size:255" json:"charge_id"`
	PaymentIntentID string `gorm:"size:255" json:"payment_intent_id"`

	FraudSuspect bool    `gorm:"default:false" json:"fraud_suspect"`
	FraudScore   float64 `gorm:"default:0" json:"fraud_score"`

	// Shipping destination snapshot
	ShippingName   string `gorm:"size:200" json:"shipping_name"`
	ShippingStreet string `gorm:"size:255" json:"shipping_street"`
	ShippingCity   string `gorm:"size:100" json:"shipping_city"`
	ShippingState  string `gorm:"size:2" json:"shipping_state"`
	ShippingZip    string `gorm:"size:20" json:"shipping_zip"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Lines []Line `gorm:"foreignKey:OrderID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"lines"`
}

// Line is a cart line frozen into the order at point of charge
type Line struct {
	ID        uint   `gorm:"primaryKey" json:"id"`
	OrderID   string `gorm:"not null;index;size:36" json:"order_id"`
	LineID    string `gorm:"size:36" json:"line_id"`
	ProductID string `gorm:"not null;size:36" json:"product_id"`
	Name      string `gorm:"size:255" json:"name"`
	Size      string `gorm:"size:20" json:"size,omitempty"`
	Color     string `gorm:"size:50" json:"color,omitempty"`
	UnitPrice int64  `gorm:"not null" json:"unit_price"`
	Quantity  int    `gorm:"not null" json:"quantity"`
}

// TableName overrides
func (Order) TableName() string { return "orders" }
func (Line) TableName() string  { return "order_lines" }
