// internal/domain/order/store.go
package order

import (
	"context"
	"fmt"

	"gorm.io/gorm"
)

// Recorder is the order bookkeeping capability the checkout consumes.
// Implementations are best-effort from the caller's point of view: by the
// time an order exists, the charge already succeeded and cannot be rolled
// back from here.
type Recorder interface {
	Create(ctx context.Context, o *Order) error
}

// Store persists order records
type Store struct {
	db *gorm.DB
}

// NewStore creates a new order store
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Create writes the order and its line snapshot
func (s *Store) Create(ctx context.Context, o *Order) error {
	if err := s.db.WithContext(ctx).Create(o).Error; err != nil {
		return fmt.Errorf("failed to create order record: %w", err)
	}
	return nil
}

// Get retrieves a single order with its lines
func (s *Store) Get(ctx context.Context, id string) (*Order, error) {
	var o Order
	result := s.db.WithContext(ctx).Preload("Lines").Where("id = ?", id).First(&o)
	if result.Error != nil {
		if result.Error == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("order not found")
		}
		return nil, fmt.Errorf("failed to retrieve order: %w", result.Error)
	}
	return &o, nil
}

// ListByUser retrieves a user's orders, newest first
func (s *Store) ListByUser(ctx context.Context, userID string) ([]Order, error) {
	var orders []Order
	err := s.db.WithContext(ctx).
		Preload("Lines").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&orders).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	return orders, nil
}
