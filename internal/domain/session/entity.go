// internal/domain/session/entity.go
package session

import (
	"strings"
	"time"
)

// Profile holds the user-visible identity on a session
type Profile struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
}

// Address is a saved shipping address
type Address struct {
	ID         string `json:"id"`
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
	Street     string `json:"street"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
	Phone      string `json:"phone,omitempty"`
	IsDefault  bool   `json:"is_default"`
}

// DedupeKey identifies an address for duplicate detection: street + zip
func (a Address) DedupeKey() string {
	return strings.ToLower(strings.TrimSpace(a.Street)) + "|" + strings.TrimSpace(a.PostalCode)
}

// OrderRef is an order-history entry carried on the session
type OrderRef struct {
	OrderID  string    `json:"order_id"`
	Total    int64     `json:"total"`
	PlacedAt time.Time `json:"placed_at"`
}

// Session is the authenticated state persisted (encrypted) in browser-facing
// storage. Exactly one storage tier holds the live session at a time.
type Session struct {
	UserID  string  `json:"user_id"`
	Profile Profile `json:"profile"`

	// AuthToken is minted by this service and accepted back as a bearer
	// credential. GatewayToken is the upstream account service's own token,
	// opaque here and never presented to storefront clients.
	AuthToken    string `json:"auth_token"`
	GatewayToken string `json:"gateway_token,omitempty"`

	Addresses    []Address  `json:"addresses,omitempty"`
	OrderHistory []OrderRef `json:"order_history,omitempty"`
}

// AddAddress appends the address unless an existing one shares its dedupe
// key. Returns true when the address was added.
func (s *Session) AddAddress(addr Address) bool {
	for _, existing := range s.Addresses {
		if existing.DedupeKey() == addr.DedupeKey() {
			return false
		}
	}
	s.Addresses = append(s.Addresses, addr)
	return true
}

// DefaultAddress returns the default saved address, falling back to the
// first one. Nil when none are saved.
func (s *Session) DefaultAddress() *Address {
	for i := range s.Addresses {
		if s.Addresses[i].IsDefault {
			return &s.Addresses[i]
		}
	}
	if len(s.Addresses) > 0 {
		return &s.Addresses[0]
	}
	return nil
}

// AppendOrder records a completed order on the session
func (s *Session) AppendOrder(ref OrderRef) {
	s.OrderHistory = append(s.OrderHistory, ref)
}
