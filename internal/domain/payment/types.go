// internal/domain/payment/types.go
package payment

import (
	"context"
	"fmt"

	"github.com/your-org/storefront-core/internal/domain/cart"
)

// PaymentIntent is the provider-side intent backing a charge
type PaymentIntent struct {
	ClientSecret string `json:"client_secret"`
	ID           string `json:"id"`
}

// ChargeRequest carries the full current cart contents to the charge
// endpoint. The server recomputes the total; a client total is never sent.
type ChargeRequest struct {
	PaymentMethodID string      `json:"payment_method_id,omitempty"`
	Items           []cart.Line `json:"items"`
	PromoCode       string      `json:"promo_code,omitempty"`
	CustomerEmail   string      `json:"customer_email"`
	SaveCard        bool        `json:"save_card"`
	PaymentIntentID string      `json:"payment_intent_id,omitempty"`
}

// ChargeResult is the server's verdict on a charge. VerifiedTotal is the
// server-recomputed amount, authoritative over any client-displayed total.
type ChargeResult struct {
	Success         bool    `json:"success"`
	ChargeID        string  `json:"charge_id"`
	PaymentIntentID string  `json:"payment_intent_id"`
	IsFraudSuspect  bool    `json:"is_fraud_suspect"`
	FraudScore      float64 `json:"fraud_score"`
	VerifiedTotal   int64   `json:"verified_total"`
	Error           string  `json:"error,omitempty"`
}

// WalletConfirmation is what the express/wallet path hands back: a payment
// method plus the shipping details stored with the wallet. Form state plays
// no part in this path.
type WalletConfirmation struct {
	PaymentMethodID string `json:"payment_method_id"`
	PayerEmail      string `json:"payer_email"`
	ShippingName    string `json:"shipping_name"`
	ShippingStreet  string `json:"shipping_street"`
	ShippingCity    string `json:"shipping_city"`
	ShippingState   string `json:"shipping_state"`
	ShippingZip     string `json:"shipping_zip"`
}

// Gateway is the payment/account capability the checkout consumes
type Gateway interface {
	CheckEmailAvailable(ctx context.Context, email string) (bool, error)
	CreatePaymentIntent(ctx context.Context, items []cart.Line, promoCode string) (*PaymentIntent, error)
	ProcessPayment(ctx context.Context, req *ChargeRequest) (*ChargeResult, error)
}

// TokenizationError indicates the payment method could not be tokenized.
// User-facing and retryable; no charge side effect occurred.
type TokenizationError struct {
	Reason string
}

func (e *TokenizationError) Error() string {
	return fmt.Sprintf("payment tokenization failed: %s", e.Reason)
}

// ChargeError indicates the charge was declined or failed. User-facing and
// retryable; the server reported no completed payment.
type ChargeError struct {
	Reason string
}

func (e *ChargeError) Error() string {
	return fmt.Sprintf("charge failed: %s", e.Reason)
}
