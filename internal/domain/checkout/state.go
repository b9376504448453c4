// internal/domain/checkout/state.go
package checkout

import "fmt"

// State names a checkout step. Flow: ContactInfo → ShippingAddress →
// Payment → Processing → Complete. Recoverable errors return to the state
// they originated from, never forward.
type State string

const (
	StateContactInfo     State = "contact_info"
	StateShippingAddress State = "shipping_address"
	StatePayment         State = "payment"
	StateProcessing      State = "processing"
	StateComplete        State = "complete"
)

// ErrSubmissionInFlight rejects a resubmission while a charge is pending.
// Exactly one charge may be in flight per checkout session.
var ErrSubmissionInFlight = fmt.Errorf("a submission is already being processed")

// InvalidStateError reports an operation attempted in the wrong step
type InvalidStateError struct {
	Op      string
	Current State
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("%s is not allowed in state %s", e.Op, e.Current)
}

// ValidationError is a field-level input error, recoverable in place
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}
