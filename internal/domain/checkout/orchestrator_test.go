// internal/domain/checkout/orchestrator_test.go
package checkout

import (
	"context"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/your-org/storefront-core/internal/config"
	"github.com/your-org/storefront-core/internal/domain/cart"
	"github.com/your-org/storefront-core/internal/domain/order"
	"github.com/your-org/storefront-core/internal/domain/payment"
	"github.com/your-org/storefront-core/internal/domain/promo"
	"github.com/your-org/storefront-core/internal/domain/session"
	"github.com/your-org/storefront-core/internal/pkg/storage"
	"github.com/your-org/storefront-core/internal/pkg/vault"
)

type mockGateway struct {
	mu sync.Mutex

	emailAvailable bool
	emailErr       error
	emailCalls     int

	intent    *payment.PaymentIntent
	intentErr error

	chargeResult *payment.ChargeResult
	chargeErr    error
	chargeCalls  int
	lastCharge   *payment.ChargeRequest
	chargeGate   chan struct{} // when set, ProcessPayment blocks until closed
}

func (m *mockGateway) CheckEmailAvailable(context.Context, string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.emailCalls++
	if m.emailErr != nil {
		return false, m.emailErr
	}
	return m.emailAvailable, nil
}

func (m *mockGateway) CreatePaymentIntent(context.Context, []cart.Line, string) (*payment.PaymentIntent, error) {
	if m.intentErr != nil {
		return nil, m.intentErr
	}
	if m.intent != nil {
		return m.intent, nil
	}
	return &payment.PaymentIntent{ID: "pi_1", ClientSecret: "secret"}, nil
}

func (m *mockGateway) ProcessPayment(_ context.Context, req *payment.ChargeRequest) (*payment.ChargeResult, error) {
	m.mu.Lock()
	gate := m.chargeGate
	m.mu.Unlock()
	if gate != nil {
		<-gate
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.chargeCalls++
	m.lastCharge = req
	if m.chargeErr != nil {
		return nil, m.chargeErr
	}
	if m.chargeResult != nil {
		return m.chargeResult, nil
	}

	// Default: recompute from the submitted items like the real server does.
	var total int64
	for _, line := range req.Items {
		total += line.UnitPrice * int64(line.Quantity)
	}
	return &payment.ChargeResult{
		Success:         true,
		ChargeID:        "ch_1",
		PaymentIntentID: req.PaymentIntentID,
		VerifiedTotal:   total,
	}, nil
}

type mockRecorder struct {
	mu      sync.Mutex
	created []*order.Order
	err     error
}

func (m *mockRecorder) Create(_ context.Context, o *order.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.created = append(m.created, o)
	return nil
}

type mockAuth struct {
	sess *session.Session
	err  error
}

func (m *mockAuth) Login(context.Context, string, string) (*session.Session, error) {
	return m.sess, m.err
}

func (m *mockAuth) Register(context.Context, string, string, session.Profile) (*session.Session, error) {
	return m.sess, m.err
}

type mockValidator struct {
	verdict *promo.Validation
	err     error
	calls   int
}

func (m *mockValidator) ValidatePromo(context.Context, string) (*promo.Validation, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return m.verdict, nil
}

type harness struct {
	orch      *Orchestrator
	ledger    *cart.Ledger
	gateway   *mockGateway
	recorder  *mockRecorder
	resolver  *promo.Resolver
	validator *mockValidator
	sessions  *session.Store
	promoKV   *storage.MemoryKV
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	cartKV := storage.NewMemoryKV()
	promoKV := storage.NewMemoryKV()
	remember := storage.NewMemoryKV()
	ephemeral := storage.NewMemoryKV()

	v := vault.New(&config.Config{
		Vault: config.VaultConfig{Secret: "checkout-test-secret", Salt: "salt", Iterations: 10000},
	}, logger)

	validator := &mockValidator{verdict: &promo.Validation{Valid: false}}
	resolver := promo.NewResolver(validator, promoKV, logger)
	gateway := &mockGateway{emailAvailable: true}
	recorder := &mockRecorder{}
	sessions := session.NewStore(remember, ephemeral, v, logger)
	ledger := cart.NewLedger("client-1", cartKV, logger)

	orch := New("client-1", Deps{
		Ledger:   ledger,
		Resolver: resolver,
		Gateway:  gateway,
		Orders:   recorder,
		Sessions: sessions,
		Auth:     &mockAuth{},
	}, config.ShippingConfig{BaseRate: 500, AdditionalItemRate: 0}, logger)

	return &harness{
		orch:      orch,
		ledger:    ledger,
		gateway:   gateway,
		recorder:  recorder,
		resolver:  resolver,
		validator: validator,
		sessions:  sessions,
		promoKV:   promoKV,
	}
}

func goodAddress() session.Address {
	return session.Address{
		FirstName:  "Ada",
		LastName:   "Lovelace",
		Street:     "1 Main St",
		City:       "Portland",
		State:      "OR",
		PostalCode: "97201",
	}
}

func completeCard() ManualPaymentForm {
	return ManualPaymentForm{NumberComplete: true, ExpiryComplete: true, CVCComplete: true}
}

// advance walks the harness to the Payment state with one item in the cart.
func (h *harness) advanceToPayment(t *testing.T) {
	t.Helper()
	ctx := context.Background()

	_, err := h.ledger.AddLine(ctx, cart.Product{ID: "p-1", Name: "Tee", UnitPrice: 2000}, 2, cart.Variant{Size: "M"})
	require.NoError(t, err)

	h.orch.Begin(ctx)
	require.NoError(t, h.orch.SubmitContactInfo(ctx, "buyer@example.com"))
	require.NoError(t, h.orch.SubmitShippingAddress(ctx, goodAddress(), false))
	require.Equal(t, StatePayment, h.orch.State())
}

func TestManualPaymentHappyPath(t *testing.T) {
	h := newHarness(t)
	h.advanceToPayment(t)
	ctx := context.Background()

	receipt, err := h.orch.SubmitPayment(ctx, completeCard())
	require.NoError(t, err)

	assert.Equal(t, int64(4000), receipt.VerifiedTotal)
	assert.Equal(t, StateComplete, h.orch.State())
	assert.True(t, h.orch.OrderComplete())

	// Charge carried the full cart contents, never a client total.
	require.NotNil(t, h.gateway.lastCharge)
	require.Len(t, h.gateway.lastCharge.Items, 1)
	assert.Equal(t, "buyer@example.com", h.gateway.lastCharge.CustomerEmail)

	// Order recorded, cart cleared.
	require.Len(t, h.recorder.created, 1)
	rec := h.recorder.created[0]
	assert.Equal(t, receipt.OrderID, rec.ID)
	assert.Equal(t, int64(4000), rec.Total)
	assert.Equal(t, order.StatusPlaced, rec.Status)
	assert.Empty(t, h.ledger.Lines())
}

func TestOrderPersistFailureStillCompletes(t *testing.T) {
	h := newHarness(t)
	h.advanceToPayment(t)
	h.recorder.err = fmt.Errorf("database is down")

	receipt, err := h.orch.SubmitPayment(context.Background(), completeCard())
	require.NoError(t, err, "a failed record write never rolls back a successful charge")

	assert.NotEmpty(t, receipt.OrderID)
	assert.Equal(t, StateComplete, h.orch.State())
	assert.True(t, h.orch.OrderComplete())
	assert.Empty(t, h.ledger.Lines(), "cart is cleared even when bookkeeping failed")
}

func TestChargeFailureReturnsToPayment(t *testing.T) {
	h := newHarness(t)
	h.advanceToPayment(t)
	h.gateway.chargeErr = &payment.ChargeError{Reason: "card declined"}

	_, err := h.orch.SubmitPayment(context.Background(), completeCard())
	require.Error(t, err)

	var chargeErr *payment.ChargeError
	require.ErrorAs(t, err, &chargeErr)

	assert.Equal(t, StatePayment, h.orch.State(), "failure returns to the originating state")
	assert.False(t, h.orch.OrderComplete())
	assert.Len(t, h.ledger.Lines(), 1, "entered data and cart survive a failed charge")
	assert.Empty(t, h.recorder.created)

	// Retry succeeds once the gateway recovers.
	h.gateway.chargeErr = nil
	_, err = h.orch.SubmitPayment(context.Background(), completeCard())
	assert.NoError(t, err)
}

func TestTokenizationFailureReturnsToPayment(t *testing.T) {
	h := newHarness(t)
	h.advanceToPayment(t)
	h.gateway.intentErr = &payment.TokenizationError{Reason: "provider unavailable"}

	_, err := h.orch.SubmitPayment(context.Background(), completeCard())
	require.Error(t, err)
	assert.Equal(t, StatePayment, h.orch.State())
	assert.Equal(t, 0, h.gateway.chargeCalls, "no charge attempted without a token")
}

func TestOnlyOneSubmissionInFlight(t *testing.T) {
	h := newHarness(t)
	h.advanceToPayment(t)

	gate := make(chan struct{})
	h.gateway.chargeGate = gate

	done := make(chan error, 1)
	go func() {
		_, err := h.orch.SubmitPayment(context.Background(), completeCard())
		done <- err
	}()

	// Wait for the first submission to take the guard.
	require.Eventually(t, func() bool {
		return h.orch.State() == StateProcessing
	}, 2*time.Second, 10*time.Millisecond)

	_, err := h.orch.SubmitPayment(context.Background(), completeCard())
	assert.ErrorIs(t, err, ErrSubmissionInFlight)

	close(gate)
	require.NoError(t, <-done)
	assert.Equal(t, 1, h.gateway.chargeCalls)
}

func TestManualPathRequiresCompletionFlags(t *testing.T) {
	h := newHarness(t)
	h.advanceToPayment(t)
	ctx := context.Background()

	_, err := h.orch.SubmitPayment(ctx, ManualPaymentForm{NumberComplete: true, ExpiryComplete: true})
	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "card_cvc", vErr.Field)
	assert.Equal(t, StatePayment, h.orch.State())
}

func TestSavedPaymentMethodSkipsCompletionFlags(t *testing.T) {
	h := newHarness(t)
	h.advanceToPayment(t)

	receipt, err := h.orch.SubmitPayment(context.Background(), ManualPaymentForm{SavedPaymentMethodID: "pm_saved"})
	require.NoError(t, err)
	assert.NotEmpty(t, receipt.OrderID)
	assert.Equal(t, "pm_saved", h.gateway.lastCharge.PaymentMethodID)
	assert.Empty(t, h.gateway.lastCharge.PaymentIntentID, "saved method needs no fresh intent")
}

func TestExpressPathUsesWalletFields(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, err := h.ledger.AddLine(ctx, cart.Product{ID: "p-1", UnitPrice: 3000}, 1, cart.Variant{})
	require.NoError(t, err)

	h.orch.Begin(ctx)
	require.NoError(t, h.orch.SubmitContactInfo(ctx, "buyer@example.com"))

	// Address form never submitted: the wallet supplies everything.
	require.Equal(t, StateShippingAddress, h.orch.State())
	receipt, err := h.orch.SubmitExpress(ctx, &payment.WalletConfirmation{
		PaymentMethodID: "pm_wallet",
		PayerEmail:      "Wallet@Example.com",
		ShippingName:    "Wallet Buyer",
		ShippingStreet:  "9 Pay Ln",
		ShippingCity:    "Austin",
		ShippingState:   "TX",
		ShippingZip:     "73301",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, receipt.OrderID)

	require.Len(t, h.recorder.created, 1)
	rec := h.recorder.created[0]
	assert.Equal(t, "wallet@example.com", rec.Email)
	assert.Equal(t, "9 Pay Ln", rec.ShippingStreet)
	assert.Equal(t, "TX", rec.ShippingState)
	assert.Equal(t, "pm_wallet", h.gateway.lastCharge.PaymentMethodID)
}

func TestExpressAvailableAtPaymentStep(t *testing.T) {
	h := newHarness(t)
	h.advanceToPayment(t)

	receipt, err := h.orch.SubmitExpress(context.Background(), &payment.WalletConfirmation{
		PaymentMethodID: "pm_wallet",
		PayerEmail:      "buyer@example.com",
		ShippingStreet:  "9 Pay Ln",
		ShippingState:   "TX",
		ShippingZip:     "73301",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, receipt.OrderID)
}

func TestExpressFailureReturnsToOriginatingStep(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, err := h.ledger.AddLine(ctx, cart.Product{ID: "p-1", UnitPrice: 3000}, 1, cart.Variant{})
	require.NoError(t, err)

	h.orch.Begin(ctx)
	require.NoError(t, h.orch.SubmitContactInfo(ctx, "buyer@example.com"))
	h.gateway.chargeErr = &payment.ChargeError{Reason: "card declined"}

	_, err = h.orch.SubmitExpress(ctx, &payment.WalletConfirmation{
		PaymentMethodID: "pm_wallet",
		PayerEmail:      "buyer@example.com",
	})
	require.Error(t, err)

	assert.Equal(t, StateShippingAddress, h.orch.State(), "failure lands back where the submission started")
	assert.Len(t, h.ledger.Lines(), 1)
}

func TestEmailAvailabilityFailsOpen(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.orch.Begin(ctx)
	h.gateway.emailErr = fmt.Errorf("lookup service down")

	assert.True(t, h.orch.CheckEmail(ctx, "new@example.com"), "availability failure treats the email as available")
	require.NoError(t, h.orch.SubmitContactInfo(ctx, "new@example.com"))
	assert.Equal(t, StateShippingAddress, h.orch.State(), "a broken lookup never blocks checkout")
}

func TestEmailCheckCachedPerInput(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.orch.Begin(ctx)

	h.orch.CheckEmail(ctx, "a@example.com")
	h.orch.CheckEmail(ctx, "a@example.com")
	assert.Equal(t, 1, h.gateway.emailCalls)

	h.orch.CheckEmail(ctx, "b@example.com")
	assert.Equal(t, 2, h.gateway.emailCalls)
}

func TestContactInfoRejectsBadEmail(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.orch.Begin(ctx)

	err := h.orch.SubmitContactInfo(ctx, "not-an-email")
	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, StateContactInfo, h.orch.State())
}

func TestAddressValidation(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.orch.Begin(ctx)
	require.NoError(t, h.orch.SubmitContactInfo(ctx, "buyer@example.com"))

	bad := goodAddress()
	bad.State = "ZZ"
	err := h.orch.SubmitShippingAddress(ctx, bad, false)
	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "state", vErr.Field)

	bad = goodAddress()
	bad.PostalCode = "123"
	err = h.orch.SubmitShippingAddress(ctx, bad, false)
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "postal_code", vErr.Field)

	assert.Equal(t, StateShippingAddress, h.orch.State())
}

func TestOutOfOrderOperationsRejected(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.orch.Begin(ctx)

	_, err := h.orch.SubmitPayment(ctx, completeCard())
	var stateErr *InvalidStateError
	require.ErrorAs(t, err, &stateErr)

	err = h.orch.SubmitShippingAddress(ctx, goodAddress(), false)
	require.ErrorAs(t, err, &stateErr)
}

func TestPromoFailClosedDoesNotBlockCheckout(t *testing.T) {
	h := newHarness(t)
	h.validator.err = fmt.Errorf("validator down")
	h.advanceToPayment(t)
	ctx := context.Background()

	app := h.orch.ApplyPromo(ctx, "SAVE10")
	assert.False(t, app.Applied)
	assert.Equal(t, int64(0), app.ResolvedDiscount)

	summary := h.orch.Summary()
	assert.Equal(t, int64(0), summary.Discount)

	receipt, err := h.orch.SubmitPayment(ctx, completeCard())
	require.NoError(t, err, "a broken validator never blocks the checkout itself")
	assert.Empty(t, h.gateway.lastCharge.PromoCode)
	assert.NotEmpty(t, receipt.OrderID)
}

func TestSavedPromoRevalidatedOnBegin(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, err := h.ledger.AddLine(ctx, cart.Product{ID: "p-1", UnitPrice: 10000}, 1, cart.Variant{})
	require.NoError(t, err)

	h.resolver.SaveCode(ctx, "client-1", "SAVE10")
	h.validator.verdict = &promo.Validation{Valid: true, Kind: promo.KindPercentage, Value: 10}

	h.orch.Begin(ctx)
	assert.Equal(t, 1, h.validator.calls, "saved code is revalidated, not trusted")

	summary := h.orch.Summary()
	require.NotNil(t, summary.Promo)
	assert.Equal(t, int64(1000), summary.Discount)
}

func TestPromoClearedAfterOrder(t *testing.T) {
	h := newHarness(t)
	h.validator.verdict = &promo.Validation{Valid: true, Kind: promo.KindFixed, Value: 500}
	h.advanceToPayment(t)
	ctx := context.Background()

	h.orch.ApplyPromo(ctx, "FIVEOFF")
	require.Equal(t, "FIVEOFF", h.resolver.SavedCode(ctx, "client-1"))

	_, err := h.orch.SubmitPayment(ctx, completeCard())
	require.NoError(t, err)

	assert.Empty(t, h.resolver.SavedCode(ctx, "client-1"))
	assert.Equal(t, "FIVEOFF", h.gateway.lastCharge.PromoCode)
}

func TestAuthenticatedOrderAppendsHistoryAndSavesAddress(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, err := h.ledger.AddLine(ctx, cart.Product{ID: "p-1", UnitPrice: 2500}, 1, cart.Variant{})
	require.NoError(t, err)

	member := &session.Session{
		UserID:    "u-1",
		Profile:   session.Profile{Email: "member@example.com"},
		AuthToken: "tok",
	}
	require.NoError(t, h.sessions.Save(ctx, "client-1", member, session.TierRemember))

	h.orch.Begin(ctx)
	require.True(t, h.orch.Authenticated())

	require.NoError(t, h.orch.SubmitContactInfo(ctx, "member@example.com"))
	require.NoError(t, h.orch.SubmitShippingAddress(ctx, goodAddress(), true))

	receipt, err := h.orch.SubmitPayment(ctx, completeCard())
	require.NoError(t, err)

	reloaded, tier := h.sessions.Load(ctx, "client-1")
	require.NotNil(t, reloaded)
	assert.Equal(t, session.TierRemember, tier)
	require.Len(t, reloaded.OrderHistory, 1)
	assert.Equal(t, receipt.OrderID, reloaded.OrderHistory[0].OrderID)
	require.Len(t, reloaded.Addresses, 1)
	assert.Equal(t, "1 Main St", reloaded.Addresses[0].Street)

	require.Len(t, h.recorder.created, 1)
	assert.Equal(t, "u-1", h.recorder.created[0].UserID)
}

func TestGuestOrderStashesPrefill(t *testing.T) {
	h := newHarness(t)
	h.advanceToPayment(t)
	ctx := context.Background()

	_, err := h.orch.SubmitPayment(ctx, completeCard())
	require.NoError(t, err)

	stash := h.sessions.GuestStash(ctx, "client-1")
	require.NotNil(t, stash)
	assert.Equal(t, "buyer@example.com", stash.Email)
	require.NotNil(t, stash.Shipping)
	assert.Equal(t, "1 Main St", stash.Shipping.Street)
}

func TestFraudSuspectOrderFlagged(t *testing.T) {
	h := newHarness(t)
	h.advanceToPayment(t)
	h.gateway.chargeResult = &payment.ChargeResult{
		Success:        true,
		ChargeID:       "ch_f",
		IsFraudSuspect: true,
		FraudScore:     0.92,
		VerifiedTotal:  4000,
	}

	receipt, err := h.orch.SubmitPayment(context.Background(), completeCard())
	require.NoError(t, err)
	assert.True(t, receipt.FraudSuspect)

	require.Len(t, h.recorder.created, 1)
	assert.Equal(t, order.StatusFraudReview, h.recorder.created[0].Status)
	assert.InDelta(t, 0.92, h.recorder.created[0].FraudScore, 1e-9)
}
