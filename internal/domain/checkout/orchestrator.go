// internal/domain/checkout/orchestrator.go
package checkout

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/your-org/storefront-core/internal/config"
	"github.com/your-org/storefront-core/internal/domain/cart"
	"github.com/your-org/storefront-core/internal/domain/order"
	"github.com/your-org/storefront-core/internal/domain/payment"
	"github.com/your-org/storefront-core/internal/domain/promo"
	"github.com/your-org/storefront-core/internal/domain/session"
	"github.com/your-org/storefront-core/internal/domain/shipping"
)

// Authenticator is the primary authentication path, reused by the inline
// login/registration branches of the ContactInfo step.
type Authenticator interface {
	Login(ctx context.Context, email, password string) (*session.Session, error)
	Register(ctx context.Context, email, password string, profile session.Profile) (*session.Session, error)
}

// AddressSyncer pushes saved addresses to the server-side account
type AddressSyncer interface {
	UpdateUserAddresses(ctx context.Context, userID string, addresses []session.Address) error
}

// Mailer sends the order confirmation. Best-effort; never blocks completion.
type Mailer interface {
	SendOrderConfirmation(ctx context.Context, email string, o *order.Order) error
}

// Analytics records the conversion. Best-effort; never blocks completion.
type Analytics interface {
	TrackPurchase(ctx context.Context, o *order.Order) error
}

// ManualPaymentForm is the state of the manual card-entry path. The
// completion flags come from the payment provider's card element; the card
// data itself never reaches this service.
type ManualPaymentForm struct {
	NumberComplete       bool   `json:"number_complete"`
	ExpiryComplete       bool   `json:"expiry_complete"`
	CVCComplete          bool   `json:"cvc_complete"`
	SavedPaymentMethodID string `json:"saved_payment_method_id,omitempty"`
	SaveCard             bool   `json:"save_card"`
}

// Summary is the display estimate shown during checkout. The server-verified
// total at charge time is authoritative; these numbers are advisory.
type Summary struct {
	Lines          []cart.Line        `json:"lines"`
	Subtotal       int64              `json:"subtotal"`
	Shipping       shipping.Quote     `json:"shipping"`
	Promo          *promo.Application `json:"promo,omitempty"`
	Discount       int64              `json:"discount"`
	EstimatedTotal int64              `json:"estimated_total"`
}

// Receipt is what a completed submission returns
type Receipt struct {
	OrderID       string `json:"order_id"`
	VerifiedTotal int64  `json:"verified_total"`
	FraudSuspect  bool   `json:"fraud_suspect"`
}

type emailCheck struct {
	input     string
	available bool
	done      bool
}

// Orchestrator drives one checkout session through the step state machine
type Orchestrator struct {
	mu sync.Mutex

	clientID string
	state    State

	ledger   *cart.Ledger
	resolver *promo.Resolver
	gateway  payment.Gateway
	orders   order.Recorder
	sessions *session.Store
	auth     Authenticator
	syncer   AddressSyncer
	mailer   Mailer
	tracker  Analytics

	shippingCfg config.ShippingConfig
	logger      *logrus.Logger

	sess        *session.Session
	sessionTier session.Tier

	contactEmail string
	shippingAddr session.Address
	saveAddress  bool
	promoApp     *promo.Application
	lastCheck    emailCheck

	processing    bool
	orderComplete bool
}

// Deps bundles the orchestrator's collaborators
type Deps struct {
	Ledger   *cart.Ledger
	Resolver *promo.Resolver
	Gateway  payment.Gateway
	Orders   order.Recorder
	Sessions *session.Store
	Auth     Authenticator
	Syncer   AddressSyncer
	Mailer   Mailer
	Tracker  Analytics
}

// New creates an orchestrator for one checkout session
func New(clientID string, deps Deps, shippingCfg config.ShippingConfig, logger *logrus.Logger) *Orchestrator {
	return &Orchestrator{
		clientID:    clientID,
		state:       StateContactInfo,
		ledger:      deps.Ledger,
		resolver:    deps.Resolver,
		gateway:     deps.Gateway,
		orders:      deps.Orders,
		sessions:    deps.Sessions,
		auth:        deps.Auth,
		syncer:      deps.Syncer,
		mailer:      deps.Mailer,
		tracker:     deps.Tracker,
		shippingCfg: shippingCfg,
		logger:      logger,
	}
}

// State returns the current step
func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// OrderComplete reports whether a submission finished. It is set before the
// cart is cleared, so an empty-cart redirect never fires mid-flow.
func (o *Orchestrator) OrderComplete() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.orderComplete
}

// Begin loads the live session and revalidates any saved promo code. A saved
// code is a convenience, never trusted: it goes back through the validator.
func (o *Orchestrator) Begin(ctx context.Context) {
	sess, tier := o.sessions.Load(ctx, o.clientID)

	o.mu.Lock()
	o.sess = sess
	o.sessionTier = tier
	if sess != nil {
		o.contactEmail = sess.Profile.Email
	}
	o.mu.Unlock()

	if code := o.resolver.SavedCode(ctx, o.clientID); code != "" {
		app := o.resolver.Apply(ctx, code, o.ledger.Subtotal())
		o.mu.Lock()
		if app.Applied {
			o.promoApp = app
		}
		o.mu.Unlock()
	}
}

// Authenticated reports whether a live session backs this checkout
func (o *Orchestrator) Authenticated() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.sess != nil
}

// CheckEmail asks whether the email has an account, caching the last-checked
// result per input so repeated checks for the same value cost nothing.
// Fails open: a broken availability lookup never blocks checkout.
func (o *Orchestrator) CheckEmail(ctx context.Context, email string) bool {
	email = strings.ToLower(strings.TrimSpace(email))

	o.mu.Lock()
	if o.lastCheck.done && o.lastCheck.input == email {
		available := o.lastCheck.available
		o.mu.Unlock()
		return available
	}
	o.mu.Unlock()

	available, err := o.gateway.CheckEmailAvailable(ctx, email)
	if err != nil {
		o.logger.WithError(err).Warn("email availability check failed, treating as available")
		available = true
	}

	o.mu.Lock()
	o.lastCheck = emailCheck{input: email, available: available, done: true}
	o.mu.Unlock()
	return available
}

// InlineLogin signs in during the ContactInfo step using the primary
// authentication path, persisting the session to the chosen tier.
func (o *Orchestrator) InlineLogin(ctx context.Context, email, password string, remember bool) error {
	if err := o.requireState("login", StateContactInfo); err != nil {
		return err
	}

	sess, err := o.auth.Login(ctx, email, password)
	if err != nil {
		return err
	}
	return o.installSession(ctx, sess, remember)
}

// InlineRegister creates an account during the ContactInfo step. The
// authenticator enforces the password-strength gate.
func (o *Orchestrator) InlineRegister(ctx context.Context, email, password string, profile session.Profile, remember bool) error {
	if err := o.requireState("registration", StateContactInfo); err != nil {
		return err
	}

	sess, err := o.auth.Register(ctx, email, password, profile)
	if err != nil {
		return err
	}
	return o.installSession(ctx, sess, remember)
}

func (o *Orchestrator) installSession(ctx context.Context, sess *session.Session, remember bool) error {
	tier := session.TierEphemeral
	if remember {
		tier = session.TierRemember
	}
	if err := o.sessions.Save(ctx, o.clientID, sess, tier); err != nil {
		return err
	}

	o.mu.Lock()
	o.sess = sess
	o.sessionTier = tier
	o.contactEmail = sess.Profile.Email
	o.mu.Unlock()
	return nil
}

// SubmitContactInfo validates the email and advances to ShippingAddress.
// Guests advance too; an account is optional.
func (o *Orchestrator) SubmitContactInfo(ctx context.Context, email string) error {
	if err := o.requireState("contact submission", StateContactInfo); err != nil {
		return err
	}

	email = strings.ToLower(strings.TrimSpace(email))
	if err := validateEmail(email); err != nil {
		return err
	}

	o.mu.Lock()
	o.contactEmail = email
	o.state = StateShippingAddress
	o.mu.Unlock()
	return nil
}

// PrefillAddress returns the saved default address for authenticated users
func (o *Orchestrator) PrefillAddress() *session.Address {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.sess == nil {
		return nil
	}
	return o.sess.DefaultAddress()
}

// SubmitShippingAddress validates the address and advances to Payment.
// saveForLater requests persisting the address during submission.
func (o *Orchestrator) SubmitShippingAddress(ctx context.Context, addr session.Address, saveForLater bool) error {
	if err := o.requireState("address submission", StateShippingAddress); err != nil {
		return err
	}

	addr.State = strings.ToUpper(strings.TrimSpace(addr.State))
	if err := validateShippingAddress(addr); err != nil {
		return err
	}
	if addr.ID == "" {
		addr.ID = uuid.New().String()
	}

	o.mu.Lock()
	o.shippingAddr = addr
	o.saveAddress = saveForLater
	o.state = StatePayment
	o.mu.Unlock()
	return nil
}

// ApplyPromo resolves a code for display and caches it for the session
func (o *Orchestrator) ApplyPromo(ctx context.Context, code string) *promo.Application {
	app := o.resolver.Apply(ctx, code, o.ledger.Subtotal())
	if app.Applied {
		o.resolver.SaveCode(ctx, o.clientID, code)
		o.mu.Lock()
		o.promoApp = app
		o.mu.Unlock()
	}
	return app
}

// RemovePromo drops the applied code
func (o *Orchestrator) RemovePromo(ctx context.Context) {
	o.resolver.ClearSavedCode(ctx, o.clientID)
	o.mu.Lock()
	o.promoApp = nil
	o.mu.Unlock()
}

// Summary computes the display totals. Estimates only: the charge endpoint
// recomputes everything server-side.
func (o *Orchestrator) Summary() *Summary {
	lines := o.ledger.Lines()
	subtotal := o.ledger.Subtotal()
	quote := shipping.Calculate(lines, o.shippingCfg)

	o.mu.Lock()
	app := o.promoApp
	o.mu.Unlock()

	var discount int64
	if app != nil && app.Applied {
		switch app.Kind {
		case promo.KindFixed:
			discount = int64(app.Value)
			if discount > subtotal {
				discount = subtotal
			}
		case promo.KindPercentage:
			discount = int64(float64(subtotal) * app.Value / 100)
		}
	}

	return &Summary{
		Lines:          lines,
		Subtotal:       subtotal,
		Shipping:       quote,
		Promo:          app,
		Discount:       discount,
		EstimatedTotal: subtotal + quote.Cost - discount,
	}
}

// SubmitPayment runs the manual card path. Completion flags are required
// unless a saved payment method is selected, in which case they are skipped.
func (o *Orchestrator) SubmitPayment(ctx context.Context, form ManualPaymentForm) (*Receipt, error) {
	if err := o.requireState("payment submission", StatePayment); err != nil {
		return nil, err
	}

	if form.SavedPaymentMethodID == "" {
		if !form.NumberComplete {
			return nil, &ValidationError{Field: "card_number", Message: "card number is incomplete"}
		}
		if !form.ExpiryComplete {
			return nil, &ValidationError{Field: "card_expiry", Message: "expiration date is incomplete"}
		}
		if !form.CVCComplete {
			return nil, &ValidationError{Field: "card_cvc", Message: "security code is incomplete"}
		}
	}

	o.mu.Lock()
	email := o.contactEmail
	addr := o.shippingAddr
	o.mu.Unlock()

	return o.submit(ctx, submission{
		paymentMethodID: form.SavedPaymentMethodID,
		saveCard:        form.SaveCard,
		email:           email,
		shipping:        addr,
	})
}

// SubmitExpress runs the wallet path. Shipping and contact fields come from
// the wallet confirmation, not from form state, which may be empty here: the
// wallet button is available from the address step onward, so the address
// form may never have been submitted.
func (o *Orchestrator) SubmitExpress(ctx context.Context, wallet *payment.WalletConfirmation) (*Receipt, error) {
	if err := o.requireOneOf("express submission", StateShippingAddress, StatePayment); err != nil {
		return nil, err
	}
	if wallet == nil || wallet.PaymentMethodID == "" {
		return nil, &payment.TokenizationError{Reason: "wallet returned no payment method"}
	}

	return o.submit(ctx, submission{
		paymentMethodID: wallet.PaymentMethodID,
		email:           strings.ToLower(strings.TrimSpace(wallet.PayerEmail)),
		shipping: session.Address{
			ID:         uuid.New().String(),
			FirstName:  wallet.ShippingName,
			Street:     wallet.ShippingStreet,
			City:       wallet.ShippingCity,
			State:      wallet.ShippingState,
			PostalCode: wallet.ShippingZip,
		},
	})
}

type submission struct {
	paymentMethodID string
	saveCard        bool
	email           string
	shipping        session.Address
}

// submit runs the submission protocol. The ordering here is the core
// invariant of the subsystem; do not reorder steps.
func (o *Orchestrator) submit(ctx context.Context, sub submission) (*Receipt, error) {
	o.mu.Lock()
	if o.processing {
		o.mu.Unlock()
		return nil, ErrSubmissionInFlight
	}
	o.processing = true
	resume := o.state
	o.state = StateProcessing
	saveAddr := o.saveAddress
	sess := o.sess
	tier := o.sessionTier
	app := o.promoApp
	o.mu.Unlock()

	fail := func(err error) (*Receipt, error) {
		// Recoverable: back to the originating step with entered data intact.
		o.mu.Lock()
		o.processing = false
		o.state = resume
		o.mu.Unlock()
		return nil, err
	}

	items := o.ledger.Lines()
	promoCode := ""
	if app != nil && app.Applied {
		promoCode = app.Code
	}

	// 1. Persist the address if requested and not a duplicate. Pre-charge and
	// non-critical: a failure here must not stop the payment.
	if saveAddr && sess != nil {
		if sess.AddAddress(sub.shipping) {
			if err := o.sessions.Save(ctx, o.clientID, sess, tier); err != nil {
				o.logger.WithError(err).Warn("failed to persist session after address save")
			}
			if o.syncer != nil {
				if err := o.syncer.UpdateUserAddresses(ctx, sess.UserID, sess.Addresses); err != nil {
					o.logger.WithError(err).Warn("failed to sync addresses to account")
				}
			}
		}
	}

	// 2. Obtain a payment method token, or reuse the saved/wallet one.
	paymentIntentID := ""
	if sub.paymentMethodID == "" {
		intent, err := o.gateway.CreatePaymentIntent(ctx, items, promoCode)
		if err != nil {
			return fail(err)
		}
		paymentIntentID = intent.ID
	}

	// 3. Charge with the full current cart contents, never a client total.
	result, err := o.gateway.ProcessPayment(ctx, &payment.ChargeRequest{
		PaymentMethodID: sub.paymentMethodID,
		Items:           items,
		PromoCode:       promoCode,
		CustomerEmail:   sub.email,
		SaveCard:        sub.saveCard,
		PaymentIntentID: paymentIntentID,
	})
	if err != nil {
		return fail(err)
	}

	// 4. The charge succeeded. From here nothing is allowed to fail the flow.
	// The guard goes up before order persistence so the empty-cart redirect
	// cannot fire while bookkeeping runs.
	o.mu.Lock()
	o.orderComplete = true
	o.mu.Unlock()

	rec := o.buildOrder(sub, items, result, promoCode)

	// 5. Best-effort order record; the charge is not rolled back on failure.
	if err := o.orders.Create(ctx, rec); err != nil {
		o.logger.WithError(err).WithField("order_id", rec.ID).Error("order record write failed after successful charge")
	}

	// 6. Session bookkeeping for members, prefill stash for guests.
	if sess != nil {
		sess.AppendOrder(session.OrderRef{OrderID: rec.ID, Total: rec.Total, PlacedAt: rec.CreatedAt})
		if err := o.sessions.Save(ctx, o.clientID, sess, tier); err != nil {
			o.logger.WithError(err).Warn("failed to persist session after order")
		}
	} else {
		shippingCopy := sub.shipping
		o.sessions.SaveGuestStash(ctx, o.clientID, &session.GuestStash{
			Email:    sub.email,
			Shipping: &shippingCopy,
		})
	}

	// 7. Confirmation email and conversion analytics; neither blocks.
	if o.mailer != nil {
		if err := o.mailer.SendOrderConfirmation(ctx, sub.email, rec); err != nil {
			o.logger.WithError(err).Warn("confirmation email failed")
		}
	}
	if o.tracker != nil {
		if err := o.tracker.TrackPurchase(ctx, rec); err != nil {
			o.logger.WithError(err).Warn("conversion tracking failed")
		}
	}

	// 8. Clear the cart and the saved promo code.
	o.ledger.Clear(ctx)
	o.resolver.ClearSavedCode(ctx, o.clientID)

	o.mu.Lock()
	o.processing = false
	o.state = StateComplete
	o.mu.Unlock()

	return &Receipt{
		OrderID:       rec.ID,
		VerifiedTotal: result.VerifiedTotal,
		FraudSuspect:  result.IsFraudSuspect,
	}, nil
}

func (o *Orchestrator) buildOrder(sub submission, items []cart.Line, result *payment.ChargeResult, promoCode string) *order.Order {
	subtotal := int64(0)
	for _, line := range items {
		subtotal += line.LineTotal()
	}
	quote := shipping.Calculate(items, o.shippingCfg)

	status := order.StatusPlaced
	if result.IsFraudSuspect {
		status = order.StatusFraudReview
	}

	userID := ""
	o.mu.Lock()
	if o.sess != nil {
		userID = o.sess.UserID
	}
	o.mu.Unlock()

	lines := make([]order.Line, len(items))
	for i, item := range items {
		lines[i] = order.Line{
			LineID:    item.LineID,
			ProductID: item.ProductID,
			Name:      item.Name,
			Size:      item.Variant.Size,
			Color:     item.Variant.Color,
			UnitPrice: item.UnitPrice,
			Quantity:  item.Quantity,
		}
	}

	discount := subtotal + quote.Cost - result.VerifiedTotal
	if discount < 0 {
		discount = 0
	}

	return &order.Order{
		ID:              uuid.New().String(),
		UserID:          userID,
		Email:           sub.email,
		Status:          status,
		Subtotal:        subtotal,
		ShippingCost:    quote.Cost,
		Discount:        discount,
		Total:           result.VerifiedTotal,
		PromoCode:       promoCode,
		ChargeID:        result.ChargeID,
		PaymentIntentID: result.PaymentIntentID,
		FraudSuspect:    result.IsFraudSuspect,
		FraudScore:      result.FraudScore,
		ShippingName:    strings.TrimSpace(sub.shipping.FirstName + " " + sub.shipping.LastName),
		ShippingStreet:  sub.shipping.Street,
		ShippingCity:    sub.shipping.City,
		ShippingState:   sub.shipping.State,
		ShippingZip:     sub.shipping.PostalCode,
		CreatedAt:       time.Now().UTC(),
		Lines:           lines,
	}
}

func (o *Orchestrator) requireState(op string, want State) error {
	return o.requireOneOf(op, want)
}

func (o *Orchestrator) requireOneOf(op string, want ...State) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	for _, state := range want {
		if o.state == state {
			return nil
		}
	}
	if o.state == StateProcessing {
		return ErrSubmissionInFlight
	}
	return &InvalidStateError{Op: op, Current: o.state}
}
