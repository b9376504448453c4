// internal/domain/cart/ledger.go
package cart

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/your-org/storefront-core/internal/pkg/storage"
)

const persistedCartTTL = 24 * time.Hour

// DrawerNotifier receives the "cart drawer should open" signal after an add.
// The UI collaborator supplies a real implementation; the default is a no-op.
type DrawerNotifier interface {
	OpenDrawer()
}

type noopNotifier struct{}

func (noopNotifier) OpenDrawer() {}

// Ledger owns the in-memory line collection for one cart. The in-memory state
// is authoritative for the session; persistence is best-effort.
type Ledger struct {
	mu       sync.Mutex
	cartID   string
	lines    []Line
	store    storage.KV
	notifier DrawerNotifier
	logger   *logrus.Logger
}

// NewLedger creates a ledger persisting under the given cart ID
func NewLedger(cartID string, store storage.KV, logger *logrus.Logger) *Ledger {
	return &Ledger{
		cartID:   cartID,
		store:    store,
		notifier: noopNotifier{},
		logger:   logger,
	}
}

// SetNotifier installs the drawer-open collaborator
func (l *Ledger) SetNotifier(n DrawerNotifier) {
	if n != nil {
		l.notifier = n
	}
}

// persistedLine is the serialized form of a line. Heavy design-asset data is
// excluded so a large cart cannot blow the storage quota.
type persistedLine struct {
	LineID           string            `json:"line_id"`
	ProductID        string            `json:"product_id"`
	Name             string            `json:"name"`
	Variant          Variant           `json:"variant"`
	UnitPrice        int64             `json:"unit_price"`
	OriginalPrice    int64             `json:"original_price,omitempty"`
	Quantity         int               `json:"quantity"`
	ShippingTemplate *ShippingTemplate `json:"shipping_template,omitempty"`
}

// AddLine adds a product to the cart, merging into an existing line when the
// identity key (product, size, color) matches. Opens the cart drawer.
func (l *Ledger) AddLine(ctx context.Context, p Product, qty int, v Variant) (Line, error) {
	return l.addLine(ctx, p, qty, v, true)
}

// AddLineSilent is AddLine with the drawer-open notification suppressed
func (l *Ledger) AddLineSilent(ctx context.Context, p Product, qty int, v Variant) (Line, error) {
	return l.addLine(ctx, p, qty, v, false)
}

func (l *Ledger) addLine(ctx context.Context, p Product, qty int, v Variant, openDrawer bool) (Line, error) {
	if qty < 1 {
		return Line{}, fmt.Errorf("quantity must be at least 1")
	}
	if p.ID == "" {
		return Line{}, fmt.Errorf("product id is required")
	}

	l.mu.Lock()
	var line Line
	merged := false
	for i := range l.lines {
		if l.lines[i].SameIdentity(p.ID, v) {
			l.lines[i].Quantity += qty
			line = l.lines[i]
			merged = true
			break
		}
	}

	if !merged {
		line = Line{
			LineID:           uuid.New().String(),
			ProductID:        p.ID,
			Name:             p.Name,
			Variant:          v,
			UnitPrice:        p.UnitPrice,
			OriginalPrice:    p.OriginalPrice,
			Quantity:         qty,
			DesignAsset:      p.DesignAsset,
			ShippingTemplate: p.ShippingTemplate,
		}
		l.lines = append(l.lines, line)
	}
	l.mu.Unlock()

	l.persist(ctx)

	if openDrawer {
		l.notifier.OpenDrawer()
	}
	return line, nil
}

// UpdateQuantity applies a delta to a line's quantity. A result of zero or
// below is silently ignored and the line keeps its previous quantity; removal
// only happens through RemoveLine.
func (l *Ledger) UpdateQuantity(ctx context.Context, lineID string, delta int) error {
	l.mu.Lock()
	found := false
	changed := false
	for i := range l.lines {
		if l.lines[i].LineID == lineID {
			found = true
			if next := l.lines[i].Quantity + delta; next > 0 {
				l.lines[i].Quantity = next
				changed = true
			}
			break
		}
	}
	l.mu.Unlock()

	if !found {
		return fmt.Errorf("line %s not found in cart", lineID)
	}
	if changed {
		l.persist(ctx)
	}
	return nil
}

// RemoveLine removes a line from the cart
func (l *Ledger) RemoveLine(ctx context.Context, lineID string) error {
	l.mu.Lock()
	found := false
	for i := range l.lines {
		if l.lines[i].LineID == lineID {
			l.lines = append(l.lines[:i], l.lines[i+1:]...)
			found = true
			break
		}
	}
	l.mu.Unlock()

	if !found {
		return fmt.Errorf("line %s not found in cart", lineID)
	}
	l.persist(ctx)
	return nil
}

// Clear removes all lines
func (l *Ledger) Clear(ctx context.Context) {
	l.mu.Lock()
	l.lines = nil
	l.mu.Unlock()

	if err := l.store.Del(ctx, l.cartKey()); err != nil {
		l.logger.WithError(err).WithField("cart_id", l.cartID).Warn("failed to clear persisted cart")
	}
}

// Subtotal returns the sum of unit price times quantity over all lines
func (l *Ledger) Subtotal() int64 {
	l.mu.Lock()
	defer l.mu.Unlock()

	var subtotal int64
	for _, line := range l.lines {
		subtotal += line.LineTotal()
	}
	return subtotal
}

// ItemCount returns the sum of all line quantities
func (l *Ledger) ItemCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	count := 0
	for _, line := range l.lines {
		count += line.Quantity
	}
	return count
}

// Lines returns a copy of the current lines
func (l *Ledger) Lines() []Line {
	l.mu.Lock()
	defer l.mu.Unlock()

	lines := make([]Line, len(l.lines))
	copy(lines, l.lines)
	return lines
}

// Restore reloads the persisted cart, replacing the in-memory lines. A missing
// or unreadable record leaves the ledger empty.
func (l *Ledger) Restore(ctx context.Context) {
	data, err := l.store.Get(ctx, l.cartKey())
	if err != nil {
		if err != storage.ErrNotFound {
			l.logger.WithError(err).WithField("cart_id", l.cartID).Warn("failed to load persisted cart")
		}
		return
	}

	var persisted []persistedLine
	if err := json.Unmarshal([]byte(data), &persisted); err != nil {
		l.logger.WithError(err).WithField("cart_id", l.cartID).Warn("corrupt persisted cart, starting empty")
		return
	}

	lines := make([]Line, len(persisted))
	for i, p := range persisted {
		lines[i] = Line{
			LineID:           p.LineID,
			ProductID:        p.ProductID,
			Name:             p.Name,
			Variant:          p.Variant,
			UnitPrice:        p.UnitPrice,
			OriginalPrice:    p.OriginalPrice,
			Quantity:         p.Quantity,
			ShippingTemplate: p.ShippingTemplate,
		}
	}

	l.mu.Lock()
	l.lines = lines
	l.mu.Unlock()
}

// persist writes the serialized cart. Failures are logged and absorbed; the
// in-memory ledger stays authoritative.
func (l *Ledger) persist(ctx context.Context) {
	l.mu.Lock()
	persisted := make([]persistedLine, len(l.lines))
	for i, line := range l.lines {
		persisted[i] = persistedLine{
			LineID:           line.LineID,
			ProductID:        line.ProductID,
			Name:             line.Name,
			Variant:          line.Variant,
			UnitPrice:        line.UnitPrice,
			OriginalPrice:    line.OriginalPrice,
			Quantity:         line.Quantity,
			ShippingTemplate: line.ShippingTemplate,
		}
	}
	l.mu.Unlock()

	data, err := json.Marshal(persisted)
	if err != nil {
		l.logger.WithError(err).WithField("cart_id", l.cartID).Warn("failed to serialize cart")
		return
	}

	if err := l.store.Set(ctx, l.cartKey(), string(data), persistedCartTTL); err != nil {
		l.logger.WithError(err).WithField("cart_id", l.cartID).Warn("failed to persist cart")
	}
}

func (l *Ledger) cartKey() string {
	return fmt.Sprintf("cart:%s", l.cartID)
}
