// internal/domain/checkout/manager.go
package checkout

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"
	"github.com/your-org/storefront-core/internal/config"
	"github.com/your-org/storefront-core/internal/domain/cart"
	"github.com/your-org/storefront-core/internal/pkg/storage"
)

// Manager hands out one orchestrator and one cart ledger per storefront
// client. The same ledger instance backs both the cart endpoints and the
// checkout, so totals never diverge between the two.
type Manager struct {
	mu     sync.Mutex
	active map[string]*clientState

	cartStore   storage.KV
	deps        Deps
	shippingCfg config.ShippingConfig
	logger      *logrus.Logger
}

type clientState struct {
	ledger *cart.Ledger
	drawer *cart.DrawerSignal
	orch   *Orchestrator
}

// NewManager creates the per-client checkout manager. The Ledger field of
// deps is ignored; ledgers are created per client over cartStore.
func NewManager(cartStore storage.KV, deps Deps, shippingCfg config.ShippingConfig, logger *logrus.Logger) *Manager {
	return &Manager{
		active:      make(map[string]*clientState),
		cartStore:   cartStore,
		deps:        deps,
		shippingCfg: shippingCfg,
		logger:      logger,
	}
}

// Ledger returns the client's cart ledger, restoring persisted contents on
// first access.
func (m *Manager) Ledger(ctx context.Context, clientID string) *cart.Ledger {
	return m.state(ctx, clientID).ledger
}

// Orchestrator returns the client's checkout orchestrator
func (m *Manager) Orchestrator(ctx context.Context, clientID string) *Orchestrator {
	return m.state(ctx, clientID).orch
}

// Drawer returns the client's cart drawer signal
func (m *Manager) Drawer(ctx context.Context, clientID string) *cart.DrawerSignal {
	return m.state(ctx, clientID).drawer
}

// Release drops the client's in-memory state. Called after a completed
// checkout; the next access starts a fresh flow.
func (m *Manager) Release(clientID string) {
	m.mu.Lock()
	delete(m.active, clientID)
	m.mu.Unlock()
}

func (m *Manager) state(ctx context.Context, clientID string) *clientState {
	m.mu.Lock()
	if state, ok := m.active[clientID]; ok {
		m.mu.Unlock()
		return state
	}
	m.mu.Unlock()

	// Built outside the lock: Restore and Begin hit storage.
	ledger := cart.NewLedger(clientID, m.cartStore, m.logger)
	ledger.Restore(ctx)

	drawer := cart.NewDrawerSignal(m.cartStore, clientID)
	ledger.SetNotifier(drawer)

	deps := m.deps
	deps.Ledger = ledger
	orch := New(clientID, deps, m.shippingCfg, m.logger)
	orch.Begin(ctx)

	state := &clientState{ledger: ledger, drawer: drawer, orch: orch}

	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.active[clientID]; ok {
		// Lost the race; use the state another request built.
		return existing
	}
	m.active[clientID] = state
	return state
}
