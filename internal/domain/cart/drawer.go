// internal/domain/cart/drawer.go
package cart

import (
	"context"
	"fmt"
	"time"

	"github.com/your-org/storefront-core/internal/pkg/storage"
)

// The hint is only useful on the next poll; let it lapse quickly.
const drawerSignalTTL = 5 * time.Minute

// DrawerSignal is a KV-backed DrawerNotifier. An add raises the open-drawer
// hint in shared storage; the storefront consumes it on its next cart fetch.
type DrawerSignal struct {
	store  storage.KV
	cartID string
}

// NewDrawerSignal creates the drawer signal for one cart
func NewDrawerSignal(store storage.KV, cartID string) *DrawerSignal {
	return &DrawerSignal{store: store, cartID: cartID}
}

// OpenDrawer raises the hint. Best-effort; a lost hint costs one animation.
func (d *DrawerSignal) OpenDrawer() {
	_ = d.store.Set(context.Background(), d.key(), "1", drawerSignalTTL)
}

// Consume reports whether the hint is raised and lowers it
func (d *DrawerSignal) Consume(ctx context.Context) bool {
	if _, err := d.store.Get(ctx, d.key()); err != nil {
		return false
	}
	_ = d.store.Del(ctx, d.key())
	return true
}

func (d *DrawerSignal) key() string {
	return fmt.Sprintf("drawer:open:%s", d.cartID)
}
