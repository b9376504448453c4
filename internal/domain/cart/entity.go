// internal/domain/cart/entity.go
package cart

// Variant identifies a product variation. Size and Color participate in the
// line identity key; an empty value is a valid identity component.
type Variant struct {
	Size  string `json:"size,omitempty"`
	Color string `json:"color,omitempty"`
}

// Product is the catalog snapshot the ledger needs to build a line. The
// catalog itself lives outside this service.
type Product struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	UnitPrice     int64  `json:"unit_price"` // cents
	OriginalPrice int64  `json:"original_price,omitempty"`
	// DesignAsset holds heavy artwork data attached to customized products.
	// It is never persisted with the cart (storage quota).
	DesignAsset string `json:"design_asset,omitempty"`
	// ShippingTemplate optionally overrides the global shipping rates.
	ShippingTemplate *ShippingTemplate `json:"shipping_template,omitempty"`
}

// ShippingTemplate is a per-product shipping rate override. Amounts in cents.
type ShippingTemplate struct {
	BaseRate           int64 `json:"base_rate"`
	AdditionalItemRate int64 `json:"additional_item_rate"`
}

// Line is a cart line item. Identity key = (ProductID, Size, Color); at most
// one line per identity exists at any time. LineID is generated once and
// never changes.
type Line struct {
	LineID           string            `json:"line_id"`
	ProductID        string            `json:"product_id"`
	Name             string            `json:"name"`
	Variant          Variant           `json:"variant"`
	UnitPrice        int64             `json:"unit_price"`
	OriginalPrice    int64             `json:"original_price,omitempty"`
	Quantity         int               `json:"quantity"`
	DesignAsset      string            `json:"-"`
	ShippingTemplate *ShippingTemplate `json:"shipping_template,omitempty"`
}

// SameIdentity reports whether the line merges with the given product/variant
func (l Line) SameIdentity(productID string, v Variant) bool {
	return l.ProductID == productID && l.Variant.Size == v.Size && l.Variant.Color == v.Color
}

// LineTotal returns unit price times quantity
func (l Line) LineTotal() int64 {
	return l.UnitPrice * int64(l.Quantity)
}
