package models

// OrderLineItem is a single line of a pending order as echoed by the
// order service. Prices are integers in the smallest currency unit.
type OrderLineItem struct {
	ProductID   string `json:"product_id"`
	ProductName string `json:"product_name"`
	BrandName   string `json:"brand_name"`
	UnitPrice   int64  `json:"product_price"`
	Quantity    int    `json:"quantity"`
	ImageURL    string `json:"product_url,omitempty"`
}

// OrderDraft is a server-side pending order. Items are immutable once
// checkout begins; changing quantities means going back to the cart.
type OrderDraft struct {
	OrderID string          `json:"order_id"`
	Items   []OrderLineItem `json:"order_items"`
}

// ProductIDs returns the product ids of the draft, in line-item order.
func (d *OrderDraft) ProductIDs() []string {
	ids := make([]string, 0, len(d.Items))
	for _, item := range d.Items {
		ids = append(ids, item.ProductID)
	}
	return ids
}

// CreatePendingOrderRequest is the payload sent to POST /order/pending.
type CreatePendingOrderRequest struct {
	TotalPrice int64           `json:"total_price"`
	OrderItems []OrderLineItem `json:"order_items"`
}

// StartCheckoutRequest starts a checkout attempt, either from cart line
// items or for a pending order that already exists.
type StartCheckoutRequest struct {
	OrderID string          `json:"order_id,omitempty"`
	Items   []OrderLineItem `json:"items,omitempty"`
}
