package models

// PriceBreakdown is the price summary shown alongside every checkout
// state. All amounts are integers in the smallest currency unit.
type PriceBreakdown struct {
	Subtotal int64 `json:"subtotal"`
	Discount int64 `json:"discount"`
	Total    int64 `json:"total"`
}

// ComputePrice computes the breakdown for a set of line items and an
// optional coupon. The discount never exceeds the subtotal, so the
// total is never negative. Pure and safe to call on every read.
func ComputePrice(items []OrderLineItem, coupon *Coupon) PriceBreakdown {
	var subtotal int64
	for _, item := range items {
		subtotal += item.UnitPrice * int64(item.Quantity)
	}

	var discount int64
	if coupon != nil {
		discount = coupon.DiscountAmount
		if discount > subtotal {
			discount = subtotal
		}
		if discount < 0 {
			discount = 0
		}
	}

	return PriceBreakdown{
		Subtotal: subtotal,
		Discount: discount,
		Total:    subtotal - discount,
	}
}
