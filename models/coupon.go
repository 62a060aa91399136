package models

import "time"

// Coupon is a single-use fixed-amount discount scoped to specific
// products. DiscountAmount is in the smallest currency unit.
type Coupon struct {
	CouponID       string    `json:"coupon_id"`
	Name           string    `json:"name"`
	DiscountAmount int64     `json:"discount_amount"`
	ExpirationDate time.Time `json:"expiration_date"`
}

// SelectCouponRequest selects a coupon for the current checkout.
// A null coupon_id clears the selection.
type SelectCouponRequest struct {
	CouponID *string `json:"coupon_id"`
}
