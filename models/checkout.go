package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CheckoutState is the state of one checkout attempt as exposed to the
// presentation layer.
type CheckoutState string

const (
	CheckoutLoadingOrder CheckoutState = "LOADING_ORDER"
	CheckoutReady        CheckoutState = "READY"
	CheckoutPaying       CheckoutState = "PAYING"
	CheckoutDone         CheckoutState = "DONE"
	CheckoutError        CheckoutState = "ERROR"
)

// CheckoutView is the read model for a checkout attempt. UserID is the
// owner; persisted views are only served back to that user.
type CheckoutView struct {
	CheckoutID string          `json:"checkout_id"`
	UserID     string          `json:"user_id,omitempty"`
	State      CheckoutState   `json:"state"`
	OrderID    string          `json:"order_id,omitempty"`
	Items      []OrderLineItem `json:"items,omitempty"`
	Coupons    []Coupon        `json:"coupons,omitempty"`
	Coupon     *Coupon         `json:"coupon,omitempty"`
	Price      PriceBreakdown  `json:"price"`
	// RedirectURL is set while the attempt is PAYING.
	RedirectURL string `json:"redirect_url,omitempty"`
	// Message is a transient, user-visible error. The draft stays
	// intact so the user can retry.
	Message string `json:"message,omitempty"`
	// CartCount is the refreshed cart badge count, present on DONE
	// when the best-effort refresh succeeded.
	CartCount *int `json:"cart_count,omitempty"`
}

// CheckoutCompletedEvent is published (best-effort) when an attempt
// reaches DONE.
type CheckoutCompletedEvent struct {
	EventType  string    `json:"event_type"`
	CheckoutID string    `json:"checkout_id"`
	UserID     string    `json:"user_id"`
	OrderID    string    `json:"order_id"`
	CouponID   string    `json:"coupon_id,omitempty"`
	Total      int64     `json:"total"`
	Timestamp  time.Time `json:"timestamp"`
}

// CheckoutAttempt is the audit row persisted in Postgres for every
// checkout attempt and its terminal outcome.
type CheckoutAttempt struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey"`
	UserID      string    `gorm:"type:varchar(64);index;not null"`
	OrderID     string    `gorm:"type:varchar(64);index;not null"`
	Status      string    `gorm:"type:varchar(32);not null"`
	Subtotal    int64     `gorm:"not null"`
	Discount    int64     `gorm:"not null"`
	Total       int64     `gorm:"not null"`
	CouponID    *string   `gorm:"type:varchar(64)"`
	CheckoutURL *string   `gorm:"type:varchar(1024)"`
	CompletedAt *time.Time
	CreatedAt   time.Time      `gorm:"autoCreateTime"`
	UpdatedAt   time.Time      `gorm:"autoUpdateTime"`
	DeletedAt   gorm.DeletedAt `gorm:"index"`
}
