package models_test

import (
	"testing"
	"time"

	"checkout-service/models"

	"github.com/stretchr/testify/assert"
)

func sampleItems() []models.OrderLineItem {
	return []models.OrderLineItem{
		{ProductID: "p1", ProductName: "Runner Sneakers", BrandName: "Stride", UnitPrice: 199000, Quantity: 2},
		{ProductID: "p2", ProductName: "Canvas Tote", BrandName: "Carry", UnitPrice: 129000, Quantity: 1},
	}
}

func coupon(id string, discount int64) *models.Coupon {
	return &models.Coupon{
		CouponID:       id,
		Name:           "Test coupon",
		DiscountAmount: discount,
		ExpirationDate: time.Now().Add(24 * time.Hour),
	}
}

func TestComputePrice_NoCoupon(t *testing.T) {
	price := models.ComputePrice(sampleItems(), nil)

	assert.Equal(t, int64(527000), price.Subtotal)
	assert.Equal(t, int64(0), price.Discount)
	assert.Equal(t, int64(527000), price.Total)
}

func TestComputePrice_WithCoupon(t *testing.T) {
	price := models.ComputePrice(sampleItems(), coupon("c1", 10000))

	assert.Equal(t, int64(527000), price.Subtotal)
	assert.Equal(t, int64(10000), price.Discount)
	assert.Equal(t, int64(517000), price.Total)
}

func TestComputePrice_DiscountCappedAtSubtotal(t *testing.T) {
	price := models.ComputePrice(sampleItems(), coupon("c1", 600000))

	assert.Equal(t, int64(527000), price.Subtotal)
	assert.Equal(t, int64(527000), price.Discount, "Discount capped at subtotal")
	assert.Equal(t, int64(0), price.Total, "Total never goes negative")
}

func TestComputePrice_NegativeDiscountIgnored(t *testing.T) {
	price := models.ComputePrice(sampleItems(), coupon("c1", -500))

	assert.Equal(t, int64(0), price.Discount)
	assert.Equal(t, int64(527000), price.Total)
}

func TestComputePrice_EmptyItems(t *testing.T) {
	price := models.ComputePrice(nil, coupon("c1", 10000))

	assert.Equal(t, int64(0), price.Subtotal)
	assert.Equal(t, int64(0), price.Discount)
	assert.Equal(t, int64(0), price.Total)
}

func TestProductIDs(t *testing.T) {
	draft := &models.OrderDraft{OrderID: "o1", Items: sampleItems()}
	assert.Equal(t, []string{"p1", "p2"}, draft.ProductIDs())
}
