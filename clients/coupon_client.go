package clients

import (
	"context"
	"net/http"
	"time"

	"checkout-service/models"
)

// CouponClient talks to the coupon service.
type CouponClient struct {
	httpClient
}

func NewCouponClient(baseURL string, timeout time.Duration) *CouponClient {
	return &CouponClient{newHTTPClient("coupon-service", baseURL, timeout)}
}

// EligibleCoupons returns the coupons applicable to the given product
// set. An empty slice is a valid answer, not an error.
func (c *CouponClient) EligibleCoupons(ctx context.Context, productIDs []string) ([]models.Coupon, error) {
	var coupons []models.Coupon
	if err := c.doJSON(ctx, http.MethodPost, "/coupon/possible-order", productIDs, &coupons); err != nil {
		return nil, err
	}
	return coupons, nil
}
