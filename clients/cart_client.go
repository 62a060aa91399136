package clients

import (
	"context"
	"net/http"
	"time"
)

// CartClient talks to the cart service. Only the count endpoint is
// consumed here, best-effort after payment completion.
type CartClient struct {
	httpClient
}

func NewCartClient(baseURL string, timeout time.Duration) *CartClient {
	return &CartClient{newHTTPClient("cart-service", baseURL, timeout)}
}

// Count returns the number of items currently in the user's cart.
func (c *CartClient) Count(ctx context.Context) (int, error) {
	var count int
	if err := c.doJSON(ctx, http.MethodGet, "/carts/count", nil, &count); err != nil {
		return 0, err
	}
	return count, nil
}
