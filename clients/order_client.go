package clients

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"checkout-service/models"
)

// OrderClient talks to the order service.
type OrderClient struct {
	httpClient
}

func NewOrderClient(baseURL string, timeout time.Duration) *OrderClient {
	return &OrderClient{newHTTPClient("order-service", baseURL, timeout)}
}

// CreatePendingOrder creates a server-side pending order from line
// items and returns the allocated order id with the echoed items.
func (c *OrderClient) CreatePendingOrder(ctx context.Context, req models.CreatePendingOrderRequest) (*models.OrderDraft, error) {
	var draft models.OrderDraft
	if err := c.doJSON(ctx, http.MethodPost, "/order/pending", req, &draft); err != nil {
		return nil, err
	}
	if len(draft.Items) == 0 {
		draft.Items = req.OrderItems
	}
	return &draft, nil
}

// GetPendingOrder fetches an existing pending order by id.
func (c *OrderClient) GetPendingOrder(ctx context.Context, orderID string) (*models.OrderDraft, error) {
	var items []models.OrderLineItem
	path := fmt.Sprintf("/orders/%s/pending", orderID)
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &items); err != nil {
		return nil, err
	}
	return &models.OrderDraft{OrderID: orderID, Items: items}, nil
}
