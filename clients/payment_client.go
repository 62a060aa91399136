package clients

import (
	"context"
	"net/http"
	"time"

	"checkout-service/models"
)

// PaymentClient talks to the payment gateway's session endpoint. It is
// the primary services.PaymentGateway implementation.
type PaymentClient struct {
	httpClient
}

func NewPaymentClient(baseURL string, timeout time.Duration) *PaymentClient {
	return &PaymentClient{newHTTPClient("payment-gateway", baseURL, timeout)}
}

// PreparePayment exchanges the order summary for a hosted checkout URL.
func (c *PaymentClient) PreparePayment(ctx context.Context, req models.PreparePaymentRequest) (string, error) {
	var ready models.PaymentReadyResponse
	if err := c.doJSON(ctx, http.MethodPost, "/payment/ready", req, &ready); err != nil {
		return "", err
	}
	return ready.RedirectURL, nil
}
