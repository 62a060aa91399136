package services

import (
	"context"

	"checkout-service/models"

	"github.com/stripe/stripe-go/v80"
	"github.com/stripe/stripe-go/v80/checkout/session"
)

// StripeGateway is an alternative PaymentGateway backed by Stripe
// Checkout Sessions. Stripe hosts the checkout page and returns the
// URL the payment window navigates to, same contract as the default
// gateway.
type StripeGateway struct {
	successURL string
	cancelURL  string
	currency   string
}

func NewStripeGateway(secretKey, successURL, cancelURL, currency string) *StripeGateway {
	stripe.Key = secretKey
	return &StripeGateway{
		successURL: successURL,
		cancelURL:  cancelURL,
		currency:   currency,
	}
}

// PreparePayment creates a Checkout Session for the full order amount.
func (g *StripeGateway) PreparePayment(ctx context.Context, req models.PreparePaymentRequest) (string, error) {
	params := &stripe.CheckoutSessionParams{
		Mode:              stripe.String(string(stripe.CheckoutSessionModePayment)),
		ClientReferenceID: stripe.String(req.OrderID),
		SuccessURL:        stripe.String(g.successURL),
		CancelURL:         stripe.String(g.cancelURL),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency:   stripe.String(g.currency),
					UnitAmount: stripe.Int64(req.TotalAmount),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String(req.ItemName),
					},
				},
				Quantity: stripe.Int64(1),
			},
		},
	}
	params.Context = ctx

	sess, err := session.New(params)
	if err != nil {
		return "", err
	}
	return sess.URL, nil
}
