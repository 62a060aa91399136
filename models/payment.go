package models

// PaymentSuccessToken is the one-shot completion signal the hosted
// checkout page delivers back to its opener. Any other message on the
// payment window channel is ignored.
const PaymentSuccessToken = "PAYMENT_SUCCESS"

// PreparePaymentRequest is the payload sent to the payment gateway to
// obtain a hosted checkout session.
type PreparePaymentRequest struct {
	OrderID     string `json:"order_id"`
	ItemName    string `json:"item_name"`
	Quantity    int    `json:"quantity"`
	TotalAmount int64  `json:"total_amount"`
}

// PaymentReadyResponse is the gateway's answer: a URL for the hosted
// checkout page the payment window navigates to.
type PaymentReadyResponse struct {
	RedirectURL string `json:"redirect_url"`
}

// CompletePaymentRequest carries the completion signal posted by the
// payment success page.
type CompletePaymentRequest struct {
	Token string `json:"token" binding:"required"`
}
