package clients_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"checkout-service/clients"
	"checkout-service/models"

	"github.com/stretchr/testify/assert"
)

func envelopeHandler(t *testing.T, wantMethod, wantPath string, status int, body string) http.HandlerFunc {
	t.Helper()
	return func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, wantMethod, r.Method)
		assert.Equal(t, wantPath, r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}
}

func TestOrderClient_CreatePendingOrder(t *testing.T) {
	srv := httptest.NewServer(envelopeHandler(t, http.MethodPost, "/order/pending", http.StatusOK,
		`{"is_success": true, "result": {"order_id": "order-9", "order_items": [
			{"product_id": "p1", "product_name": "Runner Sneakers", "product_price": 199000, "quantity": 2}
		]}, "message": ""}`))
	defer srv.Close()

	client := clients.NewOrderClient(srv.URL, 2*time.Second)
	draft, err := client.CreatePendingOrder(context.Background(), models.CreatePendingOrderRequest{
		TotalPrice: 398000,
		OrderItems: []models.OrderLineItem{{ProductID: "p1", ProductName: "Runner Sneakers", UnitPrice: 199000, Quantity: 2}},
	})

	assert.NoError(t, err)
	assert.Equal(t, "order-9", draft.OrderID)
	assert.Len(t, draft.Items, 1)
	assert.Equal(t, int64(199000), draft.Items[0].UnitPrice)
}

func TestOrderClient_CreatePendingOrder_EchoesItemsWhenResultOmitsThem(t *testing.T) {
	srv := httptest.NewServer(envelopeHandler(t, http.MethodPost, "/order/pending", http.StatusOK,
		`{"is_success": true, "result": {"order_id": "order-9"}, "message": ""}`))
	defer srv.Close()

	client := clients.NewOrderClient(srv.URL, 2*time.Second)
	items := []models.OrderLineItem{{ProductID: "p1", ProductName: "Runner Sneakers", UnitPrice: 199000, Quantity: 2}}
	draft, err := client.CreatePendingOrder(context.Background(), models.CreatePendingOrderRequest{TotalPrice: 398000, OrderItems: items})

	assert.NoError(t, err)
	assert.Equal(t, items, draft.Items)
}

func TestOrderClient_FailureEnvelope(t *testing.T) {
	srv := httptest.NewServer(envelopeHandler(t, http.MethodPost, "/order/pending", http.StatusOK,
		`{"is_success": false, "result": null, "message": "out of stock"}`))
	defer srv.Close()

	client := clients.NewOrderClient(srv.URL, 2*time.Second)
	_, err := client.CreatePendingOrder(context.Background(), models.CreatePendingOrderRequest{})

	var upstream *clients.UpstreamError
	assert.True(t, errors.As(err, &upstream))
	assert.Equal(t, "out of stock", upstream.Message)
}

func TestOrderClient_Non2xx(t *testing.T) {
	srv := httptest.NewServer(envelopeHandler(t, http.MethodGet, "/orders/order-9/pending", http.StatusServiceUnavailable,
		`{"is_success": false, "result": null, "message": "maintenance"}`))
	defer srv.Close()

	client := clients.NewOrderClient(srv.URL, 2*time.Second)
	_, err := client.GetPendingOrder(context.Background(), "order-9")

	var upstream *clients.UpstreamError
	assert.True(t, errors.As(err, &upstream))
	assert.Equal(t, http.StatusServiceUnavailable, upstream.StatusCode)
	assert.Equal(t, "maintenance", upstream.Message)
}

func TestCouponClient_EligibleCoupons(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/coupon/possible-order", r.URL.Path)
		var productIDs []string
		_ = json.NewDecoder(r.Body).Decode(&productIDs)
		assert.Equal(t, []string{"p1", "p2"}, productIDs)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"is_success": true, "result": [
			{"coupon_id": "c1", "name": "Welcome", "discount_amount": 10000, "expiration_date": "2026-12-31T00:00:00Z"}
		], "message": ""}`))
	}))
	defer srv.Close()

	client := clients.NewCouponClient(srv.URL, 2*time.Second)
	coupons, err := client.EligibleCoupons(context.Background(), []string{"p1", "p2"})

	assert.NoError(t, err)
	assert.Len(t, coupons, 1)
	assert.Equal(t, "c1", coupons[0].CouponID)
	assert.Equal(t, int64(10000), coupons[0].DiscountAmount)
}

func TestPaymentClient_PreparePayment(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/payment/ready", r.URL.Path)
		var req models.PreparePaymentRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		assert.Equal(t, int64(517000), req.TotalAmount)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"is_success": true, "result": {"redirect_url": "https://pay.example.com/s/1"}, "message": ""}`))
	}))
	defer srv.Close()

	client := clients.NewPaymentClient(srv.URL, 2*time.Second)
	url, err := client.PreparePayment(context.Background(), models.PreparePaymentRequest{
		OrderID:     "order-1",
		ItemName:    "Runner Sneakers and 1 more",
		Quantity:    3,
		TotalAmount: 517000,
	})

	assert.NoError(t, err)
	assert.Equal(t, "https://pay.example.com/s/1", url)
}

func TestCartClient_Count(t *testing.T) {
	srv := httptest.NewServer(envelopeHandler(t, http.MethodGet, "/carts/count", http.StatusOK,
		`{"is_success": true, "result": 4, "message": ""}`))
	defer srv.Close()

	client := clients.NewCartClient(srv.URL, 2*time.Second)
	count, err := client.Count(context.Background())

	assert.NoError(t, err)
	assert.Equal(t, 4, count)
}

func TestClient_ContextCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	client := clients.NewCartClient(srv.URL, 5*time.Second)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := client.Count(ctx)
	assert.Error(t, err)
}
