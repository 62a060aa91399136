package controllers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"checkout-service/controllers"
	"checkout-service/middleware"
	"checkout-service/models"
	"checkout-service/routes"
	"checkout-service/services"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// --- Mock CheckoutService ---

type mockCheckoutService struct {
	startFn        func(ctx context.Context, userID string, req *models.StartCheckoutRequest) (*models.CheckoutView, *services.ServiceError)
	getFn          func(ctx context.Context, userID, checkoutID string) (*models.CheckoutView, *services.ServiceError)
	loadCouponsFn  func(ctx context.Context, userID, checkoutID string) (*models.CheckoutView, *services.ServiceError)
	selectCouponFn func(ctx context.Context, userID, checkoutID string, couponID *string) (*models.CheckoutView, *services.ServiceError)
	payFn          func(ctx context.Context, userID, checkoutID string) (*models.CheckoutView, *services.ServiceError)
	completeFn     func(ctx context.Context, checkoutID, token string) *services.ServiceError
	closedFn       func(ctx context.Context, checkoutID string) *services.ServiceError
}

func (m *mockCheckoutService) Start(ctx context.Context, userID string, req *models.StartCheckoutRequest) (*models.CheckoutView, *services.ServiceError) {
	return m.startFn(ctx, userID, req)
}
func (m *mockCheckoutService) Get(ctx context.Context, userID, checkoutID string) (*models.CheckoutView, *services.ServiceError) {
	return m.getFn(ctx, userID, checkoutID)
}
func (m *mockCheckoutService) LoadCoupons(ctx context.Context, userID, checkoutID string) (*models.CheckoutView, *services.ServiceError) {
	return m.loadCouponsFn(ctx, userID, checkoutID)
}
func (m *mockCheckoutService) SelectCoupon(ctx context.Context, userID, checkoutID string, couponID *string) (*models.CheckoutView, *services.ServiceError) {
	return m.selectCouponFn(ctx, userID, checkoutID, couponID)
}
func (m *mockCheckoutService) Pay(ctx context.Context, userID, checkoutID string) (*models.CheckoutView, *services.ServiceError) {
	return m.payFn(ctx, userID, checkoutID)
}
func (m *mockCheckoutService) CompletePayment(ctx context.Context, checkoutID, token string) *services.ServiceError {
	return m.completeFn(ctx, checkoutID, token)
}
func (m *mockCheckoutService) ReportWindowClosed(ctx context.Context, checkoutID string) *services.ServiceError {
	return m.closedFn(ctx, checkoutID)
}

// --- Helpers ---

func setupRouter(svc services.CheckoutService) *gin.Engine {
	r := gin.New()
	cc := controllers.NewCheckoutController(svc)
	routes.RegisterCheckoutRoutes(r, cc)
	return r
}

func readyView(id string) *models.CheckoutView {
	return &models.CheckoutView{
		CheckoutID: id,
		State:      models.CheckoutReady,
		OrderID:    "order-1",
		Items: []models.OrderLineItem{
			{ProductID: "p1", ProductName: "Runner Sneakers", UnitPrice: 199000, Quantity: 2},
		},
		Price: models.PriceBreakdown{Subtotal: 398000, Total: 398000},
	}
}

func doJSON(r *gin.Engine, method, path string, payload interface{}, userID string) *httptest.ResponseRecorder {
	var body *bytes.Buffer
	if payload != nil {
		data, _ := json.Marshal(payload)
		body = bytes.NewBuffer(data)
	} else {
		body = bytes.NewBuffer(nil)
	}
	req, _ := http.NewRequest(method, path, body)
	req.Header.Set("Content-Type", "application/json")
	if userID != "" {
		req.Header.Set("X-User-ID", userID)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// --- Tests ---

func TestController_StartCheckout_Success(t *testing.T) {
	svc := &mockCheckoutService{
		startFn: func(_ context.Context, userID string, _ *models.StartCheckoutRequest) (*models.CheckoutView, *services.ServiceError) {
			assert.Equal(t, "user-1", userID)
			return readyView("chk-1"), nil
		},
	}
	r := setupRouter(svc)

	payload := models.StartCheckoutRequest{
		Items: []models.OrderLineItem{{ProductID: "p1", ProductName: "Runner Sneakers", UnitPrice: 199000, Quantity: 2}},
	}
	w := doJSON(r, http.MethodPost, "/checkout", payload, "user-1")

	assert.Equal(t, http.StatusCreated, w.Code)
	var view models.CheckoutView
	_ = json.Unmarshal(w.Body.Bytes(), &view)
	assert.Equal(t, "chk-1", view.CheckoutID)
	assert.Equal(t, models.CheckoutReady, view.State)
}

func TestController_StartCheckout_Unauthorized(t *testing.T) {
	svc := &mockCheckoutService{}
	r := setupRouter(svc)

	w := doJSON(r, http.MethodPost, "/checkout", models.StartCheckoutRequest{}, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestController_StartCheckout_ServiceError(t *testing.T) {
	svc := &mockCheckoutService{
		startFn: func(_ context.Context, _ string, _ *models.StartCheckoutRequest) (*models.CheckoutView, *services.ServiceError) {
			return nil, &services.ServiceError{StatusCode: 502, Message: "Failed to create pending order"}
		},
	}
	r := setupRouter(svc)

	w := doJSON(r, http.MethodPost, "/checkout", models.StartCheckoutRequest{}, "user-1")
	assert.Equal(t, http.StatusBadGateway, w.Code)

	var resp map[string]interface{}
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	assert.Equal(t, "Failed to create pending order", resp["error"])
}

func TestController_GetCheckout_NotFound(t *testing.T) {
	svc := &mockCheckoutService{
		getFn: func(_ context.Context, _, _ string) (*models.CheckoutView, *services.ServiceError) {
			return nil, &services.ServiceError{StatusCode: 404, Message: "Checkout not found"}
		},
	}
	r := setupRouter(svc)

	w := doJSON(r, http.MethodGet, "/checkout/ghost", nil, "user-1")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestController_SelectCoupon_PassesNullThrough(t *testing.T) {
	var gotCouponID *string
	called := false
	svc := &mockCheckoutService{
		selectCouponFn: func(_ context.Context, _, checkoutID string, couponID *string) (*models.CheckoutView, *services.ServiceError) {
			called = true
			gotCouponID = couponID
			assert.Equal(t, "chk-1", checkoutID)
			return readyView("chk-1"), nil
		},
	}
	r := setupRouter(svc)

	w := doJSON(r, http.MethodPut, "/checkout/chk-1/coupon", map[string]interface{}{"coupon_id": nil}, "user-1")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, called)
	assert.Nil(t, gotCouponID, "Null coupon_id clears the selection")
}

func TestController_SelectCoupon_ForwardsID(t *testing.T) {
	svc := &mockCheckoutService{
		selectCouponFn: func(_ context.Context, _, _ string, couponID *string) (*models.CheckoutView, *services.ServiceError) {
			assert.NotNil(t, couponID)
			assert.Equal(t, "c-small", *couponID)
			return readyView("chk-1"), nil
		},
	}
	r := setupRouter(svc)

	w := doJSON(r, http.MethodPut, "/checkout/chk-1/coupon", models.SelectCouponRequest{CouponID: strPtr("c-small")}, "user-1")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestController_Pay_Conflict(t *testing.T) {
	svc := &mockCheckoutService{
		payFn: func(_ context.Context, _, _ string) (*models.CheckoutView, *services.ServiceError) {
			return nil, &services.ServiceError{StatusCode: 409, Message: "Payment already in progress"}
		},
	}
	r := setupRouter(svc)

	w := doJSON(r, http.MethodPost, "/checkout/chk-1/pay", nil, "user-1")
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestController_CompletePayment_NoAuthRequired(t *testing.T) {
	svc := &mockCheckoutService{
		completeFn: func(_ context.Context, checkoutID, token string) *services.ServiceError {
			assert.Equal(t, "chk-1", checkoutID)
			assert.Equal(t, models.PaymentSuccessToken, token)
			return nil
		},
	}
	r := setupRouter(svc)

	// The success page posts back without a user session.
	w := doJSON(r, http.MethodPost, "/checkout/chk-1/payment/complete", models.CompletePaymentRequest{Token: models.PaymentSuccessToken}, "")
	assert.Equal(t, http.StatusAccepted, w.Code)
}

func TestController_CompletePayment_MissingToken(t *testing.T) {
	svc := &mockCheckoutService{}
	r := setupRouter(svc)

	w := doJSON(r, http.MethodPost, "/checkout/chk-1/payment/complete", map[string]interface{}{}, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestController_PaymentWindowClosed(t *testing.T) {
	called := false
	svc := &mockCheckoutService{
		closedFn: func(_ context.Context, checkoutID string) *services.ServiceError {
			called = true
			assert.Equal(t, "chk-1", checkoutID)
			return nil
		},
	}
	r := setupRouter(svc)

	w := doJSON(r, http.MethodPost, "/checkout/chk-1/payment/closed", nil, "")
	assert.Equal(t, http.StatusAccepted, w.Code)
	assert.True(t, called)
}

func TestController_Health(t *testing.T) {
	svc := &mockCheckoutService{}
	r := setupRouter(svc)

	w := doJSON(r, http.MethodGet, "/health", nil, "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAuthMiddleware_SetsUserID(t *testing.T) {
	r := gin.New()
	r.Use(middleware.AuthMiddleware())
	r.GET("/whoami", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user_id": middleware.GetUserID(c)})
	})

	req, _ := http.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("X-User-ID", "user-42")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp map[string]string
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	assert.Equal(t, "user-42", resp["user_id"])
}

func strPtr(s string) *string { return &s }
