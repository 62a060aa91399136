package controllers

import (
	"net/http"

	"checkout-service/middleware"
	"checkout-service/models"
	"checkout-service/services"

	"github.com/gin-gonic/gin"
)

// CheckoutController handles HTTP requests for the checkout flow.
type CheckoutController struct {
	checkoutService services.CheckoutService
}

func NewCheckoutController(checkoutService services.CheckoutService) *CheckoutController {
	return &CheckoutController{checkoutService: checkoutService}
}

// StartCheckout handles POST /checkout.
func (cc *CheckoutController) StartCheckout(c *gin.Context) {
	var req models.StartCheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}

	view, svcErr := cc.checkoutService.Start(c.Request.Context(), middleware.GetUserID(c), &req)
	if svcErr != nil {
		c.JSON(svcErr.StatusCode, gin.H{"error": svcErr.Message})
		return
	}
	c.JSON(http.StatusCreated, view)
}

// GetCheckout handles GET /checkout/:id.
func (cc *CheckoutController) GetCheckout(c *gin.Context) {
	view, svcErr := cc.checkoutService.Get(c.Request.Context(), middleware.GetUserID(c), c.Param("id"))
	if svcErr != nil {
		c.JSON(svcErr.StatusCode, gin.H{"error": svcErr.Message})
		return
	}
	c.JSON(http.StatusOK, view)
}

// LoadCoupons handles POST /checkout/:id/coupons.
func (cc *CheckoutController) LoadCoupons(c *gin.Context) {
	view, svcErr := cc.checkoutService.LoadCoupons(c.Request.Context(), middleware.GetUserID(c), c.Param("id"))
	if svcErr != nil {
		c.JSON(svcErr.StatusCode, gin.H{"error": svcErr.Message})
		return
	}
	c.JSON(http.StatusOK, view)
}

// SelectCoupon handles PUT /checkout/:id/coupon. A null coupon_id
// clears the selection.
func (cc *CheckoutController) SelectCoupon(c *gin.Context) {
	var req models.SelectCouponRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}

	view, svcErr := cc.checkoutService.SelectCoupon(c.Request.Context(), middleware.GetUserID(c), c.Param("id"), req.CouponID)
	if svcErr != nil {
		c.JSON(svcErr.StatusCode, gin.H{"error": svcErr.Message})
		return
	}
	c.JSON(http.StatusOK, view)
}

// Pay handles POST /checkout/:id/pay.
func (cc *CheckoutController) Pay(c *gin.Context) {
	view, svcErr := cc.checkoutService.Pay(c.Request.Context(), middleware.GetUserID(c), c.Param("id"))
	if svcErr != nil {
		c.JSON(svcErr.StatusCode, gin.H{"error": svcErr.Message})
		return
	}
	c.JSON(http.StatusOK, view)
}

// CompletePayment handles POST /checkout/:id/payment/complete. The
// payment success page posts the completion token here; there is no
// user session on that request, the token and attempt id carry it.
func (cc *CheckoutController) CompletePayment(c *gin.Context) {
	var req models.CompletePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	if svcErr := cc.checkoutService.CompletePayment(c.Request.Context(), c.Param("id"), req.Token); svcErr != nil {
		c.JSON(svcErr.StatusCode, gin.H{"error": svcErr.Message})
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"status": "received"})
}

// PaymentWindowClosed handles POST /checkout/:id/payment/closed.
func (cc *CheckoutController) PaymentWindowClosed(c *gin.Context) {
	if svcErr := cc.checkoutService.ReportWindowClosed(c.Request.Context(), c.Param("id")); svcErr != nil {
		c.JSON(svcErr.StatusCode, gin.H{"error": svcErr.Message})
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"status": "received"})
}

// Health handles GET /health.
func (cc *CheckoutController) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
