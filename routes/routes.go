package routes

import (
	"checkout-service/controllers"
	"checkout-service/middleware"

	"github.com/gin-gonic/gin"
)

func RegisterCheckoutRoutes(r *gin.Engine, cc *controllers.CheckoutController) {
	r.GET("/health", cc.Health)

	checkout := r.Group("/checkout")
	checkout.Use(middleware.AuthMiddleware())
	checkout.POST("", cc.StartCheckout)
	checkout.GET("/:id", cc.GetCheckout)
	checkout.POST("/:id/coupons", cc.LoadCoupons)
	checkout.PUT("/:id/coupon", cc.SelectCoupon)
	checkout.POST("/:id/pay", cc.Pay)

	// Signals from the hosted checkout pages carry no user session.
	r.POST("/checkout/:id/payment/complete", cc.CompletePayment)
	r.POST("/checkout/:id/payment/closed", cc.PaymentWindowClosed)
}
