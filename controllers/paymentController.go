package controllers

import (
	"net/http"

	"go-food-ordering/services"

	"github.com/gin-gonic/gin"
)

func CreatePaymentOrder(payments *services.PaymentService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req services.CheckoutRequest
		if !bindAndValidate(c, &req) {
			return
		}
		intent, err := payments.CreateOrder(c.Request.Context(), principal(c), req)
		if err != nil {
			abort(c, err)
			return
		}
		c.JSON(http.StatusOK, intent)
	}
}

// VerifyPayment places the order once the gateway signature checks out.
func VerifyPayment(payments *services.PaymentService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req services.VerifyPaymentRequest
		if !bindAndValidate(c, &req) {
			return
		}
		order, err := payments.VerifyAndPlace(c.Request.Context(), principal(c), req)
		if err != nil {
			abort(c, err)
			return
		}
		c.JSON(http.StatusCreated, order)
	}
}
