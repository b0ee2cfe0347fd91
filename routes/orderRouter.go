package routes

import (
	"go-food-ordering/controllers"
	"go-food-ordering/middleware"
	"go-food-ordering/models"

	"github.com/gin-gonic/gin"
)

func OrderRoutes(api *gin.RouterGroup, d Dependencies) {
	customer := api.Group("", d.Authenticator.Authentication(), middleware.RequireRole(models.RoleCustomer))

	customer.POST("/orders", controllers.CreateOrder(d.Orders))
	customer.GET("/orders", controllers.GetOrders(d.Orders))
	customer.GET("/orders/:id", controllers.GetOrder(d.Orders))
	customer.PUT("/orders/:id/cancel", controllers.CancelOrder(d.Orders))

	customer.POST("/payment/create-order", controllers.CreatePaymentOrder(d.Payments))
	customer.POST("/payment/verify-payment", controllers.VerifyPayment(d.Payments))
}
