package controllers

import (
	"net/http"

	"go-food-ordering/models"
	"go-food-ordering/services"

	"github.com/gin-gonic/gin"
)

type statusUpdateRequest struct {
	Status models.OrderStatus `json:"status" validate:"required"`
}

func CreateOrder(orders *services.OrderService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req services.CheckoutRequest
		if !bindAndValidate(c, &req) {
			return
		}
		order, err := orders.PlaceCashOrder(c.Request.Context(), principal(c), req)
		if err != nil {
			abort(c, err)
			return
		}
		c.JSON(http.StatusCreated, order)
	}
}

func GetOrders(orders *services.OrderService) gin.HandlerFunc {
	return func(c *gin.Context) {
		result, err := orders.CustomerOrders(c.Request.Context(), principal(c), pageFromQuery(c))
		if err != nil {
			abort(c, err)
			return
		}
		c.JSON(http.StatusOK, result)
	}
}

func GetOrder(orders *services.OrderService) gin.HandlerFunc {
	return func(c *gin.Context) {
		order, err := orders.CustomerOrder(c.Request.Context(), principal(c), c.Param("id"))
		if err != nil {
			abort(c, err)
			return
		}
		c.JSON(http.StatusOK, order)
	}
}

func CancelOrder(orders *services.OrderService) gin.HandlerFunc {
	return func(c *gin.Context) {
		order, err := orders.CancelByCustomer(c.Request.Context(), principal(c), c.Param("id"))
		if err != nil {
			abort(c, err)
			return
		}
		c.JSON(http.StatusOK, order)
	}
}

// GetRestaurantOrders lists the admin's orders; ?status= narrows the list.
func GetRestaurantOrders(orders *services.OrderService) gin.HandlerFunc {
	return func(c *gin.Context) {
		result, err := orders.RestaurantOrders(c.Request.Context(), principal(c), c.Query("status"), pageFromQuery(c))
		if err != nil {
			abort(c, err)
			return
		}
		c.JSON(http.StatusOK, result)
	}
}

func UpdateOrderStatus(orders *services.OrderService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req statusUpdateRequest
		if !bindAndValidate(c, &req) {
			return
		}
		order, err := orders.UpdateStatus(c.Request.Context(), c.Param("id"), req.Status, principal(c))
		if err != nil {
			abort(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "order status updated", "order": order})
	}
}
