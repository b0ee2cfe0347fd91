package routes

import (
	"go-food-ordering/controllers"
	"go-food-ordering/middleware"
	"go-food-ordering/models"

	"github.com/gin-gonic/gin"
)

func ReviewRoutes(api *gin.RouterGroup, d Dependencies) {
	reviews := api.Group("/reviews")
	reviews.GET("/restaurant/:id", controllers.GetRestaurantReviews(d.Reviews))

	own := reviews.Group("/order", d.Authenticator.Authentication(), middleware.RequireRole(models.RoleCustomer))
	own.POST("/:orderId", controllers.CreateReview(d.Reviews))
	own.GET("/:orderId", controllers.GetOrderReview(d.Reviews))
}
