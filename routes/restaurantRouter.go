package routes

import (
	"go-food-ordering/controllers"

	"github.com/gin-gonic/gin"
)

func RestaurantRoutes(api *gin.RouterGroup, d Dependencies) {
	api.GET("/restaurants", controllers.GetRestaurants(d.Restaurants))
	api.GET("/restaurants/:id", controllers.GetRestaurant(d.Restaurants))
}
