package routes

import (
	"go-food-ordering/controllers"
	"go-food-ordering/middleware"
	"go-food-ordering/models"

	"github.com/gin-gonic/gin"
)

// AdminRoutes mounts the restaurant-admin and superadmin surfaces. Restaurant
// status changes live under /admin but are superadmin only.
func AdminRoutes(api *gin.RouterGroup, d Dependencies) {
	authed := api.Group("", d.Authenticator.Authentication())

	admin := authed.Group("/admin")
	restaurantAdmin := middleware.RequireRole(models.RoleAdmin)
	admin.GET("/orders", restaurantAdmin, controllers.GetRestaurantOrders(d.Orders))
	admin.PUT("/orders/:id/status", restaurantAdmin, controllers.UpdateOrderStatus(d.Orders))

	admin.GET("/restaurant", restaurantAdmin, controllers.GetOwnRestaurant(d.Restaurants))
	admin.PUT("/restaurant", restaurantAdmin, controllers.UpdateOwnRestaurant(d.Restaurants))
	admin.PUT("/restaurant/open", restaurantAdmin, controllers.SetRestaurantOpen(d.Restaurants))
	admin.PUT("/restaurant/submit", restaurantAdmin, controllers.SubmitRestaurant(d.Restaurants))

	admin.POST("/menu", restaurantAdmin, controllers.CreateMenuItem(d.Restaurants))
	admin.POST("/menu/import", restaurantAdmin, controllers.ImportMenu(d.Restaurants))
	admin.PUT("/menu/:itemId", restaurantAdmin, controllers.UpdateMenuItem(d.Restaurants))
	admin.DELETE("/menu/:itemId", restaurantAdmin, controllers.DeleteMenuItem(d.Restaurants))

	superadmin := middleware.RequireRole(models.RoleSuperAdmin)
	admin.PUT("/restaurants/:id/status", superadmin, controllers.UpdateRestaurantStatus(d.Restaurants))

	platform := authed.Group("/superadmin", superadmin)
	platform.GET("/restaurants", controllers.ListRestaurantsByStatus(d.Restaurants))
	platform.GET("/stats", controllers.GetStats(d.Restaurants))
}
