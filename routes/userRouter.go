package routes

import (
	"go-food-ordering/controllers"

	"github.com/gin-gonic/gin"
)

func UserRoutes(api *gin.RouterGroup, d Dependencies) {
	auth := api.Group("/auth")
	auth.POST("/register", controllers.SignUp(d.Auth, d.Sessions))
	auth.POST("/login", controllers.Login(d.Auth, d.Sessions))

	session := auth.Group("", d.Authenticator.Authentication())
	session.POST("/logout", controllers.Logout(d.Authenticator, d.Sessions))
	session.GET("/me", controllers.GetCurrentUser(d.Auth))
	session.PUT("/password", controllers.ChangePassword(d.Auth))
}
