package controllers

import (
	"net/http"

	"go-food-ordering/middleware"
	"go-food-ordering/models"
	"go-food-ordering/realtime"
	"go-food-ordering/services"

	"github.com/gin-gonic/gin"
)

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,min=6"`
}

func SignUp(auth *services.AuthService, sessions SessionIssuer) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req services.RegisterRequest
		if !bindAndValidate(c, &req) {
			return
		}
		user, err := auth.Register(c.Request.Context(), req)
		if err != nil {
			abort(c, err)
			return
		}
		token, err := sessions.set(c, user)
		if err != nil {
			abort(c, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{"user": user, "token": token})
	}
}

func Login(auth *services.AuthService, sessions SessionIssuer) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req loginRequest
		if !bindAndValidate(c, &req) {
			return
		}
		user, err := auth.Login(c.Request.Context(), req.Email, req.Password)
		if err != nil {
			abort(c, err)
			return
		}
		token, err := sessions.set(c, user)
		if err != nil {
			abort(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"user": user, "token": token})
	}
}

func Logout(authenticator *middleware.Authenticator, sessions SessionIssuer) gin.HandlerFunc {
	return func(c *gin.Context) {
		authenticator.Forget(middleware.SessionToken(c))
		sessions.clear(c)
		c.JSON(http.StatusOK, gin.H{"message": "logged out"})
	}
}

func GetCurrentUser(auth *services.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := auth.CurrentUser(c.Request.Context(), principal(c))
		if err != nil {
			abort(c, err)
			return
		}
		c.JSON(http.StatusOK, user)
	}
}

func ChangePassword(auth *services.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req changePasswordRequest
		if !bindAndValidate(c, &req) {
			return
		}
		if err := auth.ChangePassword(c.Request.Context(), principal(c), req.CurrentPassword, req.NewPassword); err != nil {
			abort(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "password updated"})
	}
}

// HandleWebSocket upgrades the connection. A session is optional; anonymous
// sockets only receive broadcasts.
func HandleWebSocket(hub *realtime.Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		var p *models.Principal
		if current, ok := middleware.CurrentPrincipal(c); ok {
			p = &current
		}
		hub.ServeWS(c.Writer, c.Request, p)
	}
}

func Health() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}
