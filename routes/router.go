package routes

import (
	"net/http"
	"time"

	"go-food-ordering/controllers"
	"go-food-ordering/logger"
	"go-food-ordering/middleware"
	"go-food-ordering/realtime"
	"go-food-ordering/services"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

type Dependencies struct {
	Log            *logger.Logger
	Debug          bool
	CorsOrigins    []string
	RequestTimeout time.Duration

	Authenticator *middleware.Authenticator
	Sessions      controllers.SessionIssuer
	Hub           *realtime.Hub

	Auth        *services.AuthService
	Orders      *services.OrderService
	Restaurants *services.RestaurantService
	Reviews     *services.ReviewService
	Payments    *services.PaymentService
}

// NewRouter builds the engine. /ws sits outside the request timeout since
// the socket outlives the upgrade request.
func NewRouter(d Dependencies) *gin.Engine {
	router := gin.New()
	router.Use(middleware.RequestLogger(d.Log))
	router.Use(middleware.Recovery(d.Log, d.Debug))
	router.Use(middleware.ErrorHandler(d.Debug))

	router.Use(cors.New(cors.Config{
		AllowOrigins:     d.CorsOrigins,
		AllowMethods:     []string{"POST", "GET", "PATCH", "DELETE", "PUT", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", middleware.RequestIDHeader},
		ExposeHeaders:    []string{"Content-Length", middleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"message": "Page not found"})
	})

	router.GET("/health", controllers.Health())
	router.GET("/ws", d.Authenticator.OptionalAuthentication(), controllers.HandleWebSocket(d.Hub))

	api := router.Group("/api")
	if d.RequestTimeout > 0 {
		api.Use(middleware.RequestTimeout(d.RequestTimeout))
	}

	UserRoutes(api, d)
	RestaurantRoutes(api, d)
	OrderRoutes(api, d)
	ReviewRoutes(api, d)
	AdminRoutes(api, d)
	return router
}
