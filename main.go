package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go-food-ordering/broker"
	"go-food-ordering/config"
	"go-food-ordering/controllers"
	"go-food-ordering/database"
	"go-food-ordering/helpers"
	"go-food-ordering/logger"
	"go-food-ordering/middleware"
	"go-food-ordering/realtime"
	"go-food-ordering/repository"
	"go-food-ordering/routes"
	"go-food-ordering/services"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"
)

const (
	sessionCacheSize = 4096
	shutdownTimeout  = 10 * time.Second
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	debug := !cfg.IsProduction()
	appLog := logger.NewLogger("food-ordering-api", logger.WithDebug(debug))
	if !debug {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client, err := database.Connect(ctx, cfg.MongoURI)
	if err != nil {
		return err
	}
	defer func() {
		if err := client.Disconnect(context.Background()); err != nil {
			appLog.Error("", "mongo_disconnect", "Error disconnecting MongoDB", err, nil)
		}
	}()
	db := client.Database(cfg.MongoDatabase)
	if err := database.EnsureIndexes(ctx, db); err != nil {
		return err
	}
	appLog.Info("", "mongo_connected", "Connected to MongoDB", map[string]interface{}{"database": cfg.MongoDatabase})

	users := repository.NewUserRepository(db.Collection(database.UserCollection))
	restaurants := repository.NewRestaurantRepository(db.Collection(database.RestaurantCollection))
	orders := repository.NewOrderRepository(db.Collection(database.OrderCollection))
	reviews := repository.NewReviewRepository(db.Collection(database.ReviewCollection), db.Collection(database.RestaurantCollection), cfg.MongoTransactions)

	hub := realtime.NewHub(nil, appLog)
	var notifier services.Notifier = hub
	var relay *broker.Relay
	if cfg.RabbitMQURL != "" {
		relay, err = broker.Dial(cfg.RabbitMQURL, hub, appLog)
		if err != nil {
			return err
		}
		notifier = relay
	}

	orderService := services.NewOrderService(orders, restaurants, notifier, cfg.StrictOrderTransitions, appLog)
	hub.SetAuthorizer(orderService)
	restaurantService := services.NewRestaurantService(restaurants, orders, users, notifier, appLog)
	reviewService := services.NewReviewService(reviews, orders, notifier, appLog)
	authService := services.NewAuthService(users, restaurants, appLog)

	var gateway services.PaymentGateway
	if cfg.RazorpayKeyID != "" && cfg.RazorpayKeySecret != "" {
		gateway = services.NewRazorpayClient(cfg.RazorpayKeyID, cfg.RazorpayKeySecret)
	}
	paymentService := services.NewPaymentService(gateway, orderService, cfg.RazorpayKeyID, cfg.RazorpayKeySecret, appLog)

	if cfg.SuperAdminEmail != "" {
		if err := authService.EnsureSuperAdmin(ctx, cfg.SuperAdminEmail, cfg.SuperAdminPassword); err != nil {
			return err
		}
	}

	tokens := helpers.NewTokenManager(cfg.SecretKey, cfg.SessionTTL)
	authenticator, err := middleware.NewAuthenticator(tokens, sessionCacheSize)
	if err != nil {
		return err
	}

	router := routes.NewRouter(routes.Dependencies{
		Log:            appLog,
		Debug:          debug,
		CorsOrigins:    cfg.CorsOrigins,
		RequestTimeout: cfg.RequestTimeout,
		Authenticator:  authenticator,
		Sessions:       controllers.SessionIssuer{Tokens: tokens, Secure: cfg.IsProduction()},
		Hub:            hub,
		Auth:           authService,
		Orders:         orderService,
		Restaurants:    restaurantService,
		Reviews:        reviewService,
		Payments:       paymentService,
	})

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		appLog.Info("", "server_start", "Listening", map[string]interface{}{"port": cfg.Port, "env": cfg.Env})
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		return hub.Run(gctx)
	})
	if relay != nil {
		g.Go(func() error {
			return relay.Run(gctx)
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		appLog.Info("", "server_shutdown", "Shutting down", nil)
		return server.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
