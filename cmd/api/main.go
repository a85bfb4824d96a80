package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"slices"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"

	"github.com/flicky/go-marketplace/internal/config"
	"github.com/flicky/go-marketplace/internal/events"
	"github.com/flicky/go-marketplace/internal/handler"
	"github.com/flicky/go-marketplace/internal/logger"
	"github.com/flicky/go-marketplace/internal/middleware"
	"github.com/flicky/go-marketplace/internal/realtime"
	"github.com/flicky/go-marketplace/internal/repository"
	"github.com/flicky/go-marketplace/internal/service"
	"github.com/flicky/go-marketplace/internal/worker"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}
	log := logger.New(logger.Options{Service: "marketplace-api", Env: cfg.Log.Env, Level: cfg.Log.Level})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// PostgreSQL
	poolCfg, err := pgxpool.ParseConfig(cfg.DB.DSN())
	if err != nil {
		log.Error("parse db config", "error", err)
		os.Exit(1)
	}
	poolCfg.MaxConns = cfg.DB.MaxConns

	dbPool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		log.Error("connect to database", "error", err)
		os.Exit(1)
	}
	defer dbPool.Close()

	if err := dbPool.Ping(ctx); err != nil {
		log.Error("ping database", "error", err)
		os.Exit(1)
	}
	if err := repository.EnsureSchema(ctx, dbPool); err != nil {
		log.Error("apply schema", "error", err)
		os.Exit(1)
	}
	log.Info("connected to PostgreSQL")

	// Redis
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()

	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Error("connect to Redis", "error", err)
		os.Exit(1)
	}
	log.Info("connected to Redis")

	// RabbitMQ: one channel for publishing, one for the consumer.
	amqpConn, err := amqp.Dial(cfg.RabbitMQ.URL)
	if err != nil {
		log.Error("connect to RabbitMQ", "error", err)
		os.Exit(1)
	}
	defer amqpConn.Close()

	pubCh, err := amqpConn.Channel()
	if err != nil {
		log.Error("open RabbitMQ channel", "error", err)
		os.Exit(1)
	}
	defer pubCh.Close()

	if err := events.Setup(pubCh); err != nil {
		log.Error("setup RabbitMQ", "error", err)
		os.Exit(1)
	}

	consumeCh, err := amqpConn.Channel()
	if err != nil {
		log.Error("open RabbitMQ consumer channel", "error", err)
		os.Exit(1)
	}
	defer consumeCh.Close()
	log.Info("connected to RabbitMQ")

	// Repositories
	store := repository.NewStore(dbPool)
	userRepo := repository.NewUserRepository(dbPool)
	productRepo := repository.NewProductRepository(dbPool)
	orderRepo := repository.NewOrderRepository(dbPool)
	notificationRepo := repository.NewNotificationRepository(dbPool)
	wishlistRepo := repository.NewWishlistRepository(dbPool)
	feedbackRepo := repository.NewFeedbackRepository(dbPool)
	cartRepo := repository.NewCartRepository(redisClient, cfg.Cart.TTL)

	// Services
	publisher := events.NewPublisher(pubCh, log)
	authSvc := service.NewAuthService(userRepo, cfg.JWT.Secret, cfg.JWT.Expiration, log)
	productSvc := service.NewProductService(productRepo, userRepo, redisClient, cfg.Marketplace.ProductCacheTTL, log)
	cartSvc := service.NewCartService(cartRepo, productRepo, log)
	checkoutSvc := service.NewCheckoutService(store, cartSvc, cartRepo, publisher, cfg.Marketplace.Currency, log)
	notificationSvc := service.NewNotificationService(store, notificationRepo, log)
	orderSvc := service.NewOrderService(orderRepo, notificationRepo)
	wishlistSvc := service.NewWishlistService(wishlistRepo, productRepo)
	feedbackSvc := service.NewFeedbackService(feedbackRepo, log)
	adminSvc := service.NewAdminService(userRepo, orderRepo, feedbackRepo)

	if cfg.Admin.Enabled() {
		if _, err := authSvc.EnsureSuperAdmin(ctx, cfg.Admin.Email, cfg.Admin.Username, cfg.Admin.Password); err != nil {
			log.Error("seed superadmin", "error", err)
			os.Exit(1)
		}
	}

	// Live feed + worker
	hub := realtime.NewHub(log)
	orderWorker := worker.NewOrderEventWorker(consumeCh, redisClient, productSvc, hub, log)

	// Handlers
	handlers := handler.Handlers{
		Health: handler.NewHealthHandler(map[string]handler.Check{
			"postgres": dbPool.Ping,
			"redis":    func(ctx context.Context) error { return redisClient.Ping(ctx).Err() },
			"rabbitmq": func(context.Context) error {
				if amqpConn.IsClosed() {
					return errors.New("connection closed")
				}
				return nil
			},
		}),
		Auth:         handler.NewAuthHandler(authSvc),
		Product:      handler.NewProductHandler(productSvc, cartSvc),
		Cart:         handler.NewCartHandler(cartSvc, checkoutSvc),
		Order:        handler.NewOrderHandler(orderSvc),
		Notification: handler.NewNotificationHandler(notificationSvc, hub, originChecker(cfg.Server.AllowedOrigins)),
		Wishlist:     handler.NewWishlistHandler(wishlistSvc),
		Feedback:     handler.NewFeedbackHandler(feedbackSvc),
		Admin:        handler.NewAdminHandler(adminSvc),
	}

	// Router
	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestID(), middleware.Logger(log), cors.New(corsConfig(cfg.Server.AllowedOrigins)))
	handler.RegisterRoutes(router, handlers, authSvc)

	if err := orderWorker.Start(ctx); err != nil {
		log.Error("start order worker", "error", err)
		os.Exit(1)
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		log.Info("starting HTTP server", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server shutdown", "error", err)
	}

	orderWorker.Stop()
	time.Sleep(500 * time.Millisecond)
	cancel()
	log.Info("server stopped")
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", middleware.RequestIDHeader},
		ExposeHeaders:    []string{middleware.RequestIDHeader, "Content-Disposition"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}
	if len(origins) == 0 || slices.Contains(origins, "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	return cfg
}

// originChecker applies the CORS origin list to websocket upgrades.
func originChecker(origins []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return origin == "" || slices.Contains(origins, "*") || slices.Contains(origins, origin)
	}
}
