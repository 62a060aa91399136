package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"checkout-service/clients"
	"checkout-service/config"
	"checkout-service/controllers"
	"checkout-service/database"
	"checkout-service/kafka"
	"checkout-service/models"
	aws_pkg "checkout-service/pkg/aws"
	"checkout-service/repository"
	"checkout-service/routes"
	"checkout-service/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		panic("failed to initialize logger: " + err.Error())
	}
	defer logger.Sync()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal("[CheckoutService] ❌ Failed to load config:", err)
	}

	// --- Database ---
	if err := database.Connect(cfg, logger, &models.CheckoutAttempt{}); err != nil {
		log.Fatal("[CheckoutService] ❌ Failed to connect to DB:", err)
	}
	defer database.Close()
	attemptRepo := repository.NewGormAttemptRepo(database.DB)

	// --- Redis ---
	redisClient, err := database.NewRedisClient(cfg.RedisURL)
	if err != nil {
		log.Fatal("[CheckoutService] ❌ Failed to connect to Redis:", err)
	}
	checkoutStore := repository.NewRedisCheckoutStore(redisClient, cfg.CheckoutTTL)

	// --- Kafka ---
	producer := kafka.NewProducer(strings.Split(cfg.KafkaBrokers, ","), cfg.KafkaTopic, logger)
	defer producer.Close()

	// --- SNS (optional, best-effort events) ---
	var snsClient aws_pkg.SNSPublisher
	if cfg.CheckoutSNSTopicARN != "" {
		awsCfg, err := aws_pkg.LoadAWSConfig(context.Background())
		if err != nil {
			logger.Warn("Failed to load AWS config, SNS disabled", zap.Error(err))
		} else {
			snsClient = aws_pkg.NewSNSClient(awsCfg)
		}
	}

	// --- Collaborator clients ---
	orderClient := clients.NewOrderClient(cfg.OrderServiceURL, cfg.RequestTimeout)
	couponClient := clients.NewCouponClient(cfg.CouponServiceURL, cfg.RequestTimeout)
	cartClient := clients.NewCartClient(cfg.CartServiceURL, cfg.RequestTimeout)

	var gateway services.PaymentGateway
	if cfg.PaymentGateway == "stripe" {
		gateway = services.NewStripeGateway(cfg.StripeSecretKey, cfg.StripeSuccessURL, cfg.StripeCancelURL, cfg.StripeCurrency)
	} else {
		gateway = clients.NewPaymentClient(cfg.PaymentGatewayURL, cfg.RequestTimeout)
	}

	checkoutService := services.NewCheckoutService(
		orderClient,
		couponClient,
		cartClient,
		gateway,
		nil,
		attemptRepo,
		checkoutStore,
		producer,
		snsClient,
		cfg.CheckoutSNSTopicARN,
		cfg.PaymentTimeout,
		logger,
	)

	// --- HTTP router ---
	r := gin.New()
	r.Use(gin.Recovery())

	// Structured HTTP request logging
	r.Use(func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		method := c.Request.Method
		c.Next()
		latency := time.Since(start)
		status := c.Writer.Status()
		fields := []zap.Field{
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", status),
			zap.Duration("latency", latency),
			zap.String("client_ip", c.ClientIP()),
			zap.Int("body_size", c.Writer.Size()),
		}
		switch {
		case status >= 500:
			logger.Error("http_request", fields...)
		case status >= 400:
			logger.Warn("http_request", fields...)
		default:
			logger.Info("http_request", fields...)
		}
	})

	cc := controllers.NewCheckoutController(checkoutService)
	routes.RegisterCheckoutRoutes(r, cc)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	go func() {
		log.Println("[CheckoutService] ✅ Running on port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("[CheckoutService] ❌ Server failed:", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down checkout service")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Forced shutdown", zap.Error(err))
	}
}
