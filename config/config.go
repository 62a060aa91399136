package config

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the checkout service.
type Config struct {
	Port string

	OrderServiceURL   string
	CouponServiceURL  string
	CartServiceURL    string
	PaymentGatewayURL string
	RequestTimeout    time.Duration

	// PaymentGateway selects the gateway implementation: "http"
	// (default) or "stripe".
	PaymentGateway   string
	StripeSecretKey  string
	StripeSuccessURL string
	StripeCancelURL  string
	StripeCurrency   string

	// PaymentTimeout bounds AWAITING_COMPLETION. Zero disables the
	// watchdog; abandonment is then detected only via the
	// window-closed report.
	PaymentTimeout time.Duration

	RedisURL    string
	CheckoutTTL time.Duration

	KafkaBrokers string
	KafkaTopic   string

	CheckoutSNSTopicARN string

	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresHost     string
	PostgresPort     string
	PostgresSSLMode  string
	PostgresTimeZone string
}

// LoadConfig reads configuration from the .env file and environment.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := &Config{
		Port:              getEnv("PORT", "8091"),
		OrderServiceURL:   os.Getenv("ORDER_SERVICE_URL"),
		CouponServiceURL:  os.Getenv("COUPON_SERVICE_URL"),
		CartServiceURL:    os.Getenv("CART_SERVICE_URL"),
		PaymentGatewayURL: os.Getenv("PAYMENT_GATEWAY_URL"),
		RequestTimeout:    getEnvAsDuration("REQUEST_TIMEOUT", 10*time.Second),

		PaymentGateway:   getEnv("PAYMENT_GATEWAY", "http"),
		StripeSecretKey:  os.Getenv("STRIPE_API_KEY"),
		StripeSuccessURL: os.Getenv("STRIPE_SUCCESS_URL"),
		StripeCancelURL:  os.Getenv("STRIPE_CANCEL_URL"),
		StripeCurrency:   getEnv("STRIPE_CURRENCY", "krw"),

		PaymentTimeout: getEnvAsDuration("CHECKOUT_PAYMENT_TIMEOUT", 0),

		RedisURL:    getEnv("REDIS_URL", "redis://localhost:6379"),
		CheckoutTTL: getEnvAsDuration("CHECKOUT_TTL", 24*time.Hour),

		KafkaBrokers: getEnv("KAFKA_BROKERS", "localhost:9092"),
		KafkaTopic:   getEnv("KAFKA_TOPIC", "checkout.completed"),

		CheckoutSNSTopicARN: os.Getenv("CHECKOUT_SNS_TOPIC_ARN"),

		PostgresUser:     os.Getenv("POSTGRES_USER"),
		PostgresPassword: os.Getenv("POSTGRES_PASSWORD"),
		PostgresDB:       os.Getenv("POSTGRES_DB"),
		PostgresHost:     getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:     getEnv("POSTGRES_PORT", "5432"),
		PostgresSSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),
		PostgresTimeZone: getEnv("POSTGRES_TIMEZONE", "Asia/Seoul"),
	}

	if cfg.OrderServiceURL == "" || cfg.CouponServiceURL == "" || cfg.CartServiceURL == "" {
		return nil, fmt.Errorf("collaborator service URLs are not configured")
	}
	switch cfg.PaymentGateway {
	case "http":
		if cfg.PaymentGatewayURL == "" {
			return nil, fmt.Errorf("PAYMENT_GATEWAY_URL is required for the http gateway")
		}
	case "stripe":
		if cfg.StripeSecretKey == "" || cfg.StripeSuccessURL == "" || cfg.StripeCancelURL == "" {
			return nil, fmt.Errorf("stripe gateway config incomplete")
		}
	default:
		return nil, fmt.Errorf("unknown payment gateway %q", cfg.PaymentGateway)
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return fallback
	}
	return d
}
