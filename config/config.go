package config

import (
	"errors"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port           string
	Env            string
	MongoURI       string
	MongoDatabase  string
	SecretKey      string
	SessionTTL     time.Duration
	RequestTimeout time.Duration
	CorsOrigins    []string

	// MongoTransactions wraps review insert + rating update in one transaction.
	// Requires a replica set.
	MongoTransactions      bool
	StrictOrderTransitions bool

	RazorpayKeyID     string
	RazorpayKeySecret string

	// RabbitMQURL enables the cross-instance notification relay when set.
	RabbitMQURL string

	SuperAdminEmail    string
	SuperAdminPassword string
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Load reads .env from the working directory, if present, then the environment.
func Load() (*Config, error) {
	if err := godotenv.Load(".env"); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("Error loading .env file: %v", err)
	}
	return FromEnv()
}

func FromEnv() (*Config, error) {
	cfg := &Config{
		Port:                   getEnv("PORT", "8000"),
		Env:                    getEnv("APP_ENV", "development"),
		MongoURI:               getEnv("MONGODB_URI", "mongodb://localhost:27017"),
		MongoDatabase:          getEnv("MONGODB_DATABASE", "food_ordering"),
		SecretKey:              os.Getenv("SECRET_KEY"),
		SessionTTL:             getDuration("SESSION_TTL", 24*time.Hour),
		RequestTimeout:         getDuration("REQUEST_TIMEOUT", 15*time.Second),
		CorsOrigins:            getList("CORS_ORIGINS", []string{"http://localhost:5173"}),
		MongoTransactions:      getBool("MONGO_TRANSACTIONS", false),
		StrictOrderTransitions: getBool("STRICT_ORDER_TRANSITIONS", false),
		RazorpayKeyID:          os.Getenv("RAZORPAY_KEY_ID"),
		RazorpayKeySecret:      os.Getenv("RAZORPAY_KEY_SECRET"),
		RabbitMQURL:            os.Getenv("RABBITMQ_URL"),
		SuperAdminEmail:        os.Getenv("SUPERADMIN_EMAIL"),
		SuperAdminPassword:     os.Getenv("SUPERADMIN_PASSWORD"),
	}

	if cfg.SecretKey == "" {
		if cfg.IsProduction() {
			return nil, errors.New("SECRET_KEY must be set in production")
		}
		cfg.SecretKey = "dev-secret-change-me"
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getBool(key string, fallback bool) bool {
	v, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		log.Printf("invalid %s=%q, using %v", key, v, fallback)
		return fallback
	}
	return b
}

func getDuration(key string, fallback time.Duration) time.Duration {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		log.Printf("invalid %s=%q, using %v", key, v, fallback)
		return fallback
	}
	return d
}

func getList(key string, fallback []string) []string {
	v, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(v) == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
