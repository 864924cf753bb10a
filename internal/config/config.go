// Package config centralizes the environment configuration the process
// reads once at startup.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	Port string

	MongoURI string
	MongoDB  string

	JWTSecret string

	StripeKey string

	KafkaBrokers []string

	SMTPHost   string
	SMTPPort   string
	SMTPUser   string
	SMTPPass   string
	OwnerEmail string
	FromEmail  string
}

// Load reads the environment, honoring a local .env file when present.
func Load() (Config, error) {
	// Not having a .env file is fine in deployed environments.
	_ = godotenv.Load(".env")

	cfg := Config{
		Port:       getEnv("PORT", "8080"),
		MongoURI:   getEnv("MONGODB_URI", "mongodb://localhost:27017"),
		MongoDB:    getEnv("MONGODB_DATABASE", "storefront"),
		JWTSecret:  os.Getenv("JWT_SECRET"),
		StripeKey:  os.Getenv("STRIPE_TEST_KEY"),
		SMTPHost:   os.Getenv("SMTP_HOST"),
		SMTPPort:   getEnv("SMTP_PORT", "587"),
		SMTPUser:   os.Getenv("SMTP_USER"),
		SMTPPass:   os.Getenv("SMTP_PASS"),
		OwnerEmail: os.Getenv("ADMIN_EMAIL"),
		FromEmail:  getEnv("FROM_EMAIL", "no-reply@example.com"),
	}

	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		for _, b := range strings.Split(brokers, ",") {
			if b = strings.TrimSpace(b); b != "" {
				cfg.KafkaBrokers = append(cfg.KafkaBrokers, b)
			}
		}
	}

	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("JWT_SECRET is not set")
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
