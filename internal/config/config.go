package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	DatabaseURI string
	Port        string

	// VAPID credentials for Web Push delivery.
	VAPIDPublicKey  string
	VAPIDPrivateKey string
	VAPIDSubscriber string

	// Scanner cadence. ScanCron, when set, takes precedence over
	// ScanInterval (e.g. "0 7 * * *" for a single daily sweep).
	ScanInterval  time.Duration
	ScanCron      string
	ScanBatchSize int

	DeliveryTimeout time.Duration
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		// .env file is optional in production
	}

	return &Config{
		DatabaseURI:     os.Getenv("DATABASE_URI"),
		Port:            getEnvOrDefault("PORT", "5000"),
		VAPIDPublicKey:  os.Getenv("VAPID_PUBLIC_KEY"),
		VAPIDPrivateKey: os.Getenv("VAPID_PRIVATE_KEY"),
		VAPIDSubscriber: getEnvOrDefault("VAPID_SUBSCRIBER", "mailto:admin@famcare.app"),
		ScanInterval:    getDurationOrDefault("SCAN_INTERVAL", time.Minute),
		ScanCron:        os.Getenv("SCAN_CRON"),
		ScanBatchSize:   getIntOrDefault("SCAN_BATCH_SIZE", 200),
		DeliveryTimeout: getDurationOrDefault("DELIVERY_TIMEOUT", 10*time.Second),
	}, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
