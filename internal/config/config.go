package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

var AppEnv Config

type Config struct {
	Port       string
	APIURL     string
	APITimeout time.Duration
	// JWTSecret verifies bearer tokens locally before a workspace is
	// resolved. Empty leaves verification to the upstream API.
	JWTSecret string

	MongoURI string
	DBName   string

	StorageDriver string
	SQLitePath    string
	RedisAddr     string
	RedisPassword string

	KafkaBrokers []string
	KafkaTopic   string

	DeliveryFee        decimal.Decimal
	RateLimitPerSecond float64
	RateLimitBurst     int
	CORSOrigins        []string
	SessionIdleTimeout time.Duration
}

func Load() {
	if err := godotenv.Load(); err != nil {
		log.Println(".env not loaded:", err)
	}
	AppEnv = Config{
		Port:       getEnvOrDefault("PORT", "8080"),
		APIURL:     getEnvOrDefault("API_URL", "http://localhost:5000/api"),
		APITimeout: getDurationEnv("API_TIMEOUT", 10, time.Second),
		JWTSecret:  getEnvOrDefault("JWT_SECRET", ""),

		MongoURI: getEnvOrDefault("MONGO_URI", ""),
		DBName:   getEnvOrDefault("DB_NAME", "harvestly"),

		StorageDriver: getEnvOrDefault("STORAGE_DRIVER", "memory"),
		SQLitePath:    getEnvOrDefault("SQLITE_PATH", "./harvestly.db"),
		RedisAddr:     getEnvOrDefault("REDIS_ADDR", ""),
		RedisPassword: getEnvOrDefault("REDIS_PASSWORD", ""),

		KafkaBrokers: getListEnv("KAFKA_BROKERS"),
		KafkaTopic:   getEnvOrDefault("KAFKA_TOPIC", "harvestly.orders"),

		DeliveryFee:        getDecimalEnv("DELIVERY_FEE", decimal.NewFromInt(50)),
		RateLimitPerSecond: getFloatEnv("RATE_LIMIT_PER_SECOND", 10),
		RateLimitBurst:     getIntEnv("RATE_LIMIT_BURST", 20),
		CORSOrigins:        getListEnv("CORS_ORIGINS"),
		SessionIdleTimeout: getDurationEnv("SESSION_IDLE_TIMEOUT", 30, time.Minute),
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue int, unit time.Duration) time.Duration {
	return time.Duration(getIntEnv(key, defaultValue)) * unit
}

func getIntEnv(key string, defaultValue int) int {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil && parsed > 0 {
			return parsed
		}
	}
	return defaultValue
}

func getFloatEnv(key string, defaultValue float64) float64 {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil && parsed > 0 {
			return parsed
		}
	}
	return defaultValue
}

func getDecimalEnv(key string, defaultValue decimal.Decimal) decimal.Decimal {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		if parsed, err := decimal.NewFromString(value); err == nil && !parsed.IsNegative() {
			return parsed
		}
		log.Printf("[CONFIG] [WARN] ignoring invalid %s=%q", key, value)
	}
	return defaultValue
}

// getListEnv splits a comma separated variable, dropping empty entries.
func getListEnv(key string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
