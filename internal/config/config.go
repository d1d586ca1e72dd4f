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

type Config struct {
	Port              string
	JWTSecret         string
	RedisAddress      string
	KafkaBrokers      []string
	AuditTopic        string
	LowStockThreshold decimal.Decimal
	BudgetLockTTL     time.Duration
	LogLevel          string
	DBLogLevel        string
}

// Load reads .env (if present) and the process environment.
// Database settings are read by pkg/database directly.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found")
	}

	cfg := &Config{
		Port:         getEnv("PORT", "3000"),
		JWTSecret:    getEnv("JWT_SECRET", ""),
		RedisAddress: getEnv("REDIS_ADDRESS", ""),
		KafkaBrokers: splitList(getEnv("KAFKA_BROKERS", "")),
		AuditTopic:   getEnv("AUDIT_TOPIC", "schoolfeeding.audit"),
		LogLevel:     getEnv("LOG_LEVEL", "info"),
		DBLogLevel:   getEnv("DB_LOG_LEVEL", "warn"),

		BudgetLockTTL: time.Duration(getEnvInt("BUDGET_LOCK_TTL_SECONDS", 30)) * time.Second,
	}

	threshold, err := decimal.NewFromString(getEnv("LOW_STOCK_THRESHOLD", "10"))
	if err != nil || threshold.IsNegative() {
		log.Printf("Warning: invalid LOW_STOCK_THRESHOLD, using 10")
		threshold = decimal.NewFromInt(10)
	}
	cfg.LowStockThreshold = threshold

	if cfg.JWTSecret == "" {
		log.Println("Warning: JWT_SECRET not set, using development default")
	}
	return cfg
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return def
	}
	return v
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
