package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

const devSecret = "dev-secret-change-in-production"

type Config struct {
	Port             string
	Env              string
	DatabaseDriver   string
	DatabaseDSN      string
	JWTSecret        string
	JWTExpiry        time.Duration
	CORSOrigins      []string
	HealthPolicyPath string
	AuthRateLimit    float64
	AuthRateBurst    int
	IngestRateLimit  float64
	IngestRateBurst  int
}

func Load() Config {
	cfg := Config{
		Port:             getEnv("PORT", "8080"),
		Env:              getEnv("ENV", "development"),
		DatabaseDriver:   getEnv("DATABASE_DRIVER", "mysql"),
		DatabaseDSN:      getEnv("DATABASE_DSN", "root:password@tcp(127.0.0.1:3306)/clarity?parseTime=true&loc=UTC"),
		JWTSecret:        getEnv("JWT_SECRET", devSecret),
		JWTExpiry:        time.Duration(getEnvInt("JWT_EXPIRY_MINUTES", 30)) * time.Minute,
		CORSOrigins:      splitList(getEnv("CORS_ORIGINS", "http://localhost:5173,https://claritytracking.io,https://www.claritytracking.io,https://*.framer.app")),
		HealthPolicyPath: getEnv("HEALTH_POLICY_PATH", ""),
		AuthRateLimit:    getEnvFloat("AUTH_RATE_LIMIT", 5),
		AuthRateBurst:    getEnvInt("AUTH_RATE_BURST", 10),
		IngestRateLimit:  getEnvFloat("INGEST_RATE_LIMIT", 50),
		IngestRateBurst:  getEnvInt("INGEST_RATE_BURST", 200),
	}

	if cfg.Env == "production" && cfg.JWTSecret == devSecret {
		slog.Error("JWT_SECRET must be set in production environment")
		os.Exit(1)
	}

	return cfg
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
		slog.Warn("ignoring malformed integer setting", "key", key, "value", v)
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
		slog.Warn("ignoring malformed numeric setting", "key", key, "value", v)
	}
	return fallback
}

func splitList(csv string) []string {
	var out []string
	for _, s := range strings.Split(csv, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
