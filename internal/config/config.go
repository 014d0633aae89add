package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

type Config struct {
	Env  string
	Port int

	StorageDriver string
	DBURL         string
	DBMaxConns    int32
	StoreTimeout  time.Duration

	JWTSecret string
	JWTTTL    time.Duration

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	OTLPEndpoint string

	CORSOrigins     []string
	RateLimitMax    int
	RateLimitWindow time.Duration
	MaxBodyBytes    int64

	AnalyticsCacheTTL time.Duration

	AdminEmail    string
	AdminPassword string
	AdminName     string
}

// Load reads the environment. Call godotenv.Load before it to pick up a .env
// file.
func Load() (Config, error) {
	cfg := Config{
		Env:  getEnv("APP_ENV", "dev"),
		Port: getEnvInt("PORT", 8080),

		StorageDriver: strings.ToLower(getEnv("STORAGE_DRIVER", DriverPostgres)),
		DBURL:         getEnv("DATABASE_URL", buildDBURL()),
		DBMaxConns:    int32(getEnvInt("DB_MAX_CONNS", 10)),
		StoreTimeout:  getEnvDuration("STORE_TIMEOUT", 3*time.Second),

		JWTSecret: getEnv("JWT_SECRET", ""),
		JWTTTL:    getEnvDuration("JWT_TTL", 24*time.Hour),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		OTLPEndpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),

		CORSOrigins:     splitList(getEnv("FRONTEND_URL", "http://localhost:3000")),
		RateLimitMax:    getEnvInt("RATE_LIMIT_MAX", 100),
		RateLimitWindow: getEnvDuration("RATE_LIMIT_WINDOW", 15*time.Minute),
		MaxBodyBytes:    int64(getEnvInt("MAX_BODY_BYTES", 1<<20)),

		AnalyticsCacheTTL: getEnvDuration("ANALYTICS_CACHE_TTL", 5*time.Second),

		AdminEmail:    getEnv("ADMIN_EMAIL", ""),
		AdminPassword: getEnv("ADMIN_PASSWORD", ""),
		AdminName:     getEnv("ADMIN_NAME", "Administrator"),
	}

	if cfg.JWTSecret == "" {
		if cfg.Env != "dev" {
			return Config{}, errors.New("JWT_SECRET is required outside dev")
		}
		cfg.JWTSecret = "dev-secret-change-me"
	}

	if cfg.StorageDriver != DriverPostgres && cfg.StorageDriver != DriverMemory {
		return Config{}, fmt.Errorf("STORAGE_DRIVER must be %q or %q, got %q", DriverPostgres, DriverMemory, cfg.StorageDriver)
	}

	return cfg, nil
}

func buildDBURL() string {
	host := getEnv("DB_HOST", "127.0.0.1")
	port := getEnv("DB_PORT", "5432")
	user := getEnv("DB_USER", "ledgerhub")
	pass := getEnv("DB_PASSWORD", "ledgerhub")
	name := getEnv("DB_NAME", "ledgerhub")
	ssl := getEnv("DB_SSLMODE", "disable")

	return "postgres://" + user + ":" + pass + "@" + host + ":" + port + "/" + name + "?sslmode=" + ssl
}

func WithTimeout(duration time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), duration)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}

	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		num, err := strconv.Atoi(v)
		if err != nil {
			return fallback
		}
		return num
	}
	return fallback
}

// getEnvDuration accepts Go durations ("3s") or bare seconds ("3").
func getEnvDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(v); err == nil {
		return time.Duration(secs) * time.Second
	}
	return fallback
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
