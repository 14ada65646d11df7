package config

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Env   string
	Port  int
	DBURL string

	// Bootstrap seed. Skipped entirely when the admin email/password are
	// not configured.
	OrgName        string
	AdminEmail     string
	AdminPassword  string
	AdminFirstName string
	AdminLastName  string

	JWTSecret           string
	JWTAccessTTLMinutes int
	JWTRefreshTTLDays   int

	// Optional redis for the cross-process login rate limiter.
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	LoginRateLimit      int
	LoginRateWindowSecs int

	// Throttle for the authenticated surface, keyed per user.
	APIRateLimit      int
	APIRateWindowSecs int

	AllowedOrigins []string

	OTELEnabled  bool
	OTELEndpoint string
}

func Load() Config {
	// best effort; real deployments set env directly
	_ = godotenv.Load()

	return Config{
		Env:   getEnv("APP_ENV", "dev"),
		Port:  getEnvInt("PORT", 8080),
		DBURL: buildDBURL(),

		OrgName:        getEnv("SEED_ORG_NAME", "Berkeley Math Circle"),
		AdminEmail:     getEnv("SEED_ADMIN_EMAIL", ""),
		AdminPassword:  getEnv("SEED_ADMIN_PASSWORD", ""),
		AdminFirstName: getEnv("SEED_ADMIN_FIRST_NAME", "Site"),
		AdminLastName:  getEnv("SEED_ADMIN_LAST_NAME", "Admin"),

		JWTSecret:           getEnv("JWT_SECRET", "dev-secret-change-me"),
		JWTAccessTTLMinutes: getEnvInt("JWT_ACCESS_TTL_MINUTES", 15),
		JWTRefreshTTLDays:   getEnvInt("JWT_REFRESH_TTL_DAYS", 7),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		LoginRateLimit:      getEnvInt("LOGIN_RATE_LIMIT", 10),
		LoginRateWindowSecs: getEnvInt("LOGIN_RATE_WINDOW_SECONDS", 60),

		APIRateLimit:      getEnvInt("API_RATE_LIMIT", 120),
		APIRateWindowSecs: getEnvInt("API_RATE_WINDOW_SECONDS", 60),

		AllowedOrigins: splitList(getEnv("ALLOWED_ORIGINS", "")),

		OTELEnabled:  getEnv("OTEL_ENABLED", "") == "true",
		OTELEndpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
	}
}

func (c Config) AccessTTL() time.Duration {
	return time.Duration(c.JWTAccessTTLMinutes) * time.Minute
}

func (c Config) RefreshTTL() time.Duration {
	return time.Duration(c.JWTRefreshTTLDays) * 24 * time.Hour
}

func buildDBURL() string {
	if url := getEnv("DATABASE_URL", ""); url != "" {
		return url
	}

	host := getEnv("DB_HOST", "127.0.0.1")
	port := getEnv("DB_PORT", "5432")
	user := getEnv("DB_USER", "schoolhub")
	pass := getEnv("DB_PASSWORD", "schoolhub")
	name := getEnv("DB_NAME", "schoolhub")
	ssl := getEnv("DB_SSLMODE", "disable")

	return "postgres://" + user + ":" + pass + "@" + host + ":" + port + "/" + name + "?sslmode=" + ssl
}

func WithTimeout(duration time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), duration)
}

func splitList(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))

	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}

	return out
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
			fmt.Println(err)
		}

		return num
	}
	return fallback
}
