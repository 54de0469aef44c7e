// Package config loads server configuration from the environment.
//
// A .env file in the working directory is honoured for local development
// (via godotenv); in production the variables come from the real
// environment and the missing .env is only a log notice, never an error.
package config

import (
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds everything the server needs at startup.
type Config struct {
	Port   int
	DBPath string

	JWTSecret     string
	TokenDuration time.Duration

	GitHubClientID     string
	GitHubClientSecret string
	GitHubCallbackURL  string

	MinIO MinIO
	SMTP  SMTP
}

// SMTP configures outgoing email. With empty credentials the mailer
// logs messages instead of sending them.
type SMTP struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	BaseURL  string
}

// MinIO configures the object storage used for profile pictures,
// profile backgrounds, and video thumbnails. When Endpoint is empty the
// server starts without object storage and upload endpoints are
// unavailable.
type MinIO struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
	PublicURL string // base URL prepended to object keys in stored links
}

// Load reads the configuration from the environment, applying defaults.
func Load(logger *slog.Logger) Config {
	if err := godotenv.Load(); err != nil {
		logger.Info("no .env file found, using process environment")
	}

	return Config{
		Port:          getEnvInt("PORT", 8080),
		DBPath:        getEnv("DB_PATH", "data/community.db"),
		JWTSecret:     getEnv("JWT_SECRET", ""),
		TokenDuration: getEnvDuration("TOKEN_DURATION", 15*time.Minute),

		GitHubClientID:     getEnv("GITHUB_CLIENT_ID", ""),
		GitHubClientSecret: getEnv("GITHUB_CLIENT_SECRET", ""),
		GitHubCallbackURL:  getEnv("GITHUB_CALLBACK_URL", ""),

		MinIO: MinIO{
			Endpoint:  getEnv("MINIO_ENDPOINT", ""),
			AccessKey: getEnv("MINIO_ACCESS_KEY", ""),
			SecretKey: getEnv("MINIO_SECRET_KEY", ""),
			Bucket:    getEnv("MINIO_BUCKET", "community-media"),
			UseSSL:    getEnvBool("MINIO_USE_SSL", false),
			PublicURL: getEnv("MINIO_PUBLIC_URL", ""),
		},

		SMTP: SMTP{
			Host:     getEnv("SMTP_HOST", ""),
			Port:     getEnvInt("SMTP_PORT", 587),
			Username: getEnv("SMTP_USERNAME", ""),
			Password: getEnv("SMTP_PASSWORD", ""),
			From:     getEnv("SMTP_FROM", "no-reply@localhost"),
			BaseURL:  getEnv("APP_BASE_URL", "http://localhost:8080"),
		},
	}
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v, ok := os.LookupEnv(key); ok {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
