package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Log struct {
		Level     string
		Format    string
		Component string
		Source    bool
	}

	DB struct {
		DSN      string
		Host     string
		Port     string
		User     string
		Password string
		Name     string
	}

	Redis struct {
		Addr     string
		Password string
		DB       int
	}

	HTTP struct {
		Host string
		Port string
	}

	Auth struct {
		JWTSecret      string
		AccessExpiry   time.Duration
		RefreshExpiry  time.Duration
		CodeExpiry     time.Duration
		CodeRateLimit  time.Duration
		AllowedDomains []string
		AdminTokenHash string
	}

	Matching struct {
		// Scoring weights. Familiar-familiar overlap must dominate the
		// aspirational pairings: WFF > WAF >= WAA > 0.
		WFF    float64
		WAF    float64
		WAA    float64
		WTrait float64
		WBound float64

		TotalTags       int
		TraitsLimitEach int
		PreviewK        int
		AcceptTimeout   time.Duration

		TagsFile   string
		TraitsFile string
	}

	Scheduler struct {
		Tick          time.Duration
		SweepInterval time.Duration
	}

	App struct {
		ENV string
	}
}

func New() *Config {
	_ = godotenv.Load()

	cfg := &Config{}

	// Logger
	cfg.Log.Level = getEnvDefault("LOG_LEVEL", "info")
	cfg.Log.Format = getEnvDefault("LOG_FORMAT", "text")
	cfg.Log.Component = getEnvDefault("LOG_COMPONENT", "hilo_server")
	cfg.Log.Source = isTruthy(os.Getenv("LOG_SOURCE"))

	// Database
	cfg.DB.DSN = os.Getenv("DATABASE_DSN")
	if cfg.DB.DSN == "" {
		cfg.DB.Host = getEnvDefault("DB_HOST", "localhost")
		cfg.DB.Port = getEnvDefault("DB_PORT", "5432")
		cfg.DB.User = getEnvDefault("DB_USER", "postgres")
		cfg.DB.Password = getEnvDefault("DB_PASSWORD", "postgres")
		cfg.DB.Name = getEnvDefault("DB_NAME", "hilo")

		cfg.DB.DSN = fmt.Sprintf(
			"host=%s port=%s user=%s password=%s dbname=%s sslmode=disable TimeZone=UTC",
			cfg.DB.Host, cfg.DB.Port, cfg.DB.User, cfg.DB.Password, cfg.DB.Name,
		)
	}

	// Redis
	cfg.Redis.Addr = getEnvDefault("REDIS_ADDR", "localhost:6379")
	cfg.Redis.Password = getEnvDefault("REDIS_PASSWORD", "")
	if dbStr := getEnvDefault("REDIS_DB", "0"); dbStr != "" {
		if dbInt, err := strconv.Atoi(dbStr); err == nil {
			cfg.Redis.DB = dbInt
		}
	}

	// HTTP
	cfg.HTTP.Host = getEnvDefault("HTTP_HOST", "127.0.0.1")
	cfg.HTTP.Port = getEnvDefault("HTTP_PORT", "8080")

	// Auth
	cfg.Auth.JWTSecret = getEnvDefault("JWT_SECRET", "dev-secret-change-me")
	cfg.Auth.AccessExpiry = getEnvDuration("ACCESS_TOKEN_EXPIRY", 15*time.Minute)
	cfg.Auth.RefreshExpiry = getEnvDuration("REFRESH_TOKEN_EXPIRY", 7*24*time.Hour)
	cfg.Auth.CodeExpiry = getEnvDuration("VERIFICATION_CODE_EXPIRY", 5*time.Minute)
	cfg.Auth.CodeRateLimit = getEnvDuration("EMAIL_RATE_LIMIT", 3*time.Minute)
	cfg.Auth.AllowedDomains = splitList(getEnvDefault("ALLOWED_DOMAINS", "example.edu"))
	// bcrypt hash of the operator token; admin routes stay off when empty.
	cfg.Auth.AdminTokenHash = getEnvDefault("ADMIN_TOKEN_HASH", "")

	// Matching
	cfg.Matching.WFF = getEnvFloat("W_FF", 3.0)
	cfg.Matching.WAF = getEnvFloat("W_AF", 2.0)
	cfg.Matching.WAA = getEnvFloat("W_AA", 1.0)
	cfg.Matching.WTrait = getEnvFloat("W_TRAIT", 1.0)
	cfg.Matching.WBound = getEnvFloat("W_BOUND", 2.0)
	cfg.Matching.TotalTags = getEnvInt("TOTAL_TAGS", 10)
	cfg.Matching.TraitsLimitEach = getEnvInt("TRAITS_LIMIT_EACH", 3)
	cfg.Matching.PreviewK = getEnvInt("PREVIEW_K", 6)
	cfg.Matching.AcceptTimeout = getEnvDuration("ACCEPT_TIMEOUT", 24*time.Hour)
	cfg.Matching.TagsFile = getEnvDefault("TAGS_FILE", "tags.json")
	cfg.Matching.TraitsFile = getEnvDefault("TRAITS_FILE", "traits.json")

	// Scheduler
	cfg.Scheduler.Tick = getEnvDuration("SCHEDULER_TICK", 30*time.Second)
	cfg.Scheduler.SweepInterval = getEnvDuration("SWEEP_INTERVAL", 60*time.Second)

	cfg.App.ENV = getEnvDefault("APP_ENV", "production")

	return cfg
}

func getEnvDefault(k, def string) string {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		return v
	}
	return def
}

func getEnvInt(k string, def int) int {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getEnvFloat(k string, def float64) float64 {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func getEnvDuration(k string, def time.Duration) time.Duration {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

// splitList parses a colon-separated list, e.g. "example.edu:mails.example.edu".
func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ":") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func isTruthy(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "y", "on":
		return true
	}
	return false
}
