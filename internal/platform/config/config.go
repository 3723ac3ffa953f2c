package config

import (
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds application configuration.
type Config struct {
	DatabaseURL  string
	Port         string
	IsProduction bool

	// Admin API auth
	JWTSecret         string
	JWTExpiryDuration time.Duration
	JWTIssuer         string
	AdminUser         string
	AdminPasswordHash string

	// Redis ticker cache
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisTTL      time.Duration

	// Sync scheduler
	SyncInterval       time.Duration
	StaleThreshold     time.Duration
	StaleCheckInterval time.Duration
	MaxConcurrentPairs int

	// Exchange HTTP clients
	HTTPTimeout   time.Duration
	MaxRetries    int
	GrinexBaseURL string
	RapiraBaseURL string

	RuleCacheTTL  time.Duration
	PublicRateRPM int64
}

// LoadConfig loads configuration from environment variables and .env file if present.
func LoadConfig() (*Config, error) {
	// Attempt to load .env file, ignore error if it doesn't exist
	_ = godotenv.Load()

	viper.SetDefault("PGSQL_URL", "")
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("IS_PRODUCTION", false)
	viper.SetDefault("JWT_SECRET", "a-very-secret-key-should-be-longer-and-random")
	viper.SetDefault("JWT_EXPIRY_DURATION", "1h")
	viper.SetDefault("JWT_ISSUER", "fx-rate-engine")
	viper.SetDefault("ADMIN_USER", "admin")
	viper.SetDefault("ADMIN_PASSWORD_HASH", "")
	viper.SetDefault("REDIS_ADDR", "localhost:6379")
	viper.SetDefault("REDIS_PASSWORD", "")
	viper.SetDefault("REDIS_DB", 0)
	viper.SetDefault("REDIS_TTL", "55s")
	viper.SetDefault("SYNC_INTERVAL", "60s")
	viper.SetDefault("STALE_THRESHOLD", "180s")
	viper.SetDefault("STALE_CHECK_INTERVAL", "300s")
	viper.SetDefault("MAX_CONCURRENT_PAIRS", 5)
	viper.SetDefault("HTTP_TIMEOUT", "10s")
	viper.SetDefault("MAX_RETRIES", 3)
	viper.SetDefault("GRINEX_API_BASE", "https://api.grinex.io")
	viper.SetDefault("RAPIRA_API_BASE", "https://api.rapira.net")
	viper.SetDefault("RULE_CACHE_TTL", "5m")
	viper.SetDefault("PUBLIC_RATE_RPM", 120)

	viper.AutomaticEnv()

	cfg := &Config{}

	cfg.DatabaseURL = viper.GetString("PGSQL_URL")
	if cfg.DatabaseURL == "" {
		log.Println("Warning: PGSQL_URL environment variable not set.")
	}
	cfg.Port = viper.GetString("PORT")
	cfg.IsProduction = viper.GetBool("IS_PRODUCTION")

	cfg.JWTSecret = viper.GetString("JWT_SECRET")
	if cfg.JWTSecret == "a-very-secret-key-should-be-longer-and-random" {
		log.Println("Warning: JWT_SECRET not set. Using default insecure key.")
	}
	cfg.JWTExpiryDuration = viper.GetDuration("JWT_EXPIRY_DURATION")
	if cfg.JWTExpiryDuration <= 0 {
		cfg.JWTExpiryDuration = time.Hour
	}
	cfg.JWTIssuer = viper.GetString("JWT_ISSUER")
	cfg.AdminUser = viper.GetString("ADMIN_USER")
	cfg.AdminPasswordHash = viper.GetString("ADMIN_PASSWORD_HASH")
	if cfg.AdminPasswordHash == "" {
		log.Println("Warning: ADMIN_PASSWORD_HASH not set. Admin login is disabled.")
	}

	cfg.RedisAddr = viper.GetString("REDIS_ADDR")
	cfg.RedisPassword = viper.GetString("REDIS_PASSWORD")
	cfg.RedisDB = viper.GetInt("REDIS_DB")
	cfg.RedisTTL = viper.GetDuration("REDIS_TTL")

	cfg.SyncInterval = viper.GetDuration("SYNC_INTERVAL")
	cfg.StaleThreshold = viper.GetDuration("STALE_THRESHOLD")
	cfg.StaleCheckInterval = viper.GetDuration("STALE_CHECK_INTERVAL")
	cfg.MaxConcurrentPairs = viper.GetInt("MAX_CONCURRENT_PAIRS")

	cfg.HTTPTimeout = viper.GetDuration("HTTP_TIMEOUT")
	cfg.MaxRetries = viper.GetInt("MAX_RETRIES")
	cfg.GrinexBaseURL = viper.GetString("GRINEX_API_BASE")
	cfg.RapiraBaseURL = viper.GetString("RAPIRA_API_BASE")
	cfg.RuleCacheTTL = viper.GetDuration("RULE_CACHE_TTL")
	cfg.PublicRateRPM = viper.GetInt64("PUBLIC_RATE_RPM")

	return cfg, nil
}
