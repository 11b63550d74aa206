package config

import (
	"os"
	"time"
)

type Config struct {
	// Database
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	// JWT (shared across both apps)
	JWTSecret        string
	JWTAccessExpiry  time.Duration
	JWTRefreshExpiry time.Duration

	// Root key provider
	KMSProvider   string // "aws" or "local"
	AWSRegion     string
	KMSKeyRing    string
	KMSTimeout    time.Duration
	KMSLocalSeed  string

	// Sentiment analysis collaborator
	SentimentAPIURL string
	SentimentAPIKey string
	SentimentTimeout time.Duration

	// Retention / sweeps
	DeletionGraceDays int
	SweepInterval     time.Duration

	// Admin
	AdminEmails  string
	AdminUserIDs string
	AdminToken   string

	// Server
	Port        string
	CORSOrigins string

	// App registry
	AppsConfigPath string
}

func Load() *Config {
	return &Config{
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", ""),
		DBName:     getEnv("DB_NAME", "wellness_db"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),

		JWTSecret:        getEnv("JWT_SECRET", ""),
		JWTAccessExpiry:  parseDuration(getEnv("JWT_ACCESS_EXPIRY", "15m"), 15*time.Minute),
		JWTRefreshExpiry: parseDuration(getEnv("JWT_REFRESH_EXPIRY", "168h"), 168*time.Hour),

		KMSProvider:  getEnv("KMS_PROVIDER", "aws"),
		AWSRegion:    getEnv("AWS_REGION", "us-east-1"),
		KMSKeyRing:   getEnv("KMS_KEY_RING", "wellness"),
		KMSTimeout:   parseDuration(getEnv("KMS_TIMEOUT", "10s"), 10*time.Second),
		KMSLocalSeed: getEnv("KMS_LOCAL_SEED", ""),

		SentimentAPIURL:  getEnv("SENTIMENT_API_URL", ""),
		SentimentAPIKey:  getEnv("SENTIMENT_API_KEY", ""),
		SentimentTimeout: parseDuration(getEnv("SENTIMENT_TIMEOUT", "10s"), 10*time.Second),

		DeletionGraceDays: parseInt(getEnv("DELETION_GRACE_DAYS", "30"), 30),
		SweepInterval:     parseDuration(getEnv("SWEEP_INTERVAL", "1h"), time.Hour),

		AdminEmails:  getEnv("ADMIN_EMAILS", ""),
		AdminUserIDs: getEnv("ADMIN_USER_IDS", ""),
		AdminToken:   getEnv("ADMIN_TOKEN", ""),

		Port:        getEnv("PORT", "8080"),
		CORSOrigins: getEnv("CORS_ORIGINS", "*"),

		AppsConfigPath: getEnv("APPS_CONFIG_PATH", "apps.json"),
	}
}

func (c *Config) DSN() string {
	return "host=" + c.DBHost +
		" user=" + c.DBUser +
		" password=" + c.DBPassword +
		" dbname=" + c.DBName +
		" port=" + c.DBPort +
		" sslmode=" + c.DBSSLMode +
		" TimeZone=UTC"
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return fallback
	}
	return d
}

func parseInt(s string, fallback int) int {
	n := 0
	for _, r := range s {
		if r < '0' || r > '9' {
			return fallback
		}
		n = n*10 + int(r-'0')
	}
	if s == "" {
		return fallback
	}
	return n
}
