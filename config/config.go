package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	ServerPort string

	BaseURL   string
	Platform  string
	FetchMode string // "browser" (chromedp) or "http" (resty)
	Headless  bool
	ChromeBin string

	MaxPages          int
	MaxRetries        int
	PageDelayMinMs    int
	PageDelayMaxMs    int
	FetchTimeoutSec   int
	RequestTimeoutSec int

	CacheBackend  string // "parquet" or "postgres"
	CacheDir      string
	CacheTTLHours int

	RawCSVPath string

	MaxConcurrency int

	PostgresHost     string
	PostgresPort     string
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresSSLMode  string
}

// Load reads the .env file and returns a populated Config struct.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("[config] No .env file found, falling back to system env vars")
	}

	return &Config{
		ServerPort: getEnv("SERVER_PORT", "8000"),

		BaseURL:   getEnv("BASE_URL", "https://www.amazon.in"),
		Platform:  getEnv("PLATFORM", "amazon"),
		FetchMode: getEnv("FETCH_MODE", "browser"),
		Headless:  getEnvBool("HEADLESS", true),
		ChromeBin: getEnv("CHROME_BIN", ""),

		MaxPages:          getEnvInt("MAX_PAGES", 3),
		MaxRetries:        getEnvInt("MAX_RETRIES", 3),
		PageDelayMinMs:    getEnvInt("PAGE_DELAY_MIN_MS", 2000),
		PageDelayMaxMs:    getEnvInt("PAGE_DELAY_MAX_MS", 4000),
		FetchTimeoutSec:   getEnvInt("FETCH_TIMEOUT_SEC", 60),
		RequestTimeoutSec: getEnvInt("REQUEST_TIMEOUT_SEC", 120),

		CacheBackend:  getEnv("CACHE_BACKEND", "parquet"),
		CacheDir:      getEnv("CACHE_DIR", "./data/processed"),
		CacheTTLHours: getEnvInt("CACHE_TTL_HOURS", 24),

		RawCSVPath: getEnv("RAW_CSV_PATH", ""),

		MaxConcurrency: getEnvInt("MAX_CONCURRENCY", 3),

		PostgresHost:     getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:     getEnv("POSTGRES_PORT", "5432"),
		PostgresUser:     getEnv("POSTGRES_USER", "scraper"),
		PostgresPassword: getEnv("POSTGRES_PASSWORD", "scraper123"),
		PostgresDB:       getEnv("POSTGRES_DB", "products_db"),
		PostgresSSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),
	}
}

// DSN returns the PostgreSQL connection string.
func (c *Config) DSN() string {
	return "host=" + c.PostgresHost +
		" port=" + c.PostgresPort +
		" user=" + c.PostgresUser +
		" password=" + c.PostgresPassword +
		" dbname=" + c.PostgresDB +
		" sslmode=" + c.PostgresSSLMode
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		n, err := strconv.Atoi(val)
		if err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		return val == "true" || val == "1" || val == "yes"
	}
	return fallback
}
