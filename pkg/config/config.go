package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Supported snapshot output formats
const (
	FormatJSON    = "json"
	FormatParquet = "parquet"
)

// Config holds all configuration for the application
// ⭐ SSOT: 모든 환경변수는 여기서만 읽음
type Config struct {
	// Server
	Port string
	Env  string // development, staging, production

	// Market
	Timezone string // exchange timezone, trading dates are resolved in it

	// Upstream feed
	Feed FeedConfig

	// Input / output files
	Data DataConfig

	// Database (optional snapshot archive)
	Database DatabaseConfig

	// Redis (optional snapshot publish)
	Redis RedisConfig

	// Scheduler
	Schedule ScheduleConfig

	// Logging
	LogLevel  string
	LogFormat string

	// Monitoring
	MetricsEnabled bool
	MetricsPort    string
}

// FeedConfig holds upstream tick feed configuration
type FeedConfig struct {
	Name           string        // feed mapping name in feeds.yaml
	TickURL        string        // {date} is replaced with YYYY-MM-DD
	CircuitURL     string        // last-traded-state endpoint for circuit bands
	MappingFile    string        // optional feeds.yaml
	UserAgent      string
	LookbackDays   int
	AttemptTimeout time.Duration
	RateLimit      float64 // requests per second
	MaxRetries     int
	SkipClosedDays bool     // skip weekends and exchange holidays without a request
	ExtraHolidays  []string // YYYY-MM-DD, added to the built-in holiday list
}

// DataConfig holds reference input paths and snapshot output settings
type DataConfig struct {
	SectorFile   string
	ExtremesFile string
	CircuitFile  string
	HistoryFile  string

	OutputDir     string
	UniverseFile  string   // file name inside OutputDir
	VersionFile   string   // file name inside OutputDir
	OutputFormats []string // json, parquet
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	Enabled  bool
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	Host     string
	Port     string
	Name     string
	User     string
	Password string
	URL      string

	// Connection Pool
	MaxConns        int
	MinConns        int
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// Enabled reports whether snapshot persistence to Postgres is configured
func (d DatabaseConfig) Enabled() bool {
	return d.URL != ""
}

// ScheduleConfig holds the cron expression of the daily snapshot job
type ScheduleConfig struct {
	Snapshot string // 6-field cron (with seconds)
	Circuit  string // circuit band refresh
}

// Location returns the exchange timezone, UTC if it cannot be loaded
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// UniversePath returns the full path of the snapshot output
func (c *Config) UniversePath() string {
	return filepath.Join(c.Data.OutputDir, c.Data.UniverseFile)
}

// VersionPath returns the full path of the version marker
func (c *Config) VersionPath() string {
	return filepath.Join(c.Data.OutputDir, c.Data.VersionFile)
}

// Load reads configuration from environment variables
// ⭐ SSOT: 이 함수만 os.Getenv()를 호출함
func Load() (*Config, error) {
	// Try multiple paths for .env file
	loadEnvFile()

	dataDir := getEnv("DATA_DIR", "scripts")

	cfg := &Config{
		// Server
		Port: getEnv("PORT", "8089"),
		Env:  getEnv("ENV", "development"),

		Timezone: getEnv("MARKET_TIMEZONE", "Asia/Kolkata"),

		Feed: FeedConfig{
			Name:           getEnv("FEED_NAME", "strike"),
			TickURL:        getEnv("FEED_TICK_URL", "https://api-v2a.strike.money/v2/api/equity/priceticks?securities=EQ%3A*&onlyFaoStocks=false&candleInterval=1d&dateTimes={date}"),
			CircuitURL:     getEnv("FEED_CIRCUIT_URL", "https://api-v2.strike.money/v2/api/equity/last-traded-state?securities=EQ%3A*"),
			MappingFile:    getEnv("FEED_MAPPING_FILE", "feeds.yaml"),
			UserAgent:      getEnv("FEED_USER_AGENT", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36"),
			LookbackDays:   getEnvAsInt("FEED_LOOKBACK_DAYS", 30),
			AttemptTimeout: getEnvAsDuration("FEED_ATTEMPT_TIMEOUT", "30s"),
			RateLimit:      getEnvAsFloat("FEED_RATE_LIMIT", 2),
			MaxRetries:     getEnvAsInt("FEED_MAX_RETRIES", 3),
			SkipClosedDays: getEnvAsBool("FEED_SKIP_CLOSED_DAYS", false),
			ExtraHolidays:  getEnvAsList("MARKET_HOLIDAYS", nil),
		},

		Data: DataConfig{
			SectorFile:    getEnv("SECTOR_FILE", filepath.Join(dataDir, "Sector_Industry.json")),
			ExtremesFile:  getEnv("EXTREMES_FILE", filepath.Join(dataDir, "52_wk_High_Low.json")),
			CircuitFile:   getEnv("CIRCUIT_FILE", filepath.Join(dataDir, "circuit_limits.json")),
			HistoryFile:   getEnv("HISTORY_FILE", filepath.Join(dataDir, "stock_historical_universe.json")),
			OutputDir:     getEnv("OUTPUT_DIR", filepath.Join("static", "data")),
			UniverseFile:  getEnv("UNIVERSE_FILE", "stock_universe.json"),
			VersionFile:   getEnv("VERSION_FILE", "data_version.json"),
			OutputFormats: getEnvAsList("OUTPUT_FORMATS", []string{FormatJSON}),
		},

		// Database
		Database: DatabaseConfig{
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnv("DB_PORT", "5432"),
			Name:            getEnv("DB_NAME", "universe"),
			User:            getEnv("DB_USER", "universe"),
			Password:        getEnv("DB_PASSWORD", ""),
			URL:             getEnv("DATABASE_URL", ""),
			MaxConns:        getEnvAsInt("DB_MAX_CONNS", 10),
			MinConns:        getEnvAsInt("DB_MIN_CONNS", 1),
			MaxConnLifetime: getEnvAsDuration("DB_MAX_CONN_LIFETIME", "1h"),
			MaxConnIdleTime: getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", "30m"),
		},

		// Redis
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			Enabled:  getEnvAsBool("REDIS_ENABLED", false),
		},

		Schedule: ScheduleConfig{
			Snapshot: getEnv("SCHEDULE_SNAPSHOT", "0 45 15 * * 1-5"),
			Circuit:  getEnv("SCHEDULE_CIRCUIT", "0 30 8 * * 1-5"),
		},

		// Logging
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),

		// Monitoring
		MetricsEnabled: getEnvAsBool("METRICS_ENABLED", true),
		MetricsPort:    getEnv("METRICS_PORT", "9090"),
	}

	// Validate configuration
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// validate checks if required configuration values are set
func (c *Config) validate() error {
	// Validate environment
	if c.Env != "development" && c.Env != "staging" && c.Env != "production" {
		return fmt.Errorf("ENV must be one of: development, staging, production")
	}

	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("MARKET_TIMEZONE %q: %w", c.Timezone, err)
	}

	if c.Feed.LookbackDays <= 0 {
		return fmt.Errorf("FEED_LOOKBACK_DAYS must be positive, got %d", c.Feed.LookbackDays)
	}

	if !strings.Contains(c.Feed.TickURL, "{date}") {
		return fmt.Errorf("FEED_TICK_URL must contain a {date} placeholder")
	}

	if len(c.Data.OutputFormats) == 0 {
		return fmt.Errorf("OUTPUT_FORMATS must not be empty")
	}
	hasJSON := false
	for _, f := range c.Data.OutputFormats {
		if f != FormatJSON && f != FormatParquet {
			return fmt.Errorf("OUTPUT_FORMATS: unknown format %q", f)
		}
		hasJSON = hasJSON || f == FormatJSON
	}
	// the API and the dashboard read the json snapshot
	if !hasJSON {
		return fmt.Errorf("OUTPUT_FORMATS must include %q", FormatJSON)
	}

	return nil
}

// Helper functions (private, only used within this file)

// loadEnvFile tries to load .env from multiple locations
func loadEnvFile() {
	// Try paths in order of priority
	paths := []string{
		".env",         // Current directory
		"scripts/.env", // From project root
	}

	// Also try relative to executable
	if exe, err := os.Executable(); err == nil {
		exeDir := filepath.Dir(exe)
		paths = append(paths,
			filepath.Join(exeDir, ".env"),
			filepath.Join(exeDir, "..", ".env"),
		)
	}

	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			return
		}
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		valueStr = defaultValue
	}

	duration, err := time.ParseDuration(valueStr)
	if err != nil {
		// Fallback to default
		duration, _ = time.ParseDuration(defaultValue)
	}

	return duration
}

// getEnvAsList splits a comma separated value, lower-cased and trimmed
func getEnvAsList(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	var out []string
	for _, part := range strings.Split(valueStr, ",") {
		if p := strings.ToLower(strings.TrimSpace(part)); p != "" {
			out = append(out, p)
		}
	}
	return out
}
