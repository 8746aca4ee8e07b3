// Package config provides configuration management functionality.
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

// Output layout below DataDir
const (
	PricesDirName          = "MERVAL_Datos_Limpio"
	FundamentalsDirName    = "MERVAL_Fundamentales"
	FundamentalsFileName   = "MERVAL_Fundamentales_Completo.csv"
	BolsamaniaDirName      = "MERVAL_Datos"
	InvestingDirName       = "MERVAL_Descargadas"
	RecommendationFileName = "MERVAL_Analisis_Recomendaciones.csv"
	HistoryDBFileName      = "merval.db"
)

// Config holds application configuration
type Config struct {
	DataDir    string // Root of every output directory (always absolute)
	LogLevel   string
	LogPretty  bool
	HistoryDB  string // Empty when the history store is disabled
	Schedule   string // Cron expression for the fetcher; empty runs once
	Yahoo      YahooConfig
	Fetch      FetchConfig
	Bolsamania BolsamaniaConfig
	Chrome     ChromeConfig
	Storage    *StorageConfig // nil when publishing is disabled
}

// YahooConfig selects and configures the Yahoo Finance client
type YahooConfig struct {
	Client       string // "http" or "native"
	BaseURL      string
	HistoryYears int
}

// FetchConfig holds the retry and pacing policy shared by all fetchers
type FetchConfig struct {
	MaxAttempts  int
	RetryDelay   time.Duration
	RequestDelay time.Duration
}

// BolsamaniaConfig configures the Bolsamania downloader
type BolsamaniaConfig struct {
	BaseURL string
	Days    int
}

// ChromeConfig configures the headless browser used for Investing.com
type ChromeConfig struct {
	Headless bool
	Timeout  time.Duration
}

// StorageConfig holds S3-compatible object storage settings for publishing CSVs
type StorageConfig struct {
	Bucket          string
	Endpoint        string // Custom endpoint for R2/MinIO; empty uses AWS
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	Prefix          string
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	dataDir, err := filepath.Abs(getEnv("MERVAL_DATA_DIR", "."))
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data directory path: %w", err)
	}

	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	cfg := &Config{
		DataDir:   dataDir,
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogPretty: getEnvAsBool("LOG_PRETTY", true),
		Schedule:  strings.TrimSpace(getEnv("FETCH_SCHEDULE", "")),
		Yahoo: YahooConfig{
			Client:       strings.ToLower(getEnv("YAHOO_CLIENT", "http")),
			BaseURL:      strings.TrimRight(getEnv("YAHOO_BASE_URL", "https://query1.finance.yahoo.com"), "/"),
			HistoryYears: getEnvAsInt("HISTORY_YEARS", 5),
		},
		Fetch: FetchConfig{
			MaxAttempts:  getEnvAsInt("FETCH_MAX_ATTEMPTS", 2),
			RetryDelay:   getEnvAsDuration("FETCH_RETRY_DELAY", time.Second),
			RequestDelay: getEnvAsDuration("FETCH_REQUEST_DELAY", 500*time.Millisecond),
		},
		Bolsamania: BolsamaniaConfig{
			BaseURL: strings.TrimRight(getEnv("BOLSAMANIA_BASE_URL", "https://www.bolsamania.com"), "/"),
			Days:    getEnvAsInt("BOLSAMANIA_DAYS", 180),
		},
		Chrome: ChromeConfig{
			Headless: getEnvAsBool("CHROME_HEADLESS", true),
			Timeout:  getEnvAsDuration("CHROME_TIMEOUT", 45*time.Second),
		},
		Storage: loadStorageConfig(),
	}

	switch history := getEnv("HISTORY_DB", ""); strings.ToLower(history) {
	case "":
		cfg.HistoryDB = filepath.Join(dataDir, HistoryDBFileName)
	case "off", "false", "none":
		cfg.HistoryDB = ""
	default:
		cfg.HistoryDB = history
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks that the configuration is usable
func (c *Config) Validate() error {
	if c.Yahoo.Client != "http" && c.Yahoo.Client != "native" {
		return fmt.Errorf("YAHOO_CLIENT must be \"http\" or \"native\", got %q", c.Yahoo.Client)
	}
	if c.Yahoo.HistoryYears <= 0 {
		return fmt.Errorf("HISTORY_YEARS must be positive, got %d", c.Yahoo.HistoryYears)
	}
	if c.Bolsamania.Days <= 0 {
		return fmt.Errorf("BOLSAMANIA_DAYS must be positive, got %d", c.Bolsamania.Days)
	}
	if c.Fetch.MaxAttempts < 1 {
		return fmt.Errorf("FETCH_MAX_ATTEMPTS must be at least 1, got %d", c.Fetch.MaxAttempts)
	}
	if c.Fetch.RetryDelay < 0 || c.Fetch.RequestDelay < 0 {
		return fmt.Errorf("fetch delays must not be negative")
	}
	if c.Storage != nil && (c.Storage.AccessKeyID == "") != (c.Storage.SecretAccessKey == "") {
		return fmt.Errorf("S3_ACCESS_KEY_ID and S3_SECRET_ACCESS_KEY must be set together")
	}
	return nil
}

// PricesDir is where the cleaned Yahoo price files go
func (c *Config) PricesDir() string {
	return filepath.Join(c.DataDir, PricesDirName)
}

// FundamentalsDir holds the consolidated fundamentals table
func (c *Config) FundamentalsDir() string {
	return filepath.Join(c.DataDir, FundamentalsDirName)
}

// FundamentalsPath is the consolidated fundamentals CSV read by the recommender
func (c *Config) FundamentalsPath() string {
	return filepath.Join(c.FundamentalsDir(), FundamentalsFileName)
}

// BolsamaniaDir holds the Bolsamania six-month files
func (c *Config) BolsamaniaDir() string {
	return filepath.Join(c.DataDir, BolsamaniaDirName)
}

// InvestingDir holds the Investing.com files
func (c *Config) InvestingDir() string {
	return filepath.Join(c.DataDir, InvestingDirName)
}

// RecommendationsPath is the ranked output of the recommender
func (c *Config) RecommendationsPath() string {
	return filepath.Join(c.DataDir, RecommendationFileName)
}

func loadStorageConfig() *StorageConfig {
	bucket := getEnv("S3_BUCKET", "")
	if bucket == "" {
		return nil
	}
	return &StorageConfig{
		Bucket:          bucket,
		Endpoint:        getEnv("S3_ENDPOINT", ""),
		Region:          getEnv("S3_REGION", "auto"),
		AccessKeyID:     getEnv("S3_ACCESS_KEY_ID", ""),
		SecretAccessKey: getEnv("S3_SECRET_ACCESS_KEY", ""),
		Prefix:          strings.Trim(getEnv("S3_PREFIX", "merval"), "/"),
	}
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
