package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	defaultHTTPAddr    = ":8080"
	defaultMetricsAddr = ":9090"
	defaultCachePath   = "data/asset-cache.json"

	defaultAutoImportInterval  = 30 * time.Minute
	defaultAutoImportBatchSize = 10
	defaultCacheMaxAge         = 24 * time.Hour
)

type Config struct {
	PlatformAPIURL string
	PlatformAPIKey string
	CatalogAPIURL  string
	CatalogToken   string

	HTTPAddr    string
	MetricsAddr string

	DefaultCompanyID    int64
	AutoImportInterval  time.Duration
	AutoImportBatchSize int
	CacheMaxAge         time.Duration
	CachePath           string
}

type LoadOptions struct {
	RequirePlatform bool
}

func Load() (Config, error) {
	return LoadWithOptions(LoadOptions{RequirePlatform: true})
}

func LoadOptionalPlatform() (Config, error) {
	return LoadWithOptions(LoadOptions{RequirePlatform: false})
}

func LoadWithOptions(opts LoadOptions) (Config, error) {
	if err := godotenv.Load(); err != nil {
		var pathErr *os.PathError
		if !errors.As(err, &pathErr) {
			return Config{}, err
		}
	}

	cfg := Config{
		PlatformAPIURL:      strings.TrimRight(strings.TrimSpace(os.Getenv("PLATFORM_API_URL")), "/"),
		PlatformAPIKey:      strings.TrimSpace(os.Getenv("PLATFORM_API_KEY")),
		CatalogAPIURL:       strings.TrimRight(strings.TrimSpace(os.Getenv("CATALOG_API_URL")), "/"),
		CatalogToken:        strings.TrimSpace(os.Getenv("CATALOG_TOKEN")),
		HTTPAddr:            getenvDefault("HTTP_ADDR", defaultHTTPAddr),
		MetricsAddr:         getenvDefault("METRICS_ADDR", defaultMetricsAddr),
		AutoImportInterval:  defaultAutoImportInterval,
		AutoImportBatchSize: getenvIntDefault("AUTO_IMPORT_BATCH_SIZE", defaultAutoImportBatchSize),
		CacheMaxAge:         defaultCacheMaxAge,
		CachePath:           getenvDefault("CACHE_PATH", defaultCachePath),
	}

	if v := strings.TrimSpace(os.Getenv("DEFAULT_COMPANY_ID")); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil || id <= 0 {
			return cfg, errors.New("DEFAULT_COMPANY_ID must be a positive integer")
		}
		cfg.DefaultCompanyID = id
	}
	if v := os.Getenv("AUTO_IMPORT_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			cfg.AutoImportInterval = d
		}
	}
	if v := os.Getenv("CACHE_MAX_AGE"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			cfg.CacheMaxAge = d
		}
	}

	if opts.RequirePlatform {
		if cfg.PlatformAPIURL == "" {
			return cfg, errors.New("PLATFORM_API_URL is required")
		}
		if cfg.PlatformAPIKey == "" {
			return cfg, errors.New("PLATFORM_API_KEY is required")
		}
	}

	return cfg, nil
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvIntDefault(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 {
		return def
	}
	return n
}
