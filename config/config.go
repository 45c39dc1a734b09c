package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config represents the application configuration
type Config struct {
	// Target site
	BaseURL  string
	SiteName string

	// Scan configuration
	MaxPrice            float64
	CrawlInterval       time.Duration
	Workers             int
	MaxPagesPerCategory int
	ExcludedURLPatterns []string

	// HTTP configuration
	RequestDelay   time.Duration
	RequestTimeout time.Duration
	MaxRetries     int
	RetryBackoff   time.Duration
	UserAgent      string

	// Page cache configuration
	PageCacheSize int
	PageCacheTTL  time.Duration

	// Seen store configuration
	SeenStore    string
	SeenFile     string
	RedisSeenKey string

	// Redis configuration
	RedisAddr            string
	RedisDB              int
	RedisStream          string
	RedisStreamMaxLength int

	// Memcache configuration
	MemcacheAddr   string
	RateLimitBlock time.Duration

	// Telegram configuration
	TelegramEnabled bool
	TelegramToken   string
	TelegramChatID  string
	TelegramAPIURL  string

	// Status server
	StatusAddr string

	// Environment
	Environment string
}

// LoadConfig loads the configuration from environment variables with defaults
func LoadConfig() *Config {
	maxPrice, _ := strconv.ParseFloat(getEnv("MAX_PRICE", "10"), 64)
	crawlInterval, _ := strconv.Atoi(getEnv("CHECK_INTERVAL_SECONDS", "60"))
	workers, _ := strconv.Atoi(getEnv("PARALLEL_WORKERS", "3"))
	maxPages, _ := strconv.Atoi(getEnv("MAX_PAGES_PER_CATEGORY", "50"))
	requestDelay, _ := strconv.Atoi(getEnv("REQUEST_DELAY_MS", "400"))
	requestTimeout, _ := strconv.Atoi(getEnv("REQUEST_TIMEOUT_SECONDS", "15"))
	maxRetries, _ := strconv.Atoi(getEnv("MAX_RETRIES", "3"))
	retryBackoff, _ := strconv.Atoi(getEnv("RETRY_BACKOFF_MS", "1000"))
	pageCacheSize, _ := strconv.Atoi(getEnv("PAGE_CACHE_SIZE", "256"))
	pageCacheTTL, _ := strconv.Atoi(getEnv("PAGE_CACHE_TTL_SECONDS", "30"))
	redisDB, _ := strconv.Atoi(getEnv("REDIS_DB", "0"))
	streamMaxLength, _ := strconv.Atoi(getEnv("REDIS_STREAM_MAX_LENGTH", "1000"))
	blockTime, _ := strconv.Atoi(getEnv("RATE_LIMIT_BLOCK_SECONDS", "300"))
	telegramEnabled, _ := strconv.ParseBool(getEnv("TELEGRAM_ENABLED", "false"))

	return &Config{
		BaseURL:              strings.TrimSpace(os.Getenv("BASE_URL")),
		SiteName:             getEnv("SITE_NAME", "Price"),
		MaxPrice:             maxPrice,
		CrawlInterval:        time.Duration(crawlInterval) * time.Second,
		Workers:              workers,
		MaxPagesPerCategory:  maxPages,
		ExcludedURLPatterns:  splitList(getEnv("EXCLUDED_URL_PATTERNS", "gift-card,voucher,gift-certificate")),
		RequestDelay:         time.Duration(requestDelay) * time.Millisecond,
		RequestTimeout:       time.Duration(requestTimeout) * time.Second,
		MaxRetries:           maxRetries,
		RetryBackoff:         time.Duration(retryBackoff) * time.Millisecond,
		UserAgent:            getEnv("USER_AGENT", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"),
		PageCacheSize:        pageCacheSize,
		PageCacheTTL:         time.Duration(pageCacheTTL) * time.Second,
		SeenStore:            strings.ToLower(getEnv("SEEN_STORE", "file")),
		SeenFile:             getEnv("SEEN_FILE", "seen_products.json"),
		RedisSeenKey:         getEnv("REDIS_SEEN_KEY", "pricewatch:seen"),
		RedisAddr:            getEnv("REDIS_ADDR", "localhost:6379"),
		RedisDB:              redisDB,
		RedisStream:          os.Getenv("REDIS_STREAM"),
		RedisStreamMaxLength: streamMaxLength,
		MemcacheAddr:         os.Getenv("MEMCACHE_ADDR"),
		RateLimitBlock:       time.Duration(blockTime) * time.Second,
		TelegramEnabled:      telegramEnabled,
		TelegramToken:        os.Getenv("TELEGRAM_TOKEN"),
		TelegramChatID:       os.Getenv("TELEGRAM_CHAT_ID"),
		TelegramAPIURL:       strings.TrimSuffix(getEnv("TELEGRAM_API_URL", "https://api.telegram.org"), "/"),
		StatusAddr:           os.Getenv("STATUS_ADDR"),
		Environment:          getEnv("PRICEWATCH_ENVIRONMENT", "development"),
	}
}

// Validate checks that the configuration can drive a scan
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("base URL is required (set BASE_URL)")
	}
	parsed, err := url.Parse(c.BaseURL)
	if err != nil {
		return fmt.Errorf("invalid base URL %q: %w", c.BaseURL, err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("base URL %q must use http or https", c.BaseURL)
	}
	if parsed.Host == "" {
		return fmt.Errorf("base URL %q must include a host", c.BaseURL)
	}

	if c.MaxPrice <= 0 {
		return fmt.Errorf("max price must be positive")
	}
	if c.CrawlInterval <= 0 {
		return fmt.Errorf("check interval must be positive")
	}
	if c.Workers < 1 {
		return fmt.Errorf("parallel workers must be at least 1")
	}
	if c.MaxPagesPerCategory < 1 {
		return fmt.Errorf("max pages per category must be at least 1")
	}
	if c.RequestDelay < 0 {
		return fmt.Errorf("request delay cannot be negative")
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("request timeout must be positive")
	}
	if c.MaxRetries < 1 {
		return fmt.Errorf("max retries must be at least 1")
	}
	if c.RetryBackoff < 0 {
		return fmt.Errorf("retry backoff cannot be negative")
	}
	if c.PageCacheSize > 0 && c.PageCacheTTL >= c.CrawlInterval {
		return fmt.Errorf("page cache TTL (%s) must be shorter than the check interval (%s)", c.PageCacheTTL, c.CrawlInterval)
	}

	switch c.SeenStore {
	case "file":
		if c.SeenFile == "" {
			return fmt.Errorf("seen file cannot be empty")
		}
	case "redis":
		if c.RedisSeenKey == "" {
			return fmt.Errorf("redis seen key cannot be empty")
		}
	default:
		return fmt.Errorf("seen store must be file or redis, got %q", c.SeenStore)
	}

	if c.TelegramEnabled && (c.TelegramToken == "" || c.TelegramChatID == "") {
		return fmt.Errorf("telegram is enabled but TELEGRAM_TOKEN or TELEGRAM_CHAT_ID is missing")
	}

	return nil
}

// BlockDuration returns how long a rate limited host stays blocked. It never
// exceeds one check interval.
func (c *Config) BlockDuration() time.Duration {
	if c.CrawlInterval > 0 && c.RateLimitBlock > c.CrawlInterval {
		return c.CrawlInterval
	}
	return c.RateLimitBlock
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		part = strings.ToLower(strings.TrimSpace(part))
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}
