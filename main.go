package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"sjsage522/pricewatcher/config"
	"sjsage522/pricewatcher/internal/crawler"
	"sjsage522/pricewatcher/logger"
	"sjsage522/pricewatcher/services/cache"
	"sjsage522/pricewatcher/services/dedup"
	"sjsage522/pricewatcher/services/metrics"
	"sjsage522/pricewatcher/services/notifier"
	"sjsage522/pricewatcher/services/status"
	"sjsage522/pricewatcher/services/worker"
)

func main() {
	once := flag.Bool("once", false, "run a single scan cycle and exit")
	resetSeen := flag.Bool("reset-seen", false, "forget previously alerted products before starting")
	flag.Parse()

	// Load environment variables
	_ = godotenv.Load()

	// Initialize logger first
	logger.Init()
	log := logger.Default

	// Load and validate configuration
	cfg := config.LoadConfig()
	if err := cfg.Validate(); err != nil {
		log.Error().Err(err).Msg("Invalid configuration")
		os.Exit(1)
	}

	log.Info().
		Str("environment", cfg.Environment).
		Str("site", cfg.SiteName).
		Str("base_url", cfg.BaseURL).
		Float64("max_price", cfg.MaxPrice).
		Dur("check_interval", cfg.CrawlInterval).
		Msg("Starting application")

	// Stop on SIGINT/SIGTERM
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	services, err := initializeServices(ctx, cfg)
	if err != nil {
		log.Error().Err(err).Msg("Failed to initialize services")
		os.Exit(1)
	}
	defer services.Cleanup()

	if *resetSeen {
		if err := services.Store.Reset(ctx); err != nil {
			log.Error().Err(err).Msg("Failed to reset seen products")
			os.Exit(1)
		}
		log.Info().Msg("Seen products cleared")
	}

	if services.Status != nil {
		go func() {
			if err := services.Status.Run(ctx); err != nil {
				log.Error().Err(err).Msg("Status server failed")
			}
		}()
	}

	if *once {
		summary := services.Worker.RunCycle(ctx)
		log.Info().
			Int("checked", summary.Checked).
			Int("found", summary.Found).
			Int("error_categories", summary.ErrorCategories).
			Msg("Single cycle finished")
		return
	}

	services.Worker.Start(ctx)
	log.Info().Msg("Shutting down gracefully...")
}

// Services holds all the initialized services
type Services struct {
	Fetcher  *crawler.HTTPFetcher
	Store    *dedup.Store
	Notifier notifier.Notifier
	Metrics  *metrics.Metrics
	Worker   *worker.Worker
	Status   *status.Server
	redis    *redis.Client
}

// Cleanup cleans up all services
func (s *Services) Cleanup() {
	if s.Notifier != nil {
		if err := s.Notifier.Close(); err != nil {
			logger.LogError("main", err, "Failed to close notifier")
		}
	}
	if s.redis != nil {
		s.redis.Close()
	}
}

// initializeServices wires the crawl engine from cfg
func initializeServices(ctx context.Context, cfg *config.Config) (*Services, error) {
	services := &Services{Metrics: metrics.NewMetrics()}

	// Redis backs the seen set and the alert stream; connect only if either is used
	if cfg.RedisAddr != "" && (cfg.SeenStore == "redis" || cfg.RedisStream != "") {
		client := redis.NewClient(&redis.Options{
			Addr: cfg.RedisAddr,
			DB:   cfg.RedisDB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			client.Close()
			if cfg.SeenStore == "redis" {
				return nil, fmt.Errorf("redis is required for SEEN_STORE=redis: %w", err)
			}
			logger.Warn("Redis at %s is unreachable, redis features disabled: %v", cfg.RedisAddr, err)
		} else {
			services.redis = client
			logger.Info("Connected to Redis at %s (DB: %d)", cfg.RedisAddr, cfg.RedisDB)
		}
	}

	// Seen store
	var backend dedup.Backend
	switch cfg.SeenStore {
	case "redis":
		if services.redis == nil {
			return nil, errors.New("SEEN_STORE=redis requires REDIS_ADDR")
		}
		backend = dedup.NewRedisBackend(services.redis, cfg.RedisSeenKey)
	default:
		backend = dedup.NewFileBackend(cfg.SeenFile)
	}
	services.Store = dedup.NewStore(ctx, backend)

	// Rate limit blocks live in memcache when available so restarts honor them
	var blocks cache.CacheService = cache.NewMemoryService(cfg.BlockDuration())
	if cfg.MemcacheAddr != "" {
		mc := cache.NewMemcacheService(cfg.MemcacheAddr, "pricewatch:")
		if err := mc.Ping(); err != nil {
			logger.Warn("Memcache at %s is unreachable, using in-process rate limit cache: %v", cfg.MemcacheAddr, err)
		} else {
			blocks = mc
			logger.Info("Connected to Memcache at %s", cfg.MemcacheAddr)
		}
	}

	services.Fetcher = crawler.NewHTTPFetcher(cfg,
		crawler.WithRateLimitCache(blocks, cfg.BlockDuration()),
		crawler.WithPageCache(cfg.PageCacheSize, cfg.PageCacheTTL),
		crawler.WithMetrics(services.Metrics),
	)

	// Notification channels
	var channels notifier.Multi
	if cfg.TelegramEnabled {
		channels = append(channels, notifier.NewTelegramNotifier(cfg.TelegramToken, cfg.TelegramChatID).WithAPIBase(cfg.TelegramAPIURL))
	}
	if services.redis != nil && cfg.RedisStream != "" {
		channels = append(channels, notifier.NewRedisStreamNotifier(services.redis, cfg.RedisStream, cfg.RedisStreamMaxLength))
	}
	if len(channels) == 0 {
		logger.Warn("No notification channel configured, alerts go to the log only")
		channels = append(channels, notifier.NewLogNotifier())
	}
	services.Notifier = channels

	patterns := crawler.DefaultPatterns()
	discoverer, err := crawler.NewCategoryDiscoverer(services.Fetcher, cfg.BaseURL, patterns, cfg.ExcludedURLPatterns)
	if err != nil {
		return nil, err
	}
	extractor, err := crawler.NewExtractor(cfg.BaseURL, patterns, cfg.ExcludedURLPatterns)
	if err != nil {
		return nil, err
	}

	services.Worker = worker.NewWorker(cfg, worker.Deps{
		Categories: discoverer,
		Pages:      crawler.NewPaginator(services.Fetcher, patterns),
		Fetcher:    services.Fetcher,
		Extractor:  extractor,
		Store:      services.Store,
		Notifier:   services.Notifier,
		Metrics:    services.Metrics,
	})

	if cfg.StatusAddr != "" {
		services.Status = status.NewServer(cfg, services.Worker, services.Metrics)
	}

	return services, nil
}
