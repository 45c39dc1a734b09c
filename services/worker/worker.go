package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"sjsage522/pricewatcher/config"
	"sjsage522/pricewatcher/helpers"
	"sjsage522/pricewatcher/internal/crawler"
	"sjsage522/pricewatcher/logger"
	apperrors "sjsage522/pricewatcher/pkg/errors"
	"sjsage522/pricewatcher/services/dedup"
	"sjsage522/pricewatcher/services/metrics"
	"sjsage522/pricewatcher/services/notifier"
)

// progressEvery is how many finished categories trigger a progress log
const progressEvery = 5

const (
	// flushTimeout bounds the end-of-cycle persistence and summary delivery
	flushTimeout = 10 * time.Second
	// alertTimeout bounds one product alert
	alertTimeout = 15 * time.Second

	logTitleLength = 80
)

// CategorySource lists the categories to scan in a cycle
type CategorySource interface {
	Discover(ctx context.Context) []string
}

// PageSource lists the pages of a category, sorted first page first
type PageSource interface {
	Pages(ctx context.Context, category string) []string
}

// Extractor turns a listing page into products
type Extractor interface {
	Extract(body []byte, pageURL string) ([]crawler.Product, error)
}

// Deps are the collaborators a Worker drives
type Deps struct {
	Categories CategorySource
	Pages      PageSource
	Fetcher    crawler.Fetcher
	Extractor  Extractor
	Store      *dedup.Store
	Notifier   notifier.Notifier
	Metrics    *metrics.Metrics
}

// ScanOutcome is the result of one category task
type ScanOutcome struct {
	Category string
	// Checked counts products at or under the threshold
	Checked  int
	Found    int
	Err      error
}

// Failed reports whether the category hit an error
func (o ScanOutcome) Failed() bool {
	return o.Err != nil
}

// CycleSummary aggregates the outcomes of one cycle
type CycleSummary struct {
	ID              string        `json:"id"`
	Iteration       int           `json:"iteration"`
	StartedAt       time.Time     `json:"started_at"`
	Categories      int           `json:"categories"`
	Checked         int           `json:"checked"`
	Found           int           `json:"found"`
	ErrorCategories int           `json:"error_categories"`
	Duration        time.Duration `json:"duration"`
	Canceled        bool          `json:"canceled"`
}

// Stats converts the summary to notification stats
func (s CycleSummary) Stats(threshold float64) notifier.CycleStats {
	return notifier.CycleStats{
		Iteration:       s.Iteration,
		Checked:         s.Checked,
		Found:           s.Found,
		ErrorCategories: s.ErrorCategories,
		Threshold:       threshold,
		Elapsed:         s.Duration,
	}
}

// Worker runs scan cycles over every discovered category
type Worker struct {
	deps      Deps
	threshold float64
	workers   int
	maxPages  int
	interval  time.Duration
	log       *logger.Logger

	mu        sync.RWMutex
	iteration int
	last      *CycleSummary
}

// NewWorker creates a worker from the scan section of cfg
func NewWorker(cfg *config.Config, deps Deps) *Worker {
	if deps.Notifier == nil {
		deps.Notifier = notifier.NewLogNotifier()
	}
	if deps.Store == nil {
		deps.Store = dedup.NewStore(context.Background(), nil)
	}
	workers := cfg.Workers
	if workers < 1 {
		workers = 1
	}
	return &Worker{
		deps:      deps,
		threshold: cfg.MaxPrice,
		workers:   workers,
		maxPages:  cfg.MaxPagesPerCategory,
		interval:  cfg.CrawlInterval,
		log:       logger.ForWorker(),
	}
}

// Start runs cycles until ctx is canceled
func (w *Worker) Start(ctx context.Context) {
	w.log.Info().
		Float64("max_price", w.threshold).
		Int("workers", w.workers).
		Dur("interval", w.interval).
		Msg("Price monitor started")

	for {
		w.RunCycle(ctx)
		if ctx.Err() != nil {
			break
		}

		w.log.Debug().Dur("sleep", w.interval).Msg("Waiting for next cycle")
		if !wait(ctx, w.interval) {
			break
		}
	}

	w.log.Info().Msg("Price monitor stopped")
}

// RunCycle discovers categories, scans them on the pool and persists the
// seen set. It never fails; errors surface as counts in the summary.
func (w *Worker) RunCycle(ctx context.Context) CycleSummary {
	w.mu.Lock()
	w.iteration++
	summary := CycleSummary{
		ID:        uuid.NewString(),
		Iteration: w.iteration,
		StartedAt: time.Now(),
	}
	w.mu.Unlock()

	log := w.log.WithFields(logger.Fields{"cycle_id": summary.ID, "iteration": summary.Iteration})
	log.Info().Msg("Starting scan cycle")

	if purger, ok := w.deps.Fetcher.(interface{ Purge() }); ok {
		purger.Purge()
	}

	categories := w.deps.Categories.Discover(ctx)
	summary.Categories = len(categories)
	if len(categories) == 0 {
		log.Warn().Msg("No categories found, nothing to scan")
	} else {
		log.Info().Int("categories", len(categories)).Msg("Scanning categories")
	}

	completed := 0
	for outcome := range w.scanAll(ctx, categories) {
		completed++
		summary.Checked += outcome.Checked
		summary.Found += outcome.Found
		if outcome.Failed() {
			summary.ErrorCategories++
			w.deps.Metrics.IncCategoryError()
			log.Warn().Err(outcome.Err).Str("category", outcome.Category).Msg("Category finished with errors")
		}
		if completed%progressEvery == 0 {
			log.Info().
				Int("completed", completed).
				Int("total", len(categories)).
				Int("checked", summary.Checked).
				Int("found", summary.Found).
				Msg("Scan progress")
		}
	}

	summary.Duration = time.Since(summary.StartedAt)
	summary.Canceled = ctx.Err() != nil
	w.finish(ctx, log, summary)
	return summary
}

// LastSummary returns the most recent finished cycle
func (w *Worker) LastSummary() (CycleSummary, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.last == nil {
		return CycleSummary{}, false
	}
	return *w.last, true
}

// SeenKeys returns the size of the seen set
func (w *Worker) SeenKeys() int {
	return w.deps.Store.Len()
}

// scanAll runs one task per category on a bounded pool and streams outcomes
// in completion order.
func (w *Worker) scanAll(ctx context.Context, categories []string) <-chan ScanOutcome {
	results := make(chan ScanOutcome, len(categories))

	go func() {
		defer close(results)

		var g errgroup.Group
		g.SetLimit(w.workers)
		for _, category := range categories {
			if ctx.Err() != nil {
				break
			}
			category := category
			g.Go(func() error {
				results <- w.scanCategory(ctx, category)
				return nil
			})
		}
		_ = g.Wait()
	}()

	return results
}

// scanCategory walks the pages of one category in order. Failures and panics
// are contained in the returned outcome.
func (w *Worker) scanCategory(ctx context.Context, category string) (outcome ScanOutcome) {
	outcome.Category = category
	log := w.log.WithStr("category", category)

	defer func() {
		if r := recover(); r != nil {
			outcome.Err = apperrors.NewCategory(category, fmt.Sprintf("panic: %v", r), nil)
			log.Error().Interface("panic", r).Msg("Category task panicked")
		}
	}()

	log.Debug().Msg("Scanning category")

	pages := w.deps.Pages.Pages(ctx, category)
	if w.maxPages > 0 && len(pages) > w.maxPages {
		pages = pages[:w.maxPages]
	}

	for _, page := range pages {
		if ctx.Err() != nil {
			return outcome
		}

		body, err := w.deps.Fetcher.Fetch(ctx, page)
		if err != nil {
			if ctx.Err() != nil {
				return outcome
			}
			log.Debug().Err(err).Str("page", page).Msg("Page fetch failed")
			if outcome.Err == nil {
				outcome.Err = apperrors.NewCategory(category, "page fetch failed", err)
			}
			continue
		}

		products, err := w.deps.Extractor.Extract(body, page)
		if err != nil {
			if outcome.Err == nil {
				outcome.Err = apperrors.NewCategory(category, "page extraction failed", err)
			}
			continue
		}

		for _, product := range products {
			if product.Price > w.threshold {
				continue
			}
			outcome.Checked++
			w.deps.Metrics.AddChecked(1)

			if !w.deps.Store.CheckAndRecord(product.SeenKey()) {
				continue
			}

			outcome.Found++
			w.deps.Metrics.IncFound()
			log.Warn().
				Str("title", helpers.Truncate(product.Title, logTitleLength)).
				Float64("price", product.Price).
				Str("url", product.URL).
				Msg("Found cheap product")
			w.alert(ctx, product)
		}
	}

	return outcome
}

// alert delivers a product alert even when ctx is canceled, since its key is
// already recorded.
func (w *Worker) alert(ctx context.Context, product crawler.Product) {
	alertCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), alertTimeout)
	defer cancel()
	w.notify(alertCtx, notifier.FormatProductAlert(product))
}

func (w *Worker) finish(ctx context.Context, log *logger.Logger, summary CycleSummary) {
	flushCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), flushTimeout)
	defer cancel()

	if err := w.deps.Store.Flush(flushCtx); err != nil {
		log.Error().Err(err).Msg("Failed to persist seen keys, keeping them in memory")
	}

	seen := w.deps.Store.Len()
	w.deps.Metrics.SetSeenKeys(seen)
	w.deps.Metrics.ObserveCycle(summary.Duration)

	log.Info().
		Int("categories", summary.Categories).
		Int("checked", summary.Checked).
		Int("found", summary.Found).
		Int("error_categories", summary.ErrorCategories).
		Int("seen_keys", seen).
		Dur("duration", summary.Duration).
		Bool("canceled", summary.Canceled).
		Msg("Scan cycle complete")

	stats := summary.Stats(w.threshold)
	if stats.ShouldNotify() {
		w.notify(flushCtx, notifier.FormatCycleSummary(stats))
	}

	w.mu.Lock()
	w.last = &summary
	w.mu.Unlock()
}

func (w *Worker) notify(ctx context.Context, text string) {
	if err := w.deps.Notifier.Notify(ctx, text); err != nil {
		w.deps.Metrics.IncNotification("failure")
		logger.ForNotifier().Error().Err(err).Msg("Failed to deliver notification")
		return
	}
	w.deps.Metrics.IncNotification("success")
}

// wait sleeps for d and reports false if ctx ended first
func wait(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
