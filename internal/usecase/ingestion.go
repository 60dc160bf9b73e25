package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/JoseAlvarezDev/BusCar/internal/entity"
	"github.com/JoseAlvarezDev/BusCar/internal/platform/metrics"
	"github.com/JoseAlvarezDev/BusCar/internal/port/repository"
	"github.com/JoseAlvarezDev/BusCar/internal/scraper"
)

// EventPublisher is the outbound event hook the ingestion pipeline feeds.
// Publish failures are logged and never fail a run.
type EventPublisher interface {
	PublishListingCreated(ctx context.Context, listing *entity.Listing) error
	PublishListingPriceChanged(ctx context.Context, listing *entity.Listing, oldPrice float64) error
	PublishScrapeFinished(ctx context.Context, run *entity.ScrapeRun) error
}

// IngestionConfig tunes one ingestion sweep.
type IngestionConfig struct {
	MaxPerSource int
	Timeout      time.Duration
	Workers      int
	StaleAfter   time.Duration
}

// IngestionUsecase orchestrates scraping: one tracked run per source, bounded
// parallelism across sources, and upserts with price-history logging.
type IngestionUsecase struct {
	registry  *scraper.Registry
	listings  repository.ListingRepository
	runs      repository.ScrapeRunRepository
	publisher EventPublisher
	metrics   *metrics.Manager
	logger    *zap.Logger
	cfg       IngestionConfig
}

func NewIngestionUsecase(
	registry *scraper.Registry,
	listings repository.ListingRepository,
	runs repository.ScrapeRunRepository,
	publisher EventPublisher,
	m *metrics.Manager,
	logger *zap.Logger,
	cfg IngestionConfig,
) *IngestionUsecase {
	if cfg.MaxPerSource <= 0 {
		cfg.MaxPerSource = 20
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 2
	}
	return &IngestionUsecase{
		registry:  registry,
		listings:  listings,
		runs:      runs,
		publisher: publisher,
		metrics:   m,
		logger:    logger,
		cfg:       cfg,
	}
}

// RunIngestion scrapes every given source, each under its own ScrapeRun. All
// sources are validated against the registry before any run starts, so a bad
// source name fails the whole request instead of half of it. Source failures
// are isolated: one source failing does not stop the others.
func (uc *IngestionUsecase) RunIngestion(ctx context.Context, sources []string) ([]*entity.ScrapeRun, error) {
	if len(sources) == 0 {
		return nil, fmt.Errorf("no sources given")
	}

	factories := make(map[string]scraper.Factory, len(sources))
	for _, name := range sources {
		f, err := uc.registry.Get(scraper.Source(name))
		if err != nil {
			return nil, err
		}
		factories[name] = f
	}

	var (
		mu      sync.Mutex
		wg      sync.WaitGroup
		runs    []*entity.ScrapeRun
		fatal   []error
		workers = make(chan struct{}, uc.cfg.Workers)
	)

	for _, name := range sources {
		wg.Add(1)
		go func(name string, factory scraper.Factory) {
			defer wg.Done()
			workers <- struct{}{}
			defer func() { <-workers }()

			run, err := uc.runSource(ctx, name, factory)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				fatal = append(fatal, fmt.Errorf("source %s: %w", name, err))
			}
			if run != nil {
				runs = append(runs, run)
			}
		}(name, factories[name])
	}
	wg.Wait()

	return runs, errors.Join(fatal...)
}

// runSource executes the full lifecycle for one source: StartRun, scrape,
// per-item upserts, CompleteRun. The returned error covers only bookkeeping
// failures (run tracking, context cancellation); a failed scrape is recorded
// on the run itself and is not an error here.
func (uc *IngestionUsecase) runSource(ctx context.Context, name string, factory scraper.Factory) (*entity.ScrapeRun, error) {
	run, err := uc.runs.StartRun(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("failed to start run: %w", err)
	}
	uc.logger.Info("Scrape run started",
		zap.String("run_id", run.ID), zap.String("source", name))

	started := time.Now()
	scrapeCtx, cancel := context.WithTimeout(ctx, uc.cfg.Timeout)
	adapter := factory(uc.logger)
	items, scrapeErr := adapter.ScrapeListings(scrapeCtx, uc.cfg.MaxPerSource)
	cancel()
	uc.metrics.ScrapeDurationSeconds.WithLabelValues(name).Observe(time.Since(started).Seconds())

	var itemErrs []string
	now := time.Now().UTC()
	run.Found = len(items)
	for i := range items {
		if err := uc.ingestItem(ctx, run, items[i].ToEntity(now)); err != nil {
			uc.metrics.ScrapeItemErrorsTotal.WithLabelValues(name).Inc()
			itemErrs = append(itemErrs, err.Error())
			uc.logger.Warn("Failed to ingest listing",
				zap.String("source", name),
				zap.String("external_id", items[i].ExternalID),
				zap.Error(err))
		}
	}

	run.Status = entity.RunStatusSuccess
	if scrapeErr != nil {
		run.Status = entity.RunStatusFailed
		itemErrs = append([]string{scrapeErr.Error()}, itemErrs...)
	}
	run.Errors = strings.Join(itemErrs, "; ")

	if err := uc.runs.CompleteRun(ctx, run); err != nil {
		return run, fmt.Errorf("failed to complete run %s: %w", run.ID, err)
	}
	uc.metrics.ScrapeRunsTotal.WithLabelValues(name, string(run.Status)).Inc()

	if err := uc.publisher.PublishScrapeFinished(ctx, run); err != nil {
		uc.logger.Warn("Failed to publish scrape.finished event",
			zap.String("run_id", run.ID), zap.Error(err))
	}

	uc.logger.Info("Scrape run finished",
		zap.String("run_id", run.ID),
		zap.String("source", name),
		zap.String("status", string(run.Status)),
		zap.Int("found", run.Found),
		zap.Int("added", run.Added),
		zap.Int("updated", run.Updated))
	return run, nil
}

// ingestItem upserts one listing and keeps the price-history log and counters
// in step with what the store reported.
func (uc *IngestionUsecase) ingestItem(ctx context.Context, run *entity.ScrapeRun, listing *entity.Listing) error {
	res, err := uc.listings.Upsert(ctx, listing)
	if err != nil {
		return fmt.Errorf("upsert failed: %w", err)
	}

	switch {
	case res.Created:
		run.Added++
		uc.metrics.ListingsCreatedTotal.Inc()
		if err := uc.listings.AppendPriceHistory(ctx, res.Listing.ID, res.Listing.Price, res.Listing.ScrapedAt); err != nil {
			return fmt.Errorf("failed to record initial price: %w", err)
		}
		if err := uc.publisher.PublishListingCreated(ctx, res.Listing); err != nil {
			uc.logger.Warn("Failed to publish listing.created event",
				zap.String("listing_id", res.Listing.ID), zap.Error(err))
		}
	case res.PriceChanged:
		run.Updated++
		uc.metrics.ListingsUpdatedTotal.Inc()
		uc.metrics.PriceChangesTotal.Inc()
		if err := uc.listings.AppendPriceHistory(ctx, res.Listing.ID, res.Listing.Price, res.Listing.UpdatedAt); err != nil {
			return fmt.Errorf("failed to record price change: %w", err)
		}
		if err := uc.publisher.PublishListingPriceChanged(ctx, res.Listing, res.OldPrice); err != nil {
			uc.logger.Warn("Failed to publish listing.price_changed event",
				zap.String("listing_id", res.Listing.ID), zap.Error(err))
		}
	default:
		run.Updated++
		uc.metrics.ListingsUpdatedTotal.Inc()
	}
	return nil
}

// DeactivateStale flags listings not observed within the configured window as
// inactive. They stay in the store and keep their price history.
func (uc *IngestionUsecase) DeactivateStale(ctx context.Context) (int64, error) {
	if uc.cfg.StaleAfter <= 0 {
		return 0, nil
	}
	cutoff := time.Now().UTC().Add(-uc.cfg.StaleAfter)
	n, err := uc.listings.DeactivateStale(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to deactivate stale listings: %w", err)
	}
	if n > 0 {
		uc.logger.Info("Deactivated stale listings",
			zap.Int64("count", n), zap.Time("cutoff", cutoff))
	}
	return n, nil
}

// RunStatus returns one tracked run by ID.
func (uc *IngestionUsecase) RunStatus(ctx context.Context, id string) (*entity.ScrapeRun, error) {
	return uc.runs.FindByID(ctx, id)
}

// RecentRuns returns the latest tracked runs, newest first.
func (uc *IngestionUsecase) RecentRuns(ctx context.Context, limit int) ([]*entity.ScrapeRun, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return uc.runs.Recent(ctx, limit)
}
