package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/JoseAlvarezDev/BusCar/internal/entity"
	"github.com/JoseAlvarezDev/BusCar/internal/port/cache"
	"github.com/JoseAlvarezDev/BusCar/internal/port/repository"
)

const (
	carCacheTTL    = 5 * time.Minute
	brandsCacheTTL = 30 * time.Minute
	brandsCacheKey = "cars:brands"
)

func carCacheKey(id string) string {
	return "cars:id:" + id
}

// CarUsecase serves the query side: listing search, single-listing lookup,
// price history and the brand facet. Single listings and the brand facet go
// through a read-through cache; search results do not, their filter space is
// too wide to cache usefully.
type CarUsecase struct {
	listings  repository.ListingRepository
	cacheRepo cache.CacheRepository
	logger    *zap.Logger
}

func NewCarUsecase(listings repository.ListingRepository, cacheRepo cache.CacheRepository, logger *zap.Logger) *CarUsecase {
	return &CarUsecase{
		listings:  listings,
		cacheRepo: cacheRepo,
		logger:    logger,
	}
}

func (uc *CarUsecase) List(ctx context.Context, filter repository.ListingFilter) ([]*entity.Listing, error) {
	if filter.Limit <= 0 || filter.Limit > 100 {
		filter.Limit = 20
	}
	if filter.Page < 1 {
		filter.Page = 1
	}
	return uc.listings.FindActive(ctx, filter)
}

func (uc *CarUsecase) Get(ctx context.Context, id string) (*entity.Listing, error) {
	if uc.cacheRepo != nil {
		key := carCacheKey(id)
		cached, err := uc.cacheRepo.Get(ctx, key)
		if err == nil {
			var listing entity.Listing
			if unmarshalErr := json.Unmarshal(cached, &listing); unmarshalErr == nil {
				uc.logger.Debug("Listing fetched from cache", zap.String("key", key))
				return &listing, nil
			}
			if delErr := uc.cacheRepo.Delete(ctx, key); delErr != nil {
				uc.logger.Warn("Failed to delete corrupted cache entry", zap.String("key", key), zap.Error(delErr))
			}
		} else if !errors.Is(err, cache.ErrNotFound) {
			uc.logger.Warn("Failed to get listing from cache", zap.String("key", key), zap.Error(err))
		}
	}

	listing, err := uc.listings.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if uc.cacheRepo != nil {
		if data, marshalErr := json.Marshal(listing); marshalErr == nil {
			if setErr := uc.cacheRepo.Set(ctx, carCacheKey(id), data, carCacheTTL); setErr != nil {
				uc.logger.Warn("Failed to cache listing", zap.String("listing_id", id), zap.Error(setErr))
			}
		}
	}
	return listing, nil
}

func (uc *CarUsecase) PriceHistory(ctx context.Context, listingID string) ([]*entity.PriceHistoryEntry, error) {
	if _, err := uc.listings.FindByID(ctx, listingID); err != nil {
		return nil, err
	}
	history, err := uc.listings.PriceHistory(ctx, listingID)
	if err != nil {
		return nil, fmt.Errorf("failed to load price history: %w", err)
	}
	return history, nil
}

func (uc *CarUsecase) Brands(ctx context.Context) ([]repository.BrandCount, error) {
	if uc.cacheRepo != nil {
		cached, err := uc.cacheRepo.Get(ctx, brandsCacheKey)
		if err == nil {
			var brands []repository.BrandCount
			if unmarshalErr := json.Unmarshal(cached, &brands); unmarshalErr == nil {
				return brands, nil
			}
		} else if !errors.Is(err, cache.ErrNotFound) {
			uc.logger.Warn("Failed to get brands from cache", zap.Error(err))
		}
	}

	brands, err := uc.listings.Brands(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load brand facet: %w", err)
	}

	if uc.cacheRepo != nil {
		if data, marshalErr := json.Marshal(brands); marshalErr == nil {
			if setErr := uc.cacheRepo.Set(ctx, brandsCacheKey, data, brandsCacheTTL); setErr != nil {
				uc.logger.Warn("Failed to cache brand facet", zap.Error(setErr))
			}
		}
	}
	return brands, nil
}
