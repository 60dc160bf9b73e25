package repository

import (
	"context"
	"time"

	"github.com/JoseAlvarezDev/BusCar/internal/entity"
)

// UpsertResult reports what the store did with an observed listing.
type UpsertResult struct {
	Listing      *entity.Listing
	Created      bool
	PriceChanged bool
	OldPrice     float64
}

// ListingFilter selects active listings. Zero values mean "no constraint"
// except Limit, which callers should always set.
type ListingFilter struct {
	Source       string
	Brand        string
	Model        string
	MinPrice     float64
	MaxPrice     float64
	MinYear      int
	MaxKM        int
	Fuel         string
	Location     string
	ScrapedAfter time.Time
	SortBy       string // "price", "year", "km", "scraped_at"
	SortOrder    string // "asc" or "desc"
	Page         int
	Limit        int
}

// Matches is the reference predicate for ListingFilter. Store implementations
// translate the filter into their own query language; in-memory fakes use this
// directly so both agree on the semantics.
func (f ListingFilter) Matches(l *entity.Listing) bool {
	if !l.IsActive {
		return false
	}
	if f.Source != "" && l.Source != f.Source {
		return false
	}
	if f.Brand != "" && l.Brand != f.Brand {
		return false
	}
	if f.Model != "" && l.Model != f.Model {
		return false
	}
	if f.MinPrice > 0 && l.Price < f.MinPrice {
		return false
	}
	if f.MaxPrice > 0 && l.Price > f.MaxPrice {
		return false
	}
	if f.MinYear > 0 && l.Year < f.MinYear {
		return false
	}
	if f.MaxKM > 0 && l.KM > f.MaxKM {
		return false
	}
	if f.Fuel != "" && l.Fuel != f.Fuel {
		return false
	}
	if f.Location != "" && l.Location != f.Location {
		return false
	}
	if !f.ScrapedAfter.IsZero() && !l.ScrapedAt.After(f.ScrapedAfter) {
		return false
	}
	return true
}

// BrandCount is one row of the brand facet used by the query API.
type BrandCount struct {
	Brand string `json:"brand"`
	Count int64  `json:"count"`
}

// ListingRepository is the durable listing store plus its append-only price
// history log. Upsert is keyed by (source, external_id) and is the unit of
// atomicity for a single listing.
type ListingRepository interface {
	Upsert(ctx context.Context, listing *entity.Listing) (UpsertResult, error)
	AppendPriceHistory(ctx context.Context, listingID string, price float64, at time.Time) error
	FindByID(ctx context.Context, id string) (*entity.Listing, error)
	FindActive(ctx context.Context, filter ListingFilter) ([]*entity.Listing, error)
	PriceHistory(ctx context.Context, listingID string) ([]*entity.PriceHistoryEntry, error)
	Brands(ctx context.Context) ([]BrandCount, error)
	DeactivateStale(ctx context.Context, notSeenSince time.Time) (int64, error)
}

// ScrapeRunRepository tracks the lifecycle of ingestion attempts. StartRun
// persists the run in Running state immediately so a crash mid-run leaves
// visible state; CompleteRun performs the single terminal transition.
type ScrapeRunRepository interface {
	StartRun(ctx context.Context, source string) (*entity.ScrapeRun, error)
	CompleteRun(ctx context.Context, run *entity.ScrapeRun) error
	FindByID(ctx context.Context, id string) (*entity.ScrapeRun, error)
	Recent(ctx context.Context, limit int) ([]*entity.ScrapeRun, error)
}

// AlertRepository stores subscriber alerts. FindDue returns active alerts
// whose last notification is missing or older than the given cutoff.
type AlertRepository interface {
	Create(ctx context.Context, alert *entity.Alert) (string, error)
	Delete(ctx context.Context, id string) error
	SetActive(ctx context.Context, id string, active bool) error
	FindByUser(ctx context.Context, userID string) ([]*entity.Alert, error)
	FindDue(ctx context.Context, cutoff time.Time) ([]*entity.Alert, error)
	MarkNotified(ctx context.Context, id string, at time.Time) error
}
