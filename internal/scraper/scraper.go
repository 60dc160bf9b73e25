package scraper

import (
	"context"
	"time"

	"github.com/JoseAlvarezDev/BusCar/internal/entity"
)

// Source identifies one external marketplace. The set is closed: unknown
// identifiers are rejected before any scheduling happens.
type Source string

const (
	SourceWallapop    Source = "wallapop"
	SourceMilanuncios Source = "milanuncios"
	SourceCochesNet   Source = "coches.net"
	SourceAutoScout24 Source = "autoscout24"
	SourceMotorEs     Source = "motor.es"
)

// KnownSources lists every source identifier the system understands, whether
// or not an adapter is registered for it.
func KnownSources() []Source {
	return []Source{
		SourceWallapop,
		SourceMilanuncios,
		SourceCochesNet,
		SourceAutoScout24,
		SourceMotorEs,
	}
}

func (s Source) Known() bool {
	for _, k := range KnownSources() {
		if s == k {
			return true
		}
	}
	return false
}

// ScrapedListing is a normalized offer as returned by an adapter, before the
// store has assigned it an identity.
type ScrapedListing struct {
	ExternalID   string
	Source       string
	URL          string
	Brand        string
	Model        string
	Version      string
	Year         int
	Price        float64
	KM           int
	Fuel         string
	Transmission string
	Power        int
	Doors        int
	Color        string
	BodyType     string
	Location     string
	Province     string
	SellerType   string
	SellerName   string
	Description  string
	ImageURL     string
	Images       []string
}

// ToEntity converts a scraped listing into a store entity stamped at the
// given observation time.
func (s *ScrapedListing) ToEntity(now time.Time) *entity.Listing {
	return &entity.Listing{
		ExternalID:   s.ExternalID,
		Source:       s.Source,
		URL:          s.URL,
		Brand:        s.Brand,
		Model:        s.Model,
		Version:      s.Version,
		Year:         s.Year,
		Price:        s.Price,
		KM:           s.KM,
		Fuel:         s.Fuel,
		Transmission: s.Transmission,
		Power:        s.Power,
		Doors:        s.Doors,
		Color:        s.Color,
		BodyType:     s.BodyType,
		Location:     s.Location,
		Province:     s.Province,
		SellerType:   s.SellerType,
		SellerName:   s.SellerName,
		Description:  s.Description,
		ImageURL:     s.ImageURL,
		Images:       s.Images,
		IsActive:     true,
		ScrapedAt:    now,
		UpdatedAt:    now,
	}
}

// Scraper fetches and normalizes listings for one marketplace. A failed fetch
// is returned as an error together with whatever was collected so far; a
// single malformed item must never abort the rest of a scrape.
type Scraper interface {
	Source() Source
	ScrapeListings(ctx context.Context, maxResults int) ([]ScrapedListing, error)
	ScrapeDetail(ctx context.Context, url string) (*ScrapedListing, error)
}
