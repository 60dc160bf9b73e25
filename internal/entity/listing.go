package entity

import "time"

// Normalized fuel vocabulary. Adapters map whatever the source reports into
// one of these buckets; anything unrecognized lands in FuelOther.
const (
	FuelGasoline = "gasoline"
	FuelDiesel   = "diesel"
	FuelHybrid   = "hybrid"
	FuelElectric = "electric"
	FuelGas      = "gas"
	FuelOther    = "other"
)

const (
	TransmissionManual    = "manual"
	TransmissionAutomatic = "automatic"
)

// Listing is a normalized marketplace offer. The pair (Source, ExternalID) is
// globally unique; a listing is never deleted on re-scrape, only updated or
// deactivated.
type Listing struct {
	ID           string
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
	IsActive     bool
	ScrapedAt    time.Time
	UpdatedAt    time.Time
}

// PriceHistoryEntry is an immutable record of a listing's price at a point in
// time. One entry is written when the listing is first seen and another every
// time an upsert observes a changed price; the entry carries the new price.
type PriceHistoryEntry struct {
	ID         string
	ListingID  string
	Price      float64
	RecordedAt time.Time
}
