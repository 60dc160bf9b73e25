package repository

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/JoseAlvarezDev/BusCar/internal/entity"
)

func activeListing() *entity.Listing {
	return &entity.Listing{
		ID:        "id-1",
		Brand:     "Toyota",
		Model:     "Corolla",
		Price:     12000,
		Year:      2018,
		KM:        90000,
		Fuel:      entity.FuelGasoline,
		Location:  "Madrid",
		IsActive:  true,
		ScrapedAt: time.Now(),
	}
}

func TestListingFilter_Matches(t *testing.T) {
	l := activeListing()

	testCases := []struct {
		name    string
		filter  ListingFilter
		matches bool
	}{
		{"empty filter matches active", ListingFilter{}, true},
		{"brand match", ListingFilter{Brand: "Toyota"}, true},
		{"brand mismatch", ListingFilter{Brand: "Seat"}, false},
		{"max price boundary", ListingFilter{MaxPrice: 12000}, true},
		{"max price below", ListingFilter{MaxPrice: 11999}, false},
		{"min price above", ListingFilter{MinPrice: 12001}, false},
		{"min year satisfied", ListingFilter{MinYear: 2015}, true},
		{"min year too new", ListingFilter{MinYear: 2020}, false},
		{"max km satisfied", ListingFilter{MaxKM: 100000}, true},
		{"max km exceeded", ListingFilter{MaxKM: 50000}, false},
		{"fuel match", ListingFilter{Fuel: entity.FuelGasoline}, true},
		{"fuel mismatch", ListingFilter{Fuel: entity.FuelDiesel}, false},
		{"combined criteria", ListingFilter{Brand: "Toyota", MaxPrice: 15000, MinYear: 2015, MaxKM: 100000}, true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.matches, tc.filter.Matches(l))
		})
	}
}

func TestListingFilter_InactiveNeverMatches(t *testing.T) {
	l := activeListing()
	l.IsActive = false
	assert.False(t, ListingFilter{}.Matches(l))
}

func TestListingFilter_Freshness(t *testing.T) {
	l := activeListing()
	l.ScrapedAt = time.Now().Add(-48 * time.Hour)

	assert.False(t, ListingFilter{ScrapedAfter: time.Now().Add(-24 * time.Hour)}.Matches(l))
	assert.True(t, ListingFilter{ScrapedAfter: time.Now().Add(-72 * time.Hour)}.Matches(l))
}

func TestListingFilter_ZeroYearExcludedByMinYear(t *testing.T) {
	// Listings whose source never exposed a year parse to 0 and must not
	// satisfy a minimum-year criterion.
	l := activeListing()
	l.Year = 0
	assert.False(t, ListingFilter{MinYear: 2015}.Matches(l))
	assert.True(t, ListingFilter{}.Matches(l))
}
