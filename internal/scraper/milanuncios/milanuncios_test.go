package milanuncios

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/JoseAlvarezDev/BusCar/internal/entity"
	"github.com/JoseAlvarezDev/BusCar/internal/scraper"
)

func TestParseAd(t *testing.T) {
	s := New(zap.NewNop()).(*Scraper)

	ad := adItem{
		ID:       "987",
		Slug:     "seat-leon-15-tsi",
		Brand:    "Seat",
		Model:    "León",
		Version:  "1.5 TSI FR",
		PriceTxt: "12.500,00 €",
		KMTxt:    "120.000 kms",
		YearTxt:  "2017",
		Fuel:     "Gasolina",
		Gearbox:  "Manual",
	}
	ad.Location.City = "Sevilla"
	ad.Location.Province = "Sevilla"
	ad.Seller.Professional = true
	ad.Seller.Name = "Autos Sur"

	l, ok := s.parseAd(ad)
	require.True(t, ok)

	assert.Equal(t, "milanuncios-987", l.ExternalID)
	assert.Equal(t, "milanuncios", l.Source)
	assert.Equal(t, "https://www.milanuncios.com/anuncios/seat-leon-15-tsi", l.URL)
	assert.Equal(t, 12500.0, l.Price)
	assert.Equal(t, 120000, l.KM)
	assert.Equal(t, 2017, l.Year)
	assert.Equal(t, entity.FuelGasoline, l.Fuel)
	assert.Equal(t, entity.TransmissionManual, l.Transmission)
	assert.Equal(t, "professional", l.SellerType)
	assert.Equal(t, "Autos Sur", l.SellerName)
}

func TestParseAd_DropsAdWithoutID(t *testing.T) {
	s := New(zap.NewNop()).(*Scraper)
	_, ok := s.parseAd(adItem{Slug: "sin-id"})
	assert.False(t, ok)
}

func TestParseAd_DefaultsForMissingFields(t *testing.T) {
	s := New(zap.NewNop()).(*Scraper)

	l, ok := s.parseAd(adItem{ID: "1"})
	require.True(t, ok)

	assert.Equal(t, "Unknown", l.Brand)
	assert.Equal(t, "Unknown", l.Model)
	assert.Equal(t, "https://www.milanuncios.com/anuncios/1", l.URL)
	assert.Equal(t, 0.0, l.Price)
	assert.Equal(t, "private", l.SellerType)
	assert.Equal(t, entity.FuelOther, l.Fuel)
}

func TestNewTagsLoggerWithSource(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	s := New(zap.New(core)).(*Scraper)

	s.retry.Logger.Info("retrying")

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, string(scraper.SourceMilanuncios), entries[0].ContextMap()["source"])
}
