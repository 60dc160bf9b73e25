package wallapop

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/JoseAlvarezDev/BusCar/internal/entity"
	"github.com/JoseAlvarezDev/BusCar/internal/scraper"
)

const sampleItemJSON = `{
	"id": "abc123",
	"title": "Toyota Corolla Hybrid Active Tech",
	"price": 15500,
	"attributes": [
		{"title": "Year", "value": "2019"},
		{"title": "Km", "value": "85.000 km"},
		{"title": "Fuel", "value": "Híbrido"},
		{"title": "Gearbox", "value": "Automático"}
	],
	"location": {"city": "Madrid", "province": "Madrid"},
	"images": [
		{"medium": "https://img.example.com/m/1.jpg", "original": "https://img.example.com/o/1.jpg"},
		{"medium": "https://img.example.com/m/2.jpg", "original": "https://img.example.com/o/2.jpg"}
	],
	"flags": {"negotiable": true},
	"storytelling": "Un solo dueño, libro de revisiones al día."
}`

func testScraper(t *testing.T) *Scraper {
	t.Helper()
	return New(zap.NewNop()).(*Scraper)
}

func TestParseItem(t *testing.T) {
	var item searchItem
	require.NoError(t, json.Unmarshal([]byte(sampleItemJSON), &item))

	l, ok := testScraper(t).parseItem(item)
	require.True(t, ok)

	assert.Equal(t, "wallapop-abc123", l.ExternalID)
	assert.Equal(t, "wallapop", l.Source)
	assert.Equal(t, "https://es.wallapop.com/item/abc123", l.URL)
	assert.Equal(t, "Toyota", l.Brand)
	assert.Equal(t, "Corolla Hybrid Active Tech", l.Model)
	assert.Equal(t, 15500.0, l.Price)
	assert.Equal(t, 2019, l.Year)
	assert.Equal(t, 85000, l.KM)
	assert.Equal(t, entity.FuelHybrid, l.Fuel)
	assert.Equal(t, entity.TransmissionAutomatic, l.Transmission)
	assert.Equal(t, "Madrid", l.Location)
	assert.Equal(t, "https://img.example.com/m/1.jpg", l.ImageURL)
	assert.Len(t, l.Images, 2)
}

func TestParseItem_DropsItemWithoutID(t *testing.T) {
	_, ok := testScraper(t).parseItem(searchItem{Title: "Seat León"})
	assert.False(t, ok)
}

func TestParseItem_MalformedFieldsDegradeToZero(t *testing.T) {
	var item searchItem
	require.NoError(t, json.Unmarshal([]byte(`{"id": "x1", "title": "Seat León", "price": 0}`), &item))

	l, ok := testScraper(t).parseItem(item)
	require.True(t, ok)

	assert.Equal(t, 0.0, l.Price)
	assert.Equal(t, 0, l.Year)
	assert.Equal(t, 0, l.KM)
	assert.Equal(t, entity.FuelOther, l.Fuel)
	assert.Equal(t, "España", l.Location)
}

func TestScrapeListings_PagesWithSizeUntilEmpty(t *testing.T) {
	var requests []url.Values
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests = append(requests, r.URL.Query())
		w.Header().Set("Content-Type", "application/json")
		if len(requests) == 1 {
			fmt.Fprintf(w, `{"search_objects": [%s]}`, sampleItemJSON)
			return
		}
		fmt.Fprint(w, `{"search_objects": []}`)
	}))
	defer server.Close()

	s := testScraper(t)
	s.apiURL = server.URL

	listings, err := s.ScrapeListings(context.Background(), 20)
	require.NoError(t, err)
	require.Len(t, listings, 1)
	assert.Equal(t, "wallapop-abc123", listings[0].ExternalID)

	require.Len(t, requests, 2)
	assert.Equal(t, fmt.Sprintf("%d", pageSize), requests[0].Get("items_count"))
	assert.Equal(t, "0", requests[0].Get("step"))
	assert.Equal(t, "1", requests[1].Get("step"))
}

func TestNewTagsLoggerWithSource(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	s := New(zap.New(core)).(*Scraper)

	s.retry.Logger.Info("retrying")

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, string(scraper.SourceWallapop), entries[0].ContextMap()["source"])
}

func TestSplitTitle(t *testing.T) {
	brand, model := splitTitle("Toyota Corolla")
	assert.Equal(t, "Toyota", brand)
	assert.Equal(t, "Corolla", model)

	brand, model = splitTitle("BMW")
	assert.Equal(t, "BMW", brand)
	assert.Equal(t, "Unknown", model)

	brand, model = splitTitle("")
	assert.Equal(t, "Unknown", brand)
	assert.Equal(t, "Unknown", model)
}
