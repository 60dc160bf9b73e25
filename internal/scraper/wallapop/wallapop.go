// Package wallapop scrapes car listings from the Wallapop search API.
// Wallapop exposes a JSON API, so no browser automation is needed.
package wallapop

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/JoseAlvarezDev/BusCar/internal/scraper"
)

const (
	baseURL        = "https://api.wallapop.com"
	listingBaseURL = "https://es.wallapop.com/item/"

	// Wallapop category ID for cars.
	carsCategoryID = "100"

	pageSize  = 40
	userAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
)

type Scraper struct {
	logger *zap.Logger
	retry  scraper.Retry
	apiURL string
}

func New(logger *zap.Logger) scraper.Scraper {
	tagged := logger.With(zap.String("source", string(scraper.SourceWallapop)))
	return &Scraper{
		logger: tagged,
		retry: scraper.Retry{
			MaxAttempts: 3,
			BaseDelay:   2 * time.Second,
			Logger:      tagged,
		},
		apiURL: baseURL,
	}
}

func (s *Scraper) Source() scraper.Source {
	return scraper.SourceWallapop
}

type searchResponse struct {
	SearchObjects []searchItem `json:"search_objects"`
}

type searchItem struct {
	ID         string      `json:"id"`
	Title      string      `json:"title"`
	Price      json.Number `json:"price"`
	Attributes []struct {
		Title string `json:"title"`
		Value string `json:"value"`
	} `json:"attributes"`
	Location struct {
		City     string `json:"city"`
		Province string `json:"province"`
	} `json:"location"`
	Images []struct {
		Medium   string `json:"medium"`
		Original string `json:"original"`
	} `json:"images"`
	Flags struct {
		Negotiable bool `json:"negotiable"`
	} `json:"flags"`
	Description string `json:"storytelling"`
}

// ScrapeListings pages through the Wallapop search API until maxResults
// listings are collected or the API stops returning items. The HTTP session
// lives for the duration of the scrape only.
func (s *Scraper) ScrapeListings(ctx context.Context, maxResults int) ([]scraper.ScrapedListing, error) {
	client := newClient()
	defer client.GetClient().CloseIdleConnections()

	listings := make([]scraper.ScrapedListing, 0, maxResults)

	for step := 0; len(listings) < maxResults; step++ {
		var page searchResponse
		err := s.retry.Do(ctx, "wallapop search", func() error {
			resp, reqErr := client.R().
				SetContext(ctx).
				SetQueryParams(map[string]string{
					"category_ids":   carsCategoryID,
					"filters_source": "search_box",
					"latitude":       "40.4168", // Madrid
					"longitude":      "-3.7038",
					"order_by":       "newest",
					"items_count":    fmt.Sprintf("%d", pageSize),
					"step":           fmt.Sprintf("%d", step),
				}).
				SetResult(&page).
				Get(s.apiURL + "/api/v3/general/search")
			if reqErr != nil {
				return reqErr
			}
			if resp.IsError() {
				return fmt.Errorf("wallapop API status %d", resp.StatusCode())
			}
			return nil
		})
		if err != nil {
			return listings, err
		}

		if len(page.SearchObjects) == 0 {
			break
		}

		for _, item := range page.SearchObjects {
			if len(listings) >= maxResults {
				break
			}
			l, ok := s.parseItem(item)
			if !ok {
				continue
			}
			listings = append(listings, l)
		}
	}

	s.logger.Info("scrape finished", zap.Int("listings", len(listings)))
	return listings, nil
}

// ScrapeDetail fetches one listing by its public URL.
func (s *Scraper) ScrapeDetail(ctx context.Context, url string) (*scraper.ScrapedListing, error) {
	id := strings.TrimSuffix(strings.TrimPrefix(url, listingBaseURL), "/")
	if id == "" || id == url {
		return nil, fmt.Errorf("not a wallapop listing URL: %s", url)
	}

	client := newClient()
	defer client.GetClient().CloseIdleConnections()

	var item searchItem
	resp, err := client.R().
		SetContext(ctx).
		SetResult(&item).
		Get(s.apiURL + "/api/v3/items/" + id)
	if err != nil {
		return nil, fmt.Errorf("wallapop detail fetch: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("wallapop detail status %d", resp.StatusCode())
	}

	l, ok := s.parseItem(item)
	if !ok {
		return nil, fmt.Errorf("wallapop item %s could not be normalized", id)
	}
	return &l, nil
}

// parseItem normalizes one search result. Items missing an ID are dropped;
// any other malformed field degrades to its zero default instead of aborting
// the scrape.
func (s *Scraper) parseItem(item searchItem) (scraper.ScrapedListing, bool) {
	if item.ID == "" {
		s.logger.Debug("skipping item without ID", zap.String("title", item.Title))
		return scraper.ScrapedListing{}, false
	}

	price, _ := item.Price.Float64()
	if price < 0 {
		price = 0
	}

	// Brand and model come from the title: first token is the brand, the
	// rest is the model. Crude, but it matches what the listing cards show.
	brand, model := splitTitle(item.Title)

	attrs := make(map[string]string, len(item.Attributes))
	for _, a := range item.Attributes {
		attrs[strings.ToLower(a.Title)] = a.Value
	}

	var imageURL string
	images := make([]string, 0, len(item.Images))
	for _, img := range item.Images {
		if imageURL == "" {
			imageURL = img.Medium
		}
		if img.Original != "" {
			images = append(images, img.Original)
		}
	}

	city := item.Location.City
	if city == "" {
		city = "España"
	}

	return scraper.ScrapedListing{
		ExternalID:   "wallapop-" + item.ID,
		Source:       string(scraper.SourceWallapop),
		URL:          listingBaseURL + item.ID,
		Brand:        brand,
		Model:        model,
		Year:         scraper.ParseYear(attrs["year"]),
		Price:        price,
		KM:           scraper.ParseKM(attrs["km"]),
		Fuel:         scraper.NormalizeFuel(attrs["fuel"]),
		Transmission: scraper.NormalizeTransmission(attrs["gearbox"]),
		Location:     city,
		Province:     item.Location.Province,
		SellerType:   "private",
		Description:  item.Description,
		ImageURL:     imageURL,
		Images:       images,
	}, true
}

func splitTitle(title string) (brand, model string) {
	parts := strings.SplitN(strings.TrimSpace(title), " ", 2)
	brand, model = "Unknown", "Unknown"
	if len(parts) > 0 && parts[0] != "" {
		brand = parts[0]
	}
	if len(parts) > 1 && parts[1] != "" {
		model = parts[1]
	}
	return brand, model
}

func newClient() *resty.Client {
	client := resty.New()
	client.SetTimeout(30 * time.Second)
	client.SetHeader("User-Agent", userAgent)
	client.SetHeader("Accept", "application/json")
	client.SetHeader("Accept-Language", "es-ES,es;q=0.9,en;q=0.8")
	return client
}
