// Package milanuncios scrapes car listings from the Milanuncios search API.
package milanuncios

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/JoseAlvarezDev/BusCar/internal/scraper"
)

const (
	baseURL        = "https://api.milanuncios.com"
	listingBaseURL = "https://www.milanuncios.com/anuncios/"

	pageSize  = 30
	userAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
)

type Scraper struct {
	logger *zap.Logger
	retry  scraper.Retry
	apiURL string
}

func New(logger *zap.Logger) scraper.Scraper {
	tagged := logger.With(zap.String("source", string(scraper.SourceMilanuncios)))
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
	return scraper.SourceMilanuncios
}

// Milanuncios reports most technical fields as display text ("120.000 kms",
// "12.500,00 €"), so everything goes through the shared parsing helpers.
type searchResponse struct {
	Ads  []adItem `json:"ads"`
	More bool     `json:"hasNextPage"`
}

type adItem struct {
	ID       string `json:"id"`
	Slug     string `json:"slug"`
	Brand    string `json:"brand"`
	Model    string `json:"model"`
	Version  string `json:"version"`
	PriceTxt string `json:"price"`
	KMTxt    string `json:"kilometers"`
	YearTxt  string `json:"year"`
	Fuel     string `json:"fuelType"`
	Gearbox  string `json:"gearType"`
	Location struct {
		City     string `json:"municipality"`
		Province string `json:"province"`
	} `json:"location"`
	Seller struct {
		Professional bool   `json:"isProfessional"`
		Name         string `json:"name"`
	} `json:"seller"`
	Photos      []string `json:"photos"`
	Description string   `json:"description"`
}

func (s *Scraper) ScrapeListings(ctx context.Context, maxResults int) ([]scraper.ScrapedListing, error) {
	client := newClient()
	defer client.GetClient().CloseIdleConnections()

	listings := make([]scraper.ScrapedListing, 0, maxResults)

	for page := 1; len(listings) < maxResults; page++ {
		var result searchResponse
		err := s.retry.Do(ctx, "milanuncios search", func() error {
			resp, reqErr := client.R().
				SetContext(ctx).
				SetQueryParams(map[string]string{
					"category": "motor-coches",
					"orden":    "date",
					"pagina":   fmt.Sprintf("%d", page),
					"tamano":   fmt.Sprintf("%d", pageSize),
				}).
				SetResult(&result).
				Get(s.apiURL + "/v3/search")
			if reqErr != nil {
				return reqErr
			}
			if resp.IsError() {
				return fmt.Errorf("milanuncios API status %d", resp.StatusCode())
			}
			return nil
		})
		if err != nil {
			return listings, err
		}

		if len(result.Ads) == 0 {
			break
		}

		for _, ad := range result.Ads {
			if len(listings) >= maxResults {
				break
			}
			l, ok := s.parseAd(ad)
			if !ok {
				continue
			}
			listings = append(listings, l)
		}

		if !result.More {
			break
		}
	}

	s.logger.Info("scrape finished", zap.Int("listings", len(listings)))
	return listings, nil
}

func (s *Scraper) ScrapeDetail(ctx context.Context, url string) (*scraper.ScrapedListing, error) {
	slug := strings.TrimSuffix(strings.TrimPrefix(url, listingBaseURL), "/")
	if slug == "" || slug == url {
		return nil, fmt.Errorf("not a milanuncios listing URL: %s", url)
	}

	client := newClient()
	defer client.GetClient().CloseIdleConnections()

	var ad adItem
	resp, err := client.R().
		SetContext(ctx).
		SetResult(&ad).
		Get(s.apiURL + "/v3/ads/" + slug)
	if err != nil {
		return nil, fmt.Errorf("milanuncios detail fetch: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("milanuncios detail status %d", resp.StatusCode())
	}

	l, ok := s.parseAd(ad)
	if !ok {
		return nil, fmt.Errorf("milanuncios ad %s could not be normalized", slug)
	}
	return &l, nil
}

func (s *Scraper) parseAd(ad adItem) (scraper.ScrapedListing, bool) {
	if ad.ID == "" {
		s.logger.Debug("skipping ad without ID", zap.String("slug", ad.Slug))
		return scraper.ScrapedListing{}, false
	}

	slug := ad.Slug
	if slug == "" {
		slug = ad.ID
	}

	brand := ad.Brand
	if brand == "" {
		brand = "Unknown"
	}
	model := ad.Model
	if model == "" {
		model = "Unknown"
	}

	sellerType := "private"
	if ad.Seller.Professional {
		sellerType = "professional"
	}

	var imageURL string
	if len(ad.Photos) > 0 {
		imageURL = ad.Photos[0]
	}

	return scraper.ScrapedListing{
		ExternalID:   "milanuncios-" + ad.ID,
		Source:       string(scraper.SourceMilanuncios),
		URL:          listingBaseURL + slug,
		Brand:        brand,
		Model:        model,
		Version:      ad.Version,
		Year:         scraper.ParseYear(ad.YearTxt),
		Price:        scraper.ParsePrice(ad.PriceTxt),
		KM:           scraper.ParseKM(ad.KMTxt),
		Fuel:         scraper.NormalizeFuel(ad.Fuel),
		Transmission: scraper.NormalizeTransmission(ad.Gearbox),
		Location:     ad.Location.City,
		Province:     ad.Location.Province,
		SellerType:   sellerType,
		SellerName:   ad.Seller.Name,
		Description:  ad.Description,
		ImageURL:     imageURL,
		Images:       ad.Photos,
	}, true
}

func newClient() *resty.Client {
	client := resty.New()
	client.SetTimeout(30 * time.Second)
	client.SetHeader("User-Agent", userAgent)
	client.SetHeader("Accept", "application/json")
	client.SetHeader("Accept-Language", "es-ES,es;q=0.9,en;q=0.8")
	return client
}
