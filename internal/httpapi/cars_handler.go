package httpapi

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/JoseAlvarezDev/BusCar/internal/entity"
	"github.com/JoseAlvarezDev/BusCar/internal/port/repository"
	"github.com/JoseAlvarezDev/BusCar/internal/usecase"
)

type CarHandler struct {
	cars   *usecase.CarUsecase
	logger *zap.Logger
}

func NewCarHandler(cars *usecase.CarUsecase, logger *zap.Logger) *CarHandler {
	return &CarHandler{cars: cars, logger: logger}
}

type listingResponse struct {
	ID           string    `json:"id"`
	ExternalID   string    `json:"external_id"`
	Source       string    `json:"source"`
	URL          string    `json:"url"`
	Brand        string    `json:"brand,omitempty"`
	Model        string    `json:"model,omitempty"`
	Version      string    `json:"version,omitempty"`
	Year         int       `json:"year,omitempty"`
	Price        float64   `json:"price"`
	KM           int       `json:"km,omitempty"`
	Fuel         string    `json:"fuel,omitempty"`
	Transmission string    `json:"transmission,omitempty"`
	Power        int       `json:"power,omitempty"`
	Doors        int       `json:"doors,omitempty"`
	Color        string    `json:"color,omitempty"`
	BodyType     string    `json:"body_type,omitempty"`
	Location     string    `json:"location,omitempty"`
	Province     string    `json:"province,omitempty"`
	SellerType   string    `json:"seller_type,omitempty"`
	SellerName   string    `json:"seller_name,omitempty"`
	Description  string    `json:"description,omitempty"`
	ImageURL     string    `json:"image_url,omitempty"`
	Images       []string  `json:"images,omitempty"`
	IsActive     bool      `json:"is_active"`
	ScrapedAt    time.Time `json:"scraped_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func toListingResponse(l *entity.Listing) listingResponse {
	return listingResponse{
		ID:           l.ID,
		ExternalID:   l.ExternalID,
		Source:       l.Source,
		URL:          l.URL,
		Brand:        l.Brand,
		Model:        l.Model,
		Version:      l.Version,
		Year:         l.Year,
		Price:        l.Price,
		KM:           l.KM,
		Fuel:         l.Fuel,
		Transmission: l.Transmission,
		Power:        l.Power,
		Doors:        l.Doors,
		Color:        l.Color,
		BodyType:     l.BodyType,
		Location:     l.Location,
		Province:     l.Province,
		SellerType:   l.SellerType,
		SellerName:   l.SellerName,
		Description:  l.Description,
		ImageURL:     l.ImageURL,
		Images:       l.Images,
		IsActive:     l.IsActive,
		ScrapedAt:    l.ScrapedAt,
		UpdatedAt:    l.UpdatedAt,
	}
}

type priceHistoryResponse struct {
	Price      float64   `json:"price"`
	RecordedAt time.Time `json:"recorded_at"`
}

func queryInt(r *http.Request, name string) int {
	v, err := strconv.Atoi(r.URL.Query().Get(name))
	if err != nil {
		return 0
	}
	return v
}

func queryFloat(r *http.Request, name string) float64 {
	v, err := strconv.ParseFloat(r.URL.Query().Get(name), 64)
	if err != nil {
		return 0
	}
	return v
}

func filterFromQuery(r *http.Request) repository.ListingFilter {
	q := r.URL.Query()
	return repository.ListingFilter{
		Source:    q.Get("source"),
		Brand:     q.Get("brand"),
		Model:     q.Get("model"),
		MinPrice:  queryFloat(r, "min_price"),
		MaxPrice:  queryFloat(r, "max_price"),
		MinYear:   queryInt(r, "min_year"),
		MaxKM:     queryInt(r, "max_km"),
		Fuel:      q.Get("fuel"),
		Location:  q.Get("location"),
		SortBy:    q.Get("sort_by"),
		SortOrder: q.Get("sort_order"),
		Page:      queryInt(r, "page"),
		Limit:     queryInt(r, "limit"),
	}
}

func (h *CarHandler) ListCars(w http.ResponseWriter, r *http.Request) {
	listings, err := h.cars.List(r.Context(), filterFromQuery(r))
	if err != nil {
		h.logger.Error("Failed to list cars", zap.Error(err))
		writeError(w, h.logger, http.StatusInternalServerError, "failed to list cars")
		return
	}

	out := make([]listingResponse, len(listings))
	for i, l := range listings {
		out[i] = toListingResponse(l)
	}
	writeJSON(w, h.logger, http.StatusOK, out)
}

func (h *CarHandler) GetCar(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	listing, err := h.cars.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, h.logger, http.StatusNotFound, "car not found")
			return
		}
		h.logger.Error("Failed to get car", zap.String("id", id), zap.Error(err))
		writeError(w, h.logger, http.StatusInternalServerError, "failed to get car")
		return
	}
	writeJSON(w, h.logger, http.StatusOK, toListingResponse(listing))
}

func (h *CarHandler) GetPriceHistory(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	history, err := h.cars.PriceHistory(r.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, h.logger, http.StatusNotFound, "car not found")
			return
		}
		h.logger.Error("Failed to get price history", zap.String("id", id), zap.Error(err))
		writeError(w, h.logger, http.StatusInternalServerError, "failed to get price history")
		return
	}

	out := make([]priceHistoryResponse, len(history))
	for i, e := range history {
		out[i] = priceHistoryResponse{Price: e.Price, RecordedAt: e.RecordedAt}
	}
	writeJSON(w, h.logger, http.StatusOK, out)
}

func (h *CarHandler) GetBrands(w http.ResponseWriter, r *http.Request) {
	brands, err := h.cars.Brands(r.Context())
	if err != nil {
		h.logger.Error("Failed to get brands", zap.Error(err))
		writeError(w, h.logger, http.StatusInternalServerError, "failed to get brands")
		return
	}
	writeJSON(w, h.logger, http.StatusOK, brands)
}
