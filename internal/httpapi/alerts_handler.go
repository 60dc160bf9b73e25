package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/JoseAlvarezDev/BusCar/internal/entity"
	"github.com/JoseAlvarezDev/BusCar/internal/port/repository"
	"github.com/JoseAlvarezDev/BusCar/internal/usecase"
)

type AlertHandler struct {
	alerts *usecase.AlertUsecase
	logger *zap.Logger
}

func NewAlertHandler(alerts *usecase.AlertUsecase, logger *zap.Logger) *AlertHandler {
	return &AlertHandler{alerts: alerts, logger: logger}
}

type createAlertRequest struct {
	UserID   string  `json:"user_id"`
	Email    string  `json:"email"`
	Brand    string  `json:"brand"`
	Model    string  `json:"model"`
	MaxPrice float64 `json:"max_price"`
	MinYear  int     `json:"min_year"`
	MaxKM    int     `json:"max_km"`
	Fuel     string  `json:"fuel"`
	Location string  `json:"location"`
}

type alertResponse struct {
	ID             string     `json:"id"`
	UserID         string     `json:"user_id"`
	Email          string     `json:"email"`
	Brand          string     `json:"brand,omitempty"`
	Model          string     `json:"model,omitempty"`
	MaxPrice       float64    `json:"max_price"`
	MinYear        int        `json:"min_year,omitempty"`
	MaxKM          int        `json:"max_km,omitempty"`
	Fuel           string     `json:"fuel,omitempty"`
	Location       string     `json:"location,omitempty"`
	IsActive       bool       `json:"is_active"`
	LastNotifiedAt *time.Time `json:"last_notified_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}

func toAlertResponse(a *entity.Alert) alertResponse {
	return alertResponse{
		ID:             a.ID,
		UserID:         a.UserID,
		Email:          a.Email,
		Brand:          a.Brand,
		Model:          a.Model,
		MaxPrice:       a.MaxPrice,
		MinYear:        a.MinYear,
		MaxKM:          a.MaxKM,
		Fuel:           a.Fuel,
		Location:       a.Location,
		IsActive:       a.IsActive,
		LastNotifiedAt: a.LastNotifiedAt,
		CreatedAt:      a.CreatedAt,
	}
}

func (h *AlertHandler) CreateAlert(w http.ResponseWriter, r *http.Request) {
	var req createAlertRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, h.logger, http.StatusBadRequest, "invalid request body")
		return
	}

	alert, err := h.alerts.CreateAlert(r.Context(), &entity.Alert{
		UserID:   req.UserID,
		Email:    req.Email,
		Brand:    req.Brand,
		Model:    req.Model,
		MaxPrice: req.MaxPrice,
		MinYear:  req.MinYear,
		MaxKM:    req.MaxKM,
		Fuel:     req.Fuel,
		Location: req.Location,
	})
	if err != nil {
		if errors.Is(err, entity.ErrAlertEmailRequired) ||
			errors.Is(err, entity.ErrAlertMaxPriceInvalid) ||
			errors.Is(err, entity.ErrAlertMinYearInvalid) {
			writeError(w, h.logger, http.StatusBadRequest, err.Error())
			return
		}
		h.logger.Error("Failed to create alert", zap.Error(err))
		writeError(w, h.logger, http.StatusInternalServerError, "failed to create alert")
		return
	}
	writeJSON(w, h.logger, http.StatusCreated, toAlertResponse(alert))
}

func (h *AlertHandler) DeleteAlert(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.alerts.DeleteAlert(r.Context(), id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, h.logger, http.StatusNotFound, "alert not found")
			return
		}
		h.logger.Error("Failed to delete alert", zap.String("id", id), zap.Error(err))
		writeError(w, h.logger, http.StatusInternalServerError, "failed to delete alert")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type setActiveRequest struct {
	Active bool `json:"active"`
}

func (h *AlertHandler) SetAlertActive(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req setActiveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, h.logger, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.alerts.SetAlertActive(r.Context(), id, req.Active); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, h.logger, http.StatusNotFound, "alert not found")
			return
		}
		h.logger.Error("Failed to update alert", zap.String("id", id), zap.Error(err))
		writeError(w, h.logger, http.StatusInternalServerError, "failed to update alert")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *AlertHandler) ListUserAlerts(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		writeError(w, h.logger, http.StatusBadRequest, "user_id query parameter is required")
		return
	}

	alerts, err := h.alerts.AlertsForUser(r.Context(), userID)
	if err != nil {
		h.logger.Error("Failed to list alerts", zap.String("user_id", userID), zap.Error(err))
		writeError(w, h.logger, http.StatusInternalServerError, "failed to list alerts")
		return
	}

	out := make([]alertResponse, len(alerts))
	for i, a := range alerts {
		out[i] = toAlertResponse(a)
	}
	writeJSON(w, h.logger, http.StatusOK, out)
}
