package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/JoseAlvarezDev/BusCar/internal/entity"
	"github.com/JoseAlvarezDev/BusCar/internal/platform/metrics"
	"github.com/JoseAlvarezDev/BusCar/internal/port/repository"
	"github.com/JoseAlvarezDev/BusCar/internal/usecase"
)

type memAlertRepo struct {
	alerts map[string]*entity.Alert
	nextID int
}

func newMemAlertRepo() *memAlertRepo {
	return &memAlertRepo{alerts: make(map[string]*entity.Alert)}
}

func (r *memAlertRepo) Create(_ context.Context, alert *entity.Alert) (string, error) {
	r.nextID++
	id := fmt.Sprintf("alert-%d", r.nextID)
	copied := *alert
	copied.ID = id
	r.alerts[id] = &copied
	return id, nil
}

func (r *memAlertRepo) Delete(_ context.Context, id string) error {
	if _, ok := r.alerts[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.alerts, id)
	return nil
}

func (r *memAlertRepo) SetActive(_ context.Context, id string, active bool) error {
	a, ok := r.alerts[id]
	if !ok {
		return repository.ErrNotFound
	}
	a.IsActive = active
	return nil
}

func (r *memAlertRepo) FindByUser(_ context.Context, userID string) ([]*entity.Alert, error) {
	var out []*entity.Alert
	for _, a := range r.alerts {
		if a.UserID == userID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (r *memAlertRepo) FindDue(_ context.Context, cutoff time.Time) ([]*entity.Alert, error) {
	var out []*entity.Alert
	for _, a := range r.alerts {
		if a.Due(cutoff) {
			out = append(out, a)
		}
	}
	return out, nil
}

func (r *memAlertRepo) MarkNotified(_ context.Context, id string, at time.Time) error {
	a, ok := r.alerts[id]
	if !ok {
		return repository.ErrNotFound
	}
	a.LastNotifiedAt = &at
	return nil
}

type silentNotifier struct{}

func (silentNotifier) NotifyMatches(context.Context, *entity.Alert, []*entity.Listing) error {
	return nil
}

func alertsRouter(repo *memAlertRepo) *chi.Mux {
	log := zap.NewNop()
	uc := usecase.NewAlertUsecase(repo, newMemListingRepo(), silentNotifier{}, metrics.NewManager("test"), log, usecase.AlertConfig{})
	h := NewAlertHandler(uc, log)

	r := chi.NewRouter()
	r.Post("/api/alerts", h.CreateAlert)
	r.Get("/api/alerts", h.ListUserAlerts)
	r.Delete("/api/alerts/{id}", h.DeleteAlert)
	r.Put("/api/alerts/{id}/active", h.SetAlertActive)
	return r
}

func TestCreateAlert_HTTP(t *testing.T) {
	router := alertsRouter(newMemAlertRepo())

	body := `{"user_id": "u1", "email": "user@example.com", "brand": "Toyota", "max_price": 15000}`
	req := httptest.NewRequest(http.MethodPost, "/api/alerts", strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	var got alertResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.NotEmpty(t, got.ID)
	assert.True(t, got.IsActive)
	assert.Nil(t, got.LastNotifiedAt)
}

func TestCreateAlert_HTTPValidation(t *testing.T) {
	router := alertsRouter(newMemAlertRepo())

	testCases := []struct {
		name string
		body string
	}{
		{"missing email", `{"user_id": "u1", "max_price": 15000}`},
		{"missing max price", `{"user_id": "u1", "email": "user@example.com"}`},
		{"implausible min year", `{"email": "user@example.com", "max_price": 15000, "min_year": 1900}`},
		{"malformed json", `{`},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/alerts", strings.NewReader(tc.body))
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestAlertLifecycle_HTTP(t *testing.T) {
	repo := newMemAlertRepo()
	router := alertsRouter(repo)

	body := `{"user_id": "u1", "email": "user@example.com", "max_price": 10000}`
	req := httptest.NewRequest(http.MethodPost, "/api/alerts", strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code)

	var created alertResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))

	req = httptest.NewRequest(http.MethodPut, "/api/alerts/"+created.ID+"/active", strings.NewReader(`{"active": false}`))
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusNoContent, rec.Code)
	assert.False(t, repo.alerts[created.ID].IsActive)

	req = httptest.NewRequest(http.MethodGet, "/api/alerts?user_id=u1", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	var list []alertResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list, 1)

	req = httptest.NewRequest(http.MethodDelete, "/api/alerts/"+created.ID, nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusNoContent, rec.Code)

	req = httptest.NewRequest(http.MethodDelete, "/api/alerts/"+created.ID, nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListUserAlerts_RequiresUserID(t *testing.T) {
	router := alertsRouter(newMemAlertRepo())

	req := httptest.NewRequest(http.MethodGet, "/api/alerts", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
