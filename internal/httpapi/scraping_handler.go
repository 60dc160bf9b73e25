package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/JoseAlvarezDev/BusCar/internal/entity"
	"github.com/JoseAlvarezDev/BusCar/internal/port/repository"
	"github.com/JoseAlvarezDev/BusCar/internal/scraper"
	"github.com/JoseAlvarezDev/BusCar/internal/usecase"
)

// triggerTimeout bounds a manually triggered ingestion sweep. It is wider
// than the per-source scrape timeout because one sweep covers many sources.
const triggerTimeout = 10 * time.Minute

type ScrapingHandler struct {
	ingestion *usecase.IngestionUsecase
	registry  *scraper.Registry
	logger    *zap.Logger
}

func NewScrapingHandler(ingestion *usecase.IngestionUsecase, registry *scraper.Registry, logger *zap.Logger) *ScrapingHandler {
	return &ScrapingHandler{ingestion: ingestion, registry: registry, logger: logger}
}

type triggerScrapeRequest struct {
	Sources []string `json:"sources"`
}

type triggerScrapeResponse struct {
	Status  string   `json:"status"`
	Sources []string `json:"sources"`
}

type runResponse struct {
	ID         string     `json:"id"`
	Source     string     `json:"source"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
	Status     string     `json:"status"`
	Found      int        `json:"found"`
	Added      int        `json:"added"`
	Updated    int        `json:"updated"`
	Errors     string     `json:"errors,omitempty"`
}

func toRunResponse(run *entity.ScrapeRun) runResponse {
	return runResponse{
		ID:         run.ID,
		Source:     run.Source,
		StartedAt:  run.StartedAt,
		FinishedAt: run.FinishedAt,
		Status:     string(run.Status),
		Found:      run.Found,
		Added:      run.Added,
		Updated:    run.Updated,
		Errors:     run.Errors,
	}
}

// TriggerScrape starts an ingestion sweep in the background and returns 202.
// With no body (or an empty source list) it sweeps every registered source.
func (h *ScrapingHandler) TriggerScrape(w http.ResponseWriter, r *http.Request) {
	var req triggerScrapeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, h.logger, http.StatusBadRequest, "invalid request body")
		return
	}

	sources := req.Sources
	if len(sources) == 0 {
		for _, src := range h.registry.Sources() {
			sources = append(sources, string(src))
		}
	}
	for _, name := range sources {
		if _, err := h.registry.Get(scraper.Source(name)); err != nil {
			writeError(w, h.logger, http.StatusBadRequest, err.Error())
			return
		}
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), triggerTimeout)
		defer cancel()
		if _, err := h.ingestion.RunIngestion(ctx, sources); err != nil {
			h.logger.Error("Triggered ingestion failed", zap.Strings("sources", sources), zap.Error(err))
		}
	}()

	writeJSON(w, h.logger, http.StatusAccepted, triggerScrapeResponse{
		Status:  "started",
		Sources: sources,
	})
}

func (h *ScrapingHandler) GetRunStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	run, err := h.ingestion.RunStatus(r.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, h.logger, http.StatusNotFound, "scrape run not found")
			return
		}
		h.logger.Error("Failed to get scrape run", zap.String("id", id), zap.Error(err))
		writeError(w, h.logger, http.StatusInternalServerError, "failed to get scrape run")
		return
	}
	writeJSON(w, h.logger, http.StatusOK, toRunResponse(run))
}

func (h *ScrapingHandler) RecentRuns(w http.ResponseWriter, r *http.Request) {
	runs, err := h.ingestion.RecentRuns(r.Context(), queryInt(r, "limit"))
	if err != nil {
		h.logger.Error("Failed to list scrape runs", zap.Error(err))
		writeError(w, h.logger, http.StatusInternalServerError, "failed to list scrape runs")
		return
	}

	out := make([]runResponse, len(runs))
	for i, run := range runs {
		out[i] = toRunResponse(run)
	}
	writeJSON(w, h.logger, http.StatusOK, out)
}
