package usecase

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/JoseAlvarezDev/BusCar/internal/entity"
	"github.com/JoseAlvarezDev/BusCar/internal/platform/metrics"
	"github.com/JoseAlvarezDev/BusCar/internal/port/repository"
)

// Notifier delivers matched listings to an alert's owner. A nil error means
// delivery was handed off successfully and the alert may be marked notified.
type Notifier interface {
	NotifyMatches(ctx context.Context, alert *entity.Alert, matches []*entity.Listing) error
}

// AlertConfig tunes alert evaluation.
type AlertConfig struct {
	Cooldown   time.Duration // minimum gap between two notifications for one alert
	Freshness  time.Duration // only listings scraped within this window count as matches
	MaxMatches int
}

// AlertUsecase manages subscriber alerts and runs the periodic evaluation
// that pairs fresh listings with alert criteria.
type AlertUsecase struct {
	alerts   repository.AlertRepository
	listings repository.ListingRepository
	notifier Notifier
	metrics  *metrics.Manager
	logger   *zap.Logger
	cfg      AlertConfig
}

func NewAlertUsecase(
	alerts repository.AlertRepository,
	listings repository.ListingRepository,
	notifier Notifier,
	m *metrics.Manager,
	logger *zap.Logger,
	cfg AlertConfig,
) *AlertUsecase {
	if cfg.Cooldown <= 0 {
		cfg.Cooldown = 24 * time.Hour
	}
	if cfg.Freshness <= 0 {
		cfg.Freshness = 24 * time.Hour
	}
	if cfg.MaxMatches <= 0 {
		cfg.MaxMatches = 20
	}
	return &AlertUsecase{
		alerts:   alerts,
		listings: listings,
		notifier: notifier,
		metrics:  m,
		logger:   logger,
		cfg:      cfg,
	}
}

func (uc *AlertUsecase) CreateAlert(ctx context.Context, alert *entity.Alert) (*entity.Alert, error) {
	if err := alert.Validate(); err != nil {
		return nil, err
	}
	alert.IsActive = true
	alert.CreatedAt = time.Now().UTC()
	alert.LastNotifiedAt = nil

	id, err := uc.alerts.Create(ctx, alert)
	if err != nil {
		return nil, err
	}
	alert.ID = id
	uc.logger.Info("Alert created",
		zap.String("alert_id", id), zap.String("user_id", alert.UserID))
	return alert, nil
}

func (uc *AlertUsecase) DeleteAlert(ctx context.Context, id string) error {
	return uc.alerts.Delete(ctx, id)
}

func (uc *AlertUsecase) SetAlertActive(ctx context.Context, id string, active bool) error {
	return uc.alerts.SetActive(ctx, id, active)
}

func (uc *AlertUsecase) AlertsForUser(ctx context.Context, userID string) ([]*entity.Alert, error) {
	return uc.alerts.FindByUser(ctx, userID)
}

// EvaluateAlerts walks every due alert, matches it against fresh listings and
// notifies on hits. Alerts are isolated from each other: a failure on one is
// logged and counted, never propagated. An alert's cooldown stamp is advanced
// only after its notification actually went out.
func (uc *AlertUsecase) EvaluateAlerts(ctx context.Context) error {
	now := time.Now().UTC()
	due, err := uc.alerts.FindDue(ctx, now.Add(-uc.cfg.Cooldown))
	if err != nil {
		return fmt.Errorf("failed to load due alerts: %w", err)
	}
	if len(due) == 0 {
		return nil
	}
	uc.logger.Info("Evaluating alerts", zap.Int("due", len(due)))

	for _, alert := range due {
		uc.metrics.AlertsEvaluatedTotal.Inc()
		if err := uc.evaluateOne(ctx, alert, now); err != nil {
			uc.metrics.NotifyFailuresTotal.Inc()
			uc.logger.Error("Alert evaluation failed",
				zap.String("alert_id", alert.ID),
				zap.String("email", alert.Email),
				zap.Error(err))
		}
	}
	return nil
}

func (uc *AlertUsecase) evaluateOne(ctx context.Context, alert *entity.Alert, now time.Time) error {
	matches, err := uc.listings.FindActive(ctx, uc.filterFor(alert, now))
	if err != nil {
		return fmt.Errorf("failed to match listings: %w", err)
	}
	if len(matches) == 0 {
		return nil
	}

	if err := uc.notifier.NotifyMatches(ctx, alert, matches); err != nil {
		return fmt.Errorf("failed to notify: %w", err)
	}
	uc.metrics.AlertsNotifiedTotal.Inc()

	if err := uc.alerts.MarkNotified(ctx, alert.ID, now); err != nil {
		return fmt.Errorf("failed to mark alert notified: %w", err)
	}
	uc.logger.Info("Alert notified",
		zap.String("alert_id", alert.ID),
		zap.Int("matches", len(matches)))
	return nil
}

// filterFor translates alert criteria into a listing query: cheapest first,
// fresh listings only, capped at MaxMatches.
func (uc *AlertUsecase) filterFor(alert *entity.Alert, now time.Time) repository.ListingFilter {
	return repository.ListingFilter{
		Brand:        alert.Brand,
		Model:        alert.Model,
		MaxPrice:     alert.MaxPrice,
		MinYear:      alert.MinYear,
		MaxKM:        alert.MaxKM,
		Fuel:         alert.Fuel,
		Location:     alert.Location,
		ScrapedAfter: now.Add(-uc.cfg.Freshness),
		SortBy:       "price",
		SortOrder:    "asc",
		Limit:        uc.cfg.MaxMatches,
	}
}
