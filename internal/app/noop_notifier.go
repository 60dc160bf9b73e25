package app

import (
	"context"

	"go.uber.org/zap"

	"github.com/JoseAlvarezDev/BusCar/internal/entity"
)

// noopNotifier stands in when no SMTP host is configured. Matches are logged
// and dropped; alerts are still marked notified so they respect the cooldown.
type noopNotifier struct {
	log *zap.Logger
}

func (n noopNotifier) NotifyMatches(_ context.Context, alert *entity.Alert, matches []*entity.Listing) error {
	n.log.Info("Alert matched but email delivery is disabled",
		zap.String("alert_id", alert.ID),
		zap.String("email", alert.Email),
		zap.Int("matches", len(matches)))
	return nil
}
