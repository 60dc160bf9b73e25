package nats

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/JoseAlvarezDev/BusCar/internal/entity"
)

const (
	ListingCreatedSubject      = "listing.created"
	ListingPriceChangedSubject = "listing.price_changed"
	ScrapeFinishedSubject      = "scrape.finished"
)

type Config struct {
	URL            string        `mapstructure:"url"`
	ConnectTimeout time.Duration `mapstructure:"connect_timeout"`
}

type Publisher struct {
	nc     *nats.Conn
	logger *zap.Logger
}

type PriceChangedEventPayload struct {
	ListingID  string    `json:"listing_id"`
	ExternalID string    `json:"external_id"`
	Source     string    `json:"source"`
	OldPrice   float64   `json:"old_price"`
	NewPrice   float64   `json:"new_price"`
	ChangedAt  time.Time `json:"changed_at"`
}

func NewNATSPublisher(cfg Config, logger *zap.Logger) (*Publisher, error) {
	opts := []nats.Option{
		nats.Timeout(cfg.ConnectTimeout),
		nats.ClosedHandler(func(nc *nats.Conn) {
			logger.Info("NATS connection closed")
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("NATS reconnected", zap.String("url", nc.ConnectedUrl()))
		}),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			logger.Warn("NATS disconnected", zap.Error(err))
		}),
	}

	nc, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	logger.Info("Successfully connected to NATS", zap.String("url", nc.ConnectedUrl()))

	return &Publisher{nc: nc, logger: logger}, nil
}

func (p *Publisher) publish(subject string, payload any, fields ...zap.Field) error {
	data, err := json.Marshal(payload)
	if err != nil {
		p.logger.Error("Failed to marshal payload for NATS publishing",
			append([]zap.Field{zap.String("subject", subject), zap.Error(err)}, fields...)...)
		return fmt.Errorf("failed to marshal payload for %s: %w", subject, err)
	}

	if err := p.nc.Publish(subject, data); err != nil {
		p.logger.Error("Failed to publish NATS message",
			append([]zap.Field{zap.String("subject", subject), zap.Error(err)}, fields...)...)
		return fmt.Errorf("failed to publish NATS message for %s: %w", subject, err)
	}
	p.logger.Debug("Published NATS message",
		append([]zap.Field{zap.String("subject", subject)}, fields...)...)
	return nil
}

func (p *Publisher) PublishListingCreated(ctx context.Context, listing *entity.Listing) error {
	return p.publish(ListingCreatedSubject, listing,
		zap.String("listing_id", listing.ID),
		zap.String("source", listing.Source),
	)
}

func (p *Publisher) PublishListingPriceChanged(ctx context.Context, listing *entity.Listing, oldPrice float64) error {
	payload := PriceChangedEventPayload{
		ListingID:  listing.ID,
		ExternalID: listing.ExternalID,
		Source:     listing.Source,
		OldPrice:   oldPrice,
		NewPrice:   listing.Price,
		ChangedAt:  time.Now().UTC(),
	}
	return p.publish(ListingPriceChangedSubject, payload,
		zap.String("listing_id", listing.ID),
		zap.Float64("old_price", oldPrice),
		zap.Float64("new_price", listing.Price),
	)
}

func (p *Publisher) PublishScrapeFinished(ctx context.Context, run *entity.ScrapeRun) error {
	return p.publish(ScrapeFinishedSubject, run,
		zap.String("run_id", run.ID),
		zap.String("source", run.Source),
		zap.String("status", string(run.Status)),
	)
}

func (p *Publisher) Close() {
	if p.nc != nil && !p.nc.IsClosed() {
		if err := p.nc.Drain(); err != nil {
			p.logger.Error("Error draining NATS connection", zap.Error(err))
		}
		p.nc.Close()
		p.logger.Info("NATS publisher connection closed")
	}
}
