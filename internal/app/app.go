package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	redisclient "github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	redisadapter "github.com/JoseAlvarezDev/BusCar/internal/adapter/cache/redis"
	"github.com/JoseAlvarezDev/BusCar/internal/adapter/email"
	mongoadapter "github.com/JoseAlvarezDev/BusCar/internal/adapter/mongo"
	natsadapter "github.com/JoseAlvarezDev/BusCar/internal/adapter/nats"
	"github.com/JoseAlvarezDev/BusCar/internal/config"
	"github.com/JoseAlvarezDev/BusCar/internal/httpapi"
	"github.com/JoseAlvarezDev/BusCar/internal/platform/logger"
	"github.com/JoseAlvarezDev/BusCar/internal/platform/metrics"
	"github.com/JoseAlvarezDev/BusCar/internal/scheduler"
	"github.com/JoseAlvarezDev/BusCar/internal/scraper"
	"github.com/JoseAlvarezDev/BusCar/internal/scraper/milanuncios"
	"github.com/JoseAlvarezDev/BusCar/internal/scraper/wallapop"
	"github.com/JoseAlvarezDev/BusCar/internal/usecase"
)

type App struct {
	cfg         *config.Config
	log         *zap.Logger
	server      *http.Server
	sched       *scheduler.Scheduler
	publisher   *natsadapter.Publisher
	mongoClient *mongo.Client
	redisClient *redisclient.Client
}

func New(cfg *config.Config) (*App, error) {
	ctx := context.Background()

	log, err := logger.New(logger.Config{
		Level:    cfg.Logger.Level,
		Encoding: cfg.Logger.Encoding,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	log.Info("Configuration loaded",
		zap.String("env", cfg.Env),
		zap.String("http_address", cfg.HTTP.Address))

	mongoClient, err := mongoadapter.NewConnection(ctx, cfg.Mongo)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize MongoDB client: %w", err)
	}
	log.Info("MongoDB client initialized")

	redisClient, err := redisadapter.NewRedisClient(cfg.Redis, log)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Redis client: %w", err)
	}

	publisher, err := natsadapter.NewNATSPublisher(cfg.NATS, log)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize NATS publisher: %w", err)
	}

	carRepo := mongoadapter.NewCarMongoRepository(mongoClient, cfg.Mongo.Database)
	if err := carRepo.EnsureIndexes(ctx); err != nil {
		return nil, fmt.Errorf("failed to ensure mongo indexes: %w", err)
	}
	runRepo := mongoadapter.NewScrapeRunMongoRepository(mongoClient, cfg.Mongo.Database)
	alertRepo := mongoadapter.NewAlertMongoRepository(mongoClient, cfg.Mongo.Database)
	cacheRepo := redisadapter.NewRedisCacheRepository(redisClient, log)

	m := metrics.NewManager("buscar")

	registry := scraper.NewRegistry()
	if err := registry.Register(scraper.SourceWallapop, wallapop.New); err != nil {
		return nil, err
	}
	if err := registry.Register(scraper.SourceMilanuncios, milanuncios.New); err != nil {
		return nil, err
	}

	ingestionUC := usecase.NewIngestionUsecase(registry, carRepo, runRepo, publisher, m, log,
		usecase.IngestionConfig{
			MaxPerSource: cfg.Scraper.MaxPerSource,
			Timeout:      cfg.Scraper.Timeout,
			Workers:      cfg.Scraper.Workers,
			StaleAfter:   time.Duration(cfg.Scraper.StaleAfterHours) * time.Hour,
		})

	var notifier usecase.Notifier
	if cfg.SMTP.Host != "" {
		sender, err := email.NewSMTPSender(cfg.SMTP, log)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize SMTP sender: %w", err)
		}
		notifier = email.NewNotifier(sender, cfg.Alerts.RenderLimit)
	} else {
		log.Warn("SMTP host not configured, alert notifications are disabled")
		notifier = noopNotifier{log: log}
	}

	alertUC := usecase.NewAlertUsecase(alertRepo, carRepo, notifier, m, log,
		usecase.AlertConfig{
			Cooldown:   time.Duration(cfg.Alerts.CooldownHours) * time.Hour,
			Freshness:  time.Duration(cfg.Alerts.FreshnessHours) * time.Hour,
			MaxMatches: cfg.Alerts.MaxMatches,
		})
	carUC := usecase.NewCarUsecase(carRepo, cacheRepo, log)

	sched := scheduler.New(log)
	sched.AddJob(scheduler.Job{
		Name:     "scrape",
		Interval: time.Duration(cfg.Scraper.IntervalHours) * time.Hour,
		Run: func(ctx context.Context) error {
			_, err := ingestionUC.RunIngestion(ctx, cfg.Scraper.Sources)
			if err != nil {
				return err
			}
			_, err = ingestionUC.DeactivateStale(ctx)
			return err
		},
	})
	sched.AddJob(scheduler.Job{
		Name:     "alerts",
		Interval: time.Duration(cfg.Alerts.IntervalHours) * time.Hour,
		Run:      alertUC.EvaluateAlerts,
	})

	router := httpapi.NewRouter(
		httpapi.NewCarHandler(carUC, log),
		httpapi.NewAlertHandler(alertUC, log),
		httpapi.NewScrapingHandler(ingestionUC, registry, log),
		m,
		log,
	)

	server := &http.Server{
		Addr:         cfg.HTTP.Address,
		Handler:      router,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
	}

	return &App{
		cfg:         cfg,
		log:         log,
		server:      server,
		sched:       sched,
		publisher:   publisher,
		mongoClient: mongoClient,
		redisClient: redisClient,
	}, nil
}

func (a *App) Run() {
	a.log.Info("Starting application components...")

	a.sched.Start(context.Background())

	go func() {
		a.log.Info("HTTP server listening", zap.String("address", a.cfg.HTTP.Address))
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.log.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	a.log.Info("Received shutdown signal, shutting down", zap.String("signal", sig.String()))

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.HTTP.ShutdownTimeout)
	defer cancel()

	if err := a.server.Shutdown(shutdownCtx); err != nil {
		a.log.Error("Error during HTTP server shutdown", zap.Error(err))
	}

	a.sched.Stop()
	a.publisher.Close()

	if err := a.mongoClient.Disconnect(shutdownCtx); err != nil {
		a.log.Error("Error disconnecting from MongoDB", zap.Error(err))
	}
	if err := a.redisClient.Close(); err != nil {
		a.log.Error("Error closing Redis client", zap.Error(err))
	}

	a.log.Info("Application shut down successfully")
}
