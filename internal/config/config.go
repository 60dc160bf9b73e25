package config

import (
	"log"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/JoseAlvarezDev/BusCar/internal/adapter/cache/redis"
	"github.com/JoseAlvarezDev/BusCar/internal/adapter/email"
	"github.com/JoseAlvarezDev/BusCar/internal/adapter/mongo"
	"github.com/JoseAlvarezDev/BusCar/internal/adapter/nats"
)

type Config struct {
	Env     string        `mapstructure:"env"`
	HTTP    HTTPConfig    `mapstructure:"http"`
	Mongo   mongo.Config  `mapstructure:"mongo"`
	Redis   redis.Config  `mapstructure:"redis"`
	NATS    nats.Config   `mapstructure:"nats"`
	SMTP    email.Config  `mapstructure:"smtp"`
	Scraper ScraperConfig `mapstructure:"scraper"`
	Alerts  AlertsConfig  `mapstructure:"alerts"`
	Logger  LoggerConfig  `mapstructure:"logger"`
}

type HTTPConfig struct {
	Address         string        `mapstructure:"address"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type ScraperConfig struct {
	Sources         []string      `mapstructure:"sources"`
	IntervalHours   int           `mapstructure:"interval_hours"`
	MaxPerSource    int           `mapstructure:"max_per_source"`
	Timeout         time.Duration `mapstructure:"timeout"`
	Workers         int           `mapstructure:"workers"`
	StaleAfterHours int           `mapstructure:"stale_after_hours"`
}

type AlertsConfig struct {
	IntervalHours  int `mapstructure:"interval_hours"`
	CooldownHours  int `mapstructure:"cooldown_hours"`
	FreshnessHours int `mapstructure:"freshness_hours"`
	MaxMatches     int `mapstructure:"max_matches"`
	RenderLimit    int `mapstructure:"render_limit"`
}

type LoggerConfig struct {
	Level    string `mapstructure:"level"`
	Encoding string `mapstructure:"encoding"`
}

func LoadConfig(path string) (*Config, error) {
	viper.SetDefault("env", "development")

	viper.SetDefault("http.address", ":8080")
	viper.SetDefault("http.read_timeout", "15s")
	viper.SetDefault("http.write_timeout", "15s")
	viper.SetDefault("http.shutdown_timeout", "10s")

	viper.SetDefault("mongo.uri", "mongodb://localhost:27017")
	viper.SetDefault("mongo.database", "buscar")
	viper.SetDefault("mongo.connect_timeout", "10s")
	viper.SetDefault("mongo.min_pool_size", 0)
	viper.SetDefault("mongo.max_pool_size", 100)

	viper.SetDefault("redis.address", "localhost:6379")
	viper.SetDefault("redis.db", 0)

	viper.SetDefault("nats.url", "nats://localhost:4222")
	viper.SetDefault("nats.connect_timeout", "5s")

	viper.SetDefault("smtp.host", "")
	viper.SetDefault("smtp.port", 587)
	viper.SetDefault("smtp.encryption", "starttls")

	viper.SetDefault("scraper.sources", []string{"wallapop"})
	viper.SetDefault("scraper.interval_hours", 6)
	viper.SetDefault("scraper.max_per_source", 20)
	viper.SetDefault("scraper.timeout", "30s")
	viper.SetDefault("scraper.workers", 2)
	viper.SetDefault("scraper.stale_after_hours", 72)

	viper.SetDefault("alerts.interval_hours", 1)
	viper.SetDefault("alerts.cooldown_hours", 24)
	viper.SetDefault("alerts.freshness_hours", 24)
	viper.SetDefault("alerts.max_matches", 20)
	viper.SetDefault("alerts.render_limit", 10)

	viper.SetDefault("logger.level", "info")
	viper.SetDefault("logger.encoding", "json")

	if fi, err := os.Stat(path); err == nil {
		if !fi.IsDir() {
			viper.SetConfigFile(path)
		} else {
			viper.AddConfigPath(path)
			viper.SetConfigName("config")
			viper.SetConfigType("yaml")
		}
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("BUSCAR")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			log.Println("Config file not found; using defaults and environment variables.")
		} else {
			return nil, err
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}
