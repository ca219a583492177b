package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/sethvargo/go-envconfig"
	"github.com/sethvargo/go-retry"
	"go.uber.org/fx"

	"github.com/jdholdren/chatter/internal/api"
	"github.com/jdholdren/chatter/internal/chatter"
	"github.com/jdholdren/chatter/internal/database"
	"github.com/jdholdren/chatter/internal/events"
	"github.com/jdholdren/chatter/logger"
)

type config struct {
	Database       string `env:"DATABASE, required"`
	DatabaseDriver string `env:"DATABASE_DRIVER, default=sqlite"`

	Port         int    `env:"PORT, default=4444"`
	LoggerFormat string `env:"LOGGER_FORMAT, default=text"`
	Debug        bool   `env:"DEBUG, default=false"`
	CorsOrigin   string `env:"CORS_ORIGIN, default=*"`
	JWTSecret    string `env:"JWT_SECRET"`

	KafkaBrokers []string `env:"KAFKA_BROKERS"`
	KafkaTopic   string   `env:"KAFKA_TOPIC, default=chatter-events"`
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	// Parse the config
	var cfg config
	if err := envconfig.Process(ctx, &cfg); err != nil {
		log.Fatalf("error parsing config: %s", err)
	}

	level := slog.LevelInfo
	if cfg.Debug {
		level = slog.LevelDebug
	}
	slog.SetDefault(logger.New(os.Stdout, cfg.LoggerFormat, level))

	dbx, err := database.Open(cfg.DatabaseDriver, cfg.Database)
	if err != nil {
		log.Fatalf("error opening database: %s", err)
	}
	defer dbx.Close()

	repo := database.New(dbx)

	// Retry until the database is reachable
	if err := retry.Fibonacci(ctx, 1*time.Second, func(ctx context.Context) error {
		if err := repo.Ping(ctx); err != nil {
			slog.Warn("database not ready", "err", err)
			return retry.RetryableError(err)
		}
		return nil
	}); err != nil {
		log.Fatalf("error connecting to database: %s", err)
	}

	// Run all migrations
	if err := database.RunMigrations(dbx); err != nil {
		log.Fatalf("error running migrations: %s", err)
	}

	var publisher events.Publisher = events.LogPublisher{}
	if len(cfg.KafkaBrokers) > 0 {
		publisher = events.NewKafkaPublisher(events.NewKafkaWriter(events.KafkaConfig{
			Brokers: cfg.KafkaBrokers,
			Topic:   cfg.KafkaTopic,
		}))
		slog.Info("publishing events to kafka", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaTopic)
	}

	// Start the application
	fx.New(
		fx.Supply(
			api.ServerConfig{
				Port:       cfg.Port,
				CorsOrigin: cfg.CorsOrigin,
				JWTSecret:  []byte(cfg.JWTSecret),
			},
			fx.Annotate(repo, fx.As(new(chatter.Repository))),
			fx.Annotate(publisher, fx.As(new(events.Publisher))),
		),
		api.Module,
		fx.Invoke(func(*api.Server) {}), // Start the api server
	).Run()
}
