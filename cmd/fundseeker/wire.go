package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/seenimoa/fundseeker/internal/config"
	"github.com/seenimoa/fundseeker/internal/events"
	"github.com/seenimoa/fundseeker/internal/events/kafka"
	"github.com/seenimoa/fundseeker/internal/infra/logger"
	"github.com/seenimoa/fundseeker/internal/providers/edgar"
	"github.com/seenimoa/fundseeker/internal/seeker"
	"github.com/seenimoa/fundseeker/internal/storage"
)

// app holds the wired dependencies shared by commands.
type app struct {
	log   *slog.Logger
	store storage.Store
	edgar *edgar.Client
	kafka *kafka.Publisher
	svc   *seeker.Service
}

// newApp opens storage and builds the import service. Events go to Kafka
// when enabled and to every extra publisher.
func newApp(ctx context.Context, cfg *config.Config, extra ...events.Publisher) (*app, error) {
	log, err := logger.New(os.Stderr, logger.Config{Level: cfg.Logging.Level, Format: cfg.Logging.Format})
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	slog.SetDefault(log)

	store, err := storage.Open(ctx, storage.Config{
		Driver: cfg.Storage.Driver,
		Path:   cfg.Storage.Path,
		DSN:    cfg.Storage.DSN,
	})
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}

	a := &app{
		log:   log,
		store: store,
		edgar: edgar.New(edgar.Options{
			BaseURL:   cfg.EDGAR.BaseURL,
			FeedURL:   cfg.EDGAR.FeedURL,
			UserAgent: cfg.EDGAR.UserAgent,
			Timeout:   cfg.EDGAR.Timeout(),
			RateLimit: cfg.EDGAR.RateLimit,
			CacheTTL:  cfg.EDGAR.CacheDuration(),
			Logger:    log,
		}),
	}

	publishers := events.Multi(extra)
	if cfg.Events.Kafka.Enabled {
		a.kafka, err = kafka.NewPublisher(cfg.Events.Kafka.Brokers, cfg.Events.Kafka.Topic)
		if err != nil {
			store.Close()
			return nil, fmt.Errorf("kafka publisher: %w", err)
		}
		publishers = append(publishers, a.kafka)
		log.Info("events.kafka.enabled", "brokers", cfg.Events.Kafka.Brokers, "topic", cfg.Events.Kafka.Topic)
	}

	a.svc = seeker.New(a.edgar, store, publishers, seeker.Options{
		Concurrency: cfg.Import.Concurrency,
		Logger:      log,
	})
	log.Debug("app.ready", "storage", cfg.Storage.Driver)
	return a, nil
}

// Close flushes the event writer and closes storage.
func (a *app) Close() error {
	var errs []error
	if a.kafka != nil {
		errs = append(errs, a.kafka.Close())
	}
	errs = append(errs, a.store.Close())
	return errors.Join(errs...)
}
