// Package outbox relays events committed to outbox_events to the message broker.
package outbox

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/nimeshabuddhika/garmentix-payments/pkg/database"
	"github.com/nimeshabuddhika/garmentix-payments/pkg/repositories"
	"github.com/nimeshabuddhika/garmentix-payments/pkg/utils"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

var (
	eventsPublished = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "garmentix",
		Name:      "outbox_events_published_total",
		Help:      "Outbox events delivered to the broker",
	})
	publishFailures = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "garmentix",
		Name:      "outbox_publish_failures_total",
		Help:      "Outbox publish attempts that failed",
	})
)

// EventPublisher is satisfied by *kafkautils.Publisher.
type EventPublisher interface {
	Publish(ctx context.Context, key string, value []byte) error
}

type Config struct {
	PollInterval time.Duration
	BatchSize    int
	MaxBackoff   time.Duration
}

type Dispatcher struct {
	logger    *zap.Logger
	db        database.Transactor
	repo      repositories.OutboxRepository
	publisher EventPublisher
	cfg       Config
}

func NewDispatcher(logger *zap.Logger, db database.Transactor, repo repositories.OutboxRepository, publisher EventPublisher, cfg Config) *Dispatcher {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = time.Second
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 50
	}
	if cfg.MaxBackoff < cfg.PollInterval {
		cfg.MaxBackoff = 30 * time.Second
	}
	return &Dispatcher{logger: logger, db: db, repo: repo, publisher: publisher, cfg: cfg}
}

// Run polls until ctx is cancelled. Consecutive failures back off exponentially.
func (d *Dispatcher) Run(ctx context.Context) error {
	d.logger.Info("outbox_dispatcher_started", zap.Duration("poll_interval", d.cfg.PollInterval))
	failures := 0
	for {
		wait := d.cfg.PollInterval
		if failures > 0 {
			wait = utils.CalculateExponentialBackoffWithJitter(failures, d.cfg.PollInterval, d.cfg.MaxBackoff)
		}
		select {
		case <-ctx.Done():
			d.logger.Info("outbox_dispatcher_stopped")
			return nil
		case <-time.After(wait):
		}

		if _, err := d.DispatchOnce(ctx); err != nil {
			if ctx.Err() != nil {
				continue
			}
			failures++
			d.logger.Warn("outbox_dispatch_failed", zap.Int("consecutive_failures", failures), zap.Error(err))
			continue
		}
		failures = 0
	}
}

// DispatchOnce publishes one batch in order and returns how many events were marked published.
// A publish failure stops the batch; events already sent are still marked.
func (d *Dispatcher) DispatchOnce(ctx context.Context) (int, error) {
	var published int
	var publishErr error
	err := d.db.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		events, err := d.repo.FindUnpublished(ctx, tx, d.cfg.BatchSize)
		if err != nil {
			return err
		}
		for _, event := range events {
			if err = d.publisher.Publish(ctx, event.AggregateID, event.Payload); err != nil {
				publishFailures.Inc()
				publishErr = err
				d.logger.Error("outbox_publish_failed",
					zap.Int64("event_id", event.ID),
					zap.String("event_type", event.EventType),
					zap.Error(err))
				break
			}
			if err = d.repo.MarkPublished(ctx, tx, event.ID); err != nil {
				return err
			}
			published++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	eventsPublished.Add(float64(published))
	if published > 0 {
		d.logger.Debug("outbox_events_published", zap.Int("count", published))
	}
	return published, publishErr
}
