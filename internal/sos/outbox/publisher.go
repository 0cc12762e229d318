package outbox

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/CIVIC-SOS/rapidassist/internal/storage/postgres"
)

// PendingStore reads and acknowledges unprocessed outbox records.
type PendingStore interface {
	GetPending(ctx context.Context, limit int) ([]postgres.OutboxRecord, error)
	MarkProcessed(ctx context.Context, id int64) error
}

// EventSink delivers one serialized event; in production this is the Kafka
// producer.
type EventSink interface {
	Publish(ctx context.Context, key string, value []byte) error
}

// Publisher реализует Outbox паттерн для надёжной публикации alert-событий.
// Гарантирует at-least-once delivery семантику.
type Publisher struct {
	store     PendingStore
	sink      EventSink
	interval  time.Duration
	batchSize int
	logger    zerolog.Logger
}

type PublisherConfig struct {
	Store     PendingStore
	Sink      EventSink
	Interval  time.Duration
	BatchSize int
	Logger    zerolog.Logger
}

func NewPublisher(cfg PublisherConfig) (*Publisher, error) {
	if cfg.Store == nil {
		return nil, fmt.Errorf("outbox store is required")
	}
	if cfg.Sink == nil {
		return nil, fmt.Errorf("event sink is required")
	}
	if cfg.Interval <= 0 {
		return nil, fmt.Errorf("interval must be positive, got: %v", cfg.Interval)
	}
	if cfg.BatchSize <= 0 {
		return nil, fmt.Errorf("batch size must be positive, got: %d", cfg.BatchSize)
	}

	return &Publisher{
		store:     cfg.Store,
		sink:      cfg.Sink,
		interval:  cfg.Interval,
		batchSize: cfg.BatchSize,
		logger:    cfg.Logger.With().Str("component", "outbox_publisher").Logger(),
	}, nil
}

// Start запускает polling механизм и блокирует до отмены контекста.
// События, которые не удалось опубликовать, остаются pending и будут
// доставлены повторно — consumer должен быть идемпотентным.
func (p *Publisher) Start(ctx context.Context) error {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.logger.Info().
		Dur("interval", p.interval).
		Int("batch_size", p.batchSize).
		Msg("outbox publisher started")

	for {
		select {
		case <-ctx.Done():
			p.logger.Info().
				Err(ctx.Err()).
				Msg("outbox publisher stopped")
			return ctx.Err()

		case <-ticker.C:
			if err := p.publishBatch(ctx); err != nil {
				p.logger.Error().
					Err(err).
					Msg("failed to publish batch")
				// Продолжаем работать, не падаем
			}
		}
	}
}

func (p *Publisher) publishBatch(ctx context.Context) error {
	records, err := p.store.GetPending(ctx, p.batchSize)
	if err != nil {
		return fmt.Errorf("get pending records: %w", err)
	}

	if len(records) == 0 {
		p.logger.Debug().Msg("no pending events to publish")
		return nil
	}

	var (
		published int
		failed    int
		marked    int
	)

	for _, record := range records {
		eventLogger := p.logger.With().
			Str("event_id", record.EventID).
			Str("event_type", record.EventType).
			Str("aggregate_id", record.AggregateID).
			Int64("outbox_id", record.ID).
			Logger()

		if err := p.sink.Publish(ctx, record.EventID, record.Payload); err != nil {
			eventLogger.Error().
				Err(err).
				Msg("failed to publish event")
			failed++
			continue // пропускаем, попробуем в следующий раз
		}

		published++

		if err := p.store.MarkProcessed(ctx, record.ID); err != nil {
			// Событие опубликовано, но не помечено — оно опубликуется
			// повторно. Это нормально для at-least-once delivery.
			eventLogger.Warn().
				Err(err).
				Msg("failed to mark event as processed")
		} else {
			marked++
		}
	}

	p.logger.Info().
		Int("total", len(records)).
		Int("published", published).
		Int("failed", failed).
		Int("marked", marked).
		Msg("batch processing completed")

	return nil
}
