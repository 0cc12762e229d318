package kafka

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	kafkago "github.com/segmentio/kafka-go"
)

// Producer publishes alert domain events to Kafka with bounded retries.
// The outbox publisher is the only writer; consumers are expected to be
// idempotent (at-least-once delivery).
type Producer struct {
	writer  *kafkago.Writer
	config  ProducerConfig
	metrics producerMetrics
	closed  atomic.Bool
	logger  zerolog.Logger
}

type ProducerConfig struct {
	Brokers      []string
	Topic        string
	MaxRetries   int
	RetryBackoff time.Duration
	WriteTimeout time.Duration
	BatchSize    int
	Async        bool
	Logger       zerolog.Logger
}

type Message struct {
	Key   string
	Value []byte
}

type producerMetrics struct {
	MessagesPublished atomic.Int64
	MessagesFailed    atomic.Int64
	RetriesTotal      atomic.Int64
	PublishDuration   atomic.Int64 // наносекунды, суммарно
}

// Metrics is a point-in-time snapshot of producer counters.
type Metrics struct {
	MessagesPublished int64
	MessagesFailed    int64
	RetriesTotal      int64
	AvgPublishTime    time.Duration
}

func validateConfig(cfg *ProducerConfig) error {
	if len(cfg.Brokers) == 0 {
		return fmt.Errorf("brokers list is empty")
	}
	if cfg.Topic == "" {
		return fmt.Errorf("topic is empty")
	}
	if cfg.MaxRetries < 0 {
		return fmt.Errorf("max_retries cannot be negative")
	}
	if cfg.RetryBackoff < 0 {
		return fmt.Errorf("retry_backoff cannot be negative")
	}
	if cfg.WriteTimeout < 0 {
		return fmt.Errorf("write_timeout cannot be negative")
	}
	return nil
}

func setDefaults(cfg *ProducerConfig) {
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = 3
	}
	if cfg.RetryBackoff == 0 {
		cfg.RetryBackoff = 100 * time.Millisecond
	}
	if cfg.WriteTimeout == 0 {
		cfg.WriteTimeout = 10 * time.Second
	}
	if cfg.BatchSize == 0 {
		cfg.BatchSize = 100
	}
}

func NewProducer(cfg ProducerConfig) (*Producer, error) {
	if err := validateConfig(&cfg); err != nil {
		return nil, err
	}
	setDefaults(&cfg)

	return &Producer{
		writer: &kafkago.Writer{
			Addr:         kafkago.TCP(cfg.Brokers...),
			Topic:        cfg.Topic,
			Balancer:     &kafkago.LeastBytes{},
			BatchSize:    cfg.BatchSize,
			WriteTimeout: cfg.WriteTimeout,
			Async:        cfg.Async,
		},
		config: cfg,
		logger: cfg.Logger.With().Str("component", "kafka_producer").Logger(),
	}, nil
}

// isRetriableError классифицирует ошибки: transient сетевые проблемы
// ретраим, ошибки формата/авторизации — нет.
func isRetriableError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "invalid message"),
		strings.Contains(msg, "message too large"),
		strings.Contains(msg, "authorization failed"):
		return false
	case strings.Contains(msg, "connection refused"),
		strings.Contains(msg, "connection reset"),
		strings.Contains(msg, "timeout"),
		strings.Contains(msg, "leader not available"):
		return true
	}
	// Неизвестные ошибки считаем retriable
	return true
}

func (p *Producer) Publish(ctx context.Context, key string, value []byte) error {
	return p.publish(ctx, []kafkago.Message{{Key: []byte(key), Value: value}})
}

func (p *Producer) PublishBatch(ctx context.Context, messages []Message) error {
	if p.closed.Load() {
		return fmt.Errorf("producer is closed")
	}
	if len(messages) == 0 {
		return nil
	}

	batch := make([]kafkago.Message, 0, len(messages))
	for _, m := range messages {
		batch = append(batch, kafkago.Message{Key: []byte(m.Key), Value: m.Value})
	}
	return p.publish(ctx, batch)
}

func (p *Producer) publish(ctx context.Context, batch []kafkago.Message) error {
	if p.closed.Load() {
		return fmt.Errorf("producer is closed")
	}

	start := time.Now()
	var lastErr error

	for attempt := 0; attempt <= p.config.MaxRetries; attempt++ {
		if attempt > 0 {
			p.metrics.RetriesTotal.Add(1)
			select {
			case <-ctx.Done():
				p.metrics.MessagesFailed.Add(int64(len(batch)))
				return fmt.Errorf("kafka publish: %w", ctx.Err())
			case <-time.After(p.config.RetryBackoff):
			}
		}

		lastErr = p.writer.WriteMessages(ctx, batch...)
		if lastErr == nil {
			p.metrics.MessagesPublished.Add(int64(len(batch)))
			p.metrics.PublishDuration.Add(int64(time.Since(start)))
			return nil
		}

		if !isRetriableError(lastErr) {
			break
		}
		p.logger.Warn().
			Err(lastErr).
			Int("attempt", attempt+1).
			Msg("kafka publish failed, retrying")
	}

	p.metrics.MessagesFailed.Add(int64(len(batch)))
	return fmt.Errorf("kafka publish: %w", lastErr)
}

func (p *Producer) HealthCheck(ctx context.Context) error {
	if p.closed.Load() {
		return fmt.Errorf("producer is closed")
	}

	conn, err := kafkago.DialContext(ctx, "tcp", p.config.Brokers[0])
	if err != nil {
		return fmt.Errorf("kafka health check: %w", err)
	}
	return conn.Close()
}

func (p *Producer) GetMetrics() Metrics {
	published := p.metrics.MessagesPublished.Load()
	m := Metrics{
		MessagesPublished: published,
		MessagesFailed:    p.metrics.MessagesFailed.Load(),
		RetriesTotal:      p.metrics.RetriesTotal.Load(),
	}
	if published > 0 {
		m.AvgPublishTime = time.Duration(p.metrics.PublishDuration.Load() / published)
	}
	return m
}

func (p *Producer) Close() error {
	if p.closed.Swap(true) {
		return fmt.Errorf("producer is already closed")
	}
	return p.writer.Close()
}
