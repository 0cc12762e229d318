package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/CIVIC-SOS/rapidassist/internal/sos/capture"
	"github.com/CIVIC-SOS/rapidassist/internal/sos/geo"
	"github.com/CIVIC-SOS/rapidassist/internal/sos/httpapi"
	"github.com/CIVIC-SOS/rapidassist/internal/sos/kafka"
	"github.com/CIVIC-SOS/rapidassist/internal/sos/lifecycle"
	"github.com/CIVIC-SOS/rapidassist/internal/sos/media"
	"github.com/CIVIC-SOS/rapidassist/internal/sos/outbox"
	"github.com/CIVIC-SOS/rapidassist/internal/sos/repository"
	"github.com/CIVIC-SOS/rapidassist/internal/sos/service"
	"github.com/CIVIC-SOS/rapidassist/internal/sos/upload"
	pg "github.com/CIVIC-SOS/rapidassist/internal/storage/postgres"
)

func run(ctx context.Context, logger zerolog.Logger) error {
	_ = godotenv.Load()

	var (
		alertRepo  repository.AlertRepository
		outboxRepo repository.OutboxRepository
		pgOutbox   *pg.OutboxRepo
	)

	dsn := os.Getenv("DATABASE_URL")
	if dsn != "" {
		db, err := pg.Connect(ctx, dsn)
		if err != nil {
			return fmt.Errorf("db connect: %w", err)
		}
		defer db.Close()

		alertRepo = pg.NewAlertRepo(db)
		pgOutbox = pg.NewOutboxRepo(db)
		outboxRepo = pgOutbox
	} else {
		logger.Warn().Msg("DATABASE_URL is empty, alerts are kept in memory")
		alertRepo = repository.NewMemoryRepository()
		outboxRepo = repository.NewMemoryOutbox()
	}

	svc := service.New(alertRepo, outboxRepo)

	imageHost, err := upload.NewImageHost(upload.ImageHostConfig{
		Endpoint: envDefault("IMAGE_HOST_URL", "https://api.imgbb.com/1/upload"),
		APIKey:   os.Getenv("IMAGE_HOST_KEY"),
		Logger:   logger,
	})
	if err != nil {
		return fmt.Errorf("image host: %w", err)
	}

	bucket, err := upload.NewBucketStore(upload.BucketStoreConfig{
		BaseURL: os.Getenv("STORAGE_URL"),
		Bucket:  envDefault("STORAGE_BUCKET", "sos-recordings"),
		Token:   os.Getenv("STORAGE_TOKEN"),
		Logger:  logger,
	})
	if err != nil {
		return fmt.Errorf("bucket store: %w", err)
	}

	images, err := capture.NewImageSeries(capture.ImageSeriesConfig{
		Uploader: imageHost,
		Logger:   logger,
	})
	if err != nil {
		return fmt.Errorf("image series: %w", err)
	}

	audio, err := capture.NewAudioSession(capture.AudioSessionConfig{
		Storage: bucket,
		Logger:  logger,
	})
	if err != nil {
		return fmt.Errorf("audio session: %w", err)
	}

	pipeline, err := capture.NewPipeline(capture.PipelineConfig{
		Source: media.NewSimSource(),
		Images: images,
		Audio:  audio,
		Logger: logger,
	})
	if err != nil {
		return fmt.Errorf("pipeline: %w", err)
	}

	coord, err := lifecycle.New(pipeline, svc, lifecycle.Config{Logger: logger}, lifecycle.Hooks{
		OnTick: func(remaining int) {
			logger.Info().Int("remaining", remaining).Msg("sos countdown")
		},
	})
	if err != nil {
		return fmt.Errorf("lifecycle: %w", err)
	}

	resolver := geo.NewResolver(geo.ResolverConfig{
		GeocodeURL: os.Getenv("GEOCODE_URL"),
		Logger:     logger,
	})

	router := httpapi.NewRouter(httpapi.New(svc, coord, resolver))
	srv := &http.Server{
		Addr:              envDefault("HTTP_ADDR", ":8080"),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info().Str("addr", srv.Addr).Msg("http listening")
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen and serve: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	})

	// Публикация outbox-событий в Kafka работает только поверх Postgres.
	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" && pgOutbox != nil {
		producer, err := kafka.NewProducer(kafka.ProducerConfig{
			Brokers: strings.Split(brokers, ","),
			Topic:   envDefault("KAFKA_TOPIC", "alert-events"),
			Logger:  logger,
		})
		if err != nil {
			return fmt.Errorf("kafka producer: %w", err)
		}
		defer producer.Close()

		pub, err := outbox.NewPublisher(outbox.PublisherConfig{
			Store:     pgOutbox,
			Sink:      producer,
			Interval:  2 * time.Second,
			BatchSize: 50,
			Logger:    logger,
		})
		if err != nil {
			return fmt.Errorf("outbox publisher: %w", err)
		}

		g.Go(func() error {
			if err := pub.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		})
	}

	return g.Wait()
}

func envDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
