package capture

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/CIVIC-SOS/rapidassist/internal/sos/media"
	"github.com/CIVIC-SOS/rapidassist/internal/sos/upload"
)

const defaultPlaceholderBase = "https://demo-placeholder.com"

// AudioSession records one fixed-duration clip and pushes it to durable
// storage. Audio evidence is best-effort: the primary path is tried first,
// then the bucket root, and if both fail the caller still gets a
// clearly-marked placeholder URL instead of an error.
type AudioSession struct {
	config AudioSessionConfig
	logger zerolog.Logger
	clock  func() time.Time
}

type AudioSessionConfig struct {
	Storage         upload.BlobStorage
	Duration        time.Duration
	PlaceholderBase string
	Logger          zerolog.Logger
}

func NewAudioSession(cfg AudioSessionConfig) (*AudioSession, error) {
	if cfg.Storage == nil {
		return nil, errNoStorage
	}
	if cfg.Duration <= 0 {
		cfg.Duration = 7 * time.Second
	}
	if cfg.PlaceholderBase == "" {
		cfg.PlaceholderBase = defaultPlaceholderBase
	}
	return &AudioSession{
		config: cfg,
		logger: cfg.Logger.With().Str("component", "audio_session").Logger(),
		clock:  time.Now,
	}, nil
}

// Record returns the hosted clip URL, a placeholder URL when storage is down,
// or "" when the recording was cancelled before it completed. It never
// returns an error: the pipeline aggregates a value on every path.
func (s *AudioSession) Record(ctx context.Context, track media.AudioTrack) string {
	clip, err := track.Record(ctx, s.config.Duration)
	if ctx.Err() != nil {
		// Cancelled mid-record: the partial clip is not uploaded.
		s.logger.Debug().Msg("audio recording cancelled")
		return ""
	}
	if err != nil {
		s.logger.Warn().Err(err).Msg("audio recording failed")
		return ""
	}

	name := fmt.Sprintf("sos_audio_%d.webm", s.clock().UnixMilli())

	// Recording is done; finish the upload even if the activation context
	// is cancelled between here and the storage call.
	uploadCtx := context.WithoutCancel(ctx)

	url, err := s.config.Storage.Upload(uploadCtx, "audio/"+name, clip)
	if err == nil {
		return url
	}
	s.logger.Warn().Err(err).Msg("primary audio upload failed, trying bucket root")

	url, err = s.config.Storage.Upload(uploadCtx, name, clip)
	if err == nil {
		return url
	}
	s.logger.Error().Err(err).Msg("audio upload failed on both paths, using placeholder")

	return fmt.Sprintf("%s/audio/%s", s.config.PlaceholderBase, name)
}
