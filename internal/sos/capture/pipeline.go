package capture

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/CIVIC-SOS/rapidassist/internal/sos/media"
	"github.com/CIVIC-SOS/rapidassist/internal/sos/models"
)

// ErrAborted is the expected outcome of user cancellation, not a failure to
// report. The lifecycle coordinator reads it as "discard, do not patch".
var ErrAborted = errors.New("capture aborted")

var (
	errNoUploader = errors.New("image uploader is required")
	errNoStorage  = errors.New("blob storage is required")
	errNoSource   = errors.New("media source is required")
)

// Pipeline acquires the device stream once and runs the image series and
// the audio session against it concurrently. The two sub-captures settle
// independently: one failing never cancels the other.
type Pipeline struct {
	config PipelineConfig
	logger zerolog.Logger
}

type PipelineConfig struct {
	Source      media.Source
	Constraints media.Constraints
	Images      *ImageSeries
	Audio       *AudioSession
	Logger      zerolog.Logger
}

func NewPipeline(cfg PipelineConfig) (*Pipeline, error) {
	if cfg.Source == nil {
		return nil, errNoSource
	}
	if cfg.Images == nil {
		return nil, errNoUploader
	}
	if cfg.Audio == nil {
		return nil, errNoStorage
	}
	if cfg.Constraints.Width <= 0 || cfg.Constraints.Height <= 0 {
		cfg.Constraints = media.DefaultConstraints()
	}
	return &Pipeline{
		config: cfg,
		logger: cfg.Logger.With().Str("component", "evidence_pipeline").Logger(),
	}, nil
}

// Run resolves with whatever evidence could be captured. Device-acquisition
// failure degrades to empty evidence with a nil error so alert submission is
// never blocked by a missing or denied camera. The only error returned is
// ErrAborted, when the activation was cancelled.
func (p *Pipeline) Run(ctx context.Context) (models.Evidence, error) {
	if ctx.Err() != nil {
		return models.Evidence{}, fmt.Errorf("before device access: %w", ErrAborted)
	}

	stream, err := p.config.Source.Acquire(ctx, p.config.Constraints)
	if err != nil {
		if ctx.Err() != nil {
			return models.Evidence{}, fmt.Errorf("during device access: %w", ErrAborted)
		}
		p.logger.Warn().Err(err).Msg("device acquisition failed, proceeding without evidence")
		return models.Evidence{ImageURLs: []string{}}, nil
	}
	// Single owner of the stream: released here on every exit path,
	// idempotently.
	defer stream.Release()

	var (
		wg        sync.WaitGroup
		audioURL  string
		imageURLs []string
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		audioURL = p.config.Audio.Record(ctx, stream.Audio())
	}()
	go func() {
		defer wg.Done()
		imageURLs = p.config.Images.Capture(ctx, stream.Video())
	}()
	wg.Wait()

	if ctx.Err() != nil {
		p.logger.Info().Msg("capture cancelled")
		return models.Evidence{}, ErrAborted
	}

	p.logger.Info().
		Int("images", len(imageURLs)).
		Bool("audio", audioURL != "").
		Msg("evidence captured")

	return models.Evidence{AudioURL: audioURL, ImageURLs: imageURLs}, nil
}
