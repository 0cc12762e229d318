package capture

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/CIVIC-SOS/rapidassist/internal/sos/media"
	"github.com/CIVIC-SOS/rapidassist/internal/sos/upload"
)

// ImageSeries grabs frames from the live video track at fixed intervals and
// uploads each one concurrently with the next interval wait. Upload results
// are collected by capture slot so the final list keeps capture order even
// when uploads complete out of order.
type ImageSeries struct {
	config ImageSeriesConfig
	logger zerolog.Logger
}

type ImageSeriesConfig struct {
	Uploader upload.ImageUploader
	Count    int
	Interval time.Duration
	Logger   zerolog.Logger
}

func NewImageSeries(cfg ImageSeriesConfig) (*ImageSeries, error) {
	if cfg.Uploader == nil {
		return nil, errNoUploader
	}
	if cfg.Count <= 0 {
		cfg.Count = 5
	}
	if cfg.Interval <= 0 {
		cfg.Interval = time.Second
	}
	return &ImageSeries{
		config: cfg,
		logger: cfg.Logger.With().Str("component", "image_series").Logger(),
	}, nil
}

// Capture never fails as a whole: a failed frame grab or upload drops that
// slot and the series carries on. Cancellation during an interval wait stops
// scheduling further frames; uploads already in flight are awaited so their
// results are not leaked mid-write.
func (s *ImageSeries) Capture(ctx context.Context, track media.VideoTrack) []string {
	slots := make([]string, s.config.Count)
	var wg sync.WaitGroup

	timer := time.NewTimer(s.config.Interval)
	defer timer.Stop()

	for i := 0; i < s.config.Count; i++ {
		if i > 0 {
			timer.Reset(s.config.Interval)
		}
		select {
		case <-ctx.Done():
			s.logger.Debug().Int("captured", i).Msg("image series cancelled")
			wg.Wait()
			return collect(slots)
		case <-timer.C:
		}

		frame, err := track.Frame(ctx)
		if err != nil {
			if ctx.Err() != nil {
				wg.Wait()
				return collect(slots)
			}
			s.logger.Warn().Err(err).Int("slot", i).Msg("frame grab failed")
			continue
		}

		wg.Add(1)
		go func(slot int, frame []byte) {
			defer wg.Done()
			url, err := s.config.Uploader.Upload(ctx, frame)
			if err != nil {
				s.logger.Warn().Err(err).Int("slot", slot).Msg("image upload failed")
				return
			}
			slots[slot] = url
		}(i, frame)

		s.logger.Debug().Int("slot", i+1).Int("total", s.config.Count).Msg("frame captured")
	}

	wg.Wait()
	return collect(slots)
}

// collect drops failed slots; capture order is preserved.
func collect(slots []string) []string {
	urls := make([]string, 0, len(slots))
	for _, u := range slots {
		if u != "" {
			urls = append(urls, u)
		}
	}
	return urls
}
