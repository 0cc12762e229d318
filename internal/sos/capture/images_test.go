package capture

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errUploadFailed = errors.New("upload failed")

func newTestSeries(t *testing.T, uploader *fakeUploader, count int) *ImageSeries {
	t.Helper()
	s, err := NewImageSeries(ImageSeriesConfig{
		Uploader: uploader,
		Count:    count,
		Interval: time.Millisecond,
		Logger:   zerolog.Nop(),
	})
	require.NoError(t, err)
	return s
}

func TestNewImageSeries_RequiresUploader(t *testing.T) {
	s, err := NewImageSeries(ImageSeriesConfig{})
	require.Error(t, err)
	assert.Nil(t, s)
}

func TestNewImageSeries_Defaults(t *testing.T) {
	s, err := NewImageSeries(ImageSeriesConfig{Uploader: &fakeUploader{}})
	require.NoError(t, err)
	assert.Equal(t, 5, s.config.Count)
	assert.Equal(t, time.Second, s.config.Interval)
}

func TestImageSeries_AllUploadsSucceed(t *testing.T) {
	track := &fakeVideoTrack{}
	series := newTestSeries(t, &fakeUploader{}, 5)

	urls := series.Capture(context.Background(), track)

	require.Equal(t, []string{
		"https://img.example/1.jpg",
		"https://img.example/2.jpg",
		"https://img.example/3.jpg",
		"https://img.example/4.jpg",
		"https://img.example/5.jpg",
	}, urls)
}

func TestImageSeries_FailedSlotsDroppedInOrder(t *testing.T) {
	track := &fakeVideoTrack{}
	uploader := &fakeUploader{fail: map[int]bool{2: true, 4: true}}
	series := newTestSeries(t, uploader, 5)

	urls := series.Capture(context.Background(), track)

	// Slots 2 and 4 fail; the rest keep capture order with no gaps.
	require.Equal(t, []string{
		"https://img.example/1.jpg",
		"https://img.example/3.jpg",
		"https://img.example/5.jpg",
	}, urls)
	assert.Equal(t, 2, uploader.errs)
}

func TestImageSeries_FrameGrabFailureSkipsSlot(t *testing.T) {
	track := &fakeVideoTrack{err: errors.New("track gone")}
	series := newTestSeries(t, &fakeUploader{}, 3)

	urls := series.Capture(context.Background(), track)
	assert.Empty(t, urls)
}

func TestImageSeries_CancelStopsScheduling(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	track := &fakeVideoTrack{grabbed: make(chan int, 8)}
	uploader := &fakeUploader{}

	s, err := NewImageSeries(ImageSeriesConfig{
		Uploader: uploader,
		Count:    5,
		Interval: 50 * time.Millisecond,
		Logger:   zerolog.Nop(),
	})
	require.NoError(t, err)

	done := make(chan []string, 1)
	go func() { done <- s.Capture(ctx, track) }()

	// Let two frames through, then cancel during the next interval wait.
	require.Equal(t, 1, <-track.grabbed)
	require.Equal(t, 2, <-track.grabbed)
	cancel()

	urls := <-done
	got := int(track.calls.Load())
	assert.LessOrEqual(t, got, 3)
	assert.LessOrEqual(t, len(urls), got)
}

func TestImageSeries_PreCancelledCapturesNothing(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	track := &fakeVideoTrack{}
	series := newTestSeries(t, &fakeUploader{}, 5)

	urls := series.Capture(ctx, track)
	assert.Empty(t, urls)
	assert.Zero(t, track.calls.Load())
}
