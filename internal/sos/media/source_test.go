package media

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStream_ReleaseIdempotent(t *testing.T) {
	stops := 0
	s := NewStream(nil, nil, func() { stops++ })

	s.Release()
	s.Release()
	s.Release()

	// Only the first call may stop the device.
	assert.Equal(t, 1, stops)
}

func TestStream_ReleaseNilStop(t *testing.T) {
	s := NewStream(nil, nil, nil)
	assert.NotPanics(t, func() { s.Release() })
}

func TestSimSource_AcquireAndRelease(t *testing.T) {
	ctx := context.Background()
	src := NewSimSource()

	stream, err := src.Acquire(ctx, DefaultConstraints())
	require.NoError(t, err)
	require.NotNil(t, stream.Video())
	require.NotNil(t, stream.Audio())
	assert.False(t, src.Released())

	stream.Release()
	assert.True(t, src.Released())
}

func TestSimSource_AcquireCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	src := NewSimSource()
	stream, err := src.Acquire(ctx, DefaultConstraints())
	require.Error(t, err)
	assert.Nil(t, stream)
}

func TestSimVideoTrack_FramesDiffer(t *testing.T) {
	ctx := context.Background()
	src := NewSimSource()
	stream, err := src.Acquire(ctx, Constraints{Width: 32, Height: 32})
	require.NoError(t, err)
	defer stream.Release()

	a, err := stream.Video().Frame(ctx)
	require.NoError(t, err)
	b, err := stream.Video().Frame(ctx)
	require.NoError(t, err)

	require.NotEmpty(t, a)
	require.NotEmpty(t, b)
	assert.NotEqual(t, a, b)
}

func TestSimAudioTrack_RecordCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	src := NewSimSource()
	stream, err := src.Acquire(ctx, Constraints{Width: 8, Height: 8})
	require.NoError(t, err)
	defer stream.Release()

	go func() {
		time.Sleep(5 * time.Millisecond)
		cancel()
	}()

	clip, err := stream.Audio().Record(ctx, time.Minute)
	require.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, clip)
}
