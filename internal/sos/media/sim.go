package media

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/jpeg"
	"math"
	"sync/atomic"
	"time"
)

// SimSource is a stand-in device for environments without real capture
// hardware. Frames are solid-color JPEGs, audio is a 16-bit PCM sine tone.
type SimSource struct {
	released atomic.Bool
}

func NewSimSource() *SimSource {
	return &SimSource{}
}

func (s *SimSource) Acquire(ctx context.Context, c Constraints) (*Stream, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if c.Width <= 0 || c.Height <= 0 {
		c = DefaultConstraints()
	}
	video := &simVideoTrack{width: c.Width, height: c.Height}
	audio := &simAudioTrack{sampleRate: 16000}
	return NewStream(video, audio, func() { s.released.Store(true) }), nil
}

// Released reports whether the last acquired stream was stopped.
func (s *SimSource) Released() bool {
	return s.released.Load()
}

type simVideoTrack struct {
	width  int
	height int
	n      atomic.Int64
}

func (t *simVideoTrack) Frame(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	seq := t.n.Add(1)
	img := image.NewRGBA(image.Rect(0, 0, t.width, t.height))
	shade := uint8(40 + (seq*37)%180)
	fill := color.RGBA{R: shade, G: shade, B: shade, A: 255}
	for y := 0; y < t.height; y++ {
		for x := 0; x < t.width; x++ {
			img.SetRGBA(x, y, fill)
		}
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 70}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

type simAudioTrack struct {
	sampleRate int
}

func (t *simAudioTrack) Record(ctx context.Context, d time.Duration) ([]byte, error) {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-timer.C:
	}

	samples := int(float64(t.sampleRate) * d.Seconds())
	clip := make([]byte, 0, samples*2)
	for i := 0; i < samples; i++ {
		v := int16(8000 * math.Sin(2*math.Pi*440*float64(i)/float64(t.sampleRate)))
		clip = append(clip, byte(v), byte(v>>8))
	}
	return clip, nil
}
