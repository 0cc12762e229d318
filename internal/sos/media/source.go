package media

import (
	"context"
	"errors"
	"sync"
	"time"
)

var (
	ErrPermissionDenied  = errors.New("device permission denied")
	ErrDeviceUnavailable = errors.New("device unavailable")
)

type Constraints struct {
	Width  int
	Height int
}

func DefaultConstraints() Constraints {
	return Constraints{Width: 1280, Height: 720}
}

// Source hands out one combined audio+video stream. Both tracks come from
// a single acquisition so the capture sessions observe a consistent,
// already-authorized device.
type Source interface {
	Acquire(ctx context.Context, c Constraints) (*Stream, error)
}

// VideoTrack yields one encoded frame per call from the live stream.
type VideoTrack interface {
	Frame(ctx context.Context) ([]byte, error)
}

// AudioTrack records a clip of at most d. A context cancellation mid-record
// returns whatever error the track reports; callers treat the clip as lost.
type AudioTrack interface {
	Record(ctx context.Context, d time.Duration) ([]byte, error)
}

// Stream owns one device acquisition. The tracks are shared read-only by
// the capture sessions; only Release stops the device, and only once.
type Stream struct {
	video VideoTrack
	audio AudioTrack
	stop  func()
	once  sync.Once
}

func NewStream(video VideoTrack, audio AudioTrack, stop func()) *Stream {
	return &Stream{video: video, audio: audio, stop: stop}
}

func (s *Stream) Video() VideoTrack { return s.video }
func (s *Stream) Audio() AudioTrack { return s.audio }

// Release stops every track. Safe to call multiple times.
func (s *Stream) Release() {
	s.once.Do(func() {
		if s.stop != nil {
			s.stop()
		}
	})
}
