package capture

import (
	"context"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/CIVIC-SOS/rapidassist/internal/sos/media"
)

// fakeVideoTrack hands out one-byte frames numbered from 1.
type fakeVideoTrack struct {
	calls   atomic.Int64
	grabbed chan int // optional: receives the frame number after each grab
	err     error
}

func (t *fakeVideoTrack) Frame(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if t.err != nil {
		return nil, t.err
	}
	n := int(t.calls.Add(1))
	if t.grabbed != nil {
		t.grabbed <- n
	}
	return []byte{byte(n)}, nil
}

// fakeUploader maps frame number to a URL; numbers in fail are rejected.
type fakeUploader struct {
	mu   sync.Mutex
	fail map[int]bool
	errs int
}

func (u *fakeUploader) Upload(ctx context.Context, image []byte) (string, error) {
	n := int(image[0])
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.fail[n] {
		u.errs++
		return "", errUploadFailed
	}
	return "https://img.example/" + strconv.Itoa(n) + ".jpg", nil
}

type fakeAudioTrack struct {
	clip []byte
	err  error
}

func (t *fakeAudioTrack) Record(ctx context.Context, d time.Duration) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if t.err != nil {
		return nil, t.err
	}
	return t.clip, nil
}

// blockingAudioTrack records forever until the context is cancelled.
type blockingAudioTrack struct{}

func (t *blockingAudioTrack) Record(ctx context.Context, d time.Duration) ([]byte, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

// fakeStorage fails paths matching any configured prefix.
type fakeStorage struct {
	mu         sync.Mutex
	failPrefix []string
	failAll    bool
	uploads    []string
}

func (s *fakeStorage) Upload(ctx context.Context, path string, data []byte) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.uploads = append(s.uploads, path)
	if s.failAll {
		return "", errUploadFailed
	}
	for _, p := range s.failPrefix {
		if strings.HasPrefix(path, p) {
			return "", errUploadFailed
		}
	}
	return "https://blob.example/" + path, nil
}

type fakeSource struct {
	err      error
	video    media.VideoTrack
	audio    media.AudioTrack
	releases atomic.Int64
}

func (s *fakeSource) Acquire(ctx context.Context, c media.Constraints) (*media.Stream, error) {
	if s.err != nil {
		return nil, s.err
	}
	return media.NewStream(s.video, s.audio, func() { s.releases.Add(1) }), nil
}
