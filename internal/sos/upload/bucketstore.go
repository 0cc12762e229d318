package upload

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// BucketStore writes blobs to a Supabase-style storage REST API
// (POST /storage/v1/object/{bucket}/{path}) and derives the public
// object URL from the upload path.
type BucketStore struct {
	config BucketStoreConfig
	client *http.Client
	logger zerolog.Logger
}

type BucketStoreConfig struct {
	BaseURL string
	Bucket  string
	Token   string
	Timeout time.Duration
	Logger  zerolog.Logger
}

func NewBucketStore(cfg BucketStoreConfig) (*BucketStore, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("base url is empty")
	}
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("bucket is empty")
	}
	if cfg.Timeout < 0 {
		return nil, fmt.Errorf("timeout cannot be negative")
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 15 * time.Second
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")

	return &BucketStore{
		config: cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		logger: cfg.Logger.With().Str("component", "bucket_store").Logger(),
	}, nil
}

func (s *BucketStore) Upload(ctx context.Context, path string, data []byte) (string, error) {
	path = strings.TrimLeft(path, "/")
	url := fmt.Sprintf("%s/storage/v1/object/%s/%s", s.config.BaseURL, s.config.Bucket, path)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/octet-stream")
	if s.config.Token != "" {
		req.Header.Set("Authorization", "Bearer "+s.config.Token)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("blob upload: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		s.logger.Warn().
			Int("status", resp.StatusCode).
			Str("path", path).
			Msg("bucket rejected upload")
		return "", fmt.Errorf("%w: status %d", ErrUpload, resp.StatusCode)
	}

	public := fmt.Sprintf("%s/storage/v1/object/public/%s/%s", s.config.BaseURL, s.config.Bucket, path)
	s.logger.Debug().Str("url", public).Msg("blob uploaded")
	return public, nil
}
