package upload

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

// ImageHost uploads JPEG frames to an imgbb-style hosting API: multipart
// POST with the key in the query string, JSON response with the hosted URL.
type ImageHost struct {
	config ImageHostConfig
	client *http.Client
	logger zerolog.Logger
}

type ImageHostConfig struct {
	Endpoint string
	APIKey   string
	Timeout  time.Duration
	Logger   zerolog.Logger
}

func NewImageHost(cfg ImageHostConfig) (*ImageHost, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("endpoint is empty")
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("api key is empty")
	}
	if cfg.Timeout < 0 {
		return nil, fmt.Errorf("timeout cannot be negative")
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 15 * time.Second
	}

	return &ImageHost{
		config: cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		logger: cfg.Logger.With().Str("component", "image_host").Logger(),
	}, nil
}

type imageHostResponse struct {
	Success bool `json:"success"`
	Data    struct {
		URL string `json:"url"`
	} `json:"data"`
}

func (h *ImageHost) Upload(ctx context.Context, image []byte) (string, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("image", "frame.jpg")
	if err != nil {
		return "", fmt.Errorf("multipart: %w", err)
	}
	if _, err := part.Write(image); err != nil {
		return "", fmt.Errorf("multipart write: %w", err)
	}
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("multipart close: %w", err)
	}

	url := fmt.Sprintf("%s?key=%s", h.config.Endpoint, h.config.APIKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, &body)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := h.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("image upload: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		h.logger.Warn().Int("status", resp.StatusCode).Msg("image host rejected upload")
		return "", fmt.Errorf("%w: status %d", ErrUpload, resp.StatusCode)
	}

	var parsed imageHostResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if !parsed.Success || parsed.Data.URL == "" {
		return "", fmt.Errorf("%w: host reported failure", ErrUpload)
	}

	h.logger.Debug().Str("url", parsed.Data.URL).Msg("image uploaded")
	return parsed.Data.URL, nil
}
