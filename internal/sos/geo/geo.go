package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/CIVIC-SOS/rapidassist/internal/sos/models"
)

// DefaultLocation is used when the requester has no position fix at all.
var DefaultLocation = models.Location{
	Lat:     28.6139,
	Lng:     77.2090,
	Address: "New Delhi, India",
}

// Resolver turns a raw position fix into the location snapshot attached to
// an alert, enriching coordinates with a human-readable address via a
// Nominatim-style reverse-geocoding API. Geocoding is best-effort: on any
// failure the address degrades to formatted coordinates.
type Resolver struct {
	config ResolverConfig
	client *http.Client
	logger zerolog.Logger
}

type ResolverConfig struct {
	GeocodeURL string // empty disables reverse geocoding
	Timeout    time.Duration
	Fallback   models.Location
	Logger     zerolog.Logger
}

func NewResolver(cfg ResolverConfig) *Resolver {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.Fallback == (models.Location{}) {
		cfg.Fallback = DefaultLocation
	}
	return &Resolver{
		config: cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		logger: cfg.Logger.With().Str("component", "geo_resolver").Logger(),
	}
}

// Snapshot resolves the location attached to an alert at submission time.
// hasFix=false yields the configured fallback location.
func (r *Resolver) Snapshot(ctx context.Context, lat, lng, accuracy float64, hasFix bool) models.Location {
	if !hasFix {
		return r.config.Fallback
	}

	loc := models.Location{
		Lat:      lat,
		Lng:      lng,
		Accuracy: accuracy,
		Address:  fmt.Sprintf("%.4f, %.4f", lat, lng),
	}

	if r.config.GeocodeURL == "" {
		return loc
	}
	if addr, err := r.reverseGeocode(ctx, lat, lng); err != nil {
		r.logger.Debug().Err(err).Msg("reverse geocoding failed, using coordinates")
	} else if addr != "" {
		loc.Address = addr
	}
	return loc
}

type geocodeResponse struct {
	DisplayName string `json:"display_name"`
}

func (r *Resolver) reverseGeocode(ctx context.Context, lat, lng float64) (string, error) {
	q := url.Values{}
	q.Set("lat", fmt.Sprintf("%f", lat))
	q.Set("lon", fmt.Sprintf("%f", lng))
	q.Set("format", "json")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.config.GeocodeURL+"?"+q.Encode(), nil)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("reverse geocode: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("reverse geocode: status %d", resp.StatusCode)
	}

	var parsed geocodeResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}

	// Полный display_name слишком длинный, берём первые три части
	parts := strings.Split(parsed.DisplayName, ",")
	if len(parts) > 3 {
		parts = parts[:3]
	}
	return strings.TrimSpace(strings.Join(parts, ",")), nil
}
