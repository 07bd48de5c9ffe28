package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/SUSHANT-M-GIT/SIH/internal/models"
)

// NominatimGeocoder reverse geocodes against an OpenStreetMap Nominatim instance.
type NominatimGeocoder struct {
	baseURL   string
	userAgent string
	client    *http.Client
	logger    *zap.SugaredLogger
}

// NewNominatimGeocoder creates a geocoder for the Nominatim API at baseURL.
func NewNominatimGeocoder(baseURL, userAgent string, client *http.Client, logger *zap.SugaredLogger) *NominatimGeocoder {
	if client == nil {
		client = http.DefaultClient
	}
	return &NominatimGeocoder{
		baseURL:   strings.TrimRight(baseURL, "/"),
		userAgent: userAgent,
		client:    client,
		logger:    logger,
	}
}

type reverseResponse struct {
	DisplayName string `json:"display_name"`
}

// Reverse returns the display name for c. An empty name is not an error.
func (g *NominatimGeocoder) Reverse(ctx context.Context, c models.Coordinates) (string, error) {
	q := url.Values{
		"format": {"json"},
		"lat":    {strconv.FormatFloat(c.Latitude, 'f', -1, 64)},
		"lon":    {strconv.FormatFloat(c.Longitude, 'f', -1, 64)},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"/reverse?"+q.Encode(), nil)
	if err != nil {
		return "", err
	}
	if g.userAgent != "" {
		req.Header.Set("User-Agent", g.userAgent)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		g.logger.Warnw("Reverse geocoding failed", "error", err)
		return "", fmt.Errorf("reverse geocode: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		g.logger.Warnw("Reverse geocoding rejected", "status", resp.StatusCode)
		return "", fmt.Errorf("reverse geocode: status %d", resp.StatusCode)
	}

	var body reverseResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&body); err != nil {
		return "", fmt.Errorf("decode reverse geocode: %w", err)
	}
	return body.DisplayName, nil
}
