package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// NominatimClient resolves addresses against a Nominatim-compatible search
// endpoint. The public OSM instance requires an identifying email query
// parameter; self-hosted instances may leave it empty.
type NominatimClient struct {
	BaseURL string
	Email   string
	HTTP    *http.Client
}

func NewNominatim(baseURL, email string) *NominatimClient {
	return &NominatimClient{
		BaseURL: baseURL,
		Email:   email,
		HTTP: &http.Client{
			Timeout: 10 * time.Second,
			Transport: &http.Transport{
				MaxIdleConnsPerHost:   10,
				ResponseHeaderTimeout: 5 * time.Second,
				DialContext:           (&net.Dialer{Timeout: 5 * time.Second}).DialContext,
			},
		},
	}
}

type nominatimResult struct {
	Lat string `json:"lat"`
	Lon string `json:"lon"`
}

func (c *NominatimClient) Geocode(ctx context.Context, address string) (Coordinates, error) {
	q := url.Values{}
	q.Set("q", address)
	q.Set("format", "json")
	q.Set("limit", "1")
	if c.Email != "" {
		q.Set("email", c.Email)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/search?"+q.Encode(), nil)
	if err != nil {
		return Coordinates{}, err
	}
	req.Header.Set("User-Agent", "roamer-api")

	res, err := c.HTTP.Do(req)
	if err != nil {
		return Coordinates{}, fmt.Errorf("geocoder request: %w", err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.StatusCode != http.StatusOK {
		return Coordinates{}, fmt.Errorf("geocoder status %d", res.StatusCode)
	}

	var results []nominatimResult
	if err := json.NewDecoder(res.Body).Decode(&results); err != nil {
		return Coordinates{}, fmt.Errorf("geocoder response: %w", err)
	}
	if len(results) == 0 {
		return Coordinates{}, ErrNoResults
	}

	lat, err := strconv.ParseFloat(results[0].Lat, 64)
	if err != nil {
		return Coordinates{}, fmt.Errorf("geocoder latitude: %w", err)
	}
	lng, err := strconv.ParseFloat(results[0].Lon, 64)
	if err != nil {
		return Coordinates{}, fmt.Errorf("geocoder longitude: %w", err)
	}
	return Coordinates{Lat: lat, Lng: lng}, nil
}
