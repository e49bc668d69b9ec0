package geo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// ErrNoResults is returned when a place search matches nothing.
var ErrNoResults = errors.New("no places found")

// Place is one resolved search result.
type Place struct {
	Latitude  float64
	Longitude float64
	Address   string
}

// Geocoder resolves coordinates to addresses and search queries to places.
type Geocoder interface {
	ReverseGeocode(ctx context.Context, lat, lng float64) (string, error)
	SearchPlace(ctx context.Context, query string) (*Place, error)
}

// DeviceLocator reads the device's current position.
type DeviceLocator interface {
	CurrentLocation(ctx context.Context) (lat, lng float64, err error)
}

// StaticLocator is a device reading reported by the client.
type StaticLocator struct {
	Lat float64
	Lng float64
}

// CurrentLocation implements DeviceLocator.
func (l StaticLocator) CurrentLocation(context.Context) (float64, float64, error) {
	return l.Lat, l.Lng, nil
}

// HTTPGeocoder is a Nominatim-style geocoding client.
type HTTPGeocoder struct {
	baseURL string
	http    *http.Client
}

// NewHTTPGeocoder creates a geocoder for the given service URL.
func NewHTTPGeocoder(baseURL string) *HTTPGeocoder {
	return &HTTPGeocoder{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

func (g *HTTPGeocoder) getJSON(ctx context.Context, path string, params url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := g.http.Do(req)
	if err != nil {
		return fmt.Errorf("geocoder request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("geocoder returned status %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode geocoder response: %w", err)
	}
	return nil
}

// ReverseGeocode resolves a coordinate pair to a formatted address.
func (g *HTTPGeocoder) ReverseGeocode(ctx context.Context, lat, lng float64) (string, error) {
	params := url.Values{}
	params.Set("format", "jsonv2")
	params.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	params.Set("lon", strconv.FormatFloat(lng, 'f', -1, 64))

	var res struct {
		DisplayName string `json:"display_name"`
	}
	if err := g.getJSON(ctx, "/reverse", params, &res); err != nil {
		return "", err
	}
	if res.DisplayName == "" {
		return "", ErrNoResults
	}
	return res.DisplayName, nil
}

// SearchPlace resolves a free-text query to its best match.
func (g *HTTPGeocoder) SearchPlace(ctx context.Context, query string) (*Place, error) {
	params := url.Values{}
	params.Set("format", "jsonv2")
	params.Set("limit", "1")
	params.Set("q", query)

	var res []struct {
		Lat         string `json:"lat"`
		Lon         string `json:"lon"`
		DisplayName string `json:"display_name"`
	}
	if err := g.getJSON(ctx, "/search", params, &res); err != nil {
		return nil, err
	}
	if len(res) == 0 {
		return nil, ErrNoResults
	}

	lat, err := strconv.ParseFloat(res[0].Lat, 64)
	if err != nil {
		return nil, fmt.Errorf("parse place latitude: %w", err)
	}
	lng, err := strconv.ParseFloat(res[0].Lon, 64)
	if err != nil {
		return nil, fmt.Errorf("parse place longitude: %w", err)
	}

	return &Place{Latitude: lat, Longitude: lng, Address: res[0].DisplayName}, nil
}
