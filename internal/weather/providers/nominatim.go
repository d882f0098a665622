package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/i474232898/city-weather-time/internal/weather"
)

const (
	// DefaultNominatimURL is the public OpenStreetMap search endpoint.
	DefaultNominatimURL = "https://nominatim.openstreetmap.org/search"
	// DefaultNominatimUserAgent identifies us as the usage policy requires.
	DefaultNominatimUserAgent = "city-weather-time/1.0"
)

// NominatimGeocoder implements weather.Geocoder against an OSM Nominatim instance.
// The public instance allows one request per second, so calls wait on a limiter.
type NominatimGeocoder struct {
	baseURL   string
	userAgent string
	client    *http.Client
	circuit   *gobreaker.CircuitBreaker
	limiter   *rate.Limiter
}

var _ weather.Geocoder = (*NominatimGeocoder)(nil)

// NominatimConfig configures NewNominatimGeocoder. Zero values use defaults.
type NominatimConfig struct {
	BaseURL   string
	UserAgent string
	// RPS is the maximum request rate; <= 0 means 1.
	RPS float64
}

func NewNominatimGeocoder(client *http.Client, cfg NominatimConfig) *NominatimGeocoder {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultNominatimURL
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultNominatimUserAgent
	}
	if cfg.RPS <= 0 {
		cfg.RPS = 1
	}

	return &NominatimGeocoder{
		baseURL:   cfg.BaseURL,
		userAgent: cfg.UserAgent,
		client:    client,
		circuit:   newBreaker("nominatim"),
		limiter:   rate.NewLimiter(rate.Limit(cfg.RPS), 1),
	}
}

type nominatimPlace struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
}

// Geocode returns the single best match for query.
func (g *NominatimGeocoder) Geocode(ctx context.Context, query string) (weather.GeocodeResult, error) {
	if err := g.limiter.Wait(ctx); err != nil {
		return weather.GeocodeResult{}, fmt.Errorf("nominatim: rate limit wait canceled: %w", err)
	}

	buildRequest := func() (*http.Request, error) {
		values := url.Values{}
		values.Set("q", query)
		values.Set("format", "jsonv2")
		values.Set("limit", "1")

		req, err := http.NewRequest(http.MethodGet, g.baseURL+"?"+values.Encode(), nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("User-Agent", g.userAgent)
		req.Header.Set("Accept", "application/json")
		return req, nil
	}

	resp, err := doRequest(ctx, g.client, g.circuit, buildRequest)
	if err != nil {
		return weather.GeocodeResult{}, fmt.Errorf("nominatim: %w", err)
	}
	defer resp.Body.Close()

	var places []nominatimPlace
	if err := json.NewDecoder(resp.Body).Decode(&places); err != nil {
		return weather.GeocodeResult{}, fmt.Errorf("nominatim: decode response: %w", err)
	}
	if len(places) == 0 {
		return weather.GeocodeResult{}, fmt.Errorf("nominatim: %q: %w", query, weather.ErrNoResult)
	}

	p := places[0]
	lat, err := strconv.ParseFloat(p.Lat, 64)
	if err != nil {
		return weather.GeocodeResult{}, fmt.Errorf("nominatim: invalid latitude %q: %w", p.Lat, err)
	}
	lon, err := strconv.ParseFloat(p.Lon, 64)
	if err != nil {
		return weather.GeocodeResult{}, fmt.Errorf("nominatim: invalid longitude %q: %w", p.Lon, err)
	}

	return weather.GeocodeResult{Lat: lat, Lon: lon, DisplayName: p.DisplayName}, nil
}
