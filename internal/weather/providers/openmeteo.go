package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/sony/gobreaker"

	"github.com/i474232898/city-weather-time/internal/weather"
)

// DefaultOpenMeteoURL is the public forecast endpoint.
const DefaultOpenMeteoURL = "https://api.open-meteo.com/v1/forecast"

// OpenMeteoProvider implements weather.CurrentProvider for Open-Meteo.
type OpenMeteoProvider struct {
	name    string
	baseURL string
	client  *http.Client
	circuit *gobreaker.CircuitBreaker
}

var _ weather.CurrentProvider = (*OpenMeteoProvider)(nil)

// NewOpenMeteoProvider creates a provider against baseURL (DefaultOpenMeteoURL when empty).
// Current conditions are time-sensitive, so requests are never retried or cached.
func NewOpenMeteoProvider(client *http.Client, baseURL string) *OpenMeteoProvider {
	if baseURL == "" {
		baseURL = DefaultOpenMeteoURL
	}
	return &OpenMeteoProvider{
		name:    "openmeteo",
		baseURL: baseURL,
		client:  client,
		circuit: newBreaker("openmeteo"),
	}
}

func (p *OpenMeteoProvider) Name() string {
	return p.name
}

// openMeteoPayload mirrors the parts of the forecast response we read.
type openMeteoPayload struct {
	Timezone       string `json:"timezone"`
	CurrentWeather *struct {
		Temperature *float64 `json:"temperature"`
		WindSpeed   *float64 `json:"windspeed"`
		WeatherCode *int     `json:"weathercode"`
	} `json:"current_weather"`
}

// Current fetches current conditions at the given coordinates, letting the
// provider resolve the local timezone.
func (p *OpenMeteoProvider) Current(ctx context.Context, lat, lon float64) (weather.CurrentConditions, error) {
	buildRequest := func() (*http.Request, error) {
		values := url.Values{}
		values.Set("latitude", strconv.FormatFloat(lat, 'f', -1, 64))
		values.Set("longitude", strconv.FormatFloat(lon, 'f', -1, 64))
		values.Set("current_weather", "true")
		values.Set("timezone", "auto")

		return http.NewRequest(http.MethodGet, p.baseURL+"?"+values.Encode(), nil)
	}

	resp, err := doRequest(ctx, p.client, p.circuit, buildRequest)
	if err != nil {
		return weather.CurrentConditions{}, fmt.Errorf("openmeteo: %w", err)
	}
	defer resp.Body.Close()

	var payload openMeteoPayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return weather.CurrentConditions{}, fmt.Errorf("openmeteo: decode payload: %w", err)
	}
	if payload.CurrentWeather == nil {
		return weather.CurrentConditions{}, fmt.Errorf("openmeteo: %w", weather.ErrNoCurrentWeather)
	}

	// Open-Meteo reports °C and km/h by default.
	return weather.CurrentConditions{
		TemperatureC: payload.CurrentWeather.Temperature,
		WindSpeedKph: payload.CurrentWeather.WindSpeed,
		WeatherCode:  payload.CurrentWeather.WeatherCode,
		Timezone:     payload.Timezone,
	}, nil
}
