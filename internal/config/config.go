package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/i474232898/city-weather-time/internal/common"
)

// Geocoder backends selectable through GEOCODER.
const (
	GeocoderNominatim = "nominatim"
	GeocoderGoogle    = "google"
)

type AppConfig struct {
	Port string
	// Env is "development" (coloured debug logs) or anything else (JSON logs).
	Env      string
	LogLevel string

	// HTTPTimeout bounds every outbound lookup.
	HTTPTimeout time.Duration

	// CacheCapacity is the entry bound of each lookup cache.
	CacheCapacity int

	GeocodingEnabled      bool
	TimezoneLookupEnabled bool
	LiveWeatherEnabled    bool

	Geocoder             string
	GoogleGeocoderAPIKey string
	NominatimBaseURL     string
	NominatimUserAgent   string
	NominatimRPS         float64

	OpenMeteoBaseURL string

	// Cities kept warm in the lookup caches, and how often.
	WarmCities   []string
	WarmInterval time.Duration
}

// Load reads configuration from environment with sensible defaults.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("INFO: No .env file found or error loading it: %v", err)
	}
	return FromEnv()
}

// FromEnv builds an AppConfig from the current process environment only.
func FromEnv() (*AppConfig, error) {
	cfg := &AppConfig{}

	cfg.Port = getenvDefault("PORT", "8080")
	cfg.Env = getenvDefault("APP_ENV", "development")
	cfg.LogLevel = strings.ToLower(getenvDefault("LOG_LEVEL", ""))

	var err error
	if cfg.HTTPTimeout, err = getenvDuration("HTTP_TIMEOUT", 10*time.Second); err != nil {
		return nil, err
	}
	if cfg.HTTPTimeout <= 0 {
		return nil, fmt.Errorf("invalid HTTP_TIMEOUT: must be positive")
	}

	cfg.CacheCapacity = getenvInt("CACHE_CAPACITY", 256)
	if cfg.CacheCapacity <= 0 {
		return nil, fmt.Errorf("invalid CACHE_CAPACITY: %d", cfg.CacheCapacity)
	}

	cfg.GeocodingEnabled = getenvBool("GEOCODING_ENABLED", true)
	cfg.TimezoneLookupEnabled = getenvBool("TIMEZONE_LOOKUP_ENABLED", true)
	cfg.LiveWeatherEnabled = getenvBool("LIVE_WEATHER_ENABLED", true)

	cfg.Geocoder = strings.ToLower(getenvDefault("GEOCODER", GeocoderNominatim))
	cfg.GoogleGeocoderAPIKey = os.Getenv("GOOGLE_GEOCODER_API_KEY")
	switch cfg.Geocoder {
	case GeocoderNominatim:
	case GeocoderGoogle:
		if cfg.GoogleGeocoderAPIKey == "" && cfg.GeocodingEnabled {
			return nil, fmt.Errorf("GEOCODER=google requires GOOGLE_GEOCODER_API_KEY")
		}
	default:
		return nil, fmt.Errorf("invalid GEOCODER %q: want %q or %q", cfg.Geocoder, GeocoderNominatim, GeocoderGoogle)
	}

	cfg.NominatimBaseURL = os.Getenv("NOMINATIM_BASE_URL")
	cfg.NominatimUserAgent = os.Getenv("NOMINATIM_USER_AGENT")
	if cfg.NominatimRPS, err = getenvFloat("NOMINATIM_RPS", 1); err != nil {
		return nil, err
	}
	cfg.OpenMeteoBaseURL = os.Getenv("OPENMETEO_BASE_URL")

	cfg.WarmCities = common.SplitList(os.Getenv("WARM_CITIES"))
	if cfg.WarmInterval, err = getenvDuration("WARM_INTERVAL", 6*time.Hour); err != nil {
		return nil, err
	}

	return cfg, nil
}

// IsDevelopment reports whether coloured development logging should be used.
func (c *AppConfig) IsDevelopment() bool {
	return c.Env == "" || c.Env == "development"
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err == nil {
			return n
		}
	}
	return def
}

func getenvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func getenvFloat(key string, def float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return f, nil
}

func getenvDuration(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
