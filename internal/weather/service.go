package weather

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"math/rand/v2"
	"strconv"
	"strings"
	"sync"
	"time"
	_ "time/tzdata" // zone lookups must not depend on the host's zoneinfo

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/i474232898/city-weather-time/internal/common"
)

// DefaultLookupTimeout bounds every external lookup.
const DefaultLookupTimeout = 10 * time.Second

const (
	isoLayout    = "2006-01-02T15:04:05.000000-07:00"
	reportLayout = "2006-01-02 15:04:05 MST-0700"
)

var tracer = otel.Tracer("github.com/i474232898/city-weather-time/internal/weather")

// Capabilities switches the external lookup tiers on or off.
type Capabilities struct {
	Geocoding   bool
	Timezone    bool
	LiveWeather bool
}

// AllCapabilities enables every lookup tier.
var AllCapabilities = Capabilities{Geocoding: true, Timezone: true, LiveWeather: true}

// Options configures a Service. Zero values fall back to defaults.
type Options struct {
	Cities        map[string]KnownCity
	Geocoder      Geocoder
	Timezones     TimezoneFinder
	Weather       CurrentProvider
	Capabilities  Capabilities
	LookupTimeout time.Duration
	Logger        *slog.Logger
	// Rand drives the jitter applied to known-city readings.
	Rand *rand.Rand
	Now  func() time.Time
}

// Service composes city resolution, lookups and formatting into QueryResults.
// It is safe for concurrent use.
type Service struct {
	resolver  *Resolver
	geocoder  Geocoder
	timezones TimezoneFinder
	weather   CurrentProvider
	caps      Capabilities
	timeout   time.Duration
	logger    *slog.Logger
	now       func() time.Time

	randMu sync.Mutex
	rand   *rand.Rand
}

// NewService creates a new Service.
func NewService(opts Options) *Service {
	cities := opts.Cities
	if cities == nil {
		cities = DefaultCities
	}
	timeout := opts.LookupTimeout
	if timeout <= 0 {
		timeout = DefaultLookupTimeout
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	r := opts.Rand
	if r == nil {
		r = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	return &Service{
		resolver:  NewResolver(cities),
		geocoder:  opts.Geocoder,
		timezones: opts.Timezones,
		weather:   opts.Weather,
		caps:      opts.Capabilities,
		timeout:   timeout,
		logger:    logger,
		now:       now,
		rand:      r,
	}
}

// GetWeather reports current weather for city in the requested units ("C" or "F").
func (s *Service) GetWeather(ctx context.Context, city, units string) QueryResult {
	ctx, span := tracer.Start(ctx, "weather.GetWeather")
	defer span.End()
	span.SetAttributes(attribute.String("city", city), attribute.String("units", units))

	u, ok := parseUnits(units)
	if !ok {
		return errorResult(ErrInvalidUnits, "`units` must be 'C' or 'F'.")
	}

	if key, ok := s.resolver.Resolve(city); ok {
		span.SetAttributes(attribute.String("known_city", key))
		return s.knownCityWeather(key, u)
	}

	geo, err := s.geocode(ctx, city)
	if err != nil {
		return errorResult(ErrCityNotResolvable,
			fmt.Sprintf("Weather information for '%s' is not available.", city))
	}

	cur, err := s.currentWeather(ctx, geo)
	if err != nil {
		return errorResult(ErrWeatherUnavailable,
			fmt.Sprintf("Could not retrieve weather for '%s' at this time.", city))
	}

	return s.liveWeather(ctx, geo, cur, u)
}

// GetCurrentTime reports the current local time in city.
func (s *Service) GetCurrentTime(ctx context.Context, city string) QueryResult {
	ctx, span := tracer.Start(ctx, "weather.GetCurrentTime")
	defer span.End()
	span.SetAttributes(attribute.String("city", city))

	if key, ok := s.resolver.Resolve(city); ok {
		base, _ := s.resolver.City(key)
		return s.timeResult(common.Title(key), base.Timezone, city)
	}

	geo, err := s.geocode(ctx, city)
	if err != nil {
		return errorResult(ErrCityNotResolvable,
			fmt.Sprintf("Sorry, I don't have timezone information for %s.", city))
	}

	zone, err := s.timezoneAt(ctx, geo.Lat, geo.Lon)
	if err != nil {
		return errorResult(ErrTimezoneUnavailable,
			fmt.Sprintf("Could not determine timezone for %s.", city))
	}

	return s.timeResult(geo.DisplayName, zone, city)
}

// Warm resolves city through the geocoding and timezone tiers so cached
// lookups stay fresh. Known cities need no warming.
func (s *Service) Warm(ctx context.Context, city string) error {
	if _, ok := s.resolver.Resolve(city); ok {
		return nil
	}
	geo, err := s.geocode(ctx, city)
	if err != nil {
		return fmt.Errorf("geocode %q: %w", city, err)
	}
	if _, err := s.timezoneAt(ctx, geo.Lat, geo.Lon); err != nil {
		return fmt.Errorf("timezone for %q: %w", city, err)
	}
	return nil
}

func (s *Service) knownCityWeather(key string, u Units) QueryResult {
	base, _ := s.resolver.City(key)

	loc, err := time.LoadLocation(base.Timezone)
	if err != nil {
		s.logger.Debug("known city has invalid timezone",
			slog.String("city", key), slog.String("timezone", base.Timezone), slog.Any("error", err))
		return errorResult(ErrTimezoneUnavailable,
			fmt.Sprintf("Could not determine timezone for %s.", key))
	}

	s.randMu.Lock()
	tempJitter := -1.5 + 3*s.rand.Float64()
	humidityJitter := s.rand.IntN(7) - 3
	windJitter := -2 + 4*s.rand.Float64()
	s.randMu.Unlock()

	tempC := common.Round(base.TempC+tempJitter, 1)
	humidity := common.Clamp(base.Humidity+humidityJitter, 0, 100)
	wind := common.Round(math.Max(0, base.WindKph+windJitter), 1)
	temp := displayTemp(tempC, u)

	snap := &WeatherSnapshot{
		City:      common.Title(key),
		TempC:     &tempC,
		Temp:      &temp,
		Units:     u,
		Condition: base.Condition,
		Humidity:  &humidity,
		WindKph:   &wind,
		Timestamp: s.now().In(loc).Format(isoLayout),
	}

	report := fmt.Sprintf(
		"The weather in %s is %s with a temperature of %s°%s (%s°C). Humidity: %d%%. Wind: %s kph.",
		snap.City, snap.Condition, formatReading(snap.Temp), snap.Units,
		formatReading(snap.TempC), humidity, formatReading(snap.WindKph),
	)

	return QueryResult{Status: StatusSuccess, Report: report, Data: snap}
}

func (s *Service) liveWeather(ctx context.Context, geo GeocodeResult, cur CurrentConditions, u Units) QueryResult {
	var tempC, temp, wind *float64
	if cur.TemperatureC != nil {
		c := common.Round(*cur.TemperatureC, 1)
		d := displayTemp(c, u)
		tempC, temp = &c, &d
	}
	if cur.WindSpeedKph != nil {
		w := common.Round(*cur.WindSpeedKph, 1)
		wind = &w
	}

	condition := "unknown"
	if cur.WeatherCode != nil {
		condition = strconv.Itoa(*cur.WeatherCode)
	}

	loc := s.liveLocation(ctx, geo, cur.Timezone)
	lat, lon := geo.Lat, geo.Lon

	snap := &WeatherSnapshot{
		City:        geo.DisplayName,
		TempC:       tempC,
		Temp:        temp,
		Units:       u,
		Condition:   condition,
		WeatherCode: cur.WeatherCode,
		WindKph:     wind,
		Timestamp:   s.now().In(loc).Format(isoLayout),
		Lat:         &lat,
		Lon:         &lon,
	}

	report := fmt.Sprintf(
		"The weather in %s is %s with a temperature of %s°%s (%s°C). Wind: %s kph.",
		snap.City, snap.Condition, formatReading(snap.Temp), snap.Units,
		formatReading(snap.TempC), formatReading(snap.WindKph),
	)

	return QueryResult{Status: StatusSuccess, Report: report, Data: snap}
}

// liveLocation picks the zone for a geocoded place: timezone lookup first,
// then the provider's hint, then UTC.
func (s *Service) liveLocation(ctx context.Context, geo GeocodeResult, hint string) *time.Location {
	var candidates []string
	if zone, err := s.timezoneAt(ctx, geo.Lat, geo.Lon); err == nil {
		candidates = append(candidates, zone)
	}
	if hint != "" {
		candidates = append(candidates, hint)
	}

	for _, zone := range candidates {
		loc, err := time.LoadLocation(zone)
		if err == nil {
			return loc
		}
		s.logger.DebugContext(ctx, "unusable timezone", slog.String("timezone", zone), slog.Any("error", err))
	}
	return time.UTC
}

func (s *Service) timeResult(label, zone, city string) QueryResult {
	loc, err := time.LoadLocation(zone)
	if err != nil {
		s.logger.Debug("unusable timezone", slog.String("timezone", zone), slog.Any("error", err))
		return errorResult(ErrTimezoneUnavailable,
			fmt.Sprintf("Could not determine timezone for %s.", city))
	}

	now := s.now().In(loc)
	return QueryResult{
		Status:   StatusSuccess,
		Report:   fmt.Sprintf("The current time in %s is %s", label, now.Format(reportLayout)),
		ISO:      now.Format(isoLayout),
		Timezone: zone,
	}
}

func (s *Service) geocode(ctx context.Context, city string) (GeocodeResult, error) {
	if !s.caps.Geocoding || s.geocoder == nil {
		s.logger.DebugContext(ctx, "geocoding disabled", slog.String("city", city))
		return GeocodeResult{}, ErrDisabled
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	ctx, span := tracer.Start(ctx, "weather.geocode")
	defer span.End()

	res, err := s.geocoder.Geocode(ctx, city)
	if err != nil {
		recordFailure(span, err)
		s.logger.DebugContext(ctx, "geocoding failed", slog.String("city", city), slog.Any("error", err))
		return GeocodeResult{}, err
	}
	return res, nil
}

func (s *Service) timezoneAt(ctx context.Context, lat, lon float64) (string, error) {
	if !s.caps.Timezone || s.timezones == nil {
		return "", ErrDisabled
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	ctx, span := tracer.Start(ctx, "weather.timezoneAt")
	defer span.End()

	zone, err := s.timezones.TimezoneAt(ctx, lat, lon)
	if err == nil && zone == "" {
		err = ErrNoResult
	}
	if err != nil {
		recordFailure(span, err)
		s.logger.DebugContext(ctx, "timezone lookup failed",
			slog.Float64("lat", lat), slog.Float64("lon", lon), slog.Any("error", err))
		return "", err
	}
	return zone, nil
}

func (s *Service) currentWeather(ctx context.Context, geo GeocodeResult) (CurrentConditions, error) {
	if !s.caps.LiveWeather || s.weather == nil {
		return CurrentConditions{}, ErrDisabled
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	ctx, span := tracer.Start(ctx, "weather.currentWeather")
	defer span.End()
	span.SetAttributes(attribute.String("provider", s.weather.Name()))

	cur, err := s.weather.Current(ctx, geo.Lat, geo.Lon)
	if err != nil {
		recordFailure(span, err)
		s.logger.DebugContext(ctx, "weather request failed",
			slog.String("provider", s.weather.Name()), slog.String("place", geo.DisplayName), slog.Any("error", err))
		return CurrentConditions{}, err
	}
	return cur, nil
}

func recordFailure(span trace.Span, err error) {
	if errors.Is(err, ErrDisabled) {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

func parseUnits(units string) (Units, bool) {
	switch Units(strings.ToUpper(units)) {
	case UnitsCelsius:
		return UnitsCelsius, true
	case UnitsFahrenheit:
		return UnitsFahrenheit, true
	default:
		return "", false
	}
}

// displayTemp converts a Celsius reading to the requested display unit.
func displayTemp(tempC float64, u Units) float64 {
	if u == UnitsFahrenheit {
		return common.Round(tempC*9.0/5.0+32.0, 1)
	}
	return tempC
}

func formatReading(v *float64) string {
	if v == nil {
		return "n/a"
	}
	return strconv.FormatFloat(*v, 'f', 1, 64)
}
