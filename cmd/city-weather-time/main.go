package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"
	"github.com/lmittmann/tint"

	httpapi "github.com/i474232898/city-weather-time/internal/api/http"
	"github.com/i474232898/city-weather-time/internal/cache"
	"github.com/i474232898/city-weather-time/internal/config"
	"github.com/i474232898/city-weather-time/internal/scheduler"
	"github.com/i474232898/city-weather-time/internal/weather"
	"github.com/i474232898/city-weather-time/internal/weather/providers"
)

func main() {
	// Load configuration (also reads .env when present).
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger := setupLogger(cfg)
	slog.SetDefault(logger)

	// Shared HTTP client for outbound provider calls.
	httpClient := &http.Client{
		Timeout: cfg.HTTPTimeout,
	}

	// Lookup tiers, each behind its own bounded cache.
	geocoder, err := cache.NewCachedGeocoder(newGeocoder(cfg, httpClient), cfg.CacheCapacity)
	if err != nil {
		log.Fatalf("failed to create geocoding cache: %v", err)
	}
	timezones, err := cache.NewCachedTimezoneFinder(providers.NewLatLongFinder(), cfg.CacheCapacity)
	if err != nil {
		log.Fatalf("failed to create timezone cache: %v", err)
	}

	service := weather.NewService(weather.Options{
		Geocoder:  geocoder,
		Timezones: timezones,
		Weather:   providers.NewOpenMeteoProvider(httpClient, cfg.OpenMeteoBaseURL),
		Capabilities: weather.Capabilities{
			Geocoding:   cfg.GeocodingEnabled,
			Timezone:    cfg.TimezoneLookupEnabled,
			LiveWeather: cfg.LiveWeatherEnabled,
		},
		LookupTimeout: cfg.HTTPTimeout,
		Logger:        logger,
	})

	metrics := httpapi.NewMetrics()
	if err := metrics.RegisterCache("geocode", geocoder.Stats); err != nil {
		log.Fatalf("failed to register cache metrics: %v", err)
	}
	if err := metrics.RegisterCache("timezone", timezones.Stats); err != nil {
		log.Fatalf("failed to register cache metrics: %v", err)
	}

	// Scheduler that keeps the configured cities warm in the lookup caches.
	sched := scheduler.New(cfg.WarmCities, cfg.WarmInterval, 3*cfg.HTTPTimeout, service, logger)
	if err := sched.Start(); err != nil {
		log.Fatalf("failed to start scheduler: %v", err)
	}
	defer sched.Stop()

	app := fiber.New(fiber.Config{
		AppName:               "city-weather-time",
		DisableStartupMessage: true,
		Immutable:             true, // request strings end up as cache keys and metric labels
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          2*cfg.HTTPTimeout + 5*time.Second,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			// Centralized error response
			code := fiber.StatusInternalServerError
			var fe *fiber.Error
			if errors.As(err, &fe) {
				code = fe.Code
			}
			if code >= fiber.StatusInternalServerError {
				logger.Error("request failed", slog.String("path", c.Path()), slog.Any("error", err))
			}
			return c.Status(code).JSON(fiber.Map{
				"error":   true,
				"message": err.Error(),
			})
		},
	})

	// Global middleware
	app.Use(requestid.New(requestid.Config{Generator: uuid.NewString}))
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format: "${time} ${locals:requestid} ${status} - ${latency} ${method} ${path}\n",
	}))
	app.Use(recover.New())

	httpapi.RegisterRoutes(app, service, metrics)

	go func() {
		logger.Info("listening", slog.String("port", cfg.Port), slog.String("geocoder", cfg.Geocoder))
		if err := app.Listen(":" + cfg.Port); err != nil {
			logger.Error("fiber server stopped", slog.Any("error", err))
		}
	}()

	// Wait for termination signal
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		logger.Error("error during shutdown", slog.Any("error", err))
	}
	logger.Info("shut down complete")
}

func newGeocoder(cfg *config.AppConfig, client *http.Client) weather.Geocoder {
	if cfg.Geocoder == config.GeocoderGoogle {
		return providers.NewGoogleGeocoder(cfg.GoogleGeocoderAPIKey)
	}
	return providers.NewNominatimGeocoder(client, providers.NominatimConfig{
		BaseURL:   cfg.NominatimBaseURL,
		UserAgent: cfg.NominatimUserAgent,
		RPS:       cfg.NominatimRPS,
	})
}

// setupLogger returns a coloured debug logger in development and a JSON
// logger otherwise. LOG_LEVEL overrides either default.
func setupLogger(cfg *config.AppConfig) *slog.Logger {
	level := slog.LevelInfo
	if cfg.IsDevelopment() {
		level = slog.LevelDebug
	}
	if cfg.LogLevel != "" {
		if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
			log.Printf("WARN: ignoring invalid LOG_LEVEL %q: %v", cfg.LogLevel, err)
		}
	}

	if cfg.IsDevelopment() {
		return slog.New(tint.NewHandler(os.Stdout, &tint.Options{
			Level:      level,
			TimeFormat: time.Kitchen,
			AddSource:  true,
		}))
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
}
