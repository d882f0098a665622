package httpapi

import (
	"context"
	_ "embed"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/i474232898/city-weather-time/internal/weather"
)

var validate = validator.New()

//go:embed static/index.html
var indexHTML []byte

// Composer answers weather and local time queries.
type Composer interface {
	GetWeather(ctx context.Context, city, units string) weather.QueryResult
	GetCurrentTime(ctx context.Context, city string) weather.QueryResult
}

// RegisterRoutes wires the HTTP handlers into the Fiber app. Query results
// are always returned with status 200; failures are reported in the body.
// metrics may be nil.
//
// City names flow into long-lived caches, so the app must be created with
// fiber.Config{Immutable: true}.
func RegisterRoutes(app *fiber.App, service Composer, metrics *Metrics) {
	if metrics != nil {
		app.Use(metrics.Middleware())
		app.Get("/metrics", metrics.Handler())
	}

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": "city-weather-time",
		})
	})

	app.Get("/", func(c *fiber.Ctx) error {
		c.Type("html", "utf-8")
		return c.Send(indexHTML)
	})

	api := app.Group("/api")

	api.Post("/weather", func(c *fiber.Ctx) error {
		var req weatherRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid form body")
		}
		return weatherHandler(c, service, req)
	})

	api.Post("/time", func(c *fiber.Ctx) error {
		var req timeRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid form body")
		}
		return timeHandler(c, service, req)
	})

	v1 := api.Group("/v1")

	v1.Get("/weather", func(c *fiber.Ctx) error {
		return weatherHandler(c, service, weatherRequest{
			City:  c.Query("city"),
			Units: c.Query("units"),
		})
	})

	v1.Get("/time", func(c *fiber.Ctx) error {
		return timeHandler(c, service, timeRequest{City: c.Query("city")})
	})
}

// weatherRequest is the weather form; units defaults to Celsius.
type weatherRequest struct {
	City  string `form:"city" validate:"required"`
	Units string `form:"units"`
}

type timeRequest struct {
	City string `form:"city" validate:"required"`
}

func weatherHandler(c *fiber.Ctx, service Composer, req weatherRequest) error {
	if err := validate.Struct(req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "city is required")
	}
	if req.Units == "" {
		req.Units = string(weather.UnitsCelsius)
	}

	return respond(c, service.GetWeather(c.UserContext(), req.City, req.Units))
}

func timeHandler(c *fiber.Ctx, service Composer, req timeRequest) error {
	if err := validate.Struct(req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "city is required")
	}

	return respond(c, service.GetCurrentTime(c.UserContext(), req.City))
}

func respond(c *fiber.Ctx, res weather.QueryResult) error {
	c.Locals(resultStatusKey, string(res.Status))
	return c.JSON(res)
}
