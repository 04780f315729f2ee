package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/rs/zerolog"

	"stocks-api/internal/services"
)

// AppConfig carries the HTTP-level settings for NewApp
type AppConfig struct {
	AllowOrigins       string
	RateLimitPerMinute int
	RequestTimeout     time.Duration
	Version            string
}

// NewApp builds the Fiber application with middleware and routes mounted
func NewApp(cfg AppConfig, forecasts ForecastService, companies CompanyLister, log zerolog.Logger) *fiber.App {
	app := fiber.New(fiber.Config{
		StrictRouting: false,
		CaseSensitive: true,
		ServerHeader:  "Stock-API",
		AppName:       "Stock API " + cfg.Version,
		ReadTimeout:   time.Second * 10,
		WriteTimeout:  cfg.RequestTimeout + 5*time.Second,
		BodyLimit:     1 * 1024 * 1024, // 1MB
		ErrorHandler:  CustomErrorHandler,
	})

	// Middleware stack
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(RequestLogger(log))
	app.Use(compress.New(compress.Config{
		Level: compress.LevelBestSpeed,
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowOrigins,
		AllowMethods:     "GET,POST,OPTIONS",
		AllowHeaders:     "Origin,Content-Type,Accept,Authorization",
		AllowCredentials: false,
		MaxAge:           3600,
	}))
	if cfg.RateLimitPerMinute > 0 {
		app.Use(limiter.New(limiter.Config{
			Max:        cfg.RateLimitPerMinute,
			Expiration: 1 * time.Minute,
			LimitReached: func(c *fiber.Ctx) error {
				return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
					"error": "Rate limit exceeded. Please try again later.",
				})
			},
		}))
	}

	healthHandler := NewHealthHandler(cfg.Version)
	forecastHandler := NewForecastHandler(forecasts, cfg.RequestTimeout)
	companyHandler := NewCompanyHandler(companies)

	// Routes
	app.Get("/", healthHandler.Root)
	app.Get("/health", healthHandler.Health)
	app.Get("/health/ready", healthHandler.Ready)

	app.Get("/companies", companyHandler.List)
	app.Get("/prices/:symbol", forecastHandler.GetPrices)
	app.Get("/predict/:symbol", forecastHandler.GetPrediction)
	app.Get("/stats/:symbol", forecastHandler.GetStats)
	app.Get("/indicators/:symbol", forecastHandler.GetIndicators)

	// API v1 routes
	v1 := app.Group("/v1")
	v1.Post("/forecast", forecastHandler.GetForecast)

	return app
}

// RequestLogger logs one structured line per request
func RequestLogger(log zerolog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		if err != nil {
			if fe, ok := err.(*fiber.Error); ok {
				status = fe.Code
			} else {
				status = services.StatusFor(err)
			}
		}

		event := log.Info()
		if status >= fiber.StatusInternalServerError {
			event = log.Error().Err(err)
		} else if status >= fiber.StatusBadRequest {
			event = log.Warn()
		}

		event.
			Str("request_id", c.GetRespHeader(fiber.HeaderXRequestID)).
			Str("method", c.Method()).
			Str("path", c.Path()).
			Int("status", status).
			Dur("latency", time.Since(start)).
			Msg("Request handled")
		return err
	}
}
