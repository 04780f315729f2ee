package handlers

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"stocks-api/internal/models"
	"stocks-api/internal/services"
)

const maxBatchTickers = 50

// ForecastService is the pipeline surface the handlers call into
type ForecastService interface {
	Prices(ctx context.Context, symbol string, q models.QueryParams) (models.Series, error)
	Predict(ctx context.Context, symbol string) (*models.PredictionResult, error)
	Stats(ctx context.Context, symbol string) (*models.StatsResult, error)
	Indicators(ctx context.Context, symbol string, q models.QueryParams) (*models.IndicatorResult, error)
	GenerateForecast(ctx context.Context, req models.ForecastRequest) *models.ForecastResponse
}

type ForecastHandler struct {
	service ForecastService
	timeout time.Duration
}

func NewForecastHandler(service ForecastService, timeout time.Duration) *ForecastHandler {
	return &ForecastHandler{
		service: service,
		timeout: timeout,
	}
}

// GetPrices handles GET /prices/:symbol?period=1y&interval=1d
func (h *ForecastHandler) GetPrices(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), h.timeout)
	defer cancel()

	series, err := h.service.Prices(ctx, c.Params("symbol"), queryParams(c))
	if err != nil {
		return err
	}
	return c.JSON(series)
}

// GetPrediction handles GET /predict/:symbol
func (h *ForecastHandler) GetPrediction(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), h.timeout)
	defer cancel()

	prediction, err := h.service.Predict(ctx, c.Params("symbol"))
	if err != nil {
		return err
	}
	return c.JSON(prediction)
}

// GetStats handles GET /stats/:symbol
func (h *ForecastHandler) GetStats(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), h.timeout)
	defer cancel()

	stats, err := h.service.Stats(ctx, c.Params("symbol"))
	if err != nil {
		return err
	}
	return c.JSON(stats)
}

// GetIndicators handles GET /indicators/:symbol?period=1y&interval=1d
func (h *ForecastHandler) GetIndicators(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), h.timeout)
	defer cancel()

	indicators, err := h.service.Indicators(ctx, c.Params("symbol"), queryParams(c))
	if err != nil {
		return err
	}
	return c.JSON(indicators)
}

// GetForecast handles POST /v1/forecast
func (h *ForecastHandler) GetForecast(c *fiber.Ctx) error {
	var req models.ForecastRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse{
			Error:   "Invalid request body",
			Message: "request body must be JSON with a tickers array",
			Code:    fiber.StatusBadRequest,
		})
	}

	tickers := req.Tickers[:0]
	for _, t := range req.Tickers {
		if t = strings.TrimSpace(t); t != "" {
			tickers = append(tickers, t)
		}
	}
	req.Tickers = tickers

	if len(req.Tickers) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse{
			Error:   "Tickers are required",
			Message: "Please provide at least one ticker symbol",
			Code:    fiber.StatusBadRequest,
		})
	}
	if len(req.Tickers) > maxBatchTickers {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse{
			Error:   "Too many tickers",
			Message: "Maximum 50 tickers allowed per request",
			Code:    fiber.StatusBadRequest,
		})
	}

	ctx, cancel := context.WithTimeout(c.Context(), h.timeout)
	defer cancel()

	return c.JSON(h.service.GenerateForecast(ctx, req))
}

func queryParams(c *fiber.Ctx) models.QueryParams {
	return models.QueryParams{
		Period:   c.Query("period", models.DefaultQuery.Period),
		Interval: c.Query("interval", models.DefaultQuery.Interval),
	}
}

// CustomErrorHandler renders pipeline and Fiber errors as ErrorResponse bodies
func CustomErrorHandler(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return c.Status(fe.Code).JSON(models.ErrorResponse{
			Error:   "Request failed",
			Message: fe.Message,
			Code:    fe.Code,
		})
	}

	resp := services.ErrorResponseFor(err)
	return c.Status(resp.Code).JSON(resp)
}
