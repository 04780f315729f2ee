package services

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"stocks-api/internal/models"
)

// ForecastOrchestrator coordinates fetch, estimation and statistics
type ForecastOrchestrator struct {
	marketData *MarketDataService
	estimator  *Estimator
	stats      *StatsCalculator
	indicators *IndicatorCalculator
	log        zerolog.Logger
}

func NewForecastOrchestrator(marketData *MarketDataService, estimator *Estimator, stats *StatsCalculator, indicators *IndicatorCalculator, log zerolog.Logger) *ForecastOrchestrator {
	return &ForecastOrchestrator{
		marketData: marketData,
		estimator:  estimator,
		stats:      stats,
		indicators: indicators,
		log:        log.With().Str("component", "forecast_orchestrator").Logger(),
	}
}

// Prices returns the cleaned history for an arbitrary period/interval
func (o *ForecastOrchestrator) Prices(ctx context.Context, symbol string, q models.QueryParams) (models.Series, error) {
	return o.marketData.GetPrices(ctx, symbol, q)
}

// Predict forecasts the next close from one year of daily history
func (o *ForecastOrchestrator) Predict(ctx context.Context, symbol string) (*models.PredictionResult, error) {
	series, err := o.marketData.GetHistory(ctx, symbol)
	if err != nil {
		return nil, err
	}
	return o.predictFromSeries(strings.TrimSpace(symbol), series)
}

// Stats computes summary statistics from one year of daily history
func (o *ForecastOrchestrator) Stats(ctx context.Context, symbol string) (*models.StatsResult, error) {
	series, err := o.marketData.GetHistory(ctx, symbol)
	if err != nil {
		return nil, err
	}
	result := o.stats.Compute(strings.TrimSpace(symbol), series)
	return &result, nil
}

// Indicators computes technical indicator series for the requested window
func (o *ForecastOrchestrator) Indicators(ctx context.Context, symbol string, q models.QueryParams) (*models.IndicatorResult, error) {
	series, err := o.marketData.GetPrices(ctx, symbol, q)
	if err != nil {
		return nil, err
	}
	result := o.indicators.Compute(strings.TrimSpace(symbol), series)
	return &result, nil
}

// GenerateForecast runs predict and stats for a batch of tickers. A failing
// ticker is reported in its own entry and does not fail the batch.
func (o *ForecastOrchestrator) GenerateForecast(ctx context.Context, req models.ForecastRequest) *models.ForecastResponse {
	batch := o.marketData.FetchBatch(ctx, req.Tickers)

	response := &models.ForecastResponse{
		Tickers:     make([]models.TickerForecast, 0, len(batch)),
		GeneratedAt: time.Now(),
	}

	seen := make(map[string]bool, len(req.Tickers))
	for _, ticker := range req.Tickers {
		symbol := strings.TrimSpace(ticker)
		if seen[symbol] {
			continue
		}
		seen[symbol] = true

		entry := models.TickerForecast{Symbol: symbol}
		res := batch[symbol]

		err := res.Err
		if err == nil {
			var prediction *models.PredictionResult
			prediction, err = o.predictFromSeries(symbol, res.Series)
			if err == nil {
				stats := o.stats.Compute(symbol, res.Series)
				entry.Prediction = prediction
				entry.Stats = &stats
			}
		}

		if err != nil {
			o.log.Warn().Err(err).Str("symbol", symbol).Msg("Batch forecast entry failed")
			entry.Error = ErrorResponseFor(err)
			response.Failed++
		} else {
			response.Succeeded++
		}
		response.Tickers = append(response.Tickers, entry)
	}

	return response
}

func (o *ForecastOrchestrator) predictFromSeries(symbol string, series models.Series) (*models.PredictionResult, error) {
	closes := finite(series.Closes())
	est, err := o.estimator.Predict(closes)
	if err != nil {
		return nil, err
	}
	return BuildPrediction(symbol, closes[len(closes)-1], est), nil
}

// BuildPrediction derives change figures from the estimate and rounds every
// value to two decimals for presentation.
func BuildPrediction(symbol string, lastClose float64, est Estimate) *models.PredictionResult {
	change := est.Predicted - lastClose
	changePercent := 0.0
	if lastClose != 0 {
		changePercent = change / lastClose * 100
	}
	return &models.PredictionResult{
		Symbol:         symbol,
		LastClose:      round2(lastClose),
		PredictedClose: round2(est.Predicted),
		Change:         round2(change),
		ChangePercent:  round2(changePercent),
		Method:         est.Method,
	}
}
