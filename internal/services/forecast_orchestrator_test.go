package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stocks-api/internal/models"
)

func newTestOrchestrator(p HistoryProvider) *ForecastOrchestrator {
	f, _ := newTestFetcher(p, 2)
	return NewForecastOrchestrator(
		NewMarketDataService(f, 4),
		NewEstimator(testLogger()),
		NewStatsCalculator(),
		NewIndicatorCalculator(),
		testLogger(),
	)
}

func trendFrame(n int) *models.RawFrame {
	frame := &models.RawFrame{Columns: ohlcvColumns()}
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < n; i++ {
		c := 100 + float64(i)
		frame.Rows = append(frame.Rows, []any{start.AddDate(0, 0, i), c, c + 1, c - 1, c, 1000.0})
	}
	return frame
}

func TestBuildPrediction(t *testing.T) {
	t.Run("positive change", func(t *testing.T) {
		got := BuildPrediction("TCS.NS", 100, Estimate{Predicted: 110, Method: "SMA(5)"})
		assert.Equal(t, &models.PredictionResult{
			Symbol:         "TCS.NS",
			LastClose:      100,
			PredictedClose: 110,
			Change:         10,
			ChangePercent:  10,
			Method:         "SMA(5)",
		}, got)
	})

	t.Run("zero last close", func(t *testing.T) {
		got := BuildPrediction("X", 0, Estimate{Predicted: 0, Method: "Fallback: last close"})
		assert.Zero(t, got.ChangePercent)
		assert.Zero(t, got.Change)
	})

	t.Run("rounds to two decimals", func(t *testing.T) {
		got := BuildPrediction("X", 3, Estimate{Predicted: 3.14159})
		assert.Equal(t, 3.14, got.PredictedClose)
		assert.Equal(t, 0.14, got.Change)
		assert.Equal(t, 4.72, got.ChangePercent)
	})
}

func TestForecastOrchestrator_Predict(t *testing.T) {
	o := newTestOrchestrator(&fakeProvider{frames: []*models.RawFrame{trendFrame(40)}})

	got, err := o.Predict(context.Background(), " TCS.NS ")

	require.NoError(t, err)
	assert.Equal(t, "TCS.NS", got.Symbol)
	assert.Equal(t, 139.0, got.LastClose)
	assert.Equal(t, 140.0, got.PredictedClose)
	assert.Equal(t, 1.0, got.Change)
	assert.Equal(t, "LinearRegression(last 30 days)", got.Method)
}

func TestForecastOrchestrator_Stats(t *testing.T) {
	o := newTestOrchestrator(&fakeProvider{frames: []*models.RawFrame{trendFrame(5)}})

	got, err := o.Stats(context.Background(), "TCS.NS")

	require.NoError(t, err)
	assert.Equal(t, 104.0, got.CurrentPrice)
	assert.Equal(t, 105.0, got.High52w)
	assert.Equal(t, 99.0, got.Low52w)
	assert.Equal(t, int64(1000), got.AvgVolume)
	assert.Equal(t, 5, got.TotalDataPoints)
}

func TestForecastOrchestrator_PropagatesFetchErrors(t *testing.T) {
	o := newTestOrchestrator(&fakeProvider{frames: []*models.RawFrame{{}}})

	_, err := o.Predict(context.Background(), "NOPE")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = o.Prices(context.Background(), "NOPE", models.QueryParams{Period: "1y", Interval: "bad"})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestForecastOrchestrator_Indicators(t *testing.T) {
	o := newTestOrchestrator(&fakeProvider{frames: []*models.RawFrame{trendFrame(25)}})

	got, err := o.Indicators(context.Background(), "TCS.NS", models.QueryParams{Period: "3mo", Interval: "1d"})

	require.NoError(t, err)
	assert.Len(t, got.Dates, 25)
	require.NotNil(t, got.SMA20[19])
	assert.InDelta(t, 109.5, *got.SMA20[19], 1e-9)
}

func TestForecastOrchestrator_GenerateForecast(t *testing.T) {
	provider := &fakeProvider{bySym: map[string]*models.RawFrame{
		"TCS.NS":  trendFrame(40),
		"INFY.NS": trendFrame(3),
	}}
	o := newTestOrchestrator(provider)

	resp := o.GenerateForecast(context.Background(), models.ForecastRequest{
		Tickers: []string{"TCS.NS", "MISSING", "INFY.NS", "TCS.NS"},
	})

	assert.Equal(t, 2, resp.Succeeded)
	assert.Equal(t, 1, resp.Failed)
	require.Len(t, resp.Tickers, 3)

	assert.Equal(t, "TCS.NS", resp.Tickers[0].Symbol)
	require.NotNil(t, resp.Tickers[0].Prediction)
	require.NotNil(t, resp.Tickers[0].Stats)
	assert.Nil(t, resp.Tickers[0].Error)
	assert.Equal(t, 40, resp.Tickers[0].Stats.TotalDataPoints)

	assert.Equal(t, "MISSING", resp.Tickers[1].Symbol)
	require.NotNil(t, resp.Tickers[1].Error)
	assert.Equal(t, 404, resp.Tickers[1].Error.Code)
	assert.Nil(t, resp.Tickers[1].Prediction)

	assert.Equal(t, "INFY.NS", resp.Tickers[2].Symbol)
	require.NotNil(t, resp.Tickers[2].Prediction)
	assert.Equal(t, "SMA(3)", resp.Tickers[2].Prediction.Method)
	assert.False(t, resp.GeneratedAt.IsZero())
}
