package services

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stocks-api/internal/models"
)

func risingSeries(n int) models.Series {
	series := make(models.Series, n)
	for i := range series {
		c := float64(i + 1)
		series[i] = models.PricePoint{
			Date:   fmt.Sprintf("2024-01-%02d", i%28+1),
			Open:   c,
			High:   c + 1,
			Low:    c - 0.5,
			Close:  c,
			Volume: 1000,
		}
	}
	return series
}

func TestIndicatorCalculator_AlignsWithSeries(t *testing.T) {
	got := NewIndicatorCalculator().Compute("TCS.NS", risingSeries(60))

	assert.Equal(t, "TCS.NS", got.Symbol)
	assert.Len(t, got.Dates, 60)
	assert.Len(t, got.Close, 60)
	for name, s := range map[string][]*float64{
		"sma20": got.SMA20, "sma50": got.SMA50, "ema12": got.EMA12, "ema26": got.EMA26,
		"rsi14": got.RSI14, "macd": got.MACD.MACD, "signal": got.MACD.Signal,
		"histogram": got.MACD.Histogram, "upper": got.Bollinger.Upper,
		"middle": got.Bollinger.Middle, "lower": got.Bollinger.Lower,
		"k": got.Stochastic.K, "d": got.Stochastic.D,
	} {
		assert.Len(t, s, 60, name)
	}

	assert.Nil(t, got.SMA20[18])
	require.NotNil(t, got.SMA20[19])
	assert.InDelta(t, 10.5, *got.SMA20[19], 1e-9)

	assert.Nil(t, got.SMA50[48])
	require.NotNil(t, got.SMA50[49])
	assert.InDelta(t, 25.5, *got.SMA50[49], 1e-9)

	require.NotNil(t, got.Bollinger.Middle[19])
	assert.InDelta(t, 10.5, *got.Bollinger.Middle[19], 1e-9)

	assert.Nil(t, got.RSI14[13])
	for i := 0; i < 33; i++ {
		assert.Nil(t, got.MACD.MACD[i], "macd warm-up slot %d", i)
	}
	for i := 0; i < 15; i++ {
		assert.Nil(t, got.Stochastic.D[i], "stochastic warm-up slot %d", i)
	}
}

func TestIndicatorCalculator_ShortSeries(t *testing.T) {
	got := NewIndicatorCalculator().Compute("X", risingSeries(10))

	assert.Len(t, got.SMA50, 10)
	for i := range got.SMA20 {
		assert.Nil(t, got.SMA20[i])
		assert.Nil(t, got.SMA50[i])
		assert.Nil(t, got.MACD.MACD[i])
		assert.Nil(t, got.Bollinger.Upper[i])
		assert.Nil(t, got.Stochastic.K[i])
	}
}

func TestIndicatorCalculator_EmptySeries(t *testing.T) {
	got := NewIndicatorCalculator().Compute("X", nil)
	assert.Empty(t, got.SMA20)
	assert.Empty(t, got.Close)
}
