package services

import (
	"math"

	"github.com/markcheno/go-talib"

	"stocks-api/internal/models"
)

// Indicator parameters match the dashboard charts.
const (
	smaShortPeriod = 20
	smaLongPeriod  = 50
	emaFastPeriod  = 12
	emaSlowPeriod  = 26
	rsiPeriod      = 14
	macdSignal     = 9
	bbPeriod       = 20
	bbDeviations   = 2.0
	stochKPeriod   = 14
	stochSlowK     = 3
	stochDPeriod   = 3
)

// IndicatorCalculator computes technical indicator series with go-talib
type IndicatorCalculator struct{}

func NewIndicatorCalculator() *IndicatorCalculator {
	return &IndicatorCalculator{}
}

// Compute returns every indicator aligned with the series dates. Slots inside
// an indicator's warm-up (lookback) window are nil.
func (ic *IndicatorCalculator) Compute(symbol string, series models.Series) models.IndicatorResult {
	closes := series.Closes()
	highs := series.Highs()
	lows := series.Lows()
	n := len(closes)

	result := models.IndicatorResult{
		Symbol: symbol,
		Dates:  series.Dates(),
		Close:  closes,
	}

	result.SMA20 = withLookback(n, smaShortPeriod-1, func() []float64 { return talib.Sma(closes, smaShortPeriod) })
	result.SMA50 = withLookback(n, smaLongPeriod-1, func() []float64 { return talib.Sma(closes, smaLongPeriod) })
	result.EMA12 = withLookback(n, emaFastPeriod-1, func() []float64 { return talib.Ema(closes, emaFastPeriod) })
	result.EMA26 = withLookback(n, emaSlowPeriod-1, func() []float64 { return talib.Ema(closes, emaSlowPeriod) })
	result.RSI14 = withLookback(n, rsiPeriod, func() []float64 { return talib.Rsi(closes, rsiPeriod) })

	macdLookback := (emaSlowPeriod - 1) + (macdSignal - 1)
	var macd, signal, hist []float64
	if n > macdLookback {
		macd, signal, hist = talib.Macd(closes, emaFastPeriod, emaSlowPeriod, macdSignal)
	}
	result.MACD = models.MACDSeries{
		MACD:      align(n, macdLookback, macd),
		Signal:    align(n, macdLookback, signal),
		Histogram: align(n, macdLookback, hist),
	}

	bbLookback := bbPeriod - 1
	var upper, middle, lower []float64
	if n > bbLookback {
		upper, middle, lower = talib.BBands(closes, bbPeriod, bbDeviations, bbDeviations, talib.SMA)
	}
	result.Bollinger = models.BollingerSeries{
		Upper:  align(n, bbLookback, upper),
		Middle: align(n, bbLookback, middle),
		Lower:  align(n, bbLookback, lower),
	}

	// Slow stochastic 14/3/3.
	stochLookback := (stochKPeriod - 1) + (stochSlowK - 1) + (stochDPeriod - 1)
	var k, d []float64
	if n > stochLookback {
		k, d = talib.Stoch(highs, lows, closes, stochKPeriod, stochSlowK, talib.SMA, stochDPeriod, talib.SMA)
	}
	result.Stochastic = models.StochasticSeries{
		K: align(n, stochLookback, k),
		D: align(n, stochLookback, d),
	}

	return result
}

// withLookback runs calc only when the series is longer than the lookback.
func withLookback(n, lookback int, calc func() []float64) []*float64 {
	if n <= lookback {
		return align(n, lookback, nil)
	}
	return align(n, lookback, calc())
}

// align converts talib output into n nullable slots, blanking the lookback
// prefix and any non-finite value.
func align(n, lookback int, values []float64) []*float64 {
	out := make([]*float64, n)
	for i := lookback; i < n && i < len(values); i++ {
		v := values[i]
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		rounded := round2(v)
		out[i] = &rounded
	}
	return out
}
