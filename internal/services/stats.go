package services

import (
	"github.com/shopspring/decimal"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"stocks-api/internal/models"
)

// StatsCalculator derives descriptive statistics from a cleaned series
type StatsCalculator struct{}

func NewStatsCalculator() *StatsCalculator {
	return &StatsCalculator{}
}

// Compute never fails; every statistic falls back to zero when the series is
// too short to define it.
func (s *StatsCalculator) Compute(symbol string, series models.Series) models.StatsResult {
	closes := series.Closes()
	highs := series.Highs()
	lows := series.Lows()
	volumes := series.Volumes()

	result := models.StatsResult{
		Symbol:          symbol,
		TotalDataPoints: len(series),
	}

	if len(highs) > 0 {
		result.High52w = round2(floats.Max(highs))
	}
	if len(lows) > 0 {
		result.Low52w = round2(floats.Min(lows))
	}
	if len(volumes) > 0 {
		result.AvgVolume = int64(stat.Mean(volumes, nil))
	}
	if len(closes) > 0 {
		result.CurrentPrice = round2(closes[len(closes)-1])
	}
	if len(closes) >= 2 {
		result.PriceChange1d = round2(closes[len(closes)-1] - closes[len(closes)-2])
		// Sample standard deviation (n-1), same as pandas.
		result.Volatility = round2(stat.StdDev(closes, nil))
	}

	return result
}

// round2 rounds half away from zero to two decimals for presentation.
func round2(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}
