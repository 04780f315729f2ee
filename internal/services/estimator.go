package services

import (
	"fmt"
	"math"

	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/stat"
)

const (
	minRegressionPoints = 10
	shortSMAWindow      = 5
	regressionWindow    = 30
)

// Estimate is a next-step close forecast and the strategy that produced it
type Estimate struct {
	Predicted float64
	Method    string
}

// estimationTier is one row of the estimator's decision table
type estimationTier struct {
	name     string
	applies  func(closes []float64) bool
	estimate func(closes []float64) Estimate
}

// Estimator picks the first tier whose guard matches the available history
type Estimator struct {
	tiers []estimationTier
	log   zerolog.Logger
}

func NewEstimator(log zerolog.Logger) *Estimator {
	e := &Estimator{log: log.With().Str("component", "estimator").Logger()}
	e.tiers = []estimationTier{
		{
			name:     "fallback",
			applies:  func(c []float64) bool { return len(c) < 2 || allZero(c) },
			estimate: lastCloseEstimate,
		},
		{
			name:     "short_sma",
			applies:  func(c []float64) bool { return len(c) < minRegressionPoints },
			estimate: shortSMAEstimate,
		},
		{
			name:     "flat_window",
			applies:  func(c []float64) bool { return allEqual(window(c)) },
			estimate: windowSMAEstimate,
		},
		{
			name:     "linear_regression",
			applies:  func([]float64) bool { return true },
			estimate: e.regressionEstimate,
		},
	}
	return e
}

// Predict forecasts the next close. The only failure is a history without a
// single finite value.
func (e *Estimator) Predict(closes []float64) (Estimate, error) {
	valid := finite(closes)
	if len(valid) == 0 {
		return Estimate{}, newError(ErrNotFound, nil, "no valid closing price data found")
	}

	for _, tier := range e.tiers {
		if tier.applies(valid) {
			est := tier.estimate(valid)
			e.log.Debug().Str("tier", tier.name).Int("points", len(valid)).Str("method", est.Method).Msg("Estimated next close")
			return est, nil
		}
	}

	// The last tier always applies.
	return lastCloseEstimate(valid), nil
}

func lastCloseEstimate(c []float64) Estimate {
	return Estimate{Predicted: c[len(c)-1], Method: "Fallback: last close"}
}

func shortSMAEstimate(c []float64) Estimate {
	n := min(shortSMAWindow, len(c))
	return Estimate{Predicted: stat.Mean(c[len(c)-n:], nil), Method: fmt.Sprintf("SMA(%d)", n)}
}

func windowSMAEstimate(c []float64) Estimate {
	w := window(c)
	return Estimate{Predicted: stat.Mean(w, nil), Method: fmt.Sprintf("SMA(%d)", len(w))}
}

// regressionEstimate fits close against position over the window and
// evaluates the line one step past its end. Non-positive or non-finite
// forecasts degrade to the window SMA.
func (e *Estimator) regressionEstimate(c []float64) (est Estimate) {
	w := window(c)
	n := len(w)

	defer func() {
		if r := recover(); r != nil {
			e.log.Warn().Interface("panic", r).Msg("Linear regression failed")
			est = Estimate{Predicted: stat.Mean(w, nil), Method: fmt.Sprintf("SMA(%d) - LR failed", n)}
		}
	}()

	x := make([]float64, n)
	for i := range x {
		x[i] = float64(i)
	}
	alpha, beta := stat.LinearRegression(x, w, nil, false)
	pred := alpha + beta*float64(n)

	if math.IsNaN(pred) || math.IsInf(pred, 0) || pred <= 0 {
		return Estimate{Predicted: stat.Mean(w, nil), Method: fmt.Sprintf("SMA(%d) - LR prediction invalid", n)}
	}
	return Estimate{Predicted: pred, Method: fmt.Sprintf("LinearRegression(last %d days)", n)}
}

func window(c []float64) []float64 {
	return c[len(c)-min(regressionWindow, len(c)):]
}

func finite(values []float64) []float64 {
	out := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			out = append(out, v)
		}
	}
	return out
}

func allZero(values []float64) bool {
	for _, v := range values {
		if v != 0 {
			return false
		}
	}
	return true
}

func allEqual(values []float64) bool {
	for _, v := range values[1:] {
		if v != values[0] {
			return false
		}
	}
	return true
}
