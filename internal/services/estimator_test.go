package services

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seq(from, to float64) []float64 {
	var out []float64
	for v := from; v <= to; v++ {
		out = append(out, v)
	}
	return out
}

func repeat(v float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func TestEstimator_Predict(t *testing.T) {
	decreasing := make([]float64, 35)
	for i := range decreasing {
		decreasing[i] = 300 - 10*float64(i)
	}

	tests := []struct {
		name      string
		closes    []float64
		predicted float64
		method    string
	}{
		{"single close", []float64{5}, 5, "Fallback: last close"},
		{"all zero", []float64{0, 0, 0, 0}, 0, "Fallback: last close"},
		{"two closes", []float64{3, 4}, 3.5, "SMA(2)"},
		{"short history", seq(1, 9), 7, "SMA(5)"},
		{"flat window", repeat(100, 35), 100, "SMA(30)"},
		{"flat short window", repeat(42, 12), 42, "SMA(12)"},
		{"linear trend", seq(1, 35), 36, "LinearRegression(last 30 days)"},
		{"linear trend under window", seq(1, 12), 13, "LinearRegression(last 12 days)"},
		{"negative forecast", decreasing, 105, "SMA(30) - LR prediction invalid"},
		{"non finite dropped", []float64{math.NaN(), 5, math.Inf(1)}, 5, "Fallback: last close"},
	}

	est := NewEstimator(testLogger())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := est.Predict(tt.closes)
			require.NoError(t, err)
			assert.InDelta(t, tt.predicted, got.Predicted, 1e-9)
			assert.Equal(t, tt.method, got.Method)
		})
	}
}

func TestEstimator_NoFiniteCloses(t *testing.T) {
	est := NewEstimator(testLogger())

	for _, closes := range [][]float64{nil, {math.NaN(), math.Inf(-1)}} {
		_, err := est.Predict(closes)
		assert.ErrorIs(t, err, ErrNotFound)
		assert.Equal(t, "no valid closing price data found", DetailOf(err))
	}
}

func TestEstimator_DoesNotMutateInput(t *testing.T) {
	closes := seq(1, 35)
	before := append([]float64(nil), closes...)

	_, err := NewEstimator(testLogger()).Predict(closes)
	require.NoError(t, err)
	assert.Equal(t, before, closes)
}
