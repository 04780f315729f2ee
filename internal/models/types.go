package models

import "time"

// Period and interval allow-lists accepted by the history endpoints.
var (
	ValidPeriods   = []string{"1d", "5d", "1mo", "3mo", "6mo", "1y", "2y", "5y", "10y", "ytd", "max"}
	ValidIntervals = []string{"1m", "2m", "5m", "15m", "30m", "60m", "90m", "1h", "1d", "5d", "1wk", "1mo", "3mo"}
)

// QueryParams selects the window and granularity of a history request
type QueryParams struct {
	Period   string `json:"period"`
	Interval string `json:"interval"`
}

// DefaultQuery is the window used by the predict and stats endpoints.
var DefaultQuery = QueryParams{Period: "1y", Interval: "1d"}

// PricePoint is one canonical OHLCV row
type PricePoint struct {
	Date   string  `json:"Date"` // YYYY-MM-DD
	Open   float64 `json:"Open"`
	High   float64 `json:"High"`
	Low    float64 `json:"Low"`
	Close  float64 `json:"Close"`
	Volume int64   `json:"Volume"`
}

// Series is an ascending, date-deduplicated sequence of price points
type Series []PricePoint

func (s Series) Closes() []float64 {
	out := make([]float64, len(s))
	for i, p := range s {
		out[i] = p.Close
	}
	return out
}

func (s Series) Highs() []float64 {
	out := make([]float64, len(s))
	for i, p := range s {
		out[i] = p.High
	}
	return out
}

func (s Series) Lows() []float64 {
	out := make([]float64, len(s))
	for i, p := range s {
		out[i] = p.Low
	}
	return out
}

func (s Series) Opens() []float64 {
	out := make([]float64, len(s))
	for i, p := range s {
		out[i] = p.Open
	}
	return out
}

func (s Series) Volumes() []float64 {
	out := make([]float64, len(s))
	for i, p := range s {
		out[i] = float64(p.Volume)
	}
	return out
}

func (s Series) Dates() []string {
	out := make([]string, len(s))
	for i, p := range s {
		out[i] = p.Date
	}
	return out
}

// PredictionResult represents the next-period close estimate for a symbol
type PredictionResult struct {
	Symbol         string  `json:"symbol"`
	LastClose      float64 `json:"last_close"`
	PredictedClose float64 `json:"predicted_close"`
	Change         float64 `json:"change"`
	ChangePercent  float64 `json:"change_percent"`
	Method         string  `json:"method"`
}

// StatsResult represents descriptive statistics over a fetched series
type StatsResult struct {
	Symbol          string  `json:"symbol"`
	CurrentPrice    float64 `json:"current_price"`
	High52w         float64 `json:"high_52w"`
	Low52w          float64 `json:"low_52w"`
	PriceChange1d   float64 `json:"price_change_1d"`
	AvgVolume       int64   `json:"avg_volume"`
	Volatility      float64 `json:"volatility"`
	TotalDataPoints int     `json:"total_data_points"`
}

// IndicatorResult carries technical indicator series aligned with Dates.
// Warm-up slots are nil so they render as JSON null.
type IndicatorResult struct {
	Symbol     string           `json:"symbol"`
	Dates      []string         `json:"dates"`
	Close      []float64        `json:"close"`
	SMA20      []*float64       `json:"sma20"`
	SMA50      []*float64       `json:"sma50"`
	EMA12      []*float64       `json:"ema12"`
	EMA26      []*float64       `json:"ema26"`
	RSI14      []*float64       `json:"rsi14"`
	MACD       MACDSeries       `json:"macd"`
	Bollinger  BollingerSeries  `json:"bollinger"`
	Stochastic StochasticSeries `json:"stochastic"`
}

type MACDSeries struct {
	MACD      []*float64 `json:"macd"`
	Signal    []*float64 `json:"signal"`
	Histogram []*float64 `json:"histogram"`
}

type BollingerSeries struct {
	Upper  []*float64 `json:"upper"`
	Middle []*float64 `json:"middle"`
	Lower  []*float64 `json:"lower"`
}

type StochasticSeries struct {
	K []*float64 `json:"k"`
	D []*float64 `json:"d"`
}

// Company is an entry of the selectable company list
type Company struct {
	Symbol string `json:"symbol" yaml:"symbol" firestore:"symbol"`
	Name   string `json:"name" yaml:"name" firestore:"name"`
}

// ForecastRequest represents a batch forecast request
type ForecastRequest struct {
	Tickers []string `json:"tickers"`
}

// TickerForecast is the per-symbol outcome of a batch forecast
type TickerForecast struct {
	Symbol     string            `json:"symbol"`
	Prediction *PredictionResult `json:"prediction,omitempty"`
	Stats      *StatsResult      `json:"stats,omitempty"`
	Error      *ErrorResponse    `json:"error,omitempty"`
}

// ForecastResponse represents the batch forecast result
type ForecastResponse struct {
	Tickers     []TickerForecast `json:"tickers"`
	Succeeded   int              `json:"succeeded"`
	Failed      int              `json:"failed"`
	GeneratedAt time.Time        `json:"generatedAt"`
}

// ErrorResponse represents API error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Code    int    `json:"code"`
}
