package services

import (
	"context"
	"errors"
	"slices"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"stocks-api/internal/models"
)

const defaultMaxRetries = 3

// HistoryProvider is the external source of raw price history
type HistoryProvider interface {
	History(ctx context.Context, symbol, period, interval string) (*models.RawFrame, error)
}

// SeriesFetcher pulls history from the provider with bounded retries and
// turns it into a validated canonical series
type SeriesFetcher struct {
	provider   HistoryProvider
	cleaner    *SeriesCleaner
	log        zerolog.Logger
	maxRetries int
	retryDelay time.Duration
	sleep      func(ctx context.Context, d time.Duration) error
}

// NewSeriesFetcher creates a fetcher. maxRetries below 1 falls back to 3;
// retryDelay is the backoff unit (attempt k waits (k-1) units).
func NewSeriesFetcher(provider HistoryProvider, cleaner *SeriesCleaner, maxRetries int, retryDelay time.Duration, log zerolog.Logger) *SeriesFetcher {
	if maxRetries < 1 {
		maxRetries = defaultMaxRetries
	}
	return &SeriesFetcher{
		provider:   provider,
		cleaner:    cleaner,
		log:        log.With().Str("component", "series_fetcher").Logger(),
		maxRetries: maxRetries,
		retryDelay: retryDelay,
		sleep:      sleepContext,
	}
}

// ValidateQuery checks symbol, period and interval before any network call.
func ValidateQuery(symbol string, q models.QueryParams) error {
	if strings.TrimSpace(symbol) == "" {
		return newError(ErrInvalidInput, nil, "invalid symbol provided")
	}
	if !slices.Contains(models.ValidPeriods, q.Period) {
		return newError(ErrInvalidInput, nil, "invalid period, must be one of: %s", strings.Join(models.ValidPeriods, ", "))
	}
	if !slices.Contains(models.ValidIntervals, q.Interval) {
		return newError(ErrInvalidInput, nil, "invalid interval, must be one of: %s", strings.Join(models.ValidIntervals, ", "))
	}
	return nil
}

// Fetch returns the canonical series for symbol. Failures are *Error values
// of kind ErrInvalidInput, ErrNotFound, ErrUpstream or ErrInternal.
func (f *SeriesFetcher) Fetch(ctx context.Context, symbol string, q models.QueryParams) (models.Series, error) {
	symbol = strings.TrimSpace(symbol)
	if err := ValidateQuery(symbol, q); err != nil {
		return nil, err
	}

	for attempt := 1; attempt <= f.maxRetries; attempt++ {
		last := attempt == f.maxRetries

		if attempt > 1 {
			if err := f.sleep(ctx, time.Duration(attempt-1)*f.retryDelay); err != nil {
				return nil, classifyProviderError(symbol, err)
			}
		}

		f.log.Info().Str("symbol", symbol).Int("attempt", attempt).
			Str("period", q.Period).Str("interval", q.Interval).Msg("Fetching history")

		frame, err := f.provider.History(ctx, symbol, q.Period, q.Interval)
		if err != nil {
			f.log.Error().Err(err).Str("symbol", symbol).Int("attempt", attempt).Msg("Error fetching data")
			if last {
				return nil, classifyProviderError(symbol, err)
			}
			continue
		}

		if frame.Empty() {
			f.log.Warn().Str("symbol", symbol).Int("attempt", attempt).Msg("Provider returned no rows")
			continue
		}

		return f.normalize(symbol, frame)
	}

	return nil, newError(ErrNotFound, nil, "no data found for symbol %s, please check if the symbol is correct", symbol)
}

// normalize runs the non-retried part of a fetch: schema check, cleaning and
// acceptance of the cleaned series.
func (f *SeriesFetcher) normalize(symbol string, frame *models.RawFrame) (models.Series, error) {
	if missing := MissingColumns(frame); len(missing) > 0 {
		return nil, newError(ErrInternal, nil, "missing required columns: %v", missing)
	}

	series, err := f.cleaner.Clean(frame)
	if err != nil {
		f.log.Error().Err(err).Str("symbol", symbol).Msg("Date conversion error")
		if errors.Is(err, ErrMissingDateColumn) {
			return nil, newError(ErrInternal, err, "date column not found in data")
		}
		return nil, newError(ErrInternal, err, "error processing date column")
	}

	if len(series) == 0 {
		return nil, newError(ErrNotFound, nil, "no valid data points found for %s", symbol)
	}
	if allPricesZero(series) {
		return nil, newError(ErrNotFound, nil, "all price data is zero for %s, this might indicate an invalid symbol or data issue", symbol)
	}

	return series, nil
}

// allPricesZero reports whether every price column sums to exactly zero.
func allPricesZero(series models.Series) bool {
	var open, high, low, cls float64
	for _, p := range series {
		open += p.Open
		high += p.High
		low += p.Low
		cls += p.Close
	}
	return open == 0 && high == 0 && low == 0 && cls == 0
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
