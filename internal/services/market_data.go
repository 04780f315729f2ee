package services

import (
	"context"
	"strings"
	"sync"

	"stocks-api/internal/models"
)

// MarketDataService exposes fetched price history to the facade
type MarketDataService struct {
	fetcher    *SeriesFetcher
	workerPool chan struct{} // Semaphore for bounded concurrency
}

func NewMarketDataService(fetcher *SeriesFetcher, maxConcurrentFetches int) *MarketDataService {
	if maxConcurrentFetches < 1 {
		maxConcurrentFetches = 1
	}
	return &MarketDataService{
		fetcher:    fetcher,
		workerPool: make(chan struct{}, maxConcurrentFetches),
	}
}

// GetPrices fetches the canonical series for an arbitrary window
func (s *MarketDataService) GetPrices(ctx context.Context, symbol string, q models.QueryParams) (models.Series, error) {
	return s.fetcher.Fetch(ctx, symbol, q)
}

// GetHistory fetches the fixed one-year daily window used for predictions and stats
func (s *MarketDataService) GetHistory(ctx context.Context, symbol string) (models.Series, error) {
	return s.fetcher.Fetch(ctx, symbol, models.DefaultQuery)
}

// BatchResult is the outcome of one symbol in FetchBatch
type BatchResult struct {
	Series models.Series
	Err    error
}

// FetchBatch fetches the default window for several symbols concurrently,
// bounded by the worker pool. Each symbol runs its own independent pipeline;
// duplicate symbols are fetched once.
func (s *MarketDataService) FetchBatch(ctx context.Context, symbols []string) map[string]BatchResult {
	results := make(map[string]BatchResult, len(symbols))
	var mu sync.Mutex
	var wg sync.WaitGroup

	seen := make(map[string]bool, len(symbols))
	for _, symbol := range symbols {
		symbol = strings.TrimSpace(symbol)
		if seen[symbol] {
			continue
		}
		seen[symbol] = true

		wg.Add(1)
		go func(symbol string) {
			defer wg.Done()

			// Acquire worker slot (bounded concurrency)
			select {
			case s.workerPool <- struct{}{}:
			case <-ctx.Done():
				mu.Lock()
				results[symbol] = BatchResult{Err: classifyProviderError(symbol, ctx.Err())}
				mu.Unlock()
				return
			}
			defer func() { <-s.workerPool }()

			series, err := s.GetHistory(ctx, symbol)

			mu.Lock()
			results[symbol] = BatchResult{Series: series, Err: err}
			mu.Unlock()
		}(symbol)
	}

	wg.Wait()
	return results
}
