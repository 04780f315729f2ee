package yahoo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"

	"stocks-api/internal/models"
)

const DefaultBaseURL = "https://query1.finance.yahoo.com"

const chartPath = "/v8/finance/chart/{symbol}"

// Intraday intervals label their time column Datetime instead of Date.
var intradayIntervals = map[string]bool{
	"1m": true, "2m": true, "5m": true, "15m": true, "30m": true,
	"60m": true, "90m": true, "1h": true,
}

// Client fetches raw chart history from Yahoo Finance
type Client struct {
	http *resty.Client
	log  zerolog.Logger
}

func NewClient(baseURL string, timeout time.Duration, log zerolog.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	client := resty.New()
	client.SetBaseURL(strings.TrimRight(baseURL, "/"))
	client.SetTimeout(timeout)
	client.SetHeader("User-Agent", "Mozilla/5.0")
	client.SetHeader("Accept", "application/json")

	return &Client{
		http: client,
		log:  log.With().Str("client", "yahoo").Logger(),
	}
}

// APIError is a non-success answer from the chart endpoint
type APIError struct {
	StatusCode  int
	Code        string
	Description string
}

func (e *APIError) Error() string {
	if e.Description != "" {
		return fmt.Sprintf("yahoo finance returned status %d: %s: %s", e.StatusCode, e.Code, e.Description)
	}
	return fmt.Sprintf("yahoo finance returned status %d", e.StatusCode)
}

// NotFound reports an unknown or delisted symbol.
func (e *APIError) NotFound() bool {
	return e.StatusCode == http.StatusNotFound || strings.EqualFold(e.Code, "Not Found")
}

// Transient reports a failure worth retrying later.
func (e *APIError) Transient() bool {
	switch e.StatusCode {
	case http.StatusRequestTimeout, http.StatusTooManyRequests, http.StatusBadGateway,
		http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	}
	return false
}

type chartResponse struct {
	Chart struct {
		Result []chartResult `json:"result"`
		Error  *chartError   `json:"error"`
	} `json:"chart"`
}

type chartError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

type chartResult struct {
	Meta struct {
		Symbol               string `json:"symbol"`
		ExchangeTimezoneName string `json:"exchangeTimezoneName"`
		GMTOffset            int    `json:"gmtoffset"`
	} `json:"meta"`
	Timestamp  []int64 `json:"timestamp"`
	Indicators struct {
		Quote []struct {
			Open   []*float64 `json:"open"`
			High   []*float64 `json:"high"`
			Low    []*float64 `json:"low"`
			Close  []*float64 `json:"close"`
			Volume []*float64 `json:"volume"`
		} `json:"quote"`
		AdjClose []struct {
			AdjClose []*float64 `json:"adjclose"`
		} `json:"adjclose"`
	} `json:"indicators"`
}

// History returns the chart rows for symbol as a raw frame. A response with
// no rows yields an empty frame and no error.
func (c *Client) History(ctx context.Context, symbol, period, interval string) (*models.RawFrame, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		SetPathParam("symbol", symbol).
		SetQueryParams(map[string]string{
			"range":          period,
			"interval":       interval,
			"includePrePost": "false",
			"events":         "div,splits",
		}).
		Get(chartPath)
	if err != nil {
		return nil, fmt.Errorf("yahoo fetch %s: %w", symbol, err)
	}

	var chart chartResponse
	decodeErr := json.Unmarshal(resp.Body(), &chart)

	if resp.StatusCode() != http.StatusOK {
		apiErr := &APIError{StatusCode: resp.StatusCode()}
		if decodeErr == nil && chart.Chart.Error != nil {
			apiErr.Code = chart.Chart.Error.Code
			apiErr.Description = chart.Chart.Error.Description
		}
		return nil, apiErr
	}
	if decodeErr != nil {
		return nil, fmt.Errorf("yahoo decode %s: %w", symbol, decodeErr)
	}
	if chart.Chart.Error != nil {
		return nil, &APIError{
			StatusCode:  resp.StatusCode(),
			Code:        chart.Chart.Error.Code,
			Description: chart.Chart.Error.Description,
		}
	}
	if len(chart.Chart.Result) == 0 {
		return &models.RawFrame{}, nil
	}

	frame := toFrame(chart.Chart.Result[0], interval)
	c.log.Debug().Str("symbol", symbol).Int("rows", len(frame.Rows)).Msg("Fetched chart")
	return frame, nil
}

// toFrame lays the columnar chart payload out as rows. Missing quote values
// stay nil for the cleaner to fill.
func toFrame(result chartResult, interval string) *models.RawFrame {
	dateColumn := "Date"
	if intradayIntervals[interval] {
		dateColumn = "Datetime"
	}

	frame := &models.RawFrame{
		Columns: []models.ColumnKey{{dateColumn}, {"open"}, {"high"}, {"low"}, {"close"}, {"volume"}, {"adjclose"}},
	}
	if len(result.Timestamp) == 0 {
		return frame
	}

	var open, high, low, closes, volume, adjClose []*float64
	if len(result.Indicators.Quote) > 0 {
		q := result.Indicators.Quote[0]
		open, high, low, closes, volume = q.Open, q.High, q.Low, q.Close, q.Volume
	}
	if len(result.Indicators.AdjClose) > 0 {
		adjClose = result.Indicators.AdjClose[0].AdjClose
	}

	loc := exchangeLocation(result.Meta.ExchangeTimezoneName, result.Meta.GMTOffset)
	frame.Rows = make([][]any, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		frame.Rows[i] = []any{
			time.Unix(ts, 0).In(loc),
			cell(open, i), cell(high, i), cell(low, i), cell(closes, i), cell(volume, i), cell(adjClose, i),
		}
	}
	return frame
}

func cell(values []*float64, i int) any {
	if i >= len(values) || values[i] == nil {
		return nil
	}
	return *values[i]
}

func exchangeLocation(name string, gmtOffset int) *time.Location {
	if name != "" {
		if loc, err := time.LoadLocation(name); err == nil {
			return loc
		}
	}
	return time.FixedZone("exchange", gmtOffset)
}
