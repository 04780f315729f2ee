package yahoo

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stocks-api/internal/models"
)

const chartPayload = `{
  "chart": {
    "result": [{
      "meta": {"symbol": "TCS.NS", "exchangeTimezoneName": "Asia/Kolkata", "gmtoffset": 19800},
      "timestamp": [1704080700, 1704167100],
      "indicators": {
        "quote": [{
          "open":   [3800.5, null],
          "high":   [3850.0, 3870.0],
          "low":    [3790.0, 3810.0],
          "close":  [3840.0, 3860.25],
          "volume": [120000, null]
        }],
        "adjclose": [{"adjclose": [3840.0, 3860.25]}]
      }
    }],
    "error": null
  }
}`

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClient(server.URL, 5*time.Second, zerolog.New(nil).Level(zerolog.Disabled))
}

func TestClient_History(t *testing.T) {
	var gotPath string
	var gotQuery map[string]string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = map[string]string{
			"range":    r.URL.Query().Get("range"),
			"interval": r.URL.Query().Get("interval"),
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(chartPayload))
	})

	frame, err := client.History(context.Background(), "TCS.NS", "1y", "1d")
	require.NoError(t, err)

	assert.Equal(t, "/v8/finance/chart/TCS.NS", gotPath)
	assert.Equal(t, map[string]string{"range": "1y", "interval": "1d"}, gotQuery)

	require.Len(t, frame.Columns, 7)
	assert.Equal(t, models.ColumnKey{"Date"}, frame.Columns[0])
	require.Len(t, frame.Rows, 2)

	first := frame.Rows[0]
	at, ok := first[0].(time.Time)
	require.True(t, ok)
	assert.Equal(t, "2024-01-01", at.Format("2006-01-02"))
	assert.Equal(t, 3800.5, first[1])
	assert.Equal(t, 120000.0, first[5])

	second := frame.Rows[1]
	assert.Nil(t, second[1])
	assert.Nil(t, second[5])
	assert.Equal(t, 3860.25, second[4])
}

func TestClient_HistoryIntradayUsesDatetime(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(chartPayload))
	})

	frame, err := client.History(context.Background(), "TCS.NS", "5d", "15m")
	require.NoError(t, err)
	assert.Equal(t, models.ColumnKey{"Datetime"}, frame.Columns[0])
}

func TestClient_HistoryEmptyResult(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"chart": {"result": [], "error": null}}`))
	})

	frame, err := client.History(context.Background(), "TCS.NS", "1y", "1d")
	require.NoError(t, err)
	assert.True(t, frame.Empty())
}

func TestClient_HistoryErrors(t *testing.T) {
	t.Run("unknown symbol", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"chart": {"result": null, "error": {"code": "Not Found", "description": "No data found, symbol may be delisted"}}}`))
		})

		_, err := client.History(context.Background(), "NOPE", "1y", "1d")

		var apiErr *APIError
		require.True(t, errors.As(err, &apiErr))
		assert.True(t, apiErr.NotFound())
		assert.False(t, apiErr.Transient())
		assert.Equal(t, "No data found, symbol may be delisted", apiErr.Description)
	})

	t.Run("throttled", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})

		_, err := client.History(context.Background(), "TCS.NS", "1y", "1d")

		var apiErr *APIError
		require.True(t, errors.As(err, &apiErr))
		assert.True(t, apiErr.Transient())
		assert.False(t, apiErr.NotFound())
		assert.Equal(t, "yahoo finance returned status 503", apiErr.Error())
	})

	t.Run("malformed body", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`not json`))
		})

		_, err := client.History(context.Background(), "TCS.NS", "1y", "1d")
		assert.ErrorContains(t, err, "yahoo decode TCS.NS")
	})
}
