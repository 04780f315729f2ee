package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"stocks-api/internal/models"
)

const dateLayout = "2006-01-02"

// Canonical column names after normalization.
const (
	colDate     = "date"
	colDatetime = "datetime"
	colOpen     = "open"
	colHigh     = "high"
	colLow      = "low"
	colClose    = "close"
	colVolume   = "volume"
)

var (
	requiredColumns = []string{colOpen, colHigh, colLow, colClose, colVolume}
	canonicalNames  = map[string]bool{
		colDate: true, colDatetime: true, colOpen: true, colHigh: true,
		colLow: true, colClose: true, colVolume: true,
	}
)

// ErrMissingDateColumn is returned when neither Date nor Datetime is present.
var ErrMissingDateColumn = errors.New("date column not found")

// DateParseError reports a date cell that could not be interpreted.
type DateParseError struct {
	Row   int
	Value any
}

func (e *DateParseError) Error() string {
	return fmt.Sprintf("row %d: cannot parse date %v", e.Row, e.Value)
}

var dateStringLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05-07:00",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	dateLayout,
	"2006/01/02",
	"01/02/2006",
}

// SeriesCleaner normalizes a provider frame into a canonical series
type SeriesCleaner struct {
	log zerolog.Logger
}

func NewSeriesCleaner(log zerolog.Logger) *SeriesCleaner {
	return &SeriesCleaner{log: log.With().Str("component", "series_cleaner").Logger()}
}

// ResolveColumns maps canonical column names onto frame column indexes.
// Each key is matched level by level, case-insensitively; the first column
// to claim a name keeps it.
func ResolveColumns(frame *models.RawFrame) map[string]int {
	index := make(map[string]int)
	if frame == nil {
		return index
	}
	for j, key := range frame.Columns {
		for _, level := range key {
			name := strings.ToLower(strings.TrimSpace(level))
			if !canonicalNames[name] {
				continue
			}
			if _, taken := index[name]; !taken {
				index[name] = j
			}
			break
		}
	}
	return index
}

// MissingColumns lists the required OHLCV columns the frame does not carry.
func MissingColumns(frame *models.RawFrame) []string {
	index := ResolveColumns(frame)
	var missing []string
	for _, name := range requiredColumns {
		if _, ok := index[name]; !ok {
			missing = append(missing, strings.ToUpper(name[:1])+name[1:])
		}
	}
	return missing
}

type cleanRow struct {
	at     time.Time
	values [5]float64 // open, high, low, close, volume; NaN marks missing
}

// Clean converts frame rows into a series. It only fails on date problems;
// callers decide how those are classified.
func (c *SeriesCleaner) Clean(frame *models.RawFrame) (models.Series, error) {
	if frame.Empty() {
		return models.Series{}, nil
	}

	index := ResolveColumns(frame)
	dateCol, ok := index[colDate]
	if !ok {
		dateCol, ok = index[colDatetime]
	}
	if !ok {
		return nil, ErrMissingDateColumn
	}

	rows := make([]cleanRow, len(frame.Rows))
	for i := range frame.Rows {
		at, err := parseDateCell(frame.Cell(i, dateCol))
		if err != nil {
			return nil, &DateParseError{Row: i, Value: frame.Cell(i, dateCol)}
		}
		rows[i].at = at
	}

	for k, name := range requiredColumns {
		j, present := index[name]
		if !present {
			c.log.Warn().Str("column", name).Msg("Column not found in data, filling with zeros")
		}
		for i := range rows {
			v := math.NaN()
			if present {
				v = toNumber(frame.Cell(i, j))
			}
			rows[i].values[k] = v
		}
	}

	sort.SliceStable(rows, func(a, b int) bool { return rows[a].at.Before(rows[b].at) })

	fillGaps(rows)

	series := make(models.Series, 0, len(rows))
	for _, r := range rows {
		point := models.PricePoint{
			Date:   r.at.Format(dateLayout),
			Open:   r.values[0],
			High:   r.values[1],
			Low:    r.values[2],
			Close:  r.values[3],
			Volume: int64(r.values[4]),
		}
		// Same calendar date: the later observation wins.
		if n := len(series); n > 0 && series[n-1].Date == point.Date {
			series[n-1] = point
			continue
		}
		series = append(series, point)
	}

	return series, nil
}

// fillGaps forward-fills price columns (leading gaps become 0) and zeroes
// missing or negative volume.
func fillGaps(rows []cleanRow) {
	for k := 0; k < 4; k++ {
		last := 0.0
		for i := range rows {
			if math.IsNaN(rows[i].values[k]) {
				rows[i].values[k] = last
				continue
			}
			last = rows[i].values[k]
		}
	}
	for i := range rows {
		if v := rows[i].values[4]; math.IsNaN(v) || v < 0 {
			rows[i].values[4] = 0
		}
	}
}

// toNumber coerces a cell to a finite float, returning NaN for anything else.
func toNumber(v any) float64 {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int32:
		f = float64(n)
	case int64:
		f = float64(n)
	case uint64:
		f = float64(n)
	case *float64:
		if n == nil {
			return math.NaN()
		}
		f = *n
	case json.Number:
		parsed, err := n.Float64()
		if err != nil {
			return math.NaN()
		}
		f = parsed
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return math.NaN()
		}
		f = parsed
	default:
		return math.NaN()
	}
	if math.IsInf(f, 0) {
		return math.NaN()
	}
	return f
}

// parseDateCell accepts times, epoch seconds and common date strings.
func parseDateCell(v any) (time.Time, error) {
	switch d := v.(type) {
	case time.Time:
		return d, nil
	case *time.Time:
		if d != nil {
			return *d, nil
		}
	case int64:
		return time.Unix(d, 0).UTC(), nil
	case int:
		return time.Unix(int64(d), 0).UTC(), nil
	case float64:
		if !math.IsNaN(d) && !math.IsInf(d, 0) {
			return time.Unix(int64(d), 0).UTC(), nil
		}
	case json.Number:
		if secs, err := d.Int64(); err == nil {
			return time.Unix(secs, 0).UTC(), nil
		}
	case string:
		s := strings.TrimSpace(d)
		for _, layout := range dateStringLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t, nil
			}
		}
	}
	return time.Time{}, fmt.Errorf("unsupported date value %v", v)
}
