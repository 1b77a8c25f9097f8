package collector

import (
	"context"
	"fmt"
	"math"
	"path/filepath"
	"strconv"
	"time"

	"github.com/phuslu/log"

	"IndexForecaster/internal/model"
	"IndexForecaster/internal/table"
)

// MockFetcher returns controllable fixed data for development and testing.
type MockFetcher struct {
	Price float64
	End   time.Time                // last generated session; zero means today
	Data  map[string][]model.OHLCV // per-symbol override
	Err   error
}

func (m *MockFetcher) Name() string { return "mock" }

func (m *MockFetcher) FetchHistory(_ context.Context, symbol, lookback string) ([]model.OHLCV, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	if bars, ok := m.Data[symbol]; ok {
		return bars, nil
	}
	end := m.End
	if end.IsZero() {
		end = time.Now()
	}
	days, err := lookbackDays(end, lookback)
	if err != nil {
		return nil, err
	}
	price := m.Price
	if price == 0 {
		price = 100
	}
	return generateMockBars(price, end, days), nil
}

// generateMockBars produces weekday bars with a gentle upward drift and a
// yearly cycle, ending at end.
func generateMockBars(basePrice float64, end time.Time, days int) []model.OHLCV {
	end = time.Date(end.Year(), end.Month(), end.Day(), 0, 0, 0, 0, time.UTC)
	bars := make([]model.OHLCV, 0, days)
	for i := days; i >= 0; i-- {
		d := end.AddDate(0, 0, -i)
		if d.Weekday() == time.Saturday || d.Weekday() == time.Sunday {
			continue
		}
		step := float64(days - i)
		p := basePrice * (1 + step*0.0004 + 0.03*math.Sin(2*math.Pi*step/365.25))
		bars = append(bars, model.OHLCV{
			Time:   d,
			Open:   p * 0.999,
			High:   p * 1.005,
			Low:    p * 0.995,
			Close:  p,
			Volume: 1000000,
		})
	}
	return bars
}

// RawSeries is a downloaded table together with where it was persisted.
type RawSeries struct {
	Spec  model.SeriesSpec
	Frame *table.Frame
	Path  string
}

// Collector downloads every configured series and persists the raw tables.
type Collector struct {
	Fetcher  Fetcher
	DataDir  string
	Lookback string
}

// NewCollector creates a new Collector.
func NewCollector(fetcher Fetcher, dataDir, lookback string) *Collector {
	return &Collector{Fetcher: fetcher, DataDir: dataDir, Lookback: lookback}
}

// CSVPath is where the raw table for spec is persisted.
func (c *Collector) CSVPath(spec model.SeriesSpec) string {
	return filepath.Join(c.DataDir, spec.FileStem()+".csv")
}

// Collect fetches each series in order and saves it as <data_dir>/<series>.csv.
// The first failure aborts: there is no retry and no partial result.
func (c *Collector) Collect(ctx context.Context, specs []model.SeriesSpec) ([]RawSeries, error) {
	fmt.Printf("Fetching %s of data...\n", c.Lookback)
	out := make([]RawSeries, 0, len(specs))
	for _, spec := range specs {
		bars, err := c.Fetcher.FetchHistory(ctx, spec.Symbol, c.Lookback)
		if err != nil {
			return nil, fmt.Errorf("fetch %s (%s): %w", spec.Name, spec.Symbol, err)
		}
		frame := BarsToFrame(spec.Symbol, bars)
		path := c.CSVPath(spec)
		if err := frame.SaveCSV(path); err != nil {
			return nil, fmt.Errorf("save %s: %w", spec.Name, err)
		}
		log.Info().Str("series", spec.Name).Str("symbol", spec.Symbol).Str("source", c.Fetcher.Name()).
			Int("rows", frame.Len()).Str("path", path).Msg("raw data saved")
		fmt.Printf("Saved %s data to %s\n", spec.Name, path)
		out = append(out, RawSeries{Spec: spec, Frame: frame, Path: path})
	}
	return out, nil
}

// Load reads previously persisted tables instead of fetching.
func (c *Collector) Load(specs []model.SeriesSpec) ([]RawSeries, error) {
	out := make([]RawSeries, 0, len(specs))
	for _, spec := range specs {
		path := c.CSVPath(spec)
		frame, err := table.LoadCSV(path)
		if err != nil {
			return nil, fmt.Errorf("load %s: %w", spec.Name, err)
		}
		log.Info().Str("series", spec.Name).Int("rows", frame.Len()).Str("path", path).Msg("raw data loaded")
		out = append(out, RawSeries{Spec: spec, Frame: frame, Path: path})
	}
	return out, nil
}

// BarsToFrame lays bars out as a two-level table: [field, symbol] columns
// indexed by trading date. NaN prices become empty cells.
func BarsToFrame(symbol string, bars []model.OHLCV) *table.Frame {
	f := table.NewFrame("Date",
		table.Column{"Close", symbol},
		table.Column{"High", symbol},
		table.Column{"Low", symbol},
		table.Column{"Open", symbol},
		table.Column{"Volume", symbol},
	)
	f.LevelNames = []string{"Price", "Ticker"}
	for _, b := range bars {
		// width always matches the five columns above
		_ = f.Append(b.Time.Format("2006-01-02"),
			formatNum(b.Close), formatNum(b.High), formatNum(b.Low), formatNum(b.Open), formatNum(b.Volume))
	}
	return f
}

func formatNum(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return ""
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
