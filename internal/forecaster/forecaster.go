// Package forecaster fits one model per (series, horizon), predicts the
// history plus the horizon, and renders the chart for it.
package forecaster

import (
	"context"
	"errors"
	"fmt"
	"math"
	"path/filepath"
	"time"

	"github.com/phuslu/log"

	"IndexForecaster/internal/chart"
	"IndexForecaster/internal/cleaner"
	"IndexForecaster/internal/forecast"
	"IndexForecaster/internal/model"
	"IndexForecaster/internal/table"
)

// ErrNoValidRows is returned when a series has no usable (date, price) rows.
var ErrNoValidRows = errors.New("no valid rows")

// RenderFunc draws a chart to path.
type RenderFunc func(path string, c chart.Chart) error

// Forecaster produces Forecasts and their charts under OutputDir.
type Forecaster struct {
	OutputDir string
	Options   forecast.Options
	Render    RenderFunc
}

// New creates a Forecaster rendering PNG charts.
func New(outputDir string, opts forecast.Options) *Forecaster {
	return &Forecaster{OutputDir: outputDir, Options: opts, Render: chart.Render}
}

// ChartPath is <output_dir>/<series>_<label>_forecast.png.
func (f *Forecaster) ChartPath(spec model.SeriesSpec, h model.Horizon) string {
	return filepath.Join(f.OutputDir, fmt.Sprintf("%s_%s_forecast.png", spec.FileStem(), h.Label))
}

// FromFrame cleans a raw table and forecasts it. The error for an empty
// result names the raw table's columns.
func (f *Forecaster) FromFrame(ctx context.Context, spec model.SeriesSpec, raw *table.Frame, h model.Horizon) (*model.Forecast, error) {
	cs, _, err := cleaner.Clean(spec.Name, raw)
	if err != nil {
		return nil, err
	}
	return f.forecast(ctx, spec, cs, raw.ColumnNames(), h)
}

// Forecast fits a fresh model to the cleaned series and predicts its
// history followed by h.Periods future dates.
func (f *Forecaster) Forecast(ctx context.Context, spec model.SeriesSpec, cs *model.CleanedSeries, h model.Horizon) (*model.Forecast, error) {
	columns := []string{"Date", "Close"}
	if cs != nil && len(cs.SourceColumns) > 0 {
		columns = cs.SourceColumns
	}
	return f.forecast(ctx, spec, cs, columns, h)
}

func (f *Forecaster) forecast(ctx context.Context, spec model.SeriesSpec, cs *model.CleanedSeries, columns []string, h model.Horizon) (*model.Forecast, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if h.Periods <= 0 {
		return nil, fmt.Errorf("forecast %s: horizon %s has no periods", spec.Name, h.Label)
	}

	ds, y, dropped := usable(cs)
	if dropped > 0 {
		log.Warn().Str("series", spec.Name).Int("dropped", dropped).Msg("rows dropped before fitting")
	}
	if len(ds) == 0 {
		return nil, fmt.Errorf("%w: after cleaning, no valid rows for %s. Inspect input columns: %v",
			ErrNoValidRows, spec.Name, columns)
	}

	fmt.Printf("\nMaking forecast for: %s (%s)\n", spec.Name, h.Label)
	log.Debug().Str("series", spec.Name).Str("horizon", h.String()).Int("rows", len(ds)).Msg("fitting model")

	m := forecast.New(f.Options)
	if err := m.Fit(ds, y); err != nil {
		return nil, fmt.Errorf("fit %s %s: %w", spec.Name, h.Label, err)
	}

	future := forecast.FutureDates(ds[len(ds)-1], h.Periods, h.Frequency)
	all := make([]time.Time, 0, len(ds)+len(future))
	all = append(all, ds...)
	all = append(all, future...)

	res, err := m.Predict(all)
	if err != nil {
		return nil, fmt.Errorf("predict %s %s: %w", spec.Name, h.Label, err)
	}

	points := make([]model.ForecastPoint, len(all))
	for i := range all {
		points[i] = model.ForecastPoint{
			Date:       res.T[i],
			Yhat:       res.Forecast[i],
			Lower:      res.Lower[i],
			Upper:      res.Upper[i],
			Historical: i < len(ds),
		}
	}

	out := &model.Forecast{Series: spec.Name, Horizon: h, Points: points}
	path := f.ChartPath(spec, h)
	err = f.Render(path, chart.Chart{
		Title:    fmt.Sprintf("%s - %s Forecast", spec.Name, h.Label),
		History:  cs.Observations,
		Forecast: points,
	})
	if err != nil {
		return nil, fmt.Errorf("render %s %s: %w", spec.Name, h.Label, err)
	}
	out.ChartPath = path

	log.Info().Str("series", spec.Name).Str("horizon", h.Label).Int("rows", len(points)).
		Float64("sigma", m.Sigma()).Str("chart", path).Msg("forecast saved")
	fmt.Printf("Saved %s forecast for %s → %s\n", h.Label, spec.Name, path)
	return out, nil
}

// usable re-checks the cleaned invariants so that a hand-built series cannot
// reach the model with zero dates, non-finite prices or out-of-order rows.
func usable(cs *model.CleanedSeries) ([]time.Time, []float64, int) {
	if cs == nil {
		return nil, nil, 0
	}
	ds := make([]time.Time, 0, cs.Len())
	y := make([]float64, 0, cs.Len())
	dropped := 0
	for _, o := range cs.Observations {
		if o.Date.IsZero() || !finite(o.Close) || (len(ds) > 0 && !o.Date.After(ds[len(ds)-1])) {
			dropped++
			continue
		}
		ds = append(ds, o.Date)
		y = append(y, o.Close)
	}
	return ds, y, dropped
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
