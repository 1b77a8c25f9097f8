package forecaster

import (
	"context"
	"io"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"IndexForecaster/internal/chart"
	"IndexForecaster/internal/forecast"
	"IndexForecaster/internal/logging"
	"IndexForecaster/internal/model"
	"IndexForecaster/internal/table"
)

func init() { logging.SetupWithWriter("error", io.Discard) }

var (
	shortTerm = model.Horizon{Label: "ShortTerm", Periods: 90, Frequency: model.Daily}
	longTerm  = model.Horizon{Label: "LongTerm", Periods: 156, Frequency: model.Weekly}
)

func weekdaySeries(name string, n int) *model.CleanedSeries {
	cs := &model.CleanedSeries{Name: name}
	d := time.Date(2021, 1, 4, 0, 0, 0, 0, time.UTC)
	for i := 0; cs.Len() < n; i++ {
		day := d.AddDate(0, 0, i)
		if day.Weekday() == time.Saturday || day.Weekday() == time.Sunday {
			continue
		}
		cs.Observations = append(cs.Observations, model.Observation{
			Date:  day,
			Close: 18000 + 4*float64(i) + 300*math.Sin(float64(i)/40),
		})
	}
	return cs
}

type recordingRenderer struct {
	paths []string
}

func (r *recordingRenderer) render(path string, c chart.Chart) error {
	r.paths = append(r.paths, path)
	return nil
}

func newTestForecaster(t *testing.T) (*Forecaster, *recordingRenderer) {
	t.Helper()
	rr := &recordingRenderer{}
	f := New(t.TempDir(), forecast.DefaultOptions())
	f.Render = rr.render
	return f, rr
}

func TestForecast_RowCountAndOrdering(t *testing.T) {
	for _, h := range []model.Horizon{shortTerm, longTerm} {
		t.Run(h.Label, func(t *testing.T) {
			f, rr := newTestForecaster(t)
			cs := weekdaySeries("A", 600)
			spec := model.SeriesSpec{Name: "A", Symbol: "X"}

			fc, err := f.Forecast(context.Background(), spec, cs, h)
			require.NoError(t, err)

			require.Len(t, fc.Points, cs.Len()+h.Periods)
			assert.True(t, sort.SliceIsSorted(fc.Points, func(i, j int) bool {
				return fc.Points[i].Date.Before(fc.Points[j].Date)
			}))

			future := fc.Future()
			require.Len(t, future, h.Periods)
			last, _ := cs.Last()
			assert.True(t, future[0].Date.After(last.Date))
			step := 24 * time.Hour
			if h.Frequency == model.Weekly {
				step = 7 * 24 * time.Hour
				assert.Equal(t, time.Sunday, future[0].Date.Weekday())
			}
			for i := 1; i < len(future); i++ {
				assert.Equal(t, step, future[i].Date.Sub(future[i-1].Date), "gap at %d", i)
			}
			for _, p := range fc.Points {
				assert.LessOrEqual(t, p.Lower, p.Yhat)
				assert.GreaterOrEqual(t, p.Upper, p.Yhat)
			}

			assert.Equal(t, []string{f.ChartPath(spec, h)}, rr.paths)
			assert.Equal(t, f.ChartPath(spec, h), fc.ChartPath)
		})
	}
}

func TestForecast_EmptySeriesFailsWithoutChart(t *testing.T) {
	f, rr := newTestForecaster(t)
	spec := model.SeriesSpec{Name: "NIFTY BANK", Symbol: "^NSEBANK"}

	_, err := f.Forecast(context.Background(), spec, &model.CleanedSeries{Name: spec.Name}, shortTerm)
	require.ErrorIs(t, err, ErrNoValidRows)
	assert.Contains(t, err.Error(), "NIFTY BANK")
	assert.Contains(t, err.Error(), "Close")
	assert.Empty(t, rr.paths)
}

func TestFromFrame_NoNumericClose(t *testing.T) {
	f := New(t.TempDir(), forecast.DefaultOptions())
	raw, err := table.ReadCSV(strings.NewReader("Date,Open,Close\n2024-01-02,1,null\n2024-01-03,2,\n"))
	require.NoError(t, err)
	spec := model.SeriesSpec{Name: "A", Symbol: "X"}

	_, err = f.FromFrame(context.Background(), spec, raw, longTerm)
	require.ErrorIs(t, err, ErrNoValidRows)
	assert.Contains(t, err.Error(), "[Date Open Close]")

	_, statErr := os.Stat(f.ChartPath(spec, longTerm))
	assert.True(t, os.IsNotExist(statErr))
}

func TestForecast_DropsInvalidObservations(t *testing.T) {
	f, _ := newTestForecaster(t)
	cs := weekdaySeries("A", 200)
	cs.Observations = append(cs.Observations,
		model.Observation{Date: cs.Observations[10].Date, Close: 1},
		model.Observation{Date: time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC), Close: math.Inf(1)},
	)
	fc, err := f.Forecast(context.Background(), model.SeriesSpec{Name: "A"}, cs, shortTerm)
	require.NoError(t, err)
	assert.Len(t, fc.Points, 200+shortTerm.Periods)
}

func TestForecast_IndependentCalls(t *testing.T) {
	f, _ := newTestForecaster(t)
	spec := model.SeriesSpec{Name: "A"}
	cs := weekdaySeries("A", 300)

	first, err := f.Forecast(context.Background(), spec, cs, shortTerm)
	require.NoError(t, err)
	_, err = f.Forecast(context.Background(), spec, weekdaySeries("A", 500), longTerm)
	require.NoError(t, err)
	again, err := f.Forecast(context.Background(), spec, cs, shortTerm)
	require.NoError(t, err)

	assert.Equal(t, first.Points, again.Points)
}

func TestForecast_CancelledContext(t *testing.T) {
	f, rr := newTestForecaster(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := f.Forecast(ctx, model.SeriesSpec{Name: "A"}, weekdaySeries("A", 50), shortTerm)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, rr.paths)
}

func TestChartPath(t *testing.T) {
	f := New("outputs", forecast.DefaultOptions())
	got := f.ChartPath(model.SeriesSpec{Name: "NIFTY 50"}, longTerm)
	assert.Equal(t, filepath.Join("outputs", "NIFTY_50_LongTerm_forecast.png"), got)
}
