package collector

import (
	"context"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	finance "github.com/piquette/finance-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"IndexForecaster/internal/cleaner"
	"IndexForecaster/internal/model"
	"IndexForecaster/internal/table"
)

const chartJSON = `{"chart":{"result":[{"meta":{"symbol":"^NSEI","gmtoffset":19800},
"timestamp":[1704253500,1704167100,1704339900,1704426300],
"indicators":{"quote":[{
"open":[21100,21000,null,21200],
"high":[21200,21100,null,21300],
"low":[21000,20900,null,21100],
"close":[21150,21050,null,null],
"volume":[1000,900,null,1100]}]}}],"error":null}}`

func TestYahooFetcher_FetchHistory(t *testing.T) {
	var gotPath, gotRange, gotInterval string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotRange = r.URL.Query().Get("range")
		gotInterval = r.URL.Query().Get("interval")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(chartJSON))
	}))
	defer srv.Close()

	f := NewYahooFetcherWithBaseURL(srv.URL, "")
	bars, err := f.FetchHistory(context.Background(), "^NSEI", "5y")
	require.NoError(t, err)

	assert.Equal(t, "/v8/finance/chart/^NSEI", gotPath)
	assert.Equal(t, "5y", gotRange)
	assert.Equal(t, "1d", gotInterval)

	// all-null bar skipped, remaining sorted chronologically
	require.Len(t, bars, 3)
	assert.Equal(t, "2024-01-02", bars[0].Time.Format("2006-01-02"))
	assert.Equal(t, 21050.0, bars[0].Close)
	assert.Equal(t, 21150.0, bars[1].Close)
	assert.True(t, math.IsNaN(bars[2].Close))
	assert.Equal(t, 21200.0, bars[2].Open)
}

func TestYahooFetcher_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found, symbol may be delisted"}}}`))
	}))
	defer srv.Close()

	_, err := NewYahooFetcherWithBaseURL(srv.URL, "").FetchHistory(context.Background(), "^NOPE", "5y")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 404")
}

func TestYahooFetcher_EmbeddedError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"chart":{"result":null,"error":{"code":"Bad","description":"invalid range"}}}`))
	}))
	defer srv.Close()

	_, err := NewYahooFetcherWithBaseURL(srv.URL, "").FetchHistory(context.Background(), "^NSEI", "5y")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid range")
}

func TestLookbackStart(t *testing.T) {
	end := time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		in   string
		want time.Time
	}{
		{"5y", time.Date(2020, 3, 31, 0, 0, 0, 0, time.UTC)},
		{"6mo", time.Date(2024, 10, 1, 0, 0, 0, 0, time.UTC)},
		{"30d", time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		got, err := LookbackStart(end, tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
	for _, bad := range []string{"", "y", "-1y", "5w"} {
		_, err := LookbackStart(end, bad)
		assert.Error(t, err, bad)
	}
}

func TestCollector_CollectPersistsCSV(t *testing.T) {
	dir := t.TempDir()
	end := time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC)
	col := NewCollector(&MockFetcher{Price: 100, End: end}, dir, "1y")
	specs := []model.SeriesSpec{{Name: "NIFTY 50", Symbol: "X"}, {Name: "B", Symbol: "Y"}}

	raws, err := col.Collect(context.Background(), specs)
	require.NoError(t, err)
	require.Len(t, raws, 2)

	assert.Equal(t, filepath.Join(dir, "NIFTY_50.csv"), raws[0].Path)
	assert.Equal(t, specs[1], raws[1].Spec)
	_, err = os.Stat(raws[0].Path)
	require.NoError(t, err)

	assert.True(t, raws[0].Frame.MultiLevel())
	assert.Equal(t, table.Column{"Close", "X"}, raws[0].Frame.Columns[0])
	assert.Equal(t, "2025-01-10", raws[0].Frame.Index[raws[0].Frame.Len()-1])

	loaded, err := col.Load(specs)
	require.NoError(t, err)
	assert.Equal(t, raws[0].Frame, loaded[0].Frame)
}

func TestCollector_FetchErrorAborts(t *testing.T) {
	col := NewCollector(&MockFetcher{Err: errors.New("network down")}, t.TempDir(), "5y")
	_, err := col.Collect(context.Background(), []model.SeriesSpec{{Name: "A", Symbol: "X"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fetch A (X)")
}

func TestBarsToFrame_NaNBecomesEmpty(t *testing.T) {
	f := BarsToFrame("X", []model.OHLCV{{
		Time: time.Date(2024, 1, 2, 9, 15, 0, 0, time.UTC), Close: math.NaN(), High: 2, Low: 1, Open: 1.5, Volume: 10,
	}})
	require.Equal(t, 1, f.Len())
	assert.Equal(t, "2024-01-02", f.Index[0])
	assert.Equal(t, []string{"", "2", "1", "1.5", "10"}, f.Rows[0])
}

// Sessions at 08:00 UTC on 2024-01-02..05. The client decodes null as 0.
const financeGoJSON = `{"chart":{"result":[{"meta":{"symbol":"^NSEI"},
"timestamp":[1704182400,1704268800,1704355200,1704441600],
"indicators":{"quote":[{
"open":[21000,21100,null,21200],
"high":[21100,21200,null,21300],
"low":[20900,21000,null,21100],
"close":[21050,null,null,21250],
"volume":[900,1000,null,1100]}]}}],"error":null}}`

func TestFinanceGoFetcher_NullSessionsNeverBecomeZeroPrices(t *testing.T) {
	var gotPath, gotInterval string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotInterval = r.URL.Query().Get("interval")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(financeGoJSON))
	}))
	defer srv.Close()

	f := &FinanceGoFetcher{
		Now: func() time.Time { return time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC) },
		Backend: &finance.BackendConfiguration{
			Type:       finance.YFinBackend,
			URL:        srv.URL,
			HTTPClient: srv.Client(),
		},
	}
	bars, err := f.FetchHistory(context.Background(), "^NSEI", "5y")
	require.NoError(t, err)
	assert.Contains(t, gotPath, "/v8/finance/chart/")
	assert.Equal(t, "1d", gotInterval)

	// all-null session skipped, null close kept as NaN
	require.Len(t, bars, 3)
	assert.Equal(t, 21050.0, bars[0].Close)
	assert.True(t, math.IsNaN(bars[1].Close))
	assert.Equal(t, 21100.0, bars[1].Open)
	assert.Equal(t, 21250.0, bars[2].Close)

	frame := BarsToFrame("^NSEI", bars)
	cs, stats, err := cleaner.Clean("NIFTY 50", frame)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.BadPrice)
	require.Equal(t, 2, cs.Len())
	for _, o := range cs.Observations {
		assert.NotZero(t, o.Close)
	}
	last, ok := cs.Last()
	require.True(t, ok)
	assert.Equal(t, "2024-01-05", last.Date.Format("2006-01-02"))
	assert.Equal(t, 21250.0, last.Close)
}

func TestFinanceGoFetcher_UpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	f := &FinanceGoFetcher{
		Now:     func() time.Time { return time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC) },
		Backend: &finance.BackendConfiguration{Type: finance.YFinBackend, URL: srv.URL, HTTPClient: srv.Client()},
	}
	_, err := f.FetchHistory(context.Background(), "^BAD", "5y")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "^BAD")
}
