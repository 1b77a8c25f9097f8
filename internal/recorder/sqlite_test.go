package recorder

import (
	"io"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"IndexForecaster/internal/logging"
	"IndexForecaster/internal/model"
)

func init() { logging.SetupWithWriter("error", io.Discard) }

func TestSQLiteRecorder_RecordAndHistory(t *testing.T) {
	rec, err := NewSQLiteRecorder(filepath.Join(t.TempDir(), "db", "runs.db"))
	require.NoError(t, err)
	defer rec.Close()

	last, err := rec.LastRunAt()
	require.NoError(t, err)
	assert.True(t, last.IsZero())

	started := time.Date(2025, 1, 10, 18, 0, 0, 0, time.UTC)
	for i, long := range []float64{110, 90} {
		id, err := rec.RecordRun(&RunRecord{
			StartedAt:  started.Add(time.Duration(i) * time.Hour),
			FinishedAt: started.Add(time.Duration(i)*time.Hour + time.Minute),
			Provider:   "mock",
			ReportPath: "outputs/summary.txt",
			Series: []SeriesRecord{{
				Summary: model.SeriesSummary{
					Name: "A", CurrentPrice: 100, ShortTerm: 105, LongTerm: long,
					Trend: model.TrendBullish,
				},
				Observations: 1200,
				FirstDate:    started.AddDate(-5, 0, 0),
				LastDate:     started,
			}},
		})
		require.NoError(t, err)
		assert.Equal(t, int64(i+1), id)
	}

	dup := uuid.New()
	_, err = rec.RecordRun(&RunRecord{ID: dup, StartedAt: started, FinishedAt: started})
	require.NoError(t, err)
	_, err = rec.RecordRun(&RunRecord{ID: dup, StartedAt: started, FinishedAt: started})
	assert.Error(t, err, "run ids are unique")

	hist, err := rec.History("A", 10)
	require.NoError(t, err)
	require.Len(t, hist, 2)
	assert.Equal(t, 90.0, hist[0].LongTerm)
	assert.Equal(t, model.TrendBullish, hist[1].Trend)

	none, err := rec.History("B", 10)
	require.NoError(t, err)
	assert.Empty(t, none)

	last, err = rec.LastRunAt()
	require.NoError(t, err)
	assert.Equal(t, started.Add(time.Hour+time.Minute).Unix(), last.Unix())
}

func TestNoopRecorder(t *testing.T) {
	var r Recorder = NewNoopRecorder()
	id, err := r.RecordRun(&RunRecord{})
	assert.NoError(t, err)
	assert.Zero(t, id)
	assert.NoError(t, r.Close())
}
