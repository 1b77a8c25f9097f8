package recorder

import (
	"time"

	"github.com/google/uuid"

	"IndexForecaster/internal/model"
)

// SeriesRecord is what gets stored for one series of a run.
type SeriesRecord struct {
	Summary      model.SeriesSummary
	Observations int
	FirstDate    time.Time
	LastDate     time.Time
	MA200        float64 // 0 when history is shorter than 200 sessions
	High52w      float64
	Low52w       float64
	Position52w  float64 // 0.0 ~ 1.0
	DailyRSI     float64
	ShortChart   string
	LongChart    string
}

// RunRecord holds one completed pipeline run.
type RunRecord struct {
	ID         uuid.UUID
	StartedAt  time.Time
	FinishedAt time.Time
	Provider   string
	ReportPath string
	Series     []SeriesRecord
}

// Recorder persists run history for later analysis.
type Recorder interface {
	RecordRun(run *RunRecord) (int64, error)
	Close() error
}
