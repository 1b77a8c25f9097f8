package model

import (
	"fmt"
	"strings"
	"time"
)

// Frequency is the spacing of forecast periods.
type Frequency string

const (
	Daily  Frequency = "daily"
	Weekly Frequency = "weekly"
)

// ParseFrequency accepts the config spellings as well as the pandas aliases D and W.
func ParseFrequency(s string) (Frequency, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "daily", "d", "day":
		return Daily, nil
	case "weekly", "w", "week":
		return Weekly, nil
	default:
		return "", fmt.Errorf("unknown frequency %q", s)
	}
}

// Horizon pairs a period count with a frequency unit.
type Horizon struct {
	Label     string
	Periods   int
	Frequency Frequency
}

func (h Horizon) String() string {
	return fmt.Sprintf("%s(%d %s)", h.Label, h.Periods, h.Frequency)
}

// ForecastPoint is one row of the predicted table.
type ForecastPoint struct {
	Date       time.Time
	Yhat       float64
	Lower      float64
	Upper      float64
	Historical bool // fitted value for an observed date
}

// Forecast is the full predicted table for one (series, horizon) pair: fitted
// history followed by Horizon.Periods future rows.
type Forecast struct {
	Series    string
	Horizon   Horizon
	Points    []ForecastPoint
	ChartPath string
}

// Last returns the final predicted row.
func (f *Forecast) Last() (ForecastPoint, bool) {
	if f == nil || len(f.Points) == 0 {
		return ForecastPoint{}, false
	}
	return f.Points[len(f.Points)-1], true
}

// Future returns only the rows past the last observed date.
func (f *Forecast) Future() []ForecastPoint {
	for i, p := range f.Points {
		if !p.Historical {
			return f.Points[i:]
		}
	}
	return nil
}
