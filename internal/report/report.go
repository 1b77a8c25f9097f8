// Package report aggregates forecasts into the plain-text summary report.
package report

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	"IndexForecaster/internal/model"
)

// ClassifyTrend is Bullish only when the long-term projection is strictly
// above the current price. Equality is Bearish.
func ClassifyTrend(current, longTerm float64) model.Trend {
	if longTerm > current {
		return model.TrendBullish
	}
	return model.TrendBearish
}

// Span turns a horizon into the short label used in the report, e.g. "3M" or "3Y".
func Span(h model.Horizon) string {
	days := float64(h.Periods)
	if h.Frequency == model.Weekly {
		days *= 7
	}
	if days >= 365 {
		return fmt.Sprintf("%dY", int(math.Round(days/365.25)))
	}
	if days >= 28 {
		return fmt.Sprintf("%dM", int(math.Round(days/30.44)))
	}
	return fmt.Sprintf("%dD", int(days))
}

// Summarize reads the last observed price and the last predicted value of
// each horizon.
func Summarize(r model.SeriesResult) (model.SeriesSummary, error) {
	name := r.Spec.Name
	if r.Cleaned == nil {
		return model.SeriesSummary{}, fmt.Errorf("summarize %s: no cleaned series", name)
	}
	last, ok := r.Cleaned.Last()
	if !ok {
		return model.SeriesSummary{}, fmt.Errorf("summarize %s: no observed price", name)
	}
	short, ok := r.ShortTerm.Last()
	if !ok {
		return model.SeriesSummary{}, fmt.Errorf("summarize %s: no short-term forecast", name)
	}
	long, ok := r.LongTerm.Last()
	if !ok {
		return model.SeriesSummary{}, fmt.Errorf("summarize %s: no long-term forecast", name)
	}
	return model.SeriesSummary{
		Name:         name,
		CurrentPrice: last.Close,
		ShortTerm:    short.Yhat,
		LongTerm:     long.Yhat,
		Trend:        ClassifyTrend(last.Close, long.Yhat),
	}, nil
}

// Builder carries the fixed parts of every report.
type Builder struct {
	Title     string
	Currency  string
	ModelName string
	ShortTerm model.Horizon
	LongTerm  model.Horizon
	Now       func() time.Time
}

// Build summarizes every series in the given order.
func (b *Builder) Build(results []model.SeriesResult) (*model.Report, error) {
	now := time.Now
	if b.Now != nil {
		now = b.Now
	}
	rep := &model.Report{
		Title:         b.Title,
		GeneratedAt:   now(),
		Currency:      b.Currency,
		ModelName:     b.ModelName,
		ShortTermSpan: Span(b.ShortTerm),
		LongTermSpan:  Span(b.LongTerm),
		Series:        make([]model.SeriesSummary, 0, len(results)),
	}
	for _, r := range results {
		s, err := Summarize(r)
		if err != nil {
			return nil, err
		}
		rep.Series = append(rep.Series, s)
	}
	return rep, nil
}

// Write renders the report to path, creating parent directories.
func Write(path string, rep *model.Report) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create report dir: %w", err)
	}
	if err := os.WriteFile(path, []byte(Format(rep)), 0o644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}
