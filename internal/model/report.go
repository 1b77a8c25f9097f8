package model

import "time"

// Trend classifies the long-term outlook against the current price.
type Trend string

const (
	TrendBullish Trend = "Bullish"
	TrendBearish Trend = "Bearish"
)

// SeriesResult carries one series through the pipeline.
type SeriesResult struct {
	Spec      SeriesSpec
	RawPath   string
	Cleaned   *CleanedSeries
	ShortTerm *Forecast
	LongTerm  *Forecast
}

// SeriesSummary is the per-series block of the report.
type SeriesSummary struct {
	Name         string
	CurrentPrice float64
	ShortTerm    float64
	LongTerm     float64
	Trend        Trend
}

// Report is the aggregate summary written once per run.
type Report struct {
	Title         string
	GeneratedAt   time.Time
	Currency      string
	ModelName     string
	ShortTermSpan string // e.g. "3M"
	LongTermSpan  string // e.g. "3Y"
	Series        []SeriesSummary
}
