package model

import (
	"strings"
	"time"
)

// OHLCV represents a single candlestick bar.
type OHLCV struct {
	Time   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// SeriesSpec pairs a human-readable series name with its retrieval symbol.
type SeriesSpec struct {
	Name   string `yaml:"name" toml:"name"`
	Symbol string `yaml:"symbol" toml:"symbol"`
}

// FileStem is the name used for every file persisted for the series.
func (s SeriesSpec) FileStem() string {
	return strings.ReplaceAll(s.Name, " ", "_")
}

// Observation is one cleaned (date, closing price) row.
type Observation struct {
	Date  time.Time
	Close float64
}

// CleanedSeries holds observations sorted by date with valid dates and finite prices only.
type CleanedSeries struct {
	Name          string
	Observations  []Observation
	SourceColumns []string // columns of the table it was cleaned from
}

// Len returns the number of observations.
func (c *CleanedSeries) Len() int { return len(c.Observations) }

// Last returns the most recent observation.
func (c *CleanedSeries) Last() (Observation, bool) {
	if len(c.Observations) == 0 {
		return Observation{}, false
	}
	return c.Observations[len(c.Observations)-1], true
}
