// Package cleaner turns a raw downloaded table into a CleanedSeries of
// (Date, Close) observations.
package cleaner

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/phuslu/log"

	"IndexForecaster/internal/model"
	"IndexForecaster/internal/table"
)

// Stats counts what cleaning removed.
type Stats struct {
	Input         int
	BadDate       int
	BadPrice      int
	DuplicateDate int
}

// Dropped is the total number of rows removed.
func (s Stats) Dropped() int { return s.BadDate + s.BadPrice + s.DuplicateDate }

var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04:05-07:00",
	time.RFC3339,
	"2006/01/02",
}

// ParseDate parses the date formats found in downloaded tables and keeps
// only the calendar date.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), true
		}
	}
	return time.Time{}, false
}

// ParsePrice parses a finite number. Empty, NaN and infinite cells are rejected.
func ParsePrice(s string) (float64, bool) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// Clean flattens headers, resolves the Date and Close columns, drops rows
// whose date or price does not parse, drops repeated dates (first wins) and
// sorts by date. An empty result is not an error here; the forecaster
// rejects it with the series name.
func Clean(name string, f *table.Frame) (*model.CleanedSeries, Stats, error) {
	log.Debug().Str("series", name).Strs("columns", f.ColumnNames()).Bool("multi_level", f.MultiLevel()).Msg("original columns")

	dateCol, err := ResolveDate(f)
	if err != nil {
		return nil, Stats{}, fmt.Errorf("clean %s: %w", name, err)
	}
	priceCol, err := ResolvePrice(f)
	if err != nil {
		return nil, Stats{}, fmt.Errorf("clean %s: %w", name, err)
	}

	stats := Stats{Input: f.Len()}
	seen := make(map[time.Time]bool, f.Len())
	obs := make([]model.Observation, 0, f.Len())
	for i := 0; i < f.Len(); i++ {
		rawDate := f.Index[i]
		if dateCol != IndexPosition {
			rawDate = f.Cell(i, dateCol)
		}
		d, ok := ParseDate(rawDate)
		if !ok {
			stats.BadDate++
			continue
		}
		price, ok := ParsePrice(f.Cell(i, priceCol))
		if !ok {
			stats.BadPrice++
			continue
		}
		if seen[d] {
			stats.DuplicateDate++
			continue
		}
		seen[d] = true
		obs = append(obs, model.Observation{Date: d, Close: price})
	}
	sort.SliceStable(obs, func(i, j int) bool { return obs[i].Date.Before(obs[j].Date) })

	cs := &model.CleanedSeries{Name: name, Observations: obs, SourceColumns: f.ColumnNames()}
	if stats.Dropped() > 0 {
		log.Warn().Str("series", name).Int("bad_date", stats.BadDate).Int("bad_price", stats.BadPrice).
			Int("duplicate_date", stats.DuplicateDate).Msg("rows dropped during cleaning")
	}
	log.Info().Str("series", name).Int("records", cs.Len()).Msg("cleaned")
	fmt.Printf("%s: %d records cleaned.\n", name, cs.Len())
	logHead(cs)
	return cs, stats, nil
}

func logHead(cs *model.CleanedSeries) {
	for i, o := range cs.Observations {
		if i == 5 {
			break
		}
		log.Debug().Str("series", cs.Name).Str("date", o.Date.Format("2006-01-02")).Float64("close", o.Close).Msg("head")
	}
}

// ToFrame renders a cleaned series as a flat {Date, Close} table.
func ToFrame(cs *model.CleanedSeries) *table.Frame {
	f := table.NewFrame("Date", table.Column{"Close"})
	for _, o := range cs.Observations {
		_ = f.Append(o.Date.Format("2006-01-02"), strconv.FormatFloat(o.Close, 'f', -1, 64))
	}
	return f
}
