// Package pipeline runs one complete pass: fetch, clean, forecast both
// horizons, write the report, then record and notify.
package pipeline

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/phuslu/log"

	"IndexForecaster/internal/calculator"
	"IndexForecaster/internal/cleaner"
	"IndexForecaster/internal/collector"
	"IndexForecaster/internal/forecaster"
	"IndexForecaster/internal/model"
	"IndexForecaster/internal/recorder"
	"IndexForecaster/internal/report"
)

// ReportFile is the name of the summary written under the output directory.
const ReportFile = "summary.txt"

// Notifier delivers the finished report text.
type Notifier interface {
	SendWithRetry(ctx context.Context, text string, maxRetries int) error
}

// Pipeline wires the stages together. Recorder and Notifier are optional.
type Pipeline struct {
	Specs      []model.SeriesSpec
	Collector  *collector.Collector
	Offline    bool
	Forecaster *forecaster.Forecaster
	Builder    *report.Builder
	ShortTerm  model.Horizon
	LongTerm   model.Horizon
	OutputDir  string
	Recorder   recorder.Recorder
	Notifier   Notifier
}

// ReportPath is <output_dir>/summary.txt.
func (p *Pipeline) ReportPath() string {
	return filepath.Join(p.OutputDir, ReportFile)
}

// Run executes the stages strictly in order. Any failure up to and including
// the report write aborts the run; recording and delivery failures are logged.
func (p *Pipeline) Run(ctx context.Context) (*model.Report, string, error) {
	started := time.Now()

	raws, err := p.acquire(ctx)
	if err != nil {
		return nil, "", err
	}

	results := make([]model.SeriesResult, 0, len(raws))
	for _, raw := range raws {
		cs, stats, err := cleaner.Clean(raw.Spec.Name, raw.Frame)
		if err != nil {
			return nil, "", err
		}
		log.Debug().Str("series", raw.Spec.Name).Int("input", stats.Input).Int("dropped", stats.Dropped()).Msg("cleaned")
		results = append(results, model.SeriesResult{Spec: raw.Spec, RawPath: raw.Path, Cleaned: cs})
	}

	for i := range results {
		fc, err := p.Forecaster.Forecast(ctx, results[i].Spec, results[i].Cleaned, p.ShortTerm)
		if err != nil {
			return nil, "", err
		}
		results[i].ShortTerm = fc
	}
	for i := range results {
		fc, err := p.Forecaster.Forecast(ctx, results[i].Spec, results[i].Cleaned, p.LongTerm)
		if err != nil {
			return nil, "", err
		}
		results[i].LongTerm = fc
	}

	rep, err := p.Builder.Build(results)
	if err != nil {
		return nil, "", fmt.Errorf("build report: %w", err)
	}
	path := p.ReportPath()
	if err := report.Write(path, rep); err != nil {
		return nil, "", err
	}
	log.Info().Str("path", path).Int("series", len(rep.Series)).Msg("report written")
	fmt.Printf("\nReport saved to: %s\n", path)
	fmt.Println("All tasks complete! Check the outputs folder for forecast plots and summary report.")

	p.record(started, path, rep, results)
	p.notify(ctx, rep)
	return rep, path, nil
}

func (p *Pipeline) acquire(ctx context.Context) ([]collector.RawSeries, error) {
	if p.Offline {
		return p.Collector.Load(p.Specs)
	}
	return p.Collector.Collect(ctx, p.Specs)
}

func (p *Pipeline) record(started time.Time, path string, rep *model.Report, results []model.SeriesResult) {
	if p.Recorder == nil {
		return
	}
	run := &recorder.RunRecord{
		ID:         uuid.New(),
		StartedAt:  started,
		FinishedAt: time.Now(),
		Provider:   p.Collector.Fetcher.Name(),
		ReportPath: path,
	}
	if p.Offline {
		run.Provider = "offline"
	}
	for i, r := range results {
		run.Series = append(run.Series, seriesRecord(rep.Series[i], r))
	}
	id, err := p.Recorder.RecordRun(run)
	if err != nil {
		log.Error().Err(err).Msg("record run")
		return
	}
	log.Info().Int64("run_id", id).Str("run_uuid", run.ID.String()).Msg("run recorded")
}

// seriesRecord adds the price context columns. Indicators that need more
// history than the series has are left at zero.
func seriesRecord(s model.SeriesSummary, r model.SeriesResult) recorder.SeriesRecord {
	rec := recorder.SeriesRecord{
		Summary:      s,
		Observations: r.Cleaned.Len(),
		ShortChart:   r.ShortTerm.ChartPath,
		LongChart:    r.LongTerm.ChartPath,
	}
	obs := r.Cleaned.Observations
	if len(obs) > 0 {
		rec.FirstDate = obs[0].Date
		rec.LastDate = obs[len(obs)-1].Date
	}
	if v, err := calculator.CalculateMA200(obs); err == nil {
		rec.MA200 = v
	}
	if hi, lo, err := calculator.Calculate52WeekRange(obs); err == nil {
		rec.High52w, rec.Low52w = hi, lo
		if pos, err := calculator.Calculate52WeekPosition(s.CurrentPrice, hi, lo); err == nil {
			rec.Position52w = pos
		}
	}
	if v, err := calculator.CalculateRSI(obs, 14); err == nil {
		rec.DailyRSI = v
	}
	return rec
}

func (p *Pipeline) notify(ctx context.Context, rep *model.Report) {
	if p.Notifier == nil {
		return
	}
	if err := p.Notifier.SendWithRetry(ctx, report.Format(rep), 3); err != nil {
		log.Error().Err(err).Msg("send report")
	}
}
