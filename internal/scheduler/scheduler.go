package scheduler

import (
	"context"
	"fmt"
	"sync"

	"github.com/phuslu/log"
	"github.com/robfig/cron/v3"

	"IndexForecaster/internal/model"
)

// Runner is one pipeline pass.
type Runner interface {
	Run(ctx context.Context) (*model.Report, string, error)
}

// Scheduler re-runs the pipeline on a cron spec.
type Scheduler struct {
	Cron   *cron.Cron
	Runner Runner
	Ctx    context.Context

	mu      sync.Mutex
	running bool
	async   sync.WaitGroup
}

// NewScheduler creates a new Scheduler. Specs take a leading seconds field.
func NewScheduler(ctx context.Context, r Runner) *Scheduler {
	return &Scheduler{
		Cron:   cron.New(cron.WithSeconds()),
		Runner: r,
		Ctx:    ctx,
	}
}

// Register adds the forecast run under spec.
func (s *Scheduler) Register(spec string) error {
	if _, err := s.Cron.AddFunc(spec, s.RunNow); err != nil {
		return fmt.Errorf("register forecast task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	log.Info().Msg("scheduler started")
}

// Stop stops the cron scheduler and waits for a running pass to finish,
// including one started by RunAsync.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	s.async.Wait()
	log.Info().Msg("scheduler stopped")
}

// RunAsync starts one pass in the background. Stop waits for it.
func (s *Scheduler) RunAsync() {
	s.async.Add(1)
	go func() {
		defer s.async.Done()
		s.RunNow()
	}()
}

// RunNow executes one pass. A failing pass is logged and the scheduler keeps
// going; a pass that fires while another is running is skipped.
func (s *Scheduler) RunNow() {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		log.Warn().Msg("previous forecast run still in progress, skipping")
		return
	}
	s.running = true
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
	}()

	log.Info().Msg("running scheduled forecast")
	rep, path, err := s.Runner.Run(s.Ctx)
	if err != nil {
		log.Error().Err(err).Msg("scheduled forecast failed")
		return
	}
	log.Info().Str("report", path).Int("series", len(rep.Series)).Msg("scheduled forecast complete")
}
