package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/climash/dashboard/internal/weather"
)

// Runner builds a dashboard for a coordinate.
type Runner interface {
	Run(ctx context.Context, latitude, longitude float64) (*weather.Dashboard, error)
}

// Scheduler periodically runs the pipeline for watched locations and logs
// the current conditions. Results are not kept.
type Scheduler struct {
	scheduler *gocron.Scheduler
	runner    Runner
	locations []weather.Location
	interval  time.Duration
	logger    *slog.Logger
}

// New creates a new Scheduler.
func New(locations []weather.Location, interval time.Duration, runner Runner, logger *slog.Logger) *Scheduler {
	s := gocron.NewScheduler(time.UTC)
	return &Scheduler{
		scheduler: s,
		runner:    runner,
		locations: locations,
		interval:  interval,
		logger:    logger,
	}
}

// Start schedules the periodic job and starts the underlying scheduler.
func (s *Scheduler) Start() error {
	if len(s.locations) == 0 {
		s.logger.Info("scheduler: no watch locations configured; nothing to schedule")
		return nil
	}

	minutes := int(s.interval.Minutes())
	if minutes <= 0 {
		minutes = 15
	}

	_, err := s.scheduler.Every(minutes).Minutes().Do(func() {
		s.RunOnce(context.Background())
	})
	if err != nil {
		return err
	}

	s.scheduler.StartAsync()
	return nil
}

// RunOnce runs the pipeline for every watched location concurrently and
// returns the number of successful runs.
func (s *Scheduler) RunOnce(parent context.Context) int {
	s.logger.Debug("scheduler: running watch job", "locations", len(s.locations))

	var (
		wg sync.WaitGroup
		mu sync.Mutex
		ok int
	)
	for _, loc := range s.locations {
		wg.Add(1)
		go func(loc weather.Location) {
			defer wg.Done()

			ctx, cancel := context.WithTimeout(parent, 30*time.Second)
			defer cancel()

			dash, err := s.runner.Run(ctx, loc.Latitude, loc.Longitude)
			if err != nil {
				s.logger.Warn("scheduler: watch failed", "location", loc.Name, "error", err)
				return
			}

			s.logger.Info("scheduler: current conditions",
				"location", loc.Name,
				"temperature", dash.Current.Temperature,
				"condition", dash.Current.Condition,
				"humidity", dash.Current.Humidity)

			mu.Lock()
			ok++
			mu.Unlock()
		}(loc)
	}
	wg.Wait()

	s.logger.Debug("scheduler: completed watch job", "succeeded", ok)
	return ok
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}
