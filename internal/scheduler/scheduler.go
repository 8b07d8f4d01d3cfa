package scheduler

import (
	"log"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/kavinm/tn-district-weather/internal/runner"
)

// Scheduler periodically checks snapshot freshness and triggers the
// fetch job when it has gone stale.
type Scheduler struct {
	scheduler *gocron.Scheduler
	runner    *runner.Runner
	interval  time.Duration
}

// New creates a Scheduler that checks every interval.
func New(r *runner.Runner, interval time.Duration) *Scheduler {
	return &Scheduler{
		scheduler: gocron.NewScheduler(time.UTC),
		runner:    r,
		interval:  interval,
	}
}

// Start schedules the freshness check and starts the underlying
// scheduler.
func (s *Scheduler) Start() error {
	minutes := int(s.interval.Minutes())
	if minutes <= 0 {
		minutes = 10
	}

	_, err := s.scheduler.Every(minutes).Minutes().Do(func() {
		s.runner.ObserveSnapshot()

		if !s.runner.Stale() {
			return
		}
		log.Println("scheduler: snapshot stale; triggering refresh")
		if !s.runner.TriggerAsync("schedule") {
			log.Println("scheduler: refresh already in flight; skipping")
		}
	})
	if err != nil {
		return err
	}

	s.scheduler.StartAsync()
	return nil
}

// Stop stops the scheduler and cancels any future checks.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}
