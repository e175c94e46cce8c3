package daemon

import (
	"fmt"
	"time"

	"github.com/go-co-op/gocron/v2"
)

// Scheduler wraps gocron for the periodic per-school scrape jobs.
type Scheduler struct {
	scheduler gocron.Scheduler
}

// NewScheduler creates a new scheduler instance.
func NewScheduler() (*Scheduler, error) {
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("create scheduler: %w", err)
	}
	return &Scheduler{scheduler: s}, nil
}

// ScheduleSchool registers a periodic job for one school. The first pass
// runs immediately after Start.
func (s *Scheduler) ScheduleSchool(slug string, interval time.Duration, task func()) error {
	_, err := s.scheduler.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(task),
		gocron.WithName(fmt.Sprintf("scrape-%s", slug)),
		gocron.WithStartAt(gocron.WithStartImmediately()),
	)
	if err != nil {
		return fmt.Errorf("schedule %s: %w", slug, err)
	}
	return nil
}

// Start begins executing jobs.
func (s *Scheduler) Start() {
	s.scheduler.Start()
}

// Clear removes all jobs, for config reload.
func (s *Scheduler) Clear() error {
	for _, job := range s.scheduler.Jobs() {
		if err := s.scheduler.RemoveJob(job.ID()); err != nil {
			return fmt.Errorf("remove job %s: %w", job.Name(), err)
		}
	}
	return nil
}

// Stop shuts the scheduler down, waiting for running jobs.
func (s *Scheduler) Stop() error {
	return s.scheduler.Shutdown()
}
