package cron

import (
	"fmt"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/Wal-20/studysphere-cli/internal/logger"
)

// Job is one periodic task. Run is called on the scheduler's goroutine.
type Job struct {
	Name  string
	Every time.Duration
	Run   func() error
	// Delay skips the immediate first run.
	Delay bool
}

// Scheduler wraps gocron so callers only deal with Jobs.
type Scheduler struct {
	s *gocron.Scheduler
}

// StartCronJobs schedules every job and starts the scheduler in the
// background. Overlapping runs of the same job are skipped.
func StartCronJobs(jobs ...Job) (*Scheduler, error) {
	s := gocron.NewScheduler(time.Local)
	for _, job := range jobs {
		if job.Every <= 0 {
			return nil, fmt.Errorf("job %q: interval must be positive", job.Name)
		}
		b := s.Every(job.Every).Tag(job.Name).SingletonMode()
		if job.Delay {
			b = b.WaitForSchedule()
		}
		if _, err := b.Do(runJob, job); err != nil {
			return nil, fmt.Errorf("schedule %q: %w", job.Name, err)
		}
	}
	s.StartAsync()
	return &Scheduler{s: s}, nil
}

func runJob(job Job) {
	defer logger.DeferLogDuration(job.Name, time.Now())()
	if err := job.Run(); err != nil {
		logger.Errorf("job %s failed: %v", job.Name, err)
	}
}

func (s *Scheduler) Stop() {
	if s != nil && s.s != nil {
		s.s.Stop()
	}
}
