// Package scheduler drives the recurring batch embedding runs. Fixed
// local-time slots replace a cron dependency: a full run at 02:00 and
// refresh runs at 06:00, 12:00 and 18:00.
package scheduler

import (
	"context"
	"log"
	"sort"
	"time"
)

// runHours are the daily batch slots, in ascending order.
var runHours = []int{2, 6, 12, 18}

// Job is the work the scheduler triggers.
type Job func(ctx context.Context)

// Scheduler fires a job at fixed hours of the day and on demand.
type Scheduler struct {
	job     Job
	now     func() time.Time
	trigger chan struct{}

	initialRun      bool
	initialRunDelay time.Duration
}

func New(job Job, initialRun bool, initialRunDelay time.Duration) *Scheduler {
	return &Scheduler{
		job:             job,
		now:             time.Now,
		trigger:         make(chan struct{}, 1),
		initialRun:      initialRun,
		initialRunDelay: initialRunDelay,
	}
}

// Trigger requests an on-demand run. Coalesces with a pending request.
func (s *Scheduler) Trigger() {
	select {
	case s.trigger <- struct{}{}:
	default:
	}
}

// Run blocks until the context ends, firing the job at every slot, at
// on-demand triggers, and optionally once shortly after startup.
func (s *Scheduler) Run(ctx context.Context) {
	if s.initialRun {
		log.Printf("🔄 Warm-up batch scheduled in %v", s.initialRunDelay)
		select {
		case <-time.After(s.initialRunDelay):
			s.job(ctx)
		case <-ctx.Done():
			return
		}
	}

	for {
		next := NextRun(s.now())
		timer := time.NewTimer(next.Sub(s.now()))
		log.Printf("Next scheduled batch at %s", next.Format("2006-01-02 15:04"))

		select {
		case <-timer.C:
			s.job(ctx)
		case <-s.trigger:
			timer.Stop()
			log.Printf("🔄 On-demand batch triggered")
			s.job(ctx)
		case <-ctx.Done():
			timer.Stop()
			return
		}
	}
}

// NextRun returns the earliest slot strictly after now, rolling over to
// the first slot of the next day when today's slots are exhausted.
func NextRun(now time.Time) time.Time {
	idx := sort.SearchInts(runHours, now.Hour()+1)
	day := now
	if idx == len(runHours) {
		idx = 0
		day = now.AddDate(0, 0, 1)
	}
	return time.Date(day.Year(), day.Month(), day.Day(), runHours[idx], 0, 0, 0, now.Location())
}
