package daemon

import (
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// Scheduler runs a task on a cron schedule. It backs the per-controller
// activation schedules.
type Scheduler struct {
	log  *logrus.Logger
	task func() error

	schedule cron.Schedule

	mu      sync.Mutex
	nextRun time.Time
	running bool

	wakeCh chan struct{}
	stopCh chan struct{}
}

// NewScheduler parses the cron expression (standard 5-field syntax plus
// descriptors like @daily) and prepares a scheduler for the task.
func NewScheduler(cronExpr string, task func() error, log *logrus.Logger) (*Scheduler, error) {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	schedule, err := parser.Parse(cronExpr)
	if err != nil {
		return nil, err
	}

	return &Scheduler{
		log:      log,
		task:     task,
		schedule: schedule,
		nextRun:  schedule.Next(time.Now()),
		wakeCh:   make(chan struct{}, 1),
		stopCh:   make(chan struct{}),
	}, nil
}

// Start launches the scheduler goroutine. Starting twice is a no-op.
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return
	}
	s.running = true
	go s.run()
}

// Stop terminates the scheduler. A stopped scheduler cannot be
// restarted.
func (s *Scheduler) Stop() {
	select {
	case <-s.stopCh:
	default:
		close(s.stopCh)
	}
}

// Skip moves the next run one schedule step forward.
func (s *Scheduler) Skip() {
	s.mu.Lock()
	s.nextRun = s.schedule.Next(s.nextRun)
	s.mu.Unlock()
	s.wake()
}

// NextRun returns the next scheduled run time.
func (s *Scheduler) NextRun() (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.nextRun, !s.nextRun.IsZero()
}

func (s *Scheduler) wake() {
	select {
	case s.wakeCh <- struct{}{}:
	default:
	}
}

func (s *Scheduler) run() {
	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
	}()

	for {
		s.mu.Lock()
		next := s.nextRun
		s.mu.Unlock()

		wait := time.Until(next)
		if wait < 0 {
			wait = 0
		}
		timer := time.NewTimer(wait)

		select {
		case <-s.stopCh:
			timer.Stop()
			return
		case <-s.wakeCh:
			// Next run changed, recalculate the timer.
			timer.Stop()
			continue
		case <-timer.C:
		}

		s.log.WithField("at", next.Format(time.DateTime)).Debug("running scheduled task")
		if err := s.task(); err != nil {
			s.log.WithError(err).Error("scheduled task failed")
		}

		s.mu.Lock()
		s.nextRun = s.schedule.Next(next)
		s.mu.Unlock()
	}
}
