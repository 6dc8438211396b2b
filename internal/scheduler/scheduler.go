package scheduler

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"
)

// ScheduleTime represents a specific time of day when the sweep evaluators
// should run.
type ScheduleTime struct {
	Hour   int
	Minute int
}

// String returns the time in HH:MM format.
func (st ScheduleTime) String() string {
	return fmt.Sprintf("%02d:%02d", st.Hour, st.Minute)
}

// ParseScheduleTime parses a time string in HH:MM format.
func ParseScheduleTime(s string) (ScheduleTime, error) {
	var hour, minute int
	_, err := fmt.Sscanf(s, "%d:%d", &hour, &minute)
	if err != nil {
		return ScheduleTime{}, fmt.Errorf("invalid time format (expected HH:MM): %w", err)
	}

	if hour < 0 || hour > 23 {
		return ScheduleTime{}, fmt.Errorf("invalid hour: %d (must be 0-23)", hour)
	}
	if minute < 0 || minute > 59 {
		return ScheduleTime{}, fmt.Errorf("invalid minute: %d (must be 0-59)", minute)
	}

	return ScheduleTime{Hour: hour, Minute: minute}, nil
}

// Scheduler drives the rule engine on a wall clock. At each configured
// sweep time it enqueues the all-user evaluators; every minute it enqueues
// per-user daily summary jobs for users whose preferred delivery time
// matches the current minute.
type Scheduler struct {
	workerPool      *WorkerPool
	scheduleTimes   []ScheduleTime
	runOnStartup    bool
	sweepProvider   func(context.Context) ([]Job, error)
	summaryProvider func(ctx context.Context, hhmm string) ([]Job, error)

	ctx         context.Context
	cancel      context.CancelFunc
	wg          sync.WaitGroup
	lastRunKey  string
	lastSummary string
	mu          sync.Mutex
}

// Config holds configuration for the scheduler.
type Config struct {
	ScheduleTimes []string
	WorkerCount   int
	JobDelay      time.Duration
	QueueSize     int
	RunOnStartup  bool

	// SweepProvider returns the all-user evaluator jobs for a sweep.
	SweepProvider func(context.Context) ([]Job, error)

	// SummaryProvider returns per-user daily summary jobs for users whose
	// configured delivery time equals hhmm ("15:04"). May be nil.
	SummaryProvider func(ctx context.Context, hhmm string) ([]Job, error)
}

// New creates a scheduler from the given configuration.
func New(config Config) (*Scheduler, error) {
	scheduleTimes := make([]ScheduleTime, 0, len(config.ScheduleTimes))
	for _, timeStr := range config.ScheduleTimes {
		st, err := ParseScheduleTime(timeStr)
		if err != nil {
			return nil, fmt.Errorf("failed to parse schedule time %q: %w", timeStr, err)
		}
		scheduleTimes = append(scheduleTimes, st)
	}

	if len(scheduleTimes) == 0 {
		return nil, fmt.Errorf("at least one schedule time is required")
	}

	workerPool := NewWorkerPool(config.WorkerCount, config.JobDelay, config.QueueSize)
	ctx, cancel := context.WithCancel(context.Background())

	log.Printf("Scheduler initialized with %d sweep times: %v", len(scheduleTimes), config.ScheduleTimes)
	log.Printf("Worker pool: %d workers, %v delay between jobs", config.WorkerCount, config.JobDelay)

	return &Scheduler{
		workerPool:      workerPool,
		scheduleTimes:   scheduleTimes,
		runOnStartup:    config.RunOnStartup,
		sweepProvider:   config.SweepProvider,
		summaryProvider: config.SummaryProvider,
		ctx:             ctx,
		cancel:          cancel,
	}, nil
}

// Start launches the scheduler and worker pool.
func (s *Scheduler) Start() {
	log.Println("Starting scheduler...")

	s.workerPool.Start()

	if s.runOnStartup {
		log.Println("Scheduler: Running initial sweep on startup")
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.runSweep()
		}()
	}

	s.wg.Add(1)
	go s.scheduleLoop()

	log.Println("Scheduler started")
}

func (s *Scheduler) scheduleLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(1 * time.Minute)
	defer ticker.Stop()

	log.Println("Scheduler loop started, checking every minute")

	for {
		select {
		case <-s.ctx.Done():
			log.Println("Scheduler loop: Context cancelled, shutting down")
			return

		case now := <-ticker.C:
			if s.shouldSweep(now) {
				log.Printf("Scheduler: Sweep triggered at %s", now.Format("15:04"))
				s.runSweep()
			}
			s.runSummaries(now)
		}
	}
}

// shouldSweep checks whether now matches a sweep time not yet run this
// minute. The key guards against a ticker firing twice inside one minute.
func (s *Scheduler) shouldSweep(now time.Time) bool {
	currentKey := now.Format("2006-01-02-15:04")

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.lastRunKey == currentKey {
		return false
	}

	for _, st := range s.scheduleTimes {
		if now.Hour() == st.Hour && now.Minute() == st.Minute {
			s.lastRunKey = currentKey
			return true
		}
	}

	return false
}

func (s *Scheduler) runSweep() {
	if s.sweepProvider == nil {
		log.Println("Scheduler: No sweep provider configured")
		return
	}

	ctx, cancel := context.WithTimeout(s.ctx, 5*time.Minute)
	defer cancel()

	jobs, err := s.sweepProvider(ctx)
	if err != nil {
		log.Printf("Scheduler: Failed to build sweep jobs: %v", err)
		return
	}

	if len(jobs) == 0 {
		log.Println("Scheduler: No sweep jobs to process")
		return
	}

	log.Printf("Scheduler: Submitting %d sweep jobs to worker pool", len(jobs))
	s.workerPool.SubmitBatch(jobs)
}

// runSummaries enqueues daily summary jobs for users whose delivery time
// matches the current minute.
func (s *Scheduler) runSummaries(now time.Time) {
	if s.summaryProvider == nil {
		return
	}

	hhmm := now.Format("15:04")

	s.mu.Lock()
	if s.lastSummary == hhmm {
		s.mu.Unlock()
		return
	}
	s.lastSummary = hhmm
	s.mu.Unlock()

	ctx, cancel := context.WithTimeout(s.ctx, 5*time.Minute)
	defer cancel()

	jobs, err := s.summaryProvider(ctx, hhmm)
	if err != nil {
		log.Printf("Scheduler: Failed to build summary jobs for %s: %v", hhmm, err)
		return
	}
	if len(jobs) == 0 {
		return
	}

	log.Printf("Scheduler: Submitting %d daily summary jobs for %s", len(jobs), hhmm)
	s.workerPool.SubmitBatch(jobs)
}

// Shutdown gracefully stops the scheduler and worker pool.
func (s *Scheduler) Shutdown(timeout time.Duration) {
	log.Println("Scheduler: Initiating graceful shutdown...")

	s.cancel()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		log.Println("Scheduler: Scheduler loop stopped gracefully")
	case <-time.After(timeout):
		log.Println("Scheduler: Timeout waiting for scheduler loop to stop")
	}

	s.workerPool.ShutdownWithTimeout(timeout)

	log.Println("Scheduler: Shutdown complete")
}

// TriggerNow manually triggers a sweep immediately.
func (s *Scheduler) TriggerNow() {
	log.Println("Scheduler: Manual trigger")
	go s.runSweep()
}

// NextScheduledTime returns the next sweep run time.
func (s *Scheduler) NextScheduledTime() time.Time {
	now := time.Now()

	for _, st := range s.scheduleTimes {
		scheduled := time.Date(now.Year(), now.Month(), now.Day(), st.Hour, st.Minute, 0, 0, now.Location())
		if scheduled.After(now) {
			return scheduled
		}
	}

	st := s.scheduleTimes[0]
	tomorrow := now.AddDate(0, 0, 1)
	return time.Date(tomorrow.Year(), tomorrow.Month(), tomorrow.Day(), st.Hour, st.Minute, 0, 0, now.Location())
}
