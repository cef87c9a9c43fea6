// Package scheduler runs the check cycle on a cron schedule, never letting
// two runs overlap.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"apartment-watcher/models"
	"apartment-watcher/utils"
)

// Scheduler fires a job on a standard five-field cron expression.
type Scheduler struct {
	cron     *cron.Cron
	schedule cron.Schedule
	spec     string
	run      func(ctx context.Context)
	job      cron.Job
	logger   *utils.Logger

	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	stopped bool
	running sync.WaitGroup
}

// ParseSchedule parses a five-field cron expression.
func ParseSchedule(spec string) (cron.Schedule, error) {
	schedule, err := cron.ParseStandard(spec)
	if err != nil {
		return nil, fmt.Errorf("scheduler: invalid cron expression %q: %w", spec, err)
	}
	return schedule, nil
}

// New creates a Scheduler evaluating spec in loc. run receives a context that
// is cancelled by Stop.
func New(spec string, loc *time.Location, run func(ctx context.Context), logger *utils.Logger) (*Scheduler, error) {
	schedule, err := ParseSchedule(spec)
	if err != nil {
		return nil, err
	}
	if loc == nil {
		loc = time.Local
	}

	cl := cronLogger{logger: logger}
	s := &Scheduler{
		cron:     cron.New(cron.WithLocation(loc), cron.WithLogger(cl)),
		schedule: schedule,
		spec:     spec,
		run:      run,
		logger:   logger,
	}
	s.ctx, s.cancel = context.WithCancel(context.Background())

	// One wrapped job serves both the immediate and the scheduled runs so
	// SkipIfStillRunning sees all of them.
	s.job = cron.NewChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)).
		Then(cron.FuncJob(s.runTracked))
	s.cron.Schedule(schedule, s.job)

	return s, nil
}

// Start begins firing on schedule. With runNow the job also starts at once
// in the background.
func (s *Scheduler) Start(runNow bool) {
	s.cron.Start()
	s.logger.Log(models.LevelInfo, fmt.Sprintf("Cron configured with %q", s.spec), utils.Fields{
		"schedule": s.spec,
		"nextRun":  s.Next(time.Now()),
	})
	if runNow {
		go s.Trigger()
	}
}

// Trigger runs the job synchronously, unless a run is already in progress.
func (s *Scheduler) Trigger() {
	s.job.Run()
}

func (s *Scheduler) runTracked() {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.running.Add(1)
	s.mu.Unlock()
	defer s.running.Done()

	s.run(s.ctx)
}

// Next returns the first fire time after t.
func (s *Scheduler) Next(t time.Time) time.Time {
	return s.schedule.Next(t.In(s.cron.Location()))
}

// Stop halts the schedule, cancels the running job's context and waits for
// it to return or for ctx to expire.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.cron.Stop()
	s.mu.Lock()
	s.stopped = true
	s.mu.Unlock()
	s.cancel()

	done := make(chan struct{})
	go func() {
		s.running.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("scheduler: waiting for running cycle: %w", ctx.Err())
	}
}

// cronLogger adapts utils.Logger to cron.Logger.
type cronLogger struct {
	logger *utils.Logger
}

func (c cronLogger) Info(msg string, keysAndValues ...any) {
	if msg == "skip" {
		c.logger.Warn("[scheduler] Previous cycle still running, skipping this run")
		return
	}
	c.logger.Debug("[scheduler] %s %v", msg, keysAndValues)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...any) {
	fields := utils.Fields{"error": fmt.Sprint(err)}
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		fields[fmt.Sprint(keysAndValues[i])] = fmt.Sprint(keysAndValues[i+1])
	}
	c.logger.Log(models.LevelError, "Scheduler: "+msg, fields)
}
