package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"sync"
	"time"

	"QuoteLedger/internal/config"
	"QuoteLedger/internal/job"
	"QuoteLedger/internal/model"

	"github.com/robfig/cron/v3"
)

// Runner is one scheduled unit of work.
type Runner interface {
	Run(ctx context.Context) (*model.QuoteRecord, error)
	Symbol() string
}

// Scheduler fires the capture job on a cron schedule.
type Scheduler struct {
	Cron    *cron.Cron
	Job     Runner
	Ctx     context.Context
	entryID cron.EntryID
	wg      sync.WaitGroup
}

// NewScheduler creates a new Scheduler. Overlapping firings are skipped and
// panics inside a firing are recovered and logged.
func NewScheduler(ctx context.Context, runner Runner) *Scheduler {
	logger := cron.PrintfLogger(log.New(os.Stderr, "[CRON] ", log.LstdFlags))
	return &Scheduler{
		Cron: cron.New(
			cron.WithSeconds(),
			cron.WithLogger(logger),
			cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
		),
		Job: runner,
		Ctx: ctx,
	}
}

// Register adds the capture job under the given schedule. It must succeed
// before Start; a job is never registered with a bad schedule.
func (s *Scheduler) Register(spec string) error {
	if s.Job == nil {
		return fmt.Errorf("register capture task: no job")
	}
	sched, err := config.ParseSchedule(spec)
	if err != nil {
		return fmt.Errorf("register capture task: parse %q: %w", spec, err)
	}
	s.entryID = s.Cron.Schedule(sched, cron.FuncJob(s.captureTask))
	log.Printf("[INFO] capture task registered: symbol=%s schedule=%q", s.Job.Symbol(), spec)
	return nil
}

// Next returns the next planned firing, or the zero time before Start.
func (s *Scheduler) Next() time.Time {
	return s.Cron.Entry(s.entryID).Next
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	log.Println("[INFO] scheduler started")
}

// Stop stops the scheduler and waits for running firings, including ones
// started by Trigger, to finish.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	s.wg.Wait()
	log.Println("[INFO] scheduler stopped")
}

// Trigger fires the registered entry once in the background (RUN_ON_START).
// It goes through the entry's chain, so it never overlaps a scheduled firing.
func (s *Scheduler) Trigger() error {
	entry := s.Cron.Entry(s.entryID)
	if !entry.Valid() {
		return fmt.Errorf("trigger capture task: not registered")
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		entry.WrappedJob.Run()
	}()
	return nil
}

// RunNow executes one firing synchronously on the caller's goroutine.
func (s *Scheduler) RunNow() error {
	_, err := s.Job.Run(s.Ctx)
	return err
}

func (s *Scheduler) captureTask() {
	log.Printf("[INFO] running capture task: symbol=%s", s.Job.Symbol())
	// The job logs its own outcome; the next firing is the only retry.
	if _, err := s.Job.Run(s.Ctx); errors.Is(err, job.ErrFiringInProgress) {
		log.Printf("[WARN] capture task skipped: symbol=%s previous firing still running", s.Job.Symbol())
	}
}
