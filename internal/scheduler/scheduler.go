package scheduler

import (
	"context"
	"log"
	"time"

	"github.com/robfig/cron/v3"
)

// Scheduler runs the feedback job on a cron schedule. A run that is still
// in progress when the next tick fires causes that tick to be skipped.
type Scheduler struct {
	cron   *cron.Cron
	spec   string
	ctx    context.Context
	cancel context.CancelFunc
	job    func(ctx context.Context) error
}

// New creates a scheduler for the given cron expression (UTC).
func New(spec string) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())

	return &Scheduler{
		cron: cron.New(
			cron.WithLocation(time.UTC),
			cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger)),
		),
		spec:   spec,
		ctx:    ctx,
		cancel: cancel,
	}
}

// SetJob sets the function run on every tick.
func (s *Scheduler) SetJob(f func(ctx context.Context) error) {
	s.job = f
}

// Start registers the job and starts the cron loop.
func (s *Scheduler) Start() error {
	if s.job == nil {
		log.Println("⚠️ Job not set, scheduler will not run feedback loops")
		return nil
	}

	_, err := s.cron.AddFunc(s.spec, s.run)
	if err != nil {
		return err
	}

	s.cron.Start()
	log.Printf("📅 Scheduler started - feedback loop runs on %q (UTC)", s.spec)
	return nil
}

func (s *Scheduler) run() {
	log.Println("🕘 Triggered feedback loop run")
	if err := s.job(s.ctx); err != nil {
		log.Printf("❌ Scheduled feedback loop failed: %v", err)
	}
}

// Stop waits for a running job and cancels its context.
func (s *Scheduler) Stop() {
	if s.cron != nil {
		ctx := s.cron.Stop()
		s.cancel()
		<-ctx.Done()
	}
	log.Println("📅 Scheduler stopped")
}
