// Package scheduler runs periodic maintenance: expiring AI caches and
// pruning the LLM request log.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/sertugser/assessai/internal/config"
	"github.com/sertugser/assessai/internal/logger"
)

// Sweeper removes expired cache entries.
type Sweeper interface {
	Sweep(ctx context.Context) (int, error)
}

// Pruner deletes LLM request events older than a cutoff.
type Pruner interface {
	PruneLLMEvents(ctx context.Context, before time.Time) (int64, error)
}

// jobTimeout bounds a single maintenance run.
const jobTimeout = 2 * time.Minute

// Scheduler manages scheduled tasks.
type Scheduler struct {
	scheduler *gocron.Scheduler
	cfg       config.SchedulerConfig
	sweeper   Sweeper
	pruner    Pruner
	log       *logger.Logger
	now       func() time.Time
}

// New creates a scheduler. Either job is skipped when its dependency is nil
// or its interval is not positive.
func New(cfg config.SchedulerConfig, sweeper Sweeper, pruner Pruner, log *logger.Logger) *Scheduler {
	if log == nil {
		log = logger.Nop()
	}
	return &Scheduler{
		scheduler: gocron.NewScheduler(time.UTC),
		cfg:       cfg,
		sweeper:   sweeper,
		pruner:    pruner,
		log:       log.With("component", "scheduler"),
		now:       time.Now,
	}
}

// Start registers the jobs and runs them in the background.
func (s *Scheduler) Start() error {
	if s.sweeper != nil && s.cfg.CacheSweepInterval > 0 {
		_, err := s.scheduler.Every(s.cfg.CacheSweepInterval).SingletonMode().Tag("cache-sweep").Do(s.runSweep)
		if err != nil {
			return fmt.Errorf("schedule cache sweep: %w", err)
		}
	}
	if s.pruner != nil && s.cfg.LLMEventRetention > 0 {
		_, err := s.scheduler.Every(1).Day().At("03:30").SingletonMode().Tag("llm-prune").Do(s.runPrune)
		if err != nil {
			return fmt.Errorf("schedule llm prune: %w", err)
		}
	}
	s.scheduler.StartAsync()
	s.log.Info("scheduler started", "jobs", len(s.scheduler.Jobs()))
	return nil
}

// Stop terminates all scheduled tasks.
func (s *Scheduler) Stop() {
	s.scheduler.Stop()
}

// RunOnce runs every configured job synchronously.
func (s *Scheduler) RunOnce(ctx context.Context) (swept int, pruned int64, err error) {
	if s.sweeper != nil {
		if swept, err = s.sweeper.Sweep(ctx); err != nil {
			return swept, 0, fmt.Errorf("sweep caches: %w", err)
		}
	}
	if s.pruner != nil && s.cfg.LLMEventRetention > 0 {
		if pruned, err = s.pruner.PruneLLMEvents(ctx, s.now().Add(-s.cfg.LLMEventRetention)); err != nil {
			return swept, pruned, fmt.Errorf("prune llm events: %w", err)
		}
	}
	return swept, pruned, nil
}

func (s *Scheduler) runSweep() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	n, err := s.sweeper.Sweep(ctx)
	if err != nil {
		s.log.Warn("cache sweep failed", "error", err)
		return
	}
	if n > 0 {
		s.log.Info("expired AI caches removed", "count", n)
	}
}

func (s *Scheduler) runPrune() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	cutoff := s.now().Add(-s.cfg.LLMEventRetention)
	n, err := s.pruner.PruneLLMEvents(ctx, cutoff)
	if err != nil {
		s.log.Warn("llm event prune failed", "error", err)
		return
	}
	s.log.Info("llm events pruned", "count", n, "before", cutoff.Format(time.RFC3339))
}
