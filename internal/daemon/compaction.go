package daemon

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron/v2"

	"git.home.luguber.info/inful/chronicle/internal/logfields"
)

// Compactable is the slice of the series API the scheduler needs.
type Compactable interface {
	Compact(ctx context.Context) error
	Len() int
}

// CompactionScheduler runs journal compaction on a fixed interval.
type CompactionScheduler struct {
	scheduler gocron.Scheduler
	dataset   Compactable
	interval  time.Duration
	logger    *slog.Logger
}

// NewCompactionScheduler creates the scheduler without starting it.
func NewCompactionScheduler(dataset Compactable, interval time.Duration, logger *slog.Logger) (*CompactionScheduler, error) {
	if logger == nil {
		logger = slog.Default()
	}

	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create gocron scheduler: %w", err)
	}

	cs := &CompactionScheduler{
		scheduler: s,
		dataset:   dataset,
		interval:  interval,
		logger:    logger,
	}

	_, err = s.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(cs.runCompaction),
		gocron.WithName("journal-compaction"),
	)
	if err != nil {
		_ = s.Shutdown()
		return nil, fmt.Errorf("failed to create compaction job: %w", err)
	}

	return cs, nil
}

// Start begins the scheduler.
func (cs *CompactionScheduler) Start() {
	cs.logger.Info("starting compaction scheduler", slog.Duration("interval", cs.interval))
	cs.scheduler.Start()
}

// Stop gracefully shuts down the scheduler.
func (cs *CompactionScheduler) Stop() error {
	cs.logger.Info("stopping compaction scheduler")
	return cs.scheduler.Shutdown()
}

// runCompaction is called by gocron on each tick.
func (cs *CompactionScheduler) runCompaction() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	start := time.Now()
	if err := cs.dataset.Compact(ctx); err != nil {
		cs.logger.Error("scheduled compaction failed", logfields.Error(err))
		return
	}

	cs.logger.Info("scheduled compaction complete",
		logfields.Count(cs.dataset.Len()),
		logfields.DurationMS(float64(time.Since(start).Milliseconds())))
}
