// Package daemon wires a dataset, its HTTP API, scheduled compaction, and
// change event publishing into a long-running service.
package daemon

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	prom "github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/chronicle/internal/config"
	"git.home.luguber.info/inful/chronicle/internal/events"
	"git.home.luguber.info/inful/chronicle/internal/journal"
	"git.home.luguber.info/inful/chronicle/internal/logfields"
	"git.home.luguber.info/inful/chronicle/internal/metrics"
	"git.home.luguber.info/inful/chronicle/internal/record"
	"git.home.luguber.info/inful/chronicle/internal/series"
	"git.home.luguber.info/inful/chronicle/internal/series/indexing"
	"git.home.luguber.info/inful/chronicle/internal/server"
)

// Daemon owns the dataset and every background collaborator around it.
type Daemon struct {
	cfg       *config.Config
	dataset   *series.Series[record.Dynamic]
	publisher events.Publisher
	server    *server.Server
	scheduler *CompactionScheduler
	watcher   *JournalWatcher
	logger    *slog.Logger
}

// New opens the configured dataset and assembles the daemon. The caller owns
// shutdown via Run's context.
func New(cfg *config.Config, logger *slog.Logger) (*Daemon, error) {
	if logger == nil {
		logger = slog.Default()
	}

	j, err := openJournal(cfg.Dataset)
	if err != nil {
		return nil, err
	}

	recorder := metrics.Recorder(metrics.NoopRecorder{})
	var registry *prom.Registry
	if cfg.Server.Metrics {
		registry = prom.NewRegistry()
		recorder = metrics.NewPrometheusRecorder(registry)
	}

	dataset, err := series.Open[record.Dynamic](context.Background(), j,
		series.WithIndexer(indexerFor(cfg.Dataset)),
		series.WithRecorder(recorder))
	if err != nil {
		_ = j.Close()
		return nil, fmt.Errorf("open dataset: %w", err)
	}

	publisher := events.Publisher(events.NoopPublisher{})
	if cfg.Events.Enabled {
		publisher, err = events.NewNATSPublisher(cfg.Events.NATSURL, cfg.Events.Subject)
		if err != nil {
			_ = dataset.Close()
			return nil, fmt.Errorf("connect event publisher: %w", err)
		}
	}

	d := &Daemon{
		cfg:       cfg,
		dataset:   dataset,
		publisher: publisher,
		logger:    logger,
	}
	d.server = server.New(cfg, dataset, server.Options{
		Publisher:       publisher,
		Logger:          logger,
		MetricsRegistry: registry,
	})

	if cfg.Compaction.Enabled {
		d.scheduler, err = NewCompactionScheduler(dataset, cfg.Compaction.Interval, logger)
		if err != nil {
			_ = d.closeAll()
			return nil, fmt.Errorf("create compaction scheduler: %w", err)
		}
	}

	if cfg.Dataset.Watch {
		d.watcher, err = NewJournalWatcher(cfg.Dataset.Path, dataset, logger)
		if err != nil {
			_ = d.closeAll()
			return nil, fmt.Errorf("create journal watcher: %w", err)
		}
	}

	return d, nil
}

// openJournal selects the journal driver from configuration.
func openJournal(cfg config.DatasetConfig) (journal.Journal, error) {
	switch cfg.Driver {
	case "sqlite":
		return journal.OpenSQLite(cfg.Path)
	default:
		return journal.OpenFile(cfg.Path)
	}
}

// indexerFor selects the index implementation from configuration.
func indexerFor(cfg config.DatasetConfig) indexing.Indexer {
	switch cfg.Index {
	case "time":
		return indexing.NewByTime()
	case "all-tags":
		return indexing.NewByAllTags()
	case "selected-tags":
		return indexing.NewBySelectedTags(cfg.Tags)
	default:
		return indexing.NoIndex{}
	}
}

// Run serves until ctx is cancelled or a termination signal arrives.
func (d *Daemon) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	d.logger.Info("daemon starting",
		logfields.Dataset(d.cfg.Dataset.Name),
		logfields.Driver(d.cfg.Dataset.Driver),
		logfields.Path(d.cfg.Dataset.Path),
		logfields.Listen(d.cfg.Server.Listen),
		logfields.Count(d.dataset.Len()))

	if d.scheduler != nil {
		d.scheduler.Start()
	}
	if d.watcher != nil {
		if err := d.watcher.Start(ctx); err != nil {
			_ = d.closeAll()
			return err
		}
	}

	err := d.server.Start(ctx)

	d.logger.Info("daemon shutting down")
	if closeErr := d.closeAll(); closeErr != nil && err == nil {
		err = closeErr
	}
	return err
}

func (d *Daemon) closeAll() error {
	var firstErr error
	if d.watcher != nil {
		if err := d.watcher.Stop(); err != nil {
			firstErr = err
		}
	}
	if d.scheduler != nil {
		if err := d.scheduler.Stop(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if d.publisher != nil {
		if err := d.publisher.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if d.dataset != nil {
		if err := d.dataset.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
