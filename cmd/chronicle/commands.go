package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"git.home.luguber.info/inful/chronicle/internal/config"
	cerrors "git.home.luguber.info/inful/chronicle/internal/errors"
	"git.home.luguber.info/inful/chronicle/internal/journal"
	"git.home.luguber.info/inful/chronicle/internal/record"
	"git.home.luguber.info/inful/chronicle/internal/series"
	"git.home.luguber.info/inful/chronicle/internal/series/indexing"
	"git.home.luguber.info/inful/chronicle/internal/timestamp"
)

type dataset = *series.Series[record.Dynamic]

// runWithDataset opens the configured dataset, runs fn, and closes it again.
func runWithDataset(adapter *cerrors.CLIErrorAdapter, fn func(ctx context.Context, cfg *config.Config, ds dataset) error) {
	cfg := loadConfig(adapter)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	j, err := openJournal(cfg)
	if err != nil {
		adapter.HandleError(cerrors.StorageError(cfg.Dataset.Path, err))
		return
	}

	ds, err := series.Open[record.Dynamic](ctx, j, series.WithIndexer(indexerFor(cfg)))
	if err != nil {
		_ = j.Close()
		adapter.HandleError(cerrors.StorageError(cfg.Dataset.Path, err))
		return
	}
	defer ds.Close()

	if err := fn(ctx, cfg, ds); err != nil {
		adapter.HandleError(err)
	}
}

func openJournal(cfg *config.Config) (journal.Journal, error) {
	if cfg.Dataset.Driver == "sqlite" {
		return journal.OpenSQLite(cfg.Dataset.Path)
	}
	return journal.OpenFile(cfg.Dataset.Path)
}

func indexerFor(cfg *config.Config) indexing.Indexer {
	switch cfg.Dataset.Index {
	case "time":
		return indexing.NewByTime()
	case "all-tags":
		return indexing.NewByAllTags()
	case "selected-tags":
		return indexing.NewBySelectedTags(cfg.Dataset.Tags)
	default:
		return indexing.NoIndex{}
	}
}

func runPut(ctx context.Context, _ *config.Config, ds dataset) error {
	ts := timestamp.Now()
	if CLI.Put.Time != "" {
		parsed, err := timestamp.Parse(CLI.Put.Time)
		if err != nil {
			return cerrors.ValidationFailed("time", err.Error())
		}
		ts = parsed
	}

	raw := CLI.Put.Fields
	if raw == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return cerrors.ValidationFailed("fields", err.Error())
		}
		raw = string(data)
	}

	var fields map[string]any
	if raw != "" {
		if err := json.Unmarshal([]byte(raw), &fields); err != nil {
			return cerrors.ValidationFailed("fields", err.Error())
		}
	}

	payload := record.NewDynamic(ts, CLI.Put.Tags, fields)
	if err := payload.Validate(); err != nil {
		return cerrors.ValidationFailed("record", err.Error())
	}

	id, err := ds.Put(ctx, payload)
	if err != nil {
		return mapSeriesError(err)
	}

	fmt.Println(id)
	return nil
}

func runGet(_ context.Context, _ *config.Config, ds dataset) error {
	id, err := record.ParseID(CLI.Get.ID)
	if err != nil {
		return cerrors.ValidationFailed("id", err.Error())
	}

	rec, err := ds.Get(id)
	if err != nil {
		return mapSeriesError(err)
	}
	return printRecords(rec)
}

func runDelete(ctx context.Context, _ *config.Config, ds dataset) error {
	id, err := record.ParseID(CLI.Delete.ID)
	if err != nil {
		return cerrors.ValidationFailed("id", err.Error())
	}

	if err := ds.Delete(ctx, id); err != nil {
		return mapSeriesError(err)
	}
	return nil
}

func runList(_ context.Context, _ *config.Config, ds dataset) error {
	return printRecords(ds.Records()...)
}

func runQuery(_ context.Context, _ *config.Config, ds dataset) error {
	if CLI.Query.Tag != "" {
		if CLI.Query.From != "" || CLI.Query.To != "" {
			return cerrors.ValidationFailed("query", "tag cannot be combined with from/to")
		}
		return printRecords(ds.QueryTagged(CLI.Query.Tag)...)
	}

	from, to := timestamp.Timestamp{}, timestamp.Now()
	var err error
	if CLI.Query.From != "" {
		if from, err = timestamp.Parse(CLI.Query.From); err != nil {
			return cerrors.ValidationFailed("from", err.Error())
		}
	}
	if CLI.Query.To != "" {
		if to, err = timestamp.Parse(CLI.Query.To); err != nil {
			return cerrors.ValidationFailed("to", err.Error())
		}
	}

	return printRecords(ds.QueryRange(from, to)...)
}

func runCompact(ctx context.Context, _ *config.Config, ds dataset) error {
	before := ds.Len()
	if err := ds.Compact(ctx); err != nil {
		return cerrors.JournalError("compact", err)
	}
	fmt.Printf("compacted journal, %d live records\n", before)
	return nil
}

// printRecords writes records as JSON lines to stdout.
func printRecords(recs ...record.Record[record.Dynamic]) error {
	enc := json.NewEncoder(os.Stdout)
	for _, rec := range recs {
		out := struct {
			ID        string         `json:"id"`
			Timestamp string         `json:"timestamp"`
			Tags      []string       `json:"tags,omitempty"`
			Fields    map[string]any `json:"fields,omitempty"`
		}{
			ID:        rec.ID.String(),
			Timestamp: rec.Data.Time.String(),
			Tags:      rec.Data.Labels,
			Fields:    rec.Data.Fields,
		}
		if err := enc.Encode(out); err != nil {
			return cerrors.InternalError("encode record", err)
		}
	}
	return nil
}

// mapSeriesError translates series errors into classified CLI errors.
func mapSeriesError(err error) error {
	var notFound series.ErrNotFound
	if errors.As(err, &notFound) {
		return cerrors.RecordNotFound(notFound.ID.String())
	}
	var exists series.ErrExists
	if errors.As(err, &exists) {
		return cerrors.RecordExists(exists.ID.String())
	}
	return cerrors.JournalError("write", err)
}
