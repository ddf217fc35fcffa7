package daemon

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/chronicle/internal/config"
	"git.home.luguber.info/inful/chronicle/internal/journal"
	"git.home.luguber.info/inful/chronicle/internal/series/indexing"
)

func TestOpenJournalDriverSelection(t *testing.T) {
	dir := t.TempDir()

	j, err := openJournal(config.DatasetConfig{Driver: "file", Path: filepath.Join(dir, "d.json")})
	require.NoError(t, err)
	assert.IsType(t, &journal.File{}, j)
	require.NoError(t, j.Close())

	j, err = openJournal(config.DatasetConfig{Driver: "sqlite", Path: filepath.Join(dir, "d.db")})
	require.NoError(t, err)
	assert.IsType(t, &journal.SQLite{}, j)
	require.NoError(t, j.Close())
}

func TestIndexerSelection(t *testing.T) {
	assert.IsType(t, indexing.NoIndex{}, indexerFor(config.DatasetConfig{Index: "none"}))
	assert.IsType(t, &indexing.ByTime{}, indexerFor(config.DatasetConfig{Index: "time"}))
	assert.IsType(t, &indexing.ByAllTags{}, indexerFor(config.DatasetConfig{Index: "all-tags"}))
	assert.IsType(t, &indexing.BySelectedTags{},
		indexerFor(config.DatasetConfig{Index: "selected-tags", Tags: []string{"long"}}))
}

func TestNewDaemonOpensDataset(t *testing.T) {
	cfg := &config.Config{}
	cfg.Dataset.Name = "test"
	cfg.Dataset.Driver = "file"
	cfg.Dataset.Path = filepath.Join(t.TempDir(), "d.json")
	cfg.Dataset.Index = "time"
	cfg.Server.Listen = ":0"

	d, err := New(cfg, nil)
	require.NoError(t, err)
	require.NotNil(t, d.dataset)
	assert.Nil(t, d.scheduler)
	assert.Nil(t, d.watcher)
	require.NoError(t, d.closeAll())
}

type fakeCompactable struct {
	calls atomic.Int64
}

func (f *fakeCompactable) Compact(context.Context) error {
	f.calls.Add(1)
	return nil
}

func (f *fakeCompactable) Len() int { return 0 }

func TestCompactionSchedulerTicks(t *testing.T) {
	ds := &fakeCompactable{}
	cs, err := NewCompactionScheduler(ds, 20*time.Millisecond, nil)
	require.NoError(t, err)

	cs.Start()
	defer func() { require.NoError(t, cs.Stop()) }()

	require.Eventually(t, func() bool {
		return ds.calls.Load() >= 2
	}, 3*time.Second, 10*time.Millisecond, "compaction never ticked")
}

type fakeReloadable struct {
	calls atomic.Int64
}

func (f *fakeReloadable) Reload(context.Context) error {
	f.calls.Add(1)
	return nil
}

func TestJournalWatcherReloadsOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "journal.json")
	require.NoError(t, os.WriteFile(path, nil, 0644))

	ds := &fakeReloadable{}
	w, err := NewJournalWatcher(path, ds, nil)
	require.NoError(t, err)
	w.debounceTime = 30 * time.Millisecond

	require.NoError(t, w.Start(t.Context()))
	defer func() { _ = w.Stop() }()

	require.NoError(t, os.WriteFile(path, []byte("{}\n"), 0644))

	require.Eventually(t, func() bool {
		return ds.calls.Load() >= 1
	}, 3*time.Second, 10*time.Millisecond, "watcher never reloaded")

	// Writes to unrelated files in the same directory are ignored.
	before := ds.calls.Load()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.json"), []byte("x"), 0644))
	time.Sleep(200 * time.Millisecond)
	assert.Equal(t, before, ds.calls.Load())
}
