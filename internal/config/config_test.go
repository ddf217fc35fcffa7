package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "chronicle.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, "dataset:\n  name: trips\n")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Dataset.Driver != "file" {
		t.Errorf("Driver = %q, want file", cfg.Dataset.Driver)
	}
	if cfg.Dataset.Path != "chronicle.json" {
		t.Errorf("Path = %q, want chronicle.json", cfg.Dataset.Path)
	}
	if cfg.Dataset.Index != "time" {
		t.Errorf("Index = %q, want time", cfg.Dataset.Index)
	}
	if cfg.Server.Listen != ":8123" {
		t.Errorf("Listen = %q, want :8123", cfg.Server.Listen)
	}
	if cfg.Events.Subject != "chronicle.trips" {
		t.Errorf("Subject = %q, want chronicle.trips", cfg.Events.Subject)
	}
	if cfg.Compaction.Interval != time.Hour {
		t.Errorf("Interval = %s, want 1h", cfg.Compaction.Interval)
	}
}

func TestLoadSQLitePathDefault(t *testing.T) {
	path := writeConfig(t, "dataset:\n  driver: sqlite\n")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Dataset.Path != "chronicle.db" {
		t.Errorf("Path = %q, want chronicle.db", cfg.Dataset.Path)
	}
}

func TestLoadExpandsEnvironment(t *testing.T) {
	t.Setenv("CHRONICLE_TEST_DATA", "/var/lib/chronicle/trips.json")
	path := writeConfig(t, "dataset:\n  path: ${CHRONICLE_TEST_DATA}\n")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Dataset.Path != "/var/lib/chronicle/trips.json" {
		t.Errorf("Path = %q, env expansion failed", cfg.Dataset.Path)
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err == nil {
		t.Fatal("expected error for missing config file")
	}
}

func TestValidateRejectsBadDriver(t *testing.T) {
	path := writeConfig(t, "dataset:\n  driver: postgres\n")
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for unsupported driver")
	}
}

func TestValidateRejectsBadIndex(t *testing.T) {
	path := writeConfig(t, "dataset:\n  index: btree\n")
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for unsupported index mode")
	}
}

func TestValidateSelectedTags(t *testing.T) {
	// selected-tags without tags is rejected
	path := writeConfig(t, "dataset:\n  index: selected-tags\n")
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for selected-tags without tags")
	}

	// tags without selected-tags is rejected
	path = writeConfig(t, "dataset:\n  index: time\n  tags: [long]\n")
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for tags with non-selected index")
	}

	// the valid combination loads
	path = writeConfig(t, "dataset:\n  index: selected-tags\n  tags: [long, short]\n")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if len(cfg.Dataset.Tags) != 2 {
		t.Errorf("Tags = %v, want two entries", cfg.Dataset.Tags)
	}
}

func TestValidateCompactionInterval(t *testing.T) {
	path := writeConfig(t, "compaction:\n  enabled: true\n  interval: 5s\n")
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for sub-minute compaction interval")
	}
}

func TestInitWritesLoadableConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chronicle.yaml")

	if err := Init(path, false); err != nil {
		t.Fatalf("Init() error: %v", err)
	}

	// A second Init without force must refuse to overwrite.
	if err := Init(path, false); err == nil {
		t.Fatal("expected error when config already exists")
	}
	if err := Init(path, true); err != nil {
		t.Fatalf("Init(force) error: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() of generated config failed: %v", err)
	}
	if cfg.Dataset.Name != "trips" {
		t.Errorf("Name = %q, want trips", cfg.Dataset.Name)
	}
}

func TestLoggingHandler(t *testing.T) {
	lc := LoggingConfig{Level: "debug", Format: "json"}
	if lc.SlogLevel() != slog.LevelDebug {
		t.Errorf("SlogLevel() = %v, want debug", lc.SlogLevel())
	}
	if lc.NewHandler(os.Stderr) == nil {
		t.Fatal("NewHandler() returned nil")
	}

	lc = LoggingConfig{Level: "bogus"}
	if lc.SlogLevel() != slog.LevelInfo {
		t.Errorf("SlogLevel() = %v, want info fallback", lc.SlogLevel())
	}
}
