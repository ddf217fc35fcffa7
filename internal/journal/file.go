package journal

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// File is a JSON-lines journal: one entry envelope per line, appended in
// mutation order. The format is wire-compatible with legacy journals, e.g.
//
//	{"id":"3330c5b0-783f-4919-b2c4-8169c38f65ff","data":{"weight":77.0,...}}
//	{"id":"3330c5b0-783f-4919-b2c4-8169c38f65ff","data":null}
//
// A File assumes a single writer process.
type File struct {
	path string
	mu   sync.Mutex
	f    *os.File
	w    *bufio.Writer
}

// OpenFile opens (or creates) a JSON-lines journal at path.
func OpenFile(path string) (*File, error) {
	if err := ensureDir(path); err != nil {
		return nil, err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, fmt.Errorf("open journal %s: %w", path, err)
	}
	return &File{path: path, f: f, w: bufio.NewWriter(f)}, nil
}

// Path returns the journal's file path.
func (j *File) Path() string { return j.path }

// Replay reads the journal from the start. It opens its own read handle, so
// it also observes entries appended by other processes.
func (j *File) Replay(ctx context.Context, fn func(Entry) error) error {
	f, err := os.Open(j.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("open journal %s for replay: %w", j.path, err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		if err := ctx.Err(); err != nil {
			return err
		}
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		entry, err := decodeLine(line)
		if err != nil {
			return fmt.Errorf("journal %s line %d: %w", j.path, lineNo, err)
		}
		if err := fn(entry); err != nil {
			return err
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read journal %s: %w", j.path, err)
	}
	return nil
}

// Append writes one entry and flushes it to the OS.
func (j *File) Append(ctx context.Context, e Entry) error {
	line, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("encode journal entry: %w", err)
	}

	j.mu.Lock()
	defer j.mu.Unlock()
	if j.f == nil {
		return fmt.Errorf("journal %s is closed", j.path)
	}
	if _, err := j.w.Write(line); err != nil {
		return fmt.Errorf("append to journal %s: %w", j.path, err)
	}
	if err := j.w.WriteByte('\n'); err != nil {
		return fmt.Errorf("append to journal %s: %w", j.path, err)
	}
	if err := j.w.Flush(); err != nil {
		return fmt.Errorf("flush journal %s: %w", j.path, err)
	}
	return nil
}

// Compact atomically replaces the journal with the live entries: the new
// contents are written to a temporary file and renamed over the old journal.
func (j *File) Compact(ctx context.Context, live []Entry) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.f == nil {
		return fmt.Errorf("journal %s is closed", j.path)
	}

	tmpPath := j.path + ".compact"
	tmp, err := os.OpenFile(tmpPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("create compaction file: %w", err)
	}
	w := bufio.NewWriter(tmp)
	for _, e := range live {
		if err := ctx.Err(); err != nil {
			tmp.Close()
			os.Remove(tmpPath)
			return err
		}
		line, err := json.Marshal(e)
		if err != nil {
			tmp.Close()
			os.Remove(tmpPath)
			return fmt.Errorf("encode journal entry: %w", err)
		}
		if _, err := w.Write(append(line, '\n')); err != nil {
			tmp.Close()
			os.Remove(tmpPath)
			return fmt.Errorf("write compaction file: %w", err)
		}
	}
	if err := w.Flush(); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("flush compaction file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("close compaction file: %w", err)
	}

	// Swap in the compacted journal, then move the append handle over.
	if err := j.f.Close(); err != nil {
		return fmt.Errorf("close journal %s: %w", j.path, err)
	}
	if err := os.Rename(tmpPath, j.path); err != nil {
		return fmt.Errorf("replace journal %s: %w", j.path, err)
	}
	f, err := os.OpenFile(j.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return fmt.Errorf("reopen journal %s: %w", j.path, err)
	}
	j.f = f
	j.w = bufio.NewWriter(f)
	return nil
}

// Size returns the journal file size in bytes.
func (j *File) Size(ctx context.Context) (int64, error) {
	info, err := os.Stat(j.path)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("stat journal %s: %w", j.path, err)
	}
	return info.Size(), nil
}

// Close flushes and closes the append handle.
func (j *File) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.f == nil {
		return nil
	}
	if err := j.w.Flush(); err != nil {
		j.f.Close()
		j.f = nil
		return fmt.Errorf("flush journal %s: %w", j.path, err)
	}
	err := j.f.Close()
	j.f = nil
	if err != nil {
		return fmt.Errorf("close journal %s: %w", j.path, err)
	}
	return nil
}

// decodeLine parses one journal line into an Entry, normalizing an explicit
// JSON null payload to a nil tombstone payload.
func decodeLine(line []byte) (Entry, error) {
	var e Entry
	if err := json.Unmarshal(line, &e); err != nil {
		return Entry{}, fmt.Errorf("decode entry: %w", err)
	}
	if e.ID.IsZero() {
		return Entry{}, fmt.Errorf("entry is missing an id")
	}
	if bytes.Equal(bytes.TrimSpace(e.Data), []byte("null")) {
		e.Data = nil
	}
	return e, nil
}

// ensure the directory for a journal path exists; shared by the drivers.
func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("create journal directory %s: %w", dir, err)
	}
	return nil
}
