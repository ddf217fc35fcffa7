package journal

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	_ "modernc.org/sqlite"

	"git.home.luguber.info/inful/chronicle/internal/record"
)

// SQLite is a journal backed by a SQLite database. Entries are rows ordered
// by a monotonic sequence number. Use ":memory:" for an ephemeral journal.
type SQLite struct {
	db *sql.DB
	mu sync.RWMutex
}

// OpenSQLite opens (or creates) a SQLite journal at dbPath.
func OpenSQLite(dbPath string) (*SQLite, error) {
	if dbPath != ":memory:" {
		if err := ensureDir(dbPath); err != nil {
			return nil, err
		}
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite journal: %w", err)
	}

	j := &SQLite{db: db}
	if err := j.initialize(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize journal schema: %w", err)
	}
	return j, nil
}

func (j *SQLite) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS entries (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		record_id TEXT NOT NULL,
		data TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_record_id ON entries(record_id);
	`
	_, err := j.db.Exec(schema)
	return err
}

// Replay streams all entries in sequence order.
func (j *SQLite) Replay(ctx context.Context, fn func(Entry) error) error {
	j.mu.RLock()
	defer j.mu.RUnlock()

	rows, err := j.db.QueryContext(ctx,
		"SELECT record_id, data FROM entries ORDER BY seq")
	if err != nil {
		return fmt.Errorf("query journal entries: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var idText string
		var data sql.NullString
		if err := rows.Scan(&idText, &data); err != nil {
			return fmt.Errorf("scan journal entry: %w", err)
		}
		id, err := record.ParseID(idText)
		if err != nil {
			return fmt.Errorf("journal entry id: %w", err)
		}
		e := Entry{ID: id}
		if data.Valid {
			e.Data = []byte(data.String)
		}
		if err := fn(e); err != nil {
			return err
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate journal entries: %w", err)
	}
	return nil
}

// Append inserts one entry.
func (j *SQLite) Append(ctx context.Context, e Entry) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	var data any
	if e.Data != nil {
		data = string(e.Data)
	}
	_, err := j.db.ExecContext(ctx,
		"INSERT INTO entries (record_id, data) VALUES (?, ?)",
		e.ID.String(), data)
	if err != nil {
		return fmt.Errorf("insert journal entry: %w", err)
	}
	return nil
}

// Compact replaces all rows with the live entries in one transaction.
func (j *SQLite) Compact(ctx context.Context, live []Entry) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	tx, err := j.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin compaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM entries"); err != nil {
		return fmt.Errorf("clear journal: %w", err)
	}
	for _, e := range live {
		if e.Tombstone() {
			continue
		}
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO entries (record_id, data) VALUES (?, ?)",
			e.ID.String(), string(e.Data)); err != nil {
			return fmt.Errorf("write compacted entry: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit compaction: %w", err)
	}
	return nil
}

// Size returns the database's page footprint in bytes.
func (j *SQLite) Size(ctx context.Context) (int64, error) {
	j.mu.RLock()
	defer j.mu.RUnlock()

	var pageCount, pageSize int64
	if err := j.db.QueryRowContext(ctx, "PRAGMA page_count").Scan(&pageCount); err != nil {
		return 0, fmt.Errorf("read page count: %w", err)
	}
	if err := j.db.QueryRowContext(ctx, "PRAGMA page_size").Scan(&pageSize); err != nil {
		return 0, fmt.Errorf("read page size: %w", err)
	}
	return pageCount * pageSize, nil
}

// Close closes the database.
func (j *SQLite) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.db.Close()
}
