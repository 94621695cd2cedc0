package recorder

import (
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"

	"github.com/yn6733212/Market-Snapshot/internal/logging"
)

// SQLiteRecorder persists the run journal to a SQLite database.
type SQLiteRecorder struct {
	db  *sql.DB
	mu  sync.Mutex
	log *logrus.Logger
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string, log *logrus.Logger) (*SQLiteRecorder, error) {
	if log == nil {
		log = logging.Discard()
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL lets /status read while a run is being written.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db, log: log}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.WithField("path", dbPath).Info("SQLite run journal opened")
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			run_id      TEXT PRIMARY KEY,
			timestamp   INTEGER NOT NULL,
			duration_ms INTEGER,
			status      TEXT NOT NULL,
			stage       TEXT,
			israel      TEXT,
			us          TEXT,
			text_chars  INTEGER,
			upload      TEXT,
			error       TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_ts ON runs(timestamp)`,

		`CREATE TABLE IF NOT EXISTS degraded_instruments (
			id     INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id TEXT NOT NULL REFERENCES runs(run_id),
			key    TEXT NOT NULL,
			ticker TEXT,
			error  TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_degraded_run ON degraded_instruments(run_id)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

func (r *SQLiteRecorder) RecordRun(rec *RunRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(`INSERT INTO runs
		(run_id, timestamp, duration_ms, status, stage, israel, us, text_chars, upload, error)
		VALUES (?,?,?,?,?,?,?,?,?,?)`,
		rec.RunID, rec.StartedAt.Unix(), rec.Duration.Milliseconds(), rec.Status, rec.Stage,
		rec.Israel, rec.US, rec.TextChars, rec.Upload, rec.Error,
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	for _, d := range rec.Degraded {
		if _, err := tx.Exec(`INSERT INTO degraded_instruments (run_id, key, ticker, error) VALUES (?,?,?,?)`,
			rec.RunID, d.Key, d.Ticker, d.Error); err != nil {
			return fmt.Errorf("insert degraded instrument: %w", err)
		}
	}
	return tx.Commit()
}

// RecentRuns returns the newest runs first, with their degraded instruments.
func (r *SQLiteRecorder) RecentRuns(limit int) ([]RunRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rows, err := r.db.Query(`SELECT run_id, timestamp, duration_ms, status, stage, israel, us, text_chars, upload, error
		FROM runs ORDER BY timestamp DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	var runs []RunRecord
	for rows.Next() {
		var (
			rec       RunRecord
			ts, durMs int64
		)
		if err := rows.Scan(&rec.RunID, &ts, &durMs, &rec.Status, &rec.Stage, &rec.Israel, &rec.US,
			&rec.TextChars, &rec.Upload, &rec.Error); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan run: %w", err)
		}
		rec.StartedAt = time.Unix(ts, 0)
		rec.Duration = time.Duration(durMs) * time.Millisecond
		runs = append(runs, rec)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range runs {
		d, err := r.degraded(runs[i].RunID)
		if err != nil {
			return nil, err
		}
		runs[i].Degraded = d
	}
	return runs, nil
}

func (r *SQLiteRecorder) degraded(runID string) ([]InstrumentFailure, error) {
	rows, err := r.db.Query(`SELECT key, ticker, error FROM degraded_instruments WHERE run_id = ? ORDER BY id`, runID)
	if err != nil {
		return nil, fmt.Errorf("query degraded: %w", err)
	}
	defer rows.Close()
	var out []InstrumentFailure
	for rows.Next() {
		var f InstrumentFailure
		if err := rows.Scan(&f.Key, &f.Ticker, &f.Error); err != nil {
			return nil, fmt.Errorf("scan degraded: %w", err)
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

func (r *SQLiteRecorder) Close() error {
	r.log.Info("Closing SQLite run journal")
	return r.db.Close()
}
