package recorder

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/phuslu/log"
	_ "modernc.org/sqlite"

	"IndexForecaster/internal/model"
)

// SQLiteRecorder persists run history to a SQLite database.
type SQLiteRecorder struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string) (*SQLiteRecorder, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Info().Str("path", dbPath).Msg("sqlite recorder opened")
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			run_uuid    TEXT NOT NULL UNIQUE,
			started_at  INTEGER NOT NULL,
			finished_at INTEGER NOT NULL,
			provider    TEXT,
			report_path TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at)`,

		`CREATE TABLE IF NOT EXISTS series_results (
			id            INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id        INTEGER NOT NULL REFERENCES runs(id),
			series        TEXT NOT NULL,
			observations  INTEGER,
			first_date    TEXT,
			last_date     TEXT,
			current_price REAL,
			short_term    REAL,
			long_term     REAL,
			trend         TEXT,
			ma200         REAL,
			high_52w      REAL,
			low_52w       REAL,
			position_52w  REAL,
			daily_rsi     REAL,
			short_chart   TEXT,
			long_chart    TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_series_results_series ON series_results(series, run_id)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

// RecordRun stores the run and its series rows in one transaction.
func (r *SQLiteRecorder) RecordRun(run *RunRecord) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	tx, err := r.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	if run.ID == uuid.Nil {
		run.ID = uuid.New()
	}
	res, err := tx.Exec(`INSERT INTO runs (run_uuid, started_at, finished_at, provider, report_path) VALUES (?,?,?,?,?)`,
		run.ID.String(), run.StartedAt.Unix(), run.FinishedAt.Unix(), run.Provider, run.ReportPath)
	if err != nil {
		return 0, fmt.Errorf("insert run: %w", err)
	}
	runID, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("run id: %w", err)
	}

	for _, s := range run.Series {
		_, err := tx.Exec(`INSERT INTO series_results
			(run_id, series, observations, first_date, last_date,
			 current_price, short_term, long_term, trend,
			 ma200, high_52w, low_52w, position_52w, daily_rsi,
			 short_chart, long_chart)
			VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
			runID, s.Summary.Name, s.Observations,
			s.FirstDate.Format("2006-01-02"), s.LastDate.Format("2006-01-02"),
			s.Summary.CurrentPrice, s.Summary.ShortTerm, s.Summary.LongTerm, string(s.Summary.Trend),
			s.MA200, s.High52w, s.Low52w, s.Position52w, s.DailyRSI,
			s.ShortChart, s.LongChart,
		)
		if err != nil {
			return 0, fmt.Errorf("insert series %s: %w", s.Summary.Name, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return runID, nil
}

// History returns the stored summaries for a series, newest run first.
func (r *SQLiteRecorder) History(series string, limit int) ([]model.SeriesSummary, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rows, err := r.db.Query(`SELECT series, current_price, short_term, long_term, trend
		FROM series_results WHERE series = ? ORDER BY run_id DESC LIMIT ?`, series, limit)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var out []model.SeriesSummary
	for rows.Next() {
		var s model.SeriesSummary
		var trend string
		if err := rows.Scan(&s.Name, &s.CurrentPrice, &s.ShortTerm, &s.LongTerm, &trend); err != nil {
			return nil, fmt.Errorf("scan history: %w", err)
		}
		s.Trend = model.Trend(trend)
		out = append(out, s)
	}
	return out, rows.Err()
}

// LastRunAt returns when the most recent run finished, or the zero time.
func (r *SQLiteRecorder) LastRunAt() (time.Time, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var ts sql.NullInt64
	if err := r.db.QueryRow(`SELECT MAX(finished_at) FROM runs`).Scan(&ts); err != nil {
		return time.Time{}, fmt.Errorf("query last run: %w", err)
	}
	if !ts.Valid {
		return time.Time{}, nil
	}
	return time.Unix(ts.Int64, 0), nil
}

func (r *SQLiteRecorder) Close() error {
	log.Info().Msg("closing sqlite recorder")
	return r.db.Close()
}
