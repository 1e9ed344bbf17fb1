// Package storage keeps the failure journal: a small SQLite table of
// backend operations that failed and were answered with a fallback.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
	"unicode/utf8"

	"expensetracker/internal/api"
	"expensetracker/internal/log"

	_ "modernc.org/sqlite"
)

// timeLayout is fixed width so stored timestamps sort as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// maxMessageLen caps stored error text; backend bodies can be large.
const maxMessageLen = 1024

// Failure is one journaled operation failure.
type Failure struct {
	ID         int64
	Operation  string
	Message    string
	Timeout    bool
	OccurredAt time.Time
}

// Journal implements api.FailureRecorder on top of SQLite.
type Journal struct {
	db     *sql.DB
	logger *log.Logger
	now    func() time.Time
}

var _ api.FailureRecorder = (*Journal)(nil)

// OpenJournal creates the database directory if needed, opens the file
// and runs the embedded migrations.
func OpenJournal(dbPath string, logger *log.Logger) (*Journal, error) {
	if dbPath == "" {
		return nil, errors.New("journal path is empty")
	}
	if logger == nil {
		logger = log.Discard()
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// SQLite serialises writers; a single connection avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	version, err := RunMigrations(dbPath)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	logger = logger.WithComponent(log.ComponentJournal)
	logger.Debug("Journal ready", log.FieldPath, dbPath, log.FieldVersion, version)

	return &Journal{
		db:     db,
		logger: logger,
		now:    time.Now,
	}, nil
}

func (j *Journal) Close() error {
	if j.db != nil {
		return j.db.Close()
	}
	return nil
}

// Ping reports whether the database is reachable; used by /readyz.
func (j *Journal) Ping(ctx context.Context) error {
	return j.db.PingContext(ctx)
}

// RecordFailure stores op and the error text with the current time.
func (j *Journal) RecordFailure(ctx context.Context, op string, err error) error {
	if err == nil {
		return nil
	}
	msg := truncateMessage(err.Error())
	timeout := 0
	if api.IsTimeout(err) {
		timeout = 1
	}

	_, dbErr := j.db.ExecContext(ctx,
		`INSERT INTO failures (operation, message, timeout, occurred_at) VALUES (?, ?, ?, ?)`,
		op, msg, timeout, j.now().UTC().Format(timeLayout))
	if dbErr != nil {
		return fmt.Errorf("insert failure: %w", dbErr)
	}

	j.logger.DebugContext(ctx, "Failure journaled", log.FieldOperation, op)
	return nil
}

// truncateMessage cuts msg to maxMessageLen bytes without splitting a rune.
func truncateMessage(msg string) string {
	if len(msg) <= maxMessageLen {
		return msg
	}
	cut := maxMessageLen
	for cut > 0 && !utf8.RuneStart(msg[cut]) {
		cut--
	}
	return msg[:cut]
}

// RecentFailures returns up to limit failures, newest first.
func (j *Journal) RecentFailures(ctx context.Context, limit int) ([]Failure, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := j.db.QueryContext(ctx,
		`SELECT id, operation, message, timeout, occurred_at
		   FROM failures
		  ORDER BY occurred_at DESC, id DESC
		  LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query failures: %w", err)
	}
	defer rows.Close()

	out := make([]Failure, 0, limit)
	for rows.Next() {
		var (
			f       Failure
			timeout int
			at      string
		)
		if err := rows.Scan(&f.ID, &f.Operation, &f.Message, &timeout, &at); err != nil {
			return nil, fmt.Errorf("scan failure: %w", err)
		}
		f.Timeout = timeout != 0
		if f.OccurredAt, err = time.Parse(timeLayout, at); err != nil {
			return nil, fmt.Errorf("parse occurred_at %q: %w", at, err)
		}
		out = append(out, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate failures: %w", err)
	}
	return out, nil
}

// CountSince returns how many failures were recorded at or after t.
func (j *Journal) CountSince(ctx context.Context, t time.Time) (int, error) {
	var n int
	err := j.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM failures WHERE occurred_at >= ?`,
		t.UTC().Format(timeLayout)).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count failures: %w", err)
	}
	return n, nil
}

// PruneBefore deletes failures older than t and returns how many went.
func (j *Journal) PruneBefore(ctx context.Context, t time.Time) (int64, error) {
	res, err := j.db.ExecContext(ctx,
		`DELETE FROM failures WHERE occurred_at < ?`, t.UTC().Format(timeLayout))
	if err != nil {
		return 0, fmt.Errorf("prune failures: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	if n > 0 {
		j.logger.InfoContext(ctx, "Pruned journal", log.FieldCount, n)
	}
	return n, nil
}
