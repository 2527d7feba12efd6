package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"stitchcast/internal/config"
)

// DefaultListLimit caps List when no limit is given.
const DefaultListLimit = 50

// DefaultRetention is how many entries the runtime keeps across restarts.
const DefaultRetention = 5000

// Entry is one journaled transition.
type Entry struct {
	ID        int64     `json:"id"`
	SessionID string    `json:"session_id"`
	At        time.Time `json:"at"`
	Mode      string    `json:"mode"`
	Outcome   string    `json:"outcome"`
	Signal    string    `json:"signal,omitempty"`
	Detail    string    `json:"detail,omitempty"`
}

// Journal is the SQLite-backed transition log.
type Journal struct {
	db   *sql.DB
	path string
}

// Open creates or opens the journal under the configured state directory.
func Open(cfg *config.Config) (*Journal, error) {
	if cfg == nil {
		return nil, errors.New("journal: config is nil")
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}
	return OpenPath(cfg.JournalPath())
}

// OpenPath opens the journal database at path.
func OpenPath(path string) (*Journal, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	j := &Journal{db: db, path: path}
	if err := j.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return j, nil
}

// Path returns the database file path.
func (j *Journal) Path() string {
	return j.path
}

// Close closes the underlying database connection.
func (j *Journal) Close() error {
	if j == nil || j.db == nil {
		return nil
	}
	return j.db.Close()
}

// Append stores e and returns it with ID and At filled in.
func (j *Journal) Append(ctx context.Context, e Entry) (Entry, error) {
	if strings.TrimSpace(e.Mode) == "" || strings.TrimSpace(e.Outcome) == "" {
		return Entry{}, errors.New("journal entry requires mode and outcome")
	}
	if e.At.IsZero() {
		e.At = time.Now()
	}
	e.At = e.At.UTC()

	var res sql.Result
	err := retryOnBusy(ctx, func() error {
		var execErr error
		res, execErr = j.db.ExecContext(ctx,
			`INSERT INTO transitions (session_id, created_at, mode, outcome, signal, detail)
             VALUES (?, ?, ?, ?, ?, ?)`,
			e.SessionID,
			e.At.Format(time.RFC3339Nano),
			e.Mode,
			e.Outcome,
			nullableString(e.Signal),
			nullableString(e.Detail),
		)
		return execErr
	})
	if err != nil {
		return Entry{}, fmt.Errorf("insert transition: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return Entry{}, fmt.Errorf("last insert id: %w", err)
	}
	e.ID = id
	return e, nil
}

// List returns the most recent entries, newest first.
func (j *Journal) List(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	rows, err := j.db.QueryContext(ctx,
		`SELECT id, session_id, created_at, mode, outcome, signal, detail
         FROM transitions ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list transitions: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			e          Entry
			createdRaw string
			signal     sql.NullString
			detail     sql.NullString
		)
		if err := rows.Scan(&e.ID, &e.SessionID, &createdRaw, &e.Mode, &e.Outcome, &signal, &detail); err != nil {
			return nil, fmt.Errorf("scan transition: %w", err)
		}
		if ts, err := time.Parse(time.RFC3339Nano, createdRaw); err == nil {
			e.At = ts
		}
		e.Signal = signal.String
		e.Detail = detail.String
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Count returns the number of stored entries.
func (j *Journal) Count(ctx context.Context) (int, error) {
	var n int
	if err := j.db.QueryRowContext(ctx, "SELECT COUNT(1) FROM transitions").Scan(&n); err != nil {
		return 0, fmt.Errorf("count transitions: %w", err)
	}
	return n, nil
}

// Prune keeps the newest keep entries and deletes the rest.
func (j *Journal) Prune(ctx context.Context, keep int) (int64, error) {
	if keep < 0 {
		keep = 0
	}
	var res sql.Result
	err := retryOnBusy(ctx, func() error {
		var execErr error
		res, execErr = j.db.ExecContext(ctx,
			`DELETE FROM transitions WHERE id NOT IN (
                SELECT id FROM transitions ORDER BY id DESC LIMIT ?
            )`, keep)
		return execErr
	})
	if err != nil {
		return 0, fmt.Errorf("prune transitions: %w", err)
	}
	return res.RowsAffected()
}

func nullableString(value string) any {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	return value
}
