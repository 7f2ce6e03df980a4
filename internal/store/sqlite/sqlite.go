package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/vovakirdan/chatrelay/internal/store"
)

const schema = `
CREATE TABLE IF NOT EXISTS history (
	seq        INTEGER PRIMARY KEY AUTOINCREMENT,
	text       TEXT NOT NULL,
	created_at DATETIME NOT NULL
);
`

// SQLiteStore implements store.HistoryStore on top of SQLite.
// With the default ":memory:" DSN the log disappears with the process.
type SQLiteStore struct {
	db *sql.DB
}

const connParams = "_journal_mode=WAL&_busy_timeout=5000"

// withConnParams appends the pragmas to dsn, keeping any query it already has.
func withConnParams(dsn string) string {
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + connParams
}

// New opens dsn and applies the schema.
func New(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", withConnParams(dsn))
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// A single connection keeps one in-memory database alive.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Append inserts a line.
func (s *SQLiteStore) Append(ctx context.Context, text string, at time.Time) (store.Line, error) {
	query := `INSERT INTO history (text, created_at) VALUES (?, ?)`
	result, err := s.db.ExecContext(ctx, query, text, at.UTC())
	if err != nil {
		return store.Line{}, fmt.Errorf("insert line: %w", err)
	}

	seq, err := result.LastInsertId()
	if err != nil {
		return store.Line{}, fmt.Errorf("get last insert id: %w", err)
	}

	return store.Line{Seq: seq, Text: text, At: at}, nil
}

// Lines returns the whole log ordered by sequence.
func (s *SQLiteStore) Lines(ctx context.Context) ([]store.Line, error) {
	query := `SELECT seq, text, created_at FROM history ORDER BY seq ASC`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var lines []store.Line
	for rows.Next() {
		var line store.Line
		if err := rows.Scan(&line.Seq, &line.Text, &line.At); err != nil {
			return nil, fmt.Errorf("scan line: %w", err)
		}
		lines = append(lines, line)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate history: %w", err)
	}

	return lines, nil
}

// Count returns the number of stored lines.
func (s *SQLiteStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM history`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count history: %w", err)
	}
	return n, nil
}
