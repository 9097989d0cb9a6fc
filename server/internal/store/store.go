package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when a row addressed by id does not exist.
var ErrNotFound = errors.New("store: not found")

// MemoryPath opens a private in-process database.
const MemoryPath = ":memory:"

// Store is the SQLite-backed persistence layer. It is safe for concurrent use.
type Store struct {
	db  *sql.DB
	now func() time.Time // injectable for deterministic tests
}

// Open connects to the SQLite database at path and applies the schema.
func Open(ctx context.Context, path string) (*Store, error) {
	dsn := path
	if path != MemoryPath {
		dsn = path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("store: open %q: %w", path, err)
	}
	if path == MemoryPath {
		// Every connection to :memory: is a separate database.
		db.SetMaxOpenConns(1)
	}
	if err := initSchema(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: %w", err)
	}
	return &Store{db: db, now: time.Now}, nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping checks that the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// statusClause builds "AND status IN (...)" / "AND status NOT IN (...)"
// fragments for a list query.
func statusClause(in, notIn []string) (string, []any) {
	var (
		sb   strings.Builder
		args []any
	)
	if len(in) > 0 {
		sb.WriteString(" AND status IN (" + placeholders(len(in)) + ")")
		for _, s := range in {
			args = append(args, s)
		}
	}
	if len(notIn) > 0 {
		sb.WriteString(" AND status NOT IN (" + placeholders(len(notIn)) + ")")
		for _, s := range notIn {
			args = append(args, s)
		}
	}
	return sb.String(), args
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

func checkAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
