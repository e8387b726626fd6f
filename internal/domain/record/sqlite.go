package record

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/bytedance/sonic"
	_ "modernc.org/sqlite"
)

// SQLiteStore keeps each record as a JSON document. Status and creation
// time are copied into columns for filtering and ordering.
type SQLiteStore struct {
	db   *sql.DB
	path string
}

// NewSQLiteStore opens (or creates) the database at path.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create store directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open record store: %w", err)
	}
	// One writer avoids SQLITE_BUSY between pooled connections
	db.SetMaxOpenConns(1)

	if err := migrate(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &SQLiteStore{db: db, path: path}, nil
}

func migrate(db *sql.DB) error {
	statements := []string{
		`PRAGMA journal_mode=WAL;`,
		`PRAGMA busy_timeout=5000;`,
		`CREATE TABLE IF NOT EXISTS records (
			id TEXT PRIMARY KEY,
			status TEXT NOT NULL,
			created_at INTEGER NOT NULL,
			doc TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS records_status ON records (status, created_at);`,
	}
	for _, stmt := range statements {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("record store migration failed: %w", err)
		}
	}
	return nil
}

// Path returns the database file.
func (s *SQLiteStore) Path() string {
	return s.path
}

func (s *SQLiteStore) Insert(ctx context.Context, r *Record) error {
	doc, err := sonic.Marshal(r)
	if err != nil {
		return fmt.Errorf("encode record: %w", err)
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO records (id, status, created_at, doc) VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING`,
		r.ID, string(r.Status), r.CreatedAt.UnixNano(), string(doc))
	if err != nil {
		return fmt.Errorf("insert record: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: id %s already exists", ErrConflict, r.ID)
	}
	return nil
}

func (s *SQLiteStore) Get(ctx context.Context, id string) (*Record, error) {
	var doc string
	err := s.db.QueryRowContext(ctx, `SELECT doc FROM records WHERE id = ?`, id).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get record: %w", err)
	}
	return decode(doc)
}

func (s *SQLiteStore) List(ctx context.Context, f Filter) ([]*Record, error) {
	query := `SELECT doc FROM records ORDER BY created_at ASC, id ASC`
	args := []interface{}{}
	if f.Status != "" {
		query = `SELECT doc FROM records WHERE status = ? ORDER BY created_at ASC, id ASC`
		args = append(args, string(f.Status))
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	defer rows.Close()

	var out []*Record
	for rows.Next() {
		var doc string
		if err := rows.Scan(&doc); err != nil {
			return nil, fmt.Errorf("list records: %w", err)
		}
		r, err := decode(doc)
		if err != nil {
			return nil, err
		}
		if f.Match(r) {
			out = append(out, r)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	return out, nil
}

func (s *SQLiteStore) Replace(ctx context.Context, r *Record) error {
	doc, err := sonic.Marshal(r)
	if err != nil {
		return fmt.Errorf("encode record: %w", err)
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE records SET status = ?, doc = ? WHERE id = ?`,
		string(r.Status), string(doc), r.ID)
	if err != nil {
		return fmt.Errorf("replace record: %w", err)
	}
	return expectOne(res)
}

func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM records WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete record: %w", err)
	}
	return expectOne(res)
}

func (s *SQLiteStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM records`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count records: %w", err)
	}
	return n, nil
}

func (s *SQLiteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func decode(doc string) (*Record, error) {
	var r Record
	if err := sonic.UnmarshalString(doc, &r); err != nil {
		return nil, fmt.Errorf("decode record: %w", err)
	}
	return &r, nil
}

func expectOne(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
