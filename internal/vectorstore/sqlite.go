package vectorstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// OpenSQLite opens or creates the database file shared by every SQLite
// backed index.
func OpenSQLite(dbPath string) (*sql.DB, error) {
	if dir := filepath.Dir(dbPath); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	if err := migrate(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return db, nil
}

func migrate(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS records (
		index_name TEXT NOT NULL,
		id         TEXT NOT NULL,
		text       TEXT NOT NULL,
		metadata   TEXT,
		embedding  TEXT,
		PRIMARY KEY (index_name, id)
	);
	`
	_, err := db.Exec(schema)
	return err
}

// SQLiteStore scans the whole index on Query; catalogs here are small.
type SQLiteStore struct {
	db    *sql.DB
	index string
}

// NewSQLiteStore binds a store to index on a database from OpenSQLite.
func NewSQLiteStore(db *sql.DB, index string) *SQLiteStore {
	return &SQLiteStore{db: db, index: index}
}

func (s *SQLiteStore) Upsert(ctx context.Context, records ...Record) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR REPLACE INTO records (index_name, id, text, metadata, embedding)
		VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("prepare upsert: %w", err)
	}
	defer stmt.Close()

	for _, r := range records {
		meta, err := json.Marshal(r.Metadata)
		if err != nil {
			return fmt.Errorf("encode metadata %s: %w", r.ID, err)
		}
		emb, err := json.Marshal(r.Embedding)
		if err != nil {
			return fmt.Errorf("encode embedding %s: %w", r.ID, err)
		}
		if _, err := stmt.ExecContext(ctx, s.index, r.ID, r.Text, string(meta), string(emb)); err != nil {
			return fmt.Errorf("upsert record %s: %w", r.ID, err)
		}
	}

	return tx.Commit()
}

func (s *SQLiteStore) Fetch(ctx context.Context, id string) (*Record, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, text, metadata, embedding FROM records WHERE index_name = ? AND id = ?`,
		s.index, id)
	r, err := scanRecord(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("fetch record %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("fetch record %s: %w", id, err)
	}
	return r, nil
}

func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM records WHERE index_name = ? AND id = ?`, s.index, id)
	if err != nil {
		return fmt.Errorf("delete record %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete record %s: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("delete record %s: %w", id, ErrNotFound)
	}
	return nil
}

func (s *SQLiteStore) Query(ctx context.Context, vector []float64, topK int) ([]Match, error) {
	records, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	return rank(records, vector, topK), nil
}

func (s *SQLiteStore) List(ctx context.Context) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, text, metadata, embedding FROM records WHERE index_name = ? ORDER BY id`,
		s.index)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	defer rows.Close()

	records := []Record{}
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		records = append(records, *r)
	}
	return records, rows.Err()
}

// Close is a no-op; the *sql.DB is shared between indexes and closed by its
// opener.
func (s *SQLiteStore) Close() error {
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(sc scanner) (*Record, error) {
	var (
		r         Record
		meta, emb sql.NullString
	)
	if err := sc.Scan(&r.ID, &r.Text, &meta, &emb); err != nil {
		return nil, err
	}
	if meta.Valid && meta.String != "" && meta.String != "null" {
		if err := json.Unmarshal([]byte(meta.String), &r.Metadata); err != nil {
			return nil, fmt.Errorf("decode metadata %s: %w", r.ID, err)
		}
	}
	if emb.Valid && emb.String != "" && emb.String != "null" {
		if err := json.Unmarshal([]byte(emb.String), &r.Embedding); err != nil {
			return nil, fmt.Errorf("decode embedding %s: %w", r.ID, err)
		}
	}
	return &r, nil
}
