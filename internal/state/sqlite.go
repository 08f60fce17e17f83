package state

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db   *sql.DB
	path string
}

var _ Store = (*SQLiteStore)(nil)

// NewSQLiteStore creates a new SQLite store instance.
func NewSQLiteStore() *SQLiteStore {
	return &SQLiteStore{}
}

// Open opens a connection to the SQLite database.
// Use ":memory:" for an in-memory database.
func (s *SQLiteStore) Open(path string) error {
	dsn := path
	if path != ":memory:" {
		dsn = fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)", path)
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return fmt.Errorf("failed to open state database: %w", err)
	}
	if path == ":memory:" {
		// Each pooled connection would otherwise see its own empty database.
		db.SetMaxOpenConns(1)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return fmt.Errorf("failed to ping state database: %w", err)
	}

	s.db = db
	s.path = path
	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// DB exposes the underlying connection for tests.
func (s *SQLiteStore) DB() *sql.DB {
	return s.db
}

// SetDB injects a connection, bypassing Open. Used with sqlmock in tests.
func (s *SQLiteStore) SetDB(db *sql.DB) {
	s.db = db
}

// SaveReceipt inserts a receipt, assigning an ID and timestamp when unset.
func (s *SQLiteStore) SaveReceipt(r *Receipt) error {
	if s.db == nil {
		return errors.New("database not opened")
	}
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.Exec(
		`INSERT INTO receipts (id, kind, tools, shim_dir, backup_id, version, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.Kind, strings.Join(r.Tools, ","), r.ShimDir, r.BackupID, r.Version,
		r.CreatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to save receipt: %w", err)
	}
	return nil
}

// ListReceipts returns the most recent receipts, newest first.
func (s *SQLiteStore) ListReceipts(limit int) ([]*Receipt, error) {
	if s.db == nil {
		return nil, errors.New("database not opened")
	}
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.db.Query(
		`SELECT id, kind, tools, shim_dir, backup_id, version, created_at
		 FROM receipts ORDER BY created_at DESC, id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list receipts: %w", err)
	}
	defer rows.Close()

	var receipts []*Receipt
	for rows.Next() {
		r, err := scanReceipt(rows)
		if err != nil {
			return nil, err
		}
		receipts = append(receipts, r)
	}
	return receipts, rows.Err()
}

// LastReceipt returns the most recent receipt of the given kind, or nil.
func (s *SQLiteStore) LastReceipt(kind string) (*Receipt, error) {
	if s.db == nil {
		return nil, errors.New("database not opened")
	}

	row := s.db.QueryRow(
		`SELECT id, kind, tools, shim_dir, backup_id, version, created_at
		 FROM receipts WHERE kind = ? ORDER BY created_at DESC, id LIMIT 1`, kind)
	r, err := scanReceipt(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return r, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanReceipt(row scanner) (*Receipt, error) {
	var r Receipt
	var tools, createdAt string
	if err := row.Scan(&r.ID, &r.Kind, &tools, &r.ShimDir, &r.BackupID, &r.Version, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan receipt: %w", err)
	}
	if tools != "" {
		r.Tools = strings.Split(tools, ",")
	}
	ts, err := time.Parse(time.RFC3339, createdAt)
	if err != nil {
		return nil, fmt.Errorf("invalid receipt timestamp %q: %w", createdAt, err)
	}
	r.CreatedAt = ts
	return &r, nil
}

// SaveVerification inserts a doctor run result.
func (s *SQLiteStore) SaveVerification(v *Verification) error {
	if s.db == nil {
		return errors.New("database not opened")
	}
	if v.ID == "" {
		v.ID = uuid.New().String()
	}
	if v.CreatedAt.IsZero() {
		v.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.Exec(
		`INSERT INTO verifications (id, score, passed, warned, failed, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		v.ID, v.Score, v.Passed, v.Warned, v.Failed, v.CreatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to save verification: %w", err)
	}
	return nil
}

// LastVerification returns the most recent doctor run, or nil.
func (s *SQLiteStore) LastVerification() (*Verification, error) {
	if s.db == nil {
		return nil, errors.New("database not opened")
	}

	var v Verification
	var createdAt string
	err := s.db.QueryRow(
		`SELECT id, score, passed, warned, failed, created_at
		 FROM verifications ORDER BY created_at DESC, id LIMIT 1`).
		Scan(&v.ID, &v.Score, &v.Passed, &v.Warned, &v.Failed, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load verification: %w", err)
	}
	ts, err := time.Parse(time.RFC3339, createdAt)
	if err != nil {
		return nil, fmt.Errorf("invalid verification timestamp %q: %w", createdAt, err)
	}
	v.CreatedAt = ts
	return &v, nil
}
