package denylist

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/starford/torlist/internal/apperr"
	"github.com/starford/torlist/internal/models"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS denylist (
	id         TEXT PRIMARY KEY,
	hash       TEXT NOT NULL,
	reason     TEXT NOT NULL,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_denylist_hash ON denylist(hash);
`

// SQLite is the default Repository, one row per entry.
type SQLite struct {
	conn *sql.DB
	now  func() time.Time
}

// OpenSQLite opens (or creates) the database at path and applies the schema.
func OpenSQLite(path string) (*SQLite, error) {
	conn, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("denylist: open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("denylist: ping: %w", err)
	}
	if _, err := conn.Exec(schemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("denylist: apply schema: %w", err)
	}
	return &SQLite{conn: conn, now: func() time.Time { return time.Now().UTC() }}, nil
}

// Close closes the underlying connection.
func (s *SQLite) Close() error {
	return s.conn.Close()
}

// Ping checks the connection.
func (s *SQLite) Ping(ctx context.Context) error {
	if err := s.conn.PingContext(ctx); err != nil {
		return apperr.Wrap(apperr.KindUnavailable, "denylist: ping", err)
	}
	return nil
}

func (s *SQLite) Insert(ctx context.Context, hash, reason string) (models.DenylistEntry, error) {
	now := s.now()
	e := models.DenylistEntry{
		ID:        uuid.NewString(),
		Hash:      hash,
		Reason:    reason,
		CreatedAt: now,
		UpdatedAt: now,
	}
	_, err := s.conn.ExecContext(ctx,
		`INSERT INTO denylist (id, hash, reason, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		e.ID, e.Hash, e.Reason, e.CreatedAt, e.UpdatedAt)
	if err != nil {
		return models.DenylistEntry{}, apperr.Wrap(apperr.KindUnavailable, "denylist: insert", err)
	}
	return e, nil
}

func (s *SQLite) FindAll(ctx context.Context) ([]models.DenylistEntry, error) {
	rows, err := s.conn.QueryContext(ctx,
		`SELECT id, hash, reason, created_at, updated_at FROM denylist ORDER BY created_at, rowid`)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindUnavailable, "denylist: find all", err)
	}
	defer rows.Close()

	out := []models.DenylistEntry{}
	for rows.Next() {
		var e models.DenylistEntry
		if err := rows.Scan(&e.ID, &e.Hash, &e.Reason, &e.CreatedAt, &e.UpdatedAt); err != nil {
			return nil, apperr.Wrap(apperr.KindInternal, "denylist: scan", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Wrap(apperr.KindUnavailable, "denylist: find all", err)
	}
	return out, nil
}

// FindByHash returns the oldest entry for hash.
func (s *SQLite) FindByHash(ctx context.Context, hash string) (models.DenylistEntry, error) {
	return s.findOne(ctx, "denylist: find by hash",
		`SELECT id, hash, reason, created_at, updated_at FROM denylist WHERE hash = ? ORDER BY created_at, rowid LIMIT 1`, hash)
}

// FindByID returns MalformedID for anything that is not a UUID.
func (s *SQLite) FindByID(ctx context.Context, id string) (models.DenylistEntry, error) {
	const op = "denylist: find by id"
	if _, err := uuid.Parse(id); err != nil {
		return models.DenylistEntry{}, apperr.Wrap(apperr.KindMalformedID, op, err)
	}
	return s.findOne(ctx, op,
		`SELECT id, hash, reason, created_at, updated_at FROM denylist WHERE id = ?`, id)
}

func (s *SQLite) findOne(ctx context.Context, op, query string, arg string) (models.DenylistEntry, error) {
	var e models.DenylistEntry
	err := s.conn.QueryRowContext(ctx, query, arg).
		Scan(&e.ID, &e.Hash, &e.Reason, &e.CreatedAt, &e.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.DenylistEntry{}, apperr.NotFound(op)
	}
	if err != nil {
		return models.DenylistEntry{}, apperr.Wrap(apperr.KindUnavailable, op, err)
	}
	return e, nil
}

// Save writes hash and reason of e and bumps UpdatedAt.
func (s *SQLite) Save(ctx context.Context, e models.DenylistEntry) (models.DenylistEntry, error) {
	const op = "denylist: save"
	e.UpdatedAt = s.now()
	res, err := s.conn.ExecContext(ctx,
		`UPDATE denylist SET hash = ?, reason = ?, updated_at = ? WHERE id = ?`,
		e.Hash, e.Reason, e.UpdatedAt, e.ID)
	if err != nil {
		return models.DenylistEntry{}, apperr.Wrap(apperr.KindUnavailable, op, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return models.DenylistEntry{}, apperr.NotFound(op)
	}
	return e, nil
}

func (s *SQLite) Remove(ctx context.Context, id string) error {
	const op = "denylist: remove"
	res, err := s.conn.ExecContext(ctx, `DELETE FROM denylist WHERE id = ?`, id)
	if err != nil {
		return apperr.Wrap(apperr.KindUnavailable, op, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.NotFound(op)
	}
	return nil
}
