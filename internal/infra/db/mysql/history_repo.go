package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"time"

	domain "github.com/bryanwahyu/marine-vision/internal/domain/history"
)

// HistoryRepository keeps the whole history log as a single key/value row.
type HistoryRepository struct {
	db        *sql.DB
	namespace string
}

func NewHistoryRepository(db *sql.DB, namespace string) *HistoryRepository {
	return &HistoryRepository{db: db, namespace: namespaceOrDefault(namespace)}
}

// Migrate creates the key/value table if it does not exist.
func (r *HistoryRepository) Migrate(ctx context.Context) error {
	const q = `
CREATE TABLE IF NOT EXISTS kv_store (
  namespace  VARCHAR(128) NOT NULL PRIMARY KEY,
  value      MEDIUMTEXT   NOT NULL,
  updated_at DATETIME(6)  NOT NULL
)`
	_, err := r.db.ExecContext(ctx, q)
	return err
}

// Append reads, prepends, truncates and writes back inside one transaction.
func (r *HistoryRepository) Append(ctx context.Context, e domain.Entry) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	const sel = `SELECT value FROM kv_store WHERE namespace=? FOR UPDATE`
	current, err := r.decodeRow(tx.QueryRowContext(ctx, sel, r.namespace))
	if err != nil {
		return err
	}
	if err := r.put(ctx, tx, domain.Prepend(current, e)); err != nil {
		return err
	}
	return tx.Commit()
}

// List returns the log newest first. A missing row or corrupt value reads as empty.
func (r *HistoryRepository) List(ctx context.Context) ([]domain.Entry, error) {
	const q = `SELECT value FROM kv_store WHERE namespace=? LIMIT 1`
	return r.decodeRow(r.db.QueryRowContext(ctx, q, r.namespace))
}

func (r *HistoryRepository) Clear(ctx context.Context) error {
	return r.put(ctx, r.db, []domain.Entry{})
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (r *HistoryRepository) put(ctx context.Context, ex execer, entries []domain.Entry) error {
	const q = `
INSERT INTO kv_store (namespace, value, updated_at)
VALUES (?,?,?)
ON DUPLICATE KEY UPDATE value=VALUES(value), updated_at=VALUES(updated_at)`
	data, err := domain.Encode(entries)
	if err != nil {
		return fmt.Errorf("encode history: %w", err)
	}
	_, err = ex.ExecContext(ctx, q, r.namespace, string(data), time.Now().UTC())
	return err
}

func (r *HistoryRepository) decodeRow(row *sql.Row) ([]domain.Entry, error) {
	var raw string
	if err := row.Scan(&raw); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return []domain.Entry{}, nil
		}
		return nil, err
	}
	entries, err := domain.Decode([]byte(raw))
	if err != nil {
		log.Printf("history corrupt, treating as empty namespace=%s error=%v", r.namespace, err)
	}
	return entries, nil
}
