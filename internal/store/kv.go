package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

// kvRepo implements KVRepo over the kv_blobs table.
type kvRepo struct {
	db *sqlx.DB
}

type kvRow struct {
	Namespace string `db:"namespace"`
	Key       string `db:"key"`
	Value     []byte `db:"value"`
	UpdatedAt int64  `db:"updated_at"`
}

const upsertKV = `INSERT INTO kv_blobs (namespace, key, value, updated_at)
	VALUES (?, ?, ?, ?)
	ON CONFLICT (namespace, key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`

func (r *kvRepo) Get(ctx context.Context, namespace, key string) ([]byte, bool, error) {
	var value []byte
	err := r.db.GetContext(ctx, &value,
		`SELECT value FROM kv_blobs WHERE namespace = ? AND key = ?`, namespace, key)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get %s/%s: %w", namespace, key, err)
	}
	return value, true, nil
}

func (r *kvRepo) Put(ctx context.Context, namespace, key string, value []byte) error {
	_, err := r.db.ExecContext(ctx, upsertKV, namespace, key, value, time.Now().UnixMilli())
	if err != nil {
		return fmt.Errorf("put %s/%s: %w", namespace, key, err)
	}
	return nil
}

func (r *kvRepo) PutAll(ctx context.Context, namespace string, values map[string][]byte) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UnixMilli()
	for key, value := range values {
		if _, err := tx.ExecContext(ctx, upsertKV, namespace, key, value, now); err != nil {
			return fmt.Errorf("put %s/%s: %w", namespace, key, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (r *kvRepo) Delete(ctx context.Context, namespace string, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	query, args, err := sqlx.In(`DELETE FROM kv_blobs WHERE namespace = ? AND key IN (?)`, namespace, keys)
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, r.db.Rebind(query), args...); err != nil {
		return fmt.Errorf("delete %s: %w", namespace, err)
	}
	return nil
}

func (r *kvRepo) Entries(ctx context.Context, key string) ([]KVEntry, error) {
	var rows []kvRow
	err := r.db.SelectContext(ctx, &rows,
		`SELECT namespace, key, value, updated_at FROM kv_blobs WHERE key = ? ORDER BY namespace`, key)
	if err != nil {
		return nil, fmt.Errorf("entries %s: %w", key, err)
	}

	entries := make([]KVEntry, len(rows))
	for i, row := range rows {
		entries[i] = KVEntry{
			Namespace: row.Namespace,
			Key:       row.Key,
			Value:     row.Value,
			UpdatedAt: time.UnixMilli(row.UpdatedAt),
		}
	}
	return entries, nil
}

func (r *kvRepo) Namespaces(ctx context.Context) ([]string, error) {
	var out []string
	if err := r.db.SelectContext(ctx, &out, `SELECT DISTINCT namespace FROM kv_blobs ORDER BY namespace`); err != nil {
		return nil, fmt.Errorf("namespaces: %w", err)
	}
	return out, nil
}
