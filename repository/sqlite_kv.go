package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/akinalp/feedmark/database"
)

// sqliteKVRepo, KVRepository'nin kv_slots tablosu üzerindeki implementasyonu.
//
// SetMany transaction açabilmek için *sql.DB'ye ihtiyaç duyar; tekil
// sorgular TxQuerier üzerinden çalışır.
type sqliteKVRepo struct {
	conn *sql.DB
	db   database.TxQuerier
}

// NewSQLiteKVRepo, constructor, interface döner.
func NewSQLiteKVRepo(conn *sql.DB) KVRepository {
	return &sqliteKVRepo{conn: conn, db: conn}
}

func (r *sqliteKVRepo) Get(ctx context.Context, namespace, key string) (string, bool, error) {
	var value string
	err := r.db.QueryRowContext(ctx,
		`SELECT value FROM kv_slots WHERE namespace = ? AND key = ?`,
		namespace, key,
	).Scan(&value)

	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to get slot %s: %w", key, err)
	}
	return value, true, nil
}

func (r *sqliteKVRepo) Set(ctx context.Context, namespace, key, value string) error {
	return upsertSlot(ctx, r.db, namespace, key, value)
}

// SetMany, tüm slot'ları tek transaction'da upsert eder. Yarıda kalan bir
// yazma, threshold ile exception listelerini uyumsuz bırakamaz.
func (r *sqliteKVRepo) SetMany(ctx context.Context, namespace string, values map[string]string) error {
	return database.WithTx(ctx, r.conn, func(tx *sql.Tx) error {
		for key, value := range values {
			if err := upsertSlot(ctx, tx, namespace, key, value); err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *sqliteKVRepo) DeleteNamespace(ctx context.Context, namespace string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM kv_slots WHERE namespace = ?`, namespace)
	if err != nil {
		return fmt.Errorf("failed to delete slots: %w", err)
	}
	return nil
}

// upsertSlot, PRIMARY KEY (namespace, key) çakışırsa değeri günceller.
func upsertSlot(ctx context.Context, q database.TxQuerier, namespace, key, value string) error {
	query := `
		INSERT INTO kv_slots (namespace, key, value, updated_at)
		VALUES (?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(namespace, key)
		DO UPDATE SET value = excluded.value,
		              updated_at = excluded.updated_at`

	if _, err := q.ExecContext(ctx, query, namespace, key, value); err != nil {
		return fmt.Errorf("failed to upsert slot %s: %w", key, err)
	}
	return nil
}
