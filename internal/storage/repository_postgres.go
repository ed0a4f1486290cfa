package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
)

// PostgresStorage stores device values in a dedicated table.
// Table layout expected:
//
//	device_id text not null,
//	key text not null,
//	value text not null,
//	updated_at timestamptz not null default now(),
//	primary key (device_id, key)
type PostgresStorage struct {
	db *sql.DB
}

const (
	CreateTableQuery = `
        CREATE TABLE IF NOT EXISTS device_storage (
            device_id TEXT NOT NULL,
            key TEXT NOT NULL,
            value TEXT NOT NULL,
            updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
            PRIMARY KEY (device_id, key)
        )
    `
	getValueQuery = `
        SELECT value FROM device_storage WHERE device_id = $1 AND key = $2
    `
	upsertValueQuery = `
        INSERT INTO device_storage (device_id, key, value, updated_at)
        VALUES ($1, $2, $3, NOW())
        ON CONFLICT (device_id, key) DO UPDATE SET value = EXCLUDED.value, updated_at = NOW()
    `
	deleteValuesQuery = `
        DELETE FROM device_storage WHERE device_id = $1 AND key = ANY($2::text[])
    `
)

func NewPostgresStorage(db *sql.DB) *PostgresStorage {
	return &PostgresStorage{db: db}
}

// EnsureSchema creates the device_storage table when missing.
func (r *PostgresStorage) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, CreateTableQuery); err != nil {
		return fmt.Errorf("create device_storage: %w", err)
	}
	return nil
}

func (r *PostgresStorage) Get(ctx context.Context, deviceID, key string) (string, error) {
	var v string
	if err := r.db.QueryRowContext(ctx, getValueQuery, deviceID, key).Scan(&v); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrNotFound
		}
		return "", err
	}
	return v, nil
}

func (r *PostgresStorage) Set(ctx context.Context, deviceID, key, value string) error {
	_, err := r.db.ExecContext(ctx, upsertValueQuery, deviceID, key, value)
	return err
}

func (r *PostgresStorage) Delete(ctx context.Context, deviceID string, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	_, err := r.db.ExecContext(ctx, deleteValuesQuery, deviceID, pq.Array(keys))
	return err
}
