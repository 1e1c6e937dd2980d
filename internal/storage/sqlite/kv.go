package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sqlitedb "github.com/agalitsyn/sqlite"

	"github.com/Shiraishi0303/todo-claude-code/internal/model"
	"github.com/Shiraishi0303/todo-claude-code/internal/storage/sqlite/migrations"
)

type KVStorage struct {
	db *sql.DB
}

// Open connects to the database file at path and applies pending migrations.
func Open(path string) (*KVStorage, error) {
	db, err := sqlitedb.Connect(path)
	if err != nil {
		return nil, err
	}

	if err := sqlitedb.MigrateUp(db, migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("could not migrate database: %w", err)
	}

	return NewKVStorage(db), nil
}

func NewKVStorage(db *sql.DB) *KVStorage {
	return &KVStorage{db: db}
}

func (s *KVStorage) Get(ctx context.Context, key string) ([]byte, error) {
	const q = `SELECT value FROM kv WHERE key = ?`
	var value []byte
	err := s.db.QueryRowContext(ctx, q, key).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrKeyNotFound
		}
		return nil, fmt.Errorf("could not get %q: %w", key, err)
	}
	return value, nil
}

func (s *KVStorage) Set(ctx context.Context, key string, value []byte) error {
	const q = `
		INSERT INTO kv (key, value, created_at, updated_at)
		VALUES (?, ?, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP
	`
	if value == nil {
		value = []byte{}
	}
	if _, err := s.db.ExecContext(ctx, q, key, value); err != nil {
		return fmt.Errorf("could not set %q: %w", key, err)
	}
	return nil
}

func (s *KVStorage) Close() error {
	return s.db.Close()
}
