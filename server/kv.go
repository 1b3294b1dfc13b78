package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

// KV is the snapshot store: a single key/value table holding the two
// wholesale-serialized collections (teams, users). The embedded sqlite
// backend is the default; postgres is available for shared deployments.
// The $N placeholder form and the upsert below are valid in both dialects.
type KV struct {
	db *sql.DB
}

// OpenKV opens the snapshot store. driver is "sqlite" or "postgres".
func OpenKV(ctx context.Context, driver, dsn string) (*KV, error) {
	var db *sql.DB
	var err error
	switch driver {
	case "sqlite":
		db, err = sql.Open("sqlite", dsn)
	case "postgres":
		db, err = sql.Open("pgx", dsn)
	default:
		return nil, fmt.Errorf("unknown kv driver %q", driver)
	}
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	kv := &KV{db: db}
	if err := kv.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return kv, nil
}

func (s *KV) migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `create table if not exists kv(
		key text primary key,
		value text not null
	)`)
	return err
}

func (s *KV) Close() error { return s.db.Close() }

func (s *KV) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }

// Get returns the value for key, or ErrNotFound.
func (s *KV) Get(ctx context.Context, key string) (string, error) {
	var v string
	err := s.db.QueryRowContext(ctx, `select value from kv where key=$1`, key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	return v, err
}

// Set overwrites the value for key in full. Single attempt, no retries.
func (s *KV) Set(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx,
		`insert into kv(key, value) values($1,$2)
		 on conflict(key) do update set value=excluded.value`, key, value)
	return err
}
