// Package db is the SQLite persistence layer for users, restaurants, menus,
// orders, blacklists and carts.
package db

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"strings"
)

var (
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("conflict")
)

// Store is safe for concurrent use. Methods join the transaction carried by
// ctx when there is one (see InTx).
type Store struct {
	db *sql.DB
}

// Open connects to the sqlite database at dsn ("sqlite://path" or a bare
// path) and brings the schema up to date.
func Open(ctx context.Context, dsn string) (*Store, io.Closer, error) {
	return openSQLite(ctx, dsn)
}

type queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *Store) q(ctx context.Context) queryer {
	if tx := TxFromContext(ctx); tx != nil {
		return tx
	}
	return s.db
}

// Ping reports whether the database answers.
func (s *Store) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }

func mapErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, sql.ErrNoRows):
		return ErrNotFound
	case strings.Contains(err.Error(), "UNIQUE"):
		return ErrConflict
	}
	return err
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
