package db

import (
	"context"
	"database/sql"
	"time"

	"github.com/doralyyyyy/Restaurant-Platform/pkg/api"
)

type scanner interface {
	Scan(dest ...any) error
}

const userColumns = `u.id, u.username, COALESCE(u.email, ''), u.password_hash, u.avatar, u.created_at`

func scanUser(row scanner) (api.User, error) {
	var u api.User
	if err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.Avatar, &u.CreatedAt); err != nil {
		return api.User{}, mapErr(err)
	}
	return u, nil
}

// CreateUser inserts u and returns it with its id. A taken username or email
// yields ErrConflict.
func (s *Store) CreateUser(ctx context.Context, u api.User) (api.User, error) {
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	res, err := s.q(ctx).ExecContext(ctx,
		`INSERT INTO users(username, email, password_hash, avatar, created_at) VALUES(?,?,?,?,?)`,
		u.Username, nullable(u.Email), u.PasswordHash, u.Avatar, u.CreatedAt.UTC())
	if err != nil {
		return api.User{}, mapErr(err)
	}
	if u.ID, err = res.LastInsertId(); err != nil {
		return api.User{}, err
	}
	return u, nil
}

func (s *Store) GetUser(ctx context.Context, id int64) (api.User, error) {
	return scanUser(s.q(ctx).QueryRowContext(ctx, `SELECT `+userColumns+` FROM users u WHERE u.id=?`, id))
}

func (s *Store) GetUserByUsername(ctx context.Context, username string) (api.User, error) {
	return scanUser(s.q(ctx).QueryRowContext(ctx, `SELECT `+userColumns+` FROM users u WHERE u.username=?`, username))
}

// ListUsers returns every user ordered by id.
func (s *Store) ListUsers(ctx context.Context) ([]api.User, error) {
	rows, err := s.q(ctx).QueryContext(ctx, `SELECT `+userColumns+` FROM users u ORDER BY u.id`)
	if err != nil {
		return nil, err
	}
	return collect(rows, scanUser)
}

// collect drains rows through scan and closes them.
func collect[T any](rows *sql.Rows, scan func(scanner) (T, error)) ([]T, error) {
	defer rows.Close()
	var out []T
	for rows.Next() {
		v, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}
