package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
)

const userColumns = "id, username, password_hash, role, created_at"

func (p *PG) scanUser(row pgx.Row) (*User, error) {
	var u User
	if err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.Role, &u.CreatedAt); err != nil {
		return nil, err
	}
	return &u, nil
}

// GetUserByUsername resolves a user for login. Returns (nil, nil) when
// the username is unknown.
func (p *PG) GetUserByUsername(ctx context.Context, username string) (*User, error) {
	u, err := p.scanUser(p.pool.QueryRow(ctx,
		"SELECT "+userColumns+" FROM users WHERE username = $1", username))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user by username %s: %w", username, err)
	}
	return u, nil
}

// GetUserByID loads one user. Returns (nil, nil) when absent.
func (p *PG) GetUserByID(ctx context.Context, id string) (*User, error) {
	u, err := p.scanUser(p.pool.QueryRow(ctx,
		"SELECT "+userColumns+" FROM users WHERE id = $1", id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user %s: %w", id, err)
	}
	return u, nil
}

// UpsertUser inserts a user or refreshes its password hash and role.
// Used by the seeder.
func (p *PG) UpsertUser(ctx context.Context, u *User) error {
	_, err := p.pool.Exec(ctx, `
		INSERT INTO users (id, username, password_hash, role)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (username) DO UPDATE
		SET password_hash = EXCLUDED.password_hash, role = EXCLUDED.role`,
		u.ID, u.Username, u.PasswordHash, u.Role,
	)
	if err != nil {
		return fmt.Errorf("upsert user %s: %w", u.Username, err)
	}
	return nil
}
