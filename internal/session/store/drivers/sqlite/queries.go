package sqlite

import (
	"context"
	"database/sql"
	"time"
)

// dbtx is satisfied by both *sql.DB and *sql.Tx.
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type queries struct {
	db dbtx
}

func newQueries(db dbtx) *queries { return &queries{db: db} }

type userRow struct {
	ID           string
	Username     string
	PasswordHash string
	Roles        string
	DisabledAt   sql.NullTime
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

const userColumns = `id, username, password_hash, roles, disabled_at, created_at, updated_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanUser(s scanner) (userRow, error) {
	var r userRow
	err := s.Scan(&r.ID, &r.Username, &r.PasswordHash, &r.Roles, &r.DisabledAt, &r.CreatedAt, &r.UpdatedAt)
	return r, err
}

const getUserByID = `SELECT ` + userColumns + ` FROM users WHERE id = ?`

func (q *queries) GetUserByID(ctx context.Context, id string) (userRow, error) {
	return scanUser(q.db.QueryRowContext(ctx, getUserByID, id))
}

const getUserByUsername = `SELECT ` + userColumns + ` FROM users WHERE username = ?`

func (q *queries) GetUserByUsername(ctx context.Context, username string) (userRow, error) {
	return scanUser(q.db.QueryRowContext(ctx, getUserByUsername, username))
}

const createUser = `INSERT INTO users (id, username, password_hash, roles, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?)`

func (q *queries) CreateUser(ctx context.Context, r userRow) error {
	_, err := q.db.ExecContext(ctx, createUser, r.ID, r.Username, r.PasswordHash, r.Roles, r.CreatedAt, r.UpdatedAt)
	return err
}

const updateUserPasswordHash = `UPDATE users SET password_hash = ?, updated_at = ? WHERE id = ?`

func (q *queries) UpdateUserPasswordHash(ctx context.Context, id, hash string, now time.Time) (int64, error) {
	return affected(q.db.ExecContext(ctx, updateUserPasswordHash, hash, now, id))
}

const updateUserRoles = `UPDATE users SET roles = ?, updated_at = ? WHERE id = ?`

func (q *queries) UpdateUserRoles(ctx context.Context, id, roles string, now time.Time) (int64, error) {
	return affected(q.db.ExecContext(ctx, updateUserRoles, roles, now, id))
}

const updateUserDisabledAt = `UPDATE users SET disabled_at = ?, updated_at = ? WHERE id = ?`

func (q *queries) UpdateUserDisabledAt(ctx context.Context, id string, at sql.NullTime, now time.Time) (int64, error) {
	return affected(q.db.ExecContext(ctx, updateUserDisabledAt, at, now, id))
}

const deleteUser = `DELETE FROM users WHERE id = ?`

func (q *queries) DeleteUser(ctx context.Context, id string) (int64, error) {
	return affected(q.db.ExecContext(ctx, deleteUser, id))
}

const listUsers = `SELECT ` + userColumns + ` FROM users ORDER BY created_at, username`

func (q *queries) ListUsers(ctx context.Context) ([]userRow, error) {
	rows, err := q.db.QueryContext(ctx, listUsers)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []userRow
	for rows.Next() {
		r, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func affected(res sql.Result, err error) (int64, error) {
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
