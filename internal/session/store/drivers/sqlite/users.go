package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/aussiebroadwan/cookieauth/internal/session/domain"
	"github.com/aussiebroadwan/cookieauth/internal/session/store"
)

type usersRepo struct {
	q   *queries
	now func() time.Time
}

func (r *usersRepo) GetUserByID(ctx context.Context, id string) (domain.User, error) {
	row, err := r.q.GetUserByID(ctx, id)
	if err != nil {
		return domain.User{}, mapNotFound(err)
	}
	return mapUser(row), nil
}

func (r *usersRepo) GetUserByUsername(ctx context.Context, username string) (domain.User, error) {
	row, err := r.q.GetUserByUsername(ctx, username)
	if err != nil {
		return domain.User{}, mapNotFound(err)
	}
	return mapUser(row), nil
}

func (r *usersRepo) CreateUser(ctx context.Context, u domain.User) error {
	now := r.now()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}
	err := r.q.CreateUser(ctx, userRow{
		ID:           u.ID,
		Username:     u.Username,
		PasswordHash: u.PasswordHash,
		Roles:        joinRoles(u.Roles),
		CreatedAt:    u.CreatedAt.UTC(),
		UpdatedAt:    now,
	})
	return mapConstraint(err)
}

func (r *usersRepo) UpdatePasswordHash(ctx context.Context, userID, newHash string) error {
	return requireRow(r.q.UpdateUserPasswordHash(ctx, userID, newHash, r.now()))
}

func (r *usersRepo) UpdateRoles(ctx context.Context, userID string, roles []string) error {
	return requireRow(r.q.UpdateUserRoles(ctx, userID, joinRoles(roles), r.now()))
}

func (r *usersRepo) SetDisabled(ctx context.Context, userID string, disabled bool) error {
	now := r.now()
	at := sql.NullTime{Time: now, Valid: disabled}
	return requireRow(r.q.UpdateUserDisabledAt(ctx, userID, at, now))
}

func (r *usersRepo) DeleteUser(ctx context.Context, userID string) error {
	return requireRow(r.q.DeleteUser(ctx, userID))
}

func (r *usersRepo) ListUsers(ctx context.Context) ([]domain.User, error) {
	rows, err := r.q.ListUsers(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]domain.User, 0, len(rows))
	for _, row := range rows {
		out = append(out, mapUser(row))
	}
	return out, nil
}

func requireRow(n int64, err error) error {
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}
