package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/aussiebroadwan/cookieauth/internal/session/domain"
	"github.com/aussiebroadwan/cookieauth/internal/session/service"
	"github.com/aussiebroadwan/cookieauth/internal/session/store"
	"github.com/aussiebroadwan/cookieauth/pkg/idx"
)

// UserAdmin manages accounts directly in the database, bypassing HTTP. It is
// how the first ROLE_ADMIN account gets created.
type UserAdmin struct {
	db    store.Store
	creds *service.Credentials
}

// OpenUserAdmin opens the configured database. Callers must Close it.
func OpenUserAdmin(cfg Config) (*UserAdmin, error) {
	db, err := OpenStore(cfg)
	if err != nil {
		return nil, err
	}
	hasher, err := newHasher(cfg)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return &UserAdmin{
		db:    db,
		creds: &service.Credentials{Store: db, Hasher: hasher},
	}, nil
}

// Add creates a user with roles (ROLE_USER when empty).
func (a *UserAdmin) Add(ctx context.Context, username, password string, roles []string) (domain.User, error) {
	return a.creds.Register(ctx, service.Registration{
		Username: username,
		Password: password,
		Roles:    roles,
	})
}

// List returns every account.
func (a *UserAdmin) List(ctx context.Context) ([]domain.User, error) {
	return a.db.Users().ListUsers(ctx)
}

// SetDisabled disables or re-enables a user. Outstanding tokens of a
// disabled user stop authenticating on their next request.
func (a *UserAdmin) SetDisabled(ctx context.Context, ref string, disabled bool) error {
	return a.db.WithTx(ctx, func(tx store.Tx) error {
		u, err := findUser(ctx, tx.Users(), ref)
		if err != nil {
			return err
		}
		return tx.Users().SetDisabled(ctx, u.ID, disabled)
	})
}

// SetRoles replaces the roles of a user.
func (a *UserAdmin) SetRoles(ctx context.Context, ref string, roles []string) error {
	normalized := make([]string, 0, len(roles))
	for _, r := range roles {
		if n := domain.NormalizeRole(r); n != "" {
			normalized = append(normalized, n)
		}
	}
	return a.db.WithTx(ctx, func(tx store.Tx) error {
		u, err := findUser(ctx, tx.Users(), ref)
		if err != nil {
			return err
		}
		return tx.Users().UpdateRoles(ctx, u.ID, normalized)
	})
}

// SetPassword replaces the password of a user.
func (a *UserAdmin) SetPassword(ctx context.Context, ref, password string) error {
	u, err := findUser(ctx, a.db.Users(), ref)
	if err != nil {
		return err
	}
	return a.creds.SetPassword(ctx, u.ID, password)
}

// Delete removes a user. Their cookies stop authenticating on the next
// request.
func (a *UserAdmin) Delete(ctx context.Context, ref string) (domain.User, error) {
	var deleted domain.User
	err := a.db.WithTx(ctx, func(tx store.Tx) error {
		u, err := findUser(ctx, tx.Users(), ref)
		if err != nil {
			return err
		}
		deleted = u
		return tx.Users().DeleteUser(ctx, u.ID)
	})
	return deleted, err
}

func (a *UserAdmin) Close() error { return a.db.Close() }

// findUser resolves ref as a user id first, then as a username.
func findUser(ctx context.Context, users store.Users, ref string) (domain.User, error) {
	if _, err := idx.Parse(ref); err == nil {
		u, err := users.GetUserByID(ctx, ref)
		if err == nil {
			return u, nil
		}
		if !errors.Is(err, store.ErrNotFound) {
			return domain.User{}, fmt.Errorf("user %q: %w", ref, err)
		}
	}
	u, err := users.GetUserByUsername(ctx, ref)
	if err != nil {
		return domain.User{}, fmt.Errorf("user %q: %w", ref, err)
	}
	return u, nil
}
