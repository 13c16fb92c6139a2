package store

import (
	"context"
	"errors"

	"github.com/aussiebroadwan/cookieauth/internal/session/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store is the root data access interface implemented by concrete drivers.
// Sub-repositories hang off it so a transaction-scoped Store can hand out
// the same repos without allowing nested transactions.
type Store interface {
	Users() Users

	ApplyMigrations() error

	// Tx starts a read/write transaction and returns a Tx-scoped Store.
	// The caller MUST call Commit() or Rollback() on the returned Tx.
	Tx(ctx context.Context) (Tx, error)

	// WithTx runs fn in a transaction, committing when fn returns nil.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

// Tx is a transactional store. It embeds the same repos but adds Commit/Rollback.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

type Users interface {
	GetUserByID(ctx context.Context, id string) (domain.User, error)

	// GetUserByUsername is used by credential checks and principal lookup.
	GetUserByUsername(ctx context.Context, username string) (domain.User, error)

	// CreateUser inserts a new user (id is provided by the caller via ULID).
	// Returns ErrAlreadyExists when the username is taken.
	CreateUser(ctx context.Context, u domain.User) error

	UpdatePasswordHash(ctx context.Context, userID, newHash string) error
	UpdateRoles(ctx context.Context, userID string, roles []string) error

	// SetDisabled toggles disabled_at. Disabled users resolve as not found.
	SetDisabled(ctx context.Context, userID string, disabled bool) error

	DeleteUser(ctx context.Context, userID string) error

	ListUsers(ctx context.Context) ([]domain.User, error)
}
