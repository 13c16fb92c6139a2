package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/aussiebroadwan/cookieauth/internal/session/domain"
	"github.com/aussiebroadwan/cookieauth/internal/session/store"
	"github.com/aussiebroadwan/cookieauth/pkg/cryptox"
	"github.com/aussiebroadwan/cookieauth/pkg/idx"
	"github.com/aussiebroadwan/cookieauth/pkg/slogx"
)

var (
	ErrInvalidCredentials  = errors.New("invalid_credentials")
	ErrUsernameTaken       = errors.New("username_taken")
	ErrInvalidRegistration = errors.New("invalid_registration")
	ErrInvalidPassword     = errors.New("invalid_password")
)

const passwordRule = "required,min=8,max=128"

var usernamePattern = regexp.MustCompile(`^[A-Za-z0-9._-]+$`)

// Registration is the validated input for creating an account.
type Registration struct {
	Username string   `validate:"required,min=3,max=64,username"`
	Password string   `validate:"required,min=8,max=128"`
	Roles    []string `validate:"omitempty,dive,required"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("username", func(fl validator.FieldLevel) bool {
		return usernamePattern.MatchString(fl.Field().String())
	})
	return v
}

// Credentials checks username/password pairs against the user store and
// creates new accounts.
type Credentials struct {
	Store  store.Store
	Hasher *cryptox.Hasher
}

// VerifyCredentials returns the roles of username when password matches.
// Unknown users, disabled users and wrong passwords all return
// ErrInvalidCredentials after the same amount of hashing work.
func (s *Credentials) VerifyCredentials(ctx context.Context, username, password string) ([]string, error) {
	l := slogx.FromContext(ctx)
	username = strings.TrimSpace(username)

	user, err := s.Store.Users().GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			_ = s.Hasher.VerifyDummy(password)
			l.Info("login for unknown user", slog.String("username", username))
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("lookup user: %w", err)
	}

	if err := s.Hasher.Verify(password, user.PasswordHash); err != nil {
		if !errors.Is(err, cryptox.ErrPasswordMismatch) {
			l.Error("stored password hash is unreadable",
				slog.String("user_id", user.ID),
				slog.Any("error", err),
			)
		}
		return nil, ErrInvalidCredentials
	}

	if !user.Active() {
		l.Info("login for disabled user", slog.String("user_id", user.ID))
		return nil, ErrInvalidCredentials
	}

	return user.Roles, nil
}

// Register creates an account. Roles default to ROLE_USER when none are given.
func (s *Credentials) Register(ctx context.Context, reg Registration) (domain.User, error) {
	reg.Username = strings.TrimSpace(reg.Username)
	if err := validate.Struct(reg); err != nil {
		return domain.User{}, fmt.Errorf("%w: %v", ErrInvalidRegistration, err)
	}

	roles := make([]string, 0, len(reg.Roles))
	for _, r := range reg.Roles {
		roles = append(roles, domain.NormalizeRole(r))
	}
	if len(roles) == 0 {
		roles = []string{domain.RoleUser}
	}

	hash, err := s.Hasher.Hash(reg.Password)
	if err != nil {
		return domain.User{}, fmt.Errorf("hash password: %w", err)
	}

	user := domain.User{
		ID:           idx.New().String(),
		Username:     reg.Username,
		PasswordHash: hash,
		Roles:        roles,
	}
	if err := s.Store.Users().CreateUser(ctx, user); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return domain.User{}, ErrUsernameTaken
		}
		return domain.User{}, fmt.Errorf("create user: %w", err)
	}

	slogx.FromContext(ctx).Info("user registered",
		slog.String("user_id", user.ID),
		slog.String("username", user.Username),
		slog.Any("roles", user.Roles),
	)
	return user, nil
}

// SetPassword replaces the password of userID. The user's outstanding cookies
// stay valid until they expire.
func (s *Credentials) SetPassword(ctx context.Context, userID, password string) error {
	if err := validate.Var(password, passwordRule); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPassword, err)
	}

	hash, err := s.Hasher.Hash(password)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := s.Store.Users().UpdatePasswordHash(ctx, userID, hash); err != nil {
		return fmt.Errorf("update password: %w", err)
	}

	slogx.FromContext(ctx).Info("password changed", slog.String("user_id", userID))
	return nil
}
