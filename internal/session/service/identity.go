package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/aussiebroadwan/cookieauth/internal/session/store"
	"github.com/aussiebroadwan/cookieauth/pkg/httpx"
)

// Identities resolves token subjects into request principals.
type Identities struct {
	Store store.Store
}

// ResolvePrincipal loads username and its granted roles. Missing and
// disabled accounts map to httpx.ErrPrincipalNotFound; every other failure
// (including a cancelled lookup) maps to httpx.ErrStoreUnavailable.
func (s *Identities) ResolvePrincipal(ctx context.Context, username string) (httpx.Principal, error) {
	user, err := s.Store.Users().GetUserByUsername(ctx, username)
	switch {
	case errors.Is(err, store.ErrNotFound):
		return httpx.Principal{}, httpx.ErrPrincipalNotFound
	case err != nil:
		return httpx.Principal{}, fmt.Errorf("%w: %v", httpx.ErrStoreUnavailable, err)
	case !user.Active():
		return httpx.Principal{}, httpx.ErrPrincipalNotFound
	}

	roles := make([]httpx.Role, 0, len(user.Roles))
	for _, r := range user.Roles {
		roles = append(roles, httpx.Role(r))
	}
	return httpx.Principal{Username: user.Username, Roles: roles}, nil
}
