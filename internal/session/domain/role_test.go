package domain

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalizeRole(t *testing.T) {
	tests := map[string]string{
		"admin":      RoleAdmin,
		"ROLE_ADMIN": RoleAdmin,
		" user ":     RoleUser,
		"role_user":  RoleUser,
		"":           "",
	}
	for in, want := range tests {
		require.Equal(t, want, NormalizeRole(in), in)
	}
}
