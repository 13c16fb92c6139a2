package app

import (
	"context"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/aussiebroadwan/cookieauth/internal/session/domain"
	"github.com/aussiebroadwan/cookieauth/internal/session/service"
	"github.com/aussiebroadwan/cookieauth/internal/session/store"
	"github.com/aussiebroadwan/cookieauth/pkg/sessionsdk"
)

func testConfig(t *testing.T) Config {
	t.Helper()
	dir := t.TempDir()
	return Config{
		Env:      "test",
		Log:      LogConfig{Level: "error", Format: "json"},
		Server:   ServerConfig{Port: 8080, ShutdownGracePeriod: time.Second},
		Cookie:   CookieConfig{Name: "jwt-token", MaxAge: 1800, Secure: false, HTTPOnly: true, SameSite: "Strict"},
		Token:    TokenConfig{Secret: testSecret, TTL: 30 * time.Minute},
		Identity: IdentityConfig{LookupTimeout: 2 * time.Second},
		Database: DatabaseConfig{File: filepath.Join(dir, "session.db")},
		Pepper:   PepperConfig{File: filepath.Join(dir, "pepper")},
		Policy:   PolicyConfig{Default: "authenticated"},
	}
}

func TestNewFailsWithoutSecret(t *testing.T) {
	cfg := testConfig(t)
	cfg.Token.Secret = ""
	_, err := New(cfg)
	require.ErrorIs(t, err, ErrMissingSecret)
}

func TestApplicationEndToEnd(t *testing.T) {
	cfg := testConfig(t)

	admin, err := OpenUserAdmin(cfg)
	require.NoError(t, err)
	_, err = admin.Add(context.Background(), "root", "correct-pw", []string{"admin"})
	require.NoError(t, err)
	require.NoError(t, admin.Close())

	app, err := New(cfg)
	require.NoError(t, err)
	srv := httptest.NewServer(app.Handler())
	defer srv.Close()

	c, err := sessionsdk.NewClient(srv.URL)
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, c.Login(ctx, "root", "correct-pw"))
	body, err := c.Get(ctx, "/auth/admin/admin-profile")
	require.NoError(t, err)
	require.Equal(t, sessionsdk.TextAdminProfile, body)

	_, err = c.Get(ctx, "/auth/user/user-profile")
	require.True(t, sessionsdk.IsForbidden(err))

	require.NoError(t, c.Logout(ctx))
	_, err = c.Get(ctx, "/auth/admin/admin-profile")
	require.True(t, sessionsdk.IsUnauthorized(err))

	require.NoError(t, app.Shutdown())
}

func TestServeStopsOnContextCancel(t *testing.T) {
	app, err := New(testConfig(t))
	require.NoError(t, err)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- app.Serve(ctx, ln) }()

	url := "http://" + ln.Addr().String() + "/livez"
	require.Eventually(t, func() bool {
		resp, err := http.Get(url)
		if err != nil {
			return false
		}
		defer resp.Body.Close()
		b, _ := io.ReadAll(resp.Body)
		return resp.StatusCode == http.StatusOK && strings.Contains(string(b), `"status":"ok"`)
	}, 5*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}
}

func TestUserAdmin(t *testing.T) {
	cfg := testConfig(t)
	ctx := context.Background()

	admin, err := OpenUserAdmin(cfg)
	require.NoError(t, err)
	defer admin.Close()

	_, err = admin.Add(ctx, "alice", "correct-pw", nil)
	require.NoError(t, err)

	require.NoError(t, admin.SetRoles(ctx, "alice", []string{"user", "admin"}))
	require.NoError(t, admin.SetDisabled(ctx, "alice", true))

	users, err := admin.List(ctx)
	require.NoError(t, err)
	require.Len(t, users, 1)
	require.Equal(t, []string{domain.RoleUser, domain.RoleAdmin}, users[0].Roles)
	require.False(t, users[0].Active())

	require.Error(t, admin.SetDisabled(ctx, "nobody", true))
}

func TestUserAdminPasswordAndDelete(t *testing.T) {
	cfg := testConfig(t)
	ctx := context.Background()

	admin, err := OpenUserAdmin(cfg)
	require.NoError(t, err)
	defer admin.Close()

	u, err := admin.Add(ctx, "alice", "correct-pw", nil)
	require.NoError(t, err)

	t.Run("password by id", func(t *testing.T) {
		require.NoError(t, admin.SetPassword(ctx, u.ID, "brand-new-pw"))

		_, err := admin.creds.VerifyCredentials(ctx, "alice", "correct-pw")
		require.ErrorIs(t, err, service.ErrInvalidCredentials)

		roles, err := admin.creds.VerifyCredentials(ctx, "alice", "brand-new-pw")
		require.NoError(t, err)
		require.Equal(t, []string{domain.RoleUser}, roles)
	})

	t.Run("short password rejected", func(t *testing.T) {
		err := admin.SetPassword(ctx, "alice", "short")
		require.ErrorIs(t, err, service.ErrInvalidPassword)
	})

	t.Run("unknown user", func(t *testing.T) {
		require.ErrorIs(t, admin.SetPassword(ctx, "nobody", "brand-new-pw"), store.ErrNotFound)
	})

	t.Run("delete by username", func(t *testing.T) {
		deleted, err := admin.Delete(ctx, "alice")
		require.NoError(t, err)
		require.Equal(t, u.ID, deleted.ID)

		users, err := admin.List(ctx)
		require.NoError(t, err)
		require.Empty(t, users)

		_, err = admin.Delete(ctx, u.ID)
		require.ErrorIs(t, err, store.ErrNotFound)
	})
}
