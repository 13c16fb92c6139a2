package http

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/aussiebroadwan/cookieauth/internal/session/domain"
	"github.com/aussiebroadwan/cookieauth/internal/session/service"
	"github.com/aussiebroadwan/cookieauth/internal/session/store/drivers/sqlite"
	"github.com/aussiebroadwan/cookieauth/pkg/cryptox"
	"github.com/aussiebroadwan/cookieauth/pkg/httpx"
	"github.com/aussiebroadwan/cookieauth/pkg/jwtx"
	"github.com/aussiebroadwan/cookieauth/pkg/sessionsdk"
)

const testSecret = "0123456789abcdef0123456789abcdef"

type testEnv struct {
	router *Router
	store  *sqlite.Store
	codec  *jwtx.Codec
	creds  *service.Credentials
}

func newTestEnv(t *testing.T, opts ...func(*RouterConfig)) *testEnv {
	t.Helper()

	st, err := sqlite.NewStore("file:" + filepath.Join(t.TempDir(), "session.db"))
	require.NoError(t, err)
	require.NoError(t, st.ApplyMigrations())
	t.Cleanup(func() { _ = st.Close() })

	hasher, err := cryptox.NewHasher([]byte("pepper"))
	require.NoError(t, err)

	codec, err := jwtx.NewCodec([]byte(testSecret))
	require.NoError(t, err)

	cookies, err := httpx.NewCookieTransport(httpx.DefaultCookieConfig())
	require.NoError(t, err)

	creds := &service.Credentials{Store: st, Hasher: hasher}
	cfg := RouterConfig{
		Codec:        codec,
		Cookies:      cookies,
		TokenTTL:     30 * time.Minute,
		BuildVersion: "test",
		Store:        st,
		Credentials:  creds,
		Identities:   &service.Identities{Store: st},
		Registry:     prometheus.NewRegistry(),
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	r := NewRouter(cfg)

	return &testEnv{router: r, store: st, codec: codec, creds: creds}
}

func (e *testEnv) addUser(t *testing.T, username, password string, roles ...string) domain.User {
	t.Helper()
	u, err := e.creds.Register(context.Background(), service.Registration{
		Username: username,
		Password: password,
		Roles:    roles,
	})
	require.NoError(t, err)
	return u
}

func (e *testEnv) do(method, target, body string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	for _, c := range cookies {
		req.AddCookie(&http.Cookie{Name: c.Name, Value: c.Value})
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func sessionCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == httpx.DefaultCookieName {
			return c
		}
	}
	t.Fatalf("no %s cookie in response", httpx.DefaultCookieName)
	return nil
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) sessionsdk.ErrorResponse {
	t.Helper()
	var er sessionsdk.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &er))
	return er
}

func TestLoginThenRoleGuardedRoutes(t *testing.T) {
	env := newTestEnv(t)
	env.addUser(t, "alice", "correct-pw", domain.RoleUser)

	rec := env.do(http.MethodPost, "/auth/login", `{"username":"alice","password":"correct-pw"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, sessionsdk.TextLoginSuccess, rec.Body.String())

	cookie := sessionCookie(t, rec)
	require.NotEmpty(t, cookie.Value)
	require.NotContains(t, rec.Body.String(), cookie.Value)
	require.Equal(t, "/", cookie.Path)
	require.Equal(t, 1800, cookie.MaxAge)
	require.True(t, cookie.Secure)
	require.True(t, cookie.HttpOnly)
	require.Equal(t, http.SameSiteStrictMode, cookie.SameSite)

	decoded, err := env.codec.Decode(cookie.Value)
	require.NoError(t, err)
	require.Equal(t, "alice", decoded.Subject)

	rec = env.do(http.MethodGet, "/auth/user/user-profile", "", cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, sessionsdk.TextUserProfile, rec.Body.String())

	rec = env.do(http.MethodGet, "/auth/admin/admin-profile", "", cookie)
	require.Equal(t, http.StatusForbidden, rec.Code)
	require.Equal(t, "forbidden", decodeError(t, rec).Error)

	rec = env.do(http.MethodGet, "/auth/admin/admin-profile", "")
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Equal(t, "unauthorized", decodeError(t, rec).Error)
}

func TestLoginFailuresAreGeneric(t *testing.T) {
	env := newTestEnv(t)
	env.addUser(t, "alice", "correct-pw")

	wrongPassword := env.do(http.MethodPost, "/auth/login", `{"username":"alice","password":"wrong-pw"}`)
	unknownUser := env.do(http.MethodPost, "/auth/login", `{"username":"mallory","password":"correct-pw"}`)

	for _, rec := range []*httptest.ResponseRecorder{wrongPassword, unknownUser} {
		require.Equal(t, http.StatusUnauthorized, rec.Code)
		require.Equal(t, sessionsdk.TextInvalidCredential, decodeError(t, rec).ErrorDescription)
		require.Empty(t, rec.Result().Cookies())
	}
	require.Equal(t, wrongPassword.Body.String(), unknownUser.Body.String())
}

func TestLoginTrimsUsername(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(http.MethodPost, "/auth/register", `{"username":" alice ","password":"correct-pw"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = env.do(http.MethodPost, "/auth/login", `{"username":" alice","password":"correct-pw"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	cookie := sessionCookie(t, rec)

	decoded, err := env.codec.Decode(cookie.Value)
	require.NoError(t, err)
	require.Equal(t, "alice", decoded.Subject)

	rec = env.do(http.MethodGet, "/auth/user/user-profile", "", cookie)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestLoginRejectsMalformedBodies(t *testing.T) {
	env := newTestEnv(t)

	for _, body := range []string{
		`not json`,
		`{"username":"alice"}`,
		`{"username":"alice","password":"pw","extra":true}`,
	} {
		rec := env.do(http.MethodPost, "/auth/login", body)
		require.Equal(t, http.StatusBadRequest, rec.Code, body)
	}
}

func TestLogoutAlwaysClearsCookie(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(http.MethodPost, "/auth/logout", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, sessionsdk.TextLogoutSuccess, rec.Body.String())

	header := rec.Header().Get("Set-Cookie")
	require.Contains(t, header, httpx.DefaultCookieName+"=;")
	require.Contains(t, header, "Max-Age=0")

	// With a garbage cookie the pipeline rejects the token but logout is public.
	rec = env.do(http.MethodPost, "/auth/logout", "", &http.Cookie{Name: httpx.DefaultCookieName, Value: "garbage"})
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestLoginRateLimitKey(t *testing.T) {
	loginFrom := func(env *testEnv, forwardedFor string) int {
		req := httptest.NewRequest(http.MethodPost, "/auth/login",
			strings.NewReader(`{"username":"alice","password":"wrong-pw"}`))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Forwarded-For", forwardedFor)
		rec := httptest.NewRecorder()
		env.router.ServeHTTP(rec, req)
		return rec.Code
	}
	attempts := httpx.StrictLimit.Burst + 1

	t.Run("forwarded header ignored by default", func(t *testing.T) {
		env := newTestEnv(t)
		var last int
		for i := range attempts {
			last = loginFrom(env, fmt.Sprintf("198.51.100.%d", i+1))
		}
		require.Equal(t, http.StatusTooManyRequests, last)
	})

	t.Run("forwarded header honoured behind a trusted proxy", func(t *testing.T) {
		env := newTestEnv(t, func(c *RouterConfig) { c.TrustProxy = true })
		for i := range attempts {
			require.Equal(t, http.StatusUnauthorized, loginFrom(env, fmt.Sprintf("198.51.100.%d", i+1)))
		}
	})
}

func TestLogoutIsNeverRateLimited(t *testing.T) {
	env := newTestEnv(t)

	for i := range httpx.LenientLimit.Burst + 20 {
		rec := env.do(http.MethodPost, "/auth/logout", "")
		require.Equal(t, http.StatusOK, rec.Code, "logout %d", i)
		require.Contains(t, rec.Header().Get("Set-Cookie"), "Max-Age=0", "logout %d", i)
	}
}

func TestRegisterEndpoint(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(http.MethodPost, "/auth/register", `{"username":"bob","password":"correct-pw"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	require.Equal(t, sessionsdk.TextUserAdded, rec.Body.String())

	rec = env.do(http.MethodPost, "/auth/register", `{"username":"bob","password":"correct-pw"}`)
	require.Equal(t, http.StatusConflict, rec.Code)

	rec = env.do(http.MethodPost, "/auth/register", `{"username":"b b","password":"correct-pw"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	u, err := env.store.Users().GetUserByUsername(context.Background(), "bob")
	require.NoError(t, err)
	require.Equal(t, []string{domain.RoleUser}, u.Roles)
	require.NotEqual(t, "correct-pw", u.PasswordHash)

	rec = env.do(http.MethodPost, "/auth/login", `{"username":"bob","password":"correct-pw"}`)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestAdminRoleDoesNotImplyUser(t *testing.T) {
	env := newTestEnv(t)
	env.addUser(t, "root", "correct-pw", domain.RoleAdmin)

	cookie := sessionCookie(t, env.do(http.MethodPost, "/auth/login", `{"username":"root","password":"correct-pw"}`))

	require.Equal(t, http.StatusOK, env.do(http.MethodGet, "/auth/admin/admin-profile", "", cookie).Code)
	require.Equal(t, http.StatusForbidden, env.do(http.MethodGet, "/auth/user/user-profile", "", cookie).Code)
}

func TestRejectedTokensProceedUnauthenticated(t *testing.T) {
	env := newTestEnv(t)
	u := env.addUser(t, "alice", "correct-pw", domain.RoleUser)

	otherCodec, err := jwtx.NewCodec([]byte("ffffffffffffffffffffffffffffffff"))
	require.NoError(t, err)
	forged, err := otherCodec.Issue("alice", time.Minute)
	require.NoError(t, err)

	expiredCodec := env.codec.WithClock(func() time.Time { return time.Now().Add(-time.Hour) })
	expired, err := expiredCodec.Issue("alice", time.Minute)
	require.NoError(t, err)

	ghost, err := env.codec.Issue("ghost", time.Minute)
	require.NoError(t, err)

	for name, token := range map[string]string{
		"garbage": "not-a-token",
		"forged":  forged,
		"expired": expired,
		"unknown": ghost,
	} {
		t.Run(name, func(t *testing.T) {
			c := &http.Cookie{Name: httpx.DefaultCookieName, Value: token}

			// Public routes still answer.
			rec := env.do(http.MethodGet, "/auth/welcome", "", c)
			require.Equal(t, http.StatusOK, rec.Code)
			require.Equal(t, sessionsdk.TextWelcome, rec.Body.String())

			rec = env.do(http.MethodGet, "/auth/user/user-profile", "", c)
			require.Equal(t, http.StatusUnauthorized, rec.Code)
		})
	}

	// A disabled account loses access even with a valid token.
	valid, err := env.codec.Issue("alice", time.Minute)
	require.NoError(t, err)
	c := &http.Cookie{Name: httpx.DefaultCookieName, Value: valid}
	require.Equal(t, http.StatusOK, env.do(http.MethodGet, "/auth/user/user-profile", "", c).Code)

	require.NoError(t, env.store.Users().SetDisabled(context.Background(), u.ID, true))
	require.Equal(t, http.StatusUnauthorized, env.do(http.MethodGet, "/auth/user/user-profile", "", c).Code)
}

func TestUnmatchedRoutesRequireAuthentication(t *testing.T) {
	env := newTestEnv(t)
	env.addUser(t, "alice", "correct-pw", domain.RoleUser)

	require.Equal(t, http.StatusUnauthorized, env.do(http.MethodGet, "/somewhere/else", "").Code)

	cookie := sessionCookie(t, env.do(http.MethodPost, "/auth/login", `{"username":"alice","password":"correct-pw"}`))
	require.Equal(t, http.StatusNotFound, env.do(http.MethodGet, "/somewhere/else", "", cookie).Code)

	// Dot segments cannot escape into a less protected prefix.
	require.Equal(t, http.StatusForbidden, env.do(http.MethodGet, "/auth/user/../admin/admin-profile", "", cookie).Code)
}

func TestHealthEndpoints(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(http.MethodGet, "/livez", "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(http.MethodGet, "/readyz", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var hr sessionsdk.HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &hr))
	require.Equal(t, "ok", hr.Status)
	require.Equal(t, "ok", hr.Checks.Database)
	require.Equal(t, "ok", hr.Checks.Signer)
	require.Equal(t, "test", hr.Version)

	require.NoError(t, env.store.Close())
	rec = env.do(http.MethodGet, "/readyz", "")
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestMetricsEndpointExposesOutcomes(t *testing.T) {
	env := newTestEnv(t)
	env.do(http.MethodGet, "/auth/welcome", "")

	rec := env.do(http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `cookieauth_authn_outcomes_total{outcome="no_token"}`)
	require.Contains(t, rec.Body.String(), `cookieauth_authz_decisions_total{decision="allow"}`)
}

func TestRequestIDIsReturned(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(http.MethodGet, "/auth/welcome", "")
	require.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestSwaggerDocumentsGenericLoginFailure(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(http.MethodGet, "/swagger/doc.json", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "error_description is Invalid user credentials")
}
