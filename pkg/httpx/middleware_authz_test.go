package httpx_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/aussiebroadwan/cookieauth/pkg/httpx"
	"github.com/stretchr/testify/require"
)

func samplePolicy(t *testing.T) *httpx.Policy {
	t.Helper()
	p, err := httpx.NewPolicy(httpx.Authenticated(),
		httpx.RouteRule{Pattern: "/auth/welcome", Requirement: httpx.Public()},
		httpx.RouteRule{Pattern: "/auth/login", Method: "post", Requirement: httpx.Public()},
		httpx.RouteRule{Pattern: "/auth/user/**", Requirement: httpx.RequiresRole("ROLE_USER")},
		httpx.RouteRule{Pattern: "/auth/admin/**", Requirement: httpx.RequiresRole("ROLE_ADMIN")},
		httpx.RouteRule{Pattern: "/auth/**", Requirement: httpx.Public()},
	)
	require.NoError(t, err)
	return p
}

func withPrincipal(req *http.Request, username string, roles ...httpx.Role) *http.Request {
	ctx, _ := httpx.WithPrincipal(req.Context(), httpx.Principal{Username: username, Roles: roles})
	return req.WithContext(ctx)
}

func TestNewPolicyValidation(t *testing.T) {
	_, err := httpx.NewPolicy(httpx.Authenticated(), httpx.RouteRule{Pattern: "no-slash"})
	require.Error(t, err)

	_, err = httpx.NewPolicy(httpx.Authenticated(), httpx.RouteRule{Pattern: "/a/[", Requirement: httpx.Public()})
	require.Error(t, err)

	_, err = httpx.NewPolicy(httpx.Authenticated(), httpx.RouteRule{Pattern: "/a", Requirement: httpx.Requirement{Kind: httpx.KindRole}})
	require.Error(t, err)
}

func TestParseRequirement(t *testing.T) {
	q, err := httpx.ParseRequirement("public", "")
	require.NoError(t, err)
	require.Equal(t, httpx.Public(), q)

	q, err = httpx.ParseRequirement("Authenticated", "")
	require.NoError(t, err)
	require.Equal(t, httpx.Authenticated(), q)

	q, err = httpx.ParseRequirement("role", "ROLE_ADMIN")
	require.NoError(t, err)
	require.Equal(t, httpx.RequiresRole("ROLE_ADMIN"), q)
	require.Equal(t, "role:ROLE_ADMIN", q.String())

	_, err = httpx.ParseRequirement("role", "")
	require.Error(t, err)

	_, err = httpx.ParseRequirement("maybe", "")
	require.Error(t, err)
}

func TestPolicyMatch(t *testing.T) {
	p := samplePolicy(t)

	tests := []struct {
		method, path string
		want         httpx.Requirement
	}{
		{http.MethodGet, "/auth/welcome", httpx.Public()},
		{http.MethodPost, "/auth/login", httpx.Public()},
		// method-scoped rule does not match GET, falls to the /auth/** catch-all
		{http.MethodGet, "/auth/login", httpx.Public()},
		{http.MethodGet, "/auth/user/user-profile", httpx.RequiresRole("ROLE_USER")},
		{http.MethodGet, "/auth/user/deep/nested", httpx.RequiresRole("ROLE_USER")},
		{http.MethodGet, "/auth/admin/admin-profile", httpx.RequiresRole("ROLE_ADMIN")},
		{http.MethodGet, "/auth/user/../admin/admin-profile", httpx.RequiresRole("ROLE_ADMIN")},
		{http.MethodGet, "/auth/other", httpx.Public()},
		{http.MethodGet, "/elsewhere", httpx.Authenticated()},
		{http.MethodGet, "/", httpx.Authenticated()},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			require.Equal(t, tt.want, p.Match(tt.method, tt.path))
		})
	}
}

func TestPolicyFirstMatchWins(t *testing.T) {
	p, err := httpx.NewPolicy(httpx.Authenticated(),
		httpx.RouteRule{Pattern: "/**", Requirement: httpx.Public()},
		httpx.RouteRule{Pattern: "/auth/admin/**", Requirement: httpx.RequiresRole("ROLE_ADMIN")},
	)
	require.NoError(t, err)
	require.Equal(t, httpx.Public(), p.Match(http.MethodGet, "/auth/admin/admin-profile"))
}

func TestPolicyDecide(t *testing.T) {
	p := samplePolicy(t)

	tests := []struct {
		name string
		req  *http.Request
		want httpx.Decision
	}{
		{"public without identity", httptest.NewRequest(http.MethodGet, "/auth/welcome", nil), httpx.Allow},
		{"role route without identity", httptest.NewRequest(http.MethodGet, "/auth/user/user-profile", nil), httpx.DenyUnauthenticated},
		{"fallback without identity", httptest.NewRequest(http.MethodGet, "/elsewhere", nil), httpx.DenyUnauthenticated},
		{"fallback with identity", withPrincipal(httptest.NewRequest(http.MethodGet, "/elsewhere", nil), "alice"), httpx.Allow},
		{"user route with user", withPrincipal(httptest.NewRequest(http.MethodGet, "/auth/user/user-profile", nil), "alice", "ROLE_USER"), httpx.Allow},
		{"admin route with user", withPrincipal(httptest.NewRequest(http.MethodGet, "/auth/admin/admin-profile", nil), "alice", "ROLE_USER"), httpx.DenyForbidden},
		// no hierarchy: ROLE_ADMIN does not imply ROLE_USER
		{"user route with admin only", withPrincipal(httptest.NewRequest(http.MethodGet, "/auth/user/user-profile", nil), "root", "ROLE_ADMIN"), httpx.DenyForbidden},
		{"admin route with both", withPrincipal(httptest.NewRequest(http.MethodGet, "/auth/admin/admin-profile", nil), "root", "ROLE_ADMIN", "ROLE_USER"), httpx.Allow},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, p.Decide(tt.req))
		})
	}
}

func TestAuthorizeMiddleware(t *testing.T) {
	p := samplePolicy(t)
	var decisions []httpx.Decision
	h := httpx.Authorize(p, func(d httpx.Decision) { decisions = append(decisions, d) })(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		}),
	)

	t.Run("401 without identity", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/auth/admin/admin-profile", nil))
		require.Equal(t, http.StatusUnauthorized, rec.Code)

		var body httpx.APIError
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
		require.Equal(t, "unauthorized", body.Code)
	})

	t.Run("403 with insufficient role", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, withPrincipal(httptest.NewRequest(http.MethodGet, "/auth/admin/admin-profile", nil), "alice", "ROLE_USER"))
		require.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("200 when allowed", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/auth/welcome", nil))
		require.Equal(t, http.StatusOK, rec.Code)
	})

	require.Equal(t, []httpx.Decision{httpx.DenyUnauthenticated, httpx.DenyForbidden, httpx.Allow}, decisions)
}

func TestChainOrder(t *testing.T) {
	var order []string
	mw := func(name string) httpx.Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	h := httpx.Chain(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		order = append(order, "handler")
	}), mw("first"), mw("second"))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, []string{"first", "second", "handler"}, order)
}
