package http

import (
	"github.com/aussiebroadwan/cookieauth/internal/session/domain"
	"github.com/aussiebroadwan/cookieauth/pkg/httpx"
)

// DefaultRules is the built-in route table, used when no policy is configured.
// Order matters: the first matching rule wins.
func DefaultRules() []httpx.RouteRule {
	public := httpx.Public()
	return []httpx.RouteRule{
		{Pattern: "/auth/welcome", Requirement: public},
		{Pattern: "/auth/register", Requirement: public},
		{Pattern: "/auth/login", Requirement: public},
		{Pattern: "/auth/logout", Requirement: public},
		{Pattern: "/auth/user/**", Requirement: httpx.RequiresRole(domain.RoleUser)},
		{Pattern: "/auth/admin/**", Requirement: httpx.RequiresRole(domain.RoleAdmin)},
		{Pattern: "/livez", Requirement: public},
		{Pattern: "/readyz", Requirement: public},
		{Pattern: "/metrics", Requirement: public},
		{Pattern: "/swagger/**", Requirement: public},
	}
}

// DefaultPolicy returns DefaultRules with an Authenticated fallback.
func DefaultPolicy() *httpx.Policy {
	p, err := httpx.NewPolicy(httpx.Authenticated(), DefaultRules()...)
	if err != nil {
		panic(err) // static table
	}
	return p
}
