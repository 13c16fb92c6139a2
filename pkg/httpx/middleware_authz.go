package httpx

import (
	"errors"
	"fmt"
	"net/http"
	"path"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// RequirementKind classifies what a route demands of the caller.
type RequirementKind int

const (
	KindAuthenticated RequirementKind = iota
	KindPublic
	KindRole
)

// Requirement is the access rule attached to a route pattern.
type Requirement struct {
	Kind RequirementKind
	Role Role // only for KindRole
}

func Public() Requirement             { return Requirement{Kind: KindPublic} }
func Authenticated() Requirement      { return Requirement{Kind: KindAuthenticated} }
func RequiresRole(r Role) Requirement { return Requirement{Kind: KindRole, Role: r} }

// ParseRequirement builds a Requirement from its config form: "public",
// "authenticated", or "role" together with a role name.
func ParseRequirement(kind, role string) (Requirement, error) {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "public", "permit_all":
		return Public(), nil
	case "authenticated", "":
		return Authenticated(), nil
	case "role", "has_authority":
		if role == "" {
			return Requirement{}, errors.New("httpx: role requirement without a role")
		}
		return RequiresRole(Role(role)), nil
	default:
		return Requirement{}, fmt.Errorf("httpx: unknown requirement %q", kind)
	}
}

func (q Requirement) String() string {
	switch q.Kind {
	case KindPublic:
		return "public"
	case KindRole:
		return "role:" + string(q.Role)
	default:
		return "authenticated"
	}
}

// RouteRule maps a path pattern (doublestar syntax, e.g. "/auth/user/**")
// and an optional method to a requirement.
type RouteRule struct {
	Pattern     string
	Method      string // empty matches every method
	Requirement Requirement
}

// Decision is the result of evaluating a request against the policy.
type Decision int

const (
	Allow Decision = iota
	DenyUnauthenticated
	DenyForbidden
)

func (d Decision) String() string {
	switch d {
	case Allow:
		return "allow"
	case DenyUnauthenticated:
		return "unauthenticated"
	default:
		return "forbidden"
	}
}

// Policy is an ordered, immutable route table. The first matching rule wins,
// so specific patterns must come before catch-alls.
type Policy struct {
	rules    []RouteRule
	fallback Requirement
}

// NewPolicy validates rules and returns a policy that applies fallback to
// unmatched paths.
func NewPolicy(fallback Requirement, rules ...RouteRule) (*Policy, error) {
	out := make([]RouteRule, len(rules))
	for i, rule := range rules {
		if !strings.HasPrefix(rule.Pattern, "/") || !doublestar.ValidatePattern(rule.Pattern) {
			return nil, fmt.Errorf("httpx: invalid route pattern %q", rule.Pattern)
		}
		if rule.Requirement.Kind == KindRole && rule.Requirement.Role == "" {
			return nil, fmt.Errorf("httpx: route %q has a role requirement without a role", rule.Pattern)
		}
		rule.Method = strings.ToUpper(rule.Method)
		out[i] = rule
	}
	return &Policy{rules: out, fallback: fallback}, nil
}

// Rules returns a copy of the route table.
func (p *Policy) Rules() []RouteRule {
	out := make([]RouteRule, len(p.rules))
	copy(out, p.rules)
	return out
}

// Match returns the requirement for method and urlPath.
func (p *Policy) Match(method, urlPath string) Requirement {
	clean := cleanPath(urlPath)
	for _, rule := range p.rules {
		if rule.Method != "" && rule.Method != method {
			continue
		}
		if ok, _ := doublestar.Match(rule.Pattern, clean); ok {
			return rule.Requirement
		}
	}
	return p.fallback
}

// Decide evaluates r against the policy using the principal bound to its
// context, if any.
func (p *Policy) Decide(r *http.Request) Decision {
	req := p.Match(r.Method, r.URL.Path)
	if req.Kind == KindPublic {
		return Allow
	}

	principal, ok := PrincipalFromContext(r.Context())
	if !ok {
		return DenyUnauthenticated
	}
	if req.Kind == KindRole && !principal.HasRole(req.Role) {
		return DenyForbidden
	}
	return Allow
}

// Authorize rejects requests the policy denies: 401 when no identity is
// bound, 403 when the identity lacks the required role.
func Authorize(p *Policy, onDecision func(Decision)) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			d := p.Decide(r)
			if onDecision != nil {
				onDecision(d)
			}

			switch d {
			case DenyUnauthenticated:
				ErrUnauthenticated.WriteError(w)
			case DenyForbidden:
				ErrForbidden.WriteError(w)
			default:
				next.ServeHTTP(w, r)
			}
		})
	}
}

// cleanPath normalises dot segments so "/auth/user/../admin/x" is checked
// as "/auth/admin/x". A trailing slash is kept.
func cleanPath(p string) string {
	if p == "" {
		return "/"
	}
	if p[0] != '/' {
		p = "/" + p
	}
	clean := path.Clean(p)
	if strings.HasSuffix(p, "/") && clean != "/" {
		clean += "/"
	}
	return clean
}
