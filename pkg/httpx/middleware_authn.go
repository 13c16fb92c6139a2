package httpx

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/aussiebroadwan/cookieauth/pkg/jwtx"
	"github.com/aussiebroadwan/cookieauth/pkg/slogx"
)

// DefaultLookupTimeout bounds a single identity store lookup.
const DefaultLookupTimeout = 2 * time.Second

var (
	// ErrPrincipalNotFound means the token subject is unknown or disabled.
	ErrPrincipalNotFound = errors.New("httpx: principal not found")

	// ErrStoreUnavailable means the identity store could not be reached or
	// did not answer in time.
	ErrStoreUnavailable = errors.New("httpx: identity store unavailable")
)

// TokenVerifier is the part of jwtx.Codec the pipeline depends on.
type TokenVerifier interface {
	Decode(raw string) (jwtx.Decoded, error)
	Validate(raw, expectedSubject string) (jwtx.Decoded, error)
}

// IdentityResolver resolves a username into a principal. Implementations
// return ErrPrincipalNotFound or ErrStoreUnavailable (possibly wrapped).
type IdentityResolver interface {
	ResolvePrincipal(ctx context.Context, username string) (Principal, error)
}

// Outcome is the terminal state of one authentication attempt.
type Outcome string

const (
	OutcomeNoToken              Outcome = "no_token"
	OutcomeTokenRejected        Outcome = "token_rejected"
	OutcomePrincipalNotFound    Outcome = "principal_not_found"
	OutcomeStoreUnavailable     Outcome = "store_unavailable"
	OutcomeValidationFailed     Outcome = "validation_failed"
	OutcomeAuthenticated        Outcome = "authenticated"
	OutcomeAlreadyAuthenticated Outcome = "already_authenticated"
)

// Authenticator establishes the request principal from the session cookie.
// It never writes a response: every failure leaves the request
// unauthenticated and authorization decides what happens next.
type Authenticator struct {
	Cookies       *CookieTransport
	Tokens        TokenVerifier
	Identities    IdentityResolver
	LookupTimeout time.Duration

	// OnOutcome, when set, is called once per request with the terminal state.
	OnOutcome func(Outcome)
}

// Authenticate runs cookie extraction, token decode, principal lookup and
// token validation in that order. The returned principal is only meaningful
// when the outcome is OutcomeAuthenticated.
func (a *Authenticator) Authenticate(r *http.Request) (Principal, Outcome) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	raw, ok := a.Cookies.Extract(r)
	if !ok {
		return Principal{}, OutcomeNoToken
	}

	// Forged or garbled tokens stop here, before any store call.
	decoded, err := a.Tokens.Decode(raw)
	if err != nil {
		log.Warn("session token rejected", "err", err)
		return Principal{}, OutcomeTokenRejected
	}

	lookupCtx, cancel := context.WithTimeout(ctx, a.lookupTimeout())
	defer cancel()

	principal, err := a.Identities.ResolvePrincipal(lookupCtx, decoded.Subject)
	switch {
	case err == nil:
	case errors.Is(err, ErrPrincipalNotFound):
		log.Info("session principal not found", "username", decoded.Subject, "err", err)
		return Principal{}, OutcomePrincipalNotFound
	default:
		log.Error("identity store lookup failed", "username", decoded.Subject, "err", err)
		return Principal{}, OutcomeStoreUnavailable
	}

	if _, err := a.Tokens.Validate(raw, principal.Username); err != nil {
		log.Warn("session token invalid", "username", principal.Username, "err", err)
		return Principal{}, OutcomeValidationFailed
	}

	return principal, OutcomeAuthenticated
}

// Middleware binds the authenticated principal into the request context and
// always passes control to next.
func (a *Authenticator) Middleware() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			if _, ok := PrincipalFromContext(ctx); ok {
				a.report(OutcomeAlreadyAuthenticated)
				next.ServeHTTP(w, r)
				return
			}

			principal, outcome := a.Authenticate(r)
			a.report(outcome)

			if outcome == OutcomeAuthenticated {
				if bound, ok := WithPrincipal(ctx, principal); ok {
					log := slogx.FromContext(ctx).With("username", principal.Username)
					log.Debug("session authenticated")
					ctx = slogx.WithContext(bound, log)
					r = r.WithContext(ctx)
				}
			}

			next.ServeHTTP(w, r)
		})
	}
}

func (a *Authenticator) lookupTimeout() time.Duration {
	if a.LookupTimeout > 0 {
		return a.LookupTimeout
	}
	return DefaultLookupTimeout
}

func (a *Authenticator) report(o Outcome) {
	if a.OnOutcome != nil {
		a.OnOutcome(o)
	}
}
