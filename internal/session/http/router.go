package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"

	_ "github.com/aussiebroadwan/cookieauth/api/session" // Swagger docs
	"github.com/aussiebroadwan/cookieauth/internal/session/metrics"
	"github.com/aussiebroadwan/cookieauth/internal/session/service"
	"github.com/aussiebroadwan/cookieauth/internal/session/store"
	"github.com/aussiebroadwan/cookieauth/pkg/httpx"
	"github.com/aussiebroadwan/cookieauth/pkg/jwtx"
	"github.com/aussiebroadwan/cookieauth/pkg/slogx"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux     *http.ServeMux
	handler http.Handler

	codec        *jwtx.Codec
	cookies      *httpx.CookieTransport
	policy       *httpx.Policy
	tokenTTL     time.Duration
	lookup       time.Duration
	ipKey        httpx.KeyExtractor
	buildVersion string
	startTime    time.Time
	logger       *slog.Logger

	store         store.Store
	metrics       *metrics.Metrics
	gatherer      prometheus.Gatherer
	authenticator *httpx.Authenticator

	Credentials *service.Credentials
	Identities  *service.Identities
}

// RouterConfig carries everything NewRouter needs.
type RouterConfig struct {
	Codec         *jwtx.Codec
	Cookies       *httpx.CookieTransport
	Policy        *httpx.Policy // DefaultPolicy when nil
	TokenTTL      time.Duration
	LookupTimeout time.Duration
	TrustProxy    bool // key rate limits on X-Forwarded-For / X-Real-IP
	BuildVersion  string
	Store         store.Store
	Credentials   *service.Credentials
	Identities    *service.Identities
	Registry      *prometheus.Registry
	Logger        *slog.Logger
}

func NewRouter(cfg RouterConfig) *Router {
	policy := cfg.Policy
	if policy == nil {
		policy = DefaultPolicy()
	}
	reg := cfg.Registry
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	m := metrics.New(reg)
	r := &Router{
		Mux:          http.NewServeMux(),
		codec:        cfg.Codec,
		cookies:      cfg.Cookies,
		policy:       policy,
		tokenTTL:     cfg.TokenTTL,
		lookup:       cfg.LookupTimeout,
		ipKey:        httpx.IPKeyExtractor,
		buildVersion: cfg.BuildVersion,
		startTime:    time.Now(),
		logger:       logger,
		store:        cfg.Store,
		metrics:      m,
		gatherer:     reg,
		Credentials:  cfg.Credentials,
		Identities:   cfg.Identities,
	}
	if cfg.TrustProxy {
		r.ipKey = httpx.ForwardedIPKeyExtractor
	}
	r.authenticator = &httpx.Authenticator{
		Cookies:       cfg.Cookies,
		Tokens:        cfg.Codec,
		Identities:    cfg.Identities,
		LookupTimeout: cfg.LookupTimeout,
		OnOutcome:     m.ObserveOutcome,
	}

	// Fixed order: logging, then authentication, then authorization. Per-route
	// rate limits run inside the mux.
	r.handler = httpx.Chain(r.Mux,
		slogx.HTTPMiddleware(r.logger),
		m.Middleware(),
		r.authenticator.Middleware(),
		httpx.Authorize(r.policy, m.ObserveDecision),
	)

	r.applyRoutes()
	return r
}

func (r *Router) applyRoutes() {
	r.registerSession()
	r.registerProfiles()
	r.registerSystem()

	r.Mux.Handle("/swagger/", httpSwagger.Handler())
}

// ServeHTTP implements http.Handler and applies the global middleware chain.
//
//	@title			Cookie Session Service API
//	@version		0.1.0
//	@description	Username/password login issuing an HS256-signed session token in an HTTP-only cookie.
//	@description	Every request is authenticated from that cookie and authorized against a route table.
//
//	@contact.name	AussieBroadWAN Team
//	@contact.url	https://github.com/aussiebroadwan/cookieauth
//
//	@license.name	MIT
//	@license.url	https://opensource.org/licenses/MIT
//
//	@host			localhost:8080
//	@BasePath		/
//
//	@schemes		http https
//
//	@securityDefinitions.apikey	CookieAuth
//	@in							cookie
//	@name						jwt-token
//	@description				Session token set by /auth/login.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.handler.ServeHTTP(w, req)
}

func (r *Router) registerSession() {
	login := &LoginHandler{
		Credentials: r.Credentials,
		Tokens:      r.codec,
		Cookies:     r.cookies,
		TTL:         r.tokenTTL,
		Timeout:     r.lookup,
		Metrics:     r.metrics,
	}
	register := &RegisterHandler{Registrar: r.Credentials, Metrics: r.metrics}

	// Credential endpoints - strict rate limit by IP (brute force)
	r.Mux.Handle("POST /auth/login",
		httpx.Chain(login, r.byIP(httpx.StrictLimit)),
	)
	r.Mux.Handle("POST /auth/register",
		httpx.Chain(register, r.byIP(httpx.StrictLimit)),
	)

	// Logout is never rate limited: it must always clear the cookie
	r.Mux.Handle("POST /auth/logout", LogoutHandler(r.cookies))
}

func (r *Router) registerProfiles() {
	r.Mux.Handle("GET /auth/welcome",
		httpx.Chain(WelcomeHandler(), r.byIP(httpx.LenientLimit)),
	)

	// Role checks happen in the global Authorize middleware
	r.Mux.Handle("GET /auth/user/user-profile",
		httpx.Chain(UserProfileHandler(), r.byPrincipal(httpx.LenientLimit)),
	)
	r.Mux.Handle("GET /auth/admin/admin-profile",
		httpx.Chain(AdminProfileHandler(), r.byPrincipal(httpx.LenientLimit)),
	)
}

func (r *Router) registerSystem() {
	// Monitoring systems poll frequently
	r.Mux.Handle("GET /livez",
		httpx.Chain(LivezHandler(r.startTime, r.buildVersion),
			r.byIP(httpx.LenientLimit),
		),
	)
	r.Mux.Handle("GET /readyz",
		httpx.Chain(ReadyzHandler(r.startTime, r.buildVersion, r.store, r.codec),
			r.byIP(httpx.LenientLimit),
		),
	)
	r.Mux.Handle("GET /metrics", promhttp.HandlerFor(r.gatherer, promhttp.HandlerOpts{}))
}

func (r *Router) byIP(cfg httpx.RateLimitConfig) httpx.Middleware {
	return httpx.RateLimit(cfg, r.ipKey)
}

// byPrincipal limits by username, falling back to the client address for
// anonymous requests.
func (r *Router) byPrincipal(cfg httpx.RateLimitConfig) httpx.Middleware {
	return httpx.RateLimit(cfg, httpx.CompositeKeyExtractor(":", httpx.PrincipalKeyExtractor, r.ipKey))
}
