package httpx

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// DefaultCookieName is the name the session token is carried under.
const DefaultCookieName = "jwt-token"

// CookieConfig holds the process-wide attributes of the session cookie.
type CookieConfig struct {
	Name     string
	MaxAge   int // seconds
	Secure   bool
	HTTPOnly bool
	SameSite http.SameSite
}

// DefaultCookieConfig returns the attributes used when nothing is configured.
func DefaultCookieConfig() CookieConfig {
	return CookieConfig{
		Name:     DefaultCookieName,
		MaxAge:   1800,
		Secure:   true,
		HTTPOnly: true,
		SameSite: http.SameSiteStrictMode,
	}
}

// ParseSameSite maps "Strict", "Lax", "None" (any case) to http.SameSite.
// An empty string leaves the attribute off.
func ParseSameSite(s string) (http.SameSite, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "strict":
		return http.SameSiteStrictMode, nil
	case "lax":
		return http.SameSiteLaxMode, nil
	case "none":
		return http.SameSiteNoneMode, nil
	case "":
		return http.SameSiteDefaultMode, nil
	default:
		return 0, fmt.Errorf("httpx: unknown same-site mode %q", s)
	}
}

// CookieTransport moves session tokens in and out of HTTP cookies.
type CookieTransport struct {
	cfg CookieConfig
}

// NewCookieTransport validates cfg and returns a transport for it.
func NewCookieTransport(cfg CookieConfig) (*CookieTransport, error) {
	if err := (&http.Cookie{Name: cfg.Name, Value: "x"}).Valid(); err != nil {
		return nil, fmt.Errorf("httpx: invalid cookie name %q: %w", cfg.Name, err)
	}
	if cfg.MaxAge <= 0 {
		return nil, errors.New("httpx: cookie max-age must be positive")
	}
	if cfg.SameSite == http.SameSiteNoneMode && !cfg.Secure {
		return nil, errors.New("httpx: SameSite=None requires a secure cookie")
	}
	return &CookieTransport{cfg: cfg}, nil
}

// Name returns the configured cookie name.
func (t *CookieTransport) Name() string { return t.cfg.Name }

// Extract returns the first non-empty cookie value under the configured
// name. A request without cookies is the normal "no token" case.
func (t *CookieTransport) Extract(r *http.Request) (string, bool) {
	for _, c := range r.Cookies() {
		if c.Name == t.cfg.Name && c.Value != "" {
			return c.Value, true
		}
	}
	return "", false
}

// Attach appends one Set-Cookie header carrying token.
func (t *CookieTransport) Attach(w http.ResponseWriter, token string) {
	http.SetCookie(w, t.cookie(token, t.cfg.MaxAge))
}

// Clear appends one Set-Cookie header that expires the cookie immediately.
func (t *CookieTransport) Clear(w http.ResponseWriter) {
	// net/http renders a negative MaxAge as "Max-Age=0".
	http.SetCookie(w, t.cookie("", -1))
}

func (t *CookieTransport) cookie(value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     t.cfg.Name,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		Secure:   t.cfg.Secure,
		HttpOnly: t.cfg.HTTPOnly,
		SameSite: t.cfg.SameSite,
	}
}
