package httpx

import (
	"net"
	"net/http"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/aussiebroadwan/cookieauth/pkg/slogx"
	"golang.org/x/time/rate"
)

// RateLimitConfig defines a token bucket: RequestsPerWindow refill over
// Window, with up to Burst requests at once.
type RateLimitConfig struct {
	RequestsPerWindow int
	Window            time.Duration
	Burst             int
}

var (
	// StrictLimit guards credential endpoints against brute force.
	// Override with SESSION_RATELIMIT_STRICT_{REQUESTS,WINDOW_SEC,BURST}.
	StrictLimit = RateLimitConfig{RequestsPerWindow: 10, Window: time.Minute, Burst: 10}

	// LenientLimit is for cheap public endpoints.
	// Override with SESSION_RATELIMIT_LENIENT_{REQUESTS,WINDOW_SEC,BURST}.
	LenientLimit = RateLimitConfig{RequestsPerWindow: 300, Window: time.Minute, Burst: 300}
)

func init() {
	StrictLimit = RateLimitFromEnv("STRICT", StrictLimit)
	LenientLimit = RateLimitFromEnv("LENIENT", LenientLimit)
}

// RateLimitFromEnv overlays SESSION_RATELIMIT_<profile>_* variables onto def.
// Unset, unparsable or non-positive values keep the default.
func RateLimitFromEnv(profile string, def RateLimitConfig) RateLimitConfig {
	prefix := "SESSION_RATELIMIT_" + profile + "_"
	cfg := def
	if n, ok := positiveEnvInt(prefix + "REQUESTS"); ok {
		cfg.RequestsPerWindow = n
	}
	if n, ok := positiveEnvInt(prefix + "WINDOW_SEC"); ok {
		cfg.Window = time.Duration(n) * time.Second
	}
	if n, ok := positiveEnvInt(prefix + "BURST"); ok {
		cfg.Burst = n
	}
	return cfg
}

func positiveEnvInt(key string) (int, bool) {
	n, err := strconv.Atoi(os.Getenv(key))
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}

// KeyExtractor groups requests into rate limit buckets.
type KeyExtractor func(*http.Request) string

// IPKeyExtractor uses the connection address. Forwarding headers are client
// controlled and ignored here.
func IPKeyExtractor(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// ForwardedIPKeyExtractor uses the first X-Forwarded-For hop, then X-Real-IP,
// then the connection address. Only use it behind a proxy that overwrites
// those headers.
func ForwardedIPKeyExtractor(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if first = strings.TrimSpace(first); first != "" {
			return first
		}
	}
	if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); xri != "" {
		return xri
	}
	return IPKeyExtractor(r)
}

// PrincipalKeyExtractor uses the authenticated username, or "" when the
// request is anonymous.
func PrincipalKeyExtractor(r *http.Request) string {
	if p, ok := PrincipalFromContext(r.Context()); ok {
		return p.Username
	}
	return ""
}

// CompositeKeyExtractor joins the non-empty keys of extractors with sep.
func CompositeKeyExtractor(sep string, extractors ...KeyExtractor) KeyExtractor {
	return func(r *http.Request) string {
		parts := make([]string, 0, len(extractors))
		for _, extract := range extractors {
			if k := extract(r); k != "" {
				parts = append(parts, k)
			}
		}
		return strings.Join(parts, sep)
	}
}

type bucketSet struct {
	limit rate.Limit
	burst int

	mu        sync.Mutex
	buckets   map[string]*rate.Limiter
	lastSweep time.Time
}

func (b *bucketSet) get(key string) *rate.Limiter {
	b.mu.Lock()
	defer b.mu.Unlock()

	// Full buckets have been idle long enough to forget.
	if time.Since(b.lastSweep) > 5*time.Minute {
		for k, l := range b.buckets {
			if l.Tokens() >= float64(b.burst) {
				delete(b.buckets, k)
			}
		}
		b.lastSweep = time.Now()
	}

	l, ok := b.buckets[key]
	if !ok {
		l = rate.NewLimiter(b.limit, b.burst)
		b.buckets[key] = l
	}
	return l
}

// RateLimit rejects requests over cfg with 429 and a Retry-After header.
// Requests whose key cannot be extracted are let through.
func RateLimit(cfg RateLimitConfig, key KeyExtractor) Middleware {
	set := &bucketSet{
		limit:     rate.Limit(float64(cfg.RequestsPerWindow) / cfg.Window.Seconds()),
		burst:     cfg.Burst,
		buckets:   make(map[string]*rate.Limiter),
		lastSweep: time.Now(),
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			k := key(r)
			if k == "" {
				next.ServeHTTP(w, r)
				return
			}

			l := set.get(k)
			if l.Allow() {
				next.ServeHTTP(w, r)
				return
			}

			res := l.Reserve()
			retryAfter := max(int(res.Delay().Seconds()), 1)
			res.Cancel()

			slogx.FromContext(r.Context()).Warn("rate limit exceeded",
				"key", k,
				"path", r.URL.Path,
				"retry_after", retryAfter,
			)

			w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
			WriteJSON(w, http.StatusTooManyRequests, &APIError{
				Code:        "rate_limit_exceeded",
				Description: "Too many requests. Please try again later.",
			})
		})
	}
}
