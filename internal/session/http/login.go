package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/aussiebroadwan/cookieauth/internal/session/metrics"
	"github.com/aussiebroadwan/cookieauth/internal/session/service"
	"github.com/aussiebroadwan/cookieauth/pkg/httpx"
	"github.com/aussiebroadwan/cookieauth/pkg/jwtx"
	"github.com/aussiebroadwan/cookieauth/pkg/sessionsdk"
	"github.com/aussiebroadwan/cookieauth/pkg/slogx"
)

const maxBodyBytes = 4 << 10

var validate = validator.New(validator.WithRequiredStructEnabled())

// CredentialVerifier checks a username/password pair.
type CredentialVerifier interface {
	VerifyCredentials(ctx context.Context, username, password string) ([]string, error)
}

// TokenIssuer mints session tokens.
type TokenIssuer interface {
	Issue(subject string, ttl time.Duration) (string, error)
}

type LoginHandler struct {
	Credentials CredentialVerifier
	Tokens      TokenIssuer
	Cookies     *httpx.CookieTransport
	TTL         time.Duration
	Timeout     time.Duration // bounds the credential check
	Metrics     *metrics.Metrics
}

// ServeHTTP handles the login endpoint
//
//	@Summary		Log in
//	@Description	Verifies the credentials and sets a signed session token as an HTTP-only cookie.
//	@Description	The token is never returned in the body.
//	@Tags			Session
//	@Accept			json
//	@Produce		plain
//	@Param			body	body		sessionsdk.CredentialsRequest	true	"Credentials"
//	@Success		200		{string}	string							"Login successful. JWT token set as HTTP-only cookie."
//	@Failure		400		{object}	sessionsdk.ErrorResponse		"Malformed body"
//	@Failure		401		{object}	sessionsdk.ErrorResponse		"Generic failure, error_description is Invalid user credentials"
//	@Failure		429		{object}	sessionsdk.ErrorResponse		"Rate limit exceeded"
//	@Router			/auth/login [post].
func (h *LoginHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	req, ok := decodeCredentials(w, r)
	if !ok {
		return
	}

	verifyCtx, cancel := context.WithTimeout(ctx, h.timeout())
	_, err := h.Credentials.VerifyCredentials(verifyCtx, req.Username, req.Password)
	cancel()
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			h.observe("failure")
		} else {
			// Store outages fail closed with the same response.
			h.observe("error")
			log.Error("credential check failed", slog.Any("error", err))
		}
		httpx.ErrUnauthenticated.WithDescription(sessionsdk.TextInvalidCredential).WriteError(w)
		return
	}

	token, err := h.Tokens.Issue(req.Username, h.ttl())
	if err != nil {
		h.observe("error")
		log.Error("failed to issue session token", slog.Any("error", err))
		httpx.ErrServerError.WriteError(w)
		return
	}

	h.Cookies.Attach(w, token)
	h.observe("success")
	log.Info("login succeeded", slog.String("username", req.Username))
	httpx.WriteText(w, http.StatusOK, sessionsdk.TextLoginSuccess)
}

func (h *LoginHandler) ttl() time.Duration {
	if h.TTL > 0 {
		return h.TTL
	}
	return jwtx.DefaultTokenTTL
}

func (h *LoginHandler) timeout() time.Duration {
	if h.Timeout > 0 {
		return h.Timeout
	}
	return httpx.DefaultLookupTimeout
}

func (h *LoginHandler) observe(result string) {
	if h.Metrics != nil {
		h.Metrics.Logins.WithLabelValues(result).Inc()
	}
}

// decodeCredentials reads and validates a JSON credentials body, writing a
// 400 response on failure.
func decodeCredentials(w http.ResponseWriter, r *http.Request) (sessionsdk.CredentialsRequest, bool) {
	var req sessionsdk.CredentialsRequest

	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		httpx.ErrBadRequest.WithDescription("invalid JSON body").WriteError(w)
		return req, false
	}
	req.Username = strings.TrimSpace(req.Username)
	if err := validate.Struct(req); err != nil {
		httpx.ErrBadRequest.WithDescription("username and password are required").WriteError(w)
		return req, false
	}
	return req, true
}
