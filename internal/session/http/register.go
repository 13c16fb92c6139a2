package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/aussiebroadwan/cookieauth/internal/session/domain"
	"github.com/aussiebroadwan/cookieauth/internal/session/metrics"
	"github.com/aussiebroadwan/cookieauth/internal/session/service"
	"github.com/aussiebroadwan/cookieauth/pkg/httpx"
	"github.com/aussiebroadwan/cookieauth/pkg/sessionsdk"
	"github.com/aussiebroadwan/cookieauth/pkg/slogx"
)

// Registrar creates accounts.
type Registrar interface {
	Register(ctx context.Context, reg service.Registration) (domain.User, error)
}

type RegisterHandler struct {
	Registrar Registrar
	Metrics   *metrics.Metrics
}

// ServeHTTP handles self-service registration
//
//	@Summary		Register a user
//	@Description	Creates an account with ROLE_USER. Passwords are hashed before storage.
//	@Tags			Session
//	@Accept			json
//	@Produce		plain
//	@Param			body	body		sessionsdk.CredentialsRequest	true	"New account"
//	@Success		201		{string}	string							"User added successfully"
//	@Failure		400		{object}	sessionsdk.ErrorResponse		"Invalid username or password"
//	@Failure		409		{object}	sessionsdk.ErrorResponse		"Username already taken"
//	@Failure		429		{object}	sessionsdk.ErrorResponse		"Rate limit exceeded"
//	@Failure		500		{object}	sessionsdk.ErrorResponse		"Internal server error"
//	@Router			/auth/register [post].
func (h *RegisterHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	req, ok := decodeCredentials(w, r)
	if !ok {
		h.observe("invalid")
		return
	}

	// Self-service accounts only ever get ROLE_USER.
	_, err := h.Registrar.Register(ctx, service.Registration{
		Username: req.Username,
		Password: req.Password,
		Roles:    []string{domain.RoleUser},
	})
	switch {
	case err == nil:
		h.observe("success")
		httpx.WriteText(w, http.StatusCreated, sessionsdk.TextUserAdded)
	case errors.Is(err, service.ErrUsernameTaken):
		h.observe("conflict")
		httpx.ErrConflict.WithDescription("username already taken").WriteError(w)
	case errors.Is(err, service.ErrInvalidRegistration):
		h.observe("invalid")
		httpx.ErrBadRequest.WithDescription(
			"username must be 3-64 characters of letters, digits, '.', '_' or '-'; password must be 8-128 characters",
		).WriteError(w)
	default:
		h.observe("error")
		slogx.FromContext(ctx).Error("registration failed", slog.Any("error", err))
		httpx.ErrServerError.WriteError(w)
	}
}

func (h *RegisterHandler) observe(result string) {
	if h.Metrics != nil {
		h.Metrics.Registrations.WithLabelValues(result).Inc()
	}
}
