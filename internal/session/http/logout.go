package http

import (
	"net/http"

	"github.com/aussiebroadwan/cookieauth/pkg/httpx"
	"github.com/aussiebroadwan/cookieauth/pkg/sessionsdk"
)

// LogoutHandler godoc
//
//	@Summary		Log out
//	@Description	Expires the session cookie. Always succeeds, with or without a prior session.
//	@Tags			Session
//	@Produce		plain
//	@Success		200	{string}	string	"Logout successful. JWT cookie cleared."
//	@Router			/auth/logout [post].
func LogoutHandler(cookies *httpx.CookieTransport) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cookies.Clear(w)
		httpx.WriteText(w, http.StatusOK, sessionsdk.TextLogoutSuccess)
	}
}
