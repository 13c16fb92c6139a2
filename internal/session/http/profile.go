package http

import (
	"net/http"

	"github.com/aussiebroadwan/cookieauth/pkg/httpx"
	"github.com/aussiebroadwan/cookieauth/pkg/sessionsdk"
)

// WelcomeHandler godoc
//
//	@Summary	Public welcome
//	@Tags		Profile
//	@Produce	plain
//	@Success	200	{string}	string	"Welcome, this endpoint is not secure."
//	@Router		/auth/welcome [get].
func WelcomeHandler() http.HandlerFunc {
	return textHandler(sessionsdk.TextWelcome)
}

// UserProfileHandler godoc
//
//	@Summary	User profile
//	@Tags		Profile
//	@Produce	plain
//	@Success	200	{string}	string						"Welcome to User Profile"
//	@Failure	401	{object}	sessionsdk.ErrorResponse	"No valid session"
//	@Failure	403	{object}	sessionsdk.ErrorResponse	"ROLE_USER required"
//	@Security	CookieAuth
//	@Router		/auth/user/user-profile [get].
func UserProfileHandler() http.HandlerFunc {
	return textHandler(sessionsdk.TextUserProfile)
}

// AdminProfileHandler godoc
//
//	@Summary	Admin profile
//	@Tags		Profile
//	@Produce	plain
//	@Success	200	{string}	string						"Welcome to Admin Profile"
//	@Failure	401	{object}	sessionsdk.ErrorResponse	"No valid session"
//	@Failure	403	{object}	sessionsdk.ErrorResponse	"ROLE_ADMIN required"
//	@Security	CookieAuth
//	@Router		/auth/admin/admin-profile [get].
func AdminProfileHandler() http.HandlerFunc {
	return textHandler(sessionsdk.TextAdminProfile)
}

func textHandler(msg string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		httpx.WriteText(w, http.StatusOK, msg)
	}
}
