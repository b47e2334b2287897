package router

import (
	"net/http"

	"github.com/aminshahid573/authapi/internal/urls"
)

// authRoutes is the auth/ sub-table.
func authRoutes(v AuthViews, u UserViews, g guards) []urls.Entry {
	return []urls.Entry{
		urls.Path("password/reset/", g.throttle(ScopePasswordReset)(post(v.PasswordReset)), "rest_password_reset"),
		urls.Path("password/reset/confirm/", post(v.PasswordResetConfirm), "rest_password_reset_confirm"),
		urls.Path("login/", g.throttle(ScopeLogin)(post(v.Login)), "rest_login"),

		// Protected
		urls.Path("logout/", g.authenticate(post(v.Logout)), "rest_logout"),
		urls.Path("user/", g.authenticate(urls.Methods{
			http.MethodGet:   http.HandlerFunc(u.GetProfile),
			http.MethodPut:   http.HandlerFunc(u.UpdateProfile),
			http.MethodPatch: http.HandlerFunc(u.UpdateProfile),
		}), "rest_user_details"),
		urls.Path("password/change/", g.authenticate(post(v.PasswordChange)), "rest_password_change"),

		urls.Path("token/verify/", post(v.VerifyToken), "token_verify"),
		urls.Path("token/refresh/", post(v.RefreshToken), "token_refresh"),
	}
}
