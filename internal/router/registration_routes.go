package router

import (
	"net/http"

	"github.com/aminshahid573/authapi/internal/urls"
)

// registrationRoutes is the registration/ sub-table. Its keyed
// confirmation entry is shadowed by the root entry and is kept for reverse
// lookup of the link sent by e-mail.
func registrationRoutes(v RegistrationViews, g guards) []urls.Entry {
	return []urls.Entry{
		urls.Path("", post(v.Register), "rest_register"),
		urls.Path("verify-email/", post(v.VerifyEmail), "rest_verify_email"),
		urls.Path("resend-email/", g.throttle(ScopeResendEmail)(post(v.ResendEmail)), "rest_resend_email"),
		urls.Path("account-confirm-email/<str:key>/", urls.Methods{
			http.MethodGet:  http.HandlerFunc(v.ConfirmEmail),
			http.MethodPost: http.HandlerFunc(v.ConfirmEmail),
		}, "account_confirm_email"),
	}
}
