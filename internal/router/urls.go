package router

import (
	"net/http"

	"github.com/aminshahid573/authapi/internal/urls"
)

// AuthViews serves the auth/ sub-table.
type AuthViews interface {
	Login(w http.ResponseWriter, r *http.Request)
	Logout(w http.ResponseWriter, r *http.Request)
	RefreshToken(w http.ResponseWriter, r *http.Request)
	VerifyToken(w http.ResponseWriter, r *http.Request)
	PasswordChange(w http.ResponseWriter, r *http.Request)
	PasswordReset(w http.ResponseWriter, r *http.Request)
	PasswordResetConfirm(w http.ResponseWriter, r *http.Request)
}

// RegistrationViews serves the registration/ sub-table and the
// confirmation pages at the root.
type RegistrationViews interface {
	Register(w http.ResponseWriter, r *http.Request)
	VerifyEmail(w http.ResponseWriter, r *http.Request)
	ResendEmail(w http.ResponseWriter, r *http.Request)
	ConfirmEmail(w http.ResponseWriter, r *http.Request)
	VerificationSent(w http.ResponseWriter, r *http.Request)
}

type UserViews interface {
	GetProfile(w http.ResponseWriter, r *http.Request)
	UpdateProfile(w http.ResponseWriter, r *http.Request)
	Redirect(w http.ResponseWriter, r *http.Request)
}

type SocialViews interface {
	GoogleLogin(w http.ResponseWriter, r *http.Request)
}

// TableConfig holds the views and guards the route table is built from.
// Nil Authenticate and Throttle leave routes unguarded.
type TableConfig struct {
	Auth         AuthViews
	Registration RegistrationViews
	User         UserViews
	Social       SocialViews

	Authenticate func(http.Handler) http.Handler
	Throttle     func(scope string) func(http.Handler) http.Handler

	NotFound    http.Handler
	AppendSlash bool
}

// Throttle scopes.
const (
	ScopeLogin         = "login"
	ScopePasswordReset = "password_reset"
	ScopeResendEmail   = "resend_email"
)

// NewTable builds the application's route table. Order matters: the first
// matching entry serves a request.
func NewTable(cfg TableConfig) (*urls.Table, error) {
	g := newGuards(cfg)

	entries := []urls.Entry{
		// Ahead of the registration/ include so keyed links are always
		// served here.
		urls.Path("registration/account-confirm-email/<str:key>/", urls.Methods{
			http.MethodGet:  http.HandlerFunc(cfg.Registration.ConfirmEmail),
			http.MethodPost: http.HandlerFunc(cfg.Registration.ConfirmEmail),
		}, ""),
		urls.Include("auth/", authRoutes(cfg.Auth, cfg.User, g)...),
		urls.Include("registration/", registrationRoutes(cfg.Registration, g)...),
		urls.Path("registration/account-confirm-email/", urls.Methods{
			http.MethodGet:  http.HandlerFunc(cfg.Registration.VerificationSent),
			http.MethodPost: http.HandlerFunc(cfg.Registration.VerifyEmail),
		}, "account_email_verification_sent"),
		profileRoute(cfg.User, g),
		urls.Path("auth/social/google/", post(cfg.Social.GoogleLogin), "google_login"),
		redirectRoute(cfg.User, g),
	}

	var opts []urls.Option
	if cfg.NotFound != nil {
		opts = append(opts, urls.WithNotFound(cfg.NotFound))
	}
	if cfg.AppendSlash {
		opts = append(opts, urls.WithAppendSlash())
	}

	return urls.New(entries, opts...)
}

type guards struct {
	authenticate func(http.Handler) http.Handler
	throttle     func(scope string) func(http.Handler) http.Handler
}

func newGuards(cfg TableConfig) guards {
	g := guards{authenticate: cfg.Authenticate, throttle: cfg.Throttle}
	if g.authenticate == nil {
		g.authenticate = passthrough
	}
	if g.throttle == nil {
		g.throttle = func(string) func(http.Handler) http.Handler { return passthrough }
	}
	return g
}

func passthrough(next http.Handler) http.Handler { return next }

func post(h http.HandlerFunc) urls.Methods {
	return urls.Methods{http.MethodPost: h}
}
