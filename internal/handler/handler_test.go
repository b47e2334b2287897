package handler

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/aminshahid573/authapi/internal/domain"
	"github.com/aminshahid573/authapi/internal/middleware"
	"github.com/aminshahid573/authapi/internal/service"
	"github.com/aminshahid573/authapi/internal/urls"
	"github.com/aminshahid573/authapi/internal/worker"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

type fakeAuth struct {
	registered []domain.RegisterRequest
	loginErr   error
	logouts    []string
}

func (f *fakeAuth) Register(_ context.Context, req domain.RegisterRequest) (*domain.User, error) {
	f.registered = append(f.registered, req)
	return &domain.User{ID: uuid.New(), Email: req.Email, Name: req.Name}, nil
}

func (f *fakeAuth) Login(_ context.Context, req domain.LoginRequest) (*domain.LoginResponse, error) {
	if f.loginErr != nil {
		return nil, f.loginErr
	}
	return &domain.LoginResponse{
		TokenResponse: domain.TokenResponse{AccessToken: "a", RefreshToken: "r", ExpiresIn: 900},
		User:          &domain.UserProfile{ID: uuid.New(), Email: req.Email},
	}, nil
}

func (f *fakeAuth) RefreshToken(_ context.Context, token string) (*domain.TokenResponse, error) {
	if token != "good" {
		return nil, domain.ErrInvalidToken
	}
	return &domain.TokenResponse{AccessToken: "a2", RefreshToken: "r2"}, nil
}

func (f *fakeAuth) Logout(_ context.Context, _ uuid.UUID, token string) error {
	f.logouts = append(f.logouts, token)
	return nil
}

func (f *fakeAuth) VerifyToken(_ context.Context, token string) error {
	if token != "good" {
		return domain.ErrInvalidToken
	}
	return nil
}

func (f *fakeAuth) ChangePassword(context.Context, uuid.UUID, domain.PasswordChangeRequest) error {
	return nil
}

type fakeConfirmations struct {
	resendErr error
	confirmed []string
}

func (f *fakeConfirmations) Issue(_ context.Context, user *domain.User) (*service.Confirmation, error) {
	return &service.Confirmation{Key: "k3y_-A", UserID: user.ID, Email: user.Email, ExpiresAt: time.Now().Add(time.Hour)}, nil
}

func (f *fakeConfirmations) Resend(ctx context.Context, email string) (*service.Confirmation, *domain.User, error) {
	if f.resendErr != nil {
		return nil, nil, f.resendErr
	}
	if email != "pending@example.com" {
		return nil, nil, nil
	}
	user := &domain.User{ID: uuid.New(), Email: email}
	conf, _ := f.Issue(ctx, user)
	return conf, user, nil
}

func (f *fakeConfirmations) Confirm(_ context.Context, key string) (*domain.User, error) {
	if key != "k3y_-A" {
		return nil, domain.ErrConfirmationInvalid
	}
	f.confirmed = append(f.confirmed, key)
	return &domain.User{ID: uuid.New(), EmailVerified: true}, nil
}

type fakeResets struct{}

func (fakeResets) Request(_ context.Context, email string) (*service.PasswordReset, error) {
	if email != "known@example.com" {
		return nil, nil
	}
	user := &domain.User{ID: uuid.New(), Email: email}
	return &service.PasswordReset{User: user, UID: user.ID.String(), Token: "tok"}, nil
}

func (fakeResets) Confirm(_ context.Context, req domain.PasswordResetConfirmRequest) error {
	if req.Token != "tok" {
		return domain.ErrResetTokenInvalid
	}
	return nil
}

type fakeUsers struct{}

func (fakeUsers) GetProfile(_ context.Context, id uuid.UUID) (*domain.UserProfile, error) {
	return &domain.UserProfile{ID: id, Name: "Alice"}, nil
}

func (fakeUsers) UpdateProfile(_ context.Context, id uuid.UUID, req domain.UpdateUserRequest) (*domain.UserProfile, error) {
	return &domain.UserProfile{ID: id, Name: *req.Name}, nil
}

type recordingQueue struct {
	jobs []worker.EmailJob
}

func (q *recordingQueue) QueueJob(job worker.EmailJob) bool {
	q.jobs = append(q.jobs, job)
	return true
}

type fixture struct {
	table  *urls.Table
	auth   *fakeAuth
	confs  *fakeConfirmations
	queue  *recordingQueue
	userID uuid.UUID
}

// withUser stands in for the bearer middleware.
func withUser(id uuid.UUID, h http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h(w, r.WithContext(middleware.WithUserID(r.Context(), id)))
	})
}

func newFixture(t *testing.T, frontendURL string) *fixture {
	t.Helper()
	f := &fixture{
		auth:   &fakeAuth{},
		confs:  &fakeConfirmations{},
		queue:  &recordingQueue{},
		userID: uuid.New(),
	}
	links := NewLinks("https://api.example.com/", frontendURL)
	ah := NewAuthHandler(f.auth, fakeResets{}, f.queue, links, testLogger)
	rh := NewRegistrationHandler(f.auth, f.confs, f.queue, links, testLogger)
	uh := NewUserHandler(fakeUsers{}, testLogger)

	f.table = urls.MustNew([]urls.Entry{
		urls.Path("registration/account-confirm-email/<str:key>/", urls.Methods{
			http.MethodGet:  http.HandlerFunc(rh.ConfirmEmail),
			http.MethodPost: http.HandlerFunc(rh.ConfirmEmail),
		}, ""),
		urls.Include("auth/",
			urls.Path("login/", http.HandlerFunc(ah.Login), "rest_login"),
			urls.Path("logout/", http.HandlerFunc(ah.Logout), "rest_logout"),
			urls.Path("password/reset/", http.HandlerFunc(ah.PasswordReset), "rest_password_reset"),
			urls.Path("password/reset/confirm/", http.HandlerFunc(ah.PasswordResetConfirm), "rest_password_reset_confirm"),
			urls.Path("token/verify/", http.HandlerFunc(ah.VerifyToken), "token_verify"),
			urls.Path("token/refresh/", http.HandlerFunc(ah.RefreshToken), "token_refresh"),
		),
		urls.Include("registration/",
			urls.Path("", http.HandlerFunc(rh.Register), "rest_register"),
			urls.Path("resend-email/", http.HandlerFunc(rh.ResendEmail), "rest_resend_email"),
			urls.Path("account-confirm-email/<str:key>/", http.HandlerFunc(rh.ConfirmEmail), "account_confirm_email"),
		),
		urls.Path("registration/account-confirm-email/", http.HandlerFunc(rh.VerificationSent), "account_email_verification_sent"),
		urls.Path("profile/", urls.Methods{
			http.MethodGet:   withUser(f.userID, uh.GetProfile),
			http.MethodPatch: withUser(f.userID, uh.UpdateProfile),
		}, "user_profile"),
		urls.Path("~redirect/", http.HandlerFunc(uh.Redirect), "redirect"),
	}, urls.WithNotFound(http.HandlerFunc(NotFound)))
	return f
}

func (f *fixture) do(method, path, body string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	f.table.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	return v
}

func TestRegisterQueuesConfirmationLink(t *testing.T) {
	f := newFixture(t, "")

	rec := f.do(http.MethodPost, "/registration/", `{"email":"new@example.com","name":"Newbie","password1":"Secret123","password2":"Secret123"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	resp := decode[domain.RegisterResponse](t, rec)
	assert.Equal(t, "new@example.com", resp.Email)
	assert.Equal(t, verificationSentDetail, resp.Detail)

	require.Len(t, f.queue.jobs, 1)
	job := f.queue.jobs[0]
	assert.Equal(t, worker.JobEmailConfirmation, job.Type)
	assert.Equal(t, "https://api.example.com/registration/account-confirm-email/k3y_-A/", job.ActionURL)
}

func TestRegisterValidation(t *testing.T) {
	f := newFixture(t, "")

	rec := f.do(http.MethodPost, "/registration/", `{"email":"new@example.com","name":"Newbie","password1":"Secret123","password2":"Other1234"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, domain.ErrCodePasswordMismatch, decode[domain.ErrorResponse](t, rec).Code)

	rec = f.do(http.MethodPost, "/registration/", `{not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, domain.ErrCodeValidationFailed, decode[domain.ErrorResponse](t, rec).Code)

	assert.Empty(t, f.auth.registered)
	assert.Empty(t, f.queue.jobs)
}

func TestConfirmEmail(t *testing.T) {
	t.Run("json without frontend", func(t *testing.T) {
		f := newFixture(t, "")
		rec := f.do(http.MethodGet, "/registration/account-confirm-email/k3y_-A/", "")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "ok", decode[domain.DetailResponse](t, rec).Detail)
		assert.Equal(t, []string{"k3y_-A"}, f.confs.confirmed)
	})

	t.Run("redirect with frontend", func(t *testing.T) {
		f := newFixture(t, "https://app.example.com")
		rec := f.do(http.MethodGet, "/registration/account-confirm-email/k3y_-A/", "")
		assert.Equal(t, http.StatusFound, rec.Code)
		assert.Equal(t, "https://app.example.com/auth/login?verified=1", rec.Header().Get("Location"))
	})

	t.Run("post never redirects", func(t *testing.T) {
		f := newFixture(t, "https://app.example.com")
		rec := f.do(http.MethodPost, "/registration/account-confirm-email/k3y_-A/", "")
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("unknown key", func(t *testing.T) {
		f := newFixture(t, "")
		rec := f.do(http.MethodGet, "/registration/account-confirm-email/nope/", "")
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, domain.ErrCodeConfirmationInvalid, decode[domain.ErrorResponse](t, rec).Code)
	})

	t.Run("method not allowed", func(t *testing.T) {
		f := newFixture(t, "")
		rec := f.do(http.MethodDelete, "/registration/account-confirm-email/k3y_-A/", "")
		assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
		assert.Empty(t, f.confs.confirmed)
	})
}

func TestVerificationSent(t *testing.T) {
	f := newFixture(t, "")
	rec := f.do(http.MethodGet, "/registration/account-confirm-email/", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, verificationSentDetail, decode[domain.DetailResponse](t, rec).Detail)
}

func TestResendEmail(t *testing.T) {
	f := newFixture(t, "")

	rec := f.do(http.MethodPost, "/registration/resend-email/", `{"email":"ghost@example.com"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, f.queue.jobs)

	rec = f.do(http.MethodPost, "/registration/resend-email/", `{"email":"pending@example.com"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, f.queue.jobs, 1)

	f.confs.resendErr = domain.ErrResendCooldown.WithDetails(map[string]string{
		"retry_after":    "120",
		"cooldown_until": "1700000000",
	})
	rec = f.do(http.MethodPost, "/registration/resend-email/", `{"email":"pending@example.com"}`)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "120", rec.Header().Get("Retry-After"))
	resp := decode[domain.ResendEmailResponse](t, rec)
	require.NotNil(t, resp.RetryAfter)
	require.NotNil(t, resp.CooldownUntil)
	assert.Equal(t, 120, *resp.RetryAfter)
	assert.Equal(t, int64(1700000000), *resp.CooldownUntil)
}

func TestLoginErrors(t *testing.T) {
	f := newFixture(t, "")

	rec := f.do(http.MethodPost, "/auth/login/", `{"email":"a@example.com","password":"x"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "a", decode[domain.LoginResponse](t, rec).AccessToken)

	f.auth.loginErr = domain.ErrEmailNotVerified
	rec = f.do(http.MethodPost, "/auth/login/", `{"email":"a@example.com","password":"x"}`)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = f.do(http.MethodPost, "/auth/login/", `{"email":"","password":"x"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLogoutRequiresUser(t *testing.T) {
	f := newFixture(t, "")
	rec := f.do(http.MethodPost, "/auth/logout/", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Empty(t, f.auth.logouts)
}

func TestTokenViews(t *testing.T) {
	f := newFixture(t, "")

	rec := f.do(http.MethodPost, "/auth/token/verify/", `{"token":"good"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{}`, rec.Body.String())

	rec = f.do(http.MethodPost, "/auth/token/verify/", `{"token":"bad"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = f.do(http.MethodPost, "/auth/token/refresh/", `{"refresh_token":"good"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "r2", decode[domain.TokenResponse](t, rec).RefreshToken)

	rec = f.do(http.MethodPost, "/auth/token/refresh/", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPasswordReset(t *testing.T) {
	f := newFixture(t, "https://app.example.com/")

	rec := f.do(http.MethodPost, "/auth/password/reset/", `{"email":"ghost@example.com"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, f.queue.jobs)

	rec = f.do(http.MethodPost, "/auth/password/reset/", `{"email":"known@example.com"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, f.queue.jobs, 1)
	assert.Equal(t, worker.JobPasswordReset, f.queue.jobs[0].Type)
	assert.True(t, strings.HasPrefix(f.queue.jobs[0].ActionURL, "https://app.example.com/auth/password-reset-confirm/"))
	assert.True(t, strings.HasSuffix(f.queue.jobs[0].ActionURL, "/tok"))

	rec = f.do(http.MethodPost, "/auth/password/reset/confirm/", `{"uid":"u","token":"bad","new_password1":"Secret123","new_password2":"Secret123"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, domain.ErrCodeResetTokenInvalid, decode[domain.ErrorResponse](t, rec).Code)

	rec = f.do(http.MethodPost, "/auth/password/reset/confirm/", `{"uid":"u","token":"tok","new_password1":"Secret123","new_password2":"Secret123"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestProfileAndRedirect(t *testing.T) {
	f := newFixture(t, "")

	rec := f.do(http.MethodGet, "/profile/", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, f.userID, decode[domain.UserProfile](t, rec).ID)

	rec = f.do(http.MethodPatch, "/profile/", `{"name":"Bob"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Bob", decode[domain.UserProfile](t, rec).Name)

	rec = f.do(http.MethodGet, "/~redirect/", "")
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/profile/", rec.Header().Get("Location"))
}

func TestNotFound(t *testing.T) {
	f := newFixture(t, "")
	rec := f.do(http.MethodGet, "/nowhere/", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	resp := decode[domain.ErrorResponse](t, rec)
	assert.Equal(t, domain.ErrCodeNotFound, resp.Code)
	assert.Equal(t, "/nowhere/", resp.Details["path"])
}

func TestLinks(t *testing.T) {
	links := NewLinks("https://api.example.com/", "")
	assert.Equal(t, "", links.LoginRedirect())
	assert.Equal(t, "https://api.example.com/auth/password-reset-confirm/u/t", links.PasswordResetURL("u", "t"))

	_, err := links.ConfirmationURL(context.Background(), "k")
	assert.ErrorIs(t, err, urls.ErrNoReverseMatch)
}
