package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/aminshahid573/authapi/internal/domain"
	"github.com/aminshahid573/authapi/internal/middleware"
	"github.com/aminshahid573/authapi/internal/service"
	"github.com/aminshahid573/authapi/internal/validator"
	"github.com/aminshahid573/authapi/internal/worker"
	"github.com/google/uuid"
)

// AuthService defines the behavior the auth views need from the authentication service.
type AuthService interface {
	Register(ctx context.Context, req domain.RegisterRequest) (*domain.User, error)
	Login(ctx context.Context, req domain.LoginRequest) (*domain.LoginResponse, error)
	RefreshToken(ctx context.Context, refreshToken string) (*domain.TokenResponse, error)
	Logout(ctx context.Context, userID uuid.UUID, accessToken string) error
	VerifyToken(ctx context.Context, token string) error
	ChangePassword(ctx context.Context, userID uuid.UUID, req domain.PasswordChangeRequest) error
}

type PasswordResetService interface {
	Request(ctx context.Context, email string) (*service.PasswordReset, error)
	Confirm(ctx context.Context, req domain.PasswordResetConfirmRequest) error
}

// EmailQueue accepts e-mail jobs for background delivery.
type EmailQueue interface {
	QueueJob(job worker.EmailJob) bool
}

type AuthHandler struct {
	authService  AuthService
	resetService PasswordResetService
	emails       EmailQueue
	links        Links
	logger       *slog.Logger
}

func NewAuthHandler(
	authService AuthService,
	resetService PasswordResetService,
	emails EmailQueue,
	links Links,
	logger *slog.Logger,
) *AuthHandler {
	return &AuthHandler{
		authService:  authService,
		resetService: resetService,
		emails:       emails,
		links:        links,
		logger:       logger,
	}
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req domain.LoginRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}

	if err := validator.ValidateLogin(req); err != nil {
		respondError(w, err)
		return
	}

	resp, err := h.authService.Login(r.Context(), req)
	if err != nil {
		h.logger.Warn("Login failed", "error", err)
		respondError(w, err)
		return
	}

	h.logger.Info("User logged in", "user_id", resp.User.ID)
	respondJSON(w, http.StatusOK, resp)
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUserID(r)
	if err != nil {
		respondError(w, err)
		return
	}

	token := middleware.AccessTokenFromContext(r.Context())
	if err := h.authService.Logout(r.Context(), userID, token); err != nil {
		h.logger.Error("Logout failed", "error", err, "user_id", userID)
		respondError(w, err)
		return
	}

	respondDetail(w, http.StatusOK, "Successfully logged out.")
}

func (h *AuthHandler) RefreshToken(w http.ResponseWriter, r *http.Request) {
	var req domain.RefreshRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}

	if err := validator.ValidateRequired("refresh_token", req.RefreshToken); err != nil {
		respondError(w, err)
		return
	}

	tokens, err := h.authService.RefreshToken(r.Context(), req.RefreshToken)
	if err != nil {
		h.logger.Warn("Token refresh failed", "error", err)
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, tokens)
}

func (h *AuthHandler) VerifyToken(w http.ResponseWriter, r *http.Request) {
	var req domain.VerifyTokenRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}

	if err := validator.ValidateRequired("token", req.Token); err != nil {
		respondError(w, err)
		return
	}

	if err := h.authService.VerifyToken(r.Context(), req.Token); err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, struct{}{})
}

func (h *AuthHandler) PasswordChange(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUserID(r)
	if err != nil {
		respondError(w, err)
		return
	}

	var req domain.PasswordChangeRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}

	if err := validator.ValidatePasswordChange(req); err != nil {
		respondError(w, err)
		return
	}

	if err := h.authService.ChangePassword(r.Context(), userID, req); err != nil {
		respondError(w, err)
		return
	}

	respondDetail(w, http.StatusOK, "New password has been saved.")
}

// PasswordReset answers the same way whether or not the address is known.
func (h *AuthHandler) PasswordReset(w http.ResponseWriter, r *http.Request) {
	var req domain.PasswordResetRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}

	if err := validator.ValidateEmail(req.Email); err != nil {
		respondError(w, err)
		return
	}

	reset, err := h.resetService.Request(r.Context(), req.Email)
	if err != nil {
		h.logger.Error("Password reset request failed", "error", err)
		respondError(w, err)
		return
	}

	if reset != nil {
		h.emails.QueueJob(worker.EmailJob{
			Type:           worker.JobPasswordReset,
			RecipientEmail: reset.User.Email,
			RecipientName:  reset.User.Name,
			ActionURL:      h.links.PasswordResetURL(reset.UID, reset.Token),
			ExpiresAt:      reset.ExpiresAt,
		})
	}

	respondDetail(w, http.StatusOK, "Password reset e-mail has been sent.")
}

func (h *AuthHandler) PasswordResetConfirm(w http.ResponseWriter, r *http.Request) {
	var req domain.PasswordResetConfirmRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}

	if err := validator.ValidatePasswordResetConfirm(req); err != nil {
		respondError(w, err)
		return
	}

	if err := h.resetService.Confirm(r.Context(), req); err != nil {
		h.logger.Warn("Password reset confirm failed", "error", err)
		respondError(w, err)
		return
	}

	respondDetail(w, http.StatusOK, "Password has been reset with the new password.")
}
