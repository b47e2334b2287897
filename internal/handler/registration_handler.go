package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/aminshahid573/authapi/internal/domain"
	"github.com/aminshahid573/authapi/internal/service"
	"github.com/aminshahid573/authapi/internal/validator"
	"github.com/aminshahid573/authapi/internal/worker"
)

const verificationSentDetail = "Verification e-mail sent."

type ConfirmationService interface {
	Issue(ctx context.Context, user *domain.User) (*service.Confirmation, error)
	Resend(ctx context.Context, email string) (*service.Confirmation, *domain.User, error)
	Confirm(ctx context.Context, key string) (*domain.User, error)
}

type RegistrationHandler struct {
	authService         AuthService
	confirmationService ConfirmationService
	emails              EmailQueue
	links               Links
	logger              *slog.Logger
}

func NewRegistrationHandler(
	authService AuthService,
	confirmationService ConfirmationService,
	emails EmailQueue,
	links Links,
	logger *slog.Logger,
) *RegistrationHandler {
	return &RegistrationHandler{
		authService:         authService,
		confirmationService: confirmationService,
		emails:              emails,
		links:               links,
		logger:              logger,
	}
}

func (h *RegistrationHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req domain.RegisterRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}

	if err := validator.ValidateRegister(req); err != nil {
		respondError(w, err)
		return
	}

	user, err := h.authService.Register(r.Context(), req)
	if err != nil {
		h.logger.Warn("Registration failed", "error", err)
		respondError(w, err)
		return
	}

	// The account exists at this point; a failed send is recoverable
	// through resend-email.
	conf, err := h.confirmationService.Issue(r.Context(), user)
	if err != nil {
		h.logger.Error("Failed to issue confirmation key", "error", err, "user_id", user.ID)
	} else {
		h.sendConfirmation(r.Context(), user, conf)
	}

	respondJSON(w, http.StatusCreated, domain.RegisterResponse{
		UserID: user.ID,
		Email:  user.Email,
		Detail: verificationSentDetail,
	})
}

func (h *RegistrationHandler) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	var req domain.VerifyEmailRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}

	if err := validator.ValidateRequired("key", req.Key); err != nil {
		respondError(w, err)
		return
	}

	if _, err := h.confirmationService.Confirm(r.Context(), req.Key); err != nil {
		respondError(w, err)
		return
	}

	respondDetail(w, http.StatusOK, "ok")
}

// ResendEmail answers success for unknown and already verified addresses.
func (h *RegistrationHandler) ResendEmail(w http.ResponseWriter, r *http.Request) {
	var req domain.ResendEmailRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}

	if err := validator.ValidateEmail(req.Email); err != nil {
		respondError(w, err)
		return
	}

	conf, user, err := h.confirmationService.Resend(r.Context(), req.Email)
	if err != nil {
		var appErr *domain.AppError
		if errors.As(err, &appErr) && appErr.Code == domain.ErrCodeResendCooldown {
			resp := domain.ResendEmailResponse{Detail: appErr.Message}
			if v, err := strconv.Atoi(appErr.Details["retry_after"]); err == nil {
				resp.RetryAfter = &v
				w.Header().Set("Retry-After", strconv.Itoa(v))
			}
			if v, err := strconv.ParseInt(appErr.Details["cooldown_until"], 10, 64); err == nil {
				resp.CooldownUntil = &v
			}
			respondJSON(w, http.StatusTooManyRequests, resp)
			return
		}

		h.logger.Error("Failed to resend confirmation", "error", err)
		respondError(w, err)
		return
	}

	if conf != nil {
		h.sendConfirmation(r.Context(), user, conf)
	}

	respondJSON(w, http.StatusOK, domain.ResendEmailResponse{Detail: "ok"})
}

// ConfirmEmail consumes the key captured from the path. A browser GET is
// sent on to the client's login page when one is configured.
func (h *RegistrationHandler) ConfirmEmail(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")

	if _, err := h.confirmationService.Confirm(r.Context(), key); err != nil {
		respondError(w, err)
		return
	}

	if target := h.links.LoginRedirect(); target != "" && r.Method == http.MethodGet {
		http.Redirect(w, r, target, http.StatusFound)
		return
	}

	respondDetail(w, http.StatusOK, "ok")
}

func (h *RegistrationHandler) VerificationSent(w http.ResponseWriter, r *http.Request) {
	respondDetail(w, http.StatusOK, verificationSentDetail)
}

func (h *RegistrationHandler) sendConfirmation(ctx context.Context, user *domain.User, conf *service.Confirmation) {
	link, err := h.links.ConfirmationURL(ctx, conf.Key)
	if err != nil {
		h.logger.Error("Failed to build confirmation link", "error", err, "user_id", user.ID)
		return
	}

	h.emails.QueueJob(worker.EmailJob{
		Type:           worker.JobEmailConfirmation,
		RecipientEmail: user.Email,
		RecipientName:  user.Name,
		ActionURL:      link,
		ExpiresAt:      conf.ExpiresAt,
	})
}
