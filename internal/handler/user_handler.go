package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/aminshahid573/authapi/internal/domain"
	"github.com/aminshahid573/authapi/internal/urls"
	"github.com/aminshahid573/authapi/internal/validator"
	"github.com/google/uuid"
)

type UserService interface {
	GetProfile(ctx context.Context, userID uuid.UUID) (*domain.UserProfile, error)
	UpdateProfile(ctx context.Context, userID uuid.UUID, req domain.UpdateUserRequest) (*domain.UserProfile, error)
}

type UserHandler struct {
	userService UserService
	logger      *slog.Logger
}

func NewUserHandler(userService UserService, logger *slog.Logger) *UserHandler {
	return &UserHandler{
		userService: userService,
		logger:      logger,
	}
}

// GetProfile returns the current user's profile information
func (h *UserHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUserID(r)
	if err != nil {
		respondError(w, err)
		return
	}

	profile, err := h.userService.GetProfile(r.Context(), userID)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, profile)
}

// UpdateProfile applies a partial update to the current user's profile
func (h *UserHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUserID(r)
	if err != nil {
		respondError(w, err)
		return
	}

	var req domain.UpdateUserRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}

	if err := validator.ValidateUpdateUser(req); err != nil {
		respondError(w, err)
		return
	}

	profile, err := h.userService.UpdateProfile(r.Context(), userID, req)
	if err != nil {
		h.logger.Error("Profile update failed", "error", err, "user_id", userID)
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, profile)
}

// Redirect sends the signed-in user to their profile.
func (h *UserHandler) Redirect(w http.ResponseWriter, r *http.Request) {
	target, err := urls.ReverseContext(r.Context(), "user_profile", nil)
	if err != nil {
		h.logger.Error("Failed to reverse profile route", "error", err)
		respondError(w, domain.ErrInternal.WithError(err))
		return
	}

	http.Redirect(w, r, target, http.StatusFound)
}
