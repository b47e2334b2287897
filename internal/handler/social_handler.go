package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/aminshahid573/authapi/internal/domain"
)

type SocialService interface {
	GoogleLogin(ctx context.Context, req domain.SocialLoginRequest) (*domain.LoginResponse, error)
}

type SocialHandler struct {
	socialService SocialService
	logger        *slog.Logger
}

func NewSocialHandler(socialService SocialService, logger *slog.Logger) *SocialHandler {
	return &SocialHandler{
		socialService: socialService,
		logger:        logger,
	}
}

func (h *SocialHandler) GoogleLogin(w http.ResponseWriter, r *http.Request) {
	var req domain.SocialLoginRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}

	resp, err := h.socialService.GoogleLogin(r.Context(), req)
	if err != nil {
		h.logger.Warn("Google login failed", "error", err)
		respondError(w, err)
		return
	}

	h.logger.Info("User logged in with Google", "user_id", resp.User.ID)
	respondJSON(w, http.StatusOK, resp)
}
