package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/aminshahid573/authapi/internal/domain"
	"github.com/aminshahid573/authapi/internal/middleware"
	"github.com/google/uuid"
)

const maxBodyBytes = 1 << 20

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondDetail(w http.ResponseWriter, status int, detail string) {
	respondJSON(w, status, domain.DetailResponse{Detail: detail})
}

func respondError(w http.ResponseWriter, err error) {
	var appErr *domain.AppError
	if !errors.As(err, &appErr) {
		appErr = domain.ErrInternal.WithError(err)
	}

	respondJSON(w, appErr.StatusCode, domain.ErrorResponse{
		Code:    appErr.Code,
		Message: appErr.Message,
		Details: appErr.Details,
	})
}

// decodeJSON reads a JSON request body into dst. An empty body leaves dst
// untouched.
func decodeJSON(r *http.Request, dst any) error {
	err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(dst)
	if err == nil || errors.Is(err, io.EOF) {
		return nil
	}
	return domain.ErrValidationFailed.WithDetails(map[string]string{
		"body": "invalid JSON format",
	})
}

func currentUserID(r *http.Request) (uuid.UUID, error) {
	id, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		return uuid.Nil, domain.ErrUnauthorized
	}
	return id, nil
}

// NotFound answers unmatched paths with a JSON 404.
func NotFound(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusNotFound, domain.ErrorResponse{
		Code:    domain.ErrCodeNotFound,
		Message: "Not found.",
		Details: map[string]string{"path": r.URL.Path},
	})
}
