package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gatehouse/visitgate/internal/domain"
	"github.com/gatehouse/visitgate/pkg/logger"
)

type loginResponse struct {
	Status  bool                `json:"status"`
	Message string              `json:"message"`
	Data    *domain.LoginResult `json:"data"`
}

func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	var req domain.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAuthError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	result, err := h.authService.Login(r.Context(), &req)
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrValidation):
		writeAuthError(w, http.StatusBadRequest, "Username and password are required")
		return
	case errors.Is(err, domain.ErrInvalidCredentials):
		// Same message for unknown username and wrong password
		writeAuthError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	default:
		logger.ErrorContext(r.Context(), "Login failed", "error", err)
		writeAuthError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	writeJSON(w, http.StatusOK, loginResponse{
		Status:  true,
		Message: "Login successful",
		Data:    result,
	})
}
