package api

import (
	"errors"
	"net/http"

	"web_deriv/internal/middleware"
	"web_deriv/pkg/services/copytrading"
)

// HandleStartCopy отправляет copy_start запрос.
// Ответ платформы придет позже и отразится в copy_status.
func (h *Handler) HandleStartCopy(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		h.respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	if err := h.sessions.Get(userID).StartCopy(); err != nil {
		if errors.Is(err, copytrading.ErrNoTraderToken) {
			h.respondError(w, http.StatusBadRequest, "Trader token is required")
			return
		}

		h.logger.Error("Failed to start copy", "error", err)
		h.respondError(w, http.StatusInternalServerError, "Internal server error")

		return
	}

	h.respondSuccess(w, "Copy start requested", nil)
}

// HandleStopCopy отправляет copy_stop запрос
func (h *Handler) HandleStopCopy(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		h.respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	if err := h.sessions.Get(userID).StopCopy(); err != nil {
		h.logger.Error("Failed to stop copy", "error", err)
		h.respondError(w, http.StatusInternalServerError, "Internal server error")

		return
	}

	h.respondSuccess(w, "Copy stop requested", nil)
}
