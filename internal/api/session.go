package api

import (
	"errors"
	"net/http"

	"web_deriv/internal/middleware"
	"web_deriv/pkg/services/copytrading"
)

// HandleConnect открывает канал к Deriv API для пользователя
func (h *Handler) HandleConnect(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		h.respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	session := h.sessions.Get(userID)

	if err := session.Connect(); err != nil {
		if errors.Is(err, copytrading.ErrAlreadyConnected) {
			h.respondError(w, http.StatusConflict, "Already connected")
			return
		}

		h.logger.Error("Failed to connect", "error", err)
		h.respondError(w, http.StatusBadGateway, "Connection error")

		return
	}

	h.respondSuccess(w, "Connected", session.Snapshot())
}

// HandleDisconnect закрывает канал
func (h *Handler) HandleDisconnect(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		h.respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	session := h.sessions.Get(userID)

	if err := session.Disconnect(); err != nil {
		h.logger.Error("Failed to disconnect", "error", err)
		h.respondError(w, http.StatusInternalServerError, "Internal server error")

		return
	}

	h.respondSuccess(w, "Disconnected", nil)
}

// HandleAuthorize - явная (повторная) авторизация по кнопке.
// Запрос fire-and-forget, результат виден через /api/session/status.
func (h *Handler) HandleAuthorize(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		h.respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	h.sessions.Get(userID).Authorize()

	h.respondSuccess(w, "Authorize requested", nil)
}

// HandleStatus возвращает снимок состояния сессии
func (h *Handler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		h.respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	h.respondSuccess(w, "", h.sessions.Get(userID).Snapshot())
}

// HandleGetLogs возвращает журнал активности, новые записи первыми
func (h *Handler) HandleGetLogs(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		h.respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	h.respondSuccess(w, "", h.sessions.Get(userID).Activity())
}
