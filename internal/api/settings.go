package api

import (
	"encoding/json"
	"net/http"

	"web_deriv/internal/middleware"
	"web_deriv/internal/models"
)

type SettingsRequest struct {
	Loginid     string `json:"loginid"`
	UserToken   string `json:"user_token"`
	TraderToken string `json:"trader_token"`
}

// HandleGetSettings возвращает сохраненные поля пользователя
func (h *Handler) HandleGetSettings(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		h.respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	settings, err := h.storage.GetSettings(userID)
	if err != nil {
		h.logger.Error("Failed to get settings", "error", err)
		h.respondError(w, http.StatusInternalServerError, "Internal server error")

		return
	}

	h.respondSuccess(w, "", settings)
}

// HandleSaveSettings сохраняет поля по явному действию Save
// и подхватывает их в живую сессию
func (h *Handler) HandleSaveSettings(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		h.respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req SettingsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	settings := &models.Settings{
		UserID:      userID,
		Loginid:     req.Loginid,
		UserToken:   req.UserToken,
		TraderToken: req.TraderToken,
	}

	if err := h.storage.SaveSettings(settings); err != nil {
		h.logger.Error("Failed to save settings", "error", err)
		h.respondError(w, http.StatusInternalServerError, "Internal server error")

		return
	}

	h.sessions.UpdateCredentials(userID, req.Loginid, req.UserToken, req.TraderToken)

	h.respondSuccess(w, "Settings saved", settings)
}
