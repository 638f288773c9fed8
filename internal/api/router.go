package api

import (
	"net/http"

	"web_deriv/internal/middleware"

	"github.com/gorilla/mux"
)

// SetupRouter настраивает роутинг для API
func (h *Handler) SetupRouter(webDir string) *mux.Router {
	r := mux.NewRouter()

	// Применяем CORS middleware ко всем маршрутам
	r.Use(middleware.CORS)

	// Публичные маршруты (не требуют аутентификации)
	r.HandleFunc("/api/auth/login", h.HandleLogin).Methods("POST", "OPTIONS")
	r.HandleFunc("/api/auth/register", h.HandleRegister).Methods("POST", "OPTIONS")
	r.HandleFunc("/health", h.HandleHealth).Methods("GET")

	// Защищенные маршруты (требуют аутентификации)
	api := r.PathPrefix("/api").Subrouter()
	api.Use(middleware.AuthMiddleware(h.authService))

	// Settings (три сохраняемых поля)
	api.HandleFunc("/settings", h.HandleGetSettings).Methods("GET")
	api.HandleFunc("/settings", h.HandleSaveSettings).Methods("PUT", "OPTIONS")

	// Session (канал к Deriv API)
	api.HandleFunc("/session/connect", h.HandleConnect).Methods("POST", "OPTIONS")
	api.HandleFunc("/session/disconnect", h.HandleDisconnect).Methods("POST", "OPTIONS")
	api.HandleFunc("/session/authorize", h.HandleAuthorize).Methods("POST", "OPTIONS")
	api.HandleFunc("/session/status", h.HandleStatus).Methods("GET")

	// Copy Trading
	api.HandleFunc("/copy/start", h.HandleStartCopy).Methods("POST", "OPTIONS")
	api.HandleFunc("/copy/stop", h.HandleStopCopy).Methods("POST", "OPTIONS")

	// Activity Log
	api.HandleFunc("/logs", h.HandleGetLogs).Methods("GET")

	// Статические файлы (должны быть в конце)
	r.PathPrefix("/").Handler(http.FileServer(http.Dir(webDir)))

	return r
}

// HandleHealth возвращает статус здоровья сервиса
func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	h.respondSuccess(w, "OK", map[string]string{
		"status": "healthy",
	})
}
