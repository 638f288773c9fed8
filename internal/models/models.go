package models

import "time"

// User представляет пользователя веб-приложения
type User struct {
	ID           int
	Username     string
	PasswordHash string
	CreatedAt    time.Time
}

// Settings - три локальных поля, сохраняемые только по явному действию
// пользователя и читаемые при старте сессии
type Settings struct {
	UserID      int    `json:"-"`
	Loginid     string `json:"loginid"`
	UserToken   string `json:"user_token"`
	TraderToken string `json:"trader_token"`
}

// ActivityLog представляет запись в audit логе активности
type ActivityLog struct {
	ID        int       `json:"id"`
	UserID    int       `json:"user_id"`
	Level     string    `json:"level"` // "INFO", "WARN", "ERROR"
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}
