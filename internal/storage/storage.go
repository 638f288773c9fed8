package storage

import (
	"database/sql"
	"log/slog"
	"time"

	"web_deriv/internal/models"

	_ "modernc.org/sqlite"
)

// Storage управляет базой данных веб-приложения
type Storage struct {
	db     *sql.DB
	logger *slog.Logger
}

// New открывает sqlite базу и создает схему
func New(dbPath string, logger *slog.Logger) (*Storage, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}

	storage := &Storage{
		db:     db,
		logger: logger,
	}

	if err := storage.init(); err != nil {
		return nil, err
	}

	return storage, nil
}

// init инициализирует таблицы БД
func (s *Storage) init() error {
	migrationSQL := `
-- Пользователи веб-приложения
CREATE TABLE if NOT EXISTS users (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    username TEXT UNIQUE NOT NULL,
    password_hash TEXT NOT NULL,
    created_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

-- Сохраненные поля страницы: loginid и два API токена
CREATE TABLE if NOT EXISTS settings (
    user_id INTEGER PRIMARY KEY,
    loginid TEXT NOT NULL DEFAULT '',
    user_token TEXT NOT NULL DEFAULT '',
    trader_token TEXT NOT NULL DEFAULT '',
    updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
    FOREIGN KEY(user_id) REFERENCES users(id) ON DELETE CASCADE
);

-- Audit лог активности сессий
CREATE TABLE if NOT EXISTS activity_log (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    user_id INTEGER,
    LEVEL TEXT NOT NULL,
    message TEXT NOT NULL,
    created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
    FOREIGN KEY(user_id) REFERENCES users(id) ON DELETE SET NULL
);

CREATE INDEX if NOT EXISTS idx_activity_log_user ON activity_log(user_id);
CREATE INDEX if NOT EXISTS idx_activity_log_created ON activity_log(created_at DESC);
`

	if _, err := s.db.Exec(migrationSQL); err != nil {
		return err
	}

	s.logger.Info("✅ Database initialized")

	return nil
}

// Close закрывает соединение с БД
func (s *Storage) Close() error {
	return s.db.Close()
}

// CreateUser создает пользователя и возвращает его с ID
func (s *Storage) CreateUser(username, passwordHash string) (*models.User, error) {
	result, err := s.db.Exec(
		"INSERT INTO users (username, password_hash) VALUES (?, ?)",
		username, passwordHash,
	)
	if err != nil {
		return nil, err
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, err
	}

	return &models.User{
		ID:           int(id),
		Username:     username,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now(),
	}, nil
}

// GetUserByUsername возвращает пользователя по имени
func (s *Storage) GetUserByUsername(username string) (*models.User, error) {
	var (
		user      models.User
		createdAt string
	)

	err := s.db.QueryRow(
		"SELECT id, username, password_hash, created_at FROM users WHERE username = ?",
		username,
	).Scan(&user.ID, &user.Username, &user.PasswordHash, &createdAt)
	if err != nil {
		return nil, err
	}

	user.CreatedAt = parseTimestamp(createdAt)

	return &user, nil
}

// parseTimestamp разбирает CURRENT_TIMESTAMP формат sqlite
func parseTimestamp(raw string) time.Time {
	parsed, err := time.Parse("2006-01-02 15:04:05", raw)
	if err != nil {
		return time.Time{}
	}

	return parsed
}

// GetSettings возвращает сохраненные поля пользователя.
// Если записи нет, возвращает пустые настройки.
func (s *Storage) GetSettings(userID int) (*models.Settings, error) {
	settings := &models.Settings{UserID: userID}

	err := s.db.QueryRow(
		"SELECT loginid, user_token, trader_token FROM settings WHERE user_id = ?",
		userID,
	).Scan(&settings.Loginid, &settings.UserToken, &settings.TraderToken)
	if err == sql.ErrNoRows {
		return settings, nil
	}

	if err != nil {
		return nil, err
	}

	return settings, nil
}

// SaveSettings записывает поля пользователя (явное действие Save)
func (s *Storage) SaveSettings(settings *models.Settings) error {
	_, err := s.db.Exec(`
INSERT INTO settings (user_id, loginid, user_token, trader_token, updated_at)
VALUES (?, ?, ?, ?, CURRENT_TIMESTAMP)
ON CONFLICT(user_id) DO UPDATE SET
    loginid = excluded.loginid,
    user_token = excluded.user_token,
    trader_token = excluded.trader_token,
    updated_at = CURRENT_TIMESTAMP`,
		settings.UserID, settings.Loginid, settings.UserToken, settings.TraderToken,
	)

	return err
}

// AddActivityLog пишет запись в audit лог
func (s *Storage) AddActivityLog(userID int, level, message string) error {
	_, err := s.db.Exec(
		"INSERT INTO activity_log (user_id, LEVEL, message) VALUES (?, ?, ?)",
		userID, level, message,
	)

	return err
}

// GetActivityLogs возвращает последние записи audit лога пользователя
func (s *Storage) GetActivityLogs(userID, limit int) ([]models.ActivityLog, error) {
	rows, err := s.db.Query(
		"SELECT id, user_id, LEVEL, message, created_at FROM activity_log WHERE user_id = ? ORDER BY id DESC LIMIT ?",
		userID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var logs []models.ActivityLog

	for rows.Next() {
		var (
			entry     models.ActivityLog
			createdAt string
		)

		if err := rows.Scan(&entry.ID, &entry.UserID, &entry.Level, &entry.Message, &createdAt); err != nil {
			return nil, err
		}

		entry.CreatedAt = parseTimestamp(createdAt)

		logs = append(logs, entry)
	}

	return logs, rows.Err()
}
