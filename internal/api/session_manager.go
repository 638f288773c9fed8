package api

import (
	"log/slog"
	"sync"

	"web_deriv/internal/config"
	"web_deriv/internal/storage"
	"web_deriv/pkg/services/copytrading"
	"web_deriv/pkg/services/deriv"
)

// SessionManager держит по одной живой сессии на пользователя.
// Канал к Deriv создается лениво при первом обращении и живет до
// остановки приложения; реконнект всегда инициируется пользователем.
type SessionManager struct {
	cfg      *config.Config
	storage  *storage.Storage
	notifier copytrading.Notifier
	logger   *slog.Logger

	mu       sync.Mutex
	sessions map[int]*copytrading.Session
}

func NewSessionManager(
	cfg *config.Config,
	storage *storage.Storage,
	notifier copytrading.Notifier,
	logger *slog.Logger,
) *SessionManager {
	return &SessionManager{
		cfg:      cfg,
		storage:  storage,
		notifier: notifier,
		logger:   logger,
		sessions: make(map[int]*copytrading.Session),
	}
}

// Get возвращает сессию пользователя, создавая ее при первом обращении.
// Сохраненные поля читаются из БД один раз при создании.
func (m *SessionManager) Get(userID int) *copytrading.Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	if session, ok := m.sessions[userID]; ok {
		return session
	}

	client := deriv.New(m.cfg.DerivWSURL, m.cfg.DerivAppID, m.logger)
	session := copytrading.NewSession(client, m.logger)
	session.Bind(client)

	if m.notifier != nil {
		session.SetNotifier(m.notifier)
	}

	session.SetAuditSink(&auditSink{
		storage: m.storage,
		userID:  userID,
		logger:  m.logger,
	})

	settings, err := m.storage.GetSettings(userID)
	if err != nil {
		m.logger.Error("Failed to load settings", slog.Int("user_id", userID), slog.Any("error", err))
	} else {
		session.SetCredentials(settings.Loginid, settings.UserToken, settings.TraderToken)
	}

	m.sessions[userID] = session

	return session
}

// UpdateCredentials обновляет поля уже созданной сессии после Save
func (m *SessionManager) UpdateCredentials(userID int, loginid, userToken, traderToken string) {
	m.mu.Lock()
	session, ok := m.sessions[userID]
	m.mu.Unlock()

	if ok {
		session.SetCredentials(loginid, userToken, traderToken)
	}
}

// DisconnectAll закрывает все живые каналы при остановке приложения
func (m *SessionManager) DisconnectAll() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for userID, session := range m.sessions {
		if err := session.Disconnect(); err != nil {
			m.logger.Error("Failed to disconnect session",
				slog.Int("user_id", userID),
				slog.Any("error", err),
			)
		}
	}
}

// auditSink дублирует записи журнала сессии в activity_log таблицу
type auditSink struct {
	storage *storage.Storage
	userID  int
	logger  *slog.Logger
}

func (a *auditSink) AddActivity(level, message string) {
	if err := a.storage.AddActivityLog(a.userID, level, message); err != nil {
		a.logger.Error("Failed to write activity log", slog.Any("error", err))
	}
}
