package telegram

import (
	"log/slog"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Notifier шлет уведомления о событиях copy trading в Telegram чат.
// Опциональная фича: без токена и chat id приложение работает без него.
type Notifier struct {
	bot    *tgbotapi.BotAPI
	chatID int64
	logger *slog.Logger
}

// NewNotifier создает notifier и проверяет токен через getMe
func NewNotifier(token string, chatID int64, logger *slog.Logger) (*Notifier, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}

	logger.Info("✅ Telegram bot authorized", slog.String("username", bot.Self.UserName))

	return &Notifier{
		bot:    bot,
		chatID: chatID,
		logger: logger,
	}, nil
}

// Notify отправляет текстовое сообщение в настроенный чат.
// Ошибка отправки только логируется: уведомления не влияют на сессию.
func (n *Notifier) Notify(text string) {
	msg := tgbotapi.NewMessage(n.chatID, text)

	if _, err := n.bot.Send(msg); err != nil {
		n.logger.Error("Failed to send telegram notification", slog.Any("error", err))
	}
}
