package copytrading

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"web_deriv/pkg/services/deriv"
)

// State - состояние канала сессии
type State string

const (
	StateDisconnected State = "disconnected"
	StateConnecting   State = "connecting"
	StateConnected    State = "connected"  // канал открыт, не авторизован
	StateAuthorized   State = "authorized" // authorize прошел успешно
)

const (
	// CopyStatusIdle - копирование еще не запускалось
	CopyStatusIdle = "Idle"
	// CopyStatusStarted выставляется на успешный copy_start
	CopyStatusStarted = "Copying started"
	// CopyStatusStopped выставляется на успешный copy_stop
	CopyStatusStopped = "Copying stopped"

	activityCapacity = 200
)

var (
	ErrAlreadyConnected = errors.New("session already connected")
	ErrNoTraderToken    = errors.New("trader token is empty")
)

// Channel - транспорт сессии. Send возвращает false, если канал закрыт;
// все запросы fire-and-forget, ответы приходят через Handle* колбэки.
type Channel interface {
	Connect() error
	Disconnect() error
	Send(payload any) bool
}

// Notifier - опциональные уведомления о смене статуса (telegram)
type Notifier interface {
	Notify(text string)
}

// AuditSink - опциональная запись активности в БД
type AuditSink interface {
	AddActivity(level, message string)
}

// ActivityEntry - строка журнала активности, чисто наблюдательная
type ActivityEntry struct {
	Time    time.Time `json:"time"`
	Message string    `json:"message"`
}

// Snapshot - текущее состояние сессии для отдачи в UI
type Snapshot struct {
	State      State    `json:"state"`
	Authorized bool     `json:"authorized"`
	Loginid    string   `json:"loginid"`
	Balance    *float64 `json:"balance"`
	Currency   string   `json:"currency"`
	CopyStatus string   `json:"copy_status"`
	LastError  string   `json:"last_error,omitempty"`
}

// Session - единственный владелец канала и всех изменяемых полей страницы.
// Все переходы состояния идут через явные методы под одним мьютексом.
type Session struct {
	channel  Channel
	logger   *slog.Logger
	notifier Notifier
	audit    AuditSink

	mu         sync.Mutex
	state      State
	authorized bool

	loginid     string
	userToken   string
	traderToken string

	balance    *float64
	currency   string
	copyStatus string
	lastError  string

	activity []ActivityEntry
}

func NewSession(channel Channel, logger *slog.Logger) *Session {
	return &Session{
		channel:    channel,
		logger:     logger,
		state:      StateDisconnected,
		copyStatus: CopyStatusIdle,
	}
}

// SetNotifier подключает уведомления, nil отключает
func (s *Session) SetNotifier(notifier Notifier) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.notifier = notifier
}

// SetAuditSink подключает запись активности в БД, nil отключает
func (s *Session) SetAuditSink(audit AuditSink) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.audit = audit
}

// SetCredentials обновляет локальные поля. Loginid заполняется из authorize
// ответа только если пуст, поэтому явный сеттер его всегда перезаписывает.
func (s *Session) SetCredentials(loginid, userToken, traderToken string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.loginid = loginid
	s.userToken = userToken
	s.traderToken = traderToken
}

// Bind подписывает сессию на события клиента
func (s *Session) Bind(c *deriv.Client) {
	c.SetOpenHandler(s.HandleOpen)
	c.SetCloseHandler(s.HandleClose)
	c.SetAuthorizeHandler(s.HandleAuthorize)
	c.SetBalanceHandler(s.HandleBalance)
	c.SetCopyStartHandler(s.HandleCopyStart)
	c.SetCopyStopHandler(s.HandleCopyStop)
}

// Connect открывает канал: Disconnected -> Connecting -> Connected.
// Open handler канала дергает HandleOpen синхронно внутри этого вызова.
func (s *Session) Connect() error {
	s.mu.Lock()

	if s.state != StateDisconnected {
		s.mu.Unlock()
		return ErrAlreadyConnected
	}

	s.state = StateConnecting
	s.log("Connecting...")
	s.mu.Unlock()

	if err := s.channel.Connect(); err != nil {
		s.mu.Lock()
		s.state = StateDisconnected
		s.lastError = "Connection error"
		s.log("Connection error")
		s.mu.Unlock()

		return fmt.Errorf("connect error: %w", err)
	}

	return nil
}

// Disconnect закрывает канал, HandleClose придет из read loop клиента
func (s *Session) Disconnect() error {
	return s.channel.Disconnect()
}

// HandleOpen - канал открыт. Authorize уходит не более одного раза на
// открытие и только при непустом токене.
func (s *Session) HandleOpen() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state = StateConnected
	s.authorized = false
	s.log("Connected")

	if s.userToken == "" {
		return
	}

	s.log("→ authorize")
	s.channel.Send(deriv.NewAuthorizeRequest(s.userToken))
}

// Authorize - явный повтор авторизации по кнопке. Автоматических ретраев
// нет, но пользовательское действие отправляет запрос заново.
func (s *Session) Authorize() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateDisconnected || s.state == StateConnecting {
		return
	}

	if s.userToken == "" {
		return
	}

	s.log("→ authorize")
	s.channel.Send(deriv.NewAuthorizeRequest(s.userToken))
}

// HandleAuthorize - ответ на authorize. Успех подписывает на баланс ровно
// один раз, ошибка оставляет состояние как было.
func (s *Session) HandleAuthorize(event deriv.AuthorizeEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if event.Err != nil {
		s.lastError = event.Err.Message
		s.log("Authorize error: " + event.Err.Message)

		return
	}

	s.state = StateAuthorized
	s.authorized = true
	s.lastError = ""

	if s.loginid == "" && event.Loginid != "" {
		s.loginid = event.Loginid
	}

	s.log("Authorized as " + event.Loginid)

	s.log("→ balance subscribe")
	s.channel.Send(deriv.NewBalanceRequest())
}

// HandleBalance - обновление баланса, last-write-wins. Сообщение с ошибкой
// не трогает отображаемые значения.
func (s *Session) HandleBalance(event deriv.BalanceEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if event.Err != nil {
		s.log("Balance error: " + event.Err.Message)
		return
	}

	balance := event.Balance
	s.balance = &balance
	s.currency = event.Currency

	s.log(fmt.Sprintf("Balance: %.2f %s", event.Balance, event.Currency))
}

// StartCopy отправляет copy_start. При пустом трейдерском токене исходящего
// сообщения нет вообще.
func (s *Session) StartCopy() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.traderToken == "" {
		return ErrNoTraderToken
	}

	s.log("→ copy_start")
	s.channel.Send(deriv.NewCopyStartRequest(s.traderToken, s.loginid))

	return nil
}

// StopCopy отправляет copy_stop
func (s *Session) StopCopy() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.log("→ copy_stop")
	s.channel.Send(deriv.NewCopyStopRequest())

	return nil
}

// HandleCopyStart - ответ на copy_start
func (s *Session) HandleCopyStart(event deriv.CopyStartEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if event.Err != nil {
		s.copyStatus = "Copy start error: " + event.Err.Message
	} else {
		s.copyStatus = CopyStatusStarted
	}

	s.log(s.copyStatus)
	s.notify(s.copyStatus)
}

// HandleCopyStop - ответ на copy_stop
func (s *Session) HandleCopyStop(event deriv.CopyStopEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if event.Err != nil {
		s.copyStatus = "Copy stop error: " + event.Err.Message
	} else {
		s.copyStatus = CopyStatusStopped
	}

	s.log(s.copyStatus)
	s.notify(s.copyStatus)
}

// HandleClose - канал закрыт или оборвался. Авторизация сбрасывается,
// автоматического реконнекта нет.
func (s *Session) HandleClose() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateDisconnected {
		return
	}

	s.state = StateDisconnected
	s.authorized = false
	s.log("Disconnected")
	s.notify("⚠️ Channel disconnected")
}

// Snapshot возвращает копию состояния для UI
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := Snapshot{
		State:      s.state,
		Authorized: s.authorized,
		Loginid:    s.loginid,
		Currency:   s.currency,
		CopyStatus: s.copyStatus,
		LastError:  s.lastError,
	}

	if s.balance != nil {
		balance := *s.balance
		snapshot.Balance = &balance
	}

	return snapshot
}

// Credentials возвращает текущие локальные поля
func (s *Session) Credentials() (loginid, userToken, traderToken string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.loginid, s.userToken, s.traderToken
}

// Activity возвращает копию журнала, новые записи первыми
func (s *Session) Activity() []ActivityEntry {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries := make([]ActivityEntry, len(s.activity))
	copy(entries, s.activity)

	return entries
}

// log добавляет запись в журнал (новые первыми, емкость 200, старые
// вытесняются) и дублирует ее в slog и audit sink. Держит s.mu.
func (s *Session) log(message string) {
	entry := ActivityEntry{Time: time.Now(), Message: message}

	s.activity = append([]ActivityEntry{entry}, s.activity...)
	if len(s.activity) > activityCapacity {
		s.activity = s.activity[:activityCapacity]
	}

	s.logger.Debug("Session activity", slog.String("message", message))

	if s.audit != nil {
		s.audit.AddActivity("INFO", message)
	}
}

// notify шлет уведомление, если notifier подключен. Держит s.mu.
func (s *Session) notify(text string) {
	if s.notifier != nil {
		go s.notifier.Notify(text)
	}
}
