package deriv

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	// DefaultWSURL - endpoint realtime API Deriv
	DefaultWSURL = "wss://ws.binaryws.com/websockets/v3"
	// DefaultAppID - публичный app_id для тестирования
	DefaultAppID = "1089"

	pingInterval = 30 * time.Second
)

// EventHandler вызывается на входящее событие соответствующего msg_type
type EventHandler[T any] func(event T)

// Client - одно подключение к Deriv API. Канал принадлежит исключительно
// владельцу: все записи идут через Send, чтение - через внутренний readLoop.
type Client struct {
	wsURL  string
	appID  string
	logger *slog.Logger

	conn   *websocket.Conn
	connID string

	openHandler      func()
	closeHandler     func()
	authorizeHandler EventHandler[AuthorizeEvent]
	balanceHandler   EventHandler[BalanceEvent]
	copyStartHandler EventHandler[CopyStartEvent]
	copyStopHandler  EventHandler[CopyStopEvent]

	done   chan struct{}
	mu     sync.Mutex
	active bool
}

func New(wsURL, appID string, logger *slog.Logger) *Client {
	if wsURL == "" {
		wsURL = DefaultWSURL
	}

	if appID == "" {
		appID = DefaultAppID
	}

	return &Client{
		wsURL:  wsURL,
		appID:  appID,
		logger: logger,
		done:   make(chan struct{}),
	}
}

func (c *Client) SetOpenHandler(handler func()) {
	c.openHandler = handler
}

func (c *Client) SetCloseHandler(handler func()) {
	c.closeHandler = handler
}

func (c *Client) SetAuthorizeHandler(handler EventHandler[AuthorizeEvent]) {
	c.authorizeHandler = handler
}

func (c *Client) SetBalanceHandler(handler EventHandler[BalanceEvent]) {
	c.balanceHandler = handler
}

func (c *Client) SetCopyStartHandler(handler EventHandler[CopyStartEvent]) {
	c.copyStartHandler = handler
}

func (c *Client) SetCopyStopHandler(handler EventHandler[CopyStopEvent]) {
	c.copyStopHandler = handler
}

// Connect открывает канал. Open handler вызывается синхронно до запуска
// read loop, поэтому authorize уходит раньше любого другого сообщения.
func (c *Client) Connect() error {
	c.mu.Lock()

	if c.active {
		c.mu.Unlock()
		return fmt.Errorf("already connected")
	}

	endpoint := fmt.Sprintf("%s?app_id=%s", c.wsURL, c.appID)

	c.logger.Info("Connecting to Deriv API", slog.String("url", endpoint))

	conn, _, err := websocket.DefaultDialer.Dial(endpoint, nil)
	if err != nil {
		c.mu.Unlock()
		return fmt.Errorf("dial error: %w", err)
	}

	c.conn = conn
	c.active = true
	c.done = make(chan struct{})
	c.connID = uuid.New().String()

	c.mu.Unlock()

	c.logger.Info("✅ Channel open", slog.String("conn_id", c.connID))

	if c.openHandler != nil {
		c.openHandler()
	}

	go c.readLoop()
	go c.pingLoop()

	return nil
}

// Disconnect синхронно закрывает канал и сбрасывает handle
func (c *Client) Disconnect() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.active {
		return nil
	}

	c.active = false
	close(c.done)

	if c.conn != nil {
		c.conn.WriteMessage(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		)
		c.conn.Close()
		c.conn = nil
	}

	c.logger.Info("Channel disconnected", slog.String("conn_id", c.connID))

	return nil
}

func (c *Client) IsActive() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.active
}

// Send пишет payload в канал. Возвращает false (и ничего не делает),
// если канал не открыт; ответ приходит позже отдельным сообщением.
func (c *Client) Send(payload any) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.active || c.conn == nil {
		return false
	}

	if err := c.conn.WriteJSON(payload); err != nil {
		c.logger.Error("Channel write error", slog.Any("error", err))
		return false
	}

	return true
}

func (c *Client) readLoop() {
	defer func() {
		if err := c.Disconnect(); err != nil {
			c.logger.Error("Channel disconnect error", slog.Any("error", err))
		}

		if c.closeHandler != nil {
			c.closeHandler()
		}
	}()

	for {
		select {
		case <-c.done:
			return
		default:
		}

		c.mu.Lock()
		conn := c.conn
		c.mu.Unlock()

		if conn == nil {
			return
		}

		_, raw, err := conn.ReadMessage()
		if err != nil {
			c.mu.Lock()
			active := c.active
			c.mu.Unlock()

			if active {
				c.logger.Error("Channel read error", slog.Any("error", err))
			}

			return
		}

		c.logger.Debug("📥 Channel READ", slog.String("raw", string(raw)))

		var msg message
		if err := json.Unmarshal(raw, &msg); err != nil {
			// Кривой payload молча отбрасывается, ошибка не фатальна
			continue
		}

		c.handleMessage(msg)
	}
}

// handleMessage диспатчит сообщение по msg_type. Известный msg_type без
// payload и без error - такой же кривой payload, молча отбрасывается.
func (c *Client) handleMessage(msg message) {
	switch msg.MsgType {
	case "authorize":
		if msg.Authorize == nil && msg.Error == nil {
			return
		}

		event := AuthorizeEvent{Err: msg.Error}
		if msg.Authorize != nil {
			event.Loginid = msg.Authorize.Loginid
		}

		if c.authorizeHandler != nil {
			c.authorizeHandler(event)
		}

	case "balance":
		if msg.Balance == nil && msg.Error == nil {
			return
		}

		event := BalanceEvent{Err: msg.Error}
		if msg.Balance != nil {
			event.Balance = msg.Balance.Balance
			event.Currency = msg.Balance.Currency
		}

		if c.balanceHandler != nil {
			c.balanceHandler(event)
		}

	case "copy_start":
		if len(msg.CopyStart) == 0 && msg.Error == nil {
			return
		}

		event := CopyStartEvent{OK: successFlag(msg.CopyStart), Err: msg.Error}

		if c.copyStartHandler != nil {
			c.copyStartHandler(event)
		}

	case "copy_stop":
		if len(msg.CopyStop) == 0 && msg.Error == nil {
			return
		}

		event := CopyStopEvent{OK: successFlag(msg.CopyStop), Err: msg.Error}

		if c.copyStopHandler != nil {
			c.copyStopHandler(event)
		}

	case "ping":
		return

	default:
		return
	}
}

// successFlag - поля copy_start/copy_stop несут 1 при успехе
func successFlag(raw json.RawMessage) bool {
	if len(raw) == 0 {
		return false
	}

	var flag int
	if err := json.Unmarshal(raw, &flag); err != nil {
		return false
	}

	return flag == 1
}

func (c *Client) pingLoop() {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			if !c.Send(PingRequest{Ping: 1}) {
				return
			}
		}
	}
}
