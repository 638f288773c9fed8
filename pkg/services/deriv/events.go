package deriv

import "encoding/json"

// APIError - объект error внутри входящего сообщения (protocol error)
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// AuthorizeEvent - ответ на authorize запрос
type AuthorizeEvent struct {
	Loginid string
	Err     *APIError
}

// BalanceEvent - обновление баланса (первый ответ на подписку или push)
type BalanceEvent struct {
	Balance  float64
	Currency string
	Err      *APIError
}

// CopyStartEvent - ответ на copy_start запрос
type CopyStartEvent struct {
	OK  bool
	Err *APIError
}

// CopyStopEvent - ответ на copy_stop запрос
type CopyStopEvent struct {
	OK  bool
	Err *APIError
}

// message - общий конверт входящего сообщения, различается по msg_type
type message struct {
	MsgType   string          `json:"msg_type"`
	Error     *APIError       `json:"error,omitempty"`
	Authorize *authorizeData  `json:"authorize,omitempty"`
	Balance   *balanceData    `json:"balance,omitempty"`
	CopyStart json.RawMessage `json:"copy_start,omitempty"`
	CopyStop  json.RawMessage `json:"copy_stop,omitempty"`
}

type authorizeData struct {
	Loginid string `json:"loginid"`
}

type balanceData struct {
	Balance  float64 `json:"balance"`
	Currency string  `json:"currency"`
}
