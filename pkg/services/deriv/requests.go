package deriv

// Исходящие запросы к Deriv API. Протокол не имеет корреляции запрос/ответ:
// ответы различаются только по msg_type, поэтому никаких req_id здесь нет.

// AuthorizeRequest обменивает API токен на авторизованную сессию
type AuthorizeRequest struct {
	Authorize string `json:"authorize"`
}

// BalanceRequest подписывается на обновления баланса аккаунта
type BalanceRequest struct {
	Balance   int `json:"balance"`
	Subscribe int `json:"subscribe"`
}

// CopyStartRequest запускает копирование сделок трейдера по его read-only токену
type CopyStartRequest struct {
	CopyStart string `json:"copy_start"`
	Loginid   string `json:"loginid,omitempty"`
}

// CopyStopRequest останавливает копирование
type CopyStopRequest struct {
	CopyStop int `json:"copy_stop"`
}

// PingRequest - keepalive, сервер отвечает msg_type "ping"
type PingRequest struct {
	Ping int `json:"ping"`
}

func NewAuthorizeRequest(token string) AuthorizeRequest {
	return AuthorizeRequest{Authorize: token}
}

func NewBalanceRequest() BalanceRequest {
	return BalanceRequest{Balance: 1, Subscribe: 1}
}

func NewCopyStartRequest(traderToken, loginid string) CopyStartRequest {
	return CopyStartRequest{CopyStart: traderToken, Loginid: loginid}
}

func NewCopyStopRequest() CopyStopRequest {
	return CopyStopRequest{CopyStop: 1}
}
