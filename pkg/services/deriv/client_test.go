package deriv

import (
	"encoding/json"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient() *Client {
	return New("", "", slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestNew_Defaults(t *testing.T) {
	client := newTestClient()

	assert.Equal(t, DefaultWSURL, client.wsURL)
	assert.Equal(t, DefaultAppID, client.appID)
	assert.False(t, client.IsActive())
}

func TestSend_NotConnected_NoOp(t *testing.T) {
	client := newTestClient()

	assert.False(t, client.Send(NewCopyStopRequest()))
}

func TestDisconnect_NotConnected_NoError(t *testing.T) {
	client := newTestClient()

	require.NoError(t, client.Disconnect())
	require.NoError(t, client.Disconnect())
}

func parseMessage(t *testing.T, raw string) message {
	t.Helper()

	var msg message
	require.NoError(t, json.Unmarshal([]byte(raw), &msg))

	return msg
}

func TestHandleMessage_Authorize(t *testing.T) {
	client := newTestClient()

	var got AuthorizeEvent
	client.SetAuthorizeHandler(func(event AuthorizeEvent) { got = event })

	client.handleMessage(parseMessage(t, `{"msg_type":"authorize","authorize":{"loginid":"CR123"}}`))

	assert.Equal(t, "CR123", got.Loginid)
	assert.Nil(t, got.Err)
}

func TestHandleMessage_AuthorizeError(t *testing.T) {
	client := newTestClient()

	var got AuthorizeEvent
	client.SetAuthorizeHandler(func(event AuthorizeEvent) { got = event })

	client.handleMessage(parseMessage(t, `{"msg_type":"authorize","error":{"code":"InvalidToken","message":"Token is invalid"}}`))

	require.NotNil(t, got.Err)
	assert.Equal(t, "InvalidToken", got.Err.Code)
	assert.Equal(t, "Token is invalid", got.Err.Message)
}

func TestHandleMessage_Balance(t *testing.T) {
	client := newTestClient()

	var got BalanceEvent
	client.SetBalanceHandler(func(event BalanceEvent) { got = event })

	client.handleMessage(parseMessage(t, `{"msg_type":"balance","balance":{"balance":1500.25,"currency":"USD"}}`))

	assert.Equal(t, 1500.25, got.Balance)
	assert.Equal(t, "USD", got.Currency)
}

func TestHandleMessage_CopyStart(t *testing.T) {
	client := newTestClient()

	var got CopyStartEvent
	client.SetCopyStartHandler(func(event CopyStartEvent) { got = event })

	client.handleMessage(parseMessage(t, `{"msg_type":"copy_start","copy_start":1}`))

	assert.True(t, got.OK)
	assert.Nil(t, got.Err)
}

func TestHandleMessage_CopyStopError(t *testing.T) {
	client := newTestClient()

	var got CopyStopEvent
	client.SetCopyStopHandler(func(event CopyStopEvent) { got = event })

	client.handleMessage(parseMessage(t, `{"msg_type":"copy_stop","error":{"code":"CopyTradingNotActive","message":"Not copying"}}`))

	assert.False(t, got.OK)
	require.NotNil(t, got.Err)
	assert.Equal(t, "Not copying", got.Err.Message)
}

// Известный msg_type без payload и без error не диспатчится: нулевое
// событие authorize выглядело бы как успех, нулевой balance затер бы
// последнюю валидную пару
func TestHandleMessage_PayloadlessDiscarded(t *testing.T) {
	client := newTestClient()

	dispatched := 0
	client.SetAuthorizeHandler(func(AuthorizeEvent) { dispatched++ })
	client.SetBalanceHandler(func(BalanceEvent) { dispatched++ })
	client.SetCopyStartHandler(func(CopyStartEvent) { dispatched++ })
	client.SetCopyStopHandler(func(CopyStopEvent) { dispatched++ })

	for _, raw := range []string{
		`{"msg_type":"authorize"}`,
		`{"msg_type":"balance"}`,
		`{"msg_type":"copy_start"}`,
		`{"msg_type":"copy_stop"}`,
	} {
		client.handleMessage(parseMessage(t, raw))
	}

	assert.Zero(t, dispatched)
}

func TestHandleMessage_PayloadlessBalance_KeepsLastValidPair(t *testing.T) {
	client := newTestClient()

	var last BalanceEvent
	client.SetBalanceHandler(func(event BalanceEvent) { last = event })

	client.handleMessage(parseMessage(t, `{"msg_type":"balance","balance":{"balance":100.5,"currency":"USD"}}`))
	client.handleMessage(parseMessage(t, `{"msg_type":"balance"}`))

	assert.Equal(t, 100.5, last.Balance)
	assert.Equal(t, "USD", last.Currency)
}

// Неизвестный msg_type и сообщение без handlers не должны падать
func TestHandleMessage_UnknownType(t *testing.T) {
	client := newTestClient()

	client.handleMessage(parseMessage(t, `{"msg_type":"tick","tick":{"quote":1.23}}`))
	client.handleMessage(parseMessage(t, `{"msg_type":"authorize","authorize":{"loginid":"CR123"}}`))
}

func TestSuccessFlag(t *testing.T) {
	assert.True(t, successFlag(json.RawMessage(`1`)))
	assert.False(t, successFlag(json.RawMessage(`0`)))
	assert.False(t, successFlag(nil))
	assert.False(t, successFlag(json.RawMessage(`"ok"`)))
}
