package api

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"web_deriv/internal/auth"
	"web_deriv/internal/config"
	"web_deriv/internal/storage"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	store, err := storage.New(filepath.Join(t.TempDir(), "test.db"), logger)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	cfg := &config.Config{
		DerivWSURL: "wss://example.invalid/ws",
		DerivAppID: "1089",
	}

	authService := auth.NewService("test-secret", time.Hour)
	sessions := NewSessionManager(cfg, store, nil, logger)
	handler := New(store, authService, sessions, logger)

	server := httptest.NewServer(handler.SetupRouter(t.TempDir()))
	t.Cleanup(server.Close)

	return server
}

func doJSON(t *testing.T, method, url, token string, body any) (*http.Response, map[string]any) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, url, reader)
	require.NoError(t, err)

	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })

	var decoded map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&decoded))

	return resp, decoded
}

func registerUser(t *testing.T, server *httptest.Server) string {
	t.Helper()

	resp, body := doJSON(t, "POST", server.URL+"/api/auth/register", "", map[string]string{
		"username": "alice",
		"password": "password123",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	data := body["data"].(map[string]any)

	return data["token"].(string)
}

func TestHealth(t *testing.T) {
	server := newTestServer(t)

	resp, _ := doJSON(t, "GET", server.URL+"/health", "", nil)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestRegisterAndLogin(t *testing.T) {
	server := newTestServer(t)

	registerUser(t, server)

	resp, body := doJSON(t, "POST", server.URL+"/api/auth/login", "", map[string]string{
		"username": "alice",
		"password": "password123",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	data := body["data"].(map[string]any)
	assert.NotEmpty(t, data["token"])
	assert.Equal(t, "alice", data["username"])
}

func TestLogin_WrongPassword(t *testing.T) {
	server := newTestServer(t)
	registerUser(t, server)

	resp, _ := doJSON(t, "POST", server.URL+"/api/auth/login", "", map[string]string{
		"username": "alice",
		"password": "wrong",
	})

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestRegister_DuplicateUsername(t *testing.T) {
	server := newTestServer(t)
	registerUser(t, server)

	resp, _ := doJSON(t, "POST", server.URL+"/api/auth/register", "", map[string]string{
		"username": "alice",
		"password": "password123",
	})

	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestProtectedRoutes_RequireToken(t *testing.T) {
	server := newTestServer(t)

	for _, route := range []struct{ method, path string }{
		{"GET", "/api/session/status"},
		{"GET", "/api/settings"},
		{"POST", "/api/copy/start"},
	} {
		req, err := http.NewRequest(route.method, server.URL+route.path, nil)
		require.NoError(t, err)

		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		resp.Body.Close()

		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode, route.path)
	}
}

func TestSettings_SaveAndGet(t *testing.T) {
	server := newTestServer(t)
	token := registerUser(t, server)

	resp, _ := doJSON(t, "PUT", server.URL+"/api/settings", token, map[string]string{
		"loginid":      "CR123",
		"user_token":   "T1",
		"trader_token": "TRADER1",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body := doJSON(t, "GET", server.URL+"/api/settings", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	data := body["data"].(map[string]any)
	assert.Equal(t, "CR123", data["loginid"])
	assert.Equal(t, "T1", data["user_token"])
	assert.Equal(t, "TRADER1", data["trader_token"])
}

func TestStatus_DisconnectedByDefault(t *testing.T) {
	server := newTestServer(t)
	token := registerUser(t, server)

	resp, body := doJSON(t, "GET", server.URL+"/api/session/status", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	data := body["data"].(map[string]any)
	assert.Equal(t, "disconnected", data["state"])
	assert.Equal(t, false, data["authorized"])
	assert.Nil(t, data["balance"])
	assert.Equal(t, "Idle", data["copy_status"])
}

func TestStartCopy_WithoutTraderToken(t *testing.T) {
	server := newTestServer(t)
	token := registerUser(t, server)

	resp, body := doJSON(t, "POST", server.URL+"/api/copy/start", token, nil)

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Trader token is required", body["error"])
}

// Сохраненные поля подхватываются живой сессией: после Save трейдерский
// токен уже не пустой, поэтому copy/start проходит валидацию
func TestSaveSettings_UpdatesLiveSession(t *testing.T) {
	server := newTestServer(t)
	token := registerUser(t, server)

	// Создаем сессию до Save
	resp, _ := doJSON(t, "GET", server.URL+"/api/session/status", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = doJSON(t, "PUT", server.URL+"/api/settings", token, map[string]string{
		"trader_token": "TRADER1",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// Канал закрыт, но исходящее сообщение и не обещано: запрос принят
	resp, _ = doJSON(t, "POST", server.URL+"/api/copy/start", token, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
