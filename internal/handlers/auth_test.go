package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/mholloway/pennygate/internal/auth"
	"github.com/mholloway/pennygate/internal/handlers"
	"github.com/mholloway/pennygate/internal/models"
	"github.com/mholloway/pennygate/internal/services"
	pkghttp "github.com/mholloway/pennygate/pkg/http"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// MockLoginService implements handlers.LoginServiceInterface
type MockLoginService struct {
	result *services.LoginResult
	err    error

	gotPin int
	gotIP  string
	calls  int
}

func (m *MockLoginService) Attempt(ctx context.Context, pin int, ip string) (*services.LoginResult, error) {
	m.calls++
	m.gotPin = pin
	m.gotIP = ip
	return m.result, m.err
}

func newHandler(service *MockLoginService) *handlers.AuthHandler {
	tm := auth.NewTokenManager("a-sufficiently-long-test-secret", time.Hour)
	return handlers.NewAuthHandler(service, tm, &pkghttp.IPConfig{})
}

func postLogin(t *testing.T, handler *handlers.AuthHandler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/login", bytes.NewBufferString(body))
	req.RemoteAddr = "1.2.3.4:51234"
	rec := httptest.NewRecorder()
	handler.Login(rec, req)
	return rec
}

func TestLogin_Success(t *testing.T) {
	service := &MockLoginService{
		result: &services.LoginResult{
			User: &models.User{UID: "uid-1", Name: "alice"},
		},
	}
	handler := newHandler(service)

	rec := postLogin(t, handler, `{"pin":1234}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1234, service.gotPin)
	assert.Equal(t, "1.2.3.4", service.gotIP)

	var resp handlers.LoginResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.False(t, resp.Error)
	assert.Equal(t, "uid-1", resp.UID)
	assert.Equal(t, "alice", resp.Name)
	assert.NotEmpty(t, resp.APIKey)

	expires, err := time.Parse(time.RFC3339, resp.Expires)
	require.NoError(t, err)
	assert.True(t, expires.After(time.Now()))
}

func TestLogin_WrongPin(t *testing.T) {
	service := &MockLoginService{result: &services.LoginResult{}}
	handler := newHandler(service)

	rec := postLogin(t, handler, `{"pin":9999}`)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"error":true,"errorMessage":"Bad PIN"}`, rec.Body.String())
}

func TestLogin_BannedLooksLikeWrongPin(t *testing.T) {
	// Even with valid credentials, a banned source gets the same 401 as
	// a wrong PIN: the distinction must not leak to the client.
	service := &MockLoginService{
		result: &services.LoginResult{
			User:   &models.User{UID: "uid-1", Name: "alice"},
			Banned: true,
		},
	}
	handler := newHandler(service)

	rec := postLogin(t, handler, `{"pin":1234}`)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"error":true,"errorMessage":"Bad PIN"}`, rec.Body.String())
}

func TestLogin_MalformedBody(t *testing.T) {
	service := &MockLoginService{}
	handler := newHandler(service)

	rec := postLogin(t, handler, `{pin}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Zero(t, service.calls)
}

func TestLogin_MalformedPinRejectedBeforeService(t *testing.T) {
	service := &MockLoginService{}
	handler := newHandler(service)

	for _, body := range []string{`{"pin":0}`, `{"pin":12}`, `{"pin":123456}`, `{}`} {
		rec := postLogin(t, handler, body)
		assert.Equal(t, http.StatusBadRequest, rec.Code, "body %s", body)
	}
	assert.Zero(t, service.calls)
}

func TestLogin_StoreUnavailableFailsClosed(t *testing.T) {
	service := &MockLoginService{err: models.ErrStoreUnavailable}
	handler := newHandler(service)

	rec := postLogin(t, handler, `{"pin":1234}`)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":true,"errorMessage":"Internal server error"}`, rec.Body.String())
}

func TestMe_ReturnsIdentityFromContext(t *testing.T) {
	handler := newHandler(&MockLoginService{})

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	identity := &models.Identity{UID: "uid-1", Name: "alice"}
	req = req.WithContext(context.WithValue(req.Context(), auth.IdentityContextKey, identity))

	rec := httptest.NewRecorder()
	handler.Me(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"uid":"uid-1","name":"alice"}`, rec.Body.String())
}
