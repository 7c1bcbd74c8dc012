package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dmitrijs2005/parametrik/internal/common"
	"github.com/dmitrijs2005/parametrik/internal/logging"
	"github.com/dmitrijs2005/parametrik/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeUsers struct {
	regOut *models.User
	regErr error

	token    string
	loginErr error

	subject string
}

func (f *fakeUsers) Register(context.Context, string, string, string) (*models.User, error) {
	return f.regOut, f.regErr
}

func (f *fakeUsers) Login(context.Context, string, string) (string, error) {
	return f.token, f.loginErr
}

func (f *fakeUsers) Authenticate(_ context.Context, token string) (string, error) {
	if token != "good" {
		return "", fmt.Errorf("%w: rejected", common.ErrorUnauthorized)
	}
	return f.subject, nil
}

func newTestRoutes(users UserService) http.Handler {
	return NewHTTPServer(":0", logging.New(io.Discard, "text", "error"), users).Routes()
}

func do(t *testing.T, h http.Handler, method, path, body string, header http.Header) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	for k, v := range header {
		req.Header[k] = v
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &m))
	return m
}

func TestCreateUser(t *testing.T) {
	tests := []struct {
		name     string
		users    *fakeUsers
		body     string
		wantCode int
		wantBody map[string]any
	}{
		{
			name:     "created",
			users:    &fakeUsers{regOut: &models.User{ID: 1, Name: "Alice", Email: "alice@example.com"}},
			body:     `{"name":"Alice","email":"alice@example.com","password":"pw1"}`,
			wantCode: http.StatusCreated,
			wantBody: map[string]any{"id": float64(1), "name": "Alice", "email": "alice@example.com"},
		},
		{
			name:     "bad json",
			users:    &fakeUsers{},
			body:     `{"name":`,
			wantCode: http.StatusBadRequest,
			wantBody: map[string]any{"error": "Bad Request", "message": "invalid request body"},
		},
		{
			name:     "invalid argument",
			users:    &fakeUsers{regErr: common.ErrorInvalidArgument},
			body:     `{"name":"A"}`,
			wantCode: http.StatusBadRequest,
			wantBody: map[string]any{"error": "Bad Request", "message": "email and password are required"},
		},
		{
			name:     "internal",
			users:    &fakeUsers{regErr: common.ErrorInternal},
			body:     `{"name":"A","email":"a@x","password":"p"}`,
			wantCode: http.StatusInternalServerError,
			wantBody: map[string]any{"error": "Internal Server Error", "message": "internal server error"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, newTestRoutes(tt.users), http.MethodPost, "/v1/users", tt.body, nil)
			assert.Equal(t, tt.wantCode, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
			assert.Equal(t, tt.wantBody, decodeBody(t, rec))
		})
	}
}

func TestCreateUser_ResponseHasNoHash(t *testing.T) {
	users := &fakeUsers{regOut: &models.User{ID: 1, Name: "A", Email: "a@x"}}
	rec := do(t, newTestRoutes(users), http.MethodPost, "/v1/users", `{"name":"A","email":"a@x","password":"p"}`, nil)
	assert.NotContains(t, rec.Body.String(), "password")
	assert.NotContains(t, rec.Body.String(), "scrypt")
}

func TestCreateUserToken(t *testing.T) {
	ok := do(t, newTestRoutes(&fakeUsers{token: "tok"}), http.MethodPost, "/v1/user_tokens", `{"email":"a@x","password":"p"}`, nil)
	assert.Equal(t, http.StatusOK, ok.Code)
	assert.Equal(t, map[string]any{"accessToken": "tok"}, decodeBody(t, ok))

	denied := do(t, newTestRoutes(&fakeUsers{loginErr: common.ErrorUnauthorized}), http.MethodPost, "/v1/user_tokens", `{"email":"a@x","password":"p"}`, nil)
	assert.Equal(t, http.StatusForbidden, denied.Code)
	assert.Equal(t, map[string]any{"error": "Forbidden", "message": "invalid credentials"}, decodeBody(t, denied))

	failed := do(t, newTestRoutes(&fakeUsers{loginErr: errors.New("pool closed")}), http.MethodPost, "/v1/user_tokens", `{"email":"a@x","password":"p"}`, nil)
	assert.Equal(t, http.StatusInternalServerError, failed.Code)
	assert.NotContains(t, failed.Body.String(), "pool")

	bad := do(t, newTestRoutes(&fakeUsers{}), http.MethodPost, "/v1/user_tokens", `nope`, nil)
	assert.Equal(t, http.StatusBadRequest, bad.Code)
}

func TestMe(t *testing.T) {
	h := newTestRoutes(&fakeUsers{subject: "a@x"})

	rec := do(t, h, http.MethodGet, "/v1/me", "", http.Header{"Authorization": {"Bearer good"}})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, map[string]any{"email": "a@x"}, decodeBody(t, rec))

	rec = do(t, h, http.MethodGet, "/v1/me", "", http.Header{"Authorization": {"bearer good"}})
	assert.Equal(t, http.StatusOK, rec.Code, "scheme is case-insensitive")

	rec = do(t, h, http.MethodGet, "/v1/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Bearer", rec.Header().Get("WWW-Authenticate"))

	rec = do(t, h, http.MethodGet, "/v1/me", "", http.Header{"Authorization": {"Bearer forged"}})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Header().Get("WWW-Authenticate"), "invalid_token")

	rec = do(t, h, http.MethodGet, "/v1/me", "", http.Header{"Authorization": {"Basic Zm9vOmJhcg=="}})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestHealthAndRouting(t *testing.T) {
	h := newTestRoutes(&fakeUsers{})

	rec := do(t, h, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, map[string]any{"status": "ok"}, decodeBody(t, rec))

	rec = do(t, h, http.MethodGet, "/v1/users", "", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)

	rec = do(t, h, http.MethodGet, "/nope", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
