package httpapi

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/parametrik/internal/logging"
	"github.com/dmitrijs2005/parametrik/internal/server/auth"
	"github.com/dmitrijs2005/parametrik/internal/server/credentials"
	"github.com/dmitrijs2005/parametrik/internal/server/hasher"
	"github.com/dmitrijs2005/parametrik/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/parametrik/internal/server/services"
	"github.com/dmitrijs2005/parametrik/internal/workerpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

func newRealService(t *testing.T) *services.UserService {
	t.Helper()
	db, err := sql.Open("sqlite", "file::memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })
	_, err = db.Exec(`CREATE TABLE users (
		id            INTEGER PRIMARY KEY,
		name          TEXT NOT NULL,
		email         TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL
	)`)
	require.NoError(t, err)

	h, err := hasher.NewScrypt(hasher.Params{LogN: 4, R: 8, P: 1, SaltLength: 16, KeyLength: 32})
	require.NoError(t, err)
	store, err := credentials.NewStore(db, repomanager.NewPostgresRepositoryManager(), h)
	require.NoError(t, err)
	secret, err := auth.NewHMACSecret([]byte("http-test-secret-http-test-secret"))
	require.NoError(t, err)

	pool := workerpool.New(2)
	t.Cleanup(pool.Close)
	return services.NewUserService(store, h, auth.NewTokenService(), secret, pool, logging.New(io.Discard, "text", "error"))
}

func postJSON(t *testing.T, url string, body any) (*http.Response, map[string]any) {
	t.Helper()
	b, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(url, "application/json", bytes.NewReader(b))
	require.NoError(t, err)
	defer resp.Body.Close()
	var m map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&m))
	return resp, m
}

func TestServe_AliceOverHTTP(t *testing.T) {
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	base := "http://" + lis.Addr().String()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	srv := NewHTTPServer(lis.Addr().String(), logging.New(io.Discard, "text", "error"), newRealService(t))
	go func() { done <- srv.Serve(ctx, lis) }()

	resp, body := postJSON(t, base+"/v1/users", map[string]string{"name": "Alice", "email": "alice@example.com", "password": "pw1"})
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, map[string]any{"id": float64(1), "name": "Alice", "email": "alice@example.com"}, body)

	resp, body = postJSON(t, base+"/v1/user_tokens", map[string]string{"email": "alice@example.com", "password": "pw1"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	token, _ := body["accessToken"].(string)
	require.NotEmpty(t, token)

	resp, _ = postJSON(t, base+"/v1/user_tokens", map[string]string{"email": "alice@example.com", "password": "pw2"})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, _ = postJSON(t, base+"/v1/user_tokens", map[string]string{"email": "bob@example.com", "password": "pw1"})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	req, err := http.NewRequest(http.MethodGet, base+"/v1/me", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+token)
	me, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	var meBody map[string]any
	require.NoError(t, json.NewDecoder(me.Body).Decode(&meBody))
	_ = me.Body.Close()
	assert.Equal(t, http.StatusOK, me.StatusCode)
	assert.Equal(t, "alice@example.com", meBody["email"])

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop within timeout after context cancel")
	}
}

func TestRun_ReturnsErrorOnBadAddress(t *testing.T) {
	srv := NewHTTPServer("127.0.0.1:99999", logging.New(io.Discard, "text", "error"), &fakeUsers{})
	if err := srv.Run(context.Background()); err == nil {
		t.Fatal("expected error from Run on bad address, got nil")
	}
}

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestServe_ListenerFailureReleasesShutdownWatcher(t *testing.T) {
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	require.NoError(t, lis.Close())

	var logs syncBuffer
	srv := NewHTTPServer(lis.Addr().String(), logging.New(&logs, "text", "info"), &fakeUsers{})

	err = srv.Serve(context.Background(), lis)
	require.Error(t, err)

	assert.Eventually(t, func() bool {
		return strings.Contains(logs.String(), "Stopping HTTP server")
	}, 2*time.Second, 10*time.Millisecond)
}
