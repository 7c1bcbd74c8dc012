package services

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/dmitrijs2005/parametrik/internal/common"
	"github.com/dmitrijs2005/parametrik/internal/logging"
	"github.com/dmitrijs2005/parametrik/internal/server/auth"
	"github.com/dmitrijs2005/parametrik/internal/server/credentials"
	"github.com/dmitrijs2005/parametrik/internal/server/hasher"
	"github.com/dmitrijs2005/parametrik/internal/server/models"
	"github.com/dmitrijs2005/parametrik/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/parametrik/internal/workerpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

// --- helpers ---

var testNow = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func cheapHasher(t *testing.T) hasher.Hasher {
	t.Helper()
	h, err := hasher.NewScrypt(hasher.Params{LogN: 4, R: 8, P: 1, SaltLength: 16, KeyLength: 32})
	require.NoError(t, err)
	return h
}

func testSecret(t *testing.T) auth.Secret {
	t.Helper()
	s, err := auth.NewHMACSecret([]byte("0123456789abcdef0123456789abcdef"))
	require.NoError(t, err)
	return s
}

func discardLogger() logging.Logger {
	return logging.New(io.Discard, "text", "error")
}

type clock struct{ now time.Time }

func (c *clock) Now() time.Time { return c.now }

func newService(t *testing.T, store CredentialStore, h hasher.Hasher, c *clock) *UserService {
	t.Helper()
	pool := workerpool.New(4)
	t.Cleanup(pool.Close)
	tokens := auth.NewTokenService(auth.WithClock(c.Now))
	return NewUserService(store, h, tokens, testSecret(t), pool, discardLogger())
}

func newSQLiteStore(t *testing.T, h hasher.Hasher) *credentials.Store {
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

	s, err := credentials.NewStore(db, repomanager.NewPostgresRepositoryManager(), h)
	require.NoError(t, err)
	return s
}

type fakeStore struct {
	registerOut  *models.User
	registerErr  error
	findOut      *models.User
	findErr      error
	registerHash string
}

func (f *fakeStore) RegisterOrUpdate(_ context.Context, _, _, passwordHash string) (*models.User, error) {
	f.registerHash = passwordHash
	return f.registerOut, f.registerErr
}

func (f *fakeStore) Find(context.Context, string, string) (*models.User, error) {
	return f.findOut, f.findErr
}

type brokenHasher struct{ hasher.Hasher }

func (brokenHasher) Hash(string) (string, error) { return "", errors.New("no entropy") }

// --- end to end over a real store ---

func TestUserService_AliceFlow(t *testing.T) {
	h := cheapHasher(t)
	c := &clock{now: testNow}
	svc := newService(t, newSQLiteStore(t, h), h, c)
	ctx := context.Background()

	u, err := svc.Register(ctx, "Alice", "alice@example.com", "pw1")
	require.NoError(t, err)
	assert.Equal(t, models.User{ID: 1, Name: "Alice", Email: "alice@example.com"}, *u)

	token, err := svc.Login(ctx, "alice@example.com", "pw1")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	sub, err := svc.Authenticate(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", sub)

	_, err = svc.Login(ctx, "alice@example.com", "pw2")
	assert.ErrorIs(t, err, common.ErrorUnauthorized)

	again, err := svc.Register(ctx, "Alice", "alice@example.com", "pw2")
	require.NoError(t, err)
	assert.Equal(t, u.ID, again.ID)

	_, err = svc.Login(ctx, "alice@example.com", "pw1")
	assert.ErrorIs(t, err, common.ErrorUnauthorized)
	_, err = svc.Login(ctx, "alice@example.com", "pw2")
	assert.NoError(t, err)

	c.now = testNow.Add(89 * 24 * time.Hour)
	_, err = svc.Authenticate(ctx, token)
	assert.NoError(t, err)

	c.now = testNow.Add(auth.DefaultValidity + 61*time.Second)
	_, err = svc.Authenticate(ctx, token)
	assert.ErrorIs(t, err, common.ErrorUnauthorized)
	assert.ErrorIs(t, err, common.ErrTokenExpired)
}

func TestUserService_UnknownAndWrongLookAlike(t *testing.T) {
	h := cheapHasher(t)
	svc := newService(t, newSQLiteStore(t, h), h, &clock{now: testNow})
	ctx := context.Background()

	_, err := svc.Register(ctx, "Bob", "bob@example.com", "secret")
	require.NoError(t, err)

	_, errWrong := svc.Login(ctx, "bob@example.com", "nope")
	_, errUnknown := svc.Login(ctx, "nobody@example.com", "secret")
	assert.Equal(t, errWrong, errUnknown)
	assert.Same(t, common.ErrorUnauthorized, errWrong)
}

func TestLogin_EmptyCredentialsAreUnauthorized(t *testing.T) {
	h := cheapHasher(t)
	svc := newService(t, newSQLiteStore(t, h), h, &clock{now: testNow})
	ctx := context.Background()

	_, err := svc.Register(ctx, "Bob", "bob@example.com", "secret")
	require.NoError(t, err)

	for _, creds := range [][2]string{{"", ""}, {"", "secret"}, {"bob@example.com", ""}} {
		token, err := svc.Login(ctx, creds[0], creds[1])
		assert.Empty(t, token)
		assert.Same(t, common.ErrorUnauthorized, err, "%q", creds)
	}
}

// --- error mapping with fakes ---

func TestRegister_StoresHashNotPassword(t *testing.T) {
	h := cheapHasher(t)
	store := &fakeStore{registerOut: &models.User{ID: 5, Name: "A", Email: "a@x"}}
	svc := newService(t, store, h, &clock{now: testNow})

	u, err := svc.Register(context.Background(), "A", "a@x", "pw")
	require.NoError(t, err)
	assert.EqualValues(t, 5, u.ID)
	assert.NotEqual(t, "pw", store.registerHash)

	ok, err := h.Verify("pw", store.registerHash)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRegister_InvalidArgument(t *testing.T) {
	svc := newService(t, &fakeStore{}, cheapHasher(t), &clock{now: testNow})

	_, err := svc.Register(context.Background(), "A", " ", "pw")
	assert.ErrorIs(t, err, common.ErrorInvalidArgument)
	_, err = svc.Register(context.Background(), "A", "a@x", "")
	assert.ErrorIs(t, err, common.ErrorInvalidArgument)
}

func TestRegister_HashFailureIsInternal(t *testing.T) {
	store := &fakeStore{}
	svc := newService(t, store, brokenHasher{}, &clock{now: testNow})

	_, err := svc.Register(context.Background(), "A", "a@x", "pw")
	assert.Same(t, common.ErrorInternal, err)
	assert.Empty(t, store.registerHash, "store must not be called after a hashing failure")
}

func TestRegister_StorageFailureIsInternal(t *testing.T) {
	store := &fakeStore{registerErr: &credentials.StorageError{Err: errors.New("pq: relation users does not exist")}}
	svc := newService(t, store, cheapHasher(t), &clock{now: testNow})

	_, err := svc.Register(context.Background(), "A", "a@x", "pw")
	assert.Same(t, common.ErrorInternal, err)
}

func TestLogin_StorageFailureIsInternal(t *testing.T) {
	store := &fakeStore{findErr: &credentials.StorageError{Err: errors.New("conn refused")}}
	svc := newService(t, store, cheapHasher(t), &clock{now: testNow})

	_, err := svc.Login(context.Background(), "a@x", "pw")
	assert.Same(t, common.ErrorInternal, err)
}

func TestLogin_CorruptHashIsInternal(t *testing.T) {
	store := &fakeStore{findErr: &credentials.HashingError{Err: hasher.ErrInvalidHash}}
	svc := newService(t, store, cheapHasher(t), &clock{now: testNow})

	_, err := svc.Login(context.Background(), "a@x", "pw")
	assert.Same(t, common.ErrorInternal, err)
}

func TestLogin_CallerCancelled(t *testing.T) {
	svc := newService(t, &fakeStore{findOut: &models.User{Email: "a@x"}}, cheapHasher(t), &clock{now: testNow})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.Login(ctx, "a@x", "pw")
	assert.Same(t, common.ErrorInternal, err)
}

func TestAuthenticate_Rejections(t *testing.T) {
	svc := newService(t, &fakeStore{}, cheapHasher(t), &clock{now: testNow})

	_, err := svc.Authenticate(context.Background(), "not-a-token")
	assert.ErrorIs(t, err, common.ErrorUnauthorized)
	var te *auth.TokenError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, auth.Malformed, te.Kind)

	other, err := auth.NewHMACSecret([]byte("another-secret-another-secret-xx"))
	require.NoError(t, err)
	forged, err := auth.NewTokenService(auth.WithClock(func() time.Time { return testNow })).Issue(other, "a@x")
	require.NoError(t, err)

	_, err = svc.Authenticate(context.Background(), forged)
	require.ErrorAs(t, err, &te)
	assert.Equal(t, auth.SignatureInvalid, te.Kind)
}
