package dbx

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

func openCache(t *testing.T) *sql.DB {
	t.Helper()
	db, err := Open(context.Background(), "sqlite", filepath.Join(t.TempDir(), "cache.db"), PoolOptions{MaxOpenConns: 1})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	_, err = db.Exec(`CREATE TABLE metadata (key TEXT PRIMARY KEY, value BLOB NOT NULL)`)
	require.NoError(t, err)
	return db
}

func setKey(ctx context.Context, tx DBTX, key, value string) error {
	_, err := tx.ExecContext(ctx, `INSERT INTO metadata (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`, key, value)
	return err
}

func keys(t *testing.T, db *sql.DB) int {
	t.Helper()
	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM metadata`).Scan(&n))
	return n
}

func TestWithTx_CommitsAllWrites(t *testing.T) {
	db := openCache(t)

	err := WithTx(context.Background(), db, nil, func(ctx context.Context, tx DBTX) error {
		if err := setKey(ctx, tx, "access_token", "tok"); err != nil {
			return err
		}
		return setKey(ctx, tx, "email", "alice@example.com")
	})
	require.NoError(t, err)
	assert.Equal(t, 2, keys(t, db))
}

func TestWithTx_RollsBackOnError(t *testing.T) {
	db := openCache(t)
	boom := errors.New("boom")

	err := WithTx(context.Background(), db, nil, func(ctx context.Context, tx DBTX) error {
		require.NoError(t, setKey(ctx, tx, "access_token", "tok"))
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 0, keys(t, db))
}

func TestWithTx_RollsBackAndRethrowsPanic(t *testing.T) {
	db := openCache(t)

	assert.PanicsWithValue(t, "kaput", func() {
		_ = WithTx(context.Background(), db, nil, func(ctx context.Context, tx DBTX) error {
			require.NoError(t, setKey(ctx, tx, "access_token", "tok"))
			panic("kaput")
		})
	})
	assert.Equal(t, 0, keys(t, db))
}

func TestWithTx_BeginError(t *testing.T) {
	db := openCache(t)
	require.NoError(t, db.Close())

	called := false
	err := WithTx(context.Background(), db, nil, func(ctx context.Context, tx DBTX) error {
		called = true
		return nil
	})
	assert.Error(t, err)
	assert.False(t, called)
}

func TestOpen(t *testing.T) {
	_, err := Open(context.Background(), "no-such-driver", "x", PoolOptions{})
	assert.Error(t, err)

	_, err = Open(context.Background(), "sqlite", filepath.Join(t.TempDir(), "missing", "cache.db"), PoolOptions{})
	assert.Error(t, err, "ping must fail for an unreachable database")

	db, err := Open(context.Background(), "sqlite", "file::memory:", PoolOptions{
		MaxOpenConns:    3,
		MaxIdleConns:    2,
		ConnMaxLifetime: time.Minute,
		ConnMaxIdleTime: time.Second,
	})
	require.NoError(t, err)
	defer db.Close()
	assert.Equal(t, 3, db.Stats().MaxOpenConnections)
}
