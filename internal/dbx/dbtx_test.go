package dbx

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

func openState(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", "file:"+t.Name()+"?mode=memory&cache=shared")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS client_state (key TEXT PRIMARY KEY, value BLOB)`)
	require.NoError(t, err)
	return db
}

func keys(t *testing.T, db *sql.DB) int {
	t.Helper()
	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM client_state`).Scan(&n))
	return n
}

func insertPair(ctx context.Context, tx DBTX) error {
	for _, k := range []string{"access_token", "refresh_token"} {
		if _, err := tx.ExecContext(ctx, `INSERT INTO client_state(key, value) VALUES (?, 'x')`, k); err != nil {
			return err
		}
	}
	return nil
}

func TestWithTx_Commit(t *testing.T) {
	db := openState(t)

	require.NoError(t, WithTx(context.Background(), db, nil, insertPair))
	require.Equal(t, 2, keys(t, db))
}

func TestWithTx_RollbackOnError(t *testing.T) {
	db := openState(t)

	err := WithTx(context.Background(), db, nil, func(ctx context.Context, tx DBTX) error {
		require.NoError(t, insertPair(ctx, tx))
		return errors.New("boom")
	})
	require.EqualError(t, err, "boom")
	require.Equal(t, 0, keys(t, db), "half-written pair must not survive")
}

func TestWithTx_RollbackOnPanic(t *testing.T) {
	db := openState(t)

	require.Panics(t, func() {
		_ = WithTx(context.Background(), db, nil, func(ctx context.Context, tx DBTX) error {
			require.NoError(t, insertPair(ctx, tx))
			panic("kaput")
		})
	})
	require.Equal(t, 0, keys(t, db))
}

func TestWithTx_BeginError(t *testing.T) {
	db := openState(t)
	require.NoError(t, db.Close())

	err := WithTx(context.Background(), db, nil, func(context.Context, DBTX) error { return nil })
	require.ErrorContains(t, err, "begin tx")
}
