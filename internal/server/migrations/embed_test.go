package migrations

import (
	"context"
	"database/sql"
	"errors"
	"io/fs"
	"testing"

	"github.com/dmitrijs2005/vaultsync/internal/dbx"
	"github.com/pressly/goose/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFor(t *testing.T) {
	for _, d := range []dbx.Dialect{dbx.Postgres, dbx.SQLite} {
		t.Run(string(d), func(t *testing.T) {
			fsys, err := For(d)
			require.NoError(t, err)

			files, err := fs.Glob(fsys, "*.sql")
			require.NoError(t, err)
			assert.Equal(t, []string{
				"00001_users.sql",
				"00002_refresh_tokens.sql",
				"00003_notes.sql",
				"00004_attachments.sql",
			}, files)
		})
	}

	_, err := For(dbx.Dialect("mysql"))
	require.Error(t, err)
}

func TestUp_SQLite(t *testing.T) {
	ctx := context.Background()
	db, err := dbx.Open(ctx, dbx.SQLite, "file:migrations_up?mode=memory&cache=shared")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, Up(ctx, db, dbx.SQLite))
	require.NoError(t, Up(ctx, db, dbx.SQLite), "second run is a no-op")

	for _, table := range []string{"users", "refresh_tokens", "notes", "attachments"} {
		var name string
		err := db.QueryRowContext(ctx, `SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?`, table).Scan(&name)
		require.NoError(t, err, table)
	}
}

func TestUp_Error(t *testing.T) {
	orig := gooseUpContext
	t.Cleanup(func() { gooseUpContext = orig })

	var gotDir string
	gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
		gotDir = dir
		return errors.New("boom")
	}

	err := Up(context.Background(), nil, dbx.Postgres)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
	assert.Equal(t, ".", gotDir)
}
