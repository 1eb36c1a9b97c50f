// Package repotest provides database fixtures for repository and service
// tests.
package repotest

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/vaultsync/internal/dbx"
	"github.com/dmitrijs2005/vaultsync/internal/server/migrations"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

// OpenSQLite returns a migrated, private in-memory SQLite database that is
// closed when the test ends.
func OpenSQLite(t *testing.T) *sql.DB {
	t.Helper()
	ctx := context.Background()

	db, err := dbx.Open(ctx, dbx.SQLite, "file:"+uuid.NewString()+"?mode=memory&cache=shared")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, migrations.Up(ctx, db, dbx.SQLite))
	return db
}

// CreateUser inserts a minimal user row and returns its id.
func CreateUser(t *testing.T, db *sql.DB, username string) string {
	t.Helper()
	id := uuid.NewString()
	_, err := db.ExecContext(context.Background(),
		`INSERT INTO users (id, username, email, password_hash, is_active, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		id, username, username+"@example.com", "x", true, time.Now().UTC())
	require.NoError(t, err)
	return id
}

// NewMock returns a sqlmock database using regexp query matching.
func NewMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}
