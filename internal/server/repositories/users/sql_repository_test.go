package users

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/vaultsync/internal/common"
	"github.com/dmitrijs2005/vaultsync/internal/dbx"
	"github.com/dmitrijs2005/vaultsync/internal/server/models"
	"github.com/dmitrijs2005/vaultsync/internal/server/repositories/repotest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSQLiteRepo(t *testing.T) *SQLRepository {
	t.Helper()
	return NewSQLRepository(repotest.OpenSQLite(t), dbx.SQLite)
}

func TestCreateAndGet(t *testing.T) {
	ctx := context.Background()
	repo := newSQLiteRepo(t)

	u, err := repo.Create(ctx, &models.User{UserName: "alice", Email: "alice@example.com", PasswordHash: "h", IsActive: true})
	require.NoError(t, err)
	require.NotEmpty(t, u.ID)

	byLogin, err := repo.GetUserByLogin(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, u.ID, byLogin.ID)
	assert.Equal(t, "alice@example.com", byLogin.Email)
	assert.Equal(t, "h", byLogin.PasswordHash)
	assert.True(t, byLogin.IsActive)
	assert.False(t, byLogin.CreatedAt.IsZero())

	byID, err := repo.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", byID.UserName)
}

func TestCreate_Duplicate(t *testing.T) {
	ctx := context.Background()
	repo := newSQLiteRepo(t)

	_, err := repo.Create(ctx, &models.User{UserName: "alice", Email: "a@example.com", PasswordHash: "h"})
	require.NoError(t, err)

	_, err = repo.Create(ctx, &models.User{UserName: "alice", Email: "other@example.com", PasswordHash: "h"})
	assert.ErrorIs(t, err, common.ErrorAlreadyExists)

	_, err = repo.Create(ctx, &models.User{UserName: "bob", Email: "a@example.com", PasswordHash: "h"})
	assert.ErrorIs(t, err, common.ErrorAlreadyExists)
}

func TestGet_NotFound(t *testing.T) {
	ctx := context.Background()
	repo := newSQLiteRepo(t)

	_, err := repo.GetUserByLogin(ctx, "ghost")
	assert.ErrorIs(t, err, common.ErrorNotFound)

	_, err = repo.GetByID(ctx, "00000000-0000-0000-0000-000000000000")
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	repo := newSQLiteRepo(t)

	u, err := repo.Create(ctx, &models.User{UserName: "carol", Email: "c@example.com", PasswordHash: "h"})
	require.NoError(t, err)

	require.NoError(t, repo.Delete(ctx, u.ID))
	assert.ErrorIs(t, repo.Delete(ctx, u.ID), common.ErrorNotFound)
}

func TestCreate_DBError_Postgres(t *testing.T) {
	db, mock := repotest.NewMock(t)
	repo := NewSQLRepository(db, dbx.Postgres)

	q := `(?s)^INSERT\s+INTO\s+users\s*\(id,\s*username,\s*email,\s*password_hash,\s*is_active,\s*created_at\)\s*VALUES\s*\(\$1,\s*\$2,\s*\$3,\s*\$4,\s*\$5,\s*\$6\)$`
	mock.ExpectExec(q).
		WithArgs(sqlmock.AnyArg(), "alice", "a@example.com", "h", true, sqlmock.AnyArg()).
		WillReturnError(errors.New("db down"))

	_, err := repo.Create(context.Background(), &models.User{UserName: "alice", Email: "a@example.com", PasswordHash: "h", IsActive: true})
	if err == nil || !regexp.MustCompile(`db error: .*db down`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetUserByLogin_DBError_Postgres(t *testing.T) {
	db, mock := repotest.NewMock(t)
	repo := NewSQLRepository(db, dbx.Postgres)

	mock.ExpectQuery(`(?s)^SELECT\s+id,.*FROM\s+users\s+WHERE\s+username\s*=\s*\$1$`).
		WithArgs("alice").
		WillReturnError(errors.New("db err"))

	_, err := repo.GetUserByLogin(context.Background(), "alice")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "db err")
	require.NoError(t, mock.ExpectationsWereMet())
}
