// file: repository/repository_test.go

package repository

import (
	"database/sql"
	"errors"
	"os"
	"regexp"
	"testing"
	"time"

	"go-auth-api/logger"
	"go-auth-api/model"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	logger.Init()
	os.Exit(m.Run())
}

func TestTokenRepository_Create(t *testing.T) {
	db, dbMock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewTokenRepository(db)
	expires := time.Now().Add(time.Hour)
	created := time.Now()
	token := &model.RefreshToken{UserID: 7, TokenHash: "hash", ExpiresAt: expires}

	dbMock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO refresh_tokens (user_id, token_hash, expires_at) VALUES ($1, $2, $3) RETURNING id, created_at`)).
		WithArgs(7, "hash", expires).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(11, created))

	require.NoError(t, repo.Create(token))
	assert.Equal(t, 11, token.ID)
	assert.Equal(t, created, token.CreatedAt)
	assert.NoError(t, dbMock.ExpectationsWereMet())
}

func TestTokenRepository_Consume(t *testing.T) {
	db, dbMock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewTokenRepository(db)
	query := regexp.QuoteMeta(`DELETE FROM refresh_tokens WHERE token_hash = $1 RETURNING id, user_id, token_hash, expires_at, created_at`)

	t.Run("found", func(t *testing.T) {
		expires := time.Now().Add(time.Hour)
		dbMock.ExpectQuery(query).WithArgs("hash").
			WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "token_hash", "expires_at", "created_at"}).
				AddRow(3, 7, "hash", expires, time.Now()))

		token, err := repo.Consume("hash")
		require.NoError(t, err)
		assert.Equal(t, 7, token.UserID)
		assert.Equal(t, expires, token.ExpiresAt)
	})

	t.Run("already consumed", func(t *testing.T) {
		dbMock.ExpectQuery(query).WithArgs("gone").WillReturnError(sql.ErrNoRows)

		_, err := repo.Consume("gone")
		assert.ErrorIs(t, err, sql.ErrNoRows)
	})

	assert.NoError(t, dbMock.ExpectationsWereMet())
}

func TestTokenRepository_DeleteByUserID(t *testing.T) {
	db, dbMock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewTokenRepository(db)
	query := regexp.QuoteMeta(`DELETE FROM refresh_tokens WHERE user_id = $1`)

	dbMock.ExpectExec(query).WithArgs(7).WillReturnResult(sqlmock.NewResult(0, 2))
	assert.NoError(t, repo.DeleteByUserID(7))

	dbMock.ExpectExec(query).WithArgs(8).WillReturnError(errors.New("db error"))
	assert.Error(t, repo.DeleteByUserID(8))

	assert.NoError(t, dbMock.ExpectationsWereMet())
}

func TestUserRepository_GetUserByEmail(t *testing.T) {
	db, dbMock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewUserRepository(db)
	query := regexp.QuoteMeta(`SELECT id, email, password, permissions, roles, created_at FROM users WHERE email = $1`)

	t.Run("found", func(t *testing.T) {
		dbMock.ExpectQuery(query).WithArgs("user@example.com").
			WillReturnRows(sqlmock.NewRows([]string{"id", "email", "password", "permissions", "roles", "created_at"}).
				AddRow(1, "user@example.com", "hashed", "{users.list,users.create}", "{administrator}", time.Now()))

		user, err := repo.GetUserByEmail("user@example.com")
		require.NoError(t, err)
		assert.Equal(t, 1, user.ID)
		assert.Equal(t, []string{"users.list", "users.create"}, user.Permissions)
		assert.Equal(t, []string{"administrator"}, user.Roles)
	})

	t.Run("not found", func(t *testing.T) {
		dbMock.ExpectQuery(query).WithArgs("missing@example.com").WillReturnError(sql.ErrNoRows)

		_, err := repo.GetUserByEmail("missing@example.com")
		assert.ErrorIs(t, err, sql.ErrNoRows)
	})

	assert.NoError(t, dbMock.ExpectationsWereMet())
}

func TestUserRepository_CreateUser(t *testing.T) {
	db, dbMock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewUserRepository(db)
	user := &model.User{Email: "new@example.com", Password: "hashed", Permissions: []string{"metrics.list"}, Roles: []string{"editor"}}

	dbMock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO users (email, password, permissions, roles) VALUES ($1, $2, $3, $4) RETURNING id, created_at`)).
		WithArgs("new@example.com", "hashed", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(5, time.Now()))

	require.NoError(t, repo.CreateUser(user))
	assert.Equal(t, 5, user.ID)
	assert.NoError(t, dbMock.ExpectationsWereMet())
}
