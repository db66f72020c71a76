package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sumanskitchen/kitchen-go/internal/model"
)

var fixedNow = time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC)

func newMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		db.Close()
	})
	return db, mock
}

func newUserRepoWithMock(t *testing.T) (*UserRepository, sqlmock.Sqlmock) {
	db, mock := newMock(t)
	repo := NewUserRepository(db)
	repo.now = func() time.Time { return fixedNow }
	return repo, mock
}

func userRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "email", "name", "password_hash", "google_id", "created_at", "updated_at"})
}

func TestUserCreate(t *testing.T) {
	repo, mock := newUserRepoWithMock(t)
	hash := "$2a$12$digest"

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO users (id, email, name, password_hash, google_id, created_at, updated_at)")).
		WithArgs(sqlmock.AnyArg(), "a@x.com", "A", hash, nil, fixedNow, fixedNow).
		WillReturnResult(sqlmock.NewResult(0, 1))

	u := &model.User{Email: "a@x.com", Name: "A", PasswordHash: &hash}
	require.NoError(t, repo.Create(context.Background(), u))

	_, err := model.ParseID(u.ID.String())
	assert.NoError(t, err, "Create should assign a valid id")
	assert.Equal(t, fixedNow, u.CreatedAt)
}

func TestUserCreateDuplicate(t *testing.T) {
	tests := []struct {
		name    string
		dbErr   error
		wantErr error
	}{
		{
			name:    "email",
			dbErr:   &mysql.MySQLError{Number: 1062, Message: "Duplicate entry 'a@x.com' for key 'users.uq_users_email'"},
			wantErr: ErrDuplicateEmail,
		},
		{
			name:    "google id",
			dbErr:   &mysql.MySQLError{Number: 1062, Message: "Duplicate entry 'g-1' for key 'users.uq_users_google_id'"},
			wantErr: ErrDuplicateExternalID,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock := newUserRepoWithMock(t)
			mock.ExpectExec("INSERT INTO users").WillReturnError(tt.dbErr)

			err := repo.Create(context.Background(), &model.User{Email: "a@x.com", Name: "A"})
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestUserCreateOtherError(t *testing.T) {
	repo, mock := newUserRepoWithMock(t)
	dbErr := errors.New("connection refused")
	mock.ExpectExec("INSERT INTO users").WillReturnError(dbErr)

	err := repo.Create(context.Background(), &model.User{Email: "a@x.com", Name: "A"})
	assert.ErrorIs(t, err, dbErr)
	assert.NotErrorIs(t, err, ErrDuplicateEmail)
}

func TestUserGetByEmail(t *testing.T) {
	repo, mock := newUserRepoWithMock(t)
	id := model.NewID()

	mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE email = ?")).
		WithArgs("a@x.com").
		WillReturnRows(userRows().AddRow(id.String(), "a@x.com", "A", "$2a$digest", nil, fixedNow, fixedNow))

	u, err := repo.GetByEmail(context.Background(), "a@x.com")
	require.NoError(t, err)
	assert.Equal(t, id, u.ID)
	require.NotNil(t, u.PasswordHash)
	assert.Equal(t, "$2a$digest", *u.PasswordHash)
	assert.Nil(t, u.GoogleID)
}

func TestUserGetByGoogleIDNotFound(t *testing.T) {
	repo, mock := newUserRepoWithMock(t)

	mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE google_id = ?")).
		WithArgs("g-1").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByGoogleID(context.Background(), "g-1")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestUserGetByIDMalformed(t *testing.T) {
	repo, _ := newUserRepoWithMock(t)

	_, err := repo.GetByID(context.Background(), "not-an-object-id")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestUserGetByID(t *testing.T) {
	repo, mock := newUserRepoWithMock(t)
	id := model.NewID()

	mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE id = ?")).
		WithArgs(id.String()).
		WillReturnRows(userRows().AddRow(id.String(), "a@x.com", "A", nil, "g-1", fixedNow, fixedNow))

	u, err := repo.GetByID(context.Background(), id.String())
	require.NoError(t, err)
	assert.False(t, u.HasPassword())
	require.NotNil(t, u.GoogleID)
	assert.Equal(t, "g-1", *u.GoogleID)
}

func TestUserSetGoogleID(t *testing.T) {
	repo, mock := newUserRepoWithMock(t)
	id := model.NewID()

	mock.ExpectExec(regexp.QuoteMeta("UPDATE users SET google_id = ?, updated_at = ? WHERE id = ? AND google_id IS NULL")).
		WithArgs("g-1", fixedNow, id.String()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	assert.NoError(t, repo.SetGoogleID(context.Background(), id, "g-1"))
}

func TestUserSetGoogleIDAlreadyLinked(t *testing.T) {
	repo, mock := newUserRepoWithMock(t)

	mock.ExpectExec("UPDATE users SET google_id").WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.SetGoogleID(context.Background(), model.NewID(), "g-1")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestUserSetPasswordHash(t *testing.T) {
	repo, mock := newUserRepoWithMock(t)
	id := model.NewID()

	mock.ExpectExec(regexp.QuoteMeta("UPDATE users SET password_hash = ?")).
		WithArgs("$2a$new", fixedNow, id.String()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	assert.NoError(t, repo.SetPasswordHash(context.Background(), id, "$2a$new"))
}
