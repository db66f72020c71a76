package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/sumanskitchen/kitchen-go/internal/model"
)

var (
	ErrUserNotFound        = errors.New("user not found")
	ErrDuplicateEmail      = errors.New("email already exists")
	ErrDuplicateExternalID = errors.New("google account already linked")
)

const mysqlDuplicateEntry = 1062

const userColumns = `id, email, name, password_hash, google_id, created_at, updated_at`

// UserRepository handles user persistence operations.
type UserRepository struct {
	db  DBTX
	now func() time.Time
}

// NewUserRepository creates a new UserRepository.
func NewUserRepository(db DBTX) *UserRepository {
	return &UserRepository{db: db, now: time.Now}
}

// Create inserts a new user, assigning an ID and timestamps when they are unset.
// The unique indexes on email and google_id are what actually prevent duplicates.
func (r *UserRepository) Create(ctx context.Context, user *model.User) error {
	if user.ID.IsZero() {
		user.ID = model.NewID()
	}
	now := r.now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now

	query := `INSERT INTO users (` + userColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?)`

	_, err := r.db.ExecContext(ctx, query,
		user.ID.String(), user.Email, user.Name,
		nullString(user.PasswordHash), nullString(user.GoogleID),
		user.CreatedAt, user.UpdatedAt,
	)
	if err != nil {
		return duplicateError(err)
	}

	return nil
}

// GetByEmail retrieves a user by exact email match.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE email = ?`, email)
}

// GetByGoogleID retrieves the user linked to a Google subject.
func (r *UserRepository) GetByGoogleID(ctx context.Context, googleID string) (*model.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE google_id = ?`, googleID)
}

// GetByID retrieves a user by ID. Malformed IDs are reported as ErrUserNotFound.
func (r *UserRepository) GetByID(ctx context.Context, id string) (*model.User, error) {
	uid, err := model.ParseID(id)
	if err != nil {
		return nil, ErrUserNotFound
	}
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, uid.String())
}

// SetGoogleID links a Google subject to an account that has none yet.
// It returns ErrUserNotFound when the account is missing or already linked.
func (r *UserRepository) SetGoogleID(ctx context.Context, id model.ID, googleID string) error {
	query := `UPDATE users SET google_id = ?, updated_at = ? WHERE id = ? AND google_id IS NULL`

	result, err := r.db.ExecContext(ctx, query, googleID, r.now().UTC(), id.String())
	if err != nil {
		return duplicateError(err)
	}

	return requireRow(result, ErrUserNotFound)
}

// SetPasswordHash replaces the stored password digest.
func (r *UserRepository) SetPasswordHash(ctx context.Context, id model.ID, hash string) error {
	query := `UPDATE users SET password_hash = ?, updated_at = ? WHERE id = ?`

	result, err := r.db.ExecContext(ctx, query, hash, r.now().UTC(), id.String())
	if err != nil {
		return err
	}

	return requireRow(result, ErrUserNotFound)
}

func (r *UserRepository) getOne(ctx context.Context, query string, arg any) (*model.User, error) {
	user := &model.User{}
	var id string
	var passwordHash, googleID sql.NullString

	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&id, &user.Email, &user.Name, &passwordHash, &googleID, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	user.ID = model.ID(id)
	user.PasswordHash = stringPtr(passwordHash)
	user.GoogleID = stringPtr(googleID)

	return user, nil
}

// duplicateError maps a MySQL duplicate-key error (1062) to the matching sentinel.
func duplicateError(err error) error {
	var me *mysql.MySQLError
	if !errors.As(err, &me) || me.Number != mysqlDuplicateEntry {
		return err
	}
	if strings.Contains(me.Message, "uq_users_google_id") {
		return ErrDuplicateExternalID
	}
	return ErrDuplicateEmail
}

func requireRow(result sql.Result, notFound error) error {
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return notFound
	}
	return nil
}
