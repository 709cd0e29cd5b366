// Package users provides the PostgreSQL-backed credential store.
package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/yelpcamp/internal/common"
	"github.com/dmitrijs2005/yelpcamp/internal/dbx"
	"github.com/dmitrijs2005/yelpcamp/internal/server/models"
)

const selectUser = `SELECT id, username, email, password_hash, first_name, last_name, phone, is_admin,
		 reset_token_hash, reset_expires, created_at FROM users`

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {

	query :=
		`INSERT INTO users (username, email, password_hash, first_name, last_name, phone, is_admin)
         VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING id, created_at
		 `

	err := r.db.QueryRowContext(ctx, query,
		user.Username, user.Email, user.PasswordHash, user.FirstName, user.LastName, user.Phone, user.IsAdmin,
	).Scan(&user.ID, &user.CreatedAt)

	if err != nil {
		if constraint, ok := dbx.UniqueViolation(err); ok {
			return nil, conflictError(constraint, err)
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return user, nil
}

func conflictError(constraint string, cause error) error {
	switch constraint {
	case "users_email_key":
		return common.NewUserError(common.ErrorConflict, "A user with the given email is already registered", cause)
	default:
		return common.NewUserError(common.ErrorConflict, "A user with the given username is already registered", cause)
	}
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	return r.getOne(ctx, selectUser+` WHERE id = $1`, id)
}

func (r *PostgresRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return r.getOne(ctx, selectUser+` WHERE username = $1`, username)
}

func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.getOne(ctx, selectUser+` WHERE lower(email) = lower($1)`, email)
}

// GetByResetTokenHash finds the user holding the given token digest. Expiry is
// not checked here; callers compare it against their own clock.
func (r *PostgresRepository) GetByResetTokenHash(ctx context.Context, hash string) (*models.User, error) {
	return r.getOne(ctx, selectUser+` WHERE reset_token_hash = $1`, hash)
}

func (r *PostgresRepository) getOne(ctx context.Context, query string, arg string) (*models.User, error) {
	var (
		user      models.User
		tokenHash sql.NullString
		expires   sql.NullTime
	)

	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&user.ID, &user.Username, &user.Email, &user.PasswordHash,
		&user.FirstName, &user.LastName, &user.Phone, &user.IsAdmin,
		&tokenHash, &expires, &user.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	user.ResetTokenHash = tokenHash.String
	if expires.Valid {
		user.ResetExpires = expires.Time
	}

	return &user, nil
}

// SetResetToken stores a new token digest and expiry, replacing any previous one.
func (r *PostgresRepository) SetResetToken(ctx context.Context, userID, hash string, expires time.Time) error {
	query := `UPDATE users SET reset_token_hash = $2, reset_expires = $3 WHERE id = $1`
	return r.execOne(ctx, query, userID, hash, expires)
}

// UpdatePassword replaces the password hash and clears any pending reset token
// in the same statement.
func (r *PostgresRepository) UpdatePassword(ctx context.Context, userID, passwordHash string) error {
	query := `UPDATE users SET password_hash = $2, reset_token_hash = NULL, reset_expires = NULL WHERE id = $1`
	return r.execOne(ctx, query, userID, passwordHash)
}

// ConsumeResetToken sets the password only while tokenHash is still the user's
// pending token and has not expired at now. The token is cleared in the same
// statement, so of two concurrent calls at most one affects a row.
func (r *PostgresRepository) ConsumeResetToken(ctx context.Context, userID, tokenHash, passwordHash string, now time.Time) error {
	query := `UPDATE users SET password_hash = $2, reset_token_hash = NULL, reset_expires = NULL
		WHERE id = $1 AND reset_token_hash = $3 AND reset_expires > $4`
	return r.execOne(ctx, query, userID, passwordHash, tokenHash, now)
}

func (r *PostgresRepository) SetAdmin(ctx context.Context, userID string, isAdmin bool) error {
	query := `UPDATE users SET is_admin = $2 WHERE id = $1`
	return r.execOne(ctx, query, userID, isAdmin)
}

func (r *PostgresRepository) execOne(ctx context.Context, query string, args ...any) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}
