package users

import (
	"context"
	"time"

	"github.com/dmitrijs2005/yelpcamp/internal/server/models"
)

// Repository is the credential store. Lookups return common.ErrorNotFound when
// no row matches; Create returns common.ErrorConflict for a taken username or
// email. ConsumeResetToken returns common.ErrorNotFound when the token is no
// longer held by the user or has expired.
type Repository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByResetTokenHash(ctx context.Context, hash string) (*models.User, error)
	SetResetToken(ctx context.Context, userID, hash string, expires time.Time) error
	UpdatePassword(ctx context.Context, userID, passwordHash string) error
	ConsumeResetToken(ctx context.Context, userID, tokenHash, passwordHash string, now time.Time) error
	SetAdmin(ctx context.Context, userID string, isAdmin bool) error
}
