package comments

import (
	"context"

	"github.com/dmitrijs2005/yelpcamp/internal/server/models"
)

type Repository interface {
	// ListByCampground returns the comments of a campground in insertion order.
	ListByCampground(ctx context.Context, campgroundID string) ([]*models.Comment, error)
	GetByID(ctx context.Context, id string) (*models.Comment, error)
	Create(ctx context.Context, c *models.Comment) (*models.Comment, error)
	UpdateText(ctx context.Context, id, text string) error
	Delete(ctx context.Context, id string) error
	// DeleteByCampground removes every comment of a campground and reports how many went.
	DeleteByCampground(ctx context.Context, campgroundID string) (int64, error)
}
