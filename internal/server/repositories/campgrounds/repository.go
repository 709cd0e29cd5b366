package campgrounds

import (
	"context"

	"github.com/dmitrijs2005/yelpcamp/internal/server/models"
)

// Repository is the listing store. Comments are not loaded here; see the
// comments repository.
type Repository interface {
	// List returns campgrounds newest first. A non-empty search keeps only
	// those whose name contains it, compared literally and case-insensitively.
	List(ctx context.Context, search string) ([]*models.Campground, error)
	ListByAuthor(ctx context.Context, authorID string) ([]*models.Campground, error)
	GetByID(ctx context.Context, id string) (*models.Campground, error)
	Create(ctx context.Context, c *models.Campground) (*models.Campground, error)
	Update(ctx context.Context, c *models.Campground) error
	Delete(ctx context.Context, id string) error
}
