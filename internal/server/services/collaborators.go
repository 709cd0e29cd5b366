package services

import (
	"context"

	"github.com/dmitrijs2005/yelpcamp/internal/server/models"
)

// Geocoder resolves a free-text address. A nil place with a nil error means
// the provider found nothing.
type Geocoder interface {
	Geocode(ctx context.Context, address string) (*models.Place, error)
}

// ImageStore hosts campground images.
type ImageStore interface {
	Upload(ctx context.Context, filename string, data []byte) (*models.Image, error)
	Destroy(ctx context.Context, id string) error
}

// Mailer delivers plain-text e-mail.
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}
