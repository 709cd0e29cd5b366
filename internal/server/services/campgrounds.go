package services

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/dmitrijs2005/yelpcamp/internal/common"
	"github.com/dmitrijs2005/yelpcamp/internal/dbx"
	"github.com/dmitrijs2005/yelpcamp/internal/logging"
	"github.com/dmitrijs2005/yelpcamp/internal/server/models"
	"github.com/dmitrijs2005/yelpcamp/internal/server/repositories/repomanager"
)

// ImageUpload is an image file received from a form.
type ImageUpload struct {
	Filename string
	Data     []byte
}

// CampgroundInput is the create/edit form. Image is required on create and
// optional on update.
type CampgroundInput struct {
	Name        string
	Price       string
	Description string
	Location    string
	Image       *ImageUpload
}

var allowedImageExt = map[string]struct{}{
	".jpg": {}, ".jpeg": {}, ".png": {}, ".gif": {},
}

// CampgroundService implements the listing lifecycle. Each external side
// effect is paired with a compensating action so a failed step never leaves
// an orphaned image or a half-updated record.
type CampgroundService struct {
	db          dbx.DBTX
	tx          dbx.TxRunner
	repomanager repomanager.RepositoryManager
	geocoder    Geocoder
	images      ImageStore
	logger      logging.Logger
}

func NewCampgroundService(db dbx.DBTX, tx dbx.TxRunner, m repomanager.RepositoryManager,
	geocoder Geocoder, images ImageStore, logger logging.Logger) *CampgroundService {
	return &CampgroundService{
		db:          db,
		tx:          tx,
		repomanager: m,
		geocoder:    geocoder,
		images:      images,
		logger:      logger.With("module", "campgrounds"),
	}
}

func (s *CampgroundService) List(ctx context.Context, search string) ([]*models.Campground, error) {
	return s.repomanager.Campgrounds(s.db).List(ctx, strings.TrimSpace(search))
}

func (s *CampgroundService) ListByAuthor(ctx context.Context, userID string) ([]*models.Campground, error) {
	if !validID(userID) {
		return nil, nil
	}
	return s.repomanager.Campgrounds(s.db).ListByAuthor(ctx, userID)
}

// Get returns the campground with its comments in insertion order.
func (s *CampgroundService) Get(ctx context.Context, id string) (*models.Campground, error) {
	c, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}

	c.Comments, err = s.repomanager.Comments(s.db).ListByCampground(ctx, c.ID)
	if err != nil {
		return nil, err
	}

	return c, nil
}

// GetForEdit returns the campground if actor may modify it.
func (s *CampgroundService) GetForEdit(ctx context.Context, actor *models.User, id string) (*models.Campground, error) {
	c, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := authorize(actor, c.Author); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *CampgroundService) find(ctx context.Context, id string) (*models.Campground, error) {
	if !validID(id) {
		return nil, notFound("Campground", nil)
	}
	c, err := s.repomanager.Campgrounds(s.db).GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, notFound("Campground", err)
		}
		return nil, err
	}
	return c, nil
}

func validateCampground(in *CampgroundInput, imageRequired bool) error {
	in.Name = strings.TrimSpace(in.Name)
	in.Price = strings.TrimSpace(in.Price)
	in.Location = strings.TrimSpace(in.Location)
	in.Description = strings.TrimSpace(in.Description)

	switch {
	case in.Name == "":
		return common.NewUserError(common.ErrorValidation, "Name is required.", nil)
	case in.Price == "":
		return common.NewUserError(common.ErrorValidation, "Price is required.", nil)
	case in.Location == "":
		return common.NewUserError(common.ErrorValidation, "Location is required.", nil)
	}

	if in.Image == nil || len(in.Image.Data) == 0 {
		if imageRequired {
			return common.NewUserError(common.ErrorValidation, "An image is required.", nil)
		}
		in.Image = nil
		return nil
	}

	if _, ok := allowedImageExt[strings.ToLower(filepath.Ext(in.Image.Filename))]; !ok {
		return common.NewUserError(common.ErrorValidation, "Only image files are allowed!", nil)
	}

	return nil
}

func (s *CampgroundService) geocode(ctx context.Context, location string) (*models.Place, error) {
	place, err := s.geocoder.Geocode(ctx, location)
	if err != nil || place == nil {
		return nil, common.NewUserError(common.ErrorExternalService, "Invalid address", err)
	}
	return place, nil
}

func (s *CampgroundService) upload(ctx context.Context, img *ImageUpload) (*models.Image, error) {
	image, err := s.images.Upload(ctx, img.Filename, img.Data)
	if err != nil {
		if errors.Is(err, common.ErrorValidation) {
			return nil, err
		}
		return nil, common.NewUserError(common.ErrorExternalService, "Image upload failed. Please try again.", err)
	}
	return image, nil
}

// release destroys an image as a compensating action. Failures are logged
// because the caller is already returning the original error.
func (s *CampgroundService) release(ctx context.Context, imageID string) {
	if err := s.images.Destroy(ctx, imageID); err != nil {
		s.logger.Error(ctx, "failed to release image", "image_id", imageID, "error", err)
	}
}

// Create geocodes the location, uploads the image and stores the record.
// If the insert fails the uploaded image is destroyed again.
func (s *CampgroundService) Create(ctx context.Context, actor *models.User, in CampgroundInput) (*models.Campground, error) {
	if actor == nil {
		return nil, errLoginRequired
	}
	if err := validateCampground(&in, true); err != nil {
		return nil, err
	}

	place, err := s.geocode(ctx, in.Location)
	if err != nil {
		return nil, err
	}

	image, err := s.upload(ctx, in.Image)
	if err != nil {
		return nil, err
	}

	c := &models.Campground{
		Name:        in.Name,
		Price:       in.Price,
		Description: in.Description,
		Location:    place.FormattedAddress,
		Lat:         place.Lat,
		Lng:         place.Lng,
		ImageURL:    image.URL,
		ImageID:     image.ID,
		Author:      actor.Snapshot(),
	}

	c, err = s.repomanager.Campgrounds(s.db).Create(ctx, c)
	if err != nil {
		s.release(ctx, image.ID)
		return nil, fmt.Errorf("error creating campground: %w", err)
	}

	s.logger.Info(ctx, "campground created", "id", c.ID, "author_id", c.Author.ID)
	return c, nil
}

// Update edits a campground. A new image is uploaded before anything else
// and destroyed again if the row update does not commit. The old image is
// released only after the commit; a failed release is logged and leaves an
// orphaned object rather than a record pointing at a missing image.
func (s *CampgroundService) Update(ctx context.Context, actor *models.User, id string, in CampgroundInput) (*models.Campground, error) {
	current, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := authorize(actor, current.Author); err != nil {
		return nil, err
	}
	if err := validateCampground(&in, false); err != nil {
		return nil, err
	}

	place, err := s.geocode(ctx, in.Location)
	if err != nil {
		return nil, err
	}

	updated := *current
	updated.Name = in.Name
	updated.Price = in.Price
	updated.Description = in.Description
	updated.Location = place.FormattedAddress
	updated.Lat = place.Lat
	updated.Lng = place.Lng

	var newImage *models.Image
	if in.Image != nil {
		newImage, err = s.upload(ctx, in.Image)
		if err != nil {
			return nil, err
		}
		updated.ImageURL = newImage.URL
		updated.ImageID = newImage.ID
	}

	err = s.tx.WithTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		return s.repomanager.Campgrounds(tx).Update(ctx, &updated)
	})
	if err != nil {
		if newImage != nil {
			s.release(ctx, newImage.ID)
		}
		if errors.Is(err, common.ErrorNotFound) {
			return nil, notFound("Campground", err)
		}
		return nil, fmt.Errorf("error updating campground: %w", err)
	}

	if newImage != nil && current.ImageID != "" {
		if err := s.images.Destroy(ctx, current.ImageID); err != nil {
			s.logger.Error(ctx, "failed to release replaced image", "id", updated.ID, "image_id", current.ImageID, "error", err)
		}
	}

	s.logger.Info(ctx, "campground updated", "id", updated.ID, "actor_id", actor.ID)
	return &updated, nil
}

// Delete removes a campground and all of its comments in one transaction,
// then releases its image. An image that cannot be released is reported as
// an external-service error even though the record is already gone.
func (s *CampgroundService) Delete(ctx context.Context, actor *models.User, id string) error {
	c, err := s.find(ctx, id)
	if err != nil {
		return err
	}
	if err := authorize(actor, c.Author); err != nil {
		return err
	}

	var removed int64
	err = s.tx.WithTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		n, err := s.repomanager.Comments(tx).DeleteByCampground(ctx, c.ID)
		if err != nil {
			return err
		}
		removed = n
		return s.repomanager.Campgrounds(tx).Delete(ctx, c.ID)
	})
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return notFound("Campground", err)
		}
		return fmt.Errorf("error deleting campground: %w", err)
	}

	s.logger.Info(ctx, "campground deleted", "id", c.ID, "actor_id", actor.ID, "comments", removed)

	if c.ImageID == "" {
		return nil
	}
	if err := s.images.Destroy(ctx, c.ImageID); err != nil {
		s.logger.Error(ctx, "failed to release image of deleted campground", "id", c.ID, "image_id", c.ImageID, "error", err)
		return common.NewUserError(common.ErrorExternalService,
			"Campground deleted, but its image could not be removed.", err)
	}

	return nil
}
