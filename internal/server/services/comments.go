package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/yelpcamp/internal/common"
	"github.com/dmitrijs2005/yelpcamp/internal/dbx"
	"github.com/dmitrijs2005/yelpcamp/internal/server/models"
	"github.com/dmitrijs2005/yelpcamp/internal/server/repositories/repomanager"
)

// CommentService implements the comment lifecycle. Every operation is scoped
// to a campground: a comment addressed through the wrong campground is not
// found.
type CommentService struct {
	db          dbx.DBTX
	repomanager repomanager.RepositoryManager
}

func NewCommentService(db dbx.DBTX, m repomanager.RepositoryManager) *CommentService {
	return &CommentService{db: db, repomanager: m}
}

func (s *CommentService) Get(ctx context.Context, campgroundID, commentID string) (*models.Comment, error) {
	if !validID(campgroundID) || !validID(commentID) {
		return nil, notFound("Comment", nil)
	}

	c, err := s.repomanager.Comments(s.db).GetByID(ctx, commentID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, notFound("Comment", err)
		}
		return nil, err
	}

	if c.CampgroundID != campgroundID {
		return nil, notFound("Comment", nil)
	}

	return c, nil
}

// GetForEdit returns the comment if actor may modify it.
func (s *CommentService) GetForEdit(ctx context.Context, actor *models.User, campgroundID, commentID string) (*models.Comment, error) {
	c, err := s.Get(ctx, campgroundID, commentID)
	if err != nil {
		return nil, err
	}
	if err := authorize(actor, c.Author); err != nil {
		return nil, err
	}
	return c, nil
}

func validateText(text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", common.NewUserError(common.ErrorValidation, "Comment text is required.", nil)
	}
	return text, nil
}

// Create appends a comment to an existing campground.
func (s *CommentService) Create(ctx context.Context, actor *models.User, campgroundID, text string) (*models.Comment, error) {
	if actor == nil {
		return nil, errLoginRequired
	}

	text, err := validateText(text)
	if err != nil {
		return nil, err
	}

	if !validID(campgroundID) {
		return nil, notFound("Campground", nil)
	}
	if _, err := s.repomanager.Campgrounds(s.db).GetByID(ctx, campgroundID); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, notFound("Campground", err)
		}
		return nil, err
	}

	c := &models.Comment{
		CampgroundID: campgroundID,
		Text:         text,
		Author:       actor.Snapshot(),
	}

	c, err = s.repomanager.Comments(s.db).Create(ctx, c)
	if err != nil {
		return nil, fmt.Errorf("error creating comment: %w", err)
	}

	return c, nil
}

func (s *CommentService) Update(ctx context.Context, actor *models.User, campgroundID, commentID, text string) (*models.Comment, error) {
	c, err := s.GetForEdit(ctx, actor, campgroundID, commentID)
	if err != nil {
		return nil, err
	}

	text, err = validateText(text)
	if err != nil {
		return nil, err
	}

	if err := s.repomanager.Comments(s.db).UpdateText(ctx, c.ID, text); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, notFound("Comment", err)
		}
		return nil, fmt.Errorf("error updating comment: %w", err)
	}

	c.Text = text
	return c, nil
}

func (s *CommentService) Delete(ctx context.Context, actor *models.User, campgroundID, commentID string) error {
	c, err := s.GetForEdit(ctx, actor, campgroundID, commentID)
	if err != nil {
		return err
	}

	if err := s.repomanager.Comments(s.db).Delete(ctx, c.ID); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return notFound("Comment", err)
		}
		return fmt.Errorf("error deleting comment: %w", err)
	}

	return nil
}
