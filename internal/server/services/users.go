package services

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/dmitrijs2005/yelpcamp/internal/common"
	"github.com/dmitrijs2005/yelpcamp/internal/cryptox"
	"github.com/dmitrijs2005/yelpcamp/internal/dbx"
	"github.com/dmitrijs2005/yelpcamp/internal/server/auth"
	"github.com/dmitrijs2005/yelpcamp/internal/server/config"
	"github.com/dmitrijs2005/yelpcamp/internal/server/models"
	"github.com/dmitrijs2005/yelpcamp/internal/server/repositories/repomanager"
)

// RegisterInput is the sign-up form. AdminCode may be empty.
type RegisterInput struct {
	Username  string
	Email     string
	Password  string
	FirstName string
	LastName  string
	Phone     string
	AdminCode string
}

type UserService struct {
	db                      dbx.DBTX
	repomanager             repomanager.RepositoryManager
	jwtSecret               []byte
	sessionValidityDuration time.Duration
	adminCode               string
}

func NewUserService(db dbx.DBTX, m repomanager.RepositoryManager, cfg *config.Config) *UserService {
	return &UserService{
		db:                      db,
		repomanager:             m,
		jwtSecret:               []byte(cfg.SecretKey),
		sessionValidityDuration: cfg.SessionValidityDuration,
		adminCode:               cfg.AdminCode,
	}
}

// Register creates an account. The account is an admin only when a code is
// configured and the supplied one matches it. Taken usernames or e-mails come
// back as common.ErrorConflict and nothing is stored.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.TrimSpace(in.Email)

	switch {
	case in.Username == "":
		return nil, common.NewUserError(common.ErrorValidation, "Username is required.", nil)
	case in.Email == "":
		return nil, common.NewUserError(common.ErrorValidation, "Email is required.", nil)
	case in.Password == "":
		return nil, common.NewUserError(common.ErrorValidation, "Password is required.", nil)
	}

	if _, err := mail.ParseAddress(in.Email); err != nil {
		return nil, common.NewUserError(common.ErrorValidation, "Email is not valid.", nil)
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("%w: hash password: %w", common.ErrorInternal, err)
	}

	user := &models.User{
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: hash,
		FirstName:    strings.TrimSpace(in.FirstName),
		LastName:     strings.TrimSpace(in.LastName),
		Phone:        strings.TrimSpace(in.Phone),
		IsAdmin:      s.isAdminCode(in.AdminCode),
	}

	user, err = s.repomanager.Users(s.db).Create(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("error creating user: %w", err)
	}

	return user, nil
}

func (s *UserService) isAdminCode(code string) bool {
	return s.adminCode != "" && cryptox.EqualStrings(code, s.adminCode)
}

// Authenticate checks a username and password. Unknown users and wrong
// passwords produce the same error.
func (s *UserService) Authenticate(ctx context.Context, username, password string) (*models.User, error) {
	invalid := common.NewUserError(common.ErrorUnauthorized, "Invalid username or password.", nil)

	user, err := s.repomanager.Users(s.db).GetByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, invalid
		}
		return nil, err
	}

	if err := auth.CheckPassword(user.PasswordHash, password); err != nil {
		if errors.Is(err, auth.ErrPasswordMismatch) {
			return nil, invalid
		}
		return nil, fmt.Errorf("%w: %w", common.ErrorInternal, err)
	}

	return user, nil
}

func (s *UserService) GetByID(ctx context.Context, id string) (*models.User, error) {
	if !validID(id) {
		return nil, notFound("User", nil)
	}
	user, err := s.repomanager.Users(s.db).GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, notFound("User", err)
		}
		return nil, err
	}
	return user, nil
}

// IssueSession signs a session token for userID.
func (s *UserService) IssueSession(userID string) (string, time.Time, error) {
	return auth.GenerateToken(userID, s.jwtSecret, s.sessionValidityDuration)
}

// ResolveSession returns the user a session token belongs to, or
// common.ErrInvalidToken if the token is bad or the user is gone.
func (s *UserService) ResolveSession(ctx context.Context, token string) (*models.User, error) {
	userID, err := auth.GetUserIDFromToken(token, s.jwtSecret)
	if err != nil {
		return nil, err
	}

	user, err := s.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrInvalidToken
		}
		return nil, err
	}

	return user, nil
}

// Profile returns a user together with the campgrounds they created.
func (s *UserService) Profile(ctx context.Context, id string) (*models.User, []*models.Campground, error) {
	user, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	campgrounds, err := s.repomanager.Campgrounds(s.db).ListByAuthor(ctx, user.ID)
	if err != nil {
		return nil, nil, err
	}

	return user, campgrounds, nil
}

// SetAdmin grants or revokes admin rights by username.
func (s *UserService) SetAdmin(ctx context.Context, username string, isAdmin bool) error {
	repo := s.repomanager.Users(s.db)

	user, err := repo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return notFound("User", err)
		}
		return err
	}

	return repo.SetAdmin(ctx, user.ID, isAdmin)
}

// SetPassword replaces a user's password. Any pending reset token is dropped.
func (s *UserService) SetPassword(ctx context.Context, username, password string) error {
	if password == "" {
		return common.NewUserError(common.ErrorValidation, "Password is required.", nil)
	}

	repo := s.repomanager.Users(s.db)

	user, err := repo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return notFound("User", err)
		}
		return err
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return fmt.Errorf("%w: hash password: %w", common.ErrorInternal, err)
	}

	return repo.UpdatePassword(ctx, user.ID, hash)
}
