package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/yelpcamp/internal/common"
	"github.com/dmitrijs2005/yelpcamp/internal/cryptox"
	"github.com/dmitrijs2005/yelpcamp/internal/dbx"
	"github.com/dmitrijs2005/yelpcamp/internal/logging"
	"github.com/dmitrijs2005/yelpcamp/internal/server/auth"
	"github.com/dmitrijs2005/yelpcamp/internal/server/config"
	"github.com/dmitrijs2005/yelpcamp/internal/server/models"
	"github.com/dmitrijs2005/yelpcamp/internal/server/repositories/repomanager"
)

// resetTokenSize is the number of random bytes in a reset token before hex encoding.
const resetTokenSize = 20

// IssueOutcome is the result of a reset request.
type IssueOutcome int

const (
	TokenIssued IssueOutcome = iota + 1
	NoSuchAccount
	MailFailed
)

func (o IssueOutcome) String() string {
	switch o {
	case TokenIssued:
		return "token_issued"
	case NoSuchAccount:
		return "no_such_account"
	case MailFailed:
		return "mail_failed"
	}
	return "unknown"
}

// RedeemOutcome is the result of a reset redemption.
type RedeemOutcome int

const (
	PasswordChanged RedeemOutcome = iota + 1
	InvalidOrExpired
	PasswordMismatch
	// ConfirmationMailFailed means the password was changed but the notice
	// could not be sent.
	ConfirmationMailFailed
)

func (o RedeemOutcome) String() string {
	switch o {
	case PasswordChanged:
		return "password_changed"
	case InvalidOrExpired:
		return "invalid_or_expired"
	case PasswordMismatch:
		return "password_mismatch"
	case ConfirmationMailFailed:
		return "confirmation_mail_failed"
	}
	return "unknown"
}

// ResetService runs the forgotten-password flow: issue a token by e-mail,
// then redeem it for a new password.
type ResetService struct {
	db          dbx.DBTX
	repomanager repomanager.RepositoryManager
	mailer      Mailer
	logger      logging.Logger
	validity    time.Duration
	now         func() time.Time
	newToken    func() (string, error)
}

func NewResetService(db dbx.DBTX, m repomanager.RepositoryManager, mailer Mailer, cfg *config.Config, logger logging.Logger) *ResetService {
	return &ResetService{
		db:          db,
		repomanager: m,
		mailer:      mailer,
		logger:      logger.With("module", "reset"),
		validity:    cfg.ResetTokenValidityDuration,
		now:         time.Now,
		newToken:    func() (string, error) { return common.MakeRandHexString(resetTokenSize) },
	}
}

// Issue stores a fresh token for the account registered under email and
// mails link(token) to it. A new token replaces any earlier one. Unknown
// addresses yield NoSuchAccount with no error and no mail.
func (s *ResetService) Issue(ctx context.Context, email string, link func(token string) string) (IssueOutcome, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return NoSuchAccount, nil
	}

	repo := s.repomanager.Users(s.db)

	user, err := repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return NoSuchAccount, nil
		}
		return 0, err
	}

	token, err := s.newToken()
	if err != nil {
		return 0, fmt.Errorf("%w: generate reset token: %w", common.ErrorInternal, err)
	}

	expires := s.now().Add(s.validity)
	if err := repo.SetResetToken(ctx, user.ID, cryptox.HashToken(token), expires); err != nil {
		return 0, err
	}

	body := "You are receiving this because you (or someone else) have requested the reset of the password for your account.\n\n" +
		"Please click on the following link, or paste it into your browser to complete the process:\n\n" +
		link(token) + "\n\n" +
		"If you did not request this, please ignore this email and your password will remain unchanged.\n"

	if err := s.mailer.Send(ctx, user.Email, "YelpCamp Password Reset", body); err != nil {
		s.logger.Warn(ctx, "reset mail failed", "user_id", user.ID, "error", err)
		return MailFailed, common.NewUserError(common.ErrorExternalService,
			"The reset e-mail could not be sent. Please try again later.", err)
	}

	s.logger.Info(ctx, "reset token issued", "user_id", user.ID)
	return TokenIssued, nil
}

// Check reports whether token can currently be redeemed.
func (s *ResetService) Check(ctx context.Context, token string) error {
	_, err := s.lookup(ctx, token)
	return err
}

func (s *ResetService) lookup(ctx context.Context, token string) (*models.User, error) {
	if token == "" {
		return nil, common.ErrInvalidResetToken
	}

	user, err := s.repomanager.Users(s.db).GetByResetTokenHash(ctx, cryptox.HashToken(token))
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrInvalidResetToken
		}
		return nil, err
	}

	if !user.ResetValidAt(s.now()) {
		return nil, common.ErrInvalidResetToken
	}

	return user, nil
}

// Redeem sets a new password using token. The write only succeeds while the
// token is still pending and unexpired, and clears it, so a token works at
// most once even when redeemed concurrently.
// The user is returned for PasswordChanged and ConfirmationMailFailed.
func (s *ResetService) Redeem(ctx context.Context, token, password, confirm string) (RedeemOutcome, *models.User, error) {
	user, err := s.lookup(ctx, token)
	if err != nil {
		if errors.Is(err, common.ErrInvalidResetToken) {
			return InvalidOrExpired, nil, err
		}
		return 0, nil, err
	}

	if password == "" || password != confirm {
		return PasswordMismatch, nil, common.NewUserError(common.ErrorValidation, "Passwords do not match.", nil)
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return 0, nil, fmt.Errorf("%w: hash password: %w", common.ErrorInternal, err)
	}

	err = s.repomanager.Users(s.db).ConsumeResetToken(ctx, user.ID, cryptox.HashToken(token), hash, s.now())
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return InvalidOrExpired, nil, common.ErrInvalidResetToken
		}
		return 0, nil, err
	}
	user.PasswordHash = hash
	user.ResetTokenHash = ""
	user.ResetExpires = time.Time{}

	body := "Hello,\n\n" +
		"This is a confirmation that the password for your account " + user.Email + " has just been changed.\n"

	if err := s.mailer.Send(ctx, user.Email, "Your password has been changed", body); err != nil {
		s.logger.Warn(ctx, "password change confirmation failed", "user_id", user.ID, "error", err)
		return ConfirmationMailFailed, user, common.NewUserError(common.ErrorExternalService,
			"Your password has been changed, but the confirmation e-mail could not be sent.", err)
	}

	s.logger.Info(ctx, "password reset", "user_id", user.ID)
	return PasswordChanged, user, nil
}
