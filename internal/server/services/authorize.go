package services

import (
	"github.com/dmitrijs2005/yelpcamp/internal/common"
	"github.com/dmitrijs2005/yelpcamp/internal/server/auth"
	"github.com/dmitrijs2005/yelpcamp/internal/server/models"
	"github.com/google/uuid"
)

const (
	msgLogin     = "Please login!"
	msgForbidden = "You are not authorized to perform this operation!"
)

var errLoginRequired = common.NewUserError(common.ErrorUnauthorized, msgLogin, nil)

// authorize applies the ownership guard. The resource must already have been
// looked up: a missing record is NotFound and never reaches this point.
func authorize(actor *models.User, author models.Author) error {
	if actor == nil {
		return errLoginRequired
	}
	if !auth.CanModify(actor, author) {
		return common.NewUserError(common.ErrorForbidden, msgForbidden, nil)
	}
	return nil
}

// validID reports whether id can name a row at all. Malformed ids are
// treated as missing records instead of reaching the database.
func validID(id string) bool {
	if len(id) != 36 {
		return false
	}
	_, err := uuid.Parse(id)
	return err == nil
}

func notFound(what string, cause error) error {
	return common.NewUserError(common.ErrorNotFound, what+" not found.", cause)
}
