package auth

import "github.com/dmitrijs2005/yelpcamp/internal/server/models"

// CanModify reports whether actor may edit or delete a record created by
// author: the actor must be signed in and either be the author or an admin.
func CanModify(actor *models.User, author models.Author) bool {
	if actor == nil {
		return false
	}
	return actor.IsAdmin || (author.ID != "" && author.ID == actor.ID)
}
