package web

import (
	"net/http"

	"github.com/dmitrijs2005/yelpcamp/internal/server/models"
	"github.com/gorilla/mux"
)

type commentPage struct {
	Campground *models.Campground
	Comment    *models.Comment
}

func commentURL(campgroundID, commentID string) string {
	return campgroundURL(campgroundID) + "/comments/" + commentID
}

func (s *Server) newComment(w http.ResponseWriter, r *http.Request) {
	if currentUser(r) == nil {
		s.redirect(w, r, "/login", flashError, msgLogin)
		return
	}

	c, err := s.campgrounds.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		s.fail(w, r, err, targets{})
		return
	}

	s.render(w, r, http.StatusOK, "comments/new", commentPage{Campground: c})
}

func (s *Server) createComment(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	_, err := s.comments.Create(r.Context(), currentUser(r), id, r.PostFormValue("text"))
	if err != nil {
		s.fail(w, r, err, targets{form: campgroundURL(id) + "/comments/new", resource: campgroundURL(id)})
		return
	}

	s.redirect(w, r, campgroundURL(id), flashSuccess, "Successfully added comment")
}

func (s *Server) editComment(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	id, commentID := vars["id"], vars["comment_id"]

	cm, err := s.comments.GetForEdit(r.Context(), currentUser(r), id, commentID)
	if err != nil {
		s.fail(w, r, err, targets{resource: campgroundURL(id)})
		return
	}

	s.render(w, r, http.StatusOK, "comments/edit", commentPage{
		Campground: &models.Campground{ID: id},
		Comment:    cm,
	})
}

func (s *Server) updateComment(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	id, commentID := vars["id"], vars["comment_id"]

	_, err := s.comments.Update(r.Context(), currentUser(r), id, commentID, r.PostFormValue("text"))
	if err != nil {
		s.fail(w, r, err, targets{form: commentURL(id, commentID) + "/edit", resource: campgroundURL(id)})
		return
	}

	s.redirect(w, r, campgroundURL(id), flashSuccess, "Comment updated")
}

func (s *Server) deleteComment(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	id, commentID := vars["id"], vars["comment_id"]

	if err := s.comments.Delete(r.Context(), currentUser(r), id, commentID); err != nil {
		s.fail(w, r, err, targets{form: campgroundURL(id), resource: campgroundURL(id)})
		return
	}

	s.redirect(w, r, campgroundURL(id), flashSuccess, "Comment deleted")
}
