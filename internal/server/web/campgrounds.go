package web

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/dmitrijs2005/yelpcamp/internal/common"
	"github.com/dmitrijs2005/yelpcamp/internal/server/models"
	"github.com/dmitrijs2005/yelpcamp/internal/server/services"
	"github.com/gorilla/mux"
)

func campgroundURL(id string) string {
	return "/campgrounds/" + id
}

func (s *Server) landing(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusOK, "landing", nil)
}

type campgroundsPage struct {
	Campgrounds []*models.Campground
	Search      string
	NoMatch     string
}

func (s *Server) listCampgrounds(w http.ResponseWriter, r *http.Request) {
	search := strings.TrimSpace(r.URL.Query().Get("search"))

	list, err := s.campgrounds.List(r.Context(), search)
	if err != nil {
		s.serverError(w, r, err)
		return
	}

	page := campgroundsPage{Campgrounds: list, Search: search}
	if search != "" && len(list) == 0 {
		page.NoMatch = "No campgrounds match that query, please try again."
	}

	s.render(w, r, http.StatusOK, "campgrounds/index", page)
}

func (s *Server) newCampground(w http.ResponseWriter, r *http.Request) {
	if currentUser(r) == nil {
		s.redirect(w, r, "/login", flashError, msgLogin)
		return
	}
	s.render(w, r, http.StatusOK, "campgrounds/new", nil)
}

// campgroundInput reads the multipart campground form. A missing image file
// leaves Image nil.
func campgroundInput(w http.ResponseWriter, r *http.Request) (services.CampgroundInput, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		return services.CampgroundInput{}, common.NewUserError(common.ErrorValidation,
			"The uploaded form could not be read. Images must be smaller than 10 MB.", err)
	}

	in := services.CampgroundInput{
		Name:        r.FormValue("name"),
		Price:       r.FormValue("price"),
		Description: r.FormValue("description"),
		Location:    r.FormValue("location"),
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
			return in, nil
		}
		return in, common.NewUserError(common.ErrorValidation, "The uploaded image could not be read.", err)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return in, common.NewUserError(common.ErrorValidation, "The uploaded image could not be read.", err)
	}
	in.Image = &services.ImageUpload{Filename: header.Filename, Data: data}

	return in, nil
}

func (s *Server) createCampground(w http.ResponseWriter, r *http.Request) {
	to := targets{form: "/campgrounds/new"}

	if currentUser(r) == nil {
		s.redirect(w, r, "/login", flashError, msgLogin)
		return
	}

	in, err := campgroundInput(w, r)
	if err != nil {
		s.fail(w, r, err, to)
		return
	}

	c, err := s.campgrounds.Create(r.Context(), currentUser(r), in)
	if err != nil {
		s.fail(w, r, err, to)
		return
	}

	s.redirect(w, r, campgroundURL(c.ID), flashSuccess, "Successfully created campground!")
}

func (s *Server) showCampground(w http.ResponseWriter, r *http.Request) {
	c, err := s.campgrounds.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			s.render(w, r, http.StatusNotFound, "error", errorPage{
				Status:  http.StatusNotFound,
				Message: common.PublicMessage(err, "Campground not found."),
			})
			return
		}
		s.serverError(w, r, err)
		return
	}

	s.render(w, r, http.StatusOK, "campgrounds/show", c)
}

func (s *Server) editCampground(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	c, err := s.campgrounds.GetForEdit(r.Context(), currentUser(r), id)
	if err != nil {
		s.fail(w, r, err, targets{resource: campgroundURL(id)})
		return
	}

	s.render(w, r, http.StatusOK, "campgrounds/edit", c)
}

func (s *Server) updateCampground(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	to := targets{form: campgroundURL(id) + "/edit", resource: campgroundURL(id)}

	in, err := campgroundInput(w, r)
	if err != nil {
		s.fail(w, r, err, to)
		return
	}

	c, err := s.campgrounds.Update(r.Context(), currentUser(r), id, in)
	if err != nil {
		s.fail(w, r, err, to)
		return
	}

	s.redirect(w, r, campgroundURL(c.ID), flashSuccess, "Successfully updated!")
}

func (s *Server) deleteCampground(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	if err := s.campgrounds.Delete(r.Context(), currentUser(r), id); err != nil {
		s.fail(w, r, err, targets{form: "/campgrounds", resource: campgroundURL(id)})
		return
	}

	s.redirect(w, r, "/campgrounds", flashSuccess, "Campground deleted successfully!")
}
