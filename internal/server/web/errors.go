package web

import (
	"errors"
	"net/http"

	"github.com/dmitrijs2005/yelpcamp/internal/common"
)

const (
	msgLogin         = "Please login!"
	msgForbidden     = "You are not authorized to perform this operation!"
	msgInvalidReset  = "Password reset token is invalid or has expired."
	msgSomethingWent = "Something went wrong. Please try again."
)

// targets tells fail where to send the user back to: form for input errors,
// resource for authorization failures.
type targets struct {
	form     string
	resource string
}

// fail turns a service error into a flash message and a redirect. Errors of
// no known kind are logged and answered with the error page.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error, to targets) {
	switch {
	case errors.Is(err, common.ErrorNotFound):
		s.redirect(w, r, "/campgrounds", flashError, common.PublicMessage(err, "Not found."))

	case errors.Is(err, common.ErrorUnauthorized):
		s.redirect(w, r, "/login", flashError, common.PublicMessage(err, msgLogin))

	case errors.Is(err, common.ErrorForbidden):
		s.redirect(w, r, orDefault(to.resource, "/campgrounds"), flashError, common.PublicMessage(err, msgForbidden))

	case errors.Is(err, common.ErrInvalidResetToken):
		s.redirect(w, r, "/forgot", flashError, msgInvalidReset)

	case errors.Is(err, common.ErrorValidation),
		errors.Is(err, common.ErrorConflict),
		errors.Is(err, common.ErrorExternalService):
		s.redirect(w, r, orDefault(to.form, "/campgrounds"), flashError, common.PublicMessage(err, msgSomethingWent))

	default:
		s.serverError(w, r, err)
	}
}

func (s *Server) serverError(w http.ResponseWriter, r *http.Request, err error) {
	s.logger.Error(r.Context(), "request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	s.render(w, r, http.StatusInternalServerError, "error", errorPage{
		Status:  http.StatusInternalServerError,
		Message: msgSomethingWent,
	})
}

type errorPage struct {
	Status  int
	Message string
}

func (s *Server) notFoundPage(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusNotFound, "error", errorPage{
		Status:  http.StatusNotFound,
		Message: "The page you are looking for does not exist.",
	})
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
