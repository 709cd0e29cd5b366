package web

import (
	"errors"
	"net/http"

	"github.com/dmitrijs2005/yelpcamp/internal/common"
	"github.com/dmitrijs2005/yelpcamp/internal/server/models"
	"github.com/dmitrijs2005/yelpcamp/internal/server/services"
	"github.com/gorilla/mux"
)

func (s *Server) registerForm(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusOK, "register", nil)
}

func (s *Server) register(w http.ResponseWriter, r *http.Request) {
	to := targets{form: "/register"}

	user, err := s.users.Register(r.Context(), services.RegisterInput{
		Username:  r.PostFormValue("username"),
		Email:     r.PostFormValue("email"),
		Password:  r.PostFormValue("password"),
		FirstName: r.PostFormValue("firstName"),
		LastName:  r.PostFormValue("lastName"),
		Phone:     r.PostFormValue("phone"),
		AdminCode: r.PostFormValue("adminCode"),
	})
	if err != nil {
		s.fail(w, r, err, to)
		return
	}

	if err := s.startSession(w, user); err != nil {
		s.serverError(w, r, err)
		return
	}

	s.logger.Info(r.Context(), "user registered", "user_id", user.ID, "admin", user.IsAdmin)
	s.redirect(w, r, "/campgrounds", flashSuccess, "Successfully Signed Up! Nice to meet you "+user.Username)
}

func (s *Server) loginForm(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusOK, "login", nil)
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	user, err := s.users.Authenticate(r.Context(), r.PostFormValue("username"), r.PostFormValue("password"))
	if err != nil {
		s.fail(w, r, err, targets{form: "/login"})
		return
	}

	if err := s.startSession(w, user); err != nil {
		s.serverError(w, r, err)
		return
	}

	s.redirect(w, r, "/campgrounds", flashSuccess, "Welcome back, "+user.Username+"!")
}

func (s *Server) logout(w http.ResponseWriter, r *http.Request) {
	s.clearSession(w)
	s.redirect(w, r, "/campgrounds", flashSuccess, "See you later!")
}

func (s *Server) forgotForm(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusOK, "forgot", nil)
}

func (s *Server) resetLink(token string) string {
	return s.baseURL + "/reset/" + token
}

func (s *Server) forgot(w http.ResponseWriter, r *http.Request) {
	email := r.PostFormValue("email")

	outcome, err := s.resets.Issue(r.Context(), email, s.resetLink)
	if err != nil {
		s.fail(w, r, err, targets{form: "/forgot"})
		return
	}

	switch outcome {
	case services.NoSuchAccount:
		s.redirect(w, r, "/forgot", flashError, "No account with that email address exists.")
	default:
		s.redirect(w, r, "/forgot", flashSuccess, "An e-mail has been sent to "+email+" with further instructions.")
	}
}

type resetPage struct {
	Token string
}

func (s *Server) resetForm(w http.ResponseWriter, r *http.Request) {
	token := mux.Vars(r)["token"]

	if err := s.resets.Check(r.Context(), token); err != nil {
		s.fail(w, r, err, targets{form: "/forgot"})
		return
	}

	s.render(w, r, http.StatusOK, "reset", resetPage{Token: token})
}

func (s *Server) reset(w http.ResponseWriter, r *http.Request) {
	token := mux.Vars(r)["token"]

	outcome, user, err := s.resets.Redeem(r.Context(), token, r.PostFormValue("password"), r.PostFormValue("confirm"))

	switch outcome {
	case services.PasswordChanged, services.ConfirmationMailFailed:
		if serr := s.startSession(w, user); serr != nil {
			s.serverError(w, r, serr)
			return
		}
		if err != nil {
			s.redirect(w, r, "/campgrounds", flashError, common.PublicMessage(err, msgSomethingWent))
			return
		}
		s.redirect(w, r, "/campgrounds", flashSuccess, "Success! Your password has been changed.")
	case services.InvalidOrExpired:
		s.redirect(w, r, "/forgot", flashError, msgInvalidReset)
	default:
		if err == nil {
			err = errors.New("reset: no outcome")
		}
		s.fail(w, r, err, targets{form: "/reset/" + token})
	}
}

type profilePage struct {
	User        *models.User
	Campgrounds []*models.Campground
}

func (s *Server) profile(w http.ResponseWriter, r *http.Request) {
	user, list, err := s.users.Profile(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		s.fail(w, r, err, targets{})
		return
	}

	s.render(w, r, http.StatusOK, "users/show", profilePage{User: user, Campgrounds: list})
}
